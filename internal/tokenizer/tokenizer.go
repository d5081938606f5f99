// Package tokenizer splits a command line into tokens.
package tokenizer

import "strings"

// Tokenize splits input on spaces outside double quotes.
//
// A quote toggles quoting and is never part of a token. Closing a quote
// flushes the pending token, so `"ab"cd` yields two tokens. An unterminated
// quote runs to the end of input. Empty input yields an empty slice.
func Tokenize(input string) []string {
	tokens := make([]string, 0)
	var current strings.Builder
	inQuotes := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	// Byte-wise so that invalid UTF-8 passes through unchanged.
	for i := 0; i < len(input); i++ {
		b := input[i]
		switch {
		case b == '"':
			inQuotes = !inQuotes
			if !inQuotes {
				flush()
			}
		case b == ' ' && !inQuotes:
			flush()
		default:
			current.WriteByte(b)
		}
	}
	flush()

	return tokens
}
