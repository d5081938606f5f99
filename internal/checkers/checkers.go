// Package checkers provides quicktest checkers for JSON tool output.
package checkers

import (
	"encoding/json"
	"fmt"

	qt "github.com/frankban/quicktest"
	"github.com/yalp/jsonpath"
)

// JSONPathEquals returns a checker that decodes the got JSON text, selects the
// value at path, and compares it with the wanted value using qt.DeepEquals.
// JSON numbers decode as float64, so numeric wants must be float64.
//
//	c.Assert(text, checkers.JSONPathEquals("$.result"), "Stored: k = 1")
func JSONPathEquals(path string) qt.Checker {
	return &jsonPathChecker{path: path}
}

type jsonPathChecker struct {
	path string
}

// ArgNames implements qt.Checker.
func (*jsonPathChecker) ArgNames() []string {
	return []string{"got", "want"}
}

// Check implements qt.Checker.
func (c *jsonPathChecker) Check(got any, args []any, note func(key string, value any)) error {
	var data []byte
	switch v := got.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return qt.BadCheckf("first argument is not a string or []byte, got %T", got)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		note("error", err)
		return qt.BadCheckf("cannot decode JSON")
	}

	selected, err := jsonpath.Read(doc, c.path)
	if err != nil {
		note("path", c.path)
		return fmt.Errorf("cannot select JSON path: %w", err)
	}
	note("path", c.path)
	return qt.DeepEquals.Check(selected, args, note)
}
