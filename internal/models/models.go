// Package models defines the value types held by the store.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
)

// ScalarKind tags the variant held by a Scalar.
type ScalarKind int

const (
	// Number is a double-precision floating-point scalar.
	Number ScalarKind = iota + 1
	// String is a text scalar.
	String
)

// Kind tags the variant held by a Value.
type Kind int

const (
	// KindScalar is a single Scalar, the shape of a key after its first STORE.
	KindScalar Kind = iota + 1
	// KindList is an ordered sequence of Scalars, produced by a repeated STORE.
	KindList
)

// ErrInvalidValue is returned when JSON input does not describe a Value.
var ErrInvalidValue = errors.New("invalid value")

// ---------------------------------------------------------------------------
// Scalar
// ---------------------------------------------------------------------------

// Scalar is either a Number or a String, never a collection.
// The zero Scalar has no kind and is never stored.
type Scalar struct {
	kind ScalarKind
	num  float64
	str  string
}

// NumberScalar returns a Number scalar.
func NumberScalar(f float64) Scalar { return Scalar{kind: Number, num: f} }

// StringScalar returns a String scalar.
func StringScalar(s string) Scalar { return Scalar{kind: String, str: s} }

// Kind reports which variant s holds.
func (s Scalar) Kind() ScalarKind { return s.kind }

// Number returns the numeric payload and whether s is a Number.
func (s Scalar) Number() (float64, bool) { return s.num, s.kind == Number }

// Text returns the string payload and whether s is a String.
func (s Scalar) Text() (string, bool) { return s.str, s.kind == String }

// Equal reports whether s and o hold the same variant and payload.
func (s Scalar) Equal(o Scalar) bool { return s == o }

// String renders s for display: numbers in shortest form, strings verbatim.
func (s Scalar) String() string {
	switch s.kind {
	case Number:
		return formatNumber(s.num)
	case String:
		return s.str
	}
	return ""
}

// MarshalJSON encodes a Number as a JSON number and a String as a JSON string.
func (s Scalar) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case Number:
		return []byte(formatNumber(s.num)), nil
	case String:
		return marshalString(s.str)
	}
	return nil, fmt.Errorf("models.Scalar.MarshalJSON: %w: no kind", ErrInvalidValue)
}

// UnmarshalJSON decodes a JSON number or string.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	sc, err := scalarFromAny(raw)
	if err != nil {
		return err
	}
	*s = sc
	return nil
}

// MarshalYAML renders s as a plain YAML number or string.
func (s Scalar) MarshalYAML() (any, error) {
	switch s.kind {
	case Number:
		return s.num, nil
	case String:
		return s.str, nil
	}
	return nil, fmt.Errorf("models.Scalar.MarshalYAML: %w: no kind", ErrInvalidValue)
}

// ---------------------------------------------------------------------------
// Value
// ---------------------------------------------------------------------------

// Value is the tagged union stored under a key: a Scalar or a List of Scalars.
// A Value never shares its list backing array with another Value.
type Value struct {
	kind   Kind
	scalar Scalar
	list   []Scalar
}

// ScalarValue wraps s as a Value.
func ScalarValue(s Scalar) Value { return Value{kind: KindScalar, scalar: s} }

// ListValue returns a List value holding a copy of items.
func ListValue(items ...Scalar) Value {
	return Value{kind: KindList, list: slices.Clone(items)}
}

// Kind reports which variant v holds. The zero Value reports 0.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether v is the zero Value.
func (v Value) IsZero() bool { return v.kind == 0 }

// Scalar returns the scalar payload and whether v is a Scalar.
func (v Value) Scalar() (Scalar, bool) { return v.scalar, v.kind == KindScalar }

// List returns a copy of the list payload, or nil when v is not a List.
func (v Value) List() []Scalar {
	if v.kind != KindList {
		return nil
	}
	return slices.Clone(v.list)
}

// Len returns 1 for a Scalar and the element count for a List.
func (v Value) Len() int {
	switch v.kind {
	case KindScalar:
		return 1
	case KindList:
		return len(v.list)
	}
	return 0
}

// Append returns the value a key holds after another STORE of s.
// A Scalar becomes the List [old, s]; a List gains s at its end.
// Appending to the zero Value yields the Scalar s.
func (v Value) Append(s Scalar) Value {
	switch v.kind {
	case KindScalar:
		return ListValue(v.scalar, s)
	case KindList:
		next := make([]Scalar, len(v.list), len(v.list)+1)
		copy(next, v.list)
		return Value{kind: KindList, list: append(next, s)}
	}
	return ScalarValue(s)
}

// Equal reports whether v and o hold the same variant and elements.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindScalar:
		return v.scalar == o.scalar
	case KindList:
		return slices.Equal(v.list, o.list)
	}
	return true
}

// String renders v for display. Lists render as JSON arrays.
func (v Value) String() string {
	switch v.kind {
	case KindScalar:
		return v.scalar.String()
	case KindList:
		b, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(b)
	}
	return ""
}

// MarshalJSON encodes a Scalar as its JSON scalar and a List as a compact
// JSON array in insertion order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindScalar:
		return v.scalar.MarshalJSON()
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, s := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := s.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("models.Value.MarshalJSON: %w: no kind", ErrInvalidValue)
}

// UnmarshalJSON decodes a JSON number, string, or array of numbers and strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	items, ok := raw.([]any)
	if !ok {
		sc, err := scalarFromAny(raw)
		if err != nil {
			return err
		}
		*v = ScalarValue(sc)
		return nil
	}
	list := make([]Scalar, 0, len(items))
	for _, item := range items {
		sc, err := scalarFromAny(item)
		if err != nil {
			return err
		}
		list = append(list, sc)
	}
	*v = Value{kind: KindList, list: list}
	return nil
}

// MarshalYAML renders a Scalar as a YAML scalar and a List as a sequence.
func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case KindScalar:
		return v.scalar.MarshalYAML()
	case KindList:
		return v.list, nil
	}
	return nil, fmt.Errorf("models.Value.MarshalYAML: %w: no kind", ErrInvalidValue)
}

// Entry is one key and its value, as listed by a store.
type Entry struct {
	Key   string
	Value Value
}

// ---------------------------------------------------------------------------
// Coercion
// ---------------------------------------------------------------------------

// numericLiteral matches a whole decimal floating-point literal.
var numericLiteral = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`)

// Coerce converts a literal token to a Number when the whole literal is a
// decimal number that fits a float64, and keeps it as a String otherwise.
// Negative zero is stored as zero.
func Coerce(literal string) Scalar {
	if !numericLiteral.MatchString(literal) {
		return StringScalar(literal)
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return StringScalar(literal)
	}
	if f == 0 {
		f = 0
	}
	return NumberScalar(f)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// formatNumber renders f the way a JSON encoder does: fixed notation within
// [1e-6, 1e21) and exponent notation outside it.
func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs < 1e-6 || abs >= 1e21 {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if format == 'e' {
		// e-07 -> e-7
		n := len(s)
		if n >= 4 && s[n-4] == 'e' && s[n-3] == '-' && s[n-2] == '0' {
			s = s[:n-2] + s[n-1:]
		}
	}
	return s
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func scalarFromAny(raw any) (Scalar, error) {
	switch t := raw.(type) {
	case float64:
		return NumberScalar(t), nil
	case string:
		return StringScalar(t), nil
	}
	return Scalar{}, fmt.Errorf("models: %w: unsupported JSON type %T", ErrInvalidValue, raw)
}
