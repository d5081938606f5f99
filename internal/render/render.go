// Package render formats store contents for display.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/go-ports/minidb/internal/models"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned for a format other than FormatJSON or FormatYAML.
var ErrUnknownFormat = errors.New("unknown render format")

// Entries renders entries as an object keyed in insertion order.
// JSON output is indented by two spaces; YAML output is a block mapping.
// Neither carries a trailing newline.
func Entries(entries []models.Entry, format string) (string, error) {
	switch format {
	case FormatJSON:
		compact, err := JSONObject(entries)
		if err != nil {
			return "", err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, compact, "", "  "); err != nil {
			return "", fmt.Errorf("render.Entries: %w", err)
		}
		return buf.String(), nil
	case FormatYAML:
		return yamlMapping(entries)
	}
	return "", fmt.Errorf("render.Entries: %w: %q", ErrUnknownFormat, format)
}

// JSONObject encodes entries as a compact JSON object that preserves
// insertion order.
func JSONObject(entries []models.Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, e.Key); err != nil {
			return nil, fmt.Errorf("render.JSONObject: %w", err)
		}
		v, err := e.Value.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("render.JSONObject %q: %w", e.Key, err)
		}
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeKey appends key as a JSON string without HTML escaping.
func writeKey(buf *bytes.Buffer, key string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(key); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

func yamlMapping(entries []models.Entry) (string, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range entries {
		key := &yaml.Node{}
		if err := key.Encode(e.Key); err != nil {
			return "", fmt.Errorf("render.yamlMapping: %w", err)
		}
		val := &yaml.Node{}
		if err := val.Encode(e.Value); err != nil {
			return "", fmt.Errorf("render.yamlMapping %q: %w", e.Key, err)
		}
		root.Content = append(root.Content, key, val)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return "", fmt.Errorf("render.yamlMapping: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("render.yamlMapping: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
