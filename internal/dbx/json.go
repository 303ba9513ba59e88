package dbx

import (
	"encoding/json"
	"fmt"
)

// EncodeMap renders a free-form map for a TEXT column. Nil encodes as "{}".
func EncodeMap(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode map: %w", err)
	}
	return string(b), nil
}

// DecodeMap parses a TEXT column written by EncodeMap. Empty input and "{}"
// both decode to nil.
func DecodeMap(s string) (map[string]any, error) {
	if s == "" || s == "{}" || s == "null" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decode map: %w", err)
	}
	return m, nil
}
