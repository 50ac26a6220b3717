// Package jsonx decodes JSON objects embedded in free-form text, such as
// chat-model replies that wrap the requested object in commentary.
package jsonx

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeObject finds the span between the first '{' and the last '}' in raw
// and unmarshals it into v. Text before and after the span is ignored.
func DecodeObject(raw string, v any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return fmt.Errorf("no json object found in reply")
	}

	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return fmt.Errorf("decode json span: %w", err)
	}
	return nil
}

// DecodeMap is DecodeObject into a generic map.
func DecodeMap(raw string) (map[string]any, error) {
	m := make(map[string]any)
	if err := DecodeObject(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
