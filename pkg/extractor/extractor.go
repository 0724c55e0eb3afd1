// Package extractor pulls values out of nested gateway JSON using dot paths.
// Statement gateways nest fields differently ("txn.narration" vs
// "description"); the field maps on incoming batches use these paths.
package extractor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Extractor handles extracting values from nested data structures
type Extractor struct{}

// New creates a new Extractor
func New() *Extractor {
	return &Extractor{}
}

// Extract extracts a value from data using a path expression.
// Supported syntax:
// - Simple path: "amount", "txn.narration"
// - Array access: "entries[0].amount"
func (e *Extractor) Extract(data any, path string) (any, error) {
	if path == "" {
		return data, nil
	}

	current := data
	for _, part := range parsePath(path) {
		var err error
		current, err = extractPart(current, part)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, nil
		}
	}

	return current, nil
}

// ExtractString extracts a value and converts it to a string. A nil result
// means the path did not resolve.
func (e *Extractor) ExtractString(data any, path string) (*string, error) {
	value, err := e.Extract(data, path)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}

	s := toString(value)
	return &s, nil
}

// pathPart represents a parsed path segment
type pathPart struct {
	key        string
	isArray    bool
	arrayIndex int
}

func parsePath(path string) []pathPart {
	var parts []pathPart

	for _, seg := range splitPath(path) {
		part := pathPart{key: seg}

		if idx := strings.Index(seg, "["); idx != -1 && strings.HasSuffix(seg, "]") {
			part.key = seg[:idx]
			if i, err := strconv.Atoi(seg[idx+1 : len(seg)-1]); err == nil {
				part.isArray = true
				part.arrayIndex = i
			}
		}

		parts = append(parts, part)
	}

	return parts
}

// splitPath splits a dot-notation path, respecting array brackets
func splitPath(path string) []string {
	var parts []string
	var current strings.Builder

	inBracket := false
	for _, c := range path {
		switch c {
		case '[':
			inBracket = true
			current.WriteRune(c)
		case ']':
			inBracket = false
			current.WriteRune(c)
		case '.':
			if !inBracket {
				if current.Len() > 0 {
					parts = append(parts, current.String())
					current.Reset()
				}
			} else {
				current.WriteRune(c)
			}
		default:
			current.WriteRune(c)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

func extractPart(data any, part pathPart) (any, error) {
	var value any = data

	if part.key != "" {
		switch v := data.(type) {
		case map[string]any:
			val, ok := v[part.key]
			if !ok {
				return nil, nil
			}
			value = val
		case map[string]string:
			val, ok := v[part.key]
			if !ok {
				return nil, nil
			}
			value = val
		default:
			return nil, fmt.Errorf("cannot extract key %q from type %T", part.key, data)
		}
	}

	if part.isArray {
		arr, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("expected array for index access, got %T", value)
		}
		if part.arrayIndex < 0 || part.arrayIndex >= len(arr) {
			return nil, nil
		}
		return arr[part.arrayIndex], nil
	}

	return value, nil
}

// toString converts any value to a string
func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// FromJSON parses JSON data and returns it as a map
func FromJSON(data json.RawMessage) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
