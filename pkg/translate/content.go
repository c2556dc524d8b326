package translate

import (
	"encoding/json"
	"strings"
)

// EnsureJSONObjectString coerces a tool/function result into a valid JSON
// object string, which is the only content shape the backend accepts for
// function messages. Clients send objects, JSON strings, doubly encoded
// JSON strings, and occasionally Python-flavored dict literals; anything
// that does not decode to an object is wrapped as {"result": value}.
func EnsureJSONObjectString(value any) string {
	if value == nil {
		return "{}"
	}

	if b, ok := value.([]byte); ok {
		value = string(b)
	}

	switch v := value.(type) {
	case map[string]any:
		return mustJSON(v)

	case string:
		var current any = strings.TrimSpace(v)

		// Unwrap up to three rounds of string-encoded JSON.
		for i := 0; i < 3; i++ {
			s, ok := current.(string)
			if !ok {
				break
			}
			if s == "" {
				return "{}"
			}
			var decoded any
			if err := json.Unmarshal([]byte(s), &decoded); err != nil {
				break
			}
			current = decoded
		}

		switch decoded := current.(type) {
		case map[string]any:
			return mustJSON(decoded)
		case string:
			if lit, ok := parseLooseLiteral(decoded); ok {
				if obj, ok := lit.(map[string]any); ok {
					return mustJSON(obj)
				}
				return mustJSON(map[string]any{"result": lit})
			}
			return mustJSON(map[string]any{"result": decoded})
		default:
			return mustJSON(map[string]any{"result": decoded})
		}

	default:
		return mustJSON(map[string]any{"result": value})
	}
}

// parseLooseLiteral makes a best-effort pass at Python-flavored dict
// literals (single quotes, True/False/None) that some clients emit instead
// of JSON.
func parseLooseLiteral(s string) (any, bool) {
	replaced := strings.NewReplacer(
		"'", `"`,
		"True", "true",
		"False", "false",
		"None", "null",
	).Replace(s)

	var v any
	if err := json.Unmarshal([]byte(replaced), &v); err != nil {
		return nil, false
	}
	return v, true
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
