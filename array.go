package rvcfg

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// decodeArrayLiteral decodes the text between an array's outer braces.
// Braces outside strings become brackets and the result is decoded as JSON,
// so elements are JSON strings, numbers or nested arrays.
func decodeArrayLiteral(inner string) ([]Value, error) {
	lit := "[" + strings.TrimSpace(bracesToBrackets(inner)) + "]"

	var raw []any
	if err := json.Unmarshal([]byte(lit), &raw); err != nil {
		return nil, err
	}

	return convertArray(raw)
}

// bracesToBrackets rewrites { and } outside JSON strings to [ and ].
func bracesToBrackets(s string) string {
	b := []byte(s)
	inString := false
	for i := 0; i < len(b); i++ {
		ch := b[i]
		if inString {
			switch ch {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			b[i] = '['
		case '}':
			b[i] = ']'
		}
	}

	return string(b)
}

// convertArray converts decoded JSON elements into values.
func convertArray(raw []any) ([]Value, error) {
	out := make([]Value, 0, len(raw))
	for _, e := range raw {
		switch v := e.(type) {
		case string:
			out = append(out, StringValue(v))
		case float64:
			out = append(out, NumberValue(v))
		case []any:
			inner, err := convertArray(v)
			if err != nil {
				return nil, err
			}
			out = append(out, ArrayValue(inner...))
		default:
			return nil, fmt.Errorf("unsupported array element %v", e)
		}
	}

	return out, nil
}
