package rvcfg

import (
	"fmt"
	"strconv"
)

// Kind represents the kind of a parsed value.
type Kind int

const (
	// KindString indicates quoted string value.
	KindString Kind = iota
	// KindBool indicates true/false value.
	KindBool
	// KindNumber indicates numeric value.
	KindNumber
	// KindArray indicates array literal value.
	KindArray
	// KindObject indicates class body value.
	KindObject
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value represents a parsed value.
type Value struct {
	Object *Node   // Object value
	Str    string  // String value
	Array  []Value // Array value
	Kind   Kind    // Value kind
	Num    float64 // Number value
	Bool   bool    // Boolean value
}

// StringValue creates a string value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// BoolValue creates a boolean value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NumberValue creates a numeric value.
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// ArrayValue creates an array value.
func ArrayValue(vals ...Value) Value {
	if vals == nil {
		vals = []Value{}
	}
	return Value{Kind: KindArray, Array: vals}
}

// ObjectValue creates an object value.
func ObjectValue(n *Node) Value { return Value{Kind: KindObject, Object: n} }

// Equal reports whether two values are structurally equal.
// Arrays compare element by element; objects compare fields in order and parent tags.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}

	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindBool:
		return v.Bool == o.Bool
	case KindNumber:
		return v.Num == o.Num
	case KindArray:
		if len(v.Array) != len(o.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(o.Array[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return v.Object.Equal(o.Object)
	default:
		return false
	}
}

// Interface converts the value to plain Go types:
// string, bool, float64, []any or *Node.
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Num
	case KindArray:
		out := make([]any, len(v.Array))
		for i, e := range v.Array {
			out[i] = e.Interface()
		}
		return out
	case KindObject:
		return v.Object
	default:
		return nil
	}
}

// Floats returns array elements as numbers.
// ok is false if the value is not an array of numbers.
func (v Value) Floats() ([]float64, bool) {
	if v.Kind != KindArray {
		return nil, false
	}

	out := make([]float64, len(v.Array))
	for i, e := range v.Array {
		if e.Kind != KindNumber {
			return nil, false
		}
		out[i] = e.Num
	}

	return out, true
}

// String renders the value in config literal form.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return `"` + v.Str + `"`
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNumber:
		return formatFloat(v.Num)
	case KindArray:
		b := []byte{'{'}
		for i, e := range v.Array {
			if i > 0 {
				b = append(b, ", "...)
			}
			b = append(b, e.String()...)
		}
		return string(append(b, '}'))
	case KindObject:
		return fmt.Sprintf("class{%d fields}", v.Object.Len())
	default:
		return ""
	}
}

// formatFloat formats a float64 value to a string.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
