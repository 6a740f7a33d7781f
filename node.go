package rvcfg

import (
	"bytes"
	"iter"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// InheritedKey is the field name used for the parent class in JSON and YAML views.
const InheritedKey = "__inherited"

// Node is a parsed class body: an ordered mapping of field names to values.
//
// Field names are stored with their source case. Lookup helpers match
// case-insensitively, preferring an exact match.
type Node struct {
	Parent string           // Parent class name from "class X : Parent", empty if none
	keys   []string         // Field names in insertion order
	fields map[string]Value // Field values by exact name
}

// NewNode creates an empty node.
func NewNode() *Node {
	return &Node{fields: make(map[string]Value)}
}

// Set assigns a field. Re-assigning an existing name keeps its position.
// It reports whether the name was already present.
func (n *Node) Set(name string, v Value) bool {
	if n.fields == nil {
		n.fields = make(map[string]Value)
	}

	_, exists := n.fields[name]
	if !exists {
		n.keys = append(n.keys, name)
	}
	n.fields[name] = v

	return exists
}

// Get returns a field by exact name.
func (n *Node) Get(name string) (Value, bool) {
	if n == nil {
		return Value{}, false
	}

	v, ok := n.fields[name]
	return v, ok
}

// Lookup returns a field by case-insensitive name.
// An exact match wins; otherwise the first matching field in source order is returned.
func (n *Node) Lookup(name string) (string, Value, bool) {
	if n == nil {
		return "", Value{}, false
	}
	if v, ok := n.fields[name]; ok {
		return name, v, true
	}

	for _, k := range n.keys {
		if strings.EqualFold(k, name) {
			return k, n.fields[k], true
		}
	}

	return "", Value{}, false
}

// Has reports whether a field exists (case-insensitive).
func (n *Node) Has(name string) bool {
	_, _, ok := n.Lookup(name)
	return ok
}

// Keys returns field names in source order.
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}

	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Len returns the number of fields.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}

	return len(n.keys)
}

// All iterates fields in source order.
func (n *Node) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if n == nil {
			return
		}
		for _, k := range n.keys {
			if !yield(k, n.fields[k]) {
				return
			}
		}
	}
}

// Classes iterates nested class fields in source order.
func (n *Node) Classes() iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		for k, v := range n.All() {
			if v.Kind != KindObject {
				continue
			}
			if !yield(k, v.Object) {
				return
			}
		}
	}
}

// Class returns a nested class by case-insensitive name.
func (n *Node) Class(name string) (*Node, bool) {
	_, v, ok := n.Lookup(name)
	if !ok || v.Kind != KindObject {
		return nil, false
	}

	return v.Object, true
}

// StringField returns a string field by case-insensitive name.
func (n *Node) StringField(name string) (string, bool) {
	_, v, ok := n.Lookup(name)
	if !ok || v.Kind != KindString {
		return "", false
	}

	return v.Str, true
}

// NumberField returns a numeric field by case-insensitive name.
func (n *Node) NumberField(name string) (float64, bool) {
	_, v, ok := n.Lookup(name)
	if !ok || v.Kind != KindNumber {
		return 0, false
	}

	return v.Num, true
}

// BoolField returns a boolean field by case-insensitive name.
func (n *Node) BoolField(name string) (bool, bool) {
	_, v, ok := n.Lookup(name)
	if !ok || v.Kind != KindBool {
		return false, false
	}

	return v.Bool, true
}

// ArrayField returns an array field by case-insensitive name.
func (n *Node) ArrayField(name string) ([]Value, bool) {
	_, v, ok := n.Lookup(name)
	if !ok || v.Kind != KindArray {
		return nil, false
	}

	return v.Array, true
}

// Equal reports whether two nodes have the same parent and the same fields in the same order.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n.Len() == 0 && o.Len() == 0 && parentOf(n) == parentOf(o)
	}
	if n.Parent != o.Parent || len(n.keys) != len(o.keys) {
		return false
	}

	for i, k := range n.keys {
		if o.keys[i] != k {
			return false
		}
		if !n.fields[k].Equal(o.fields[k]) {
			return false
		}
	}

	return true
}

// parentOf returns the parent tag of a possibly nil node.
func parentOf(n *Node) string {
	if n == nil {
		return ""
	}
	return n.Parent
}

// MarshalJSON renders the node as a JSON object keeping field order.
// The parent tag is written as InheritedKey unless a field already uses that name.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	writeField := func(k string, v Value) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')

		vb, err := v.MarshalJSON()
		if err != nil {
			return err
		}
		buf.Write(vb)
		return nil
	}

	for k, v := range n.All() {
		if err := writeField(k, v); err != nil {
			return nil, err
		}
	}
	if n != nil && n.Parent != "" {
		if _, taken := n.fields[InheritedKey]; !taken {
			if err := writeField(InheritedKey, StringValue(n.Parent)); err != nil {
				return nil, err
			}
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON renders the value as JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.Array {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		return v.Object.MarshalJSON()
	default:
		return []byte("null"), nil
	}
}

// MarshalYAML renders the node as an ordered YAML mapping.
func (n *Node) MarshalYAML() (any, error) {
	return n.yamlNode()
}

// MarshalYAML renders the value as YAML.
func (v Value) MarshalYAML() (any, error) {
	return v.yamlNode()
}

// yamlNode builds a mapping node for n.
func (n *Node) yamlNode() (*yaml.Node, error) {
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	add := func(k string, v Value) error {
		vn, err := v.yamlNode()
		if err != nil {
			return err
		}
		out.Content = append(out.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, vn)
		return nil
	}

	for k, v := range n.All() {
		if err := add(k, v); err != nil {
			return nil, err
		}
	}
	if n != nil && n.Parent != "" {
		if _, taken := n.fields[InheritedKey]; !taken {
			if err := add(InheritedKey, StringValue(n.Parent)); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

// yamlNode builds a YAML node for v.
func (v Value) yamlNode() (*yaml.Node, error) {
	switch v.Kind {
	case KindArray:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		for _, e := range v.Array {
			en, err := e.yamlNode()
			if err != nil {
				return nil, err
			}
			if en.Kind != yaml.ScalarNode {
				// Nested arrays render in block style when they hold objects or arrays.
				out.Style = 0
			}
			out.Content = append(out.Content, en)
		}
		return out, nil

	case KindObject:
		return v.Object.yamlNode()

	default:
		out := &yaml.Node{}
		if err := out.Encode(v.Interface()); err != nil {
			return nil, err
		}
		return out, nil
	}
}
