package recipe

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Discriminates the three shapes a document node can take.
type Kind uint8

const (
	Scalar Kind = iota
	Sequence
	Mapping
)

// A node in the decoded document tree: a scalar, an ordered sequence, or
// an ordered mapping. The zero Value is a nil scalar.
type Value struct {
	kind    Kind
	scalar  any
	seq     []Value
	entries []Entry
}

// A key/value pair of an ordered mapping.
type Entry struct {
	Key   string
	Value Value
}

// Creates a scalar value.
func ScalarValue(v any) Value {
	return Value{kind: Scalar, scalar: v}
}

// Creates a sequence value.
func SequenceValue(items ...Value) Value {
	return Value{kind: Sequence, seq: items}
}

// Creates a mapping value.
func MappingValue(entries ...Entry) Value {
	return Value{kind: Mapping, entries: entries}
}

// Returns the shape of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// Returns the scalar payload. Only meaningful for scalar values.
func (v Value) Scalar() any {
	return v.scalar
}

// Returns the sequence items. Only meaningful for sequence values.
func (v Value) Sequence() []Value {
	return v.seq
}

// Returns the mapping entries in declaration order. Only meaningful for
// mapping values.
func (v Value) Entries() []Entry {
	return v.entries
}

// Looks up a mapping key.
func (v Value) Lookup(key string) (Value, bool) {
	for _, e := range v.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Reports whether the value is a nil scalar.
func (v Value) IsNil() bool {
	return v.kind == Scalar && v.scalar == nil
}

// Decodes a YAML node into a [Value], preserving mapping order.
func fromNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Value{}, nil
		}
		return fromNode(n.Content[0])

	case yaml.AliasNode:
		return fromNode(n.Alias)

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return Value{}, fmt.Errorf("%w: line %d: %v", ErrInvalidDocument, n.Line, err)
		}
		return ScalarValue(v), nil

	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			item, err := fromNode(c)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return SequenceValue(items...), nil

	case yaml.MappingNode:
		entries := make([]Entry, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return Value{}, fmt.Errorf("%w: line %d: mapping key must be a scalar", ErrInvalidDocument, key.Line)
			}

			value, err := fromNode(n.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			entries = append(entries, Entry{Key: key.Value, Value: value})
		}
		return MappingValue(entries...), nil

	default:
		return Value{}, fmt.Errorf("%w: line %d: unsupported node kind", ErrInvalidDocument, n.Line)
	}
}

// Parses a YAML document into a [Value] tree.
func ParseValue(data []byte) (Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return fromNode(&root)
}
