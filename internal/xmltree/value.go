package xmltree

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the variants of a Value.
type Kind int

// Value kinds.
const (
	KindNull Kind = iota
	KindScalar
	KindSequence
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindObject:
		return "object"
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is the converted form of an XML element: null, a scalar string,
// a sequence of values for repeated sibling tags, or an object.
// The zero Value is Null.
type Value struct {
	kind   Kind
	scalar string
	items  []Value
	object *Object
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// Scalar wraps a string.
func Scalar(s string) Value {
	return Value{kind: KindScalar, scalar: s}
}

// Sequence wraps an ordered list of values.
func Sequence(items ...Value) Value {
	return Value{kind: KindSequence, items: items}
}

// ObjectValue wraps an object.
func ObjectValue(o *Object) Value {
	if o == nil {
		o = NewObject()
	}

	return Value{kind: KindObject, object: o}
}

// Kind returns the variant of v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Str returns the scalar string and whether v is a scalar.
func (v Value) Str() (string, bool) {
	return v.scalar, v.kind == KindScalar
}

// Seq returns the sequence items and whether v is a sequence.
func (v Value) Seq() ([]Value, bool) {
	return v.items, v.kind == KindSequence
}

// Obj returns the object and whether v is an object.
func (v Value) Obj() (*Object, bool) {
	return v.object, v.kind == KindObject
}

// Items views v as a list: null is empty, a sequence is its items and
// anything else is a single element. Callers use it where a tag may occur
// once or many times.
func (v Value) Items() []Value {
	switch v.kind {
	case KindNull:
		return nil
	case KindSequence:
		return v.items
	default:
		return []Value{v}
	}
}

// Text returns the textual content of v: the scalar itself, or the #text
// entry of an object. Other kinds yield "".
func (v Value) Text() string {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindObject:
		if t, ok := v.object.Get(TextKey); ok {
			s, _ := t.Str()

			return s
		}
	}

	return ""
}

// Field returns the entry key of an object value.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}

	return v.object.Get(key)
}

// Equal reports deep equality. Object key order is ignored.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindScalar:
		return v.scalar == o.scalar
	case KindSequence:
		if len(v.items) != len(o.items) {
			return false
		}

		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}

		return true
	case KindObject:
		if v.object.Len() != o.object.Len() {
			return false
		}

		for _, k := range v.object.Keys() {
			a, _ := v.object.Get(k)

			b, ok := o.object.Get(k)
			if !ok || !a.Equal(b) {
				return false
			}
		}

		return true
	}

	return false
}

// String renders v as compact JSON.
func (v Value) String() string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<%s>", v.kind)
	}

	return string(data)
}

// MarshalJSON encodes v keeping object key order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindScalar:
		data, err := json.Marshal(v.scalar)
		if err != nil {
			return err
		}

		buf.Write(data)
	case KindSequence:
		buf.WriteByte('[')

		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')

		for i, k := range v.object.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}

			key, err := json.Marshal(k)
			if err != nil {
				return err
			}

			buf.Write(key)
			buf.WriteByte(':')

			child, _ := v.object.Get(k)
			if err := child.writeJSON(buf); err != nil {
				return err
			}
		}

		buf.WriteByte('}')
	}

	return nil
}

// MarshalYAML encodes v as a yaml node keeping object key order.
func (v Value) MarshalYAML() (interface{}, error) {
	return v.yamlNode(), nil
}

func (v Value) yamlNode() *yaml.Node {
	switch v.kind {
	case KindScalar:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.scalar}
	case KindSequence:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.items {
			node.Content = append(node.Content, item.yamlNode())
		}

		return node
	case KindObject:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

		for _, k := range v.object.Keys() {
			child, _ := v.object.Get(k)
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				child.yamlNode(),
			)
		}

		return node
	}

	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

// Object is a string-keyed map that remembers insertion order.
type Object struct {
	entries map[string]Value
	keys    []string
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{entries: make(map[string]Value)}
}

// Set stores value under key. A new key is appended to the key order.
func (o *Object) Set(key string, value Value) {
	if _, ok := o.entries[key]; !ok {
		o.keys = append(o.keys, key)
	}

	o.entries[key] = value
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}

	v, ok := o.entries[key]

	return v, ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}

	return o.keys
}

// Len returns the number of entries.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}

	return len(o.keys)
}
