package gaexport

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Entry is one label/value pair of an Ordered map.
type Entry[V any] struct {
	Label string
	Value V
}

// Ordered is a string-keyed map that remembers insertion order. Re-setting an
// existing label replaces the value and keeps the original position.
// It serializes as a JSON/YAML object whose keys follow insertion order.
type Ordered[V any] struct {
	labels []string
	values map[string]V
}

// NewOrdered builds an Ordered map from entries, in order.
func NewOrdered[V any](entries ...Entry[V]) Ordered[V] {
	var o Ordered[V]
	for _, e := range entries {
		o.Set(e.Label, e.Value)
	}
	return o
}

// Set inserts or replaces a value.
func (o *Ordered[V]) Set(label string, value V) {
	if o.values == nil {
		o.values = make(map[string]V)
	}
	if _, exists := o.values[label]; !exists {
		o.labels = append(o.labels, label)
	}
	o.values[label] = value
}

// Get returns the value stored for label.
func (o Ordered[V]) Get(label string) (V, bool) {
	v, ok := o.values[label]
	return v, ok
}

// Len returns the number of distinct labels.
func (o Ordered[V]) Len() int {
	return len(o.labels)
}

// Labels returns a copy of the labels in insertion order.
func (o Ordered[V]) Labels() []string {
	out := make([]string, len(o.labels))
	copy(out, o.labels)
	return out
}

// Entries returns a copy of the pairs in insertion order.
func (o Ordered[V]) Entries() []Entry[V] {
	out := make([]Entry[V], len(o.labels))
	for i, label := range o.labels {
		out[i] = Entry[V]{Label: label, Value: o.values[label]}
	}
	return out
}

// MarshalJSON writes the map as an object with keys in insertion order.
func (o Ordered[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, label := range o.labels {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(label)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(o.values[label])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, keeping the key order of the document.
func (o *Ordered[V]) UnmarshalJSON(data []byte) error {
	*o = Ordered[V]{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("ordered map: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label, ok := tok.(string)
		if !ok {
			return fmt.Errorf("ordered map: expected string key, got %v", tok)
		}
		var value V
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("ordered map: value for %q: %w", label, err)
		}
		o.Set(label, value)
	}
	_, err = dec.Token()
	return err
}

// MarshalYAML emits a mapping node so YAML output keeps insertion order too.
func (o Ordered[V]) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, label := range o.labels {
		keyNode := &yaml.Node{}
		if err := keyNode.Encode(label); err != nil {
			return nil, err
		}
		valNode := &yaml.Node{}
		if err := valNode.Encode(o.values[label]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// CategoryTotals maps a category label to its count.
type CategoryTotals = Ordered[int64]

// Sum adds up every count in a category map.
func Sum(ct CategoryTotals) int64 {
	var total int64
	for _, label := range ct.labels {
		total += ct.values[label]
	}
	return total
}
