// Package report holds the ordered document model shared by the collectors,
// the aggregator and the output writers.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"codeberg.org/mutker/sysreport/internal/errors"
	"gopkg.in/yaml.v3"
)

// GeneratedKey is stamped into every collector section.
const GeneratedKey = "Generated Time & Date"

// Field is one key/value pair of a Document.
type Field struct {
	Key   string
	Value any
}

// Document is an ordered mapping from string keys to values. A value is a
// string, int64, float64, bool, nil, *Document or []any of those.
type Document struct {
	fields []Field
	index  map[string]int
}

// NewDocument returns an empty Document.
func NewDocument() *Document {
	return &Document{index: make(map[string]int)}
}

// Set stores value under key. An existing key keeps its position.
func (d *Document) Set(key string, value any) *Document {
	if d.index == nil {
		d.index = make(map[string]int)
	}

	value = normalize(value)
	if i, ok := d.index[key]; ok {
		d.fields[i].Value = value
		return d
	}

	d.index[key] = len(d.fields)
	d.fields = append(d.fields, Field{Key: key, Value: value})

	return d
}

func (d *Document) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}

	i, ok := d.index[key]
	if !ok {
		return nil, false
	}

	return d.fields[i].Value, true
}

// Section returns the nested Document stored under key.
func (d *Document) Section(key string) (*Document, bool) {
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}

	sub, ok := v.(*Document)
	return sub, ok
}

// GetString returns the string stored under key, or "" when absent.
func (d *Document) GetString(key string) string {
	v, _ := d.Get(key)
	s, _ := v.(string)
	return s
}

func (d *Document) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.fields)
}

func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}

	keys := make([]string, len(d.fields))
	for i, f := range d.fields {
		keys[i] = f.Key
	}

	return keys
}

// Fields returns a copy of the pairs in order.
func (d *Document) Fields() []Field {
	if d == nil {
		return nil
	}

	out := make([]Field, len(d.fields))
	copy(out, d.fields)

	return out
}

// Merge appends the fields of other to d. A key present in both is an
// ErrMergeConflict and leaves d unchanged.
func (d *Document) Merge(other *Document) error {
	for _, f := range other.Fields() {
		if d.Has(f.Key) {
			return errors.New().WithData(errors.ErrMergeConflict, f.Key)
		}
	}

	for _, f := range other.Fields() {
		d.Set(f.Key, f.Value)
	}

	return nil
}

// Equal reports whether d and other hold the same keys in the same order
// with equal values.
func (d *Document) Equal(other *Document) bool {
	if d.Len() != other.Len() {
		return false
	}

	for i, f := range d.fields {
		o := other.fields[i]
		if f.Key != o.Key || !valueEqual(f.Value, o.Value) {
			return false
		}
	}

	return true
}

func valueEqual(a, b any) bool {
	switch x := a.(type) {
	case *Document:
		y, ok := b.(*Document)
		return ok && x.Equal(y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !valueEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func normalize(v any) any {
	switch x := v.(type) {
	case nil, string, bool, int64, float64, *Document:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return normalize(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
		return float64(x)
	case float32:
		return float64(x)
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case []*Document:
		out := make([]any, len(x))
		for i, doc := range x {
			out[i] = doc
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	default:
		return fmt.Sprint(x)
	}
}

// MarshalJSON writes the fields in insertion order.
func (d *Document) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	if err := d.writeJSON(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (d *Document) writeJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, f := range d.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONScalar(buf, f.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeJSONValue(buf, f.Value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')

	return nil
}

func writeJSONValue(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case *Document:
		if x == nil {
			buf.WriteString("null")
			return nil
		}
		return x.writeJSON(buf)
	case []any:
		buf.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case float64:
		if text, ok := wholeFloat(x); ok {
			buf.WriteString(text)
			return nil
		}
		return writeJSONScalar(buf, x)
	default:
		return writeJSONScalar(buf, x)
	}
}

// wholeFloat renders an integral float with a ".0" suffix so it decodes
// back as a float rather than an integer.
func wholeFloat(f float64) (string, bool) {
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) || math.Abs(f) >= 1e21 {
		return "", false
	}

	text := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(text, ".eE") {
		text += ".0"
	}

	return text, true
}

func writeJSONScalar(buf *bytes.Buffer, v any) error {
	var scratch bytes.Buffer
	enc := json.NewEncoder(&scratch)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}

	buf.Write(bytes.TrimRight(scratch.Bytes(), "\n"))

	return nil
}

// UnmarshalJSON reads an object keeping key order at every level. Numbers
// without a fraction or exponent decode as int64, all others as float64.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("report: expected object, got %v", tok)
	}

	parsed, err := decodeObject(dec)
	if err != nil {
		return err
	}

	*d = *parsed

	return nil
}

func decodeObject(dec *json.Decoder) (*Document, error) {
	doc := NewDocument()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("report: expected key, got %v", tok)
		}

		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		doc.Set(key, value)
	}

	// closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return doc, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			list := []any{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		default:
			return nil, fmt.Errorf("report: unexpected delimiter %v", t)
		}
	case json.Number:
		if !strings.ContainsAny(t.String(), ".eE") {
			if i, err := t.Int64(); err == nil {
				return i, nil
			}
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return t, nil
	}
}

// MarshalYAML emits a mapping node so key order survives encoding.
func (d *Document) MarshalYAML() (any, error) {
	return d.yamlNode()
}

func (d *Document) yamlNode() (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range d.fields {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key}
		value, err := yamlValue(f.Value)
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, key, value)
	}

	return node, nil
}

func yamlValue(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case *Document:
		if x == nil {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
		}
		return x.yamlNode()
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range x {
			child, err := yamlValue(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, child)
		}
		return seq, nil
	case float64:
		if text, ok := wholeFloat(x); ok {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: text}, nil
		}
		node := &yaml.Node{}
		if err := node.Encode(x); err != nil {
			return nil, err
		}
		return node, nil
	default:
		node := &yaml.Node{}
		if err := node.Encode(x); err != nil {
			return nil, err
		}
		return node, nil
	}
}
