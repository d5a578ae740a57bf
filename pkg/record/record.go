package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
)

// Field is a single key/value pair used to build a Record.
type Field struct {
	Key   string
	Value Value
}

// F builds a Field from a Go value. It panics if x cannot be represented;
// use Of for untrusted input.
func F(key string, x any) Field {
	return Field{Key: key, Value: MustOf(x)}
}

// Record is an ordered association of field names to values. The zero
// Record is empty and ready to use.
type Record struct {
	keys   []string
	values map[string]Value
}

// NewRecord returns a Record holding fields in the given order. A repeated
// key keeps its first position and takes the last value.
func NewRecord(fields ...Field) Record {
	var r Record
	for _, f := range fields {
		r.Set(f.Key, f.Value)
	}
	return r
}

// Set stores v under key. New keys are appended; existing keys keep their
// position.
func (r *Record) Set(key string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value stored under key.
func (r Record) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Cell returns the tabular text for key; absent and null fields are "".
func (r Record) Cell(key string) string {
	v, ok := r.values[key]
	if !ok {
		return ""
	}
	return v.String()
}

// Has reports whether key is present.
func (r Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns the field names in insertion order.
func (r Record) Keys() []string {
	return slices.Clone(r.keys)
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.keys) }

// All iterates the fields in insertion order.
func (r Record) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, k := range r.keys {
			if !yield(k, r.values[k]) {
				return
			}
		}
	}
}

// Equal reports whether both records hold the same keys in the same order
// with equal values.
func (r Record) Equal(o Record) bool {
	if !slices.Equal(r.keys, o.keys) {
		return false
	}
	for _, k := range r.keys {
		if !r.values[k].Equal(o.values[k]) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the record as a JSON object in insertion order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := r.values[k].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping the key order of the text.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object, got %v", tok)
	}

	var out Record
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		v, err := valueFromJSON(raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

// String renders the record as compact JSON, for logs and test failures.
func (r Record) String() string {
	data, err := r.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("record(%d fields)", r.Len())
	}
	return string(data)
}
