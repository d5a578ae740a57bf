package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// RecordSet is an ordered sequence of records with a ragged schema.
type RecordSet []Record

// Len returns the number of records.
func (rs RecordSet) Len() int { return len(rs) }

// ParseJSON decodes a JSON array of objects. Any other top-level value, or an
// array element that is not an object, yields *InvalidInputError.
func ParseJSON(data []byte) (RecordSet, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, NewInvalidInputError("empty document, expected a JSON array", nil)
	}
	if trimmed[0] != '[' {
		return nil, NewInvalidInputError(fmt.Sprintf("expected a JSON array, got %s", describeJSON(trimmed[0])), nil)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, NewInvalidInputError("malformed JSON array", err)
	}

	rs := make(RecordSet, 0, len(raws))
	for i, raw := range raws {
		elem := bytes.TrimSpace(raw)
		if len(elem) == 0 || elem[0] != '{' {
			return nil, &InvalidInputError{
				Reason: fmt.Sprintf("expected a JSON object, got %s", describeJSON(firstByte(elem))),
				Index:  i,
			}
		}
		var r Record
		if err := r.UnmarshalJSON(elem); err != nil {
			return nil, &InvalidInputError{Reason: "malformed record", Index: i, Cause: err}
		}
		rs = append(rs, r)
	}
	return rs, nil
}

// Normalize converts caller input into a RecordSet. Sequences of Records or
// of string-keyed maps are accepted; map keys are sorted because Go maps
// carry no order. Input that is not a sequence (a single map, a single
// Record, nil, a scalar) yields *InvalidInputError.
func Normalize(input any) (RecordSet, error) {
	switch v := input.(type) {
	case nil:
		return nil, NewInvalidInputError("records is nil, expected a sequence", nil)
	case RecordSet:
		return v, nil
	case []Record:
		return RecordSet(v), nil
	case []*Record:
		rs := make(RecordSet, 0, len(v))
		for i, r := range v {
			if r == nil {
				return nil, &InvalidInputError{Reason: "nil record", Index: i}
			}
			rs = append(rs, *r)
		}
		return rs, nil
	case []map[string]any:
		rs := make(RecordSet, 0, len(v))
		for i, m := range v {
			r, err := fromMap(i, m)
			if err != nil {
				return nil, err
			}
			rs = append(rs, r)
		}
		return rs, nil
	case []byte, json.RawMessage:
		return nil, NewInvalidInputError("raw bytes are not records, use ParseJSON", nil)
	case string:
		return nil, NewInvalidInputError("expected a sequence of records, got string", nil)
	}

	rv := reflect.ValueOf(input)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, NewInvalidInputError(fmt.Sprintf("expected a sequence of records, got %T", input), nil)
	}

	rs := make(RecordSet, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		r, err := elementRecord(i, rv.Index(i))
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs, nil
}

func elementRecord(i int, ev reflect.Value) (Record, error) {
	for ev.Kind() == reflect.Interface || ev.Kind() == reflect.Pointer {
		if ev.IsNil() {
			return Record{}, &InvalidInputError{Reason: "nil record", Index: i}
		}
		ev = ev.Elem()
	}
	if r, ok := ev.Interface().(Record); ok {
		return r, nil
	}
	if ev.Kind() != reflect.Map || ev.Type().Key().Kind() != reflect.String {
		return Record{}, &InvalidInputError{
			Reason: fmt.Sprintf("expected a record or string-keyed map, got %s", ev.Type()),
			Index:  i,
		}
	}
	m := make(map[string]any, ev.Len())
	iter := ev.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return fromMap(i, m)
}

func fromMap(i int, m map[string]any) (Record, error) {
	var r Record
	for _, k := range slices.Sorted(maps.Keys(m)) {
		v, err := Of(m[k])
		if err != nil {
			return Record{}, &ValueError{Index: i, Key: k, Cause: err}
		}
		r.Set(k, v)
	}
	return r, nil
}

func firstByte(b []byte) byte {
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

func describeJSON(c byte) string {
	switch c {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	case 0:
		return "nothing"
	default:
		return "number"
	}
}
