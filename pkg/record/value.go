package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// Kind identifies the dynamic type held by a Value.
type Kind uint8

const (
	// KindNull is the zero Kind; absent fields and JSON null.
	KindNull Kind = iota
	// KindString holds text.
	KindString
	// KindNumber holds an integer or floating point number.
	KindNumber
	// KindBool holds true or false.
	KindBool
	// KindTime holds a timestamp.
	KindTime
	// KindRaw holds a nested JSON object or array as compact JSON text.
	KindRaw
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindRaw:
		return "raw"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single cell of a Record. The zero Value is Null.
type Value struct {
	kind Kind
	// text holds the string, the number literal or the raw JSON.
	text string
	num  float64
	b    bool
	t    time.Time
}

// Null returns the null Value.
func Null() Value { return Value{} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Number returns a number Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Time returns a timestamp Value.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// NumberLiteral returns a number Value that keeps lit as its textual form.
// lit must be a valid JSON number.
func NumberLiteral(lit string) (Value, error) {
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid number literal %q: %w", lit, err)
	}
	if !json.Valid([]byte(lit)) {
		return Value{}, fmt.Errorf("invalid number literal %q", lit)
	}
	return Value{kind: KindNumber, num: f, text: lit}, nil
}

// Raw returns a Value holding nested JSON. The input is compacted.
func Raw(data json.RawMessage) (Value, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return Value{}, fmt.Errorf("invalid raw JSON: %w", err)
	}
	return Value{kind: KindRaw, text: buf.String()}, nil
}

// Kind reports the dynamic type of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric value and whether v is a number.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Text returns the string value and whether v is a string.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindString
}

// Truth returns the boolean value and whether v is a bool.
func (v Value) Truth() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Timestamp returns the time value and whether v is a time.
func (v Value) Timestamp() (time.Time, bool) {
	return v.t, v.kind == KindTime
}

// String returns the canonical text form used for tabular cells.
// Null renders as the empty string, never as "null".
func (v Value) String() string {
	switch v.kind {
	case KindString, KindRaw:
		return v.text
	case KindNumber:
		if v.text != "" {
			return v.text
		}
		return formatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return v.text == o.text
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return marshalNoEscape(v.text)
	case KindNumber:
		if v.text != "" {
			return []byte(v.text), nil
		}
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil, fmt.Errorf("unsupported number value %v", v.num)
		}
		return []byte(formatNumber(v.num)), nil
	case KindBool:
		return []byte(strconv.FormatBool(v.b)), nil
	case KindTime:
		return marshalNoEscape(v.t.Format(time.RFC3339Nano))
	case KindRaw:
		return []byte(v.text), nil
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler. JSON strings stay strings; no
// date sniffing is performed.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := valueFromJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// formatNumber renders f the way a dashboard shows it: integers without a
// fraction, plain decimals in the usual range, exponent form otherwise.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func valueFromJSON(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Value{}, fmt.Errorf("empty JSON value")
	}
	switch data[0] {
	case 'n':
		if string(data) != "null" {
			return Value{}, fmt.Errorf("invalid JSON value %q", data)
		}
		return Null(), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Value{}, err
		}
		return String(s), nil
	case '{', '[':
		return Raw(data)
	default:
		return NumberLiteral(string(data))
	}
}

// Of converts a Go value into a Value. Maps, slices and structs become Raw
// JSON. Values that cannot be represented (channels, functions) fail.
func Of(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case Record:
		data, err := t.MarshalJSON()
		if err != nil {
			return Value{}, err
		}
		return Raw(data)
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Number(float64(t)), nil
	case int8:
		return Number(float64(t)), nil
	case int16:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case int64:
		return NumberLiteral(strconv.FormatInt(t, 10))
	case uint:
		return Number(float64(t)), nil
	case uint8:
		return Number(float64(t)), nil
	case uint16:
		return Number(float64(t)), nil
	case uint32:
		return Number(float64(t)), nil
	case uint64:
		return NumberLiteral(strconv.FormatUint(t, 10))
	case float32:
		return Number(float64(t)), nil
	case float64:
		return Number(t), nil
	case json.Number:
		return NumberLiteral(t.String())
	case json.RawMessage:
		return valueFromJSON(t)
	case time.Time:
		return Time(t), nil
	case *time.Time:
		if t == nil {
			return Null(), nil
		}
		return Time(*t), nil
	case fmt.Stringer:
		return String(t.String()), nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return Of(rv.Elem().Interface())
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return Value{}, fmt.Errorf("unsupported value of type %T", x)
	}

	data, err := json.Marshal(x)
	if err != nil {
		return Value{}, fmt.Errorf("unsupported value of type %T: %w", x, err)
	}
	return valueFromJSON(data)
}

// MustOf is like Of but panics when x cannot be represented. It is meant for
// literals in tests and fixtures.
func MustOf(x any) Value {
	v, err := Of(x)
	if err != nil {
		panic(err)
	}
	return v
}

func marshalNoEscape(x any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(x); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
