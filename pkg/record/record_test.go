package record

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestValue_String(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	lit, err := NumberLiteral("1.50")
	if err != nil {
		t.Fatalf("NumberLiteral() error = %v", err)
	}

	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"null", Null(), ""},
		{"string", String("Toyota Corolla"), "Toyota Corolla"},
		{"integer", Number(30), "30"},
		{"decimal", Number(1.5), "1.5"},
		{"negative", Number(-42.25), "-42.25"},
		{"large", Number(1e21), "1e+21"},
		{"tiny", Number(1e-7), "1e-07"},
		{"literal kept", lit, "1.50"},
		{"true", Bool(true), "true"},
		{"false", Bool(false), "false"},
		{"time", Time(ts), "2025-03-14T09:26:53Z"},
		{"nan", Number(math.NaN()), "NaN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		value   Value
		want    string
		wantErr bool
	}{
		{"null", Null(), "null", false},
		{"string with html", String("<b>&</b>"), `"<b>&</b>"`, false},
		{"number", Number(30), "30", false},
		{"bool", Bool(true), "true", false},
		{"time", Time(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)), `"2025-01-02T03:04:05Z"`, false},
		{"infinity", Number(math.Inf(1)), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.value.MarshalJSON()
			if (err != nil) != tt.wantErr {
				t.Fatalf("MarshalJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(got) != tt.want {
				t.Errorf("MarshalJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOf(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var nilTime *time.Time

	tests := []struct {
		name     string
		input    any
		wantKind Kind
		wantText string
	}{
		{"nil", nil, KindNull, ""},
		{"string", "Alice", KindString, "Alice"},
		{"int", 30, KindNumber, "30"},
		{"int64", int64(9007199254740993), KindNumber, "9007199254740993"},
		{"float", 19.99, KindNumber, "19.99"},
		{"bool", true, KindBool, "true"},
		{"time", now, KindTime, "2025-06-01T12:00:00Z"},
		{"nil time pointer", nilTime, KindNull, ""},
		{"json number", json.Number("12.0"), KindNumber, "12.0"},
		{"slice", []string{"gps", "child-seat"}, KindRaw, `["gps","child-seat"]`},
		{"map", map[string]int{"doors": 4}, KindRaw, `{"doors":4}`},
		{"record", NewRecord(F("plate", "AB-123")), KindRaw, `{"plate":"AB-123"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Of(tt.input)
			if err != nil {
				t.Fatalf("Of() error = %v", err)
			}
			if v.Kind() != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", v.Kind(), tt.wantKind)
			}
			if v.String() != tt.wantText {
				t.Errorf("String() = %q, want %q", v.String(), tt.wantText)
			}
		})
	}
}

func TestOf_Unsupported(t *testing.T) {
	if _, err := Of(make(chan int)); err == nil {
		t.Error("Of(chan) expected error")
	}
	if _, err := Of(func() {}); err == nil {
		t.Error("Of(func) expected error")
	}
}

func TestRecord_SetKeepsPosition(t *testing.T) {
	r := NewRecord(F("id", 1), F("status", "pending"), F("total", 120))
	r.Set("status", String("confirmed"))
	r.Set("notes", Null())

	want := []string{"id", "status", "total", "notes"}
	if diff := cmp.Diff(want, r.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if got := r.Cell("status"); got != "confirmed" {
		t.Errorf("Cell(status) = %q, want %q", got, "confirmed")
	}
	if got := r.Cell("notes"); got != "" {
		t.Errorf("Cell(notes) = %q, want empty", got)
	}
	if got := r.Cell("missing"); got != "" {
		t.Errorf("Cell(missing) = %q, want empty", got)
	}
	if r.Len() != 4 {
		t.Errorf("Len() = %d, want 4", r.Len())
	}
}

func TestRecord_KeysIsACopy(t *testing.T) {
	r := NewRecord(F("a", 1), F("b", 2))
	keys := r.Keys()
	keys[0] = "mutated"
	if r.Keys()[0] != "a" {
		t.Error("Keys() must not expose internal state")
	}
}

func TestRecord_JSONKeepsOrder(t *testing.T) {
	input := `{"zeta":1,"alpha":"x","mid":{"nested":[1,2]},"flag":false,"none":null}`

	var r Record
	if err := json.Unmarshal([]byte(input), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	wantKeys := []string{"zeta", "alpha", "mid", "flag", "none"}
	if diff := cmp.Diff(wantKeys, r.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != input {
		t.Errorf("Marshal() = %s, want %s", out, input)
	}
}

func TestRecord_UnmarshalRejectsNonObject(t *testing.T) {
	var r Record
	if err := json.Unmarshal([]byte(`[1,2]`), &r); err == nil {
		t.Error("Unmarshal(array) expected error")
	}
}

func TestRecord_All(t *testing.T) {
	r := NewRecord(F("brand", "Kia"), F("model", "Ceed"), F("year", 2022))

	var keys []string
	for k := range r.All() {
		keys = append(keys, k)
		if k == "model" {
			break
		}
	}
	if diff := cmp.Diff([]string{"brand", "model"}, keys); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
}

func TestRecord_Equal(t *testing.T) {
	a := NewRecord(F("a", 1), F("b", "x"))
	b := NewRecord(F("a", 1.0), F("b", "x"))
	c := NewRecord(F("b", "x"), F("a", 1))

	if !a.Equal(b) {
		t.Error("expected records with equal values to be equal")
	}
	if a.Equal(c) {
		t.Error("expected records with different key order to differ")
	}
}

func TestInvalidInputError_Is(t *testing.T) {
	err := NewInvalidInputError("boom", nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("errors.Is(err, ErrInvalidInput) = false")
	}
	var target *InvalidInputError
	if !errors.As(error(err), &target) {
		t.Error("errors.As() = false")
	}
}
