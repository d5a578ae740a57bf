package source

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"fleetdesk/exporter/pkg/record"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow() failed: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "bookings.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() failed: %v", err)
	}
	return path
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		path    string
		want    Kind
		wantErr bool
	}{
		{"bookings.json", KindJSON, false},
		{"bookings.csv.json", KindJSON, false},
		{"Fleet.XLSX", KindXLSX, false},
		{"rows.csv", KindCSV, false},
		{"report.xml", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectKind(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectKind() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnknownKind) {
				t.Errorf("error = %v, want ErrUnknownKind", err)
			}
			if got != tt.want {
				t.Errorf("DetectKind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.json")
	if err := os.WriteFile(path, []byte(`[{"name":"Alice","age":30},{"city":"NYC"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	rs, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if diff := cmp.Diff([]string{"name", "age", "city"}, record.CollectHeaders(rs)); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "single.json")
	if err := os.WriteFile(path, []byte(`{"name":"Alice"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(context.Background(), path)
	var srcErr *SourceError
	if !errors.As(err, &srcErr) || srcErr.Kind != KindJSON {
		t.Fatalf("Load() error = %v, want *SourceError", err)
	}
	if !errors.Is(err, record.ErrInvalidInput) {
		t.Errorf("error must wrap ErrInvalidInput: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want not-exist", err)
	}
}

func TestLoad_XLSX(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"model", "seats", "electric", "notes"},
		{"Kia Ceed", 5, false, "Smith, John"},
		{"Tesla Model 3", 5, true},
		{"Van", nil, nil, "cargo"},
	})

	rs, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(rs) != 3 {
		t.Fatalf("got %d records, want 3", len(rs))
	}

	want := []string{
		`{"model":"Kia Ceed","seats":5,"electric":false,"notes":"Smith, John"}`,
		`{"model":"Tesla Model 3","seats":5,"electric":true}`,
		`{"model":"Van","notes":"cargo"}`,
	}
	for i, r := range rs {
		got, err := r.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON() failed: %v", err)
		}
		if string(got) != want[i] {
			t.Errorf("record %d = %s, want %s", i, got, want[i])
		}
	}
}

func TestReadXLSX_EmptySheet(t *testing.T) {
	path := writeWorkbook(t, nil)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	rs, err := ReadXLSX(bytes.NewReader(data), "")
	if err != nil {
		t.Fatalf("ReadXLSX() failed: %v", err)
	}
	if len(rs) != 0 {
		t.Errorf("got %d records, want 0", len(rs))
	}
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	if _, err := ReadXLSX(strings.NewReader("plain text"), ""); err == nil {
		t.Error("expected error for non-workbook input")
	}
}

func TestReadCSV(t *testing.T) {
	input := "\ufeffname,age,city\nAlice,30\nBob,,NYC\n\"Smith, John\",41,Paris\n"

	rs, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() failed: %v", err)
	}

	got := make([]string, len(rs))
	for i, r := range rs {
		got[i] = r.String()
	}
	want := []string{
		record.NewRecord(record.F("name", "Alice"), record.F("age", "30")).String(),
		record.NewRecord(record.F("name", "Bob"), record.F("city", "NYC")).String(),
		record.NewRecord(record.F("name", "Smith, John"), record.F("age", "41"), record.F("city", "Paris")).String(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSV_Empty(t *testing.T) {
	rs, err := ReadCSV(strings.NewReader(""))
	if err != nil || len(rs) != 0 {
		t.Errorf("ReadCSV(\"\") = %v, %v", rs, err)
	}
}

func TestRead_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Read(ctx, KindJSON, strings.NewReader("[]")); !errors.Is(err, context.Canceled) {
		t.Errorf("Read() error = %v, want context.Canceled", err)
	}
}
