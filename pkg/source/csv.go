package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"fleetdesk/exporter/pkg/record"
)

// ReadCSV reads comma-separated rows with a header. All values are
// strings; rows may have fewer or more cells than the header.
func ReadCSV(r io.Reader) (record.RecordSet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return record.RecordSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	rs := record.RecordSet{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rs)+1, err)
		}
		rs = append(rs, rowRecord(header, row, func(_ int, cell string) record.Value {
			return record.String(cell)
		}))
	}
}
