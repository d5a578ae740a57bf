package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"fleetdesk/exporter/pkg/record"
)

// ReadXLSX reads one worksheet of a workbook. An empty sheet name selects
// the first sheet. Numeric cells become numbers when their displayed text
// is a plain number; dates and formatted numbers stay as displayed text.
func ReadXLSX(r io.Reader, sheet string) (record.RecordSet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return record.RecordSet{}, nil
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return record.RecordSet{}, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rs := make(record.RecordSet, 0, len(rows)-1)
	for rowIdx, row := range rows[1:] {
		excelRow := rowIdx + 2
		rs = append(rs, rowRecord(headers, row, func(col int, cell string) record.Value {
			return xlsxValue(f, sheet, col, excelRow, cell)
		}))
	}
	return rs, nil
}

func xlsxValue(f *excelize.File, sheet string, col, row int, text string) record.Value {
	axis, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return record.String(text)
	}
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return record.String(text)
	}

	switch typ {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if v, err := record.NumberLiteral(text); err == nil {
			return v
		}
	case excelize.CellTypeBool:
		switch strings.ToUpper(text) {
		case "TRUE", "1":
			return record.Bool(true)
		case "FALSE", "0":
			return record.Bool(false)
		}
	}
	return record.String(text)
}
