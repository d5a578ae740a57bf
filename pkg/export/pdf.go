package export

import (
	"context"
	"io"
	"strings"

	"fleetdesk/exporter/pkg/record"
)

// Column widths in millimetres.
const (
	DefaultColumnWidth = 30.0
	NarrowColumnWidth  = 25.0
)

// narrowColumns are audit timestamp columns; their values are short and
// fixed-width so they get less room than free-text columns.
var narrowColumns = map[string]struct{}{
	"createdat": {},
	"updatedat": {},
	"deletedat": {},
}

// Color is an RGB color with 0-255 components.
type Color struct {
	R, G, B int
}

// TableStyle controls the look of a rendered table.
type TableStyle struct {
	Orientation string  // "L" (landscape) or "P" (portrait)
	PageSize    string  // "A4", "A3", "Letter", "Legal"
	Margin      float64 // Uniform page margin in millimetres
	FontSize    float64 // Body and header font size in points
	CellPadding float64 // Vertical padding inside cells in millimetres
	HeaderFill  Color   // Header row background
	HeaderText  Color   // Header row text
	StripeFill  Color   // Background of every other body row
	BodyText    Color   // Body text
	LineColor   Color   // Cell borders
	Title       string  // Document title metadata
}

// DefaultTableStyle returns the style used by the dashboard exports:
// landscape A4, 5 mm margins, 7 pt text, blue header, light grey stripes.
func DefaultTableStyle() TableStyle {
	return TableStyle{
		Orientation: "L",
		PageSize:    "A4",
		Margin:      5,
		FontSize:    7,
		CellPadding: 1,
		HeaderFill:  Color{41, 128, 185},
		HeaderText:  Color{255, 255, 255},
		StripeFill:  Color{245, 245, 245},
		BodyText:    Color{33, 33, 33},
		LineColor:   Color{200, 200, 200},
		Title:       "Export",
	}
}

// Table is the input handed to a TableRenderer.
type Table struct {
	Headers      []string
	Rows         [][]string
	ColumnWidths []float64
	Style        TableStyle
}

// TableRenderer lays out a table as a paginated document and writes it to w.
// It must accept tables with zero rows and zero columns.
type TableRenderer interface {
	RenderTable(ctx context.Context, t Table, w io.Writer) error
}

// PDFConfig configures a PDFEncoder.
type PDFConfig struct {
	DefaultColumnWidth float64
	NarrowColumnWidth  float64
	Style              TableStyle
}

// DefaultPDFConfig returns the default PDF configuration.
func DefaultPDFConfig() PDFConfig {
	return PDFConfig{
		DefaultColumnWidth: DefaultColumnWidth,
		NarrowColumnWidth:  NarrowColumnWidth,
		Style:              DefaultTableStyle(),
	}
}

// PDFEncoder encodes records as a PDF table.
type PDFEncoder struct {
	config   PDFConfig
	renderer TableRenderer
}

// NewPDFEncoder creates a new PDF encoder. A nil renderer selects
// FPDFRenderer.
func NewPDFEncoder(cfg PDFConfig, renderer TableRenderer) *PDFEncoder {
	if cfg.DefaultColumnWidth <= 0 {
		cfg.DefaultColumnWidth = DefaultColumnWidth
	}
	if cfg.NarrowColumnWidth <= 0 {
		cfg.NarrowColumnWidth = NarrowColumnWidth
	}
	if renderer == nil {
		renderer = NewFPDFRenderer()
	}
	return &PDFEncoder{
		config:   cfg,
		renderer: renderer,
	}
}

// Encode renders records as a table with one header row and one row per
// record.
func (e *PDFEncoder) Encode(ctx context.Context, records record.RecordSet, w io.Writer) error {
	t := e.BuildTable(records)
	if err := e.renderer.RenderTable(ctx, t, w); err != nil {
		return NewExportError(FormatPDF, len(records), err)
	}
	return nil
}

// BuildTable converts records into the renderer input. Missing fields
// become empty strings.
func (e *PDFEncoder) BuildTable(records record.RecordSet) Table {
	headers := record.CollectHeaders(records)
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = r.Cell(h)
		}
		rows = append(rows, row)
	}
	return Table{
		Headers:      headers,
		Rows:         rows,
		ColumnWidths: ColumnWidths(headers, e.config.DefaultColumnWidth, e.config.NarrowColumnWidth),
		Style:        e.config.Style,
	}
}

// ColumnWidths assigns narrow to createdAt, updatedAt and deletedAt
// (compared case-insensitively) and def to every other column.
func ColumnWidths(headers []string, def, narrow float64) []float64 {
	widths := make([]float64, len(headers))
	for i, h := range headers {
		if _, ok := narrowColumns[strings.ToLower(h)]; ok {
			widths[i] = narrow
		} else {
			widths[i] = def
		}
	}
	return widths
}
