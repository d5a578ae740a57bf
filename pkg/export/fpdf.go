package export

import (
	"context"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// pointsPerMM converts font sizes (points) to page units (millimetres).
const pointsPerMM = 72.0 / 25.4

// FPDFRenderer renders tables with github.com/go-pdf/fpdf. Rows are laid
// out manually so that cells wrap and the header row repeats on every page.
type FPDFRenderer struct {
	// Creator is written to the document metadata.
	Creator string
}

// NewFPDFRenderer creates a new fpdf-backed renderer.
func NewFPDFRenderer() *FPDFRenderer {
	return &FPDFRenderer{Creator: "fleetdesk exporter"}
}

// RenderTable implements TableRenderer.
func (r *FPDFRenderer) RenderTable(ctx context.Context, t Table, w io.Writer) error {
	style := t.Style
	if style.FontSize <= 0 {
		style = DefaultTableStyle()
	}
	orientation := style.Orientation
	if orientation == "" {
		orientation = "L"
	}
	pageSize := style.PageSize
	if pageSize == "" {
		pageSize = "A4"
	}

	pdf, _ := layoutTable(t, style, orientation, pageSize, r.Creator)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// layoutTable draws t into a new document and returns it with the layout
// used to draw it.
func layoutTable(t Table, style TableStyle, orientation, pageSize, creator string) (*fpdf.Fpdf, *tableLayout) {
	pdf := fpdf.New(orientation, "mm", pageSize, "")
	pdf.SetMargins(style.Margin, style.Margin, style.Margin)
	pdf.SetAutoPageBreak(false, style.Margin)
	pdf.SetTitle(style.Title, true)
	pdf.SetCreator(creator, true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", style.FontSize)

	_, pageH := pdf.GetPageSize()
	l := &tableLayout{
		pdf:    pdf,
		style:  style,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		widths: fitWidths(pdf, t.ColumnWidths, len(t.Headers)),
		lineH:  style.FontSize / pointsPerMM * 1.25,
		bottom: pageH - style.Margin,
	}
	if len(t.Headers) == 0 {
		return pdf, l
	}
	l.header(t.Headers)
	for i, row := range t.Rows {
		l.row(row, i%2 == 1, t.Headers)
	}
	return pdf, l
}

// tableLayout draws rows without fpdf's automatic page breaks. A row that
// does not fit below the current position moves to a new page; a row taller
// than a whole page is continued line by line across pages.
type tableLayout struct {
	pdf     *fpdf.Fpdf
	style   TableStyle
	tr      func(string) string
	widths  []float64
	lineH   float64
	bottom  float64 // lowest y a cell may reach
	headerH float64

	lowest    float64 // lowest y drawn so far
	bodyLines int     // text lines drawn for body rows
}

func (l *tableLayout) header(headers []string) {
	l.pdf.SetFont("Helvetica", "B", l.style.FontSize)
	l.pdf.SetFillColor(l.style.HeaderFill.R, l.style.HeaderFill.G, l.style.HeaderFill.B)
	l.pdf.SetTextColor(l.style.HeaderText.R, l.style.HeaderText.G, l.style.HeaderText.B)
	lines := l.wrap(headers)
	_, y := l.pdf.GetXY()
	l.draw(lines, 0, lineCount(lines), true)
	_, end := l.pdf.GetXY()
	l.headerH = end - y
	l.pdf.SetFont("Helvetica", "", l.style.FontSize)
}

func (l *tableLayout) newPage(headers []string) {
	l.pdf.AddPage()
	l.header(headers)
}

func (l *tableLayout) row(cells []string, striped bool, headers []string) {
	lines := l.wrap(cells)
	n := lineCount(lines)

	// Move whole rows to the next page when they fit there.
	_, y := l.pdf.GetXY()
	if y+l.blockHeight(n) > l.bottom && l.blockHeight(n) <= l.bottom-l.style.Margin-l.headerH {
		l.newPage(headers)
	}

	fresh := false
	for start := 0; start < n; {
		_, y := l.pdf.GetXY()
		fit := int((l.bottom - y - l.style.CellPadding) / l.lineH)
		if fit < 1 {
			if !fresh {
				l.newPage(headers)
				fresh = true
				continue
			}
			fit = 1
		}
		end := min(start+fit, n)

		l.pdf.SetTextColor(l.style.BodyText.R, l.style.BodyText.G, l.style.BodyText.B)
		if striped {
			l.pdf.SetFillColor(l.style.StripeFill.R, l.style.StripeFill.G, l.style.StripeFill.B)
		}
		l.draw(lines, start, end, striped)
		l.bodyLines += end - start
		start = end
		fresh = false
	}
}

// wrap splits every cell into the lines it occupies in its column.
func (l *tableLayout) wrap(cells []string) [][]string {
	lines := make([][]string, len(l.widths))
	for i, w := range l.widths {
		for _, line := range l.pdf.SplitLines([]byte(l.tr(cellAt(cells, i))), w) {
			lines[i] = append(lines[i], string(line))
		}
	}
	return lines
}

// lineCount is the number of lines of the tallest cell, at least one.
func lineCount(lines [][]string) int {
	n := 1
	for _, cell := range lines {
		n = max(n, len(cell))
	}
	return n
}

func (l *tableLayout) blockHeight(lines int) float64 {
	return float64(lines)*l.lineH + l.style.CellPadding
}

// draw writes lines [start, end) of every cell at the current position and
// moves the cursor to the start of the next row.
func (l *tableLayout) draw(lines [][]string, start, end int, fill bool) {
	h := l.blockHeight(end - start)
	x, y := l.pdf.GetXY()
	l.pdf.SetDrawColor(l.style.LineColor.R, l.style.LineColor.G, l.style.LineColor.B)

	rectStyle := "D"
	if fill {
		rectStyle = "FD"
	}
	cx := x
	for i, w := range l.widths {
		l.pdf.Rect(cx, y, w, h, rectStyle)
		for j := start; j < end && j < len(lines[i]); j++ {
			l.pdf.SetXY(cx, y+l.style.CellPadding/2+float64(j-start)*l.lineH)
			l.pdf.CellFormat(w, l.lineH, lines[i][j], "", 0, "L", false, 0, "")
		}
		cx += w
	}
	l.pdf.SetXY(x, y+h)
	l.lowest = max(l.lowest, y+h)
}

func cellAt(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}

// fitWidths returns the column widths, scaled down proportionally when the
// table is wider than the printable page width.
func fitWidths(pdf *fpdf.Fpdf, hints []float64, n int) []float64 {
	widths := make([]float64, n)
	total := 0.0
	for i := range widths {
		widths[i] = DefaultColumnWidth
		if i < len(hints) && hints[i] > 0 {
			widths[i] = hints[i]
		}
		total += widths[i]
	}

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageW - left - right
	if total > usable && total > 0 && usable > 0 {
		scale := usable / total
		for i := range widths {
			widths[i] *= scale
		}
	}
	return widths
}
