package report

import (
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/gorate/internal/table"
)

// WritePDF renders the English summary, the selected transactions and the
// stage counts. Core PDF fonts have no Devanagari glyphs, so the Marathi
// sentence is left out and untranslated cell text is replaced by '?'.
func WritePDF(run Run, outPath string) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(latin1(s)) }

	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Valuation", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 5, text(run.Result.English), "", "L", false)
	pdf.Ln(4)

	if t := run.Result.Table; t != nil && len(t.Columns) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Selected transactions", "", 1, "L", false, 0, "")
		writePDFTable(pdf, t, text)
		pdf.Ln(4)
	}

	if stages := run.Result.Stages.Stages; len(stages) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Filter stages", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, s := range stages {
			line := fmt.Sprintf("%s: %d -> %d", s.Name, s.In, s.Out)
			if s.Skipped {
				line += " (skipped: " + s.Reason + ")"
			}
			pdf.CellFormat(0, 5, text(line), "", 1, "L", false, 0, "")
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 5, text("Run "+run.Meta.RunID+"  input sha256 "+run.Meta.InputSHA256), "", 1, "L", false, 0, "")
	return pdf.OutputFileAndClose(outPath)
}

func writePDFTable(pdf *gofpdf.Fpdf, t *table.Table, text func(string) string) {
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	w := (pageW - left - right) / float64(len(t.Columns))

	pdf.SetFont("Helvetica", "B", 9)
	for _, c := range t.Columns {
		pdf.CellFormat(w, 6, text(clip(c, w)), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, row := range t.Rows {
		for _, v := range row {
			pdf.CellFormat(w, 6, text(clip(strings.ReplaceAll(v, "\n", " "), w)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// clip shortens s to roughly fit a cell of width w mm at 9pt.
func clip(s string, w float64) string {
	limit := int(w / 1.8)
	r := []rune(s)
	if limit < 4 || len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

// latin1 replaces runes outside Latin-1 with '?'.
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xff {
			return '?'
		}
		return r
	}, s)
}
