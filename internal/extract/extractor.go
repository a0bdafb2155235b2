// Package extract materializes the transaction table embedded in a
// registration document (DOCX or HTML) as a header-keyed table.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperifyio/gorate/internal/table"
)

// DefaultTableIndex selects the second embedded table. Registration extracts
// carry an unrelated preamble table first.
const DefaultTableIndex = 1

// ErrNoTable is returned when the document has no usable table at the
// configured position or cannot be parsed at all.
var ErrNoTable = errors.New("no table found")

// Format identifies the document container.
type Format string

const (
	FormatAuto Format = ""
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
)

// ParseFormat maps a config value or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "auto":
		return FormatAuto, nil
	case "docx":
		return FormatDOCX, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return FormatAuto, fmt.Errorf("unsupported document format: %q", s)
}

// Detect sniffs the container format from the payload.
func Detect(doc []byte) Format {
	if bytes.HasPrefix(doc, []byte("PK\x03\x04")) {
		return FormatDOCX
	}
	if bytes.Contains(bytes.ToLower(doc), []byte("<table")) {
		return FormatHTML
	}
	return FormatAuto
}

// Extractor turns a document into the header-keyed transaction table.
type Extractor interface {
	Extract(doc []byte) (*table.Table, error)
}

// Positional selects a table by its position in the document.
type Positional struct {
	// TableIndex is the zero-based position of the transaction table.
	TableIndex int
	Format     Format
}

// NewPositional returns the default extractor (second table, auto format).
func NewPositional() Positional { return Positional{TableIndex: DefaultTableIndex} }

// Extract implements Extractor. It never panics: malformed documents are
// reported as ErrNoTable.
func (p Positional) Extract(doc []byte) (out *table.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrNoTable, r)
		}
	}()
	tables, err := Tables(doc, p.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTable, err)
	}
	if p.TableIndex < 0 || p.TableIndex >= len(tables) {
		return nil, fmt.Errorf("%w: document has %d tables, want index %d", ErrNoTable, len(tables), p.TableIndex)
	}
	return Materialize(tables[p.TableIndex]), nil
}

// Tables lists every top-level table of the document.
func Tables(doc []byte, format Format) ([]table.Raw, error) {
	if format == FormatAuto {
		format = Detect(doc)
	}
	switch format {
	case FormatDOCX:
		return docxTables(doc)
	case FormatHTML:
		return htmlTables(doc)
	}
	return nil, errors.New("unrecognized document format")
}

// Materialize fixes the column count from the second row, names the columns
// from the first row and force-fits every data row to that width.
func Materialize(raw table.Raw) *table.Table {
	if len(raw.Rows) == 0 {
		return table.Empty()
	}
	if len(raw.Rows) < 2 {
		return table.New(table.UniqueNames(raw.Rows[0], len(raw.Rows[0])))
	}
	width := len(raw.Rows[1])
	t := table.New(table.UniqueNames(raw.Rows[0], width))
	t.Rows = make([][]string, 0, len(raw.Rows)-1)
	for _, r := range raw.Rows[1:] {
		t.Rows = append(t.Rows, fit(r, width))
	}
	return t
}

// PromoteFirstRow uses the first data row as the header and drops it, for
// layouts whose table opens with a merged caption row.
func PromoteFirstRow(t *table.Table) *table.Table {
	if t.Len() == 0 {
		return t.Clone()
	}
	out := table.New(table.UniqueNames(t.Rows[0], len(t.Columns)))
	for _, r := range t.Rows[1:] {
		out.Rows = append(out.Rows, append([]string(nil), r...))
	}
	return out
}

func fit(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
