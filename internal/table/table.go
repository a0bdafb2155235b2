// Package table holds the header-keyed record set passed between pipeline stages.
package table

import (
	"math"
	"strconv"
	"strings"
)

// Raw is an embedded table as found in a document: ordered rows of cell text.
// The first row is the header candidate.
type Raw struct {
	Rows [][]string
}

// Table is an ordered, header-keyed record set. Every row has exactly
// len(Columns) cells. Stages treat a Table as immutable and return new ones.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Record is a read-only view of one row keyed by column name.
type Record struct {
	t   *Table
	row int
}

// New returns an empty table with the given columns.
func New(columns []string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Empty returns a table with no columns and no rows.
func Empty() *Table { return &Table{} }

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of the named column or -1.
func (t *Table) Index(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Record returns the i-th row as a Record.
func (t *Table) Record(i int) Record { return Record{t: t, row: i} }

// Get returns the cell for column name, or "" when absent.
func (r Record) Get(name string) string {
	i := r.t.Index(name)
	if i < 0 {
		return ""
	}
	return r.t.Rows[r.row][i]
}

// Map returns the record as a column-name keyed map.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.t.Columns))
	for i, c := range r.t.Columns {
		out[c] = r.t.Rows[r.row][i]
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return Empty()
	}
	out := &Table{Columns: append([]string(nil), t.Columns...), Rows: make([][]string, len(t.Rows))}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

// Where returns a new table holding the rows for which keep returns true,
// in their original order.
func (t *Table) Where(keep func(r Record) bool) *Table {
	out := New(t.Columns)
	out.Rows = make([][]string, 0, len(t.Rows))
	for i, row := range t.Rows {
		if keep(t.Record(i)) {
			out.Rows = append(out.Rows, append([]string(nil), row...))
		}
	}
	return out
}

// MapColumn returns a new table with fn applied to every cell of column col.
// Unknown columns yield an unchanged copy.
func (t *Table) MapColumn(col string, fn func(string) string) *Table {
	out := t.Clone()
	idx := out.Index(col)
	if idx < 0 {
		return out
	}
	for _, row := range out.Rows {
		row[idx] = fn(row[idx])
	}
	return out
}

// Column returns a copy of the values of the named column.
func (t *Table) Column(name string) []string {
	idx := t.Index(name)
	if idx < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out
}

// Equal reports whether both tables have identical columns and rows.
func Equal(a, b *Table) bool {
	if a.Len() != b.Len() || len(a.Columns) != len(b.Columns) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i] != b.Columns[i] {
			return false
		}
	}
	for i := range a.Rows {
		for j := range a.Rows[i] {
			if a.Rows[i][j] != b.Rows[i][j] {
				return false
			}
		}
	}
	return true
}

// UniqueNames builds width trimmed column names from header cells. Missing
// or blank names become Column_<n>; repeats get a _<k> suffix.
func UniqueNames(header []string, width int) []string {
	names := make([]string, width)
	used := make(map[string]bool, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = strings.TrimSpace(header[i])
		}
		if name == "" {
			name = "Column_" + strconv.Itoa(i+1)
		}
		base := name
		for k := 2; used[name]; k++ {
			name = base + "_" + strconv.Itoa(k)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// ParseNumber coerces a cell to a float. Thousands separators and
// surrounding whitespace are ignored and Devanagari digits are accepted.
// Blank, non-numeric, NaN and infinite values report ok=false.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(ASCIIDigits(s))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatNumber renders v in its shortest decimal form.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ASCIIDigits maps Devanagari digits (०-९) to ASCII 0-9, leaving every
// other rune untouched.
func ASCIIDigits(s string) string {
	if !strings.ContainsFunc(s, isDevanagariDigit) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isDevanagariDigit(r) {
			return '0' + (r - '\u0966')
		}
		return r
	}, s)
}

func isDevanagariDigit(r rune) bool { return r >= '\u0966' && r <= '\u096F' }
