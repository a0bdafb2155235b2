// Package dates canonicalizes registration dates to ISO form.
package dates

import (
	"strings"
	"time"

	"github.com/hyperifyio/gorate/internal/table"
)

// ISO is the canonical output layout.
const ISO = "2006-01-02"

// Layouts are tried in order: month/day/year, then day.month.year. Day and
// month may be one or two digits; the year must have four.
var Layouts = []string{"1/2/2006", "2.1.2006"}

// Normalize returns s reformatted as YYYY-MM-DD using the first layout that
// parses it. Unparsable input is returned unchanged.
func Normalize(s string) string {
	v := strings.TrimSpace(table.ASCIIDigits(s))
	for _, layout := range Layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(ISO)
		}
	}
	return s
}

// NormalizeColumn returns a copy of t with column col normalized.
func NormalizeColumn(t *table.Table, col string) *table.Table {
	return t.MapColumn(col, Normalize)
}

// ParseISO parses a canonical date. ok is false for anything else,
// including non-normalized input.
func ParseISO(s string) (time.Time, bool) {
	t, err := time.Parse(ISO, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
