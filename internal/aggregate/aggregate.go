// Package aggregate selects the highest-priced half of the eligible
// transactions and reports their mean per-unit price in English and Marathi.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/hyperifyio/gorate/internal/table"
)

// Rounding decides how many rows form the top half of an odd-sized set.
type Rounding int

const (
	// Ceil keeps ceil(n/2) rows, so a single row is its own top half.
	Ceil Rounding = iota
	// Floor keeps floor(n/2) rows.
	Floor
)

func (r Rounding) String() string {
	if r == Floor {
		return "floor"
	}
	return "ceil"
}

// ParseRounding accepts "ceil" (or "") and "floor".
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ceil":
		return Ceil, nil
	case "floor":
		return Floor, nil
	}
	return Ceil, fmt.Errorf("unknown rounding policy %q (want ceil or floor)", s)
}

// TopHalf returns the size of the top half of n rows.
func (r Rounding) TopHalf(n int) int {
	if n <= 0 {
		return 0
	}
	if r == Floor {
		return n / 2
	}
	return (n + 1) / 2
}

// Messages used when no mean can be computed.
const (
	NotCalculableEnglish = "Could not calculate the average 'Per sq. M.' due to missing data or column."
	NotCalculableMarathi = ""
)

// Summary is the outcome of one aggregation.
type Summary struct {
	// Count is the number of selected rows.
	Count int
	Mean  float64
	// OK is false when there was nothing numeric to average.
	OK       bool
	English  string
	Marathi  string
	Selected *table.Table
}

// EnglishSentence formats the English valuation line.
func EnglishSentence(n int, mean float64) string {
	return fmt.Sprintf("The average of these %d purchase and sale transactions is Rs. %.2f/- per sq. m.", n, mean)
}

// MarathiSentence formats the Marathi valuation line.
func MarathiSentence(n int, mean float64) string {
	return fmt.Sprintf("सदर %d खरेदी विक्री व्यवहारांची सरासरी रु. %.2f/- प्रती चौ. मी.", n, mean)
}

type ranked struct {
	row     []string
	value   float64
	numeric bool
}

// Summarize sorts t by perUnitCol descending (stable, missing values last),
// keeps the top half under policy and averages its numeric values. The
// selected rows carry the per-unit column in canonical numeric form.
func Summarize(t *table.Table, perUnitCol string, policy Rounding) Summary {
	notOK := func(sel *table.Table) Summary {
		return Summary{Count: sel.Len(), English: NotCalculableEnglish, Marathi: NotCalculableMarathi, Selected: sel}
	}
	if t == nil {
		return notOK(table.Empty())
	}
	idx := t.Index(perUnitCol)
	if idx < 0 {
		return notOK(table.New(t.Columns))
	}

	rows := make([]ranked, len(t.Rows))
	for i, row := range t.Rows {
		v, ok := table.ParseNumber(row[idx])
		cp := append([]string(nil), row...)
		cp[idx] = ""
		if ok {
			cp[idx] = table.FormatNumber(v)
		}
		rows[i] = ranked{row: cp, value: v, numeric: ok}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		ra, rb := rows[a], rows[b]
		if ra.numeric != rb.numeric {
			return ra.numeric
		}
		return ra.numeric && ra.value > rb.value
	})

	n := policy.TopHalf(len(rows))
	sel := table.New(t.Columns)
	sel.Rows = make([][]string, 0, n)
	values := make([]float64, 0, n)
	for _, r := range rows[:n] {
		sel.Rows = append(sel.Rows, r.row)
		if r.numeric {
			values = append(values, r.value)
		}
	}
	if len(values) == 0 {
		return notOK(sel)
	}
	mean, err := stats.Mean(values)
	if err != nil || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return notOK(sel)
	}
	return Summary{
		Count:    n,
		Mean:     mean,
		OK:       true,
		English:  EnglishSentence(n, mean),
		Marathi:  MarathiSentence(n, mean),
		Selected: sel,
	}
}
