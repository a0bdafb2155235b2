package filter

import (
	"context"
	"fmt"

	"github.com/hyperifyio/gorate/internal/table"
)

// Stage is one exclusion rule. Keep receives the values of Fields for a row,
// in the same order, and reports whether the row survives.
type Stage struct {
	Name   string
	Fields []Field
	// Active reports whether the stage applies under c; nil means always.
	Active func(c Criteria) bool
	Keep   func(values []string, c Criteria) bool
}

// Enabled reports whether s runs under c.
func (s Stage) Enabled(c Criteria) bool { return s.Active == nil || s.Active(c) }

// DefaultStages are applied in order; a row must pass all of them.
var DefaultStages = []Stage{
	{
		Name:   "date_window",
		Fields: []Field{Date},
		Keep:   func(v []string, c Criteria) bool { return InDateWindow(v[0], c) },
	},
	{
		Name:   "price_sanity",
		Fields: []Field{Price, PerUnit},
		Keep: func(v []string, c Criteria) bool {
			return !PriceIsSentinel(v[0], c) && !PerUnitInExcludedBand(v[1], c)
		},
	},
	{
		Name:   "deed_type",
		Fields: []Field{DeedType},
		Keep:   func(v []string, c Criteria) bool { return !DeedTypeExcluded(v[0], c) },
	},
	{
		Name:   "survey",
		Fields: []Field{Survey},
		Active: func(c Criteria) bool { return len(c.ExcludedSurveys) > 0 },
		Keep:   func(v []string, c Criteria) bool { return !SurveyExcluded(v[0], c) },
	},
	{
		Name:   "override",
		Fields: []Field{DeedType, Price},
		Active: func(c Criteria) bool { return c.Override != nil },
		Keep:   func(v []string, c Criteria) bool { return !OverrideExcluded(v[0], v[1], c) },
	},
}

// StageCount records what one stage did.
type StageCount struct {
	Name    string `json:"name"`
	In      int    `json:"in"`
	Out     int    `json:"out"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Report summarizes a filter run.
type Report struct {
	Stages   []StageCount `json:"stages"`
	Warnings []string     `json:"warnings,omitempty"`
}

// Removed returns the total number of rows the stages excluded.
func (r Report) Removed() int {
	n := 0
	for _, s := range r.Stages {
		n += s.In - s.Out
	}
	return n
}

// Engine runs the stages over a table.
type Engine interface {
	Filter(ctx context.Context, t *table.Table, s Schema, c Criteria) (*table.Table, Report, error)
}

// Plan decides, for each stage, whether it runs and why not. Stages whose
// columns are unresolved are skipped with a warning.
func Plan(stages []Stage, s Schema, c Criteria) (run []bool, counts []StageCount, warnings []string) {
	run = make([]bool, len(stages))
	counts = make([]StageCount, len(stages))
	for i, st := range stages {
		counts[i].Name = st.Name
		if !st.Enabled(c) {
			counts[i].Skipped, counts[i].Reason = true, "not configured"
			continue
		}
		if f, ok := firstMissing(st, s); ok {
			counts[i].Skipped, counts[i].Reason = true, "missing column for "+f.String()
			warnings = append(warnings, fmt.Sprintf("stage %s skipped: no column for %s", st.Name, f))
			continue
		}
		run[i] = true
	}
	return run, counts, warnings
}

func firstMissing(st Stage, s Schema) (Field, bool) {
	for _, f := range st.Fields {
		if !s.Has(f) {
			return f, true
		}
	}
	return 0, false
}

// Values returns the cells of fields for row r.
func Values(r table.Record, s Schema, fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = r.Get(s.Column(f))
	}
	return out
}
