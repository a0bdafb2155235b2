package filter

import (
	"context"

	"github.com/hyperifyio/gorate/internal/table"
)

// Pipeline filters in memory. The zero value runs DefaultStages.
type Pipeline struct {
	Stages []Stage
}

func (p Pipeline) stages() []Stage {
	if p.Stages == nil {
		return DefaultStages
	}
	return p.Stages
}

// Apply runs every enabled stage over a shrinking working set. The input
// table is not modified and row order is preserved.
func (p Pipeline) Apply(t *table.Table, s Schema, c Criteria) (*table.Table, Report) {
	stages := p.stages()
	run, counts, warnings := Plan(stages, s, c)
	cur := t.Clone()
	for i, st := range stages {
		counts[i].In = cur.Len()
		if run[i] {
			cur = cur.Where(func(r table.Record) bool {
				return st.Keep(Values(r, s, st.Fields), c)
			})
		}
		counts[i].Out = cur.Len()
	}
	return cur, Report{Stages: counts, Warnings: warnings}
}

// Filter implements Engine.
func (p Pipeline) Filter(_ context.Context, t *table.Table, s Schema, c Criteria) (*table.Table, Report, error) {
	out, rep := p.Apply(t, s, c)
	return out, rep, nil
}
