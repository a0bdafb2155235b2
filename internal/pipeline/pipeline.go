// Package pipeline turns one registration document into a valuation:
// extract, translate, normalize dates, filter, aggregate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gorate/internal/aggregate"
	"github.com/hyperifyio/gorate/internal/dates"
	"github.com/hyperifyio/gorate/internal/extract"
	"github.com/hyperifyio/gorate/internal/filter"
	"github.com/hyperifyio/gorate/internal/table"
	"github.com/hyperifyio/gorate/internal/translate"
)

// ExtractionFailureMessage is reported when no usable table was found.
const ExtractionFailureMessage = "No table found or error during extraction."

// Pipeline holds the configuration of one processing chain. The zero value
// extracts the second table, skips translation, filters in memory with
// DefaultCriteria and rounds the top half up.
type Pipeline struct {
	Extractor  extract.Extractor
	Normalizer *translate.Normalizer
	Names      filter.Names
	Criteria   *filter.Criteria
	Rounding   aggregate.Rounding
	Engine     filter.Engine
	// Lenient skips stages whose column is missing instead of halting.
	Lenient bool
	// PromoteFirstRow re-headers the table from its first data row.
	PromoteFirstRow bool
}

// Result is what Process returns. On failure English carries the message,
// Err the cause, and Table is empty.
type Result struct {
	English     string
	Marathi     string
	Table       *table.Table
	Summary     aggregate.Summary
	Err         error
	Stages      filter.Report
	Translation translate.Stats
	Duration    time.Duration
}

// Failed reports whether processing stopped before aggregation.
func (r Result) Failed() bool { return r.Err != nil }

func (p *Pipeline) extractor() extract.Extractor {
	if p.Extractor == nil {
		return extract.NewPositional()
	}
	return p.Extractor
}

func (p *Pipeline) engine() filter.Engine {
	if p.Engine == nil {
		return filter.Pipeline{}
	}
	return p.Engine
}

func (p *Pipeline) criteria() filter.Criteria {
	if p.Criteria == nil {
		return filter.DefaultCriteria()
	}
	return *p.Criteria
}

// Process never panics and never returns an error value: every failure is
// mapped onto Result.English and recorded in Result.Err.
func (p *Pipeline) Process(ctx context.Context, doc []byte, excludedSurveys string) (res Result) {
	start := time.Now()
	var before translate.Stats
	if p.Normalizer != nil {
		before = p.Normalizer.Stats()
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("pipeline panicked")
			res = failure(fmt.Errorf("%v", r))
		}
		if p.Normalizer != nil {
			res.Translation = p.Normalizer.Stats().Sub(before)
		}
		res.Duration = time.Since(start)
	}()

	t, err := p.extractor().Extract(doc)
	if err != nil {
		log.Warn().Err(err).Msg("extraction failed")
		return failure(err)
	}
	if p.PromoteFirstRow {
		t = extract.PromoteFirstRow(t)
	}
	if t.Len() == 0 {
		return failure(fmt.Errorf("%w: table has no data rows", extract.ErrNoTable))
	}
	log.Debug().Int("rows", t.Len()).Strs("columns", t.Columns).Msg("extracted table")

	t = p.Normalizer.Table(ctx, t)
	if err := ctx.Err(); err != nil {
		return failure(err)
	}

	names := p.Names.WithDefaults()
	t = dates.NormalizeColumn(t, names.Date)

	var schema filter.Schema
	if p.Lenient {
		var missing []string
		schema, missing = filter.ResolveSchemaLenient(t, names)
		if len(missing) > 0 {
			log.Warn().Strs("missing", missing).Msg("columns missing; affected stages will be skipped")
		}
	} else {
		schema, err = filter.ResolveSchema(t, names)
		if err != nil {
			return failure(err)
		}
	}

	c := p.criteria().WithSurveys(excludedSurveys)
	filtered, rep, err := p.engine().Filter(ctx, t, schema, c)
	if err != nil {
		res = failure(err)
		res.Stages = rep
		return res
	}
	for _, w := range rep.Warnings {
		log.Warn().Msg(w)
	}

	sum := aggregate.Summarize(filtered, schema.Column(filter.PerUnit), p.Rounding)
	log.Info().Int("rows", t.Len()).Int("eligible", filtered.Len()).Int("selected", sum.Count).Bool("ok", sum.OK).Msg("valuation computed")
	return Result{
		English: sum.English,
		Marathi: sum.Marathi,
		Table:   sum.Selected,
		Summary: sum,
		Stages:  rep,
	}
}

// failure maps err onto the user-facing message for its class.
func failure(err error) Result {
	var msg string
	var missing *filter.MissingColumnsError
	switch {
	case errors.Is(err, extract.ErrNoTable):
		msg = ExtractionFailureMessage
	case errors.As(err, &missing):
		msg = missing.Error()
	default:
		msg = "An error occurred: " + err.Error()
	}
	return Result{English: msg, Table: table.Empty(), Err: err}
}
