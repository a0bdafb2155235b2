package report

import (
	"encoding/json"

	"github.com/hyperifyio/gorate/internal/dates"
	"github.com/hyperifyio/gorate/internal/filter"
	"github.com/hyperifyio/gorate/internal/translate"
)

type manifestCriteria struct {
	StartDate         string               `json:"start_date"`
	EndDate           string               `json:"end_date"`
	PriceSentinels    []float64            `json:"price_sentinels"`
	PerUnitBand       [2]float64           `json:"per_unit_excluded_band"`
	ExcludedDeedTypes []string             `json:"excluded_deed_types"`
	ExcludedSurveys   []string             `json:"excluded_surveys"`
	Override          *filter.OverrideRule `json:"override,omitempty"`
}

type manifestResult struct {
	English  string     `json:"english"`
	Marathi  string     `json:"marathi"`
	OK       bool       `json:"ok"`
	Count    int        `json:"count"`
	Mean     float64    `json:"mean"`
	Error    string     `json:"error,omitempty"`
	Columns  []string   `json:"columns"`
	Selected [][]string `json:"selected"`
}

type manifest struct {
	Meta        Meta             `json:"meta"`
	Criteria    manifestCriteria `json:"criteria"`
	Stages      filter.Report    `json:"stages"`
	Translation translate.Stats  `json:"translation"`
	Result      manifestResult   `json:"result"`
}

// ManifestJSON encodes the machine-readable sidecar for run.
func ManifestJSON(run Run) ([]byte, error) {
	c := run.Criteria
	res := run.Result
	m := manifest{
		Meta: run.Meta,
		Criteria: manifestCriteria{
			PriceSentinels:    c.PriceSentinels,
			PerUnitBand:       [2]float64{c.PerUnitExcludedLow, c.PerUnitExcludedHigh},
			ExcludedDeedTypes: c.ExcludedDeedTypes,
			ExcludedSurveys:   c.ExcludedSurveys,
			Override:          c.Override,
		},
		Stages:      res.Stages,
		Translation: res.Translation,
		Result: manifestResult{
			English: res.English,
			Marathi: res.Marathi,
			OK:      res.Summary.OK,
			Count:   res.Summary.Count,
			Mean:    res.Summary.Mean,
		},
	}
	if !c.StartDate.IsZero() {
		m.Criteria.StartDate = c.StartDate.Format(dates.ISO)
		m.Criteria.EndDate = c.EndDate.Format(dates.ISO)
	}
	if res.Err != nil {
		m.Result.Error = res.Err.Error()
	}
	if res.Table != nil {
		m.Result.Columns = res.Table.Columns
		m.Result.Selected = res.Table.Rows
	}
	return json.MarshalIndent(m, "", "  ")
}
