package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/hyperifyio/gorate/internal/dates"
	"github.com/hyperifyio/gorate/internal/table"
)

// OverrideRule excludes rows of one deed type unless they carry one
// specific price.
type OverrideRule struct {
	DeedType string  `yaml:"deed_type" json:"deed_type"`
	Price    float64 `yaml:"price" json:"price"`
}

// Criteria configures every stage. It is a value type: methods return
// modified copies.
type Criteria struct {
	StartDate time.Time
	EndDate   time.Time
	// PriceSentinels are placeholder prices (0, 1) that mark a row as bogus.
	PriceSentinels []float64
	// Per-unit prices strictly between Low and High are excluded.
	PerUnitExcludedLow  float64
	PerUnitExcludedHigh float64
	ExcludedDeedTypes   []string
	// ExcludedSurveys holds canonical survey numbers (no leading zeros).
	ExcludedSurveys []string
	Override        *OverrideRule
}

// DefaultExcludedDeedTypes are the translated names of non-sale documents,
// including the misspellings the translator produces verbatim.
var DefaultExcludedDeedTypes = []string{
	"Conveyance deed",
	"Convens ded",
	"65 Missing Letters",
	"65-Church letter letter",
	"Conjunction",
	"Contract",
}

// DefaultCriteria returns the three-year window ending 2023-05-02 together
// with the standard exclusions.
func DefaultCriteria() Criteria {
	return Criteria{
		StartDate:           time.Date(2020, 5, 2, 0, 0, 0, 0, time.UTC),
		EndDate:             time.Date(2023, 5, 2, 0, 0, 0, 0, time.UTC),
		PriceSentinels:      []float64{0, 1},
		PerUnitExcludedLow:  0,
		PerUnitExcludedHigh: 10,
		ExcludedDeedTypes:   append([]string(nil), DefaultExcludedDeedTypes...),
	}
}

// WithSurveys returns a copy excluding the survey numbers found in list.
func (c Criteria) WithSurveys(list string) Criteria {
	c.ExcludedSurveys = ParseSurveyList(list)
	return c
}

// Validate rejects windows and bands that can never match.
func (c Criteria) Validate() error {
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return errors.New("date window requires both start and end")
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("date window end %s is before start %s", c.EndDate.Format(dates.ISO), c.StartDate.Format(dates.ISO))
	}
	if c.PerUnitExcludedHigh < c.PerUnitExcludedLow {
		return fmt.Errorf("per-unit band high %v is below low %v", c.PerUnitExcludedHigh, c.PerUnitExcludedLow)
	}
	if c.Override != nil && strings.TrimSpace(c.Override.DeedType) == "" {
		return errors.New("override rule requires a deed type")
	}
	return nil
}

// ParseSurveyList extracts survey numbers from free-form text. Tokens are
// separated by spaces or commas; tokens that are not all digits are dropped.
// Devanagari digits are accepted and results are canonical and unique.
func ParseSurveyList(s string) []string {
	fields := strings.FieldsFunc(table.ASCIIDigits(s), func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	var out []string
	seen := make(map[string]bool)
	for _, tok := range fields {
		if !allDigits(tok) {
			continue
		}
		n := canonicalNumber(tok)
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func canonicalNumber(digits string) string {
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
