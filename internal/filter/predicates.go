package filter

import (
	"strings"
	"time"

	"github.com/hyperifyio/gorate/internal/dates"
	"github.com/hyperifyio/gorate/internal/table"
)

// InDateWindow reports whether v is an ISO date inside [start, end].
func InDateWindow(v string, c Criteria) bool {
	d, ok := dates.ParseISO(strings.TrimSpace(v))
	if !ok {
		return false
	}
	d = calendarDay(d)
	return !d.Before(calendarDay(c.StartDate)) && !d.After(calendarDay(c.EndDate))
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PriceIsSentinel reports whether price is numerically one of the sentinels.
func PriceIsSentinel(price string, c Criteria) bool {
	v, ok := table.ParseNumber(price)
	if !ok {
		return false
	}
	for _, s := range c.PriceSentinels {
		if v == s {
			return true
		}
	}
	return false
}

// PerUnitInExcludedBand reports whether v lies strictly inside the band.
func PerUnitInExcludedBand(perUnit string, c Criteria) bool {
	v, ok := table.ParseNumber(perUnit)
	return ok && v > c.PerUnitExcludedLow && v < c.PerUnitExcludedHigh
}

// DeedTypeExcluded reports an exact match against the exclusion list.
func DeedTypeExcluded(deed string, c Criteria) bool {
	deed = strings.TrimSpace(deed)
	for _, d := range c.ExcludedDeedTypes {
		if deed == d {
			return true
		}
	}
	return false
}

// SurveyNumber returns the canonical parcel number of a survey cell: the
// leading digits of the text before the first "/" (or of the whole value
// when there is no "/").
func SurveyNumber(v string) (string, bool) {
	key := strings.TrimSpace(table.ASCIIDigits(v))
	if i := strings.IndexByte(key, '/'); i >= 0 {
		key = strings.TrimSpace(key[:i])
	}
	end := 0
	for end < len(key) && key[end] >= '0' && key[end] <= '9' {
		end++
	}
	if end == 0 {
		return "", false
	}
	return canonicalNumber(key[:end]), true
}

// SurveyExcluded reports whether the parcel number of v is listed.
func SurveyExcluded(v string, c Criteria) bool {
	if len(c.ExcludedSurveys) == 0 {
		return false
	}
	n, ok := SurveyNumber(v)
	if !ok {
		return false
	}
	for _, s := range c.ExcludedSurveys {
		if n == s {
			return true
		}
	}
	return false
}

// OverrideExcluded applies the optional deed-type/price correction rule.
func OverrideExcluded(deed, price string, c Criteria) bool {
	if c.Override == nil || strings.TrimSpace(deed) != c.Override.DeedType {
		return false
	}
	v, ok := table.ParseNumber(price)
	return !ok || v != c.Override.Price
}
