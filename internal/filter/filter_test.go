package filter

import (
	"errors"
	"reflect"
	"testing"

	"github.com/hyperifyio/gorate/internal/table"
)

var header = []string{"Date", "Purchase price", "Per sq. M.", "Type of document", "Survey No."}

func sample() *table.Table {
	return &table.Table{Columns: header, Rows: [][]string{
		{"2021-01-01", "500000", "50", "Sale deed", "12/3"},
		{"2019-01-01", "0", "5", "Conveyance deed", "7"},
		{"2023-05-02", "1,20,000", "1200", "Sale deed", "123"},
		{"2020-05-01", "900000", "900", "Sale deed", "8"},
		{"05/02/2021", "400000", "400", "Sale deed", "9"},
		{"2022-03-03", "1", "300", "Sale deed", "10"},
		{"2022-03-04", "700000", "9.5", "Sale deed", "11"},
		{"2022-03-05", "700000", "abc", "Contract", "14"},
		{"2022-03-06", "NA", "10", "Gift", "१२"},
	}}
}

func mustSchema(t *testing.T, tb *table.Table) Schema {
	t.Helper()
	s, err := ResolveSchema(tb, DefaultNames())
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func TestApply_EndToEndRows(t *testing.T) {
	tb := sample()
	out, rep := Pipeline{}.Apply(tb, mustSchema(t, tb), DefaultCriteria())
	got := out.Column("Survey No.")
	want := []string{"12/3", "123", "१२"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("surviving surveys: got %v want %v", got, want)
	}
	if rep.Removed() != tb.Len()-out.Len() {
		t.Fatalf("report removed %d, table lost %d", rep.Removed(), tb.Len()-out.Len())
	}
	if rep.Stages[0].Name != "date_window" || rep.Stages[0].Out != 6 {
		t.Fatalf("unexpected date stage: %+v", rep.Stages[0])
	}
	if !rep.Stages[3].Skipped || !rep.Stages[4].Skipped {
		t.Fatalf("survey and override stages should be skipped: %+v", rep.Stages)
	}
	if tb.Len() != 9 {
		t.Fatalf("input table was modified")
	}
}

func TestApply_Idempotent(t *testing.T) {
	tb := sample()
	s := mustSchema(t, tb)
	c := DefaultCriteria().WithSurveys("12")
	c.Override = &OverrideRule{DeedType: "Gift", Price: 0}
	once, _ := Pipeline{}.Apply(tb, s, c)
	twice, rep := Pipeline{}.Apply(once, s, c)
	if !table.Equal(once, twice) {
		t.Fatalf("second pass changed the table:\n%v\n%v", once.Rows, twice.Rows)
	}
	if rep.Removed() != 0 {
		t.Fatalf("second pass removed %d rows", rep.Removed())
	}
}

func TestSurveyExclusion_TruthTable(t *testing.T) {
	c := DefaultCriteria().WithSurveys("12, 0045 abc 7x")
	if !reflect.DeepEqual(c.ExcludedSurveys, []string{"12", "45"}) {
		t.Fatalf("parsed list: %v", c.ExcludedSurveys)
	}
	cases := []struct {
		value    string
		excluded bool
	}{
		{"12/3", true},   // separator, listed
		{"13/3", false},  // separator, not listed
		{"12", true},     // no separator, listed
		{"123", false},   // no separator, not listed
		{" 12 / 4", true},
		{"45/1अ", true},
		{"१२/५", true},
		{"12A", true},
		{"/12", false},
		{"", false},
		{"गट", false},
	}
	for _, tc := range cases {
		if got := SurveyExcluded(tc.value, c); got != tc.excluded {
			t.Fatalf("SurveyExcluded(%q)=%v want %v", tc.value, got, tc.excluded)
		}
	}
	if SurveyExcluded("12/3", DefaultCriteria()) {
		t.Fatalf("empty list must exclude nothing")
	}
}

func TestPriceSanityBoundaries(t *testing.T) {
	c := DefaultCriteria()
	for v, want := range map[string]bool{"0": true, "1": true, "1.0": true, "2": false, "abc": false, "": false} {
		if got := PriceIsSentinel(v, c); got != want {
			t.Fatalf("PriceIsSentinel(%q)=%v", v, got)
		}
	}
	for v, want := range map[string]bool{"0": false, "0.01": true, "9.99": true, "10": false, "-5": false, "x": false} {
		if got := PerUnitInExcludedBand(v, c); got != want {
			t.Fatalf("PerUnitInExcludedBand(%q)=%v", v, got)
		}
	}
}

func TestDateWindowInclusive(t *testing.T) {
	c := DefaultCriteria()
	for v, want := range map[string]bool{
		"2020-05-02": true, "2023-05-02": true, "2020-05-01": false,
		"2023-05-03": false, "05/02/2021": false, "": false,
	} {
		if got := InDateWindow(v, c); got != want {
			t.Fatalf("InDateWindow(%q)=%v want %v", v, got, want)
		}
	}
}

func TestOverrideRule(t *testing.T) {
	c := DefaultCriteria()
	if OverrideExcluded("Gift", "5", c) {
		t.Fatalf("no rule configured")
	}
	c.Override = &OverrideRule{DeedType: "Gift", Price: 100}
	if OverrideExcluded("Gift", "100", c) || !OverrideExcluded("Gift", "99", c) || OverrideExcluded("Sale", "99", c) {
		t.Fatalf("unexpected override result")
	}
}

func TestResolveSchema_MissingColumns(t *testing.T) {
	tb := &table.Table{Columns: []string{"Date", "Survey No."}}
	_, err := ResolveSchema(tb, DefaultNames())
	var mc *MissingColumnsError
	if !errors.As(err, &mc) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	if err.Error() != "Missing required columns: Purchase price, Per sq. M., Type of document" {
		t.Fatalf("message: %q", err.Error())
	}
}

func TestApply_LenientSkipsStagesWithMissingColumns(t *testing.T) {
	tb := &table.Table{
		Columns: []string{"Date", "Type of document"},
		Rows:    [][]string{{"2021-01-01", "Contract"}, {"2021-01-02", "Sale"}},
	}
	s, missing := ResolveSchemaLenient(tb, DefaultNames())
	if len(missing) != 3 {
		t.Fatalf("missing: %v", missing)
	}
	out, rep := Pipeline{}.Apply(tb, s, DefaultCriteria().WithSurveys("1"))
	if out.Len() != 1 || out.Rows[0][1] != "Sale" {
		t.Fatalf("unexpected rows: %v", out.Rows)
	}
	if !rep.Stages[1].Skipped || !rep.Stages[3].Skipped || len(rep.Warnings) != 2 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestCriteriaValidate(t *testing.T) {
	c := DefaultCriteria()
	if err := c.Validate(); err != nil {
		t.Fatalf("default criteria: %v", err)
	}
	c.EndDate, c.StartDate = c.StartDate, c.EndDate
	if c.Validate() == nil {
		t.Fatalf("expected inverted window error")
	}
}
