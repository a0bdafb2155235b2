package dates

import (
	"testing"

	"github.com/hyperifyio/gorate/internal/table"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"05/02/2023":   "2023-05-02",
		"02.05.2023":   "2023-05-02",
		"5/2/2023":     "2023-05-02",
		" 2.5.2023 ":   "2023-05-02",
		"०५/०२/२०२३":   "2023-05-02",
		"not-a-date":   "not-a-date",
		"2023-05-02":   "2023-05-02",
		"13/01/2023":   "13/01/2023",
		"31.02.2023":   "31.02.2023",
		"05/02/23":     "05/02/23",
		"":             "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeColumn_LeavesOtherColumns(t *testing.T) {
	src := &table.Table{Columns: []string{"Date", "Note"}, Rows: [][]string{{"05/02/2023", "05/02/2023"}}}
	out := NormalizeColumn(src, "Date")
	if out.Rows[0][0] != "2023-05-02" || out.Rows[0][1] != "05/02/2023" {
		t.Fatalf("unexpected row: %v", out.Rows[0])
	}
	if src.Rows[0][0] != "05/02/2023" {
		t.Fatalf("source mutated")
	}
}

func TestParseISO(t *testing.T) {
	if _, ok := ParseISO("2021-01-01"); !ok {
		t.Fatalf("expected ok")
	}
	if _, ok := ParseISO("2021"); ok {
		t.Fatalf("expected failure for partial date")
	}
}
