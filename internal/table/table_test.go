package table

import "testing"

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"50", 50, true},
		{" 12.5 ", 12.5, true},
		{"5,00,000", 500000, true},
		{"५०", 50, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseNumber(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("ParseNumber(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestWhere_ReturnsNewTableInOrder(t *testing.T) {
	src := &Table{Columns: []string{"a"}, Rows: [][]string{{"1"}, {"2"}, {"3"}}}
	out := src.Where(func(r Record) bool { return r.Get("a") != "2" })
	if out.Len() != 2 || out.Rows[0][0] != "1" || out.Rows[1][0] != "3" {
		t.Fatalf("unexpected rows: %v", out.Rows)
	}
	out.Rows[0][0] = "x"
	if src.Rows[0][0] != "1" {
		t.Fatalf("source table mutated")
	}
}

func TestMapColumn_UnknownColumnIsCopy(t *testing.T) {
	src := &Table{Columns: []string{"a"}, Rows: [][]string{{"1"}}}
	out := src.MapColumn("b", func(string) string { return "z" })
	if !Equal(src, out) {
		t.Fatalf("expected identical copy")
	}
}

func TestASCIIDigits(t *testing.T) {
	if got := ASCIIDigits("स.नं. १२/३"); got != "स.नं. 12/3" {
		t.Fatalf("got %q", got)
	}
}
