package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hyperifyio/gorate/internal/docxtest"
)

var preamble = [][]string{{"कार्यालय", "हवेली"}}

func writeDoc(t *testing.T, dir string, tables ...[][]string) string {
	t.Helper()
	p := filepath.Join(dir, "index2.docx")
	if err := os.WriteFile(p, docxtest.Build(tables...), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	return p
}

func scenario() [][]string {
	return [][]string{
		{"दिनांक", "Purchase price", "Per sq. M.", "Type of document", "Survey No."},
		{"01/01/2021", "500000", "50", "Sale deed", "12/3"},
		{"01/01/2019", "0", "5", "Conveyance deed", "7"},
		{"02/02/2022", "600000", "70", "खरेदीखत", "12"},
	}
}

// gtxServer answers translate_a/single with a fixed dictionary.
func gtxServer(t *testing.T, calls *int32) *httptest.Server {
	dict := map[string]string{"दिनांक": "Date", "खरेदीखत": "Sale deed"}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		q := r.URL.Query().Get("q")
		out, ok := dict[q]
		if !ok {
			out = q
		}
		body, _ := json.Marshal([]any{[]any{[]any{out, q, nil, nil, 10}}, nil, "mr"})
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(body)
	}))
}

func TestRun_WritesAllOutputs(t *testing.T) {
	var calls int32
	srv := gtxServer(t, &calls)
	defer srv.Close()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.InputPath = writeDoc(t, dir, preamble, scenario())
	cfg.OutputPath = filepath.Join(dir, "out.md")
	cfg.OutputXLSX = filepath.Join(dir, "out.xlsx")
	cfg.OutputPDF = filepath.Join(dir, "out.pdf")
	cfg.TranslateBaseURL = srv.URL
	cfg.CacheBackend = "disk"
	cfg.CacheDir = filepath.Join(dir, "cache")
	cfg.Engine = "sqlite"
	cfg.ExcludedSurveys = "12"

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()
	var out bytes.Buffer
	a.Out = &out

	err = a.Run(context.Background())
	if !errors.Is(err, ErrNoResult) {
		t.Fatalf("all rows excluded by survey 12; expected ErrNoResult, got %v", err)
	}
	if !strings.Contains(out.String(), "Could not calculate") {
		t.Fatalf("unexpected stdout: %q", out.String())
	}

	cfg.ExcludedSurveys = ""
	a2, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a2.Close()
	out.Reset()
	a2.Out = &out
	if err := a2.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "The average of these 2 purchase and sale transactions is Rs. 60.00/- per sq. m."
	if !strings.HasPrefix(out.String(), want) {
		t.Fatalf("stdout = %q", out.String())
	}
	for _, p := range []string{cfg.OutputPath, cfg.OutputPath + ".manifest.json", cfg.OutputXLSX, cfg.OutputPDF} {
		if st, err := os.Stat(p); err != nil || st.Size() == 0 {
			t.Fatalf("missing output %s: %v", p, err)
		}
	}
	md, _ := os.ReadFile(cfg.OutputPath)
	if !strings.Contains(string(md), "engine=sqlite") || !strings.Contains(string(md), "cache=disk") {
		t.Fatalf("footer missing settings:\n%s", md)
	}

	// the second run is answered from the disk cache
	before := atomic.LoadInt32(&calls)
	a3, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a3.Close()
	a3.Out = nil
	if err := a3.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if after := atomic.LoadInt32(&calls); after != before {
		t.Fatalf("expected cached translations, server saw %d new calls", after-before)
	}
}

func TestRun_NoTableIsNoResult(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.InputPath = writeDoc(t, dir, preamble)
	cfg.OutputPath = filepath.Join(dir, "out.md")
	cfg.Translator = "none"
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()
	a.Out = nil
	err = a.Run(context.Background())
	if !errors.Is(err, ErrNoResult) || !strings.Contains(err.Error(), "No table found or error during extraction.") {
		t.Fatalf("unexpected error: %v", err)
	}
	md, _ := os.ReadFile(cfg.OutputPath)
	if !strings.Contains(string(md), "No table found") {
		t.Fatalf("report should carry the failure message")
	}
}

func TestRun_InputTooLarge(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.InputPath = writeDoc(t, dir, preamble, scenario())
	cfg.OutputPath = filepath.Join(dir, "out.md")
	cfg.Translator = "none"
	cfg.MaxInputBytes = 64
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()
	if err := a.Run(context.Background()); !errors.Is(err, ErrInputTooLarge) {
		t.Fatalf("expected ErrInputTooLarge, got %v", err)
	}
	if _, err := os.Stat(cfg.OutputPath); !os.IsNotExist(err) {
		t.Fatalf("no output expected for rejected input")
	}
}

func TestValidateConfig(t *testing.T) {
	base := DefaultConfig()
	base.InputPath = "in.docx"
	if err := ValidateConfig(base); err != nil {
		t.Fatalf("default config: %v", err)
	}
	cases := map[string]func(*Config){
		"no input":       func(c *Config) { c.InputPath = "" },
		"bad translator": func(c *Config) { c.Translator = "deepl" },
		"llm no model":   func(c *Config) { c.Translator = "llm" },
		"redis no url":   func(c *Config) { c.CacheBackend = "redis" },
		"bad engine":     func(c *Config) { c.Engine = "postgres" },
		"bad rounding":   func(c *Config) { c.Rounding = "half" },
		"bad format":     func(c *Config) { c.Format = "pdf" },
		"bad date":       func(c *Config) { c.StartDate = "02/05/2020" },
		"inverted":       func(c *Config) { c.StartDate, c.EndDate = "2023-01-01", "2020-01-01" },
	}
	for name, mutate := range cases {
		c := base
		mutate(&c)
		if err := ValidateConfig(c); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadAndApplyFileConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "gorate.yaml")
	yml := `
input: in.docx
output: custom.md
translate:
  backend: none
cache:
  backend: disk
  maxAge: 48h
filter:
  engine: sqlite
  startDate: "2021-01-01"
  columns:
    per_unit: Rate
  override:
    deed_type: Gift
    price: 1
aggregate:
  rounding: floor
`
	if err := os.WriteFile(p, []byte(yml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Engine = "memory"
	ApplyFileConfig(&cfg, fc)
	if cfg.InputPath != "in.docx" || cfg.OutputPath != "custom.md" || cfg.Translator != "none" {
		t.Fatalf("unexpected paths/translator: %+v", cfg)
	}
	if cfg.CacheBackend != "disk" || cfg.CacheMaxAge.Hours() != 48 || cfg.Engine != "sqlite" || cfg.Rounding != "floor" {
		t.Fatalf("unexpected settings: %+v", cfg)
	}
	if cfg.Columns.PerUnit != "Rate" || cfg.Override == nil || cfg.Override.DeedType != "Gift" {
		t.Fatalf("unexpected filter settings: %+v", cfg)
	}
	c, err := criteriaFromConfig(cfg)
	if err != nil || c.StartDate.Year() != 2021 {
		t.Fatalf("criteria: %+v %v", c, err)
	}

	// explicit values are kept
	cfg = DefaultConfig()
	cfg.OutputPath = "flag.md"
	ApplyFileConfig(&cfg, fc)
	if cfg.OutputPath != "flag.md" {
		t.Fatalf("flag value overwritten: %q", cfg.OutputPath)
	}
}
