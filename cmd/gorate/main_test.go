package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperifyio/gorate/internal/app"
	"github.com/hyperifyio/gorate/internal/docxtest"
)

func TestParseFlags_PositionalInput(t *testing.T) {
	o, err := parseFlags([]string{"-surveys", "12, 45", "-deed-types", "Gift, Lease", "doc.docx"}, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if o.flags.InputPath != "doc.docx" || !o.set["input"] {
		t.Fatalf("positional input not taken: %+v", o.flags)
	}
	if got := o.flags.ExcludedDeedTypes; len(got) != 2 || got[1] != "Lease" {
		t.Fatalf("deed types: %v", got)
	}
	if _, err := parseFlags([]string{"-input", "a.docx", "b.docx"}, io.Discard); err == nil {
		t.Fatal("expected error for two inputs")
	}
}

func TestResolveConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "gorate.yaml")
	yml := "output: file.md\ncache:\n  backend: disk\naggregate:\n  rounding: floor\nfilter:\n  engine: sqlite\n"
	if err := os.WriteFile(p, []byte(yml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("GORATE_ROUNDING", "ceil")
	t.Setenv("GORATE_ENGINE", "sqlite")

	o, err := parseFlags([]string{"-config", p, "-engine", "memory", "in.docx"}, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := resolveConfig(o)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.OutputPath != "file.md" || cfg.CacheBackend != "disk" {
		t.Fatalf("file values missing: %+v", cfg)
	}
	if cfg.Rounding != "ceil" {
		t.Fatalf("env should beat file, got rounding %q", cfg.Rounding)
	}
	if cfg.Engine != "memory" {
		t.Fatalf("flag should beat env, got engine %q", cfg.Engine)
	}
	if cfg.InputPath != "in.docx" {
		t.Fatalf("input: %q", cfg.InputPath)
	}
}

func TestResolveConfig_OverrideFlag(t *testing.T) {
	o, err := parseFlags([]string{"-override.deedType", "Gift", "-override.price", "1"}, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := resolveConfig(o)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Override == nil || cfg.Override.DeedType != "Gift" || cfg.Override.Price != 1 {
		t.Fatalf("override: %+v", cfg.Override)
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{fmt.Errorf("%w: nothing left", app.ErrNoResult), 2},
		{app.ErrInputTooLarge, 1},
		{errors.New("boom"), 1},
	}
	for _, c := range cases {
		if got := exitCode(c.err); got != c.want {
			t.Fatalf("exitCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

// Smoke test: run writes the report for a document without Marathi text.
func TestRun_WritesOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "index2.docx")
	out := filepath.Join(dir, "out.md")
	doc := docxtest.Build([][]string{{"Office"}}, [][]string{
		{"Date", "Purchase price", "Per sq. M.", "Type of document", "Survey No."},
		{"03/15/2021", "900000", "3000", "Sale deed", "8"},
		{"07/01/2022", "400000", "1000", "Sale deed", "9"},
	})
	if err := os.WriteFile(in, doc, 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	cfg := app.DefaultConfig()
	cfg.InputPath = in
	cfg.OutputPath = out
	cfg.Translator = "none"
	if err := run(cfg); err != nil {
		t.Fatalf("run error: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil || len(b) == 0 {
		t.Fatalf("expected output file, err=%v", err)
	}
}
