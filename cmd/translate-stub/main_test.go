package main

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/hyperifyio/gorate/internal/llm"
	"github.com/hyperifyio/gorate/internal/translate"
)

func TestStub_GoogleAndLLMAgree(t *testing.T) {
	srv := httptest.NewServer(newMux("stub-model"))
	defer srv.Close()
	ctx := context.Background()

	g := &translate.GoogleTranslator{BaseURL: srv.URL}
	got, err := g.Translate(ctx, "खरेदीखत")
	if err != nil || got != "Sale deed" {
		t.Fatalf("google: %q %v", got, err)
	}
	if got, err := g.Translate(ctx, "गट"); err != nil || got != "गट" {
		t.Fatalf("unknown text should echo: %q %v", got, err)
	}

	l := &translate.LLMTranslator{Client: llm.NewOpenAI(srv.URL+"/v1", "", nil), Model: "stub-model"}
	got, err = l.Translate(ctx, "दिनांक")
	if err != nil || got != "Date" {
		t.Fatalf("llm: %q %v", got, err)
	}
}
