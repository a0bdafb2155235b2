// Command translate-stub serves canned Marathi to English translations over
// both the Google gtx endpoint and an OpenAI-compatible chat API, for offline
// runs and system tests.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

// glossary covers the headers and deed types of a typical index-II extract.
var glossary = map[string]string{
	"दिनांक":            "Date",
	"खरेदी किंमत":       "Purchase price",
	"प्रति चौ. मी.":     "Per sq. M.",
	"दस्तऐवजाचा प्रकार": "Type of document",
	"सर्वे नं.":         "Survey No.",
	"खरेदीखत":           "Sale deed",
	"अभिहस्तांतरणपत्र":  "Conveyance deed",
	"करारनामा":          "Contract",
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func lookup(text string) string {
	if v, ok := glossary[strings.TrimSpace(text)]; ok {
		return v
	}
	return text
}

func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/translate_a/single", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q := r.Form.Get("q")
		if q == "" {
			http.Error(w, "missing q", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode([]any{
			[]any{[]any{lookup(q), q, nil, nil, 10}},
			nil,
			r.Form.Get("sl"),
		})
	})
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		user := ""
		for _, m := range req.Messages {
			if m.Role == "user" {
				user = m.Content
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "stub",
			"object": "chat.completion",
			"model":  model,
			"choices": []map[string]any{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": lookup(user)}, "finish_reason": "stop"},
			},
		})
	})
	return mux
}

func main() {
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}
	log.Printf("translate-stub listening on %s (model=%s)", addr, model)
	if err := http.ListenAndServe(addr, newMux(model)); err != nil {
		log.Fatal(err)
	}
}
