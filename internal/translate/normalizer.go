package translate

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gorate/internal/cache"
	"github.com/hyperifyio/gorate/internal/table"
)

// Stats counts translation activity for one Normalizer.
type Stats struct {
	// Calls is the number of requests sent to the Translator.
	Calls int `json:"calls"`
	// Hits is the number of lookups answered by the cache.
	Hits int `json:"hits"`
	// Failures is the number of Translator errors; the original text was kept.
	Failures int `json:"failures"`
}

// Sub returns the activity between an earlier snapshot and s.
func (s Stats) Sub(earlier Stats) Stats {
	return Stats{
		Calls:    s.Calls - earlier.Calls,
		Hits:     s.Hits - earlier.Hits,
		Failures: s.Failures - earlier.Failures,
	}
}

// Normalizer rewrites Devanagari text to English. A nil Translator turns it
// into the identity; a nil Cache gets a private in-memory cache on first use.
type Normalizer struct {
	Translator Translator
	Cache      cache.TranslationCache

	mu    sync.Mutex
	stats Stats
}

// NewNormalizer returns a Normalizer over tr and c.
func NewNormalizer(tr Translator, c cache.TranslationCache) *Normalizer {
	return &Normalizer{Translator: tr, Cache: c}
}

// Stats returns a snapshot of the counters. They cover the Normalizer's
// lifetime; diff two snapshots with Sub for a single document.
func (n *Normalizer) Stats() Stats {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stats
}

func (n *Normalizer) cache() cache.TranslationCache {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Cache == nil {
		n.Cache = cache.NewMemory()
	}
	return n.Cache
}

func (n *Normalizer) count(f func(*Stats)) {
	n.mu.Lock()
	f(&n.stats)
	n.mu.Unlock()
}

// Text returns the English rendering of s. Text without Devanagari is
// returned unchanged. On translator failure the original is returned and
// nothing is cached, so a later call retries.
func (n *Normalizer) Text(ctx context.Context, s string) string {
	if n == nil || n.Translator == nil || !ContainsDevanagari(s) {
		return s
	}
	c := n.cache()
	if v, ok := c.Get(ctx, s); ok {
		n.count(func(st *Stats) { st.Hits++ })
		return v
	}
	n.count(func(st *Stats) { st.Calls++ })
	out, err := n.Translator.Translate(ctx, s)
	if err != nil {
		n.count(func(st *Stats) { st.Failures++ })
		log.Warn().Err(err).Str("text", s).Msg("translation failed; keeping original")
		return s
	}
	c.Put(ctx, s, out)
	return out
}

// Table returns a copy of t with column names and cell values translated.
// Each distinct value of a column is translated once, in order of first
// appearance. Translated names that collide get a _<n> suffix.
func (n *Normalizer) Table(ctx context.Context, t *table.Table) *table.Table {
	if t == nil {
		return table.Empty()
	}
	out := t.Clone()
	if n == nil || n.Translator == nil {
		return out
	}
	names := make([]string, len(out.Columns))
	for i, c := range out.Columns {
		names[i] = n.Text(ctx, c)
	}
	out.Columns = table.UniqueNames(names, len(names))

	for col := range out.Columns {
		seen := make(map[string]string)
		for _, row := range out.Rows {
			v := row[col]
			if !ContainsDevanagari(v) {
				continue
			}
			tr, ok := seen[v]
			if !ok {
				tr = n.Text(ctx, v)
				seen[v] = tr
			}
			row[col] = tr
		}
	}
	return out
}
