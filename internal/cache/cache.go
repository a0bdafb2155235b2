// Package cache provides translation caches keyed by the exact source text.
// Entries are never evicted by the caches themselves; the caller decides
// whether a cache lives for one document or is shared across runs.
package cache

import (
	"context"
	"sync"
)

// TranslationCache maps source text to its translation.
type TranslationCache interface {
	Get(ctx context.Context, source string) (string, bool)
	Put(ctx context.Context, source, translated string)
}

// Memory is an in-process cache. It is safe for concurrent use so one
// instance can be shared by several pipeline runs.
type Memory struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory { return &Memory{m: make(map[string]string)} }

func (c *Memory) Get(_ context.Context, source string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[source]
	return v, ok
}

func (c *Memory) Put(_ context.Context, source, translated string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = make(map[string]string)
	}
	c.m[source] = translated
}

// Len returns the number of cached entries.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// Layered consults Front first and falls back to Back, promoting hits.
// Writes go to both.
type Layered struct {
	Front TranslationCache
	Back  TranslationCache
}

func (l Layered) Get(ctx context.Context, source string) (string, bool) {
	if v, ok := l.Front.Get(ctx, source); ok {
		return v, true
	}
	v, ok := l.Back.Get(ctx, source)
	if ok {
		l.Front.Put(ctx, source, v)
	}
	return v, ok
}

func (l Layered) Put(ctx context.Context, source, translated string) {
	l.Front.Put(ctx, source, translated)
	l.Back.Put(ctx, source, translated)
}
