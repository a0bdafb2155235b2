package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hyperifyio/gorate/internal/fetch"
)

// DefaultGoogleBaseURL is the public web endpoint used by browser widgets.
const DefaultGoogleBaseURL = "https://translate.googleapis.com"

// GoogleTranslator calls the translate_a/single endpoint (client=gtx) that backs the
// Google Translate web widget.
type GoogleTranslator struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the first attempt; zero means 2.
	MaxAttempts int
	Timeout     time.Duration

	once   sync.Once
	client *fetch.Client
}

func (g *GoogleTranslator) fetcher() *fetch.Client {
	g.once.Do(func() {
		attempts := g.MaxAttempts
		if attempts <= 0 {
			attempts = 2
		}
		timeout := g.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		g.client = &fetch.Client{
			HTTPClient:        g.HTTPClient,
			UserAgent:         g.UserAgent,
			MaxAttempts:       attempts,
			PerRequestTimeout: timeout,
		}
	})
	return g.client
}

func (g *GoogleTranslator) endpoint(text string) (string, error) {
	base := g.BaseURL
	if base == "" {
		base = DefaultGoogleBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(u.Path, "/translate_a/single") {
		u.Path = strings.TrimRight(u.Path, "/") + "/translate_a/single"
	}
	q := u.Query()
	q.Set("client", "gtx")
	q.Set("sl", code(Source))
	q.Set("tl", code(Target))
	q.Set("dt", "t")
	q.Set("q", text)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Translate implements Translator.
func (g *GoogleTranslator) Translate(ctx context.Context, text string) (string, error) {
	if isBlank(text) {
		return text, nil
	}
	endpoint, err := g.endpoint(text)
	if err != nil {
		return "", err
	}
	body, _, err := g.fetcher().Get(ctx, endpoint)
	if err != nil {
		return "", fmt.Errorf("google translate: %w", err)
	}
	return parseGTX(body)
}

// parseGTX concatenates the translated segments of a gtx response:
// [[["translated","source",...],...],null,"mr",...]
func parseGTX(body []byte) (string, error) {
	var top []json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return "", fmt.Errorf("decode gtx response: %w", err)
	}
	if len(top) == 0 {
		return "", errors.New("empty gtx response")
	}
	var segments [][]any
	if err := json.Unmarshal(top[0], &segments); err != nil {
		return "", fmt.Errorf("decode gtx segments: %w", err)
	}
	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			b.WriteString(s)
		}
	}
	out := b.String()
	if strings.TrimSpace(out) == "" {
		return "", errors.New("gtx response had no translation")
	}
	return out, nil
}
