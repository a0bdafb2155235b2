package app

import (
	"net/http"
	"reflect"
	"testing"
	"time"
)

func TestNewTranslationHTTPClient_Config(t *testing.T) {
	c := newTranslationHTTPClient(0)
	if c.Timeout != 30*time.Second {
		t.Fatalf("expected default timeout, got %v", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected http.Transport")
	}
	if tr.MaxIdleConnsPerHost < 16 {
		t.Fatalf("expected a per-host idle pool, got %d", tr.MaxIdleConnsPerHost)
	}
	if reflect.ValueOf(http.DefaultTransport).Pointer() == reflect.ValueOf(tr).Pointer() {
		t.Fatalf("transport should not be default")
	}
	if c := newTranslationHTTPClient(2 * time.Second); c.Timeout != 2*time.Second {
		t.Fatalf("timeout not applied: %v", c.Timeout)
	}
}
