package openrouter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestNewClientWithoutKey(t *testing.T) {
	t.Parallel()

	if c := NewClient(Config{Model: "m"}); c != nil {
		t.Fatal("expected nil client without api key")
	}
}

func TestProbeModels(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		paths []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/missing-model") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"model not found"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"known-model","object":"model","created":0,"owned_by":"test"}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})

	if err := ProbeModels(context.Background(), client, "known-model", " ", "known-model"); err != nil {
		t.Fatalf("ProbeModels() error = %v", err)
	}
	mu.Lock()
	calls := len(paths)
	mu.Unlock()
	if calls != 1 {
		t.Fatalf("probe calls = %d, want 1", calls)
	}

	err := ProbeModels(context.Background(), client, "known-model", "missing-model")
	if err == nil || !strings.Contains(err.Error(), "missing-model") {
		t.Fatalf("ProbeModels() error = %v, want missing-model failure", err)
	}
}
