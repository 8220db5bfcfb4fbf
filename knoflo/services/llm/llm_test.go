package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"knoflo/knoflo/metrics"
	"knoflo/knoflo/utils/logging"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMain(m *testing.M) {
	logging.InitTestLogger()
	os.Exit(m.Run())
}

func streamBackend(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		for _, line := range lines {
			w.Write([]byte(line + "\n"))
		}
	}))
}

func collect(t *testing.T, ch <-chan string, errCh <-chan error) (string, error) {
	t.Helper()
	var sb strings.Builder
	for chunk := range ch {
		sb.WriteString(chunk)
	}
	return sb.String(), <-errCh
}

func TestRunStreamConcatenatesFragments(t *testing.T) {
	srv := streamBackend(t, []string{
		`{"message":{"content":"Hel"},"done":false}`,
		`{"message":{"content":"lo, "},"done":false}`,
		`{"message":{"content":"world"},"done":false}`,
		`{"done":true}`,
	})
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "test-model")
	ch, errCh := c.RunStream(context.Background(), []Message{{Role: "user", Content: "hi"}})
	got, err := collect(t, ch, errCh)
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if got != "Hello, world" {
		t.Errorf("got %q, want %q", got, "Hello, world")
	}
}

func TestRunStreamSkipsMalformedLines(t *testing.T) {
	srv := streamBackend(t, []string{
		`{"message":{"content":"one "},"done":false}`,
		`this is not json`,
		`{"broken":`,
		`{"message":{"content":"two"},"done":false}`,
		`{"done":true}`,
	})
	defer srv.Close()

	droppedBefore := testutil.ToFloat64(metrics.Global().DroppedChunks)

	c := NewOllamaClient(srv.URL, "test-model")
	ch, errCh := c.RunStream(context.Background(), nil)
	got, err := collect(t, ch, errCh)
	if err != nil {
		t.Fatalf("malformed lines must not abort the stream: %v", err)
	}
	if got != "one two" {
		t.Errorf("got %q, want %q", got, "one two")
	}
	if d := testutil.ToFloat64(metrics.Global().DroppedChunks) - droppedBefore; d != 2 {
		t.Errorf("dropped chunk counter moved by %v, want 2", d)
	}
}

func TestRunStreamBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "test-model")
	ch, errCh := c.RunStream(context.Background(), nil)
	got, err := collect(t, ch, errCh)
	if err == nil {
		t.Fatal("expected an error from a 500 backend")
	}
	if got != "" {
		t.Errorf("no fragments expected on failure, got %q", got)
	}
}

func TestRunStreamInBandError(t *testing.T) {
	srv := streamBackend(t, []string{
		`{"message":{"content":"par"},"done":false}`,
		`{"error":"model not found"}`,
	})
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "test-model")
	ch, errCh := c.RunStream(context.Background(), nil)
	_, err := collect(t, ch, errCh)
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Errorf("expected in-band backend error, got %v", err)
	}
}

func TestRunNonStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"role":"assistant","content":"all done"},"done":true}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "test-model")
	got, err := c.Run(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != "all done" {
		t.Errorf("got %q, want %q", got, "all done")
	}
}
