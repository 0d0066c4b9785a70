package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"formcheck/internal/config"
	"formcheck/internal/services/llm"
)

func testConfig(baseURL string) config.OpenAI {
	cfg := config.Default().OpenAI
	cfg.APIKey = "sk-test"
	cfg.BaseURL = baseURL
	return cfg
}

func TestSynthesize(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/speech") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3fake-mp3"))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	out := client.Synthesize(context.Background(), "  Deep squat with good depth.  ")
	if out.Err != nil {
		t.Fatalf("Synthesize: %v", out.Err)
	}
	if string(out.Audio) != "ID3fake-mp3" {
		t.Fatalf("unexpected audio %q", out.Audio)
	}
	if captured["input"] != "Deep squat with good depth." {
		t.Fatalf("unexpected input %v", captured["input"])
	}
	if captured["voice"] != "alloy" || captured["model"] != "tts-1" {
		t.Fatalf("unexpected voice/model %v/%v", captured["voice"], captured["model"])
	}
}

func TestSynthesizeFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "overloaded"}})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil,
		llm.WithRetryMaxAttempts(2),
		llm.WithSleeper(func(time.Duration) {}),
	)
	out := client.Synthesize(context.Background(), "hello")
	if out.Err == nil {
		t.Fatalf("expected error")
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:1"), nil)
	if out := client.Synthesize(context.Background(), "   "); out.Err == nil {
		t.Fatalf("expected error for empty text")
	}
}
