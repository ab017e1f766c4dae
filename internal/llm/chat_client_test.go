package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/timeless-backend/internal/pkg/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func chatResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func newTestChatClient(t *testing.T, baseURL string) *chatClient {
	t.Helper()
	return newChatClient(mustTestLogger(t), chatClientConfig{
		Provider:   "openai",
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Model:      "test-model",
		Timeout:    2 * time.Second,
		MaxRetries: 2,
	})
}

func TestCompleteSendsMessagesAndParsesReply(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq chatCompletionsRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(chatResponse("  the summary  "))
	}))
	defer srv.Close()

	c := newTestChatClient(t, srv.URL)
	out, err := c.Complete(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "the summary" {
		t.Fatalf("content: want=%q got=%q", "the summary", out)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("path: want=/chat/completions got=%s", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth header: want bearer key got=%q", gotAuth)
	}
	if gotReq.Model != "test-model" {
		t.Fatalf("model: want=test-model got=%q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Fatalf("messages: got=%v", gotReq.Messages)
	}
}

func TestCompleteRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(chatResponse("recovered"))
	}))
	defer srv.Close()

	c := newTestChatClient(t, srv.URL)
	out, err := c.Complete(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "recovered" {
		t.Fatalf("content: want=%q got=%q", "recovered", out)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("request count: want=2 got=%d", got)
	}
}

func TestCompleteDoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestChatClient(t, srv.URL)
	if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatalf("Complete: expected error on 401")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("request count: want=1 got=%d", got)
	}
}

func TestCompleteRejectsEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := newTestChatClient(t, srv.URL)
	if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatalf("Complete: expected error on empty choices")
	}
}

func TestNewFromEnvProviderSelection(t *testing.T) {
	log := mustTestLogger(t)

	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "k")
	if _, err := NewFromEnv(log); err != nil {
		t.Fatalf("openai provider: %v", err)
	}

	t.Setenv("LLM_PROVIDER", "openrouter")
	t.Setenv("OPENROUTER_API_KEY", "k")
	t.Setenv("OPENROUTER_MODEL", "m")
	if _, err := NewFromEnv(log); err != nil {
		t.Fatalf("openrouter provider: %v", err)
	}

	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("OLLAMA_URL", "http://localhost:11434/v1")
	t.Setenv("OLLAMA_MODEL", "m")
	if _, err := NewFromEnv(log); err != nil {
		t.Fatalf("ollama provider: %v", err)
	}

	t.Setenv("LLM_PROVIDER", "banana")
	if _, err := NewFromEnv(log); err == nil {
		t.Fatalf("unknown provider: expected error")
	}
}

func TestNewFromEnvMissingKey(t *testing.T) {
	log := mustTestLogger(t)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewFromEnv(log); err == nil {
		t.Fatalf("expected error when OPENAI_API_KEY missing")
	}
}
