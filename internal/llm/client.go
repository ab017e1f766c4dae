package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yungbote/timeless-backend/internal/pkg/logger"
	"github.com/yungbote/timeless-backend/internal/platform/envutil"
)

// Client is the abstract text-generation capability. The orchestrator is
// agnostic to which provider backs it.
type Client interface {
	Complete(ctx context.Context, system string, user string) (string, error)
}

// NewFromEnv selects the provider from LLM_PROVIDER. All three providers
// speak the OpenAI chat-completions dialect; only base url, key and model
// differ (openrouter proxies it, ollama emulates it).
func NewFromEnv(log *logger.Logger) (Client, error) {
	provider := strings.ToLower(envutil.Str("LLM_PROVIDER", "openai"))

	timeout := time.Duration(envutil.Int("LLM_TIMEOUT_SECONDS", 30)) * time.Second
	maxRetries := envutil.Int("LLM_MAX_RETRIES", 2)

	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("missing OPENAI_API_KEY")
		}
		return newChatClient(log, chatClientConfig{
			Provider:   provider,
			BaseURL:    envutil.Str("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:     apiKey,
			Model:      envutil.Str("OPENAI_MODEL", "gpt-4o-mini"),
			Timeout:    timeout,
			MaxRetries: maxRetries,
		}), nil
	case "openrouter":
		apiKey := os.Getenv("OPENROUTER_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("missing OPENROUTER_API_KEY")
		}
		model := os.Getenv("OPENROUTER_MODEL")
		if model == "" {
			return nil, fmt.Errorf("missing OPENROUTER_MODEL")
		}
		return newChatClient(log, chatClientConfig{
			Provider:   provider,
			BaseURL:    "https://openrouter.ai/api/v1",
			APIKey:     apiKey,
			Model:      model,
			Timeout:    timeout,
			MaxRetries: maxRetries,
		}), nil
	case "ollama":
		baseURL := os.Getenv("OLLAMA_URL")
		if baseURL == "" {
			return nil, fmt.Errorf("missing OLLAMA_URL")
		}
		model := os.Getenv("OLLAMA_MODEL")
		if model == "" {
			return nil, fmt.Errorf("missing OLLAMA_MODEL")
		}
		return newChatClient(log, chatClientConfig{
			Provider: provider,
			BaseURL:  strings.TrimRight(baseURL, "/"),
			// The endpoint requires a key even though ollama ignores it.
			APIKey:     "ollama",
			Model:      model,
			Timeout:    timeout,
			MaxRetries: maxRetries,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", provider)
	}
}
