package providers

import (
	"context"
	"fmt"
	"os"
)

// CompletionRequest contains the prompts sent to a model for one analysis
// task.
type CompletionRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// CompletionResponse contains the raw response from a model.
type CompletionResponse struct {
	Content    string
	TokensUsed int
}

// Completer is the provider abstraction interface.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Name() string
}

// New creates a provider by name. An empty name selects OpenRouter.
func New(provider, model string) (Completer, error) {
	switch provider {
	case "", "openrouter":
		return NewOpenRouter(model)
	case "anthropic":
		return NewAnthropic(model)
	case "ollama", "lmstudio":
		return NewOllama(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// requireEnv fetches a mandatory environment variable, typically an API
// key. The hosted providers fail construction without theirs.
func requireEnv(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("%s environment variable is not set", name)
	}
	return v, nil
}
