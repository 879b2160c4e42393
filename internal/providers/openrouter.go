package providers

import (
	"context"
	"net/http"
	"os"
	"time"
)

const defaultOpenRouterURL = "https://openrouter.ai/api/v1/chat/completions"

// OpenRouter implements the Completer interface for OpenRouter, which
// fronts many hosted models behind one OpenAI-style endpoint. Model names
// are namespaced, e.g. "anthropic/claude-sonnet-4" or
// "google/gemini-2.5-flash".
type OpenRouter struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenRouter returns a provider backed by OpenRouter. OPENROUTER_API_KEY
// must be set; QUORUM_OPENROUTER_BASE_URL overrides the endpoint, which
// tests use to point at a local fake.
func NewOpenRouter(model string) (*OpenRouter, error) {
	key, err := requireEnv("OPENROUTER_API_KEY")
	if err != nil {
		return nil, err
	}
	baseURL := os.Getenv("QUORUM_OPENROUTER_BASE_URL")
	if baseURL == "" {
		baseURL = defaultOpenRouterURL
	}
	return &OpenRouter{
		apiKey:  key,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (o *OpenRouter) Name() string { return "openrouter" }

func (o *OpenRouter) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	header := map[string]string{
		"Authorization": "Bearer " + o.apiKey,
		"HTTP-Referer":  "https://github.com/dshills/quorum",
		"X-Title":       "quorum",
	}
	return completeChat(ctx, o.client, o.baseURL, header, o.model, req)
}
