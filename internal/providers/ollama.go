package providers

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama implements the Completer interface for Ollama and LM Studio
// (OpenAI-compatible API).
type Ollama struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOllama creates a new Ollama provider. No API key is required by
// default; QUORUM_OLLAMA_API_KEY covers servers that want one (e.g.
// LM Studio).
func NewOllama(model string) (*Ollama, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = defaultOllamaURL
	}
	return &Ollama{
		apiKey:  os.Getenv("QUORUM_OLLAMA_API_KEY"),
		model:   model,
		baseURL: normalizeOllamaURL(host),
		client:  &http.Client{Timeout: 300 * time.Second},
	}, nil
}

// normalizeOllamaURL accepts a bare host, a /v1 prefix, or the full
// chat-completions path and returns the full endpoint URL.
func normalizeOllamaURL(host string) string {
	host = strings.TrimRight(host, "/")
	host = strings.TrimSuffix(host, "/v1/chat/completions")
	host = strings.TrimSuffix(host, "/v1")
	return host + "/v1/chat/completions"
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	header := map[string]string{}
	if o.apiKey != "" {
		header["Authorization"] = "Bearer " + o.apiKey
	}
	return completeChat(ctx, o.client, o.baseURL, header, o.model, req)
}
