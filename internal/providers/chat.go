package providers

import (
	"context"
	"fmt"
	"net/http"
)

// The chat-completions wire dialect, spoken by OpenRouter and by
// Ollama / LM Studio alike.

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatUsage struct {
	TotalTokens int `json:"total_tokens"`
}

// completeChat runs one chat exchange against an OpenAI-style endpoint,
// retrying transient failures with back-off.
func completeChat(ctx context.Context, client *http.Client, url string, header map[string]string, model string, req CompletionRequest) (CompletionResponse, error) {
	body := chatRequest{
		Model:     model,
		MaxTokens: req.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = 4096
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}

	var out CompletionResponse
	err := retryWithBackoff(ctx, 3, func() error {
		var result chatResponse
		if err := postJSON(ctx, client, url, header, body, &result); err != nil {
			return err
		}
		if len(result.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}
		text := result.Choices[0].Message.Content
		if text == "" {
			return fmt.Errorf("empty text content in API response")
		}
		out = CompletionResponse{
			Content:    text,
			TokensUsed: result.Usage.TotalTokens,
		}
		return nil
	})
	return out, err
}
