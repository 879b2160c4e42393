package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenRouter_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Missing or wrong Authorization header")
		}
		if r.Header.Get("X-Title") != "quorum" {
			t.Error("Missing X-Title header")
		}

		var body chatRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" || body.Messages[1].Role != "user" {
			t.Errorf("Messages = %+v, want system then user", body.Messages)
		}

		resp := chatResponse{
			Choices: []chatChoice{
				{Message: chatMessage{Role: "assistant", Content: "## Issues Found\n- none"}},
			},
			Usage: chatUsage{TotalTokens: 50},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	o := &OpenRouter{
		apiKey:  "test-key",
		model:   "anthropic/claude-sonnet-4",
		baseURL: server.URL,
		client:  server.Client(),
	}

	resp, err := o.Complete(context.Background(), CompletionRequest{
		System:    "test",
		User:      "test",
		MaxTokens: 10,
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if resp.Content != "## Issues Found\n- none" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.TokensUsed != 50 {
		t.Errorf("TokensUsed = %d, want 50", resp.TokensUsed)
	}
}

func TestOpenRouter_RateLimit(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(429)
			w.Write([]byte(`{"error":"rate limited"}`))
			return
		}
		resp := chatResponse{
			Choices: []chatChoice{
				{Message: chatMessage{Role: "assistant", Content: "ok"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	o := &OpenRouter{
		apiKey:  "test-key",
		model:   "anthropic/claude-sonnet-4",
		baseURL: server.URL,
		client:  server.Client(),
	}

	resp, err := o.Complete(context.Background(), CompletionRequest{
		System: "test",
		User:   "test",
	})
	if err != nil {
		t.Fatalf("Complete error after retries: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q, want %q", resp.Content, "ok")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts (2 retries), got %d", attempts)
	}
}

func TestOpenRouter_ServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 1 {
			w.WriteHeader(503)
			w.Write([]byte(`{"error":"service unavailable"}`))
			return
		}
		resp := chatResponse{
			Choices: []chatChoice{
				{Message: chatMessage{Role: "assistant", Content: "ok"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	o := &OpenRouter{
		apiKey:  "test-key",
		model:   "anthropic/claude-sonnet-4",
		baseURL: server.URL,
		client:  server.Client(),
	}

	resp, err := o.Complete(context.Background(), CompletionRequest{
		System: "test",
		User:   "test",
	})
	if err != nil {
		t.Fatalf("Complete should succeed after retry: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q, want %q", resp.Content, "ok")
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestOpenRouter_AuthError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(401)
		w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer server.Close()

	o := &OpenRouter{
		apiKey:  "bad-key",
		model:   "anthropic/claude-sonnet-4",
		baseURL: server.URL,
		client:  server.Client(),
	}

	_, err := o.Complete(context.Background(), CompletionRequest{
		System: "test",
		User:   "test",
	})
	if err == nil {
		t.Fatal("Expected auth error")
	}
	if !IsAuthError(err) {
		t.Errorf("Expected auth error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Auth errors must not be retried, got %d attempts", attempts)
	}
}

func TestOpenRouter_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{Choices: []chatChoice{}})
	}))
	defer server.Close()

	o := &OpenRouter{
		apiKey:  "test-key",
		model:   "anthropic/claude-sonnet-4",
		baseURL: server.URL,
		client:  server.Client(),
	}

	_, err := o.Complete(context.Background(), CompletionRequest{
		System: "test",
		User:   "test",
	})
	if err == nil {
		t.Error("Expected error for no choices")
	}
}

func TestOpenRouter_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatResponse{
			Choices: []chatChoice{
				{Message: chatMessage{Role: "assistant", Content: ""}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	o := &OpenRouter{
		apiKey:  "test-key",
		model:   "anthropic/claude-sonnet-4",
		baseURL: server.URL,
		client:  server.Client(),
	}

	_, err := o.Complete(context.Background(), CompletionRequest{
		System: "test",
		User:   "test",
	})
	if err == nil {
		t.Error("Expected error for empty content")
	}
}

func TestOpenRouter_DefaultMaxTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.MaxTokens != 4096 {
			t.Errorf("Default MaxTokens = %d, want 4096", body.MaxTokens)
		}
		resp := chatResponse{
			Choices: []chatChoice{
				{Message: chatMessage{Role: "assistant", Content: "ok"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	o := &OpenRouter{
		apiKey:  "test-key",
		model:   "anthropic/claude-sonnet-4",
		baseURL: server.URL,
		client:  server.Client(),
	}

	if _, err := o.Complete(context.Background(), CompletionRequest{System: "test", User: "test"}); err != nil {
		t.Fatalf("Complete error: %v", err)
	}
}
