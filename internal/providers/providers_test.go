package providers

import (
	"context"
	"testing"
)

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New("unknown", "model")
	if err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestNew_EmptyDefaultsToOpenRouter(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")
	c, err := New("", "anthropic/claude-sonnet-4")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if c.Name() != "openrouter" {
		t.Errorf("Name() = %q, want %q", c.Name(), "openrouter")
	}
}

func TestNew_OpenRouterMissingKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	_, err := New("openrouter", "anthropic/claude-sonnet-4")
	if err == nil {
		t.Fatal("Expected error for missing OPENROUTER_API_KEY")
	}
	if err.Error() != "OPENROUTER_API_KEY environment variable is not set" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestNew_OllamaAliases(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://localhost:11434")

	for _, name := range []string{"ollama", "lmstudio"} {
		c, err := New(name, "llama3")
		if err != nil {
			t.Fatalf("New(%q) error: %v", name, err)
		}
		if c.Name() != "ollama" {
			t.Errorf("New(%q).Name() = %q, want %q", name, c.Name(), "ollama")
		}
	}
}

func TestProviderNames(t *testing.T) {
	if (&Anthropic{}).Name() != "anthropic" {
		t.Error("Anthropic.Name() wrong")
	}
	if (&OpenRouter{}).Name() != "openrouter" {
		t.Error("OpenRouter.Name() wrong")
	}
	if (&Ollama{}).Name() != "ollama" {
		t.Error("Ollama.Name() wrong")
	}
}

func TestIsAuthError(t *testing.T) {
	if IsAuthError(nil) {
		t.Error("nil should not be auth error")
	}
	if IsAuthError(&rateLimitError{}) {
		t.Error("rateLimitError should not be auth error")
	}
	if !IsAuthError(&authError{message: "test"}) {
		t.Error("authError should be auth error")
	}
}

func TestIsRetryable(t *testing.T) {
	if isRetryable(&authError{message: "test"}) {
		t.Error("authError should not be retryable")
	}
	if !isRetryable(&rateLimitError{}) {
		t.Error("rateLimitError should be retryable")
	}
	if !isRetryable(&serverError{statusCode: 500}) {
		t.Error("serverError should be retryable")
	}
	if isRetryable(context.Canceled) {
		t.Error("context.Canceled should not be retryable")
	}
}

func TestErrorMessages(t *testing.T) {
	rl := &rateLimitError{}
	if rl.Error() != "rate limited" {
		t.Errorf("rateLimitError.Error() = %q", rl.Error())
	}

	se := &serverError{statusCode: 500, body: "oops"}
	if se.Error() != "server error: oops" {
		t.Errorf("serverError.Error() = %q", se.Error())
	}

	ae := &authError{message: "bad key"}
	if ae.Error() != "authentication error: bad key" {
		t.Errorf("authError.Error() = %q", ae.Error())
	}
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := retryWithBackoff(ctx, 3, func() error {
		return &rateLimitError{}
	})
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}

func TestRetryWithBackoff_NonRetryable(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(context.Background(), 3, func() error {
		attempts++
		return &authError{message: "bad"}
	})
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for auth error, got %d", attempts)
	}
	if !IsAuthError(err) {
		t.Errorf("Expected auth error, got: %v", err)
	}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	err := retryWithBackoff(context.Background(), 3, func() error {
		return nil
	})
	if err != nil {
		t.Errorf("Expected nil error, got: %v", err)
	}
}
