package providers

import (
	"context"
	"time"
)

type rateLimitError struct{}

func (e *rateLimitError) Error() string { return "rate limited" }

type serverError struct {
	statusCode int
	body       string
}

func (e *serverError) Error() string { return "server error: " + e.body }

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

// IsAuthError reports whether err is an authentication failure. The CLI
// maps these to a dedicated exit code; nothing retries them.
func IsAuthError(err error) bool {
	_, ok := err.(*authError)
	return ok
}

// isRetryable reports whether a failed attempt may succeed on repeat.
// Rate limits and 5xx responses qualify; auth failures and malformed
// responses do not.
func isRetryable(err error) bool {
	switch err.(type) {
	case *rateLimitError, *serverError:
		return true
	}
	return false
}

// retryWithBackoff runs fn up to maxRetries+1 times, sleeping 1s, 2s,
// 4s, ... between retryable failures. The sleep is cut short when ctx
// is cancelled.
func retryWithBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !isRetryable(err) || attempt == maxRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(1<<uint(attempt)) * time.Second):
		}
	}
}
