package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// postJSON sends one JSON request and decodes a 200 response into out.
// Non-200 statuses map onto the retry taxonomy: 429 is a rate limit,
// 401/403 an auth failure, 5xx a server error. Anything else is a plain
// error carrying the response body.
func postJSON(ctx context.Context, client *http.Client, url string, header map[string]string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := statusError(resp.StatusCode, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func statusError(code int, body []byte) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusTooManyRequests:
		return &rateLimitError{}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &authError{message: string(body)}
	case code >= 500:
		return &serverError{statusCode: code, body: string(body)}
	default:
		return fmt.Errorf("API error (status %d): %s", code, string(body))
	}
}
