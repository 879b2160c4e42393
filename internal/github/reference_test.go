package github

import (
	"errors"
	"strings"
	"testing"

	"github.com/dshills/quorum/internal/review"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  review.Target
	}{
		{
			name:  "full URL",
			input: "https://github.com/a/b/pull/42",
			want:  review.Target{Owner: "a", Repo: "b", Number: 42},
		},
		{
			name:  "short slash form",
			input: "a/b/42",
			want:  review.Target{Owner: "a", Repo: "b", Number: 42},
		},
		{
			name:  "short hash form",
			input: "a/b#42",
			want:  review.Target{Owner: "a", Repo: "b", Number: 42},
		},
		{
			name:  "trailing slash",
			input: "https://github.com/a/b/pull/42/",
			want:  review.Target{Owner: "a", Repo: "b", Number: 42},
		},
		{
			name:  "fragment",
			input: "https://github.com/a/b/pull/42#issuecomment-123",
			want:  review.Target{Owner: "a", Repo: "b", Number: 42},
		},
		{
			name:  "query",
			input: "https://github.com/a/b/pull/42?w=1",
			want:  review.Target{Owner: "a", Repo: "b", Number: 42},
		},
		{
			name:  "plain http",
			input: "http://github.com/a/b/pull/42",
			want:  review.Target{Owner: "a", Repo: "b", Number: 42},
		},
		{
			name:  "enterprise host",
			input: "https://github.example.com/platform/api-gateway/pull/8",
			want:  review.Target{Owner: "platform", Repo: "api-gateway", Number: 8},
		},
		{
			name:  "surrounding whitespace",
			input: "  a/b/42\n",
			want:  review.Target{Owner: "a", Repo: "b", Number: 42},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReference(tt.input)
			if err != nil {
				t.Fatalf("ParseReference(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseReference(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseReference_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "random text", input: "please review this"},
		{name: "missing number", input: "a/b"},
		{name: "non-numeric", input: "a/b#soon"},
		{name: "issue URL", input: "https://github.com/a/b/issues/42"},
		{name: "pr number zero", input: "a/b/0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReference(tt.input)
			if err == nil {
				t.Fatalf("ParseReference(%q) succeeded, want error", tt.input)
			}
			var invalid *InvalidReferenceError
			if !errors.As(err, &invalid) {
				t.Errorf("error type = %T, want *InvalidReferenceError", err)
			}
		})
	}
}

func TestParseReference_BareNumberGuidance(t *testing.T) {
	_, err := ParseReference("42")
	if err == nil {
		t.Fatal("Expected error for bare number")
	}

	var invalid *InvalidReferenceError
	if !errors.As(err, &invalid) {
		t.Fatalf("error type = %T, want *InvalidReferenceError", err)
	}
	if invalid.Input != "42" {
		t.Errorf("Input = %q, want %q", invalid.Input, "42")
	}
	// The message must tell the caller how to supply owner/repo.
	if !strings.Contains(err.Error(), "owner/repo/42") {
		t.Errorf("error %q should suggest the owner/repo/42 form", err.Error())
	}
	if !strings.Contains(err.Error(), "https://github.com/owner/repo/pull/42") {
		t.Errorf("error %q should suggest the full URL form", err.Error())
	}
}
