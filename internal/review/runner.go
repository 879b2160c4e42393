package review

import (
	"context"
	"strings"

	"github.com/dshills/quorum/internal/cache"
	"github.com/dshills/quorum/internal/providers"
	"github.com/dshills/quorum/internal/redact"
)

// RunnerOptions configures task execution. The zero value is usable:
// default diff cap, default token budget, no cache, no redaction.
type RunnerOptions struct {
	Model         string
	MaxDiffChars  int
	MaxTokens     int
	Temperature   float64
	RedactSecrets bool
	RedactPaths   []string
	Cache         *cache.Cache
}

// Runner executes one (agent, file) analysis task against a completion
// provider and parses the verdict.
type Runner struct {
	completer providers.Completer
	opts      RunnerOptions
}

// NewRunner creates a Runner over the given provider.
func NewRunner(completer providers.Completer, opts RunnerOptions) *Runner {
	if opts.MaxDiffChars <= 0 {
		opts.MaxDiffChars = DefaultMaxDiffChars
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	return &Runner{completer: completer, opts: opts}
}

// Run executes one analysis task. It always returns a result: a provider
// failure (timeout, transport, API error) is captured in the result's Err
// field and isolated to this task, never raised to the caller.
func (r *Runner) Run(ctx context.Context, spec AgentSpec, change FileChange, pr PullRequest, instructions string) AnalysisResult {
	if strings.TrimSpace(change.Patch) == "" {
		return AnalysisResult{Agent: spec.ID, AgentName: spec.Name, Path: change.Path, Severity: SeverityNone}
	}

	patch := change.Patch
	if r.opts.RedactSecrets {
		patch = redact.Patch(patch, change.Path, r.opts.RedactPaths)
	}

	var key string
	if r.opts.Cache != nil && r.opts.Cache.Enabled() {
		key = cache.BuildKey(r.completer.Name(), r.opts.Model, spec.ID, change.Path, patch+"\n"+instructions)
		if raw, ok := r.opts.Cache.Get(key); ok {
			result := r.extract(raw, spec, change.Path)
			result.Cached = true
			return result
		}
	}

	prompted := change
	prompted.Patch = patch

	req := providers.CompletionRequest{
		System:      BuildSystemPrompt(spec),
		User:        BuildUserPrompt(prompted, pr, instructions, r.opts.MaxDiffChars),
		MaxTokens:   r.opts.MaxTokens,
		Temperature: r.opts.Temperature,
	}

	resp, err := r.completer.Complete(ctx, req)
	if err != nil {
		return AnalysisResult{
			Agent:     spec.ID,
			AgentName: spec.Name,
			Path:      change.Path,
			Severity:  SeverityNone,
			Err:       err.Error(),
		}
	}

	if key != "" {
		// Best effort: a cache write failure never fails the task.
		_ = r.opts.Cache.Put(key, resp.Content)
	}

	return r.extract(resp.Content, spec, change.Path)
}

func (r *Runner) extract(raw string, spec AgentSpec, path string) AnalysisResult {
	var result AnalysisResult
	if spec.Vocabulary != nil {
		result = ExtractWithVocabulary(raw, spec.ID, path, *spec.Vocabulary)
	} else {
		result = Extract(raw, spec.ID, path)
	}
	result.AgentName = spec.Name
	return result
}
