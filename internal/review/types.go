package review

import (
	"fmt"
	"strings"
)

// Severity is the ranked classification attached to issues and results.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
	// SeverityNone marks a result with no issues. It never appears on an
	// individual Issue.
	SeverityNone Severity = "none"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(Severity(threshold))
}

// Target identifies what is being reviewed. Manual targets carry no
// repository coordinates and describe a raw or locally produced diff.
type Target struct {
	Owner  string `json:"owner,omitempty"`
	Repo   string `json:"repo,omitempty"`
	Number int    `json:"number,omitempty"`
	Manual bool   `json:"manual,omitempty"`
	// Mode records how a manual change set was produced (diff, staged,
	// unstaged, commit, range). Empty for pull-request targets.
	Mode string `json:"mode,omitempty"`
}

// ManualTarget returns a Target for a change set with no repository.
func ManualTarget(mode string) Target {
	return Target{Manual: true, Mode: mode}
}

func (t Target) String() string {
	if t.Manual {
		if t.Mode != "" {
			return "manual (" + t.Mode + ")"
		}
		return "manual"
	}
	return fmt.Sprintf("%s/%s#%d", t.Owner, t.Repo, t.Number)
}

// FileChange is one file's diff within a change set. Patch may be empty
// for binary or oversized files; such files are excluded by the skip
// policy before any agent sees them.
type FileChange struct {
	Path      string `json:"path"`
	Status    string `json:"status"`
	Patch     string `json:"patch,omitempty"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// PullRequest is the context fetched for a pull-request target.
type PullRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Author       string `json:"author"`
	BaseBranch   string `json:"baseBranch"`
	HeadBranch   string `json:"headBranch"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
	ChangedFiles int    `json:"changedFiles"`
}

// Issue is one discrete problem found in one file by one agent.
// Issues are created during extraction and immutable afterward.
type Issue struct {
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Line        int      `json:"line,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

// AnalysisResult is the structured output of one (agent, file) task.
//
// Severity is set only at construction: the extractor assigns the highest
// severity among Issues, and the runner's failure path assigns
// SeverityNone. Severity == SeverityNone exactly when Issues is empty.
type AnalysisResult struct {
	Agent string `json:"agent"`
	// AgentName is the display name of the agent, used in rendered
	// summaries. Agent remains the stable machine id.
	AgentName       string   `json:"agentName,omitempty"`
	Path            string   `json:"path"`
	Severity        Severity `json:"severity"`
	Issues          []Issue  `json:"issues,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	Positives       []string `json:"positives,omitempty"`
	Thinking        string   `json:"thinking,omitempty"`
	RawText         string   `json:"rawText,omitempty"`
	// Err carries the text of an isolated task failure. A result with a
	// non-empty Err never has issues.
	Err string `json:"error,omitempty"`
	// Cached marks a verdict served from the local cache.
	Cached bool `json:"cached,omitempty"`
}

// HasIssues reports whether the result contains any issues.
func (r AnalysisResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// Failed reports whether the underlying task call failed.
func (r AnalysisResult) Failed() bool {
	return r.Err != ""
}

// AgentSpec is the static configuration for one analysis role.
type AgentSpec struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	FocusAreas []string `json:"focusAreas"`
	// Vocabulary overrides the shared keyword-to-severity table for this
	// agent. Nil means the default vocabulary.
	Vocabulary *Vocabulary `json:"-"`
}

// Recommendation is the overall verdict computed from issue counts.
type Recommendation string

const (
	RecommendBlock            Recommendation = "block"
	RecommendRequestChanges   Recommendation = "request changes"
	RecommendCommentRequired  Recommendation = "comment required"
	RecommendCommentSuggested Recommendation = "comment suggested"
	RecommendApprove          Recommendation = "approve"
)

// SeverityCounts tallies issues (not results) by severity.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

// Total returns the number of issues counted.
func (c SeverityCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low + c.Info
}

// Run status values for the terminal report.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Timing contains run phase durations in milliseconds.
type Timing struct {
	FetchMs int64 `json:"fetchMs"`
	LLMMs   int64 `json:"llmMs"`
	TotalMs int64 `json:"totalMs"`
}

// Report is the terminal artifact of one review run. It is created once
// and never mutated after being returned.
type Report struct {
	Tool    string `json:"tool"`
	Version string `json:"version"`
	RunID   string `json:"runId"`

	Target Target       `json:"target"`
	PR     *PullRequest `json:"pr,omitempty"`

	// FilesReviewed counts files that passed the skip policy.
	// TotalFindings counts results with issues, not individual issues.
	FilesReviewed int `json:"filesReviewed"`
	TotalFindings int `json:"totalFindings"`

	Results        []AnalysisResult `json:"results"`
	Counts         SeverityCounts   `json:"counts"`
	Recommendation Recommendation   `json:"recommendation"`
	Summary        string           `json:"summary"`

	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	// PublishError records a best-effort posting failure. It never flips
	// Status away from success.
	PublishError string `json:"publishError,omitempty"`
	CommentID    int64  `json:"commentId,omitempty"`

	Cancelled bool   `json:"cancelled,omitempty"`
	Timing    Timing `json:"timing"`
}

// HighestSeverity returns the most severe issue severity present across
// results, or SeverityNone when no result has issues.
func HighestSeverity(results []AnalysisResult) Severity {
	highest := SeverityNone
	for _, r := range results {
		if SeverityRank(r.Severity) > SeverityRank(highest) {
			highest = r.Severity
		}
	}
	return highest
}

// CountFindings returns the number of results with at least one issue.
func CountFindings(results []AnalysisResult) int {
	n := 0
	for _, r := range results {
		if r.HasIssues() {
			n++
		}
	}
	return n
}

// ParseAgentList splits a comma-separated agent id list, trimming blanks.
func ParseAgentList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
