package review

import (
	"fmt"
	"strings"
)

// Escalation thresholds for [Recommend]. Counts strictly above a
// threshold escalate the verdict.
const (
	highRequestChangesThreshold = 3
	mediumCommentThreshold      = 5
)

// Caps applied when rendering summary lists. Items beyond a cap are
// reported as a count, not dropped.
const (
	summaryMaxIssues          = 5
	summaryMaxRecommendations = 3
	summaryMaxPositives       = 5
)

// CountIssues tallies individual issues by severity across all results.
// Failed and clean results contribute nothing.
func CountIssues(results []AnalysisResult) SeverityCounts {
	var c SeverityCounts
	for _, r := range results {
		for _, issue := range r.Issues {
			switch issue.Severity {
			case SeverityCritical:
				c.Critical++
			case SeverityHigh:
				c.High++
			case SeverityMedium:
				c.Medium++
			case SeverityLow:
				c.Low++
			default:
				c.Info++
			}
		}
	}
	return c
}

// Recommend maps severity counts to the overall verdict.
func Recommend(c SeverityCounts) Recommendation {
	switch {
	case c.Critical > 0:
		return RecommendBlock
	case c.High > highRequestChangesThreshold:
		return RecommendRequestChanges
	case c.High > 0:
		return RecommendCommentRequired
	case c.Medium > mediumCommentThreshold:
		return RecommendCommentSuggested
	default:
		return RecommendApprove
	}
}

// Aggregate computes the severity tally, the overall recommendation,
// and the rendered summary for a completed result set.
func Aggregate(results []AnalysisResult, target Target, pr *PullRequest, instructions string) (SeverityCounts, Recommendation, string) {
	counts := CountIssues(results)
	return counts, Recommend(counts), Summarize(results, target, pr, instructions)
}

// Summarize renders the review summary document. The rendering is
// deterministic for a given result order: a header describing the
// target, findings grouped by file in first-appearance order, and a
// deduplicated positive-observations section. Capped lists always state
// how many items were omitted.
func Summarize(results []AnalysisResult, target Target, pr *PullRequest, instructions string) string {
	counts := CountIssues(results)

	var b strings.Builder
	b.WriteString("# Code Review Report\n\n")
	fmt.Fprintf(&b, "**Target**: %s\n", target.String())
	if pr != nil {
		fmt.Fprintf(&b, "**PR**: %s\n", pr.Title)
		fmt.Fprintf(&b, "**Author**: %s\n", pr.Author)
		fmt.Fprintf(&b, "**Branches**: %s ← %s\n", pr.BaseBranch, pr.HeadBranch)
		fmt.Fprintf(&b, "**Changes**: %d files, +%d/-%d\n", pr.ChangedFiles, pr.Additions, pr.Deletions)
	}
	fmt.Fprintf(&b, "**Recommendation**: %s\n\n", Recommend(counts))

	if instructions != "" {
		fmt.Fprintf(&b, "**Custom Review Instructions:**\n> %s\n\n",
			strings.ReplaceAll(instructions, "\n", "\n> "))
	}

	groups, order := groupByFile(results)
	if len(order) == 0 {
		b.WriteString("## All Clear\n\n")
		b.WriteString("All agents analyzed the changes and found no significant issues.\n\n")
	} else {
		b.WriteString("## Findings Overview\n\n")
		fmt.Fprintf(&b, "**Issues found**: %d across %d files\n\n", counts.Total(), len(order))
		writeSeverityRows(&b, counts)
		b.WriteString("\n")

		for _, path := range order {
			fmt.Fprintf(&b, "## File: `%s`\n\n", path)
			for _, r := range groups[path] {
				fmt.Fprintf(&b, "### %s - [%s]\n\n", agentLabel(r), strings.ToUpper(string(r.Severity)))
				writeIssueList(&b, r.Issues)
				writeCappedList(&b, "**Recommendations:**", r.Recommendations, summaryMaxRecommendations)
			}
		}
	}

	if positives := dedupePositives(results); len(positives) > 0 {
		writeCappedList(&b, "## Positive Observations", positives, summaryMaxPositives)
	}

	b.WriteString("---\n*Generated by quorum*\n")
	return b.String()
}

// groupByFile collects results with issues per file path, preserving the
// first-appearance order of paths in the result sequence.
func groupByFile(results []AnalysisResult) (map[string][]AnalysisResult, []string) {
	groups := make(map[string][]AnalysisResult)
	var order []string
	for _, r := range results {
		if !r.HasIssues() {
			continue
		}
		if _, ok := groups[r.Path]; !ok {
			order = append(order, r.Path)
		}
		groups[r.Path] = append(groups[r.Path], r)
	}
	return groups, order
}

func writeSeverityRows(b *strings.Builder, c SeverityCounts) {
	rows := []struct {
		label string
		n     int
	}{
		{"Critical", c.Critical},
		{"High", c.High},
		{"Medium", c.Medium},
		{"Low", c.Low},
		{"Info", c.Info},
	}
	for _, row := range rows {
		if row.n > 0 {
			fmt.Fprintf(b, "- %s: %d\n", row.label, row.n)
		}
	}
}

func writeIssueList(b *strings.Builder, issues []Issue) {
	if len(issues) == 0 {
		return
	}
	b.WriteString("**Issues:**\n\n")
	shown := issues
	if len(shown) > summaryMaxIssues {
		shown = shown[:summaryMaxIssues]
	}
	for _, issue := range shown {
		fmt.Fprintf(b, "- [%s] %s", strings.ToUpper(string(issue.Severity)), issue.Description)
		if issue.Line > 0 {
			fmt.Fprintf(b, " (line %d)", issue.Line)
		}
		b.WriteString("\n")
	}
	if rest := len(issues) - len(shown); rest > 0 {
		fmt.Fprintf(b, "- ...and %d more\n", rest)
	}
	b.WriteString("\n")
}

func writeCappedList(b *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	b.WriteString(heading + "\n\n")
	shown := items
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for _, item := range shown {
		fmt.Fprintf(b, "- %s\n", item)
	}
	if rest := len(items) - len(shown); rest > 0 {
		fmt.Fprintf(b, "- ...and %d more\n", rest)
	}
	b.WriteString("\n")
}

// dedupePositives merges positive observations across all results,
// dropping case-insensitive duplicates and keeping first-seen order.
func dedupePositives(results []AnalysisResult) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range results {
		for _, p := range r.Positives {
			trimmed := strings.TrimSpace(p)
			key := strings.ToLower(trimmed)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, trimmed)
		}
	}
	return out
}

func agentLabel(r AnalysisResult) string {
	if r.AgentName != "" {
		return r.AgentName
	}
	return r.Agent
}
