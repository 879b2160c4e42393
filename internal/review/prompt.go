package review

import (
	"fmt"
	"strings"
)

// DefaultMaxDiffChars caps the patch text embedded in a user prompt.
// Longer patches are cut at the cap rather than rejected, so a task never
// exceeds provider limits.
const DefaultMaxDiffChars = 15000

const truncationNotice = "\n... [diff truncated at size limit; review the visible portion only]"

// BuildSystemPrompt renders the system prompt for one agent. The prompt
// pins the output to the four-section verdict format the extractor
// understands.
func BuildSystemPrompt(spec AgentSpec) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert code reviewer specializing in %s analysis.\n\n", spec.Name)
	b.WriteString("Your role is to perform deep, critical analysis of code changes in pull requests.\n\n")
	fmt.Fprintf(&b, "Focus Areas: %s\n\n", strings.Join(spec.FocusAreas, ", "))

	b.WriteString(`Analysis Methodology:
1. Initial Assessment: quickly scan the changes to understand scope and intent
2. Deep Dive: examine each significant change with critical thinking
3. Pattern Recognition: identify anti-patterns, best-practice violations, or improvements
4. Impact Analysis: consider broader implications (performance, security, maintainability)
5. Recommendations: provide specific, actionable feedback

Output Format:
Provide your analysis in the following structured format:

## Thinking Process
[Step-by-step reasoning about what you are analyzing and why]

## Issues Found
[List each issue as a bullet with a severity level: CRITICAL, HIGH, MEDIUM, LOW, or INFO]

## Recommendations
[Actionable suggestions for improvement]

## Positive Observations
[Good practices worth highlighting]

Be specific, reference line numbers or code patterns when possible, and explain the "why" behind each finding.`)

	return b.String()
}

// BuildUserPrompt renders the per-task user prompt: file path, PR
// context, custom instructions, and the (possibly truncated) patch.
func BuildUserPrompt(change FileChange, pr PullRequest, instructions string, maxDiffChars int) string {
	var b strings.Builder

	b.WriteString("Analyze the following code changes from a pull request.\n\n")
	fmt.Fprintf(&b, "File: %s\n\n", change.Path)

	if pr.Title != "" {
		fmt.Fprintf(&b, "PR Title: %s\n", pr.Title)
	}
	if pr.Description != "" {
		fmt.Fprintf(&b, "PR Description: %s\n", pr.Description)
	}
	if pr.Title != "" || pr.Description != "" {
		b.WriteString("\n")
	}

	if instructions == "" {
		instructions = "No specific instructions provided."
	}
	fmt.Fprintf(&b, "Custom Instructions:\n%s\n\n", instructions)

	b.WriteString("Code Diff:\n```diff\n")
	b.WriteString(TruncateDiff(change.Patch, maxDiffChars))
	b.WriteString("\n```\n")

	return b.String()
}

// TruncateDiff cuts a patch at max characters, keeping the head. The cut
// is announced in the remaining text so the model does not treat a
// half-open hunk as the whole change.
func TruncateDiff(diff string, max int) string {
	if max <= 0 {
		max = DefaultMaxDiffChars
	}
	if len(diff) <= max {
		return diff
	}
	return diff[:max] + truncationNotice
}
