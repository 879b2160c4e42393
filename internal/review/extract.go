package review

import (
	"strconv"
	"strings"
)

// The extractor parses an agent's free-text verdict into an
// AnalysisResult. The expected shape is a four-section document:
//
//	## Thinking Process
//	## Issues Found
//	## Recommendations
//	## Positive Observations
//
// Sections may appear in any order and any may be absent. Issue items are
// bullet or numbered list entries; an unmarked line following an item is
// continuation text for that item. Extraction is a pure function of its
// input and never fails: text with no recognizable structure yields an
// empty result, not an error.

// section is the extractor's state: which heading's body we are in.
type section int

const (
	sectionNone section = iota
	sectionThinking
	sectionIssues
	sectionRecommendations
	sectionPositives
)

// Extract parses raw agent output for one (agent, file) task using the
// default severity vocabulary.
func Extract(raw, agentID, path string) AnalysisResult {
	return ExtractWithVocabulary(raw, agentID, path, Vocabulary{})
}

// ExtractWithVocabulary parses raw agent output, classifying unstructured
// issue prose with the given vocabulary. A zero vocabulary means the
// default table.
func ExtractWithVocabulary(raw, agentID, path string, vocab Vocabulary) AnalysisResult {
	result := AnalysisResult{
		Agent:    agentID,
		Path:     path,
		Severity: SeverityNone,
		RawText:  raw,
	}

	state := sectionNone
	var thinking []string
	var issuesProse []string
	sawIssues := false

	for _, line := range strings.Split(raw, "\n") {
		if next, ok := matchHeading(line); ok {
			state = next
			if state == sectionIssues {
				sawIssues = true
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch state {
		case sectionThinking:
			thinking = append(thinking, trimmed)

		case sectionIssues:
			if item, ok := splitBullet(trimmed); ok {
				result.Issues = append(result.Issues, newIssue(item))
				continue
			}
			if n := len(result.Issues); n > 0 {
				appendIssueContinuation(&result.Issues[n-1], trimmed)
				continue
			}
			// Prose before (or without) any list item. Kept for the
			// unstructured-issues fallback below.
			issuesProse = append(issuesProse, trimmed)

		case sectionRecommendations:
			appendListItem(&result.Recommendations, trimmed)

		case sectionPositives:
			appendListItem(&result.Positives, trimmed)
		}
	}

	// Legacy fallback: an Issues section written as prose with no list
	// items becomes a single issue classified over the whole body, unless
	// the prose just says there is nothing to report.
	if len(result.Issues) == 0 && sawIssues {
		prose := strings.Join(issuesProse, " ")
		if !isNoIssuesText(prose) {
			result.Issues = append(result.Issues, Issue{
				Severity:    Classify(prose, vocab),
				Description: prose,
			})
		}
	}

	result.Thinking = strings.Join(thinking, "\n")
	for _, issue := range result.Issues {
		result.Severity = maxSeverity(result.Severity, issue.Severity)
	}
	return result
}

// matchHeading reports whether a line is one of the four section
// headings. Leading hash marks, bold markers, and a trailing colon are
// tolerated; the remaining text must be exactly the section name.
func matchHeading(line string) (section, bool) {
	t := strings.TrimSpace(line)
	if t == "" {
		return sectionNone, false
	}
	t = strings.TrimLeft(t, "#")
	t = strings.Trim(strings.TrimSpace(t), "*_")
	t = strings.TrimSuffix(strings.TrimSpace(t), ":")
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "thinking process":
		return sectionThinking, true
	case "issues found":
		return sectionIssues, true
	case "recommendations":
		return sectionRecommendations, true
	case "positive observations":
		return sectionPositives, true
	}
	return sectionNone, false
}

// splitBullet strips a list marker ("- ", "* ", "• ", "1. ", "1) ") and
// returns the item text. Reports false for unmarked lines.
func splitBullet(trimmed string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(trimmed, marker) {
			return strings.TrimSpace(trimmed[len(marker):]), true
		}
	}
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i > 0 && i+1 < len(trimmed) && (trimmed[i] == '.' || trimmed[i] == ')') && trimmed[i+1] == ' ' {
		return strings.TrimSpace(trimmed[i+2:]), true
	}
	return "", false
}

// newIssue builds an Issue from one list item. An explicit severity token
// on the line sets the severity (and is stripped when it is a leading
// marker); otherwise the severity defaults to medium. A leading
// "Line N:" reference populates the line number.
func newIssue(item string) Issue {
	sev, found := MatchSeverityToken(item)
	desc := item
	if found {
		desc = stripSeverityToken(desc, sev)
	} else {
		sev = SeverityMedium
	}
	line, desc := stripLineRef(desc)
	return Issue{Severity: sev, Description: desc, Line: line}
}

// appendIssueContinuation folds an unmarked line into the current issue:
// a "Fix:"/"Suggestion:" line becomes the suggested fix, anything else
// extends the description.
func appendIssueContinuation(issue *Issue, trimmed string) {
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{"fix:", "suggestion:", "suggested fix:"} {
		if strings.HasPrefix(lower, prefix) {
			text := strings.TrimSpace(trimmed[len(prefix):])
			if issue.Suggestion == "" {
				issue.Suggestion = text
			} else {
				issue.Suggestion += " " + text
			}
			return
		}
	}
	issue.Description += " " + trimmed
}

// appendListItem handles the plain bullet lists (recommendations and
// positive observations): markers start a new item, unmarked lines extend
// the previous item, and prose with no preceding item is dropped.
func appendListItem(items *[]string, trimmed string) {
	if item, ok := splitBullet(trimmed); ok {
		*items = append(*items, item)
		return
	}
	if n := len(*items); n > 0 {
		(*items)[n-1] += " " + trimmed
	}
}

// stripSeverityToken removes a leading severity marker ("[HIGH]",
// "(HIGH)", "HIGH:", "HIGH -") from an item. A token elsewhere in the
// text is left in place.
func stripSeverityToken(item string, sev Severity) string {
	upper := strings.ToUpper(string(sev))
	for _, form := range []string{"[" + upper + "]", "(" + upper + ")", upper + ":", upper + " -"} {
		if strings.HasPrefix(strings.ToUpper(item), form) {
			rest := strings.TrimSpace(item[len(form):])
			rest = strings.TrimLeft(rest, "-:")
			return strings.TrimSpace(rest)
		}
	}
	return item
}

// stripLineRef parses a leading "Line N:" reference. Returns 0 and the
// unchanged text when no reference is present or nothing follows it.
func stripLineRef(text string) (int, string) {
	const prefix = "line "
	if len(text) <= len(prefix) || !strings.EqualFold(text[:len(prefix)], prefix) {
		return 0, text
	}
	rest := text[len(prefix):]
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, text
	}
	n, err := strconv.Atoi(rest[:i])
	if err != nil {
		return 0, text
	}
	tail := strings.TrimSpace(rest[i:])
	tail = strings.TrimSpace(strings.TrimLeft(tail, ":-"))
	if tail == "" {
		return n, text
	}
	return n, tail
}

// isNoIssuesText recognizes prose that reports the absence of problems,
// so the fallback never fabricates an issue out of "No issues found."
func isNoIssuesText(prose string) bool {
	t := strings.ToLower(strings.TrimSpace(prose))
	if t == "" || t == "none" || t == "none." || t == "n/a" {
		return true
	}
	for _, phrase := range []string{"no issues", "no problems", "none found", "looks good", "lgtm"} {
		if strings.Contains(t, phrase) {
			return true
		}
	}
	return false
}
