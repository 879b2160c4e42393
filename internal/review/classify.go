package review

import "strings"

// severityOrder is the single ranked order shared by the extractor, the
// classifier, and the aggregator. Scans walk it highest-first so that the
// most severe match always wins when several keywords appear in one text.
var severityOrder = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInfo,
}

// SeverityOrder returns the ranked severities, most severe first.
func SeverityOrder() []Severity {
	out := make([]Severity, len(severityOrder))
	copy(out, severityOrder)
	return out
}

// Vocabulary maps each severity to the keywords that imply it when found
// in free text. Keywords are matched case-insensitively as substrings.
type Vocabulary struct {
	Critical []string
	High     []string
	Medium   []string
	Low      []string
}

func (v Vocabulary) keywords(s Severity) []string {
	switch s {
	case SeverityCritical:
		return v.Critical
	case SeverityHigh:
		return v.High
	case SeverityMedium:
		return v.Medium
	case SeverityLow:
		return v.Low
	default:
		return nil
	}
}

// DefaultVocabulary is the unified keyword table. Agents may override it
// through their AgentSpec.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Critical: []string{"crash", "exploit", "vulnerability", "sql injection", "xss", "authentication bypass"},
		High:     []string{"bug", "error", "incorrect", "security risk", "memory leak"},
		Medium:   []string{"inefficient", "suboptimal", "should", "consider"},
		Low:      []string{"style", "naming", "comment", "documentation"},
	}
}

// Classify scans an entire text blob for severity keywords, most severe
// first, and returns the first severity with a match. No match yields
// SeverityInfo. Pass a zero Vocabulary to use the default table.
func Classify(text string, vocab Vocabulary) Severity {
	if isZeroVocabulary(vocab) {
		vocab = DefaultVocabulary()
	}
	lower := strings.ToLower(text)
	for _, sev := range severityOrder {
		for _, kw := range vocab.keywords(sev) {
			if strings.Contains(lower, kw) {
				return sev
			}
		}
	}
	return SeverityInfo
}

func isZeroVocabulary(v Vocabulary) bool {
	return len(v.Critical) == 0 && len(v.High) == 0 && len(v.Medium) == 0 && len(v.Low) == 0
}

// MatchSeverityToken finds an explicit severity token (CRITICAL, HIGH,
// MEDIUM, LOW, INFO) in an issue line, matched case-insensitively as a
// whole word. When several tokens appear the most severe wins. Returns
// false when no token is present.
func MatchSeverityToken(line string) (Severity, bool) {
	upper := strings.ToUpper(line)
	for _, sev := range severityOrder {
		if containsWord(upper, strings.ToUpper(string(sev))) {
			return sev, true
		}
	}
	return "", false
}

// containsWord reports whether word occurs in s bounded by non-letter
// characters, so "HIGH" matches "[HIGH]" and "HIGH:" but not "HIGHER".
func containsWord(s, word string) bool {
	for start := 0; ; {
		idx := strings.Index(s[start:], word)
		if idx < 0 {
			return false
		}
		idx += start
		before := idx == 0 || !isLetter(s[idx-1])
		afterIdx := idx + len(word)
		after := afterIdx >= len(s) || !isLetter(s[afterIdx])
		if before && after {
			return true
		}
		start = idx + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// maxSeverity returns the more severe of two severities.
func maxSeverity(a, b Severity) Severity {
	if SeverityRank(b) > SeverityRank(a) {
		return b
	}
	return a
}
