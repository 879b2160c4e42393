package review

import "testing"

func TestClassify_HighestMatchWins(t *testing.T) {
	// Both a critical and a medium keyword: the critical one must win
	// regardless of position in the text.
	text := "You should fix this crash before merging"
	if got := Classify(text, Vocabulary{}); got != SeverityCritical {
		t.Errorf("Classify = %q, want %q", got, SeverityCritical)
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	if got := Classify("SQL INJECTION possible in query builder", Vocabulary{}); got != SeverityCritical {
		t.Errorf("Classify = %q, want %q", got, SeverityCritical)
	}
}

func TestClassify_NoMatch(t *testing.T) {
	if got := Classify("everything looks fine here", Vocabulary{}); got != SeverityInfo {
		t.Errorf("Classify = %q, want %q", got, SeverityInfo)
	}
}

func TestClassify_EachLevel(t *testing.T) {
	tests := []struct {
		text string
		want Severity
	}{
		{"this is an exploit vector", SeverityCritical},
		{"there is a memory leak in the loop", SeverityHigh},
		{"this approach is inefficient", SeverityMedium},
		{"naming could be clearer", SeverityLow},
		{"looks good", SeverityInfo},
	}
	for _, tt := range tests {
		if got := Classify(tt.text, Vocabulary{}); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestClassify_CustomVocabulary(t *testing.T) {
	vocab := Vocabulary{
		Critical: []string{"data loss"},
		High:     []string{"race"},
	}
	if got := Classify("possible race between writers", vocab); got != SeverityHigh {
		t.Errorf("Classify = %q, want %q", got, SeverityHigh)
	}
	// Custom vocabulary replaces the default table entirely.
	if got := Classify("this will crash", vocab); got != SeverityInfo {
		t.Errorf("Classify with custom vocab = %q, want %q", got, SeverityInfo)
	}
}

func TestMatchSeverityToken(t *testing.T) {
	tests := []struct {
		line  string
		want  Severity
		found bool
	}{
		{"- [HIGH] missing null check", SeverityHigh, true},
		{"- [high] missing null check", SeverityHigh, true},
		{"- CRITICAL: buffer overflow", SeverityCritical, true},
		{"- Medium priority: rework loop", SeverityMedium, true},
		{"1. LOW - rename variable", SeverityLow, true},
		{"- info only", SeverityInfo, true},
		{"- missing null check", "", false},
		// "HIGHER" must not match the HIGH token.
		{"- higher latency expected", "", false},
	}
	for _, tt := range tests {
		got, found := MatchSeverityToken(tt.line)
		if found != tt.found {
			t.Errorf("MatchSeverityToken(%q) found = %v, want %v", tt.line, found, tt.found)
			continue
		}
		if found && got != tt.want {
			t.Errorf("MatchSeverityToken(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestMatchSeverityToken_MostSevereWins(t *testing.T) {
	got, found := MatchSeverityToken("- [LOW] note: this could crash, CRITICAL in production")
	if !found {
		t.Fatal("expected a token match")
	}
	if got != SeverityCritical {
		t.Errorf("MatchSeverityToken = %q, want %q", got, SeverityCritical)
	}
}

func TestSeverityRank_TotalOrder(t *testing.T) {
	order := SeverityOrder()
	for i := 1; i < len(order); i++ {
		if SeverityRank(order[i-1]) <= SeverityRank(order[i]) {
			t.Errorf("rank(%s)=%d not greater than rank(%s)=%d",
				order[i-1], SeverityRank(order[i-1]), order[i], SeverityRank(order[i]))
		}
	}
	if SeverityRank(SeverityNone) != 0 {
		t.Errorf("rank(none) = %d, want 0", SeverityRank(SeverityNone))
	}
}
