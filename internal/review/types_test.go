package review

import (
	"reflect"
	"testing"
)

func TestSeverityRank(t *testing.T) {
	tests := []struct {
		severity Severity
		want     int
	}{
		{SeverityCritical, 5},
		{SeverityHigh, 4},
		{SeverityMedium, 3},
		{SeverityLow, 2},
		{SeverityInfo, 1},
		{SeverityNone, 0},
		{Severity("unknown"), 0},
	}
	for _, tt := range tests {
		got := SeverityRank(tt.severity)
		if got != tt.want {
			t.Errorf("SeverityRank(%q) = %d, want %d", tt.severity, got, tt.want)
		}
	}
}

func TestMeetsThreshold(t *testing.T) {
	tests := []struct {
		severity  Severity
		threshold string
		want      bool
	}{
		{SeverityCritical, "high", true},
		{SeverityCritical, "", false},
		{SeverityHigh, "none", false},
		{SeverityHigh, "", false},
		{SeverityHigh, "high", true},
		{SeverityHigh, "medium", true},
		{SeverityHigh, "critical", false},
		{SeverityMedium, "high", false},
		{SeverityMedium, "medium", true},
		{SeverityLow, "medium", false},
		{SeverityLow, "low", true},
		{SeverityLow, "none", false},
		{SeverityInfo, "low", false},
		{SeverityInfo, "info", true},
	}
	for _, tt := range tests {
		got := MeetsThreshold(tt.severity, tt.threshold)
		if got != tt.want {
			t.Errorf("MeetsThreshold(%q, %q) = %v, want %v", tt.severity, tt.threshold, got, tt.want)
		}
	}
}

func TestTargetString(t *testing.T) {
	tests := []struct {
		name   string
		target Target
		want   string
	}{
		{"pull request", Target{Owner: "octo", Repo: "widgets", Number: 42}, "octo/widgets#42"},
		{"manual with mode", ManualTarget("staged"), "manual (staged)"},
		{"manual without mode", Target{Manual: true}, "manual"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.target.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHighestSeverity(t *testing.T) {
	results := []AnalysisResult{
		{Severity: SeverityLow, Issues: []Issue{{Severity: SeverityLow, Description: "a"}}},
		{Severity: SeverityHigh, Issues: []Issue{{Severity: SeverityHigh, Description: "b"}}},
		{Severity: SeverityNone},
	}
	if got := HighestSeverity(results); got != SeverityHigh {
		t.Errorf("HighestSeverity = %q, want %q", got, SeverityHigh)
	}
	if got := HighestSeverity(nil); got != SeverityNone {
		t.Errorf("HighestSeverity(nil) = %q, want %q", got, SeverityNone)
	}
}

func TestCountFindings(t *testing.T) {
	results := []AnalysisResult{
		{Severity: SeverityHigh, Issues: []Issue{{Severity: SeverityHigh, Description: "a"}, {Severity: SeverityLow, Description: "b"}}},
		{Severity: SeverityNone},
		{Severity: SeverityNone, Err: "timeout"},
		{Severity: SeverityMedium, Issues: []Issue{{Severity: SeverityMedium, Description: "c"}}},
	}
	// Results with issues, not individual issues.
	if got := CountFindings(results); got != 2 {
		t.Errorf("CountFindings = %d, want 2", got)
	}
}

func TestParseAgentList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  ", nil},
		{"logic", []string{"logic"}},
		{"logic,security", []string{"logic", "security"}},
		{" logic , security ,", []string{"logic", "security"}},
	}
	for _, tt := range tests {
		got := ParseAgentList(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseAgentList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResultPredicates(t *testing.T) {
	failed := AnalysisResult{Severity: SeverityNone, Err: "boom"}
	if failed.HasIssues() {
		t.Error("failed result reports issues")
	}
	if !failed.Failed() {
		t.Error("result with Err not reported as failed")
	}

	clean := AnalysisResult{Severity: SeverityNone}
	if clean.HasIssues() || clean.Failed() {
		t.Error("clean result misreported")
	}
}
