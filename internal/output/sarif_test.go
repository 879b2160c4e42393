package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dshills/quorum/internal/review"
)

// decodeSARIF writes the report through SARIFWriter and parses the
// output back, failing the test on invalid JSON.
func decodeSARIF(t *testing.T, report *review.Report) sarifLog {
	t.Helper()
	var buf bytes.Buffer
	if err := (&SARIFWriter{}).Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	var sarif sarifLog
	if err := json.Unmarshal(buf.Bytes(), &sarif); err != nil {
		t.Fatalf("Invalid SARIF JSON: %v", err)
	}
	return sarif
}

func TestSARIFWriter_Empty(t *testing.T) {
	sarif := decodeSARIF(t, cleanReport())

	if sarif.Version != "2.1.0" {
		t.Errorf("Version = %q, want %q", sarif.Version, "2.1.0")
	}
	if !strings.Contains(sarif.Schema, "sarif-schema-2.1.0") {
		t.Errorf("Schema = %q, want the 2.1.0 schema URL", sarif.Schema)
	}
	if len(sarif.Runs) != 1 {
		t.Fatalf("Runs count = %d, want 1", len(sarif.Runs))
	}
	run := sarif.Runs[0]
	if len(run.Results) != 0 || len(run.Tool.Driver.Rules) != 0 {
		t.Errorf("clean report produced %d results and %d rules, want none",
			len(run.Results), len(run.Tool.Driver.Rules))
	}
}

func TestSARIFWriter_WithIssues(t *testing.T) {
	sarif := decodeSARIF(t, findingsReport())
	run := sarif.Runs[0]

	if run.Tool.Driver.Name != "quorum" {
		t.Errorf("Driver name = %q, want %q", run.Tool.Driver.Name, "quorum")
	}

	// One rule per agent with issues, its level set by the agent's worst
	// finding. The failed agent contributes no rule.
	wantRules := []struct{ id, level string }{
		{"quorum/security", "error"},
		{"quorum/readability", "note"},
	}
	if len(run.Tool.Driver.Rules) != len(wantRules) {
		t.Fatalf("Rules count = %d, want %d", len(run.Tool.Driver.Rules), len(wantRules))
	}
	for i, want := range wantRules {
		rule := run.Tool.Driver.Rules[i]
		if rule.ID != want.id {
			t.Errorf("Rules[%d].ID = %q, want %q", i, rule.ID, want.id)
		}
		if rule.DefaultConfig.Level != want.level {
			t.Errorf("Rules[%d] default level = %q, want %q", i, rule.DefaultConfig.Level, want.level)
		}
	}

	// One result per issue, in report order.
	if len(run.Results) != 3 {
		t.Fatalf("Results count = %d, want 3", len(run.Results))
	}
	for i, want := range []struct{ ruleID, level string }{
		{"quorum/security", "error"},
		{"quorum/security", "warning"},
		{"quorum/readability", "note"},
	} {
		if run.Results[i].RuleID != want.ruleID || run.Results[i].Level != want.level {
			t.Errorf("Results[%d] = %s at %s, want %s at %s",
				i, run.Results[i].RuleID, run.Results[i].Level, want.ruleID, want.level)
		}
	}
}

func TestSARIFWriter_Locations(t *testing.T) {
	sarif := decodeSARIF(t, findingsReport())
	results := sarif.Runs[0].Results

	// The critical issue has a line, so its location carries a region
	// and its suggestion becomes a fix.
	critical := results[0]
	if critical.Message.Text != "SQL injection via unsanitized input" {
		t.Errorf("Message = %q", critical.Message.Text)
	}
	loc := critical.Locations[0].PhysicalLocation
	if loc.ArtifactLocation.URI != "db/query.go" {
		t.Errorf("URI = %q, want %q", loc.ArtifactLocation.URI, "db/query.go")
	}
	if loc.Region == nil || loc.Region.StartLine != 42 || loc.Region.EndLine != 42 {
		t.Errorf("Region = %+v, want line 42", loc.Region)
	}
	if len(critical.Fixes) != 1 || critical.Fixes[0].Description.Text != "Use parameterized queries" {
		t.Errorf("Fixes = %+v", critical.Fixes)
	}

	// The medium issue has no line number: file-level location, no region.
	medium := results[1]
	if medium.Locations[0].PhysicalLocation.Region != nil {
		t.Error("Issue without a line should have no region")
	}
	if len(medium.Fixes) != 0 {
		t.Errorf("Issue without a suggestion should have no fixes, got %+v", medium.Fixes)
	}
}

func TestSeverityToLevel(t *testing.T) {
	tests := []struct {
		severity review.Severity
		want     string
	}{
		{review.SeverityCritical, "error"},
		{review.SeverityHigh, "error"},
		{review.SeverityMedium, "warning"},
		{review.SeverityLow, "note"},
		{review.SeverityInfo, "note"},
		{review.Severity("unknown"), "note"},
	}
	for _, tt := range tests {
		got := severityToLevel(tt.severity)
		if got != tt.want {
			t.Errorf("severityToLevel(%q) = %q, want %q", tt.severity, got, tt.want)
		}
	}
}
