package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/quorum/internal/review"
)

// SARIFWriter outputs issues in SARIF v2.1.0 format, one rule per agent.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *review.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(buildSARIF(report)); err != nil {
		return fmt.Errorf("encoding SARIF: %w", err)
	}
	return nil
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
	Fixes     []sarifFix      `json:"fixes,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

type sarifFix struct {
	Description sarifMessage `json:"description"`
}

func buildSARIF(report *review.Report) sarifLog {
	// Each agent's worst issue severity sets its rule's default level.
	worst := make(map[string]review.Severity)
	for _, r := range report.Results {
		for _, issue := range r.Issues {
			if review.SeverityRank(issue.Severity) > review.SeverityRank(worst[r.Agent]) {
				worst[r.Agent] = issue.Severity
			}
		}
	}

	var rules []sarifRule
	seen := make(map[string]bool)
	results := []sarifResult{}

	for _, r := range report.Results {
		if !r.HasIssues() {
			continue
		}

		ruleID := "quorum/" + r.Agent
		if !seen[ruleID] {
			seen[ruleID] = true
			rules = append(rules, sarifRule{
				ID:               ruleID,
				Name:             displayName(r),
				ShortDescription: sarifMessage{Text: fmt.Sprintf("Issues reported by the %s agent", displayName(r))},
				DefaultConfig:    sarifDefaultConfig{Level: severityToLevel(worst[r.Agent])},
			})
		}

		for _, issue := range r.Issues {
			results = append(results, issueResult(ruleID, r.Path, issue))
		}
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           "quorum",
						Version:        report.Version,
						InformationURI: "https://github.com/dshills/quorum",
						Rules:          rules,
					},
				},
				Results: results,
			},
		},
	}
}

// issueResult converts one issue into a SARIF result. Issues without a
// line number carry a file-level location with no region.
func issueResult(ruleID, path string, issue review.Issue) sarifResult {
	loc := sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{URI: path},
		},
	}
	if issue.Line > 0 {
		loc.PhysicalLocation.Region = &sarifRegion{StartLine: issue.Line, EndLine: issue.Line}
	}

	result := sarifResult{
		RuleID:    ruleID,
		Level:     severityToLevel(issue.Severity),
		Message:   sarifMessage{Text: issue.Description},
		Locations: []sarifLocation{loc},
	}
	if issue.Suggestion != "" {
		result.Fixes = []sarifFix{{Description: sarifMessage{Text: issue.Suggestion}}}
	}
	return result
}

// severityToLevel maps issue severity to a SARIF level.
func severityToLevel(s review.Severity) string {
	switch s {
	case review.SeverityCritical, review.SeverityHigh:
		return "error"
	case review.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
