package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dshills/quorum/internal/review"
)

func TestJSONWriter(t *testing.T) {
	out := render(t, &JSONWriter{}, findingsReport())

	// The output is the report itself, so a round trip through the
	// review types loses nothing a scripting consumer would read.
	var decoded review.Report
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if decoded.Tool != "quorum" {
		t.Errorf("Tool = %q, want %q", decoded.Tool, "quorum")
	}
	if decoded.Recommendation != review.RecommendBlock {
		t.Errorf("Recommendation = %q, want %q", decoded.Recommendation, review.RecommendBlock)
	}
	if len(decoded.Results) != 3 {
		t.Errorf("Results count = %d, want 3", len(decoded.Results))
	}
	if decoded.Counts.Critical != 1 {
		t.Errorf("Counts.Critical = %d, want 1", decoded.Counts.Critical)
	}
	if decoded.Results[2].Err != "provider timeout" {
		t.Errorf("Results[2].Err = %q", decoded.Results[2].Err)
	}

	if !strings.HasPrefix(out, "{\n  ") {
		t.Error("Output should be indented")
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Output should end with a newline")
	}
}
