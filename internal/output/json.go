package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/quorum/internal/review"
)

// JSONWriter outputs the full report as indented JSON, one document per
// report, terminated by a newline.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, report *review.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}
