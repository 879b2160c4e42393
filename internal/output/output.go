package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/quorum/internal/review"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *review.Report) error
}

var formats = map[string]func() Writer{
	"text":     func() Writer { return &TextWriter{} },
	"json":     func() Writer { return &JSONWriter{} },
	"markdown": func() Writer { return &MarkdownWriter{} },
	"sarif":    func() Writer { return &SARIFWriter{} },
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	mk, ok := formats[format]
	if !ok {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return mk(), nil
}

// WriteReport writes the report to outPath, or to stdout when the path
// is empty.
func WriteReport(report *review.Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}
	if outPath == "" {
		return writer.Write(os.Stdout, report)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	return writer.Write(f, report)
}

// groupResults collects results with issues per file path, preserving the
// first-appearance order of paths in the result sequence.
func groupResults(results []review.AnalysisResult) (map[string][]review.AnalysisResult, []string) {
	groups := make(map[string][]review.AnalysisResult)
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

func failedResults(results []review.AnalysisResult) []review.AnalysisResult {
	var out []review.AnalysisResult
	for _, r := range results {
		if r.Failed() {
			out = append(out, r)
		}
	}
	return out
}

func displayName(r review.AnalysisResult) string {
	if r.AgentName != "" {
		return r.AgentName
	}
	return r.Agent
}
