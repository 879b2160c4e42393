package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/quorum/internal/review"
)

// TextWriter outputs a human-readable terminal report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	lw := &lineWriter{w: w}

	writeHeader(lw, report)
	writeSummary(lw, report)
	writeFindings(lw, report)
	writeFailures(lw, report)
	writeFooter(lw, report)

	return lw.err
}

func writeHeader(lw *lineWriter, report *review.Report) {
	lw.printf("Quorum Code Review — %s\n", report.Target.String())
	if report.PR != nil {
		lw.printf("PR: %s (by %s)\n", report.PR.Title, report.PR.Author)
		lw.printf("Branches: %s ← %s\n", report.PR.BaseBranch, report.PR.HeadBranch)
	}
	lw.println(rule(60))
}

func writeSummary(lw *lineWriter, report *review.Report) {
	total := report.Counts.Total()
	lw.printf("Files reviewed: %d\n", report.FilesReviewed)
	lw.printf("Issues: %d", total)
	if total > 0 {
		lw.printf(" (%s)", countBreakdown(report.Counts))
	}
	lw.println("")
	lw.println(rule(60))

	if total == 0 {
		lw.println("\nNo issues found. Looks good!")
	}
}

func writeFindings(lw *lineWriter, report *review.Report) {
	grouped, order := groupResults(report.Results)
	for _, path := range order {
		lw.printf("\n%s\n", path)
		lw.println(rule(40))

		for _, r := range grouped[path] {
			cached := ""
			if r.Cached {
				cached = " (cached)"
			}
			lw.printf("  %s %s [%s]%s\n",
				severityIcon(r.Severity), displayName(r), strings.ToUpper(string(r.Severity)), cached)

			for _, issue := range r.Issues {
				writeIssue(lw, issue)
			}
		}
	}
}

func writeIssue(lw *lineWriter, issue review.Issue) {
	label := fmt.Sprintf("[%s]", strings.ToUpper(string(issue.Severity)))
	if issue.Line > 0 {
		label += fmt.Sprintf(" line %d:", issue.Line)
	}
	lines := wrapText(issue.Description, 66)
	lw.printf("    - %s %s\n", label, lines[0])
	for _, line := range lines[1:] {
		lw.printf("      %s\n", line)
	}
	if issue.Suggestion != "" {
		lw.println("      Suggestion:")
		for _, line := range wrapText(issue.Suggestion, 64) {
			lw.printf("        %s\n", line)
		}
	}
}

func writeFailures(lw *lineWriter, report *review.Report) {
	failures := failedResults(report.Results)
	if len(failures) == 0 {
		return
	}
	lw.printf("\nAgent failures (%d):\n", len(failures))
	for _, r := range failures {
		lw.printf("  %s on %s: %s\n", displayName(r), r.Path, r.Err)
	}
}

func writeFooter(lw *lineWriter, report *review.Report) {
	lw.printf("\n%s\n", rule(60))
	lw.printf("Recommendation: %s\n", report.Recommendation)
	lw.printf("Completed in %dms (fetch: %dms, LLM: %dms)\n",
		report.Timing.TotalMs, report.Timing.FetchMs, report.Timing.LLMMs)
}

func rule(n int) string {
	return strings.Repeat("─", n)
}

// lineWriter batches formatted writes, keeping only the first error.
type lineWriter struct {
	w   io.Writer
	err error
}

func (lw *lineWriter) printf(format string, args ...any) {
	if lw.err == nil {
		_, lw.err = fmt.Fprintf(lw.w, format, args...)
	}
}

func (lw *lineWriter) println(s string) {
	lw.printf("%s\n", s)
}

// countBreakdown renders the non-zero severity tallies, most severe first.
func countBreakdown(c review.SeverityCounts) string {
	rows := []struct {
		label string
		n     int
	}{
		{"critical", c.Critical},
		{"high", c.High},
		{"medium", c.Medium},
		{"low", c.Low},
		{"info", c.Info},
	}
	var parts []string
	for _, row := range rows {
		if row.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", row.n, row.label))
		}
	}
	return strings.Join(parts, ", ")
}

var severityIcons = map[review.Severity]string{
	review.SeverityCritical: "[!!!]",
	review.SeverityHigh:     "[!!]",
	review.SeverityMedium:   "[!]",
	review.SeverityLow:      "[-]",
	review.SeverityInfo:     "[i]",
}

func severityIcon(s review.Severity) string {
	if icon, ok := severityIcons[s]; ok {
		return icon
	}
	return "[?]"
}

// wrapText greedily wraps text at word boundaries. A word longer than
// the width gets a line of its own rather than being split.
func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= width:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
