package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/quorum/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report: the
// aggregate summary document followed by per-file detail in collapsible
// sections.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	ew := &lineWriter{w: w}

	// The summary is already a markdown document.
	ew.printf("%s\n", strings.TrimRight(report.Summary, "\n"))

	grouped, order := groupResults(report.Results)
	for _, path := range order {
		results := grouped[path]
		issueCount := 0
		for _, r := range results {
			issueCount += len(r.Issues)
		}

		ew.printf("\n<details>\n<summary><code>%s</code>: %s</summary>\n\n",
			path, pluralize(issueCount, "issue"))

		for _, r := range results {
			cached := ""
			if r.Cached {
				cached = " *(cached)*"
			}
			ew.printf("#### %s [%s]%s\n\n", displayName(r), strings.ToUpper(string(r.Severity)), cached)

			for _, issue := range r.Issues {
				ew.printf("- **[%s]** %s", strings.ToUpper(string(issue.Severity)), issue.Description)
				if issue.Line > 0 {
					ew.printf(" (line %d)", issue.Line)
				}
				ew.println("")
				if issue.Suggestion != "" {
					ew.printf("  - Suggestion: %s\n", issue.Suggestion)
				}
			}
			ew.println("")

			if len(r.Recommendations) > 0 {
				ew.println("**Recommendations:**")
				for _, rec := range r.Recommendations {
					ew.printf("- %s\n", rec)
				}
				ew.println("")
			}
		}

		ew.println("</details>")
	}

	if failures := failedResults(report.Results); len(failures) > 0 {
		ew.printf("\n<details>\n<summary>%s could not complete</summary>\n\n",
			pluralize(len(failures), "agent task"))
		for _, r := range failures {
			ew.printf("- `%s` on `%s`: %s\n", displayName(r), r.Path, r.Err)
		}
		ew.println("\n</details>")
	}

	ew.printf("\n*Reviewed in %dms (fetch: %dms, LLM: %dms)*\n",
		report.Timing.TotalMs, report.Timing.FetchMs, report.Timing.LLMMs)

	return ew.err
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
