// Package diff parses raw unified diffs into the change-set model used by
// reviews, so locally produced diffs flow through the same pipeline as
// pull-request change sets.
package diff

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/dshills/quorum/internal/review"
)

// Parse reads a raw unified diff and returns one FileChange per file, with
// per-file patch text rebuilt from the parsed hunks. Binary files come back
// with an empty patch, which excludes them from analysis downstream.
func Parse(raw string) ([]review.FileChange, error) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	changes := make([]review.FileChange, 0, len(parsed))
	for _, f := range parsed {
		fc := review.FileChange{
			Path:   pathOf(f),
			Status: statusOf(f),
		}
		if !f.IsBinary {
			fc.Patch = renderPatch(f)
		}
		for _, frag := range f.TextFragments {
			for _, line := range frag.Lines {
				switch line.Op {
				case gitdiff.OpAdd:
					fc.Additions++
				case gitdiff.OpDelete:
					fc.Deletions++
				}
			}
		}
		changes = append(changes, fc)
	}
	return changes, nil
}

func pathOf(f *gitdiff.File) string {
	if f.IsDelete && f.OldName != "" {
		return f.OldName
	}
	if f.NewName != "" {
		return f.NewName
	}
	return f.OldName
}

// statusOf maps gitdiff flags onto the status vocabulary of GitHub's files
// endpoint, so local and PR change sets look alike to the rest of the engine.
func statusOf(f *gitdiff.File) string {
	switch {
	case f.IsNew:
		return "added"
	case f.IsDelete:
		return "removed"
	case f.IsRename:
		return "renamed"
	case f.IsCopy:
		return "copied"
	default:
		return "modified"
	}
}

// renderPatch rebuilds one file's hunk text in the same shape as the patch
// field of GitHub's files endpoint: hunks only, no file header.
func renderPatch(f *gitdiff.File) string {
	var b strings.Builder
	for _, frag := range f.TextFragments {
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@",
			frag.OldPosition, frag.OldLines,
			frag.NewPosition, frag.NewLines)
		if frag.Comment != "" {
			b.WriteString(" " + frag.Comment)
		}
		b.WriteString("\n")

		for _, line := range frag.Lines {
			switch line.Op {
			case gitdiff.OpContext:
				b.WriteString(" " + line.Line)
			case gitdiff.OpDelete:
				b.WriteString("-" + line.Line)
			case gitdiff.OpAdd:
				b.WriteString("+" + line.Line)
			}
			if !strings.HasSuffix(line.Line, "\n") {
				b.WriteString("\n")
			}
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
