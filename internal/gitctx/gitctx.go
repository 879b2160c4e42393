package gitctx

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// DiffOptions controls how diffs are gathered.
type DiffOptions struct {
	ContextLines int
	MaxDiffBytes int
	Include      []string
	Exclude      []string
}

// DiffResult holds the collected diff and metadata.
type DiffResult struct {
	Diff      string
	Files     []string
	Mode      string
	Range     string
	Truncated bool
	Repo      RepoMeta
}

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// GetRepoMeta collects repository metadata from git.
func GetRepoMeta() (RepoMeta, error) {
	root, err := git("rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	// HEAD and branch are best-effort; both are empty in a repo with no
	// commits yet.
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   optGit("rev-parse", "HEAD"),
		Branch: optGit("rev-parse", "--abbrev-ref", "HEAD"),
	}, nil
}

// Unstaged returns the diff of working tree vs index.
func Unstaged(opts DiffOptions) (DiffResult, error) {
	return runDiff("unstaged", "", opts, "diff")
}

// Staged returns the diff of index vs HEAD.
func Staged(opts DiffOptions) (DiffResult, error) {
	return runDiff("staged", "", opts, "diff", "--cached")
}

// Commit returns the diff for a specific commit vs its parent. An empty
// parent means the commit's first parent.
func Commit(sha string, parent string, opts DiffOptions) (DiffResult, error) {
	if parent != "" {
		return runDiff("commit", sha, opts, "diff", parent, sha)
	}
	res, err := runDiff("commit", sha, opts, "diff", sha+"~1", sha)
	if err == nil {
		return res, nil
	}
	// The initial commit has no parent; show its full content instead.
	return runDiff("commit", sha, opts, "show", "--format=", sha)
}

// Range returns the combined diff for a revision range.
func Range(revRange string, mergeBase bool, opts DiffOptions) (DiffResult, error) {
	spec := revRange
	if mergeBase && strings.Contains(spec, "..") && !strings.Contains(spec, "...") {
		spec = strings.Replace(spec, "..", "...", 1)
	}
	return runDiff("range", revRange, opts, "diff", spec)
}

// runDiff executes one git diff-producing command with the option flags
// appended and wraps the output into a DiffResult.
func runDiff(mode, rangeStr string, opts DiffOptions, base ...string) (DiffResult, error) {
	out, err := git(append(base, buildDiffArgs(opts)...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git %s: %w", strings.Join(base, " "), err)
	}
	return buildResult(out, mode, rangeStr, opts)
}

func buildDiffArgs(opts DiffOptions) []string {
	var args []string
	if opts.ContextLines > 0 {
		args = append(args, fmt.Sprintf("-U%d", opts.ContextLines))
	}
	args = append(args, "--")
	for _, p := range opts.Include {
		// "**/*" is the configured "everything" default; as a git
		// pathspec it would narrow the diff, so leave it off.
		if p != "**/*" {
			args = append(args, p)
		}
	}
	return args
}

const truncationMarker = "... (diff truncated at max-diff-bytes limit)"

func buildResult(diff, mode, rangeStr string, opts DiffOptions) (DiffResult, error) {
	meta, err := GetRepoMeta()
	if err != nil {
		meta = RepoMeta{}
	}

	// Filter excludes before truncating so excluded files don't consume the
	// byte budget.
	if len(opts.Exclude) > 0 {
		diff = filterExcluded(diff, opts.Exclude)
	}

	var truncated bool
	if opts.MaxDiffBytes > 0 && len(diff) > opts.MaxDiffBytes {
		diff, truncated = truncateSections(diff, opts.MaxDiffBytes)
	}

	return DiffResult{
		Diff:      diff,
		Files:     extractFiles(diff),
		Mode:      mode,
		Range:     rangeStr,
		Truncated: truncated,
		Repo:      meta,
	}, nil
}

// truncateSections drops whole file sections once the byte budget is spent.
// Cuts happen only at file boundaries so the result stays parseable as a
// unified diff; the first section is always kept even when it alone exceeds
// the budget. Reports whether anything was dropped.
func truncateSections(diff string, maxBytes int) (string, bool) {
	var b strings.Builder
	for i, section := range splitDiffSections(diff) {
		if i > 0 && b.Len()+len(section) > maxBytes {
			b.WriteString(truncationMarker + "\n")
			return b.String(), true
		}
		b.WriteString(section)
	}
	return b.String(), false
}

func extractFiles(diff string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(diff, "\n") {
		if f, ok := strings.CutPrefix(line, "+++ b/"); ok && !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	return files
}

func filterExcluded(diff string, excludes []string) string {
	var b strings.Builder
	for _, section := range splitDiffSections(diff) {
		path := extractPathFromSection(section)
		if path != "" && MatchesAny(path, excludes) {
			continue
		}
		b.WriteString(section)
	}
	return b.String()
}

// splitDiffSections cuts a unified diff at "diff --git" headers. Text
// before the first header, if any, forms its own section.
func splitDiffSections(diff string) []string {
	var sections []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			sections = append(sections, strings.Join(current, "\n")+"\n")
			current = current[:0]
		}
	}
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "diff --git") {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return sections
}

func extractPathFromSection(section string) string {
	for _, line := range strings.Split(section, "\n") {
		if path, ok := strings.CutPrefix(line, "+++ b/"); ok {
			return path
		}
	}
	return ""
}

// MatchesAny reports whether the path matches any of the glob patterns.
// Patterns with a "**/" prefix also match against the basename and the
// bare remainder, since filepath.Match has no doublestar support.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		rest, hadPrefix := strings.CutPrefix(pattern, "**/")
		if !hadPrefix {
			continue
		}
		if ok, _ := filepath.Match(rest, filepath.Base(path)); ok {
			return true
		}
		if ok, _ := filepath.Match(rest, path); ok {
			return true
		}
	}
	return false
}

func git(args ...string) (string, error) {
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, exitErr.Stderr)
		}
		return "", err
	}
	return string(out), nil
}

// optGit runs a git command whose failure is tolerable, returning its
// trimmed output or an empty string.
func optGit(args ...string) string {
	out, err := git(args...)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}
