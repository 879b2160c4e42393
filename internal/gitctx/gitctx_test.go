package gitctx

import (
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// section builds one minimal file section of a unified diff.
func section(path, body string) string {
	return "diff --git a/" + path + " b/" + path + "\n--- a/" + path + "\n+++ b/" + path + "\n@@ -1 +1 @@\n+" + body + "\n"
}

func TestExtractFiles(t *testing.T) {
	tests := []struct {
		name string
		diff string
		want []string
	}{
		{"empty diff", "", nil},
		{
			"two files",
			section("main.go", `import "fmt"`) + section("util.go", "func helper() {}"),
			[]string{"main.go", "util.go"},
		},
		{"repeated header dedups", "+++ b/main.go\n+++ b/main.go\n", []string{"main.go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractFiles(tt.diff); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("extractFiles = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterExcluded(t *testing.T) {
	diff := section("main.go", `import "fmt"`) + section("vendor/lib.go", "package lib")

	got := filterExcluded(diff, []string{"vendor/**"})
	if strings.Contains(got, "vendor/lib.go") {
		t.Errorf("vendor section survived:\n%s", got)
	}
	if !strings.Contains(got, "main.go") {
		t.Errorf("main.go section was dropped:\n%s", got)
	}

	if got := filterExcluded(diff, []string{"*.rs"}); !strings.Contains(got, "vendor/lib.go") {
		t.Errorf("non-matching pattern dropped a section:\n%s", got)
	}
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"main.go", nil, false},
		{"main.go", []string{}, false},
		{"main.go", []string{"*.go"}, true},
		{"main.go", []string{"vendor/**"}, false},
		{"vendor/lib.go", []string{"vendor/**"}, true},
		{"foo.gen.go", []string{"**/*.gen.go"}, true},
		{"pkg/foo.gen.go", []string{"**/*.gen.go"}, true},
		{"dist/bundle.js", []string{"**/dist/**"}, true},
	}

	for _, tt := range tests {
		if got := MatchesAny(tt.path, tt.patterns); got != tt.want {
			t.Errorf("MatchesAny(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestSplitDiffSections(t *testing.T) {
	sections := splitDiffSections(section("a.go", "line1") + section("b.go", "line2"))
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}

	if !strings.HasPrefix(sections[0], "diff --git a/a.go") || !strings.Contains(sections[0], "+line1") {
		t.Errorf("section 0 = %q", sections[0])
	}
	if !strings.HasPrefix(sections[1], "diff --git a/b.go") || !strings.Contains(sections[1], "+line2") {
		t.Errorf("section 1 = %q", sections[1])
	}
	if strings.Contains(sections[0], "b.go") {
		t.Errorf("section 0 bleeds into the next file: %q", sections[0])
	}
}

func TestExtractPathFromSection(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"normal header", section("main.go", "import"), "main.go"},
		{"missing +++ line", "diff --git a/main.go b/main.go\nsome other content\n", ""},
	}

	for _, tt := range tests {
		if got := extractPathFromSection(tt.in); got != tt.want {
			t.Errorf("%s: extractPathFromSection = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestBuildDiffArgs(t *testing.T) {
	tests := []struct {
		name string
		opts DiffOptions
		want []string
	}{
		{
			"context and pathspec",
			DiffOptions{ContextLines: 5, Include: []string{"*.go"}},
			[]string{"-U5", "--", "*.go"},
		},
		{
			"catch-all include is not a pathspec",
			DiffOptions{ContextLines: 3, Include: []string{"**/*"}},
			[]string{"-U3", "--"},
		},
		{
			"zero context omits -U",
			DiffOptions{Include: []string{"*.go"}},
			[]string{"--", "*.go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildDiffArgs(tt.opts); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("buildDiffArgs(%+v) = %v, want %v", tt.opts, got, tt.want)
			}
		})
	}
}

func TestBuildResult_TruncatesAtSectionBoundaries(t *testing.T) {
	a := section("a.go", "alpha")
	b := section("b.go", strings.Repeat("x", 120))
	c := section("c.go", "charlie")
	diff := a + b + c

	result, err := buildResult(diff, "unstaged", "", DiffOptions{MaxDiffBytes: len(a) + 10})
	if err != nil {
		t.Fatalf("buildResult error: %v", err)
	}
	if !result.Truncated {
		t.Error("Truncated should be true when sections are dropped")
	}
	if !strings.Contains(result.Diff, "a.go") {
		t.Error("first section should survive")
	}
	if strings.Contains(result.Diff, "b.go") || strings.Contains(result.Diff, "c.go") {
		t.Errorf("later sections should be dropped:\n%s", result.Diff)
	}
	if !strings.HasSuffix(result.Diff, truncationMarker+"\n") {
		t.Errorf("diff should end with the truncation marker:\n%s", result.Diff)
	}
	// Files reflects the surviving diff, not the original.
	if len(result.Files) != 1 || result.Files[0] != "a.go" {
		t.Errorf("Files = %v, want [a.go]", result.Files)
	}
}

func TestBuildResult_KeepsOversizedFirstSection(t *testing.T) {
	diff := section("main.go", strings.Repeat("x", 200))
	result, err := buildResult(diff, "unstaged", "", DiffOptions{MaxDiffBytes: 50})
	if err != nil {
		t.Fatalf("buildResult error: %v", err)
	}
	if result.Truncated {
		t.Error("Truncated should be false when nothing was dropped")
	}
	if !strings.Contains(result.Diff, strings.Repeat("x", 200)) {
		t.Error("sole section should be kept whole")
	}
}

func TestBuildResult_ExcludeBeforeTruncate(t *testing.T) {
	// A large excluded section must not consume the byte budget.
	diff := section("vendor/big.go", strings.Repeat("x", 500)) + section("main.go", "line")

	opts := DiffOptions{
		MaxDiffBytes: 100,
		Exclude:      []string{"vendor/**"},
	}
	result, err := buildResult(diff, "unstaged", "", opts)
	if err != nil {
		t.Fatalf("buildResult error: %v", err)
	}

	if result.Truncated {
		t.Error("diff should not be truncated after excluding vendor/")
	}
	if !strings.Contains(result.Diff, "main.go") {
		t.Error("diff should still contain main.go")
	}
	if len(result.Files) != 1 || result.Files[0] != "main.go" {
		t.Errorf("Files = %v, want [main.go]", result.Files)
	}
}

func TestBuildResult_MetadataAndMode(t *testing.T) {
	result, err := buildResult(section("main.go", "ok"), "staged", "abc..def", DiffOptions{})
	if err != nil {
		t.Fatalf("buildResult error: %v", err)
	}
	if result.Mode != "staged" {
		t.Errorf("Mode = %q, want %q", result.Mode, "staged")
	}
	if result.Range != "abc..def" {
		t.Errorf("Range = %q, want %q", result.Range, "abc..def")
	}
	if len(result.Files) != 1 || result.Files[0] != "main.go" {
		t.Errorf("Files = %v, want [main.go]", result.Files)
	}
}

// initRepo creates a throwaway git repo with two committed files and
// returns its path plus a fatal-on-error command runner bound to it.
func initRepo(t *testing.T) (string, func(args ...string) string) {
	t.Helper()
	dir := t.TempDir()

	run := func(args ...string) string {
		t.Helper()
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("%v: %v\n%s", args, err, out)
		}
		return strings.TrimSpace(string(out))
	}

	run("git", "init")
	run("git", "checkout", "-b", "main")
	run("git", "config", "user.name", "quorum-test")
	run("git", "config", "user.email", "quorum-test@localhost")

	write(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	write(t, dir, "util.go", "package main\n\nfunc helper() {}\n")
	run("git", "add", "-A")
	run("git", "commit", "-m", "initial import")

	return dir, run
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestUnstagedAndStaged(t *testing.T) {
	dir, run := initRepo(t)
	t.Chdir(dir)

	write(t, dir, "main.go", "package main\n\nfunc main() { helper() }\n")

	unstaged, err := Unstaged(DiffOptions{})
	if err != nil {
		t.Fatalf("Unstaged error: %v", err)
	}
	if unstaged.Mode != "unstaged" {
		t.Errorf("Mode = %q, want %q", unstaged.Mode, "unstaged")
	}
	if !strings.Contains(unstaged.Diff, "+func main() { helper() }") {
		t.Errorf("unstaged diff missing edit:\n%s", unstaged.Diff)
	}

	staged, err := Staged(DiffOptions{})
	if err != nil {
		t.Fatalf("Staged error: %v", err)
	}
	if staged.Diff != "" {
		t.Errorf("staged diff should be empty before git add:\n%s", staged.Diff)
	}

	run("git", "add", "main.go")

	staged, err = Staged(DiffOptions{})
	if err != nil {
		t.Fatalf("Staged error: %v", err)
	}
	if len(staged.Files) != 1 || staged.Files[0] != "main.go" {
		t.Errorf("staged Files = %v, want [main.go]", staged.Files)
	}
	if staged.Repo.Branch != "main" {
		t.Errorf("Branch = %q, want %q", staged.Repo.Branch, "main")
	}
}

func TestCommit_InitialCommitFallback(t *testing.T) {
	dir, run := initRepo(t)
	t.Chdir(dir)

	initSHA := run("git", "rev-parse", "HEAD")

	// The initial commit has no parent; Commit falls back to git show.
	result, err := Commit(initSHA, "", DiffOptions{})
	if err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if result.Mode != "commit" || result.Range != initSHA {
		t.Errorf("Mode/Range = %q/%q", result.Mode, result.Range)
	}
	if !strings.Contains(result.Diff, "+package main") {
		t.Errorf("commit diff missing content:\n%s", result.Diff)
	}
}

func TestRange(t *testing.T) {
	dir, run := initRepo(t)
	t.Chdir(dir)

	initSHA := run("git", "rev-parse", "HEAD")

	write(t, dir, "extra.go", "package main\n")
	run("git", "add", "extra.go")
	run("git", "commit", "-m", "add extra.go")

	result, err := Range(initSHA+"..HEAD", false, DiffOptions{})
	if err != nil {
		t.Fatalf("Range error: %v", err)
	}
	if result.Mode != "range" {
		t.Errorf("Mode = %q, want %q", result.Mode, "range")
	}
	if len(result.Files) != 1 || result.Files[0] != "extra.go" {
		t.Errorf("Files = %v, want [extra.go]", result.Files)
	}

	// Merge-base comparison on a linear history yields the same change set.
	viaMergeBase, err := Range(initSHA+"..HEAD", true, DiffOptions{})
	if err != nil {
		t.Fatalf("Range merge-base error: %v", err)
	}
	if viaMergeBase.Diff != result.Diff {
		t.Error("merge-base range should match plain range on linear history")
	}
}
