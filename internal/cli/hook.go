package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	hookMarkerStart = "# >>> quorum pre-push hook >>>"
	hookMarkerEnd   = "# <<< quorum pre-push hook <<<"
)

var (
	hookFailOn string
	hookFormat string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage git pre-push hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install quorum as a git pre-push hook",
	RunE:  runHookInstall,
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove quorum pre-push hook",
	RunE:  runHookUninstall,
}

func init() {
	hookCmd.AddCommand(hookInstallCmd, hookUninstallCmd)
	hookInstallCmd.Flags().StringVar(&hookFailOn, "fail-on", "high", "Fail on severity threshold (none, info, low, medium, high, critical)")
	hookInstallCmd.Flags().StringVar(&hookFormat, "format", "text", "Output format (text, json, markdown, sarif)")
}

// failRuntime reports the error on stderr and records a runtime exit
// code. Returning nil keeps cobra from reprinting the message.
func failRuntime(format string, a ...any) error {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", a...)
	exitCode = ExitRuntimeError
	return nil
}

func runHookInstall(cmd *cobra.Command, args []string) error {
	hookPath, err := getHookPath()
	if err != nil {
		return failRuntime("%v", err)
	}

	section := generateHookScript(hookFailOn, hookFormat)

	var content string
	existing, err := os.ReadFile(hookPath)
	switch {
	case err == nil && len(existing) > 0:
		content = replaceQuorumSection(string(existing), section)
	case err == nil || os.IsNotExist(err):
		content = "#!/bin/sh\n" + section
	default:
		return failRuntime("reading hook file: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
		return failRuntime("creating hooks directory: %v", err)
	}
	if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
		return failRuntime("writing hook file: %v", err)
	}

	fmt.Fprintf(os.Stdout, "Installed quorum pre-push hook at %s\n", hookPath)
	return nil
}

func runHookUninstall(cmd *cobra.Command, args []string) error {
	hookPath, err := getHookPath()
	if err != nil {
		return failRuntime("%v", err)
	}

	existing, err := os.ReadFile(hookPath)
	if os.IsNotExist(err) {
		fmt.Fprintln(os.Stdout, "No pre-push hook found.")
		return nil
	}
	if err != nil {
		return failRuntime("reading hook file: %v", err)
	}

	content := removeQuorumSection(string(existing))

	// Nothing left but a shebang means the hook was ours alone.
	if onlyShebang(content) {
		if err := os.Remove(hookPath); err != nil {
			return failRuntime("removing hook file: %v", err)
		}
		fmt.Fprintf(os.Stdout, "Removed quorum pre-push hook at %s\n", hookPath)
		return nil
	}

	if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
		return failRuntime("writing hook file: %v", err)
	}
	fmt.Fprintf(os.Stdout, "Removed quorum section from %s\n", hookPath)
	return nil
}

func getHookPath() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--git-dir").Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository (git rev-parse --git-dir failed)")
	}
	gitDir := strings.TrimSpace(string(out))
	return filepath.Join(gitDir, "hooks", "pre-push"), nil
}

// hookScript reviews the commits about to leave: upstream..HEAD when an
// upstream exists, otherwise the push goes through unreviewed. Exit 1
// from the review blocks the push; higher codes (auth or runtime
// trouble) only warn.
const hookScript = `upstream=$(git rev-parse --abbrev-ref --symbolic-full-name @{u} 2>/dev/null)
if [ -n "$upstream" ]; then
  quorum review range "$upstream..HEAD" --fail-on %s --format %s
  QUORUM_EXIT=$?
  if [ $QUORUM_EXIT -eq 1 ]; then
    echo "quorum: findings above threshold, push blocked"
    exit 1
  elif [ $QUORUM_EXIT -ge 2 ]; then
    echo "quorum: warning: review failed (exit $QUORUM_EXIT), allowing push"
  fi
fi
`

// generateHookScript emits the marker-delimited hook section.
func generateHookScript(failOn, format string) string {
	return hookMarkerStart + "\n" + fmt.Sprintf(hookScript, failOn, format) + hookMarkerEnd + "\n"
}

// splitQuorumSection cuts a hook file around the quorum markers. The
// newline after the end marker belongs to the section and is dropped.
func splitQuorumSection(s string) (before, after string, found bool) {
	start := strings.Index(s, hookMarkerStart)
	end := strings.Index(s, hookMarkerEnd)
	if start == -1 || end == -1 {
		return "", "", false
	}
	after = strings.TrimPrefix(s[end+len(hookMarkerEnd):], "\n")
	return s[:start], after, true
}

func replaceQuorumSection(existing, section string) string {
	before, after, found := splitQuorumSection(existing)
	if !found {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}
	return before + section + after
}

func removeQuorumSection(existing string) string {
	before, after, found := splitQuorumSection(existing)
	if !found {
		return existing
	}
	return before + after
}

func onlyShebang(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "#!/bin/sh", "#!/bin/bash":
		return true
	}
	return false
}
