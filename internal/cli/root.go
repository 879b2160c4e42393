package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

// Exit codes. Scripts and git hooks depend on these staying stable.
const (
	ExitSuccess      = 0
	ExitFindings     = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var rootCmd = &cobra.Command{
	Use:   "quorum",
	Short: "Multi-agent AI code review",
	Long:  "Quorum reviews pull requests and local changes with a panel of focused analysis agents and merges their verdicts into one report.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print quorum version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "quorum version %s\n", version)
	},
}

// Run executes the root command and returns an exit code. Handlers
// report findings and failures through exitCode rather than returned
// errors, so cobra only surfaces usage mistakes. Subcommands attach
// here, not in init, so tests can execute them standalone.
func Run() int {
	rootCmd.AddCommand(
		reviewCmd,
		agentsCmd,
		configCmd,
		cacheCmd,
		hookCmd,
		serveCmd,
		versionCmd,
	)
	if err := rootCmd.Execute(); err != nil {
		return ExitUsageError
	}
	return exitCode
}
