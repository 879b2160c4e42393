package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/quorum/internal/cache"
	"github.com/dshills/quorum/internal/config"
	"github.com/dshills/quorum/internal/diff"
	"github.com/dshills/quorum/internal/github"
	"github.com/dshills/quorum/internal/gitctx"
	"github.com/dshills/quorum/internal/output"
	"github.com/dshills/quorum/internal/progress"
	"github.com/dshills/quorum/internal/providers"
	"github.com/dshills/quorum/internal/review"
)

// Shared review flags
var (
	flagAgents       string
	flagInstructions string
	flagProvider     string
	flagModel        string
	flagFormat       string
	flagOut          string
	flagFailOn       string
	flagTimeout      int
	flagMaxDiffChars int
	flagNoRedact     bool
	flagNoCache      bool
	flagPaths        string
	flagExclude      string
	flagQuiet        bool
)

// PR-mode flags
var (
	flagOwner  string
	flagRepo   string
	flagPost   bool
	flagDryRun bool
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagAgents, "agents", "", "Agents to run (comma-separated ids)")
	cmd.Flags().StringVar(&flagInstructions, "instructions", "", "Extra instructions passed to every agent")
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (openrouter, anthropic, ollama)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, info, low, medium, high, critical)")
	cmd.Flags().IntVar(&flagTimeout, "timeout", 0, "Per-task timeout in seconds")
	cmd.Flags().IntVar(&flagMaxDiffChars, "max-diff-chars", 0, "Maximum diff characters sent per task")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the response cache")
	cmd.Flags().StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().BoolVar(&flagQuiet, "quiet", false, "Suppress progress output on stderr")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagAgents != "" {
		m["agents"] = flagAgents
	}
	if flagInstructions != "" {
		m["instructions"] = flagInstructions
	}
	if flagTimeout > 0 {
		m["timeout"] = strconv.Itoa(flagTimeout)
	}
	if flagMaxDiffChars > 0 {
		m["maxDiffChars"] = strconv.Itoa(flagMaxDiffChars)
	}
	return m
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func buildDiffOpts(cfg config.Config) gitctx.DiffOptions {
	opts := gitctx.DiffOptions{
		ContextLines: cfg.ContextLines,
		MaxDiffBytes: cfg.MaxDiffBytes,
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
	}
	if flagPaths != "" {
		opts.Include = splitComma(flagPaths)
	}
	if flagExclude != "" {
		opts.Exclude = append(opts.Exclude, splitComma(flagExclude)...)
	}
	return opts
}

// buildRunner wires the completion provider, cache, and redaction policy
// into a task runner.
func buildRunner(cfg config.Config) (*review.Runner, error) {
	completer, err := providers.New(cfg.Provider, cfg.Model)
	if err != nil {
		return nil, err
	}

	store, err := cache.New(cfg.Cache.Enabled && !flagNoCache, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cache unavailable: %v\n", err)
		store = nil
	}

	redactSecrets := cfg.Privacy.RedactSecrets
	if flagNoRedact {
		redactSecrets = false
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	return review.NewRunner(completer, review.RunnerOptions{
		Model:         cfg.Model,
		MaxDiffChars:  cfg.MaxDiffChars,
		Temperature:   cfg.Temperature,
		RedactSecrets: redactSecrets,
		RedactPaths:   cfg.Privacy.RedactPaths,
		Cache:         store,
	}), nil
}

// selectAgents resolves the configured agent ids against the builtins
// plus any custom roster.
func selectAgents(cfg config.Config) ([]review.AgentSpec, error) {
	var roster []review.AgentSpec
	if cfg.RosterFile != "" {
		var err error
		roster, err = config.LoadRoster(cfg.RosterFile)
		if err != nil {
			return nil, err
		}
	}
	return review.SelectAgents(cfg.Agents, roster)
}

func skipPolicy(cfg config.Config) *review.SkipPolicy {
	if len(cfg.SkipExtensions) == 0 && len(cfg.SkipPatterns) == 0 {
		return nil
	}
	p := review.DefaultSkipPolicy().Extend(cfg.SkipExtensions, cfg.SkipPatterns)
	return &p
}

func taskTimeout(cfg config.Config) time.Duration {
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}

// renderProgress drains the bus, printing each event's message as a
// stderr status line. The bus must always be drained even in quiet mode
// so the producer's buffer never wedges on old events. The returned
// channel closes when the bus does.
func renderProgress(bus *progress.Bus, quiet bool) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range bus.Events() {
			if quiet || ev.Message == "" {
				continue
			}
			fmt.Fprintf(os.Stderr, "%s\n", ev.Message)
		}
	}()
	return done
}

// finishReport writes the report in the configured format and maps the
// outcome onto an exit code.
func finishReport(report *review.Report, cfg config.Config) {
	if err := output.WriteReport(report, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	if report.Status == review.StatusError {
		exitCode = ExitRuntimeError
		return
	}
	if review.MeetsThreshold(review.HighestSeverity(report.Results), cfg.FailOn) {
		exitCode = ExitFindings
	}
}

// resolveReference turns the positional argument into a review target. A
// bare number is resolved against --owner/--repo or the detected origin
// remote before ParseReference gets a chance to reject it.
func resolveReference(arg string) (review.Target, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(arg)); err == nil && n > 0 {
		owner, repo := flagOwner, flagRepo
		if owner == "" || repo == "" {
			detectedOwner, detectedRepo, err := github.DetectRepo()
			if err != nil {
				return review.Target{}, fmt.Errorf("resolving PR #%d: %w (use --owner and --repo)", n, err)
			}
			if owner == "" {
				owner = detectedOwner
			}
			if repo == "" {
				repo = detectedRepo
			}
		}
		return review.Target{Owner: owner, Repo: repo, Number: n}, nil
	}
	return github.ParseReference(arg)
}

var reviewCmd = &cobra.Command{
	Use:   "review <pr-reference>",
	Short: "Review code changes",
	Long: `Review a pull request with a panel of analysis agents.

The reference may be a PR URL, owner/repo#42, owner/repo/42, or a bare
number combined with --owner/--repo (or a detectable origin remote).
Subcommands review local changes instead of a pull request.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("a pull request reference or subcommand is required")
		}

		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		target, err := resolveReference(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}

		client, err := github.NewClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}

		runner, err := buildRunner(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if providers.IsAuthError(err) {
				exitCode = ExitAuthError
			} else {
				exitCode = ExitRuntimeError
			}
			return nil
		}

		agents, err := selectAgents(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}

		post := cfg.PostComments || flagPost
		if flagDryRun {
			post = false
		}

		bus := progress.NewBus(0)
		done := renderProgress(bus, flagQuiet)

		orch := review.NewOrchestrator(runner, client, client, bus, review.Options{
			Agents:       agents,
			Skip:         skipPolicy(cfg),
			Instructions: cfg.Instructions,
			Post:         post,
			TaskTimeout:  taskTimeout(cfg),
			Version:      version,
		})

		report, err := orch.Review(context.Background(), target)
		<-done
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if providers.IsAuthError(err) {
				exitCode = ExitAuthError
			} else {
				exitCode = ExitRuntimeError
			}
			return nil
		}

		finishReport(report, cfg)
		return nil
	},
}

// runLocalReview reviews a locally produced unified diff: parse it into
// per-file changes and hand them to the orchestrator under a manual
// target. Local runs never post comments.
func runLocalReview(res gitctx.DiffResult, cfg config.Config) {
	changes, err := diff.Parse(res.Diff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing diff: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	runner, err := buildRunner(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if providers.IsAuthError(err) {
			exitCode = ExitAuthError
		} else {
			exitCode = ExitRuntimeError
		}
		return
	}

	agents, err := selectAgents(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}

	bus := progress.NewBus(0)
	done := renderProgress(bus, flagQuiet)

	orch := review.NewOrchestrator(runner, nil, nil, bus, review.Options{
		Agents:       agents,
		Skip:         skipPolicy(cfg),
		Instructions: cfg.Instructions,
		TaskTimeout:  taskTimeout(cfg),
		Version:      version,
	})

	report, err := orch.ReviewChanges(context.Background(), review.ManualTarget(res.Mode), nil, changes)
	<-done
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	finishReport(report, cfg)
}

var reviewUnstagedCmd = &cobra.Command{
	Use:   "unstaged",
	Short: "Review unstaged changes (working tree vs index)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		res, err := gitctx.Unstaged(buildDiffOpts(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		runLocalReview(res, cfg)
		return nil
	},
}

var reviewStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Review staged changes (index vs HEAD)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		res, err := gitctx.Staged(buildDiffOpts(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		runLocalReview(res, cfg)
		return nil
	},
}

var flagParent string

var reviewCommitCmd = &cobra.Command{
	Use:   "commit <sha>",
	Short: "Review a specific commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		res, err := gitctx.Commit(args[0], flagParent, buildDiffOpts(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		runLocalReview(res, cfg)
		return nil
	},
}

var flagMergeBase bool

var reviewRangeCmd = &cobra.Command{
	Use:   "range <revRange>",
	Short: "Review a revision range (e.g., origin/main..HEAD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		res, err := gitctx.Range(args[0], flagMergeBase, buildDiffOpts(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		runLocalReview(res, cfg)
		return nil
	},
}

var reviewDiffCmd = &cobra.Command{
	Use:   "diff [file]",
	Short: "Review a raw unified diff from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		var raw []byte
		if len(args) == 1 {
			raw, err = os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", args[0], err)
				exitCode = ExitRuntimeError
				return nil
			}
		} else {
			raw, err = io.ReadAll(os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
		}

		runLocalReview(gitctx.DiffResult{Diff: string(raw), Mode: "diff"}, cfg)
		return nil
	},
}

func init() {
	reviewCmd.AddCommand(reviewUnstagedCmd)
	reviewCmd.AddCommand(reviewStagedCmd)
	reviewCmd.AddCommand(reviewCommitCmd)
	reviewCmd.AddCommand(reviewRangeCmd)
	reviewCmd.AddCommand(reviewDiffCmd)

	for _, cmd := range []*cobra.Command{
		reviewCmd,
		reviewUnstagedCmd,
		reviewStagedCmd,
		reviewCommitCmd,
		reviewRangeCmd,
		reviewDiffCmd,
	} {
		addReviewFlags(cmd)
	}

	// PR-mode flags
	reviewCmd.Flags().StringVar(&flagOwner, "owner", "", "Repository owner for bare PR numbers (auto-detected if omitted)")
	reviewCmd.Flags().StringVar(&flagRepo, "repo", "", "Repository name for bare PR numbers (auto-detected if omitted)")
	reviewCmd.Flags().BoolVar(&flagPost, "post", false, "Post the summary as a PR comment")
	reviewCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Never post, regardless of config")

	// Commit-specific flags
	reviewCommitCmd.Flags().StringVar(&flagParent, "parent", "", "Override parent SHA (for merge commits)")

	// Range-specific flags
	reviewRangeCmd.Flags().BoolVar(&flagMergeBase, "merge-base", true, "Use merge base for branch comparisons")
}
