// Quorum reviews pull requests and local changes with a panel of focused
// analysis agents and merges their verdicts into one severity-ranked report.
//
// It reviews GitHub pull requests, staged, unstaged, commit, range, and raw
// diffs, emitting structured reports with deterministic exit codes suitable
// for CI gating and git hooks, and can run as an HTTP server that streams
// review progress.
//
// Usage:
//
//	quorum review owner/repo#42       # review a pull request
//	quorum review staged              # review staged changes
//	quorum review unstaged            # review working tree changes
//	quorum review commit <sha>        # review a specific commit
//	quorum review range origin/main..HEAD  # review a revision range
//	quorum review diff patch.diff     # review a raw unified diff
//	quorum serve                      # run the HTTP server
//
// See https://github.com/dshills/quorum for full documentation.
package main
