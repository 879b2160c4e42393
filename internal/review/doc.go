// Package review contains the core types and engine for multi-agent
// code review.
//
// It defines the [AnalysisResult], [Report], and [Severity] types,
// builds deterministic per-agent prompts over file diffs, and extracts
// structured verdicts from free-text agent responses with an explicit
// line state machine (extract.go) backed by a shared keyword severity
// classifier (classify.go).
//
// The [Orchestrator] drives a run: changed files are analyzed one at a
// time while the configured agents for each file run concurrently, every
// task failure is isolated into its result, and progress is reported on
// a bus throughout. When the file set is exhausted the results are
// aggregated (aggregate.go) into severity counts, a fixed-threshold
// recommendation, and a rendered summary that can be posted back to the
// pull request.
//
// The built-in agent roster (agents.go) covers logic, security,
// performance, readability, and an opt-in test-coverage role; roster
// files may override or extend it per agent, including the severity
// vocabulary used for classification.
package review
