// Package cli wires together the Cobra command tree for the quorum binary.
//
// It defines the root command and all subcommands (review, agents, config,
// cache, hook, serve, version), binds flags, reads configuration, invokes
// the review engine, and returns deterministic exit codes for CI gating.
package cli
