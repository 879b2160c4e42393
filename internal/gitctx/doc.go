// Package gitctx extracts diffs from a local git repository for review
// without a pull request.
//
// It covers the unstaged, staged, commit, and range review modes by shelling
// out to git with appropriate arguments. Results are filtered by
// include/exclude glob patterns and truncated to a configurable maximum byte
// size at file-section granularity, so the surviving diff always parses.
package gitctx
