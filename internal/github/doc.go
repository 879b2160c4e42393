// Package github provides a minimal GitHub REST API client for fetching
// pull-request context and publishing review summaries as issue comments.
//
// It reads credentials from the GITHUB_TOKEN environment variable, resolves
// owner/repo from the local git remote when only a PR number is given, parses
// user-supplied PR references into review targets, and verifies webhook
// signatures for serve mode. Client implements the review.Fetcher and
// review.Publisher contracts.
package github
