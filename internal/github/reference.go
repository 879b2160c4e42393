package github

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dshills/quorum/internal/review"
)

// InvalidReferenceError reports a pull-request reference that matched none of
// the accepted shapes.
type InvalidReferenceError struct {
	Input  string
	Reason string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid PR reference %q: %s", e.Input, e.Reason)
}

var (
	prURLRe   = regexp.MustCompile(`^https?://[^/\s]+/([^/\s]+)/([^/\s]+)/pull/(\d+)([/#?]\S*)?$`)
	prShortRe = regexp.MustCompile(`^([^/#\s]+)/([^/#\s]+)[/#](\d+)$`)
	numberRe  = regexp.MustCompile(`^\d+$`)
)

// ParseReference normalizes a user-supplied pull-request reference into a
// review.Target. Accepted shapes:
//
//	https://github.com/owner/repo/pull/42  (any host; a trailing slash,
//	                                        fragment, or query is tolerated)
//	owner/repo/42
//	owner/repo#42
//
// A bare number is rejected: repository context must be resolved first, for
// example via DetectRepo.
func ParseReference(input string) (review.Target, error) {
	ref := strings.TrimSpace(input)

	if m := prURLRe.FindStringSubmatch(ref); m != nil {
		return newTarget(ref, m[1], m[2], m[3])
	}
	if m := prShortRe.FindStringSubmatch(ref); m != nil {
		return newTarget(ref, m[1], m[2], m[3])
	}

	if numberRe.MatchString(ref) {
		return review.Target{}, &InvalidReferenceError{
			Input:  input,
			Reason: "a bare PR number has no repository context; use https://github.com/owner/repo/pull/" + ref + " or owner/repo/" + ref,
		}
	}
	return review.Target{}, &InvalidReferenceError{
		Input:  input,
		Reason: "expected https://github.com/owner/repo/pull/42, owner/repo/42, or owner/repo#42",
	}
}

func newTarget(ref, owner, repo, number string) (review.Target, error) {
	n, err := strconv.Atoi(number)
	if err != nil || n <= 0 {
		return review.Target{}, &InvalidReferenceError{Input: ref, Reason: "PR number out of range"}
	}
	return review.Target{Owner: owner, Repo: repo, Number: n}, nil
}
