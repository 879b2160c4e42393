package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/dshills/quorum/internal/review"
)

const (
	defaultAPIURL = "https://api.github.com"
	filesPerPage  = 100
)

// Client provides access to the GitHub REST API. It implements the
// review.Fetcher and review.Publisher contracts.
type Client struct {
	token   string
	apiURL  string
	httpCli *http.Client
}

// NewClient creates a GitHub API client. GITHUB_TOKEN must be set;
// GITHUB_API_URL redirects the client to an enterprise host or a test
// server when present.
func NewClient() (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is not set")
	}
	return &Client{
		token:   token,
		apiURL:  apiBase(),
		httpCli: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func apiBase() string {
	if u := os.Getenv("GITHUB_API_URL"); u != "" {
		return strings.TrimRight(u, "/")
	}
	return defaultAPIURL
}

// prRef identifies the pull request a call is about, for error messages.
type prRef struct {
	owner  string
	repo   string
	number int
}

// apiRequest performs one authenticated call and returns the response
// body. action labels transport failures ("fetching PR"); a non-nil
// payload turns the call into a JSON POST.
func (c *Client) apiRequest(ctx context.Context, method, url, action string, pr prRef, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if err := checkStatus(resp.StatusCode, body, pr); err != nil {
		return nil, err
	}
	return body, nil
}

// checkStatus translates GitHub's error statuses into the messages the
// CLI surfaces to users.
func checkStatus(code int, body []byte, pr prRef) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == 404:
		return fmt.Errorf("PR #%d not found in %s/%s", pr.number, pr.owner, pr.repo)
	case code == 401 || code == 403:
		return fmt.Errorf("authentication failed: %s", body)
	case code == 422:
		return fmt.Errorf("GitHub rejected comment (422): %s", body)
	default:
		return fmt.Errorf("GitHub API error (status %d): %s", code, body)
	}
}

// prPayload mirrors the fields of the pulls endpoint the review needs.
type prPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	User  struct {
		Login string `json:"login"`
	} `json:"user"`
	Base struct {
		Ref string `json:"ref"`
	} `json:"base"`
	Head struct {
		Ref string `json:"ref"`
	} `json:"head"`
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
	ChangedFiles int `json:"changed_files"`
}

// FetchPR fetches pull-request metadata.
func (c *Client) FetchPR(ctx context.Context, owner, repo string, number int) (review.PullRequest, error) {
	pr := prRef{owner, repo, number}
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.apiURL, owner, repo, number)

	body, err := c.apiRequest(ctx, "GET", url, "fetching PR", pr, nil)
	if err != nil {
		return review.PullRequest{}, err
	}
	var p prPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return review.PullRequest{}, fmt.Errorf("parsing response: %w", err)
	}

	return review.PullRequest{
		Title:        p.Title,
		Description:  p.Body,
		Author:       p.User.Login,
		BaseBranch:   p.Base.Ref,
		HeadBranch:   p.Head.Ref,
		Additions:    p.Additions,
		Deletions:    p.Deletions,
		ChangedFiles: p.ChangedFiles,
	}, nil
}

// filePayload mirrors the fields of the files endpoint the review needs.
type filePayload struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Patch     string `json:"patch"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// FetchChangedFiles fetches the full change set of a pull request, following
// pagination on the files endpoint. Binary and oversized files come back with
// an empty patch; the skip policy and the task runner handle those downstream.
func (c *Client) FetchChangedFiles(ctx context.Context, owner, repo string, number int) ([]review.FileChange, error) {
	pr := prRef{owner, repo, number}

	var changes []review.FileChange
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d",
			c.apiURL, owner, repo, number, filesPerPage, page)

		body, err := c.apiRequest(ctx, "GET", url, "fetching PR files", pr, nil)
		if err != nil {
			return nil, err
		}
		var files []filePayload
		if err := json.Unmarshal(body, &files); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}

		for _, f := range files {
			changes = append(changes, review.FileChange{
				Path:      f.Filename,
				Status:    f.Status,
				Patch:     f.Patch,
				Additions: f.Additions,
				Deletions: f.Deletions,
			})
		}
		if len(files) < filesPerPage {
			return changes, nil
		}
	}
}

// PostComment posts a general comment on the pull request's conversation
// thread and returns the created comment's id.
func (c *Client) PostComment(ctx context.Context, owner, repo string, number int, body string) (int64, error) {
	pr := prRef{owner, repo, number}
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.apiURL, owner, repo, number)

	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return 0, fmt.Errorf("marshaling comment: %w", err)
	}

	respBody, err := c.apiRequest(ctx, "POST", url, "posting comment", pr, payload)
	if err != nil {
		return 0, err
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil {
		return 0, fmt.Errorf("parsing response: %w", err)
	}
	return created.ID, nil
}

// remoteFormats covers the two git remote shapes in the wild: HTTPS and
// SSH scp-style. Both capture owner then repo.
var remoteFormats = []*regexp.Regexp{
	regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`),
	regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`),
}

// DetectRepo parses owner/repo from the git remote origin URL.
func DetectRepo() (owner, repo string, err error) {
	out, err := exec.Command("git", "remote", "get-url", "origin").Output()
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	return ParseRemoteURL(strings.TrimSpace(string(out)))
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(url, ".git")
	for _, re := range remoteFormats {
		if m := re.FindStringSubmatch(url); len(m) == 3 {
			return m[1], m[2], nil
		}
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}
