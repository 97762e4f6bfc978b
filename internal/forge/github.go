// Package forge wraps the gh CLI to provide issue and PR operations for
// the configured GitHub repository: fetch issues by label, mutate
// labels, and query PRs by head-branch prefix to detect merges. It
// follows the same subprocess-JSON idiom used elsewhere for PR adapters:
// shell out to the ambient CLI, decode its --json output, and never talk
// to the REST/GraphQL API directly.
package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Issue is the subset of GitHub issue fields pleb cares about.
type Issue struct {
	Number uint64   `json:"number"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	URL    string   `json:"url"`
	Labels []string
}

// ghIssue mirrors gh's --json output shape for issue list/view.
type ghIssue struct {
	Number uint64 `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	URL    string `json:"url"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

func (g ghIssue) toIssue() Issue {
	labels := make([]string, 0, len(g.Labels))
	for _, l := range g.Labels {
		labels = append(labels, l.Name)
	}
	return Issue{Number: g.Number, Title: g.Title, Body: g.Body, URL: g.URL, Labels: labels}
}

// Client talks to one owner/repo via the gh CLI.
type Client struct {
	Owner string
	Repo  string
}

// New constructs a Client for the given repository.
func New(owner, repo string) *Client {
	return &Client{Owner: owner, Repo: repo}
}

func (c *Client) repoArg() string {
	return fmt.Sprintf("%s/%s", c.Owner, c.Repo)
}

// trimOutput truncates subprocess stderr/stdout to a reasonable length for
// error messages.
func trimOutput(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

// IssuesWithLabel returns open issues carrying the given label. Paging is
// not implemented: gh's default page size comfortably covers the expected
// volume of pleb-labeled items.
func (c *Client) IssuesWithLabel(ctx context.Context, label string) ([]Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "gh", "issue", "list",
		"--repo", c.repoArg(),
		"--label", label,
		"--state", "open",
		"--json", "number,title,body,url,labels",
	).Output()
	if err != nil {
		return nil, fmt.Errorf("gh issue list: %w", err)
	}

	var raw []ghIssue
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("parse gh issue list output: %w", err)
	}
	issues := make([]Issue, 0, len(raw))
	for _, r := range raw {
		issues = append(issues, r.toIssue())
	}
	return issues, nil
}

// Issue fetches a single issue by number.
func (c *Client) Issue(ctx context.Context, number uint64) (Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "gh", "issue", "view", strconv.FormatUint(number, 10),
		"--repo", c.repoArg(),
		"--json", "number,title,body,url,labels",
	).Output()
	if err != nil {
		return Issue{}, fmt.Errorf("gh issue view #%d: %w", number, err)
	}

	var raw ghIssue
	if err := json.Unmarshal(out, &raw); err != nil {
		return Issue{}, fmt.Errorf("parse gh issue view output: %w", err)
	}
	return raw.toIssue(), nil
}

// IssueBodyHTML fetches the HTML-rendered issue body via the REST API.
// GitHub only exposes signed attachment URLs in the HTML-rendered body,
// not the raw markdown body, which the media fetcher needs to download
// images/videos attached to private-repo issues.
func (c *Client) IssueBodyHTML(ctx context.Context, number uint64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "gh", "api",
		fmt.Sprintf("repos/%s/%s/issues/%d", c.Owner, c.Repo, number),
		"-H", "Accept: application/vnd.github.full+json",
	).Output()
	if err != nil {
		return "", fmt.Errorf("gh api issues/%d: %w", number, err)
	}

	var resp struct {
		BodyHTML string `json:"body_html"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		return "", fmt.Errorf("parse issue body_html: %w", err)
	}
	return resp.BodyHTML, nil
}

// AddLabel adds a label to an issue.
func (c *Client) AddLabel(ctx context.Context, number uint64, label string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "gh", "issue", "edit", strconv.FormatUint(number, 10),
		"--repo", c.repoArg(),
		"--add-label", label,
	).CombinedOutput()
	if err != nil {
		return fmt.Errorf("gh issue edit --add-label: %s", trimOutput(out))
	}
	return nil
}

// RemoveLabel removes a label from an issue. A label that is already
// absent is treated as success, mirroring a tolerated 404 on the delete.
func (c *Client) RemoveLabel(ctx context.Context, number uint64, label string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "gh", "issue", "edit", strconv.FormatUint(number, 10),
		"--repo", c.repoArg(),
		"--remove-label", label,
	).CombinedOutput()
	if err != nil {
		lower := strings.ToLower(string(out))
		if strings.Contains(lower, "not found") || strings.Contains(lower, "404") {
			return nil
		}
		return fmt.Errorf("gh issue edit --remove-label: %s", trimOutput(out))
	}
	return nil
}

// ReplaceLabel adds `to` then removes `from`. It is logically atomic only
// at the orchestrator's granularity: if the remove step fails, the issue
// is left with both labels and the next poll cycle self-heals because
// membership is checked by presence of the new label, not absence of the
// old one.
func (c *Client) ReplaceLabel(ctx context.Context, number uint64, from, to string) error {
	if err := c.AddLabel(ctx, number, to); err != nil {
		return fmt.Errorf("replace label (add %s): %w", to, err)
	}
	if err := c.RemoveLabel(ctx, number, from); err != nil {
		return fmt.Errorf("replace label (remove %s): %w", from, err)
	}
	return nil
}

// ghPR mirrors the fields needed from gh pr list's --json output.
type ghPR struct {
	Number      uint64 `json:"number"`
	HeadRefName string `json:"headRefName"`
	State      string `json:"state"` // "OPEN", "MERGED", "CLOSED"
	MergedAt   string `json:"mergedAt"`
}

// CheckPRMerged looks for a PR whose head branch starts with "{number}-"
// and reports whether it is merged. The three-valued result follows
// Option<bool> semantics: (merged, true) when a matching PR was found,
// (false, false) when none was found or the query itself failed — any
// tool or network failure is downgraded to "not found" rather than
// surfaced as an error, since the caller's correct response either way
// is "try again next cycle".
func (c *Client) CheckPRMerged(ctx context.Context, number uint64) (merged bool, ok bool) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "gh", "pr", "list",
		"--repo", c.repoArg(),
		"--state", "all",
		"--json", "number,headRefName,state,mergedAt",
	).Output()
	if err != nil {
		return false, false
	}

	var prs []ghPR
	if err := json.Unmarshal(out, &prs); err != nil {
		return false, false
	}
	return matchMergedPR(prs, number)
}

// matchMergedPR finds the PR whose head branch carries the "{number}-"
// prefix convention and reports its merged status. Factored out of
// CheckPRMerged so the matching logic is testable without shelling out.
func matchMergedPR(prs []ghPR, number uint64) (merged bool, ok bool) {
	prefix := strconv.FormatUint(number, 10) + "-"
	for _, pr := range prs {
		if strings.HasPrefix(pr.HeadRefName, prefix) {
			return pr.State == "MERGED" || pr.MergedAt != "", true
		}
	}
	return false, false
}

// AuthenticatedUser returns the login of the currently authenticated gh
// user, used to embed the actor's handle in generated branch names.
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "gh", "api", "user", "--jq", ".login").Output()
	if err != nil {
		return "", fmt.Errorf("gh api user: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
