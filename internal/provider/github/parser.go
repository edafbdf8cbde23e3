package github

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v67/github"

	"github.com/valksor/go-opsdesk/internal/item"
	"github.com/valksor/go-opsdesk/internal/provider"
	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
)

// DefaultHost is the host matched in git remotes when no enterprise base URL is set.
const DefaultHost = "github.com"

// SplitRepo splits "owner/repo".
func SplitRepo(slug string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(slug), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("%w: %q is not owner/repo", providererrors.ErrInvalidReference, slug)
	}
	return owner, repo, nil
}

// DetectRepository parses "owner/repo" from a git remote URL on host.
// Supports:
//   - git@github.com:owner/repo.git
//   - https://github.com/owner/repo.git
//   - https://github.com/owner/repo
func DetectRepository(remoteURL, host string) (string, bool) {
	path, ok := provider.RemotePath(remoteURL, host)
	if !ok {
		return "", false
	}
	if _, _, err := SplitRepo(path); err != nil {
		return "", false
	}
	return path, true
}

func issueToItem(repo string, issue *github.Issue) *item.RemoteItem {
	n := issue.GetNumber()
	return &item.RemoteItem{
		Provider:  item.ProviderGitHub,
		Kind:      item.KindIssue,
		Key:       strconv.Itoa(n),
		Repo:      repo,
		Number:    n,
		Title:     issue.GetTitle(),
		Body:      issue.GetBody(),
		Author:    issue.GetUser().GetLogin(),
		State:     strings.ToLower(issue.GetState()),
		URL:       issue.GetHTMLURL(),
		Labels:    labelNames(issue.Labels),
		Assignees: logins(issue.Assignees),
		UpdatedAt: formatTime(issue.GetUpdatedAt()),
	}
}

func pullRequestToItem(repo string, pr *github.PullRequest) *item.RemoteItem {
	n := pr.GetNumber()
	state := strings.ToLower(pr.GetState())
	if pr.GetMerged() {
		state = "merged"
	}

	return &item.RemoteItem{
		Provider:    item.ProviderGitHub,
		Kind:        item.KindPR,
		Key:         strconv.Itoa(n),
		Repo:        repo,
		Number:      n,
		Title:       pr.GetTitle(),
		Body:        pr.GetBody(),
		Author:      pr.GetUser().GetLogin(),
		State:       state,
		URL:         pr.GetHTMLURL(),
		Labels:      labelNames(pr.Labels),
		Assignees:   logins(pr.Assignees),
		UpdatedAt:   formatTime(pr.GetUpdatedAt()),
		HeadRefName: pr.GetHead().GetRef(),
		BaseRefName: pr.GetBase().GetRef(),
	}
}

func labelNames(labels []*github.Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		if name := l.GetName(); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func logins(users []*github.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		if login := u.GetLogin(); login != "" {
			out = append(out, login)
		}
	}
	return out
}

func formatTime(ts github.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
