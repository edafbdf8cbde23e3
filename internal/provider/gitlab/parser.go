package gitlab

import (
	"strconv"
	"strings"
	"time"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/valksor/go-opsdesk/internal/item"
	"github.com/valksor/go-opsdesk/internal/provider"
)

// DetectProject parses the group/project path from a git remote URL on host.
// Supports:
//   - git@gitlab.com:group/project.git
//   - https://gitlab.com/group/subgroup/project.git
//   - ssh://git@custom.host:2222/group/project.git (self-hosted)
func DetectProject(remoteURL, host string) (string, bool) {
	if host == "" {
		host = "gitlab.com"
	}
	path, ok := provider.RemotePath(remoteURL, host)
	if !ok || !strings.Contains(path, "/") {
		return "", false
	}
	return path, true
}

func issueToItem(project string, issue *gitlab.Issue) *item.RemoteItem {
	it := &item.RemoteItem{
		Provider:  item.ProviderGitLab,
		Kind:      item.KindIssue,
		Key:       strconv.FormatInt(issue.IID, 10),
		Repo:      project,
		Number:    int(issue.IID),
		Title:     issue.Title,
		Body:      issue.Description,
		State:     issue.State,
		URL:       issue.WebURL,
		Labels:    append([]string{}, issue.Labels...),
		Assignees: make([]string, 0, len(issue.Assignees)),
		UpdatedAt: formatTime(issue.UpdatedAt),
	}
	if issue.Author != nil {
		it.Author = issue.Author.Username
	}
	for _, a := range issue.Assignees {
		it.Assignees = append(it.Assignees, a.Username)
	}
	return it
}

func mergeRequestToItem(project string, mr *gitlab.MergeRequest) *item.RemoteItem {
	it := &item.RemoteItem{
		Provider:    item.ProviderGitLab,
		Kind:        item.KindPR,
		Key:         strconv.FormatInt(mr.IID, 10),
		Repo:        project,
		Number:      int(mr.IID),
		Title:       mr.Title,
		Body:        mr.Description,
		State:       mr.State,
		URL:         mr.WebURL,
		Labels:      append([]string{}, mr.Labels...),
		Assignees:   make([]string, 0, len(mr.Assignees)),
		UpdatedAt:   formatTime(mr.UpdatedAt),
		HeadRefName: mr.SourceBranch,
		BaseRefName: mr.TargetBranch,
	}
	if mr.Author != nil {
		it.Author = mr.Author.Username
	}
	for _, a := range mr.Assignees {
		it.Assignees = append(it.Assignees, a.Username)
	}
	return it
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
