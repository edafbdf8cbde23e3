package azuredevops

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valksor/go-opsdesk/internal/item"
	"github.com/valksor/go-opsdesk/internal/provider"
	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
)

// Scope is an organization/project pair plus an optional repository.
type Scope struct {
	Organization string
	Project      string
	Repository   string
}

// String renders "org/project" or "org/project/repo".
func (s Scope) String() string {
	if s.Repository == "" {
		return s.Organization + "/" + s.Project
	}
	return s.Organization + "/" + s.Project + "/" + s.Repository
}

// ParseScope parses "org/project[/repo]".
func ParseScope(raw string) (Scope, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(raw), "/"), "/")
	for _, p := range parts {
		if p == "" {
			return Scope{}, fmt.Errorf("%w: %q is not org/project[/repo]", providererrors.ErrInvalidReference, raw)
		}
	}
	switch len(parts) {
	case 2:
		return Scope{Organization: parts[0], Project: parts[1]}, nil
	case 3:
		return Scope{Organization: parts[0], Project: parts[1], Repository: parts[2]}, nil
	}
	return Scope{}, fmt.Errorf("%w: %q is not org/project[/repo]", providererrors.ErrInvalidReference, raw)
}

// DetectScope parses a git remote URL. Supports:
//   - https://dev.azure.com/{org}/{project}/_git/{repo}
//   - https://{org}@dev.azure.com/{org}/{project}/_git/{repo}
//   - https://{org}.visualstudio.com/{project}/_git/{repo}
//   - git@ssh.dev.azure.com:v3/{org}/{project}/{repo}
func DetectScope(remoteURL string) (Scope, bool) {
	if path, ok := provider.RemotePath(remoteURL, "dev.azure.com"); ok {
		parts := strings.Split(path, "/")
		if len(parts) == 4 && parts[2] == "_git" {
			return Scope{Organization: parts[0], Project: parts[1], Repository: parts[3]}, true
		}
	}

	if path, ok := provider.RemotePath(remoteURL, "ssh.dev.azure.com"); ok {
		parts := strings.Split(path, "/")
		if len(parts) == 4 && parts[0] == "v3" {
			return Scope{Organization: parts[1], Project: parts[2], Repository: parts[3]}, true
		}
	}

	host := provider.HostOf(remoteURL)
	if org, ok := strings.CutSuffix(host, ".visualstudio.com"); ok {
		if path, ok := provider.RemotePath(remoteURL, host); ok {
			parts := strings.Split(path, "/")
			if len(parts) == 3 && parts[1] == "_git" {
				return Scope{Organization: org, Project: parts[0], Repository: parts[2]}, true
			}
		}
	}

	return Scope{}, false
}

func workItemToItem(scope Scope, webURL string, wi *WorkItem) *item.RemoteItem {
	body := wi.Fields.Description
	if strings.TrimSpace(body) == "" {
		body = wi.Fields.ReproSteps
	}
	if wi.Links.HTML.Href != "" {
		webURL = wi.Links.HTML.Href
	}

	it := &item.RemoteItem{
		Provider:  item.ProviderAzure,
		Kind:      item.KindIssue,
		Key:       strconv.Itoa(wi.ID),
		Repo:      scope.String(),
		Number:    wi.ID,
		Title:     wi.Fields.Title,
		Body:      provider.HTMLToText(body),
		Author:    wi.Fields.CreatedBy.Login(),
		State:     wi.Fields.State,
		URL:       webURL,
		Labels:    splitTags(wi.Fields.Tags),
		Assignees: []string{},
		UpdatedAt: normalizeTime(wi.Fields.ChangedDate),
	}
	if login := wi.Fields.AssignedTo.Login(); login != "" {
		it.Assignees = append(it.Assignees, login)
	}
	return it
}

func pullRequestToItem(scope Scope, webURL string, pr *PullRequest) *item.RemoteItem {
	updated := pr.ClosedDate
	if updated == "" {
		updated = pr.CreationDate
	}

	it := &item.RemoteItem{
		Provider:    item.ProviderAzure,
		Kind:        item.KindPR,
		Key:         strconv.Itoa(pr.PullRequestID),
		Repo:        scope.String(),
		Number:      pr.PullRequestID,
		Title:       pr.Title,
		Body:        pr.Description,
		Author:      pr.CreatedBy.Login(),
		State:       pr.Status,
		URL:         webURL,
		Labels:      []string{},
		Assignees:   make([]string, 0, len(pr.Reviewers)),
		UpdatedAt:   normalizeTime(updated),
		HeadRefName: strings.TrimPrefix(pr.SourceRefName, "refs/heads/"),
		BaseRefName: strings.TrimPrefix(pr.TargetRefName, "refs/heads/"),
	}
	for _, l := range pr.Labels {
		if l.Active == nil || *l.Active {
			it.Labels = append(it.Labels, l.Name)
		}
	}
	for i := range pr.Reviewers {
		if login := pr.Reviewers[i].Login(); login != "" {
			it.Assignees = append(it.Assignees, login)
		}
	}
	return it
}

// splitTags splits the "a; b; c" tag string.
func splitTags(tags string) []string {
	out := []string{}
	for _, t := range strings.Split(tags, ";") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func normalizeTime(s string) string {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	return s
}
