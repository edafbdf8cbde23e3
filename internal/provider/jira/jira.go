// Package jira reads issues from Jira Cloud or Jira Server/Data Center.
//
// Jira has no repository, so the scope is the project key; issue numbers
// given on the command line are joined with it ("PROJ" + 123 = PROJ-123).
package jira

import (
	"context"
	"strconv"
	"strings"

	"github.com/valksor/go-opsdesk/internal/item"
	"github.com/valksor/go-opsdesk/internal/log"
	"github.com/valksor/go-opsdesk/internal/provider"
	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
	"github.com/valksor/go-opsdesk/internal/provider/token"
)

// ProviderName is the registered name for this provider
const ProviderName = string(item.ProviderJira)

// Options carries config-file defaults; JIRA_* env vars win over them.
type Options struct {
	BaseURL string
	Email   string
	Project string
}

// Adapter implements provider.Adapter for Jira.
type Adapter struct {
	opts Options
}

var _ provider.Adapter = (*Adapter)(nil)

// New creates a Jira adapter
func New(opts Options) *Adapter {
	return &Adapter{opts: opts}
}

// ID implements provider.Adapter.
func (a *Adapter) ID() item.ProviderID { return item.ProviderJira }

// DetectRepo returns the project key from JIRA_PROJECT or config.
func (a *Adapter) DetectRepo(_ context.Context, _ string) (string, error) {
	if p := token.Env("JIRA_PROJECT"); p != "" {
		return strings.ToUpper(p), nil
	}
	if a.opts.Project != "" {
		return strings.ToUpper(a.opts.Project), nil
	}
	return "", providererrors.ScopeError(ProviderName, "--repo", "JIRA_PROJECT", "providers.jira.project")
}

// FetchItem reads one issue. Key may be "PROJ-123" or a bare number.
func (a *Adapter) FetchItem(ctx context.Context, req provider.FetchRequest) (*item.RemoteItem, error) {
	if req.Kind != item.KindIssue {
		return nil, providererrors.UnsupportedKindError(ProviderName, string(req.Kind))
	}

	scope := strings.TrimSpace(req.Repo)
	if scope == "" {
		scope, _ = a.DetectRepo(ctx, req.Cwd)
	}
	project, number, err := ParseKey(req.Key, scope)
	if err != nil {
		return nil, err
	}

	baseURL := token.Env("JIRA_BASE_URL")
	if baseURL == "" {
		baseURL = a.opts.BaseURL
	}
	if baseURL == "" {
		return nil, providererrors.MissingCredentialError(ProviderName, "JIRA_BASE_URL")
	}
	tok, err := ResolveToken()
	if err != nil {
		return nil, err
	}
	email := token.Env("JIRA_EMAIL", "JIRA_USER")
	if email == "" {
		email = a.opts.Email
	}

	key := project + "-" + strconv.Itoa(number)
	log.Debug("fetching item", log.Provider(ProviderName), "key", key)

	client := NewClient(baseURL, email, tok)
	issue, err := client.GetIssue(ctx, key)
	if err != nil {
		return nil, err
	}

	return issueToItem(project, number, client.BrowseURL(key), issue), nil
}

// ItemRef formats "PROJ#N" for issues and "PROJ#PRN" for pull requests.
func (a *Adapter) ItemRef(it *item.RemoteItem) string {
	if it.Kind == item.KindPR {
		return item.PullRequestRef(it.Repo, it.Number)
	}
	return item.IssueRef(it.Repo, it.Number)
}
