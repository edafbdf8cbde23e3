// Package azuredevops reads work items and pull requests from Azure DevOps.
//
// The scope is "org/project" for work items and "org/project/repo" for pull
// requests, since Azure Repos numbers pull requests per project but
// addresses them through a repository.
package azuredevops

import (
	"context"
	"strings"

	"github.com/valksor/go-opsdesk/internal/item"
	"github.com/valksor/go-opsdesk/internal/log"
	"github.com/valksor/go-opsdesk/internal/provider"
	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
	"github.com/valksor/go-opsdesk/internal/provider/token"
)

// ProviderName is the registered name for this provider
const ProviderName = string(item.ProviderAzure)

// Options carries config-file defaults; AZURE_* env vars win over them.
type Options struct {
	BaseURL      string
	Organization string
	Project      string
	Repository   string
	Remote       provider.RemoteLookup
}

// Adapter implements provider.Adapter for Azure DevOps.
type Adapter struct {
	opts Options
}

var _ provider.Adapter = (*Adapter)(nil)

// New creates an Azure DevOps adapter
func New(opts Options) *Adapter {
	if opts.Remote == nil {
		opts.Remote = provider.OriginURL
	}
	return &Adapter{opts: opts}
}

// ID implements provider.Adapter.
func (a *Adapter) ID() item.ProviderID { return item.ProviderAzure }

// DetectRepo resolves the scope from AZURE_ORG/AZURE_PROJECT/AZURE_REPO
// (config values fill unset ones), then the origin remote.
func (a *Adapter) DetectRepo(ctx context.Context, cwd string) (string, error) {
	envScope := Scope{
		Organization: firstNonEmpty(token.Env("AZURE_ORG"), a.opts.Organization),
		Project:      firstNonEmpty(token.Env("AZURE_PROJECT"), a.opts.Project),
		Repository:   firstNonEmpty(token.Env("AZURE_REPO"), a.opts.Repository),
	}
	if envScope.Organization != "" && envScope.Project != "" {
		return envScope.String(), nil
	}

	if remote, err := a.opts.Remote(ctx, cwd); err == nil {
		if s, ok := DetectScope(remote); ok {
			return s.String(), nil
		}
	} else {
		log.Debug("no git remote", log.Provider(ProviderName), log.Err(err))
	}

	return "", providererrors.ScopeError(ProviderName, "--repo", "AZURE_ORG/AZURE_PROJECT/AZURE_REPO", "git remote origin")
}

// FetchItem reads one work item (KindIssue) or pull request (KindPR).
func (a *Adapter) FetchItem(ctx context.Context, req provider.FetchRequest) (*item.RemoteItem, error) {
	if req.Kind != item.KindIssue && req.Kind != item.KindPR {
		return nil, providererrors.UnsupportedKindError(ProviderName, string(req.Kind))
	}

	number, err := req.Number()
	if err != nil {
		return nil, err
	}

	raw, err := provider.ResolveScope(ctx, a, req.Repo, req.Cwd)
	if err != nil {
		return nil, err
	}
	scope, err := ParseScope(raw)
	if err != nil {
		return nil, err
	}
	if req.Kind == item.KindPR && scope.Repository == "" {
		return nil, providererrors.ScopeError(ProviderName, "--repo org/project/repo", "AZURE_REPO")
	}

	pat, err := ResolveToken()
	if err != nil {
		return nil, err
	}
	baseURL := firstNonEmpty(token.Env("AZURE_DEVOPS_URL"), a.opts.BaseURL, DefaultBaseURL)
	client := NewClient(baseURL, scope.Organization, scope.Project, pat)

	log.Debug("fetching item", log.Provider(ProviderName), "scope", scope.String(), "kind", req.Kind, "id", number)

	if req.Kind == item.KindPR {
		pr, err := client.GetPullRequest(ctx, scope.Repository, number)
		if err != nil {
			return nil, err
		}
		return pullRequestToItem(scope, client.PullRequestURL(scope.Repository, number), pr), nil
	}

	wi, err := client.GetWorkItem(ctx, number)
	if err != nil {
		return nil, err
	}
	return workItemToItem(scope, client.WorkItemURL(number), wi), nil
}

// ItemRef formats "org/project/repo#N" for work items and "org/project/repo#PRN" for pull requests.
func (a *Adapter) ItemRef(it *item.RemoteItem) string {
	if it.Kind == item.KindPR {
		return item.PullRequestRef(it.Repo, it.Number)
	}
	return item.IssueRef(it.Repo, it.Number)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
