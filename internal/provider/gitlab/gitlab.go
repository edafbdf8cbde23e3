// Package gitlab reads issues and merge requests from GitLab (gitlab.com or
// self-hosted via GITLAB_BASE_URL).
package gitlab

import (
	"context"

	"github.com/valksor/go-opsdesk/internal/cache"
	"github.com/valksor/go-opsdesk/internal/item"
	"github.com/valksor/go-opsdesk/internal/log"
	"github.com/valksor/go-opsdesk/internal/provider"
	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
	"github.com/valksor/go-opsdesk/internal/provider/token"
)

// ProviderName is the registered name for this provider
const ProviderName = string(item.ProviderGitLab)

// Options configures the adapter. Env vars take precedence over the
// config-file values below.
type Options struct {
	Token   string
	BaseURL string
	Project string
	Cache   *cache.Cache
	Remote  provider.RemoteLookup
}

// Adapter implements provider.Adapter for GitLab.
type Adapter struct {
	opts Options
}

var _ provider.Adapter = (*Adapter)(nil)

// New creates a GitLab adapter
func New(opts Options) *Adapter {
	if opts.Remote == nil {
		opts.Remote = provider.OriginURL
	}
	return &Adapter{opts: opts}
}

// ID implements provider.Adapter.
func (a *Adapter) ID() item.ProviderID { return item.ProviderGitLab }

func (a *Adapter) baseURL() string {
	if v := token.Env("GITLAB_BASE_URL"); v != "" {
		return v
	}
	if a.opts.BaseURL != "" {
		return a.opts.BaseURL
	}
	return DefaultBaseURL
}

// DetectRepo resolves the project path from CI_PROJECT_PATH, the configured
// project, then the origin remote on the GITLAB_BASE_URL host.
func (a *Adapter) DetectRepo(ctx context.Context, cwd string) (string, error) {
	if p := token.Env("CI_PROJECT_PATH"); p != "" {
		return p, nil
	}
	if a.opts.Project != "" {
		return a.opts.Project, nil
	}

	if remote, err := a.opts.Remote(ctx, cwd); err == nil {
		if p, ok := DetectProject(remote, provider.HostOf(a.baseURL())); ok {
			return p, nil
		}
	} else {
		log.Debug("no git remote", log.Provider(ProviderName), log.Err(err))
	}

	return "", providererrors.ScopeError(ProviderName, "--repo", "CI_PROJECT_PATH", "providers.gitlab.project", "git remote origin")
}

// FetchItem reads one issue or merge request. Merge requests are KindPR.
func (a *Adapter) FetchItem(ctx context.Context, req provider.FetchRequest) (*item.RemoteItem, error) {
	if req.Kind != item.KindIssue && req.Kind != item.KindPR {
		return nil, providererrors.UnsupportedKindError(ProviderName, string(req.Kind))
	}

	number, err := req.Number()
	if err != nil {
		return nil, err
	}

	project, err := provider.ResolveScope(ctx, a, req.Repo, req.Cwd)
	if err != nil {
		return nil, err
	}

	tok, err := ResolveToken(a.opts.Token)
	if err != nil {
		return nil, err
	}
	client, err := NewClient(tok, a.baseURL(), project, a.opts.Cache)
	if err != nil {
		return nil, err
	}

	log.Debug("fetching item", log.Provider(ProviderName), "project", project, "kind", req.Kind, "iid", number)

	if req.Kind == item.KindPR {
		mr, err := client.GetMergeRequest(ctx, int64(number))
		if err != nil {
			return nil, err
		}
		return mergeRequestToItem(project, mr), nil
	}

	issue, err := client.GetIssue(ctx, int64(number))
	if err != nil {
		return nil, err
	}
	return issueToItem(project, issue), nil
}

// ItemRef formats "group/project#N" for issues and "group/project!N" for merge requests.
func (a *Adapter) ItemRef(it *item.RemoteItem) string {
	if it.Kind == item.KindPR {
		return item.MergeRequestRef(it.Repo, it.Number)
	}
	return item.IssueRef(it.Repo, it.Number)
}
