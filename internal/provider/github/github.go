// Package github reads issues and pull requests from GitHub.
//
// Authentication prefers env tokens and falls back to the locally
// authenticated gh CLI, so a logged-in developer needs no configuration.
package github

import (
	"context"
	"strings"
	"sync"

	"github.com/valksor/go-opsdesk/internal/cache"
	"github.com/valksor/go-opsdesk/internal/item"
	"github.com/valksor/go-opsdesk/internal/log"
	"github.com/valksor/go-opsdesk/internal/provider"
	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
	"github.com/valksor/go-opsdesk/internal/provider/token"
)

// ProviderName is the registered name for this provider
const ProviderName = string(item.ProviderGitHub)

// Options configures the adapter.
type Options struct {
	// Token is the config-file token; env vars win over it.
	Token string
	// Repo is the configured default "owner/repo".
	Repo string
	// BaseURL overrides the API root for GitHub Enterprise.
	BaseURL string
	Cache   *cache.Cache
	Run     provider.CommandRunner
	Remote  provider.RemoteLookup
}

// Adapter implements provider.Adapter for GitHub.
type Adapter struct {
	opts Options

	mu  sync.Mutex
	tok string
}

var _ provider.Adapter = (*Adapter)(nil)

// New creates a GitHub adapter
func New(opts Options) *Adapter {
	if opts.Run == nil {
		opts.Run = provider.ExecCommand
	}
	if opts.Remote == nil {
		opts.Remote = provider.OriginURL
	}
	return &Adapter{opts: opts}
}

// ID implements provider.Adapter.
func (a *Adapter) ID() item.ProviderID { return item.ProviderGitHub }

func (a *Adapter) host() string {
	if a.opts.BaseURL != "" {
		if h := provider.HostOf(a.opts.BaseURL); h != "" && !strings.HasPrefix(h, "api.") {
			return h
		}
	}
	return DefaultHost
}

// DetectRepo resolves "owner/repo" from GITHUB_REPOSITORY, the configured
// repo, `gh repo view`, then the origin remote.
func (a *Adapter) DetectRepo(ctx context.Context, cwd string) (string, error) {
	if repo := token.Env("GITHUB_REPOSITORY"); repo != "" {
		return repo, nil
	}
	if a.opts.Repo != "" {
		return a.opts.Repo, nil
	}

	out, err := a.opts.Run(ctx, cwd, "gh", "repo", "view", "--json", "nameWithOwner", "--jq", ".nameWithOwner")
	if err == nil {
		if repo := strings.TrimSpace(string(out)); repo != "" {
			return repo, nil
		}
	} else {
		log.Debug("gh repo view failed", log.Provider(ProviderName), log.Err(err))
	}

	if remote, err := a.opts.Remote(ctx, cwd); err == nil {
		if repo, ok := DetectRepository(remote, a.host()); ok {
			return repo, nil
		}
	}

	return "", providererrors.ScopeError(ProviderName, "--repo", "GITHUB_REPOSITORY", "gh repo view", "git remote origin")
}

// FetchItem reads one issue or pull request.
func (a *Adapter) FetchItem(ctx context.Context, req provider.FetchRequest) (*item.RemoteItem, error) {
	if req.Kind != item.KindIssue && req.Kind != item.KindPR {
		return nil, providererrors.UnsupportedKindError(ProviderName, string(req.Kind))
	}

	number, err := req.Number()
	if err != nil {
		return nil, err
	}

	repo, err := provider.ResolveScope(ctx, a, req.Repo, req.Cwd)
	if err != nil {
		return nil, err
	}
	owner, name, err := SplitRepo(repo)
	if err != nil {
		return nil, err
	}

	tok, err := a.token(ctx)
	if err != nil {
		return nil, err
	}
	client, err := NewClient(ctx, tok, a.opts.BaseURL, owner, name, a.opts.Cache)
	if err != nil {
		return nil, err
	}

	log.Debug("fetching item", log.Provider(ProviderName), "repo", repo, "kind", req.Kind, "number", number)

	if req.Kind == item.KindPR {
		pr, err := client.GetPullRequest(ctx, number)
		if err != nil {
			return nil, err
		}
		return pullRequestToItem(repo, pr), nil
	}

	issue, err := client.GetIssue(ctx, number)
	if err != nil {
		return nil, err
	}
	return issueToItem(repo, issue), nil
}

// ItemRef formats "owner/repo#N" for issues and "owner/repo#PRN" for pull requests.
func (a *Adapter) ItemRef(it *item.RemoteItem) string {
	if it.Kind == item.KindPR {
		return item.PullRequestRef(it.Repo, it.Number)
	}
	return item.IssueRef(it.Repo, it.Number)
}

func (a *Adapter) token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.tok != "" {
		return a.tok, nil
	}
	tok, err := ResolveToken(ctx, a.opts.Token, a.opts.Run)
	if err != nil {
		return "", err
	}
	a.tok = tok
	return tok, nil
}
