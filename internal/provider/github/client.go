package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v67/github"
	"golang.org/x/oauth2"

	"github.com/valksor/go-opsdesk/internal/cache"
	"github.com/valksor/go-opsdesk/internal/log"
	"github.com/valksor/go-opsdesk/internal/provider"
	"github.com/valksor/go-opsdesk/internal/provider/token"
)

// Client wraps the GitHub API client for one repository
type Client struct {
	gh    *github.Client
	cache *cache.Cache
	owner string
	repo  string
}

// NewClient creates a GitHub API client authenticated with tok. baseURL
// overrides the API root (GitHub Enterprise, tests); empty means api.github.com.
func NewClient(ctx context.Context, tok, baseURL, owner, repo string, c *cache.Cache) (*Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok})
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	if baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github: parse base url: %w", err)
		}
		client.BaseURL = u
	}

	return &Client{gh: client, owner: owner, repo: repo, cache: c}, nil
}

// CacheKey generates a namespaced cache key for this client
func (c *Client) CacheKey(resourceType string, number int) string {
	return cache.Key(ProviderName, c.owner+"/"+c.repo, resourceType, strconv.Itoa(number))
}

// ResolveToken finds the GitHub token from multiple sources.
// Priority order:
//  1. OPSDESK_GITHUB_TOKEN env var
//  2. GH_TOKEN, GITHUB_TOKEN env vars
//  3. configToken (from .ops/config.yaml)
//  4. gh CLI auth token (via `gh auth token`)
func ResolveToken(ctx context.Context, configToken string, run provider.CommandRunner) (string, error) {
	return token.Resolve(token.Config(ProviderName, "GH_TOKEN", "GITHUB_TOKEN").
		WithConfigToken(configToken).
		WithCLIFallback(func() string { return ghCLIToken(ctx, run) }))
}

func ghCLIToken(ctx context.Context, run provider.CommandRunner) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := run(ctx, "", "gh", "auth", "token")
	if err != nil {
		log.Debug("gh auth token unavailable", log.Err(err))
		return ""
	}
	return strings.TrimSpace(string(out))
}

// GetIssue fetches an issue by number
func (c *Client) GetIssue(ctx context.Context, number int) (*github.Issue, error) {
	key := c.CacheKey("issue", number)
	if val, ok := c.cache.Get(key); ok {
		if issue, ok := val.(*github.Issue); ok {
			return issue, nil
		}
	}

	issue, _, err := c.gh.Issues.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return nil, wrapAPIError(err)
	}

	c.cache.Set(key, issue, cache.DefaultItemTTL)
	return issue, nil
}

// GetPullRequest fetches a pull request by number
func (c *Client) GetPullRequest(ctx context.Context, number int) (*github.PullRequest, error) {
	key := c.CacheKey("pr", number)
	if val, ok := c.cache.Get(key); ok {
		if pr, ok := val.(*github.PullRequest); ok {
			return pr, nil
		}
	}

	pr, _, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return nil, wrapAPIError(err)
	}

	c.cache.Set(key, pr, cache.DefaultItemTTL)
	return pr, nil
}
