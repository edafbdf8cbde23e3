package gitlab

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/valksor/go-opsdesk/internal/cache"
	"github.com/valksor/go-opsdesk/internal/provider/token"
)

// DefaultBaseURL is used when GITLAB_BASE_URL is unset.
const DefaultBaseURL = "https://gitlab.com"

// Client wraps the GitLab API client for one project.
type Client struct {
	gl          *gitlab.Client
	cache       *cache.Cache
	projectPath string
}

// NewClient creates a GitLab API client. The client's built-in retry loop is
// disabled so a failed read is reported once.
func NewClient(tok, baseURL, projectPath string, c *cache.Cache) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	apiURL := strings.TrimSuffix(baseURL, "/") + "/api/v4"

	gl, err := gitlab.NewClient(tok, gitlab.WithBaseURL(apiURL), gitlab.WithCustomRetryMax(0))
	if err != nil {
		return nil, fmt.Errorf("gitlab: create client: %w", err)
	}

	return &Client{gl: gl, projectPath: projectPath, cache: c}, nil
}

// ResolveToken finds the GitLab token.
// Priority order:
//  1. OPSDESK_GITLAB_TOKEN env var
//  2. GITLAB_TOKEN env var
//  3. configToken (from .ops/config.yaml)
func ResolveToken(configToken string) (string, error) {
	return token.Resolve(token.Config(ProviderName, "GITLAB_TOKEN").WithConfigToken(configToken))
}

func (c *Client) cacheKey(resourceType string, iid int64) string {
	return cache.Key(ProviderName, c.projectPath, resourceType, strconv.FormatInt(iid, 10))
}

// GetIssue fetches an issue by IID (project-scoped number).
func (c *Client) GetIssue(ctx context.Context, iid int64) (*gitlab.Issue, error) {
	key := c.cacheKey("issue", iid)
	if val, ok := c.cache.Get(key); ok {
		if issue, ok := val.(*gitlab.Issue); ok {
			return issue, nil
		}
	}

	issue, _, err := c.gl.Issues.GetIssue(c.projectPath, iid, gitlab.WithContext(ctx))
	if err != nil {
		return nil, wrapAPIError(err)
	}

	c.cache.Set(key, issue, cache.DefaultItemTTL)
	return issue, nil
}

// GetMergeRequest fetches a merge request by IID.
func (c *Client) GetMergeRequest(ctx context.Context, iid int64) (*gitlab.MergeRequest, error) {
	key := c.cacheKey("mr", iid)
	if val, ok := c.cache.Get(key); ok {
		if mr, ok := val.(*gitlab.MergeRequest); ok {
			return mr, nil
		}
	}

	mr, _, err := c.gl.MergeRequests.GetMergeRequest(c.projectPath, iid, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, wrapAPIError(err)
	}

	c.cache.Set(key, mr, cache.DefaultItemTTL)
	return mr, nil
}
