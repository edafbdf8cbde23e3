package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/valksor/go-opsdesk/internal/provider/httpclient"
	"github.com/valksor/go-opsdesk/internal/provider/token"
)

const (
	// Jira API versions.
	cloudAPIVersion  = "3"
	serverAPIVersion = "2"

	issueFields = "summary,description,status,labels,assignee,reporter,updated"
)

// Client is a minimal Jira REST client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	auth       httpclient.Authorizer
	apiVersion string
}

// NewClient creates a Jira client. With an email the token is sent as basic
// auth (Jira Cloud); without one it is sent as a bearer PAT (Server/Data Center).
func NewClient(baseURL, email, tok string) *Client {
	apiVersion := serverAPIVersion
	if strings.Contains(baseURL, "atlassian.net") {
		apiVersion = cloudAPIVersion
	}

	auth := httpclient.Bearer(tok)
	if email != "" {
		auth = httpclient.Basic(email, tok)
	}

	return &Client{
		httpClient: httpclient.NewHTTPClient(),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		auth:       auth,
		apiVersion: apiVersion,
	}
}

// ResolveToken finds the Jira API token.
// Priority order:
//  1. OPSDESK_JIRA_TOKEN env var
//  2. JIRA_API_TOKEN env var
func ResolveToken() (string, error) {
	return token.Resolve(token.Config(ProviderName, "JIRA_API_TOKEN"))
}

// GetIssue fetches an issue by key ("PROJ-123") with rendered HTML fields.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	q := url.Values{}
	q.Set("fields", issueFields)
	q.Set("expand", "renderedFields")
	endpoint := c.baseURL + "/rest/api/" + c.apiVersion + "/issue/" + url.PathEscape(key) + "?" + q.Encode()

	var issue Issue
	if err := httpclient.GetJSON(ctx, c.httpClient, ProviderName, endpoint, c.auth, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// BrowseURL returns the human-facing page for key.
func (c *Client) BrowseURL(key string) string {
	return c.baseURL + "/browse/" + key
}

// Issue is the subset of the Jira issue resource opsdesk reads.
type Issue struct {
	Key            string         `json:"key"`
	Fields         Fields         `json:"fields"`
	RenderedFields RenderedFields `json:"renderedFields"`
}

// Fields contains issue fields. Description is a string on API v2 and an
// Atlassian Document Format object on v3.
type Fields struct {
	Summary     string          `json:"summary"`
	Description json.RawMessage `json:"description"`
	Status      *Status         `json:"status"`
	Labels      []string        `json:"labels"`
	Assignee    *User           `json:"assignee"`
	Reporter    *User           `json:"reporter"`
	Updated     string          `json:"updated"`
}

// RenderedFields holds the HTML renderings requested with expand=renderedFields.
type RenderedFields struct {
	Description string `json:"description"`
}

// Status represents issue status.
type Status struct {
	Name string `json:"name"`
}

// User is a Jira account.
type User struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	AccountID    string `json:"accountId"`
}

// Login picks the most stable printable identifier.
func (u *User) Login() string {
	if u == nil {
		return ""
	}
	for _, s := range []string{u.Name, u.EmailAddress, u.DisplayName, u.AccountID} {
		if s != "" {
			return s
		}
	}
	return ""
}
