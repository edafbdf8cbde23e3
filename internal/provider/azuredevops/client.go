package azuredevops

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/valksor/go-opsdesk/internal/provider/httpclient"
	"github.com/valksor/go-opsdesk/internal/provider/token"
)

const (
	// DefaultBaseURL is the Azure DevOps Services root.
	DefaultBaseURL = "https://dev.azure.com"
	apiVersion     = "7.1"
)

// Client wraps the Azure DevOps REST API for one organization/project.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	organization string
	project      string
	auth         httpclient.Authorizer
}

// NewClient creates a client that authenticates with a personal access token.
func NewClient(baseURL, organization, project, pat string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient:   httpclient.NewHTTPClient(),
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		organization: organization,
		project:      project,
		auth:         httpclient.Basic("", pat),
	}
}

// ResolveToken finds the Azure DevOps PAT.
// Priority:
//  1. OPSDESK_AZURE_TOKEN
//  2. AZURE_DEVOPS_PAT
//  3. SYSTEM_ACCESSTOKEN (for Azure Pipelines)
func ResolveToken() (string, error) {
	return token.Resolve(token.Config(ProviderName, "AZURE_DEVOPS_PAT", "SYSTEM_ACCESSTOKEN"))
}

func (c *Client) projectURL() string {
	return c.baseURL + "/" + url.PathEscape(c.organization) + "/" + url.PathEscape(c.project)
}

// GetWorkItem fetches a work item by ID.
func (c *Client) GetWorkItem(ctx context.Context, id int) (*WorkItem, error) {
	endpoint := fmt.Sprintf("%s/_apis/wit/workitems/%d?api-version=%s", c.projectURL(), id, apiVersion)

	var wi WorkItem
	if err := httpclient.GetJSON(ctx, c.httpClient, ProviderName, endpoint, c.auth, &wi); err != nil {
		return nil, err
	}
	return &wi, nil
}

// GetPullRequest fetches a pull request of repo by ID.
func (c *Client) GetPullRequest(ctx context.Context, repo string, id int) (*PullRequest, error) {
	endpoint := fmt.Sprintf("%s/_apis/git/repositories/%s/pullrequests/%d?api-version=%s",
		c.projectURL(), url.PathEscape(repo), id, apiVersion)

	var pr PullRequest
	if err := httpclient.GetJSON(ctx, c.httpClient, ProviderName, endpoint, c.auth, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// WorkItemURL is the web page of a work item.
func (c *Client) WorkItemURL(id int) string {
	return fmt.Sprintf("%s/_workitems/edit/%d", c.projectURL(), id)
}

// PullRequestURL is the web page of a pull request.
func (c *Client) PullRequestURL(repo string, id int) string {
	return fmt.Sprintf("%s/_git/%s/pullrequest/%d", c.projectURL(), url.PathEscape(repo), id)
}

// --- API Types ---

// WorkItem represents an Azure DevOps work item
type WorkItem struct {
	ID     int            `json:"id"`
	Fields WorkItemFields `json:"fields"`
	Links  struct {
		HTML struct {
			Href string `json:"href"`
		} `json:"html"`
	} `json:"_links"`
}

// WorkItemFields contains the work item field values opsdesk reads
type WorkItemFields struct {
	Title        string    `json:"System.Title"`
	Description  string    `json:"System.Description"`
	ReproSteps   string    `json:"Microsoft.VSTS.TCM.ReproSteps"`
	State        string    `json:"System.State"`
	WorkItemType string    `json:"System.WorkItemType"`
	AssignedTo   *Identity `json:"System.AssignedTo"`
	CreatedBy    *Identity `json:"System.CreatedBy"`
	ChangedDate  string    `json:"System.ChangedDate"`
	Tags         string    `json:"System.Tags"`
}

// Identity represents an Azure DevOps user identity
type Identity struct {
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName"`
}

// Login returns the unique name, falling back to the display name.
func (i *Identity) Login() string {
	if i == nil {
		return ""
	}
	if i.UniqueName != "" {
		return i.UniqueName
	}
	return i.DisplayName
}

// PullRequest represents an Azure Repos pull request
type PullRequest struct {
	PullRequestID int        `json:"pullRequestId"`
	Status        string     `json:"status"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	SourceRefName string     `json:"sourceRefName"`
	TargetRefName string     `json:"targetRefName"`
	CreationDate  string     `json:"creationDate"`
	ClosedDate    string     `json:"closedDate"`
	CreatedBy     *Identity  `json:"createdBy"`
	Reviewers     []Identity `json:"reviewers"`
	Labels        []struct {
		Name   string `json:"name"`
		Active *bool  `json:"active"`
	} `json:"labels"`
}
