// Package httpclient provides the shared HTTP plumbing for REST-backed providers.
//
// Requests are never retried here: a failed read surfaces to the caller,
// which decides whether the whole run should be repeated.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
)

// DefaultTimeout bounds a single provider request.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is kept in the message.
const maxErrorBody = 512

// HTTPError represents an HTTP error with status code.
// This type implements the HTTPStatusCode() interface expected by providererrors.
type HTTPError struct {
	Message string
	Code    int
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.Code)
}

// HTTPStatusCode returns the HTTP status code.
func (e *HTTPError) HTTPStatusCode() int {
	return e.Code
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{Code: code, Message: message}
}

// NewHTTPClient creates a new http.Client with the default timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// NewHTTPClientWithTimeout creates a new http.Client with a custom timeout.
func NewHTTPClientWithTimeout(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Authorizer decorates an outgoing request with credentials.
type Authorizer func(*http.Request)

// Basic returns an Authorizer using HTTP basic auth.
func Basic(user, password string) Authorizer {
	return func(req *http.Request) {
		req.SetBasicAuth(user, password)
	}
}

// Bearer returns an Authorizer using a bearer token.
func Bearer(token string) Authorizer {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// GetJSON performs one GET against url and decodes the JSON response into out.
// Failures are returned as *providererrors.RequestError tagged with provider.
func GetJSON(ctx context.Context, client *http.Client, provider, url string, auth Authorizer, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", provider, err)
	}
	req.Header.Set("Accept", "application/json")
	if auth != nil {
		auth(req)
	}

	resp, err := client.Do(req)
	if err != nil {
		return providererrors.WrapHTTPError(err, provider)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return providererrors.NewRequestError(provider, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return providererrors.WrapHTTPError(NewHTTPError(resp.StatusCode, snippet(body)), provider)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return providererrors.NewRequestError(provider, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}

	return nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
