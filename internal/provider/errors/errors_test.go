package errors

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
)

type statusErr struct {
	code int
	msg  string
}

func (e *statusErr) Error() string       { return e.msg }
func (e *statusErr) HTTPStatusCode() int { return e.code }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestWrapHTTPError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantIs     error
		wantStatus int
	}{
		{name: "not found", err: &statusErr{404, "missing"}, wantIs: ErrNotFound, wantStatus: 404},
		{name: "unauthorized", err: &statusErr{401, "bad token"}, wantIs: ErrUnauthorized, wantStatus: 401},
		{name: "forbidden rate limit", err: &statusErr{403, "API rate limit exceeded"}, wantIs: ErrRateLimited, wantStatus: 403},
		{name: "forbidden scope", err: &statusErr{403, "resource not accessible"}, wantIs: ErrUnauthorized, wantStatus: 403},
		{name: "too many requests", err: &statusErr{429, "slow down"}, wantIs: ErrRateLimited, wantStatus: 429},
		{name: "server error", err: &statusErr{500, "boom"}, wantIs: ErrRequestFailed, wantStatus: 500},
		{name: "wrapped status", err: fmt.Errorf("get: %w", &statusErr{404, "missing"}), wantIs: ErrNotFound, wantStatus: 404},
		{name: "network", err: timeoutErr{}, wantIs: ErrNetworkError, wantStatus: 0},
		{name: "plain", err: errors.New("exit status 1"), wantIs: ErrRequestFailed, wantStatus: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapHTTPError(tt.err, "jira")
			if !errors.Is(err, ErrRequestFailed) {
				t.Errorf("error %v does not wrap ErrRequestFailed", err)
			}
			if !errors.Is(err, tt.wantIs) {
				t.Errorf("error %v does not wrap %v", err, tt.wantIs)
			}
			if got := StatusOf(err); got != tt.wantStatus {
				t.Errorf("StatusOf = %d, want %d", got, tt.wantStatus)
			}
			if !strings.HasPrefix(err.Error(), "jira: ") {
				t.Errorf("message %q does not name the provider", err.Error())
			}
		})
	}
}

func TestWrapHTTPErrorNil(t *testing.T) {
	if err := WrapHTTPError(nil, "github"); err != nil {
		t.Errorf("WrapHTTPError(nil) = %v, want nil", err)
	}
}

func TestRequestErrorMessage(t *testing.T) {
	err := NewRequestError("gitlab", 502, errors.New("bad gateway"))
	want := "gitlab: request failed (HTTP 502): bad gateway"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Provider != "gitlab" {
		t.Errorf("errors.As did not expose provider: %#v", reqErr)
	}
}

func TestMissingCredentialError(t *testing.T) {
	err := MissingCredentialError("jira", "JIRA_API_TOKEN")
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("error %v does not wrap ErrMissingCredential", err)
	}
	if !strings.Contains(err.Error(), "JIRA_API_TOKEN") {
		t.Errorf("message %q does not name the env var", err.Error())
	}
}

func TestScopeError(t *testing.T) {
	err := ScopeError("azure", "--repo", "AZURE_ORG/AZURE_PROJECT/AZURE_REPO", "git remote")
	if !errors.Is(err, ErrScopeUnresolved) {
		t.Fatalf("error %v does not wrap ErrScopeUnresolved", err)
	}
}
