// Package errors provides the error taxonomy shared by all provider adapters.
package errors

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	// ErrScopeUnresolved is returned when no repository/project scope can be inferred.
	ErrScopeUnresolved = errors.New("scope unresolved")

	// ErrMissingCredential is returned when a required credential env var is unset.
	ErrMissingCredential = errors.New("missing credential")

	// ErrRequestFailed marks any failed network or API read against a provider.
	ErrRequestFailed = errors.New("provider request failed")

	// ErrUnauthorized is returned when the credential is invalid or expired.
	ErrUnauthorized = errors.New("credential unauthorized or expired")

	// ErrRateLimited is returned when the API rate limit is exceeded.
	ErrRateLimited = errors.New("api rate limit exceeded")

	// ErrNetworkError is returned for transport-level failures.
	ErrNetworkError = errors.New("network error")

	// ErrNotFound is returned when the remote item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguousReference is returned when a reference matches more than one item.
	ErrAmbiguousReference = errors.New("ambiguous reference")

	// ErrInvalidReference is returned when a reference cannot be parsed.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrUnsupported is returned when a provider has no notion of the requested kind.
	ErrUnsupported = errors.New("unsupported item kind")
)

// RequestError carries the provider name and HTTP status of a failed read.
// Status is zero when the failure happened below HTTP (DNS, TLS, process exit).
type RequestError struct {
	Err      error
	Provider string
	Status   int
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: request failed (HTTP %d): %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
}

// Unwrap exposes both ErrRequestFailed and the underlying cause.
func (e *RequestError) Unwrap() []error {
	return []error{ErrRequestFailed, e.Err}
}

// NewRequestError wraps err with provider context.
func NewRequestError(provider string, status int, err error) error {
	if err == nil {
		return nil
	}
	return &RequestError{Provider: provider, Status: status, Err: err}
}

// IsNotFound returns true if err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized returns true if err is or wraps ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsRateLimited returns true if err is or wraps ErrRateLimited.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// StatusOf returns the HTTP status carried by err, or zero.
func StatusOf(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}

// WrapHTTPError converts a client error into a *RequestError, classifying the
// status code into the taxonomy above. Errors exposing neither a status code
// nor a net.Error are still wrapped with a zero status.
func WrapHTTPError(err error, providerName string) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return NewRequestError(providerName, 0, fmt.Errorf("%w: %v", ErrNetworkError, err))
	}

	type statusCoder interface {
		StatusCode() int
	}
	type httpStatuser interface {
		HTTPStatusCode() int
	}

	var statusCode int
	var sc statusCoder
	var hs httpStatuser
	switch {
	case errors.As(err, &hs):
		statusCode = hs.HTTPStatusCode()
	case errors.As(err, &sc):
		statusCode = sc.StatusCode()
	default:
		return NewRequestError(providerName, 0, err)
	}

	return NewRequestError(providerName, statusCode, classify(statusCode, err))
}

func classify(statusCode int, err error) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	case http.StatusForbidden:
		if strings.Contains(strings.ToLower(err.Error()), "rate limit") {
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	default:
		return err
	}
}

// MissingCredentialError names the env vars a provider reads its credential from.
func MissingCredentialError(provider string, envVars ...string) error {
	return fmt.Errorf("%s: %w (set %s)", provider, ErrMissingCredential, strings.Join(envVars, " or "))
}

// ScopeError reports that none of the listed sources produced a scope.
func ScopeError(provider string, tried ...string) error {
	return fmt.Errorf("%s: %w (tried %s)", provider, ErrScopeUnresolved, strings.Join(tried, ", "))
}

// UnsupportedKindError reports a kind the provider cannot fetch.
func UnsupportedKindError(provider, kind string) error {
	return fmt.Errorf("%s: %w: %s", provider, ErrUnsupported, kind)
}
