// Package provider defines the adapter contract every remote system
// implements, the fixed lookup table that selects one, and the helpers they
// share (scope inference from git remotes, HTML to text, subprocess calls).
package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/valksor/go-opsdesk/internal/item"
	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
)

// FetchRequest names one item to read.
type FetchRequest struct {
	Kind item.Kind
	// Key is the number for issues and pull requests ("42", "#42", "!42" are
	// all accepted) and the path or title for local tasks.
	Key string
	// Cwd anchors scope detection.
	Cwd string
	// Repo is the explicit --repo scope; empty means detect.
	Repo string
}

// Number parses Key as an issue or pull request number.
func (r FetchRequest) Number() (int, error) {
	raw := strings.TrimLeft(strings.TrimSpace(r.Key), "#!")
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q is not a positive number", providererrors.ErrInvalidReference, r.Key)
	}
	return n, nil
}

// Adapter normalizes one remote system into item.RemoteItem.
type Adapter interface {
	// ID returns the provider this adapter serves.
	ID() item.ProviderID

	// DetectRepo infers the scope (repository slug, project key) for cwd
	// from provider env vars or the git remote. It fails with
	// providererrors.ErrScopeUnresolved when nothing yields a scope.
	DetectRepo(ctx context.Context, cwd string) (string, error)

	// FetchItem performs exactly one authenticated read.
	FetchItem(ctx context.Context, req FetchRequest) (*item.RemoteItem, error)

	// ItemRef formats the human-facing reference used in prompts.
	ItemRef(it *item.RemoteItem) string
}

// ResolveScope returns explicit when set, otherwise asks the adapter.
func ResolveScope(ctx context.Context, a Adapter, explicit, cwd string) (string, error) {
	if s := strings.TrimSpace(explicit); s != "" {
		return s, nil
	}
	return a.DetectRepo(ctx, cwd)
}
