package testutil

import (
	"context"
	"strconv"
	"sync"

	"github.com/valksor/go-opsdesk/internal/item"
	"github.com/valksor/go-opsdesk/internal/provider"
	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
)

// StubProvider is an in-memory provider.Adapter. Items are keyed by
// "{kind}:{key}"; anything else fails like a remote 404.
type StubProvider struct {
	Provider item.ProviderID
	Repo     string
	Items    map[string]*item.RemoteItem

	mu    sync.Mutex
	calls int
}

var _ provider.Adapter = (*StubProvider)(nil)

// NewStubProvider returns a GitHub stub scoped to repo serving items.
func NewStubProvider(repo string, items ...*item.RemoteItem) *StubProvider {
	s := &StubProvider{Provider: item.ProviderGitHub, Repo: repo, Items: map[string]*item.RemoteItem{}}
	for _, it := range items {
		s.Items[string(it.Kind)+":"+it.Key] = it
	}
	return s
}

// Issue builds an open GitHub issue in repo.
func Issue(repo string, number int, title string) *item.RemoteItem {
	return &item.RemoteItem{
		Provider:  item.ProviderGitHub,
		Kind:      item.KindIssue,
		Key:       strconv.Itoa(number),
		Repo:      repo,
		Number:    number,
		Title:     title,
		State:     "open",
		Labels:    []string{},
		Assignees: []string{},
		UpdatedAt: "2026-01-01T00:00:00Z",
	}
}

func (s *StubProvider) ID() item.ProviderID { return s.Provider }

func (s *StubProvider) DetectRepo(context.Context, string) (string, error) { return s.Repo, nil }

// FetchItem returns a copy so callers cannot change the stub's items.
func (s *StubProvider) FetchItem(_ context.Context, req provider.FetchRequest) (*item.RemoteItem, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	it, ok := s.Items[string(req.Kind)+":"+req.Key]
	if !ok {
		return nil, providererrors.NewRequestError(string(s.Provider), 404, providererrors.ErrNotFound)
	}
	cp := *it
	return &cp, nil
}

func (s *StubProvider) ItemRef(it *item.RemoteItem) string {
	if it.Kind == item.KindPR {
		return item.PullRequestRef(it.Repo, it.Number)
	}
	return item.IssueRef(it.Repo, it.Number)
}

// Calls returns how many times FetchItem ran.
func (s *StubProvider) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
