package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/valksor/go-opsdesk/internal/cache"
	"github.com/valksor/go-opsdesk/internal/item"
	"github.com/valksor/go-opsdesk/internal/provider"
	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{"GITHUB_REPOSITORY", "GH_TOKEN", "GITHUB_TOKEN", "OPSDESK_GITHUB_TOKEN"} {
		t.Setenv(v, "")
	}
}

func failingRun(context.Context, string, string, ...string) ([]byte, error) {
	return nil, errors.New("exit status 1")
}

func remoteOf(url string) provider.RemoteLookup {
	return func(context.Context, string) (string, error) {
		if url == "" {
			return "", errors.New("no remote")
		}
		return url, nil
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// DetectRepo
// ──────────────────────────────────────────────────────────────────────────────

func TestDetectRepo(t *testing.T) {
	t.Run("env wins", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GITHUB_REPOSITORY", "ci/repo")
		a := New(Options{Repo: "cfg/repo", Run: failingRun, Remote: remoteOf("")})

		got, err := a.DetectRepo(context.Background(), ".")
		if err != nil || got != "ci/repo" {
			t.Errorf("DetectRepo = %q, %v", got, err)
		}
	})

	t.Run("gh cli", func(t *testing.T) {
		clearEnv(t)
		var gotArgs []string
		run := func(_ context.Context, _ string, name string, args ...string) ([]byte, error) {
			gotArgs = append([]string{name}, args...)
			return []byte("acme/app\n"), nil
		}
		a := New(Options{Run: run, Remote: remoteOf("")})

		got, err := a.DetectRepo(context.Background(), ".")
		if err != nil || got != "acme/app" {
			t.Fatalf("DetectRepo = %q, %v", got, err)
		}
		if !strings.HasPrefix(strings.Join(gotArgs, " "), "gh repo view") {
			t.Errorf("ran %v", gotArgs)
		}
	})

	t.Run("git remote", func(t *testing.T) {
		clearEnv(t)
		a := New(Options{Run: failingRun, Remote: remoteOf("git@github.com:acme/widgets.git")})

		got, err := a.DetectRepo(context.Background(), ".")
		if err != nil || got != "acme/widgets" {
			t.Errorf("DetectRepo = %q, %v", got, err)
		}
	})

	t.Run("unresolved", func(t *testing.T) {
		clearEnv(t)
		a := New(Options{Run: failingRun, Remote: remoteOf("git@gitlab.com:acme/widgets.git")})

		_, err := a.DetectRepo(context.Background(), ".")
		if !errors.Is(err, providererrors.ErrScopeUnresolved) {
			t.Errorf("DetectRepo error = %v, want ErrScopeUnresolved", err)
		}
	})
}

func TestSplitRepo(t *testing.T) {
	if _, _, err := SplitRepo("acme"); !errors.Is(err, providererrors.ErrInvalidReference) {
		t.Errorf("SplitRepo(acme) error = %v", err)
	}
	if _, _, err := SplitRepo("a/b/c"); err == nil {
		t.Error("SplitRepo(a/b/c) should fail")
	}
	owner, repo, err := SplitRepo("acme/app")
	if err != nil || owner != "acme" || repo != "app" {
		t.Errorf("SplitRepo = %q, %q, %v", owner, repo, err)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// FetchItem
// ──────────────────────────────────────────────────────────────────────────────

func newTestServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/app/issues/12", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"number":     12,
			"title":      "Crash on start",
			"body":       "Steps to reproduce",
			"state":      "open",
			"html_url":   "https://github.com/acme/app/issues/12",
			"user":       map[string]any{"login": "octo"},
			"labels":     []map[string]any{{"name": "bug"}, {"name": "p1"}},
			"assignees":  []map[string]any{{"login": "alice"}},
			"updated_at": "2026-03-01T10:00:00Z",
		})
	})
	mux.HandleFunc("/repos/acme/app/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"number":     7,
			"title":      "Add cache",
			"body":       "",
			"state":      "closed",
			"merged":     true,
			"html_url":   "https://github.com/acme/app/pull/7",
			"user":       map[string]any{"login": "bob"},
			"head":       map[string]any{"ref": "feature/cache"},
			"base":       map[string]any{"ref": "main"},
			"updated_at": "2026-03-02T08:30:00Z",
		})
	})
	mux.HandleFunc("/repos/acme/app/issues/404", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Not Found"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchIssue(t *testing.T) {
	clearEnv(t)
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	a := New(Options{Token: "test-token", BaseURL: srv.URL, Cache: cache.New(), Run: failingRun})

	req := provider.FetchRequest{Kind: item.KindIssue, Key: "12", Repo: "acme/app"}
	got, err := a.FetchItem(context.Background(), req)
	if err != nil {
		t.Fatalf("FetchItem: %v", err)
	}

	want := &item.RemoteItem{
		Provider:  item.ProviderGitHub,
		Kind:      item.KindIssue,
		Key:       "12",
		Repo:      "acme/app",
		Number:    12,
		Title:     "Crash on start",
		Body:      "Steps to reproduce",
		Author:    "octo",
		State:     "open",
		URL:       "https://github.com/acme/app/issues/12",
		Labels:    []string{"bug", "p1"},
		Assignees: []string{"alice"},
		UpdatedAt: "2026-03-01T10:00:00Z",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FetchItem mismatch (-want +got):\n%s", diff)
	}
	if ref := a.ItemRef(got); ref != "acme/app#12" {
		t.Errorf("ItemRef = %q", ref)
	}

	if _, err := a.FetchItem(context.Background(), req); err != nil {
		t.Fatalf("second FetchItem: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1 (cached)", hits.Load())
	}
}

func TestFetchPullRequest(t *testing.T) {
	clearEnv(t)
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	a := New(Options{Token: "test-token", BaseURL: srv.URL, Run: failingRun})

	got, err := a.FetchItem(context.Background(), provider.FetchRequest{Kind: item.KindPR, Key: "#7", Repo: "acme/app"})
	if err != nil {
		t.Fatalf("FetchItem: %v", err)
	}
	if got.State != "merged" || got.HeadRefName != "feature/cache" || got.BaseRefName != "main" {
		t.Errorf("pr = %+v", got)
	}
	if got.Body != "" || got.Labels == nil {
		t.Errorf("empty fields should be non-nil: body=%q labels=%v", got.Body, got.Labels)
	}
	if ref := a.ItemRef(got); ref != "acme/app#PR7" {
		t.Errorf("ItemRef = %q", ref)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestFetchErrors(t *testing.T) {
	clearEnv(t)
	var hits atomic.Int32
	srv := newTestServer(t, &hits)

	t.Run("not found", func(t *testing.T) {
		a := New(Options{Token: "test-token", BaseURL: srv.URL, Run: failingRun})
		_, err := a.FetchItem(context.Background(), provider.FetchRequest{Kind: item.KindIssue, Key: "404", Repo: "acme/app"})
		if !errors.Is(err, providererrors.ErrNotFound) || !errors.Is(err, providererrors.ErrRequestFailed) {
			t.Fatalf("error = %v, want ErrNotFound + ErrRequestFailed", err)
		}
		if providererrors.StatusOf(err) != http.StatusNotFound {
			t.Errorf("status = %d", providererrors.StatusOf(err))
		}
	})

	t.Run("missing credential", func(t *testing.T) {
		a := New(Options{BaseURL: srv.URL, Run: failingRun})
		_, err := a.FetchItem(context.Background(), provider.FetchRequest{Kind: item.KindIssue, Key: "12", Repo: "acme/app"})
		if !errors.Is(err, providererrors.ErrMissingCredential) {
			t.Fatalf("error = %v, want ErrMissingCredential", err)
		}
	})

	t.Run("task unsupported", func(t *testing.T) {
		a := New(Options{Token: "x", Run: failingRun})
		_, err := a.FetchItem(context.Background(), provider.FetchRequest{Kind: item.KindTask, Key: "t"})
		if !errors.Is(err, providererrors.ErrUnsupported) {
			t.Fatalf("error = %v, want ErrUnsupported", err)
		}
	})

	t.Run("bad number", func(t *testing.T) {
		a := New(Options{Token: "x", Run: failingRun})
		_, err := a.FetchItem(context.Background(), provider.FetchRequest{Kind: item.KindIssue, Key: "abc", Repo: "acme/app"})
		if !errors.Is(err, providererrors.ErrInvalidReference) {
			t.Fatalf("error = %v, want ErrInvalidReference", err)
		}
	})
}

func TestTokenFromGHCLI(t *testing.T) {
	clearEnv(t)
	run := func(_ context.Context, _ string, name string, args ...string) ([]byte, error) {
		if name == "gh" && len(args) == 2 && args[0] == "auth" {
			return []byte("cli-token\n"), nil
		}
		return nil, errors.New("unexpected")
	}

	tok, err := ResolveToken(context.Background(), "", run)
	if err != nil || tok != "cli-token" {
		t.Errorf("ResolveToken = %q, %v", tok, err)
	}
}
