package sidecar

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/valksor/go-opsdesk/internal/item"
	"github.com/valksor/go-opsdesk/internal/kv"
	"github.com/valksor/go-opsdesk/internal/storage"
)

func newStore(t *testing.T) *storage.FileStore {
	t.Helper()
	s, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func issue123() *item.RemoteItem {
	return &item.RemoteItem{
		Provider:  item.ProviderGitHub,
		Kind:      item.KindIssue,
		Key:       "123",
		Repo:      "acme/app",
		Number:    123,
		Title:     "Crash on start",
		Author:    "octocat",
		State:     "open",
		URL:       "https://github.com/acme/app/issues/123",
		UpdatedAt: "2026-01-02T03:04:05Z",
	}
}

func TestEnsureCreates(t *testing.T) {
	s := newStore(t)

	res, err := Ensure(s, issue123())
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if diff := cmp.Diff(&EnsureResult{Path: "items/issue-123.md", Created: true}, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	rec, err := Read(s, res.Path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	checks := map[string]string{
		FieldID:             "github:acme/app:issue:123",
		FieldProvider:       "github",
		FieldKind:           "issue",
		FieldKey:            "123",
		FieldRepo:           "acme/app",
		FieldNumber:         "123",
		FieldRemoteTitle:    "Crash on start",
		FieldRemoteState:    "open",
		FieldLastSeenUpdate: "2026-01-02T03:04:05Z",
		FieldLocalStatus:    StatusNew,
		storage.TypeField:   DocType,
	}
	for field, want := range checks {
		if got := rec.String(field); got != want {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}
	if _, ok := rec.Frontmatter[FieldTags]; !ok {
		t.Error("tags not defaulted")
	}
}

func TestEnsureKeepsLocalFields(t *testing.T) {
	s := newStore(t)
	it := issue123()
	if _, err := Ensure(s, it); err != nil {
		t.Fatal(err)
	}
	if err := s.Update(it.Path(), map[string]any{FieldLocalStatus: "triaged", FieldRisk: "low"}); err != nil {
		t.Fatal(err)
	}

	it.Title = "Crash on start (regression)"
	it.UpdatedAt = "2026-02-01T00:00:00Z"
	res, err := Ensure(s, it)
	if err != nil {
		t.Fatal(err)
	}
	if res.Created || !res.Drifted {
		t.Errorf("result = %+v, want refreshed and drifted", res)
	}

	rec, err := Read(s, res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if rec.String(FieldRemoteTitle) != "Crash on start (regression)" {
		t.Errorf("remote_title = %q", rec.String(FieldRemoteTitle))
	}
	if rec.LocalStatus() != "triaged" || rec.Risk() != "low" {
		t.Errorf("local fields clobbered: status=%q risk=%q", rec.LocalStatus(), rec.Risk())
	}

	again, err := Ensure(s, it)
	if err != nil {
		t.Fatal(err)
	}
	if again.Drifted {
		t.Error("unchanged updated_at reported as drift")
	}
}

// Fetch-then-set must keep both the refreshed remote title and the manual
// status.
func TestEnsureThenSetFields(t *testing.T) {
	s := newStore(t)
	it := issue123()

	res, err := Ensure(s, it)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := SetFields(s, res.Path, []string{"local_status=in_progress"}); err != nil {
		t.Fatalf("SetFields: %v", err)
	}

	rec, err := Read(s, res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if rec.String(FieldRemoteTitle) != "Crash on start" {
		t.Errorf("remote_title = %q", rec.String(FieldRemoteTitle))
	}
	if rec.LocalStatus() != "in_progress" {
		t.Errorf("local_status = %q", rec.LocalStatus())
	}
}

func TestSetFields(t *testing.T) {
	s := newStore(t)
	res, err := Ensure(s, issue123())
	if err != nil {
		t.Fatal(err)
	}

	got, err := SetFields(s, res.Path, []string{"priority=2", "tags=[\"a\",\"b\"]", "owner=alice"})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"priority": int64(2), "tags": []any{"a", "b"}, "owner": "alice"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	rec, err := Read(s, res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{"a", "b"}, rec.Frontmatter[FieldTags]); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestSetFieldsErrors(t *testing.T) {
	s := newStore(t)
	res, err := Ensure(s, issue123())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		path  string
		pairs []string
		want  error
	}{
		{name: "remote field", path: res.Path, pairs: []string{"remote_title=x"}, want: ErrReadOnlyField},
		{name: "identity field", path: res.Path, pairs: []string{"local_status=done", "id=other"}, want: ErrReadOnlyField},
		{name: "no pairs", path: res.Path, want: ErrNoFields},
		{name: "bad pair", path: res.Path, pairs: []string{"novalue"}, want: kv.ErrInvalidPair},
		{name: "missing sidecar", path: "items/issue-9.md", pairs: []string{"risk=low"}, want: storage.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SetFields(s, tt.path, tt.pairs); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	rec, err := Read(s, res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if rec.LocalStatus() != StatusNew {
		t.Errorf("rejected set leaked a write: local_status = %q", rec.LocalStatus())
	}
}

func TestFind(t *testing.T) {
	s := newStore(t)

	rec, err := Find(s, item.KindIssue, "123")
	if err != nil || rec != nil {
		t.Fatalf("Find before ensure = %v, %v; want nil, nil", rec, err)
	}

	if _, err := Ensure(s, issue123()); err != nil {
		t.Fatal(err)
	}
	rec, err = Find(s, item.KindIssue, "123")
	if err != nil || rec == nil {
		t.Fatalf("Find after ensure = %v, %v", rec, err)
	}
	if rec.Path != "items/issue-123.md" {
		t.Errorf("Path = %q", rec.Path)
	}
}
