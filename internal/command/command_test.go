package command

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/valksor/go-opsdesk/internal/storage"
)

func newStore(t *testing.T) *storage.FileStore {
	t.Helper()
	s, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	docs := []struct {
		path string
		typ  string
		fm   map[string]any
		body string
	}{
		{"commands/triage.md", DocType, map[string]any{
			"id": "triage", "agent": "claude", "mode": "exec", "model": "sonnet",
			"sandbox": true, "placeholders": []any{"title", "body"},
		}, "Triage {{title}}\n\n{{body}}\n"},
		{"commands/address.md", DocType, map[string]any{"id": "address", "cli": "codex", "approval": "never"}, "Fix {{item_ref}}\n"},
		{"commands/dup-1.md", DocType, map[string]any{"id": "dup"}, ""},
		{"commands/dup-2.md", DocType, map[string]any{"id": "dup"}, ""},
		{"notes/triage.md", "note", map[string]any{"id": "triage"}, ""},
	}
	for _, d := range docs {
		if err := s.Create(d.typ, d.path, d.fm, d.body); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestLookup(t *testing.T) {
	s := newStore(t)

	got, err := Lookup(s, "triage")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	want := &Template{
		ID:           "triage",
		Path:         "commands/triage.md",
		CLI:          "claude",
		Mode:         "exec",
		Model:        "sonnet",
		Sandbox:      "true",
		Placeholders: []string{"title", "body"},
		Body:         "Triage {{title}}\n\n{{body}}\n",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Lookup mismatch (-want +got):\n%s", diff)
	}
}

func TestLookupErrors(t *testing.T) {
	s := newStore(t)

	tests := []struct {
		id   string
		want error
	}{
		{id: "missing", want: ErrNotFound},
		{id: "", want: ErrNotFound},
		{id: "dup", want: ErrAmbiguous},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if _, err := Lookup(s, tt.id); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestList(t *testing.T) {
	got, err := List(newStore(t))
	if err != nil {
		t.Fatal(err)
	}

	ids := make([]string, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	if diff := cmp.Diff([]string{"address", "dup", "dup", "triage"}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}
