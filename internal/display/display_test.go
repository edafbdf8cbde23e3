package display

import (
	"fmt"
	"strings"
	"testing"

	"github.com/valksor/go-opsdesk/internal/command"
	"github.com/valksor/go-opsdesk/internal/conductor"
	"github.com/valksor/go-opsdesk/internal/item"
	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
	"github.com/valksor/go-opsdesk/internal/sidecar"
	"github.com/valksor/go-opsdesk/internal/storage"
)

func TestMain(m *testing.M) {
	SetColorsEnabled(false)
	m.Run()
}

func TestFormatStatus(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"new", "New"},
		{"needs_info", "Needs info"},
		{"WontFix", "Won't fix"},
		{"custom", "custom"},
	}

	for _, tt := range tests {
		if got := FormatStatus(tt.status); got != tt.want {
			t.Errorf("FormatStatus(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatusMapsCompleteness(t *testing.T) {
	for status := range StatusDisplay {
		if _, ok := StatusAccessiblePrefix[status]; !ok {
			t.Errorf("status %q has no accessible prefix", status)
		}
	}
	for _, status := range conductor.StopStatuses {
		if _, ok := StatusDisplay[status]; !ok {
			t.Errorf("stop status %q has no display name", status)
		}
	}
}

func TestFormatStatusColored(t *testing.T) {
	if got := FormatStatusColored("blocked"); got != "[B] Blocked" {
		t.Errorf("FormatStatusColored(blocked) = %q", got)
	}
	if got := FormatStatusColored("odd"); got != "odd" {
		t.Errorf("FormatStatusColored(odd) = %q", got)
	}
}

func TestSuggestionsFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "lock held",
			err:  fmt.Errorf("open store: %w", &storage.LockHeldError{PID: 42, Path: ".ops/.lock"}),
			want: "another process holds the lock; retry",
		},
		{
			name: "missing variables",
			err:  &conductor.MissingVariablesError{Command: "triage", Names: []string{"repo"}},
			want: "--var repo=...",
		},
		{
			name: "command not found",
			err:  fmt.Errorf("%w: triage", command.ErrNotFound),
			want: "opsdesk commands",
		},
		{
			name: "missing credential",
			err:  providererrors.MissingCredentialError("jira", "JIRA_API_TOKEN"),
			want: ".ops/.env",
		},
		{
			name: "read-only field",
			err:  fmt.Errorf("%w: remote_state", sidecar.ErrReadOnlyField),
			want: "opsdesk item ensure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := FormatError(tt.err)
			if !strings.Contains(out, tt.want) {
				t.Errorf("FormatError() = %q, want it to contain %q", out, tt.want)
			}
			if !strings.Contains(out, tt.err.Error()) {
				t.Errorf("FormatError() = %q, should carry the error text", out)
			}
		})
	}

	if got := SuggestionsFor(fmt.Errorf("plain")); got != nil {
		t.Errorf("SuggestionsFor(plain) = %v, want nil", got)
	}
}

func TestItemLabel(t *testing.T) {
	tests := []struct {
		it   item.RemoteItem
		want string
	}{
		{
			it:   item.RemoteItem{Provider: item.ProviderGitHub, Kind: item.KindIssue, Repo: "acme/widgets", Key: "7"},
			want: "github issue acme/widgets#7",
		},
		{
			it:   item.RemoteItem{Provider: item.ProviderJira, Kind: item.KindIssue, Key: "OPS-12"},
			want: "jira issue #OPS-12",
		},
		{
			it:   item.RemoteItem{Provider: item.ProviderLocal, Kind: item.KindTask, Key: "tasks/x.md"},
			want: "local task tasks/x.md",
		},
	}

	for _, tt := range tests {
		if got := ItemLabel(&tt.it); got != tt.want {
			t.Errorf("ItemLabel() = %q, want %q", got, tt.want)
		}
	}
}

func TestFormatItemAndSidecar(t *testing.T) {
	it := &item.RemoteItem{
		Provider: item.ProviderGitHub, Kind: item.KindPR, Repo: "acme/widgets", Key: "9", Number: 9,
		Title: "Fix build", State: "open", Labels: []string{"ci", "bug"},
		HeadRefName: "fix", BaseRefName: "main",
	}
	out := FormatItem(it)
	for _, want := range []string{"github pr acme/widgets#9 Fix build", "ci, bug", "fix -> main"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatItem() missing %q in:\n%s", want, out)
		}
	}

	rec := &sidecar.Record{Path: "items/pr-9.md", Frontmatter: map[string]any{
		sidecar.FieldLocalStatus: "triaged",
		sidecar.FieldRisk:        "high",
		sidecar.FieldOwner:       "sam",
	}}
	out = FormatSidecar(rec)
	for _, want := range []string{"items/pr-9.md", "[T] Triaged", "high", "sam"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatSidecar() missing %q in:\n%s", want, out)
		}
	}
	if got := FormatSidecar(nil); !strings.Contains(got, "no sidecar") {
		t.Errorf("FormatSidecar(nil) = %q", got)
	}
}

func TestTableAndTruncate(t *testing.T) {
	out := Table([]string{"ID", "TITLE"}, [][]string{{"triage", "Triage an item"}, {"a", "b"}})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("Table() lines = %d, want 3:\n%s", len(lines), out)
	}
	if lines[2] != "a       b" {
		t.Errorf("row = %q", lines[2])
	}

	if got := Truncate("héllo world", 8); got != "héllo..." {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate() = %q", got)
	}
}

func TestFormatNextSteps(t *testing.T) {
	if FormatNextSteps() != "" {
		t.Error("no steps should format to empty")
	}
	out := FormatNextSteps(NextStep{"opsdesk run triage", "Run triage"}, NextStep{"opsdesk auto", "Triage then address"})
	if !strings.Contains(out, "opsdesk auto        - Triage then address") {
		t.Errorf("steps not aligned:\n%s", out)
	}
}
