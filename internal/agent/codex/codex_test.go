package codex

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/valksor/go-opsdesk/internal/agent"
)

func TestArgs(t *testing.T) {
	tests := []struct {
		name   string
		params agent.Params
		want   []string
	}{
		{
			name:   "exec minimal",
			params: agent.Params{Mode: agent.ModeExec},
			want:   []string{"exec", "--", "PROMPT"},
		},
		{
			name:   "exec full profile",
			params: agent.Params{Mode: agent.ModeExec, Model: "o4", Sandbox: "workspace-write", Approval: "never"},
			want:   []string{"--ask-for-approval", "never", "exec", "--sandbox", "workspace-write", "--model", "o4", "--", "PROMPT"},
		},
		{
			name:   "interactive",
			params: agent.Params{Mode: agent.ModeInteractive, Sandbox: "read-only", PermissionMode: "plan"},
			want:   []string{"--sandbox", "read-only", "--", "PROMPT"},
		},
	}

	a := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, a.Args("PROMPT", tt.params)); diff != "" {
				t.Errorf("Args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRegisterIsFallback(t *testing.T) {
	r, err := agent.NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	if err := Register(r); err != nil {
		t.Fatal(err)
	}
	if r.Fallback() != agent.KindCodex {
		t.Errorf("Fallback = %q", r.Fallback())
	}
}

func TestArgsPromptStartingWithDash(t *testing.T) {
	args := New().Args("- fix the flaky test\n--verbose is not a flag here", agent.Params{Mode: agent.ModeExec})
	n := len(args)
	if n < 2 || args[n-2] != "--" || !strings.HasPrefix(args[n-1], "- fix") {
		t.Errorf("prompt is not separated from flags: %q", args)
	}
}
