package claude

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
			want:   []string{"-p", "--", "PROMPT"},
		},
		{
			name:   "exec with profile",
			params: agent.Params{Mode: agent.ModeExec, Model: "opus", PermissionMode: "acceptEdits"},
			want:   []string{"-p", "--model", "opus", "--permission-mode", "acceptEdits", "--", "PROMPT"},
		},
		{
			name:   "interactive ignores codex settings",
			params: agent.Params{Mode: agent.ModeInteractive, Sandbox: "read-only", Approval: "never"},
			want:   []string{"--", "PROMPT"},
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

func TestRegister(t *testing.T) {
	r, err := agent.NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	if err := Register(r); err != nil {
		t.Fatal(err)
	}
	a, err := r.Get(agent.KindClaude)
	if err != nil || a.Binary() != "claude" {
		t.Errorf("Get = %v, %v", a, err)
	}
	if NewWithBinary("/opt/claude").Binary() != "/opt/claude" {
		t.Error("custom binary ignored")
	}
}

func TestArgsPromptStartingWithDash(t *testing.T) {
	args := New().Args("- fix the flaky test\n--verbose is not a flag here", agent.Params{Mode: agent.ModeExec})
	n := len(args)
	if n < 2 || args[n-2] != "--" || !strings.HasPrefix(args[n-1], "- fix") {
		t.Errorf("prompt is not separated from flags: %q", args)
	}
}
