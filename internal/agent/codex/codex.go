// Package codex builds Codex CLI invocations.
package codex

import "github.com/valksor/go-opsdesk/internal/agent"

const AgentName = "codex"

// Agent wraps the codex CLI.
type Agent struct {
	binary string
}

// New creates a Codex agent using the "codex" binary.
func New() *Agent {
	return &Agent{binary: AgentName}
}

// NewWithBinary creates a Codex agent using a custom executable.
func NewWithBinary(binary string) *Agent {
	if binary == "" {
		binary = AgentName
	}
	return &Agent{binary: binary}
}

// Kind returns the agent identifier.
func (a *Agent) Kind() agent.Kind { return agent.KindCodex }

// Binary returns the executable name.
func (a *Agent) Binary() string { return a.binary }

// Args builds "codex [--ask-for-approval A] [exec] [--sandbox S] [--model M] PROMPT".
// The approval policy is a top-level flag and must precede the exec
// subcommand.
func (a *Agent) Args(prompt string, p agent.Params) []string {
	var args []string
	if p.Approval != "" {
		args = append(args, "--ask-for-approval", p.Approval)
	}
	if p.Mode != agent.ModeInteractive {
		args = append(args, "exec")
	}
	if p.Sandbox != "" {
		args = append(args, "--sandbox", p.Sandbox)
	}
	if p.Model != "" {
		args = append(args, "--model", p.Model)
	}
	return append(args, "--", prompt)
}

// Register adds the Codex agent to a registry.
func Register(r *agent.Registry) error {
	return r.Register(New())
}

var _ agent.Agent = (*Agent)(nil)
