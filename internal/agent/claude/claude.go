// Package claude builds Claude CLI invocations.
package claude

import "github.com/valksor/go-opsdesk/internal/agent"

const AgentName = "claude"

// Agent wraps the claude CLI.
type Agent struct {
	binary string
}

// New creates a Claude agent using the "claude" binary.
func New() *Agent {
	return &Agent{binary: AgentName}
}

// NewWithBinary creates a Claude agent using a custom executable.
func NewWithBinary(binary string) *Agent {
	if binary == "" {
		binary = AgentName
	}
	return &Agent{binary: binary}
}

// Kind returns the agent identifier.
func (a *Agent) Kind() agent.Kind { return agent.KindClaude }

// Binary returns the executable name.
func (a *Agent) Binary() string { return a.binary }

// Args builds "claude [-p] [--model M] [--permission-mode P] PROMPT".
// Exec mode uses print mode; interactive mode opens a session seeded with
// the prompt.
func (a *Agent) Args(prompt string, p agent.Params) []string {
	var args []string
	if p.Mode != agent.ModeInteractive {
		args = append(args, "-p")
	}
	if p.Model != "" {
		args = append(args, "--model", p.Model)
	}
	if p.PermissionMode != "" {
		args = append(args, "--permission-mode", p.PermissionMode)
	}
	return append(args, "--", prompt)
}

// Register adds the Claude agent to a registry.
func Register(r *agent.Registry) error {
	return r.Register(New())
}

var _ agent.Agent = (*Agent)(nil)
