// Package gemini builds Gemini CLI invocations.
package gemini

import (
	"strings"

	"github.com/valksor/go-opsdesk/internal/agent"
)

const AgentName = "gemini"

// Agent wraps the gemini CLI.
type Agent struct {
	binary string
}

// New creates a Gemini agent using the "gemini" binary.
func New() *Agent {
	return &Agent{binary: AgentName}
}

// Kind returns the agent identifier.
func (a *Agent) Kind() agent.Kind { return agent.KindGemini }

// Binary returns the executable name.
func (a *Agent) Binary() string { return a.binary }

// Args builds "gemini [--model M] [--sandbox] [--approval-mode A] (-p|-i) PROMPT".
// Sandbox is a boolean flag for gemini: any value other than "", "false"
// or "off" turns it on.
func (a *Agent) Args(prompt string, p agent.Params) []string {
	var args []string
	if p.Model != "" {
		args = append(args, "--model", p.Model)
	}
	switch strings.ToLower(p.Sandbox) {
	case "", "false", "off":
	default:
		args = append(args, "--sandbox")
	}
	if p.Approval != "" {
		args = append(args, "--approval-mode", p.Approval)
	}
	// The prompt is bound with "=" so that text starting with "-" is never
	// read as a flag.
	if p.Mode == agent.ModeInteractive {
		return append(args, "--prompt-interactive="+prompt)
	}
	return append(args, "--prompt="+prompt)
}

// Register adds the Gemini agent to a registry.
func Register(r *agent.Registry) error {
	return r.Register(New())
}

var _ agent.Agent = (*Agent)(nil)
