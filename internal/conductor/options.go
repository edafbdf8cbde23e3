package conductor

import (
	"github.com/valksor/go-opsdesk/internal/agent"
)

// Options configures the Conductor
type Options struct {
	// Defaults is the execution profile from config. It sits below
	// call-site overrides and template frontmatter.
	Defaults agent.Params

	// WorkDir is the agent's working directory (default: current dir).
	WorkDir string

	// Runner spawns agent processes (default: agent.NewExecRunner()).
	Runner agent.Runner
}

// Option is a functional option for configuring Conductor
type Option func(*Options)

// DefaultOptions returns default options
func DefaultOptions() Options {
	return Options{
		WorkDir: ".",
	}
}

// Apply applies functional options
func (o *Options) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// WithDefaults sets the config-level execution profile
func WithDefaults(p agent.Params) Option {
	return func(o *Options) {
		o.Defaults = p
	}
}

// WithWorkDir sets the agent working directory
func WithWorkDir(dir string) Option {
	return func(o *Options) {
		o.WorkDir = dir
	}
}

// WithRunner replaces the process runner
func WithRunner(r agent.Runner) Option {
	return func(o *Options) {
		o.Runner = r
	}
}

// Overrides are call-site execution settings (CLI flags). Empty fields
// defer to the next source.
type Overrides struct {
	CLI            string `json:"cli,omitempty"`
	Mode           string `json:"mode,omitempty"`
	Model          string `json:"model,omitempty"`
	PermissionMode string `json:"permission_mode,omitempty"`
	Sandbox        string `json:"sandbox,omitempty"`
	Approval       string `json:"approval,omitempty"`
}

// AutoOptions configures the triage-then-address workflow
type AutoOptions struct {
	TriageCommand  string // Command run first (default: "triage")
	AddressCommand string // Command run when the gate passes (default: "address")
	AllowHighRisk  bool   // Address items the triage marked risk=high
}

// DefaultAutoOptions returns the standard command pair
func DefaultAutoOptions() AutoOptions {
	return AutoOptions{
		TriageCommand:  "triage",
		AddressCommand: "address",
	}
}
