// Package agent turns a rendered prompt and an execution profile into an
// agent CLI invocation and runs it, either captured or on the terminal.
package agent

import "context"

// Agent builds the command line for one agent CLI.
type Agent interface {
	// Kind returns the agent's identifier.
	Kind() Kind

	// Binary is the executable name looked up on PATH.
	Binary() string

	// Args builds the argument list for prompt under p.
	Args(prompt string, p Params) []string
}

// Invocation is a fully built command line.
type Invocation struct {
	Binary string   `json:"binary"`
	Args   []string `json:"args"`
	Dir    string   `json:"dir,omitempty"`
	Env    []string `json:"-"`
}

// Build creates the invocation of a for prompt.
func Build(a Agent, prompt, dir string, p Params) Invocation {
	return Invocation{
		Binary: a.Binary(),
		Args:   a.Args(prompt, p),
		Dir:    dir,
		Env:    ExpandEnv(p.Env),
	}
}

// Runner is the process-spawning primitive. ExecRunner is the real one;
// tests substitute fakes.
type Runner interface {
	// RunCaptured runs inv to completion, capturing stdout and stderr.
	RunCaptured(ctx context.Context, inv Invocation, stdin string) (Result, error)

	// RunInteractive runs inv attached to the terminal and returns its exit
	// code.
	RunInteractive(ctx context.Context, inv Invocation) (int, error)
}

// Run dispatches inv to runner according to mode.
func Run(ctx context.Context, runner Runner, inv Invocation, mode Mode) (Result, error) {
	if mode == ModeInteractive {
		code, err := runner.RunInteractive(ctx, inv)
		return Result{ExitCode: code}, err
	}
	return runner.RunCaptured(ctx, inv, "")
}
