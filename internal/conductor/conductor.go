// Package conductor prepares and executes command runs: it looks up a
// command template, builds the render context, renders the prompt and hands
// it to an agent CLI.
//
// The store is locked only while a run is prepared. The agent runs without
// the lock so that it can itself call back into opsdesk (for example to set
// sidecar fields).
package conductor

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/valksor/go-opsdesk/internal/agent"
	"github.com/valksor/go-opsdesk/internal/command"
	"github.com/valksor/go-opsdesk/internal/item"
	"github.com/valksor/go-opsdesk/internal/log"
	"github.com/valksor/go-opsdesk/internal/runctx"
	"github.com/valksor/go-opsdesk/internal/storage"
	"github.com/valksor/go-opsdesk/internal/template"
)

// ErrMissingVariables is returned by Execute when the prompt has
// placeholders that resolved to nothing and had no fallback.
var ErrMissingVariables = errors.New("missing template variables")

// MissingVariablesError names every unresolved placeholder.
type MissingVariablesError struct {
	Command string
	Names   []string
}

func (e *MissingVariablesError) Error() string {
	return fmt.Sprintf("command %s: %v: %s", e.Command, ErrMissingVariables, strings.Join(e.Names, ", "))
}

// Is matches ErrMissingVariables.
func (e *MissingVariablesError) Is(target error) bool {
	return target == ErrMissingVariables
}

// SessionFunc runs fn with the store locked.
type SessionFunc func(fn func(storage.Store) error) error

// BuilderFunc returns a context builder bound to store.
type BuilderFunc func(storage.Store) *runctx.Builder

// RunRequest names the command and target of one run.
type RunRequest struct {
	Command       string
	Target        *runctx.Target
	Provider      item.ProviderID
	Repo          string
	Vars          map[string]any
	EnsureSidecar bool
	Overrides     Overrides
}

// PreparedRun is a rendered, not yet executed run.
type PreparedRun struct {
	Command          *command.Template `json:"command"`
	Prompt           string            `json:"prompt"`
	MissingRequired  []string          `json:"missing_required"`
	PlaceholdersUsed []string          `json:"placeholders_used"`
	// UndeclaredPlaceholders are used in the body but absent from the
	// template's declared placeholders. Only set when the template declares
	// any.
	UndeclaredPlaceholders []string         `json:"undeclared_placeholders,omitempty"`
	Params                 agent.Params     `json:"params"`
	Invocation             agent.Invocation `json:"invocation"`
	Context                *runctx.Result   `json:"context"`
	DryRun                 bool             `json:"dry_run,omitempty"`
}

// ExecutedRun is a finished run. A non-zero ExitCode is a normal outcome.
type ExecutedRun struct {
	*PreparedRun
	ExitCode   int       `json:"exit_code"`
	Stdout     string    `json:"stdout"`
	Stderr     string    `json:"stderr"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Conductor orchestrates command runs
type Conductor struct {
	session SessionFunc
	builder BuilderFunc
	agents  *agent.Registry
	opts    Options
}

// New creates a Conductor. session opens the store for each preparation;
// builder binds a context builder to it.
func New(session SessionFunc, builder BuilderFunc, agents *agent.Registry, opts ...Option) *Conductor {
	options := DefaultOptions()
	options.Apply(opts...)
	if options.Runner == nil {
		options.Runner = agent.NewExecRunner()
	}

	return &Conductor{
		session: session,
		builder: builder,
		agents:  agents,
		opts:    options,
	}
}

// Prepare looks up the command, builds the context and renders the prompt
// while holding the store lock.
func (c *Conductor) Prepare(ctx context.Context, req RunRequest) (*PreparedRun, error) {
	var prepared *PreparedRun

	err := c.session(func(store storage.Store) error {
		tpl, err := command.Lookup(store, req.Command)
		if err != nil {
			return err
		}

		built, err := c.builder(store).Build(ctx, runctx.Options{
			Target:        req.Target,
			Provider:      req.Provider,
			Repo:          req.Repo,
			Vars:          req.Vars,
			EnsureSidecar: req.EnsureSidecar,
		})
		if err != nil {
			return err
		}

		rendered := template.Render(tpl.Body, built.Context)
		prepared = &PreparedRun{
			Command:          tpl,
			Prompt:           rendered.Text,
			MissingRequired:  rendered.MissingRequired,
			PlaceholdersUsed: rendered.PlaceholdersUsed,
			Context:          built,
		}
		if len(tpl.Placeholders) > 0 {
			for _, p := range rendered.PlaceholdersUsed {
				if !slices.Contains(tpl.Placeholders, p) {
					prepared.UndeclaredPlaceholders = append(prepared.UndeclaredPlaceholders, p)
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(prepared.UndeclaredPlaceholders) > 0 {
		log.Warn("template uses undeclared placeholders",
			"command", prepared.Command.ID, "placeholders", prepared.UndeclaredPlaceholders)
	}

	params, err := c.resolveParams(req.Overrides, prepared.Command)
	if err != nil {
		return nil, err
	}
	a, err := c.agents.Get(params.CLI)
	if err != nil {
		return nil, err
	}
	prepared.Params = params
	prepared.Invocation = agent.Build(a, prepared.Prompt, c.opts.WorkDir, params)

	log.Debug("run prepared", "command", prepared.Command.ID, "cli", params.CLI, "mode", params.Mode,
		"missing", len(prepared.MissingRequired))

	return prepared, nil
}

// DryRun prepares the run and stops. Missing variables are reported in the
// result, not as an error.
func (c *Conductor) DryRun(ctx context.Context, req RunRequest) (*PreparedRun, error) {
	prepared, err := c.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	prepared.DryRun = true
	return prepared, nil
}

// Execute runs a prepared run. It refuses to start when any placeholder is
// unresolved. The agent's exit code is returned as is; nothing is retried.
func (c *Conductor) Execute(ctx context.Context, prepared *PreparedRun) (*ExecutedRun, error) {
	if len(prepared.MissingRequired) > 0 {
		return nil, &MissingVariablesError{Command: prepared.Command.ID, Names: prepared.MissingRequired}
	}

	run := &ExecutedRun{PreparedRun: prepared, StartedAt: time.Now()}
	res, err := agent.Run(ctx, c.opts.Runner, prepared.Invocation, prepared.Params.Mode)
	run.FinishedAt = time.Now()
	if err != nil {
		return nil, fmt.Errorf("command %s: %w", prepared.Command.ID, err)
	}
	run.ExitCode = res.ExitCode
	run.Stdout = res.Stdout
	run.Stderr = res.Stderr

	log.Debug("run executed", "command", prepared.Command.ID, "exit_code", run.ExitCode,
		"duration", run.FinishedAt.Sub(run.StartedAt))

	return run, nil
}

// Run prepares and executes in one call.
func (c *Conductor) Run(ctx context.Context, req RunRequest) (*ExecutedRun, error) {
	prepared, err := c.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, prepared)
}

// resolveParams applies override, then template, then config defaults,
// then the registry fallback CLI and interactive mode.
func (c *Conductor) resolveParams(o Overrides, tpl *command.Template) (agent.Params, error) {
	d := c.opts.Defaults

	cli := cmp.Or(o.CLI, tpl.CLI, string(d.CLI), string(c.fallbackCLI()))
	kind, err := agent.ParseKind(cli)
	if err != nil {
		return agent.Params{}, err
	}

	mode, err := agent.ParseMode(cmp.Or(o.Mode, tpl.Mode, string(d.Mode), string(agent.ModeInteractive)))
	if err != nil {
		return agent.Params{}, err
	}

	return agent.Params{
		CLI:            kind,
		Mode:           mode,
		Model:          cmp.Or(o.Model, tpl.Model, d.Model),
		PermissionMode: cmp.Or(o.PermissionMode, tpl.PermissionMode, d.PermissionMode),
		Sandbox:        cmp.Or(o.Sandbox, tpl.Sandbox, d.Sandbox),
		Approval:       cmp.Or(o.Approval, tpl.Approval, d.Approval),
		Env:            d.Env,
	}, nil
}

func (c *Conductor) fallbackCLI() agent.Kind {
	if k := c.agents.Fallback(); k != "" {
		return k
	}
	return agent.Kinds()[0]
}
