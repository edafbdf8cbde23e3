package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valksor/go-opsdesk/internal/agent"
	"github.com/valksor/go-opsdesk/internal/conductor"
	"github.com/valksor/go-opsdesk/internal/display"
)

// agentFlags are the execution overrides shared by run and auto.
type agentFlags struct {
	cli            string
	mode           string
	model          string
	permissionMode string
	sandbox        string
	approval       string
}

func (f *agentFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.cli, "agent", "a", "", "Agent CLI: codex, claude, gemini")
	fl.StringVar(&f.mode, "mode", "", "Run mode: interactive or exec")
	fl.StringVar(&f.model, "model", "", "Model passed to the agent")
	fl.StringVar(&f.permissionMode, "permission-mode", "", "claude --permission-mode")
	fl.StringVar(&f.sandbox, "sandbox", "", "codex/gemini sandbox setting")
	fl.StringVar(&f.approval, "approval", "", "codex/gemini approval setting")
}

func (f *agentFlags) overrides() conductor.Overrides {
	return conductor.Overrides{
		CLI:            f.cli,
		Mode:           f.mode,
		Model:          f.model,
		PermissionMode: f.permissionMode,
		Sandbox:        f.sandbox,
		Approval:       f.approval,
	}
}

var (
	runVars      []string
	runDryRun    bool
	runJSON      bool
	runNoSidecar bool
	runAgent     agentFlags
)

var runCmd = &cobra.Command{
	Use:   "run <command>",
	Short: "Render a command template and run it with an agent",
	Long: `Look up a command template by id, render it against the target item
and hand the prompt to an agent CLI.

The run refuses to start while any placeholder is unresolved; --dry-run shows
the prompt and the missing names instead. The agent's exit status becomes
opsdesk's exit status.

Agent settings are taken from flags, then the template's frontmatter, then
.ops/config.yaml, then codex in interactive mode.

Examples:
  opsdesk run triage --issue 42
  opsdesk run review --pr 7 --agent claude --mode exec
  opsdesk run plan --task tasks/login.md --var focus=tests --dry-run`,
	GroupID: "run",
	Args:    cobra.ExactArgs(1),
	RunE:    runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "Set a context value (key=value, repeatable)")
	runCmd.Flags().BoolVarP(&runDryRun, "dry-run", "n", false, "Render only; do not start the agent")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Output the run as JSON")
	runCmd.Flags().BoolVar(&runNoSidecar, "no-sidecar", false, "Do not create or refresh the sidecar")
	runAgent.register(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	req, err := buildRunRequest(args[0], runVars, runAgent)
	if err != nil {
		return err
	}
	req.EnsureSidecar = req.Target != nil && !runNoSidecar

	cond, err := newConductor()
	if err != nil {
		return err
	}

	if runDryRun {
		prepared, err := cond.DryRun(cmd.Context(), req)
		if err != nil {
			return err
		}
		if runJSON {
			return outputJSON(cmd.OutOrStdout(), prepared)
		}
		outln(cmd, formatPrepared(prepared))
		return nil
	}

	prepared, err := cond.Prepare(cmd.Context(), req)
	if err != nil {
		return err
	}
	run, err := cond.Execute(cmd.Context(), prepared)
	if err != nil {
		return err
	}

	if runJSON {
		if err := outputJSON(cmd.OutOrStdout(), run); err != nil {
			return err
		}
	} else {
		writeCaptured(cmd, run)
	}

	return exitWith(run.ExitCode)
}

func buildRunRequest(commandID string, vars []string, flags agentFlags) (conductor.RunRequest, error) {
	parsed, err := parseVars(vars)
	if err != nil {
		return conductor.RunRequest{}, err
	}
	prov, err := providerFromFlag()
	if err != nil {
		return conductor.RunRequest{}, err
	}

	return conductor.RunRequest{
		Command:   commandID,
		Target:    targetFromFlags(),
		Provider:  prov,
		Repo:      targetRepo,
		Vars:      parsed,
		Overrides: flags.overrides(),
	}, nil
}

// writeCaptured replays an exec-mode agent's output. Interactive runs
// already wrote to the terminal.
func writeCaptured(cmd *cobra.Command, run *conductor.ExecutedRun) {
	if run.Params.Mode != agent.ModeExec {
		return
	}
	if run.Stdout != "" {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), run.Stdout)
	}
	if run.Stderr != "" {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), run.Stderr)
	}
}

func formatPrepared(p *conductor.PreparedRun) string {
	var sb strings.Builder

	sb.WriteString(display.Section("Command " + p.Command.ID))
	sb.WriteString(display.KeyValue("Template", p.Command.Path))
	sb.WriteString(display.KeyValue("Agent", string(p.Params.CLI)))
	sb.WriteString(display.KeyValue("Mode", string(p.Params.Mode)))
	sb.WriteString(display.KeyValue("Model", p.Params.Model))
	sb.WriteString(display.KeyValue("Invocation", commandLine(p.Invocation)))
	if p.Context != nil && p.Context.Item != nil {
		sb.WriteString(display.KeyValue("Item", display.ItemLabel(p.Context.Item)))
	}

	if len(p.MissingRequired) > 0 {
		sb.WriteString("\n")
		sb.WriteString(display.WarningMsg("Unresolved placeholders: %s", strings.Join(p.MissingRequired, ", ")))
		sb.WriteString("\n")
	}
	if len(p.UndeclaredPlaceholders) > 0 {
		sb.WriteString(display.WarningMsg("Not declared in the template: %s", strings.Join(p.UndeclaredPlaceholders, ", ")))
		sb.WriteString("\n")
	}

	sb.WriteString(display.Section("Prompt"))
	sb.WriteString(p.Prompt)

	return sb.String()
}

// commandLine shows the agent command with the prompt elided. Every agent
// takes the prompt as its last argument.
func commandLine(inv agent.Invocation) string {
	args := inv.Args
	if n := len(args); n > 0 {
		placeholder := "<prompt>"
		if flag, _, ok := strings.Cut(args[n-1], "="); ok && strings.HasPrefix(flag, "-") {
			placeholder = flag + "=<prompt>"
		}
		args = append(args[:n-1:n-1], placeholder)
	}
	return strings.Join(append([]string{inv.Binary}, args...), " ")
}
