package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/valksor/go-opsdesk/internal/config"
	"github.com/valksor/go-opsdesk/internal/display"
	"github.com/valksor/go-opsdesk/internal/log"
)

var (
	settings *config.Settings

	// Global flags.
	verbose bool
	noColor bool
	logJSON bool
	logFile string
)

var rootCmd = &cobra.Command{
	Use:   "opsdesk",
	Short: "Run agent prompts against issues, pull requests and tasks",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Long: `opsdesk fetches an issue, pull request or local task, keeps a local
sidecar note for it under .ops/items, renders a command template from the
store and hands the prompt to an agent CLI (codex, claude or gemini).

Quick Start:
  opsdesk context --issue 42           Show the render context for issue 42
  opsdesk run triage --issue 42        Render and run the "triage" command
  opsdesk run triage --pr 7 --dry-run  Preview the prompt without running it
  opsdesk auto --issue 42              Triage, then address when allowed
  opsdesk item set --issue 42 risk=low Update the sidecar`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.Configure(log.Options{
			Verbose: verbose,
			JSON:    logJSON,
			File:    logFile,
		})
		display.InitColors(noColor)

		if err := resolveRepo(cmd.Context()); err != nil {
			return err
		}

		// config.Load reads .ops/.env first so provider credentials are
		// visible to everything after it.
		var err error
		settings, err = config.Load(repoRoot)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}

		log.Debug("initialized", "repo_root", repoRoot, "store_root", storeRoot())

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := log.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: close log file: %v\n", err)
		}
	},
}

// Execute runs the root command, cancelling its context on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

// Main runs the CLI and returns the process exit status. An agent's exit
// code is passed through; any other error prints with suggestions and
// exits 1.
func Main() int {
	err := Execute()
	if err == nil {
		return 0
	}

	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}

	fmt.Fprint(os.Stderr, display.FormatError(err))
	return 1
}

// ExitError carries a non-zero agent exit code to Main. It is not printed.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("agent exited with status %d", e.Code)
}

// exitWith returns nil for 0 and an *ExitError otherwise.
func exitWith(code int) error {
	if code == 0 {
		return nil
	}
	return &ExitError{Code: code}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable color output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON on stderr")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file (rotated)")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "run",
		Title: "Run Commands:",
	}, &cobra.Group{
		ID:    "item",
		Title: "Item Commands:",
	}, &cobra.Group{
		ID:    "admin",
		Title: "Store Commands:",
	})
}
