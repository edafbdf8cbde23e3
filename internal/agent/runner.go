package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/valksor/go-opsdesk/internal/log"
)

// DefaultWaitDelay bounds how long a cancelled agent may take to exit after
// being interrupted before it is killed.
const DefaultWaitDelay = 10 * time.Second

// forwardedSignals reach an interactive agent instead of opsdesk.
var forwardedSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// ExecRunner spawns real processes.
type ExecRunner struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
	// WaitDelay overrides DefaultWaitDelay when non-zero.
	WaitDelay time.Duration
}

var _ Runner = (*ExecRunner)(nil)

// NewExecRunner returns a runner bound to the process's standard streams.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

func (r *ExecRunner) command(ctx context.Context, inv Invocation) *exec.Cmd {
	cmd := exec.CommandContext(ctx, inv.Binary, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = inv.Env
	// Interrupt first so the agent can clean up; Kill after WaitDelay.
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = DefaultWaitDelay
	if r.WaitDelay > 0 {
		cmd.WaitDelay = r.WaitDelay
	}
	return cmd
}

// RunCaptured runs inv and collects its output. Only a failure to start or
// a cancelled context is an error; a non-zero exit is reported in Result.
func (r *ExecRunner) RunCaptured(ctx context.Context, inv Invocation, stdin string) (Result, error) {
	cmd := r.command(ctx, inv)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	log.Debug("agent spawn", "binary", inv.Binary, "mode", ModeExec, "args", len(inv.Args))
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	code, err := exitCode(ctx, err)
	res.ExitCode = code
	if err != nil {
		return res, fmt.Errorf("run %s: %w", inv.Binary, err)
	}
	log.Debug("agent exited", "binary", inv.Binary, "exit_code", code)

	return res, nil
}

// RunInteractive runs inv on the terminal. SIGINT and SIGTERM received
// while the agent runs are forwarded to it instead of terminating this
// process, so the agent always gets to exit first.
func (r *ExecRunner) RunInteractive(ctx context.Context, inv Invocation) (int, error) {
	cmd := r.command(ctx, inv)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	log.Debug("agent spawn", "binary", inv.Binary, "mode", ModeInteractive, "args", len(inv.Args))
	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("start %s: %w", inv.Binary, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, forwardedSignals...)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigCh:
				log.Debug("forwarding signal to agent", "signal", sig.String())
				_ = cmd.Process.Signal(sig)
			case <-done:
				return
			}
		}
	}()

	err := cmd.Wait()
	signal.Stop(sigCh)
	close(done)

	code, err := exitCode(ctx, err)
	if err != nil {
		return code, fmt.Errorf("run %s: %w", inv.Binary, err)
	}
	log.Debug("agent exited", "binary", inv.Binary, "exit_code", code)

	return code, nil
}

func exitCode(ctx context.Context, err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
