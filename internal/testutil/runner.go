package testutil

import (
	"context"
	"sync"

	"github.com/valksor/go-opsdesk/internal/agent"
)

// FakeRunner is an agent.Runner that records invocations instead of
// spawning processes. OnRun, when set, acts as the agent; otherwise Result
// is returned.
type FakeRunner struct {
	OnRun  func(inv agent.Invocation) agent.Result
	Result agent.Result

	mu    sync.Mutex
	calls []agent.Invocation
	modes []string
}

var _ agent.Runner = (*FakeRunner)(nil)

func (f *FakeRunner) run(inv agent.Invocation, mode string) agent.Result {
	f.mu.Lock()
	f.calls = append(f.calls, inv)
	f.modes = append(f.modes, mode)
	f.mu.Unlock()

	if f.OnRun != nil {
		return f.OnRun(inv)
	}
	return f.Result
}

func (f *FakeRunner) RunCaptured(_ context.Context, inv agent.Invocation, _ string) (agent.Result, error) {
	return f.run(inv, "captured"), nil
}

func (f *FakeRunner) RunInteractive(_ context.Context, inv agent.Invocation) (int, error) {
	return f.run(inv, "interactive").ExitCode, nil
}

// Calls returns the recorded invocations.
func (f *FakeRunner) Calls() []agent.Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]agent.Invocation(nil), f.calls...)
}

// Modes returns "captured" or "interactive" per call.
func (f *FakeRunner) Modes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.modes...)
}
