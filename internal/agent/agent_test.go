package agent

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"slices"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type mockAgent struct {
	kind Kind
}

func (m *mockAgent) Kind() Kind     { return m.kind }
func (m *mockAgent) Binary() string { return string(m.kind) + "-bin" }
func (m *mockAgent) Args(prompt string, p Params) []string {
	return []string{string(p.Mode), prompt}
}

type fakeRunner struct {
	captured    []Invocation
	interactive []Invocation
	result      Result
}

func (f *fakeRunner) RunCaptured(_ context.Context, inv Invocation, _ string) (Result, error) {
	f.captured = append(f.captured, inv)
	return f.result, nil
}

func (f *fakeRunner) RunInteractive(_ context.Context, inv Invocation) (int, error) {
	f.interactive = append(f.interactive, inv)
	return f.result.ExitCode, nil
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "codex", want: KindCodex},
		{in: " Claude ", want: KindClaude},
		{in: "gemini", want: KindGemini},
		{in: "aider", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownAgent) {
					t.Errorf("err = %v, want ErrUnknownAgent", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"interactive": ModeInteractive, "exec": ModeExec, "print": ModeExec} {
		if got, err := ParseMode(in); err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("batch"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("err = %v, want ErrUnknownMode", err)
	}
}

func TestKindsFallbackOrder(t *testing.T) {
	if Kinds()[0] != KindCodex {
		t.Errorf("first kind = %q, want codex", Kinds()[0])
	}
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(&mockAgent{kind: KindCodex}, &mockAgent{kind: KindClaude})
	if err != nil {
		t.Fatal(err)
	}

	if r.Fallback() != KindCodex {
		t.Errorf("Fallback = %q, want codex", r.Fallback())
	}
	if diff := cmp.Diff([]Kind{KindCodex, KindClaude}, r.Kinds()); diff != "" {
		t.Errorf("Kinds mismatch (-want +got):\n%s", diff)
	}
	if a, err := r.Get(KindClaude); err != nil || a.Kind() != KindClaude {
		t.Errorf("Get(claude) = %v, %v", a, err)
	}
	if _, err := r.Get(KindGemini); !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("Get(gemini) err = %v, want ErrUnknownAgent", err)
	}
	if err := r.Register(&mockAgent{kind: KindCodex}); err == nil {
		t.Error("duplicate Register should fail")
	}
}

func TestBuildAndRun(t *testing.T) {
	a := &mockAgent{kind: KindClaude}
	inv := Build(a, "do it", "/work", Params{Mode: ModeExec})

	want := Invocation{Binary: "claude-bin", Args: []string{"exec", "do it"}, Dir: "/work"}
	if diff := cmp.Diff(want, inv); diff != "" {
		t.Errorf("Build mismatch (-want +got):\n%s", diff)
	}

	runner := &fakeRunner{result: Result{ExitCode: 2, Stdout: "out"}}
	res, err := Run(context.Background(), runner, inv, ModeExec)
	if err != nil {
		t.Fatal(err)
	}
	if res.ExitCode != 2 || res.Stdout != "out" || len(runner.captured) != 1 {
		t.Errorf("exec run = %+v, captured %d", res, len(runner.captured))
	}

	res, err = Run(context.Background(), runner, inv, ModeInteractive)
	if err != nil {
		t.Fatal(err)
	}
	if res.ExitCode != 2 || res.Stdout != "" || len(runner.interactive) != 1 {
		t.Errorf("interactive run = %+v, interactive %d", res, len(runner.interactive))
	}
}

func TestExpandEnv(t *testing.T) {
	if ExpandEnv(nil) != nil {
		t.Error("nil env should inherit")
	}

	t.Setenv("OPSDESK_TEST_BASE", "base")
	env := ExpandEnv(map[string]string{"OPSDESK_TEST_DERIVED": "${OPSDESK_TEST_BASE}-x"})
	if !slices.Contains(env, "OPSDESK_TEST_DERIVED=base-x") {
		t.Errorf("expanded var missing from env")
	}
}

func requireSh(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestExecRunnerCaptured(t *testing.T) {
	sh := requireSh(t)
	r := NewExecRunner()

	res, err := r.RunCaptured(context.Background(), Invocation{
		Binary: sh,
		Args:   []string{"-c", "read line; echo \"got $line\"; echo oops >&2; exit 3"},
	}, "hello\n")
	if err != nil {
		t.Fatalf("RunCaptured: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "got hello" || strings.TrimSpace(res.Stderr) != "oops" {
		t.Errorf("output = %q / %q", res.Stdout, res.Stderr)
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	_, err := NewExecRunner().RunCaptured(context.Background(), Invocation{Binary: "opsdesk-no-such-agent"}, "")
	if err == nil {
		t.Error("expected error for missing binary")
	}
}

func TestExecRunnerCancel(t *testing.T) {
	sh := requireSh(t)
	r := &ExecRunner{WaitDelay: time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := r.RunCaptured(ctx, Invocation{Binary: sh, Args: []string{"-c", "sleep 5"}}, "")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestForwardedSignals(t *testing.T) {
	for _, sig := range []os.Signal{os.Interrupt, syscall.SIGTERM} {
		if !slices.Contains(forwardedSignals, sig) {
			t.Errorf("%v is not forwarded to interactive agents", sig)
		}
	}
}
