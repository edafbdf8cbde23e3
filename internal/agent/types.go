package agent

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names an agent CLI.
type Kind string

const (
	KindCodex  Kind = "codex"
	KindClaude Kind = "claude"
	KindGemini Kind = "gemini"
)

// Kinds lists the supported agent CLIs. The first one is the hardwired
// fallback.
func Kinds() []Kind {
	return []Kind{KindCodex, KindClaude, KindGemini}
}

// ParseKind validates an agent CLI name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAgent, s)
}

// Mode selects how the agent is run.
type Mode string

const (
	// ModeInteractive hands the terminal to the agent. Output is not
	// captured.
	ModeInteractive Mode = "interactive"
	// ModeExec runs the agent headless and captures its output.
	ModeExec Mode = "exec"
)

// ParseMode validates a mode name. "print" and "headless" are accepted as
// aliases for exec.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ModeInteractive):
		return ModeInteractive, nil
	case string(ModeExec), "print", "headless":
		return ModeExec, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

var (
	ErrUnknownAgent = errors.New("unknown agent CLI")
	ErrUnknownMode  = errors.New("unknown run mode")
)

// Params is the resolved execution profile of one run. Empty optional
// fields are left to the agent CLI's own defaults.
type Params struct {
	CLI            Kind              `json:"cli"`
	Mode           Mode              `json:"mode"`
	Model          string            `json:"model,omitempty"`
	PermissionMode string            `json:"permission_mode,omitempty"`
	Sandbox        string            `json:"sandbox,omitempty"`
	Approval       string            `json:"approval,omitempty"`
	Env            map[string]string `json:"env,omitempty"`
}

// Result is what a finished agent process reported. A non-zero ExitCode is
// a normal outcome, not an error. Stdout and Stderr are empty in
// interactive mode.
type Result struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}
