// Package display provides user-friendly formatting for CLI output.
package display

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Palette, adaptive to light and dark terminals.
var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	colorError   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	colorInfo    = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	colorCommand = lipgloss.AdaptiveColor{Light: "#4cbf99", Dark: "#95e6cb"}
)

var (
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	commandStyle = lipgloss.NewStyle().Foreground(colorCommand)
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

var (
	colorEnabled     = true
	colorInitialized = false
	colorMu          sync.RWMutex
)

// InitColors decides once whether output is styled. Colors are off with
// --no-color, when NO_COLOR is set, or when stdout is not a terminal.
func InitColors(noColor bool) {
	colorMu.Lock()
	defer colorMu.Unlock()

	colorInitialized = true

	if noColor {
		colorEnabled = false
		return
	}

	// https://no-color.org/
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		colorEnabled = false
		return
	}

	fd := os.Stdout.Fd()
	colorEnabled = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ColorsEnabled returns whether colors are currently enabled.
func ColorsEnabled() bool {
	colorMu.RLock()
	initialized := colorInitialized
	colorMu.RUnlock()

	if !initialized {
		InitColors(false)
	}

	colorMu.RLock()
	defer colorMu.RUnlock()
	return colorEnabled
}

// SetColorsEnabled allows manual control of color output (useful for testing).
func SetColorsEnabled(enabled bool) {
	colorMu.Lock()
	defer colorMu.Unlock()
	colorEnabled = enabled
	colorInitialized = true
}

func render(style lipgloss.Style, text string) string {
	if !ColorsEnabled() {
		return text
	}
	return style.Render(text)
}

// Success formats text as successful (green).
func Success(text string) string { return render(successStyle, text) }

// Error formats text as an error (red).
func Error(text string) string { return render(errorStyle, text) }

// Warning formats text as a warning (yellow).
func Warning(text string) string { return render(warningStyle, text) }

// Info formats text as informational (blue).
func Info(text string) string { return render(infoStyle, text) }

// Muted formats text as secondary (gray).
func Muted(text string) string { return render(mutedStyle, text) }

// Bold formats text as bold.
func Bold(text string) string { return render(boldStyle, text) }

// Cyan formats commands and code.
func Cyan(text string) string { return render(commandStyle, text) }

// SuccessMsg formats a success message with a checkmark.
func SuccessMsg(format string, args ...any) string {
	return Success("✓") + " " + fmt.Sprintf(format, args...)
}

// ErrorMsg formats an error message with a cross.
func ErrorMsg(format string, args ...any) string {
	return Error("✗") + " " + Error(fmt.Sprintf(format, args...))
}

// WarningMsg formats a warning message.
func WarningMsg(format string, args ...any) string {
	return Warning("⚠") + " " + Warning(fmt.Sprintf(format, args...))
}

// InfoMsg formats an info message with an arrow.
func InfoMsg(format string, args ...any) string {
	return Info("→") + " " + fmt.Sprintf(format, args...)
}
