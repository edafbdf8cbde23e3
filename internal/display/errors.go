package display

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valksor/go-opsdesk/internal/command"
	"github.com/valksor/go-opsdesk/internal/conductor"
	"github.com/valksor/go-opsdesk/internal/kv"
	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
	"github.com/valksor/go-opsdesk/internal/sidecar"
	"github.com/valksor/go-opsdesk/internal/storage"
)

// Suggestion represents a suggested action for error recovery.
type Suggestion struct {
	Command     string
	Description string
}

// ErrorWithSuggestions formats an error message with actionable suggestions.
func ErrorWithSuggestions(message string, suggestions []Suggestion) string {
	var sb strings.Builder

	sb.WriteString(ErrorMsg("%s", message))
	sb.WriteString("\n")

	if len(suggestions) > 0 {
		sb.WriteString("\n")
		sb.WriteString(Muted("Suggested actions:"))
		sb.WriteString("\n")
		for _, s := range suggestions {
			fmt.Fprintf(&sb, "  %s %s - %s\n", Muted("•"), Cyan(s.Command), s.Description)
		}
	}

	return sb.String()
}

// FormatError renders err for the terminal, with recovery hints for the
// errors a user can act on.
func FormatError(err error) string {
	return ErrorWithSuggestions(err.Error(), SuggestionsFor(err))
}

// SuggestionsFor returns recovery hints for err, or nil.
func SuggestionsFor(err error) []Suggestion {
	var missing *conductor.MissingVariablesError

	switch {
	case errors.Is(err, storage.ErrLockHeld):
		return []Suggestion{
			{Command: "retry", Description: "another process holds the lock; retry when it finishes"},
			{Command: "opsdesk lock status", Description: "Show which process holds the lock"},
		}
	case errors.Is(err, storage.ErrLockAcquisitionFailed):
		return []Suggestion{
			{Command: "opsdesk lock release --force", Description: "Remove a lock left behind by a crashed process"},
		}
	case errors.As(err, &missing):
		out := make([]Suggestion, 0, len(missing.Names)+1)
		for _, name := range missing.Names {
			out = append(out, Suggestion{Command: "--var " + name + "=...", Description: "Supply the value on the command line"})
		}
		return append(out, Suggestion{Command: "opsdesk run --dry-run " + missing.Command, Description: "Preview the rendered prompt"})
	case errors.Is(err, command.ErrNotFound), errors.Is(err, command.ErrAmbiguous):
		return []Suggestion{
			{Command: "opsdesk commands", Description: "List the command templates in the store"},
		}
	case errors.Is(err, providererrors.ErrMissingCredential):
		return []Suggestion{
			{Command: ".ops/.env", Description: "Export the token variable named above, or add it to this file"},
		}
	case errors.Is(err, providererrors.ErrScopeUnresolved):
		return []Suggestion{
			{Command: "--repo owner/name", Description: "Name the repository or project explicitly"},
		}
	case errors.Is(err, providererrors.ErrAmbiguousReference):
		return []Suggestion{
			{Command: "--task path/to/task.md", Description: "Reference the task by its path in the store"},
		}
	case errors.Is(err, sidecar.ErrReadOnlyField):
		return []Suggestion{
			{Command: "opsdesk item ensure", Description: "Refresh remote fields from the provider"},
		}
	case errors.Is(err, kv.ErrInvalidPair), errors.Is(err, kv.ErrInvalidKey):
		return []Suggestion{
			{Command: "key=value", Description: "Pass pairs as key=value with a non-empty key"},
		}
	}

	return nil
}
