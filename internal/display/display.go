package display

import (
	"fmt"
	"strings"
)

// StatusDisplay maps local_status values written by triage to display names.
var StatusDisplay = map[string]string{
	"new":         "New",
	"triaged":     "Triaged",
	"in_progress": "In progress",
	"blocked":     "Blocked",
	"needs_info":  "Needs info",
	"wontfix":     "Won't fix",
	"done":        "Done",
}

// StatusAccessiblePrefix gives each status a text marker so it does not
// depend on color alone.
var StatusAccessiblePrefix = map[string]string{
	"new":         "[N]",
	"triaged":     "[T]",
	"in_progress": "[P]",
	"blocked":     "[B]",
	"needs_info":  "[?]",
	"wontfix":     "[W]",
	"done":        "[D]",
}

// FormatStatus returns the display name for a local_status value. Unknown
// values are shown as is.
func FormatStatus(status string) string {
	if name, ok := StatusDisplay[strings.ToLower(status)]; ok {
		return name
	}
	return status
}

// FormatStatusColored returns the prefixed, colored status.
func FormatStatusColored(status string) string {
	key := strings.ToLower(status)
	name := FormatStatus(status)
	if prefix := StatusAccessiblePrefix[key]; prefix != "" {
		name = prefix + " " + name
	}

	switch key {
	case "new":
		return Muted(name)
	case "triaged", "in_progress":
		return Info(name)
	case "done":
		return Success(name)
	case "blocked", "wontfix":
		return Error(name)
	case "needs_info":
		return Warning(name)
	default:
		return name
	}
}

// FormatRisk colors a risk value.
func FormatRisk(risk string) string {
	switch strings.ToLower(risk) {
	case "":
		return Muted("unset")
	case "low":
		return Success(risk)
	case "medium":
		return Warning(risk)
	case "high":
		return Error(risk)
	default:
		return risk
	}
}

// FormatExitCode shows 0 as success and anything else as an error.
func FormatExitCode(code int) string {
	if code == 0 {
		return Success("0")
	}
	return Error(fmt.Sprintf("%d", code))
}
