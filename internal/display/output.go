package display

import (
	"fmt"
	"strings"

	"github.com/valksor/go-opsdesk/internal/item"
	"github.com/valksor/go-opsdesk/internal/sidecar"
)

// FormatItem formats a fetched item for "opsdesk context" and
// "opsdesk item show".
func FormatItem(it *item.RemoteItem) string {
	if it == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", Bold(ItemLabel(it)), it.Title)
	sb.WriteString(KeyValue("State", it.State))
	sb.WriteString(KeyValue("Author", it.Author))
	sb.WriteString(KeyValue("URL", it.URL))
	sb.WriteString(KeyValue("Labels", strings.Join(it.Labels, ", ")))
	sb.WriteString(KeyValue("Assignees", strings.Join(it.Assignees, ", ")))
	sb.WriteString(KeyValue("Updated", it.UpdatedAt))
	if it.Kind == item.KindPR {
		sb.WriteString(KeyValue("Branch", it.HeadRefName+" -> "+it.BaseRefName))
	}
	return sb.String()
}

// ItemLabel returns a short reference such as "github acme/widgets#7" or
// "local task tasks/x.md".
func ItemLabel(it *item.RemoteItem) string {
	switch {
	case it.Kind == item.KindTask:
		return fmt.Sprintf("%s task %s", it.Provider, it.Key)
	case it.Repo != "":
		return fmt.Sprintf("%s %s %s#%s", it.Provider, it.Kind, it.Repo, it.Key)
	default:
		return fmt.Sprintf("%s %s #%s", it.Provider, it.Kind, it.Key)
	}
}

// FormatSidecar formats the locally owned fields of a sidecar.
func FormatSidecar(rec *sidecar.Record) string {
	if rec == nil {
		return Muted("no sidecar") + "\n"
	}

	var sb strings.Builder
	sb.WriteString(KeyValue("Sidecar", rec.Path))
	sb.WriteString(KeyValue("Status", FormatStatusColored(rec.LocalStatus())))
	sb.WriteString(KeyValue("Risk", FormatRisk(rec.Risk())))
	for _, field := range []string{
		sidecar.FieldPriority, sidecar.FieldDifficulty, sidecar.FieldOwner,
		sidecar.FieldSummary, sidecar.FieldSyncState, sidecar.FieldLastAnalyzedAt,
	} {
		if v := rec.String(field); v != "" {
			sb.WriteString(KeyValue(field, v))
		}
	}
	return sb.String()
}

// NextStep represents a single next step suggestion.
type NextStep struct {
	Command     string
	Description string
}

// FormatNextSteps formats the "Next steps:" section.
func FormatNextSteps(steps ...NextStep) string {
	if len(steps) == 0 {
		return ""
	}

	maxLen := 0
	for _, s := range steps {
		maxLen = max(maxLen, len(s.Command))
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(Muted("Next steps:"))
	sb.WriteString("\n")
	for _, s := range steps {
		pad := strings.Repeat(" ", maxLen-len(s.Command))
		fmt.Fprintf(&sb, "  %s%s  %s\n", Cyan(s.Command), pad, Muted("- "+s.Description))
	}
	return sb.String()
}
