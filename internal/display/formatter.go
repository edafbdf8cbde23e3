package display

import (
	"fmt"
	"strings"
)

// SeparatorLine underlines section headers.
var SeparatorLine = strings.Repeat("─", 60)

// keyWidth aligns KeyValue output.
const keyWidth = 14

// Section formats a section header.
func Section(title string) string {
	if title == "" {
		return "\n" + SeparatorLine + "\n"
	}
	return fmt.Sprintf("\n%s\n%s\n", Bold(title), SeparatorLine)
}

// KeyValue formats an aligned "key: value" line. Empty values print as a
// muted dash.
func KeyValue(key, value string) string {
	if value == "" {
		value = Muted("-")
	}
	return fmt.Sprintf("  %-*s %s\n", keyWidth, key+":", value)
}

// List formats a bulleted list.
func List(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sb, "  %s %s\n", Muted("•"), item)
	}
	return sb.String()
}

// Table formats rows under bold headers. Column widths are measured on the
// unstyled cells.
func Table(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	pad := func(cells []string) string {
		out := make([]string, len(cells))
		for i, c := range cells {
			if i < len(widths) && i < len(cells)-1 {
				c = fmt.Sprintf("%-*s", widths[i], c)
			}
			out[i] = c
		}
		return strings.Join(out, "  ")
	}

	var sb strings.Builder
	sb.WriteString(Bold(pad(headers)))
	sb.WriteString("\n")
	for _, row := range rows {
		sb.WriteString(pad(row))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Truncate shortens s to maxLen runes, ending in "...".
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}
