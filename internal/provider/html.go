package provider

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy = bluemonday.StrictPolicy()

	blockBreak = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|li|tr|h[1-6]|pre|blockquote)>`)
	listItem   = regexp.MustCompile(`(?i)<li[^>]*>`)
	blankRuns  = regexp.MustCompile(`\n{3,}`)
)

// HTMLToText reduces rich-text fields (Jira rendered descriptions, Azure
// DevOps work item bodies) to plain text. Block-level closers become line
// breaks, list items become "- " bullets and entities are decoded.
func HTMLToText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	s = blockBreak.ReplaceAllString(s, "\n")
	s = listItem.ReplaceAllString(s, "- ")
	s = html.UnescapeString(stripPolicy.Sanitize(s))
	s = strings.ReplaceAll(s, "\u00a0", " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	s = strings.Join(lines, "\n")

	return strings.TrimSpace(blankRuns.ReplaceAllString(s, "\n\n"))
}
