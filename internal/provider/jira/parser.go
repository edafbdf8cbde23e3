package jira

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/valksor/go-opsdesk/internal/item"
	"github.com/valksor/go-opsdesk/internal/provider"
	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
)

// jiraTime is the timestamp layout Jira uses for "updated".
const jiraTime = "2006-01-02T15:04:05.000-0700"

var issueKeyPattern = regexp.MustCompile(`^([A-Z][A-Z0-9_]*)-(\d+)$`)

// ParseKey splits a "PROJ-123" key. Bare numbers are joined with project.
func ParseKey(raw, project string) (proj string, number int, err error) {
	raw = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(raw, "#")))
	if m := issueKeyPattern.FindStringSubmatch(raw); m != nil {
		n, _ := strconv.Atoi(m[2])
		return m[1], n, nil
	}

	n, convErr := strconv.Atoi(raw)
	if convErr != nil || n <= 0 {
		return "", 0, fmt.Errorf("%w: %q is neither PROJ-N nor a number", providererrors.ErrInvalidReference, raw)
	}
	if project == "" {
		return "", 0, providererrors.ScopeError(ProviderName, "--repo", "JIRA_PROJECT", "providers.jira.project")
	}
	return strings.ToUpper(project), n, nil
}

func issueToItem(project string, number int, browseURL string, issue *Issue) *item.RemoteItem {
	it := &item.RemoteItem{
		Provider:  item.ProviderJira,
		Kind:      item.KindIssue,
		Key:       strconv.Itoa(number),
		Repo:      project,
		Number:    number,
		Title:     issue.Fields.Summary,
		Body:      description(issue),
		Author:    issue.Fields.Reporter.Login(),
		URL:       browseURL,
		Labels:    append([]string{}, issue.Fields.Labels...),
		Assignees: []string{},
		UpdatedAt: normalizeTime(issue.Fields.Updated),
	}
	if issue.Fields.Status != nil {
		it.State = issue.Fields.Status.Name
	}
	if login := issue.Fields.Assignee.Login(); login != "" {
		it.Assignees = append(it.Assignees, login)
	}
	return it
}

// description prefers the rendered HTML, then a v2 plain string, then the
// text nodes of a v3 document.
func description(issue *Issue) string {
	if issue.RenderedFields.Description != "" {
		return provider.HTMLToText(issue.RenderedFields.Description)
	}

	raw := issue.Fields.Description
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var doc adfNode
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	var b strings.Builder
	doc.writeText(&b)
	return strings.TrimSpace(b.String())
}

// adfNode is one node of an Atlassian Document Format tree.
type adfNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text"`
	Content []adfNode `json:"content"`
}

func (n adfNode) writeText(b *strings.Builder) {
	switch n.Type {
	case "text":
		b.WriteString(n.Text)
	case "hardBreak":
		b.WriteString("\n")
	case "listItem":
		b.WriteString("- ")
	}
	for _, c := range n.Content {
		c.writeText(b)
	}
	switch n.Type {
	case "paragraph", "heading", "codeBlock", "blockquote":
		b.WriteString("\n")
	}
}

func normalizeTime(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range []string{jiraTime, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return s
}
