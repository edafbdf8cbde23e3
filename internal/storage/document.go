package storage

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelim = "---"

// Document is a markdown file split into its YAML frontmatter and body.
type Document struct {
	Path        string         `json:"path"`
	Frontmatter map[string]any `json:"frontmatter"`
	Body        string         `json:"body,omitempty"`
}

// Type returns the document's "type" frontmatter field.
func (d *Document) Type() string {
	s, _ := d.Frontmatter[TypeField].(string)

	return s
}

// String returns a frontmatter field as a string, or "" if it is absent or
// not a string.
func (d *Document) String(field string) string {
	s, _ := d.Frontmatter[field].(string)

	return s
}

// parseDocument splits raw file content. Content without a leading "---"
// line is treated as body only.
func parseDocument(path string, data []byte) (*Document, error) {
	doc := &Document{Path: path, Frontmatter: map[string]any{}}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(content, frontmatterDelim+"\n") {
		doc.Body = content

		return doc, nil
	}

	rest := content[len(frontmatterDelim)+1:]
	var header, body string
	switch {
	case strings.HasPrefix(rest, frontmatterDelim+"\n"):
		body = rest[len(frontmatterDelim)+1:]
	case rest == frontmatterDelim:
	default:
		end := strings.Index(rest, "\n"+frontmatterDelim+"\n")
		if end < 0 {
			if !strings.HasSuffix(rest, "\n"+frontmatterDelim) {
				return nil, fmt.Errorf("%w: %s: unterminated frontmatter", ErrMalformed, path)
			}
			header = strings.TrimSuffix(rest, "\n"+frontmatterDelim)
		} else {
			header = rest[:end]
			body = rest[end+len(frontmatterDelim)+2:]
		}
	}

	if strings.TrimSpace(header) != "" {
		if err := yaml.Unmarshal([]byte(header), &doc.Frontmatter); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
		}
		if doc.Frontmatter == nil {
			doc.Frontmatter = map[string]any{}
		}
	}
	doc.Body = strings.TrimPrefix(body, "\n")

	return doc, nil
}

// formatDocument renders frontmatter and body back into file content.
func formatDocument(frontmatter map[string]any, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(frontmatterDelim + "\n")

	if len(frontmatter) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(frontmatter); err != nil {
			return nil, fmt.Errorf("encode frontmatter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode frontmatter: %w", err)
		}
	}

	buf.WriteString(frontmatterDelim + "\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}
