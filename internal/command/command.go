// Package command loads command templates: store documents of type
// "command" whose frontmatter is an execution profile and whose body is the
// prompt template.
package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/valksor/go-opsdesk/internal/storage"
)

// DocType is the store document type of command templates.
const DocType = "command"

var (
	ErrNotFound  = errors.New("command not found")
	ErrAmbiguous = errors.New("command id is not unique")
)

// Template is a command template as read from the store.
type Template struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	// Title is an optional human label.
	Title string `json:"title,omitempty"`

	// Execution profile. Empty fields defer to config and fallbacks.
	CLI            string `json:"cli,omitempty"`
	Mode           string `json:"mode,omitempty"`
	Model          string `json:"model,omitempty"`
	PermissionMode string `json:"permission_mode,omitempty"`
	Sandbox        string `json:"sandbox,omitempty"`
	Approval       string `json:"approval,omitempty"`

	// Placeholders are the names the template declares it uses.
	Placeholders []string `json:"placeholders,omitempty"`

	Body string `json:"-"`
}

// Lookup finds the command with the given id. It fails with ErrNotFound
// when none matches and ErrAmbiguous when several do.
func Lookup(store storage.Store, id string) (*Template, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty command id", ErrNotFound)
	}

	docs, err := store.Query(storage.Query{
		Types:       []string{DocType},
		Where:       storage.Eq("id", id),
		IncludeBody: true,
	})
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}

	switch len(docs) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return FromDocument(&docs[0]), nil
	}

	paths := make([]string, 0, len(docs))
	for _, d := range docs {
		paths = append(paths, d.Path)
	}
	return nil, fmt.Errorf("%w: %s is defined in %s", ErrAmbiguous, id, strings.Join(paths, ", "))
}

// List returns every command template ordered by id.
func List(store storage.Store) ([]*Template, error) {
	docs, err := store.Query(storage.Query{Types: []string{DocType}, OrderBy: "id"})
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	out := make([]*Template, 0, len(docs))
	for i := range docs {
		out = append(out, FromDocument(&docs[i]))
	}
	return out, nil
}

// FromDocument maps a command document onto a Template. "agent" is
// accepted as an alias of "cli".
func FromDocument(doc *storage.Document) *Template {
	fm := doc.Frontmatter
	str := func(keys ...string) string {
		for _, k := range keys {
			if s := strings.TrimSpace(cast.ToString(fm[k])); s != "" {
				return s
			}
		}
		return ""
	}

	return &Template{
		ID:             str("id"),
		Path:           doc.Path,
		Title:          str("title"),
		CLI:            str("cli", "agent"),
		Mode:           str("mode"),
		Model:          str("model"),
		PermissionMode: str("permission_mode"),
		Sandbox:        str("sandbox"),
		Approval:       str("approval"),
		Placeholders:   cast.ToStringSlice(fm["placeholders"]),
		Body:           doc.Body,
	}
}
