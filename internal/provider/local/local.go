// Package local serves tasks that live as markdown documents in the store
// itself. It is the only provider for item.KindTask.
package local

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/valksor/go-opsdesk/internal/item"
	"github.com/valksor/go-opsdesk/internal/log"
	"github.com/valksor/go-opsdesk/internal/provider"
	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
	"github.com/valksor/go-opsdesk/internal/storage"
)

// ProviderName is the registered name for this provider.
const ProviderName = string(item.ProviderLocal)

// TaskType is the document type of task files.
const TaskType = "task"

// Adapter implements provider.Adapter over a document store.
type Adapter struct {
	store storage.Store
}

var _ provider.Adapter = (*Adapter)(nil)

// New creates a local task adapter reading from store.
func New(store storage.Store) *Adapter {
	return &Adapter{store: store}
}

// ID implements provider.Adapter.
func (a *Adapter) ID() item.ProviderID { return item.ProviderLocal }

// DetectRepo returns the store root. Tasks need no remote scope, so this
// never fails.
func (a *Adapter) DetectRepo(_ context.Context, _ string) (string, error) {
	if a.store == nil {
		return "", nil
	}
	return a.store.Root(), nil
}

// FetchItem resolves req.Key as a store path, the same path with ".md"
// appended, or an exact task title, in that order.
func (a *Adapter) FetchItem(_ context.Context, req provider.FetchRequest) (*item.RemoteItem, error) {
	if req.Kind != item.KindTask {
		return nil, providererrors.UnsupportedKindError(ProviderName, string(req.Kind))
	}
	ref := strings.TrimSpace(req.Key)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty task reference", providererrors.ErrInvalidReference)
	}

	doc, err := a.resolve(ref)
	if err != nil {
		return nil, err
	}
	log.Debug("local task resolved", "ref", ref, "path", doc.Path)

	return documentToItem(doc), nil
}

// ItemRef returns the task's path, or its key when the path is unknown.
func (a *Adapter) ItemRef(it *item.RemoteItem) string {
	if it.SourcePath != "" {
		return it.SourcePath
	}
	return it.Key
}

func (a *Adapter) resolve(ref string) (*storage.Document, error) {
	for _, candidate := range pathCandidates(ref) {
		doc, err := a.store.Read(candidate)
		if err == nil {
			// Untyped files count as tasks; sidecars and commands do not.
			if t := doc.Type(); t == "" || t == TaskType {
				return doc, nil
			}
			log.Debug("skipping non-task document", "path", doc.Path, "type", doc.Type())
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, storage.ErrBadPath) {
			return nil, err
		}
	}

	matches, err := a.store.Query(storage.Query{
		Types:       []string{TaskType},
		Where:       storage.Eq("title", ref),
		IncludeBody: true,
	})
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: no task with path or title %q", storage.ErrNotFound, ref)
	case 1:
		return &matches[0], nil
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, m.Path)
	}
	return nil, fmt.Errorf("%w: title %q matches %s; pass a path instead",
		providererrors.ErrAmbiguousReference, ref, strings.Join(paths, ", "))
}

func pathCandidates(ref string) []string {
	p := strings.TrimPrefix(path.Clean(strings.ReplaceAll(ref, "\\", "/")), "./")
	if strings.HasSuffix(p, ".md") {
		return []string{p}
	}
	return []string{p, p + ".md"}
}

func documentToItem(doc *storage.Document) *item.RemoteItem {
	title := doc.String("title")
	body := doc.Body
	if title == "" {
		title, body = splitHeading(doc.Body)
	}
	if title == "" {
		title = strings.TrimSuffix(path.Base(doc.Path), ".md")
	}

	state := doc.String("status")
	if state == "" {
		state = "open"
	}

	return &item.RemoteItem{
		Provider:   item.ProviderLocal,
		Kind:       item.KindTask,
		Key:        doc.Path,
		SourcePath: doc.Path,
		Title:      title,
		Body:       strings.TrimSpace(body),
		Author:     doc.String("author"),
		State:      state,
		Labels:     stringList(doc.Frontmatter["tags"], doc.Frontmatter["labels"]),
		Assignees:  stringList(doc.Frontmatter["assignees"], doc.Frontmatter["owner"]),
		UpdatedAt:  timeField(doc.Frontmatter["updated_at"]),
	}
}

// splitHeading pulls the first "# " heading out of body.
func splitHeading(body string) (string, string) {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:]), strings.Join(lines[i+1:], "\n")
		}
		break
	}
	return "", body
}

// stringList flattens the first non-empty of the given frontmatter values
// into a list. Scalars become one-element lists; comma separated strings
// are split.
func stringList(values ...any) []string {
	out := []string{}
	for _, v := range values {
		switch x := v.(type) {
		case []any:
			for _, e := range x {
				if s := strings.TrimSpace(fmt.Sprint(e)); s != "" {
					out = append(out, s)
				}
			}
		case []string:
			for _, s := range x {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		case string:
			for _, s := range strings.Split(x, ",") {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return out
}

// timeField normalizes a frontmatter timestamp. yaml.v3 decodes unquoted
// timestamps as time.Time.
func timeField(v any) string {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case string:
		return x
	}
	return ""
}
