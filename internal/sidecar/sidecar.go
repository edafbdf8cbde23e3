// Package sidecar keeps the local operational record that shadows each
// remote item: a markdown document under items/ whose frontmatter mirrors
// the item's remote state and carries locally owned triage fields.
//
// Refreshing a sidecar replaces only the remote-mirror fields. Local fields
// change only through SetFields or through an agent editing the file.
package sidecar

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/valksor/go-opsdesk/internal/item"
	"github.com/valksor/go-opsdesk/internal/kv"
	"github.com/valksor/go-opsdesk/internal/log"
	"github.com/valksor/go-opsdesk/internal/storage"
)

// DocType is the store document type of sidecar records.
const DocType = "sidecar"

// Identity fields, written once on create.
const (
	FieldID       = "id"
	FieldProvider = "provider"
	FieldKind     = "kind"
	FieldKey      = "key"
	FieldRepo     = "repo"
	FieldNumber   = "number"
)

// Remote-mirror fields, overwritten on every Ensure.
const (
	FieldRemoteState     = "remote_state"
	FieldRemoteTitle     = "remote_title"
	FieldRemoteAuthor    = "remote_author"
	FieldRemoteURL       = "remote_url"
	FieldRemoteUpdatedAt = "remote_updated_at"
	FieldLastSeenUpdate  = "last_seen_remote_updated_at"
)

// Local fields, defaulted on create and never touched by Ensure.
const (
	FieldLocalStatus    = "local_status"
	FieldPriority       = "priority"
	FieldDifficulty     = "difficulty"
	FieldRisk           = "risk"
	FieldOwner          = "owner"
	FieldTags           = "tags"
	FieldSummary        = "summary"
	FieldNotes          = "notes"
	FieldCommandID      = "command_id"
	FieldSyncState      = "sync_state"
	FieldLastAnalyzedAt = "last_analyzed_at"
)

// StatusNew is the local_status of a freshly created sidecar.
const StatusNew = "new"

var (
	// ErrReadOnlyField is returned by SetFields for identity and
	// remote-mirror keys.
	ErrReadOnlyField = errors.New("field is read-only")

	// ErrNoFields is returned by SetFields when given nothing to set.
	ErrNoFields = errors.New("no fields to set")
)

// RemoteFields lists the remote-mirror keys in write order.
func RemoteFields() []string {
	return []string{
		FieldRemoteState, FieldRemoteTitle, FieldRemoteAuthor,
		FieldRemoteURL, FieldRemoteUpdatedAt, FieldLastSeenUpdate,
	}
}

func readOnlyFields() []string {
	return append([]string{storage.TypeField, FieldID, FieldProvider, FieldKind, FieldKey, FieldRepo, FieldNumber}, RemoteFields()...)
}

// Record is a sidecar as read from the store.
type Record struct {
	Path        string         `json:"path"`
	Frontmatter map[string]any `json:"frontmatter"`
	Body        string         `json:"body"`
}

// String returns a frontmatter field rendered as a string, "" when absent.
func (r *Record) String(field string) string {
	v, ok := r.Frontmatter[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// LocalStatus returns the local_status field.
func (r *Record) LocalStatus() string { return r.String(FieldLocalStatus) }

// Risk returns the risk field.
func (r *Record) Risk() string { return r.String(FieldRisk) }

// EnsureResult reports what Ensure did.
type EnsureResult struct {
	Path    string `json:"path"`
	Created bool   `json:"created"`
	// Drifted is set when the remote updated_at moved since the previous
	// Ensure. It is informational only.
	Drifted bool `json:"drifted"`
}

// remoteMirror maps an item onto the remote-mirror fields.
func remoteMirror(it *item.RemoteItem) map[string]any {
	return map[string]any{
		FieldRemoteState:     it.State,
		FieldRemoteTitle:     it.Title,
		FieldRemoteAuthor:    it.Author,
		FieldRemoteURL:       it.URL,
		FieldRemoteUpdatedAt: it.UpdatedAt,
		FieldLastSeenUpdate:  it.UpdatedAt,
	}
}

func newFrontmatter(it *item.RemoteItem) map[string]any {
	fm := map[string]any{
		FieldID:       it.ID(),
		FieldProvider: string(it.Provider),
		FieldKind:     string(it.Kind),
		FieldKey:      it.Key,

		FieldLocalStatus:    StatusNew,
		FieldPriority:       "",
		FieldDifficulty:     "",
		FieldRisk:           "",
		FieldOwner:          "",
		FieldTags:           []string{},
		FieldSummary:        "",
		FieldNotes:          "",
		FieldCommandID:      "",
		FieldSyncState:      "synced",
		FieldLastAnalyzedAt: "",
	}
	if it.Repo != "" {
		fm[FieldRepo] = it.Repo
	}
	if it.Number > 0 {
		fm[FieldNumber] = it.Number
	}
	for k, v := range remoteMirror(it) {
		fm[k] = v
	}
	return fm
}

// Ensure creates the sidecar for it, or refreshes the remote-mirror fields
// of an existing one. Local fields and the body of an existing sidecar are
// left alone.
func Ensure(store storage.Store, it *item.RemoteItem) (*EnsureResult, error) {
	path := it.Path()

	existing, err := store.Read(path)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		body := fmt.Sprintf("# %s\n\n## Notes\n", strings.TrimSpace(it.Title))
		if err := store.Create(DocType, path, newFrontmatter(it), body); err != nil {
			return nil, fmt.Errorf("create sidecar %s: %w", path, err)
		}
		log.Debug("sidecar created", log.ItemID(it.ID()), "path", path)

		return &EnsureResult{Path: path, Created: true}, nil
	case err != nil:
		return nil, fmt.Errorf("read sidecar %s: %w", path, err)
	}

	prev := (&Record{Frontmatter: existing.Frontmatter}).String(FieldLastSeenUpdate)
	drifted := prev != "" && prev != it.UpdatedAt

	if err := store.Update(path, remoteMirror(it)); err != nil {
		return nil, fmt.Errorf("refresh sidecar %s: %w", path, err)
	}
	log.Debug("sidecar refreshed", log.ItemID(it.ID()), "path", path, "drifted", drifted)

	return &EnsureResult{Path: path, Drifted: drifted}, nil
}

// Read loads the sidecar at path. A missing sidecar yields an error
// wrapping storage.ErrNotFound.
func Read(store storage.Store, path string) (*Record, error) {
	doc, err := store.Read(path)
	if err != nil {
		return nil, err
	}
	return &Record{Path: doc.Path, Frontmatter: doc.Frontmatter, Body: doc.Body}, nil
}

// Find reads the sidecar for (kind, key), returning nil without error when
// none exists.
func Find(store storage.Store, kind item.Kind, key string) (*Record, error) {
	rec, err := Read(store, item.Path(kind, key))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// SetFields parses "key=value" pairs with value coercion and merges them
// into the sidecar at path. Identity and remote-mirror keys are rejected
// before anything is written.
func SetFields(store storage.Store, path string, pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, ErrNoFields
	}

	fields, err := kv.Parse(pairs, true)
	if err != nil {
		return nil, err
	}

	readOnly := readOnlyFields()
	var rejected []string
	for k := range fields {
		if slices.Contains(readOnly, k) {
			rejected = append(rejected, k)
		}
	}
	if len(rejected) > 0 {
		slices.Sort(rejected)
		return nil, fmt.Errorf("%w: %s", ErrReadOnlyField, strings.Join(rejected, ", "))
	}

	if err := store.Update(path, fields); err != nil {
		return nil, fmt.Errorf("update sidecar %s: %w", path, err)
	}
	log.Debug("sidecar fields set", "path", path, "count", len(fields))

	return fields, nil
}
