// Package runctx assembles the render context for a command run by merging,
// in increasing precedence, invocation paths, sidecar state, provider data
// and explicit --var overrides.
package runctx

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/valksor/go-opsdesk/internal/item"
	"github.com/valksor/go-opsdesk/internal/log"
	"github.com/valksor/go-opsdesk/internal/provider"
	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
	"github.com/valksor/go-opsdesk/internal/sidecar"
	"github.com/valksor/go-opsdesk/internal/storage"
	"github.com/valksor/go-opsdesk/internal/template"
)

// ItemNamespace is the provider-agnostic alias of the provider namespace.
const ItemNamespace = "item"

// Target names the item a run is about.
type Target struct {
	Kind item.Kind `json:"kind"`
	Key  string    `json:"key"`
}

// Options are the per-invocation inputs of Build.
type Options struct {
	// Target is nil for runs that are not about an item.
	Target *Target
	// Provider overrides the builder's default provider. Tasks always use
	// the local provider unless this is set.
	Provider item.ProviderID
	// Repo is the explicit scope; empty means detect.
	Repo string
	// Vars are --var overrides, applied last. Dotted keys also set the
	// nested path.
	Vars map[string]any
	// EnsureSidecar creates or refreshes the sidecar before reading it.
	EnsureSidecar bool
}

// Result is the built context plus the records it was built from.
type Result struct {
	Context map[string]any        `json:"context"`
	Item    *item.RemoteItem      `json:"item,omitempty"`
	Sidecar *sidecar.Record       `json:"sidecar,omitempty"`
	Ensure  *sidecar.EnsureResult `json:"ensure,omitempty"`
}

// Builder builds render contexts. It holds no per-run state.
type Builder struct {
	Store           storage.Store
	Registry        *provider.Registry
	RepoRoot        string
	Cwd             string
	DefaultProvider item.ProviderID
	// Now is the clock used for now_iso; nil means time.Now.
	Now func() time.Time
}

// Build runs the merge. A failed provider fetch fails the build; a missing
// sidecar does not.
func (b *Builder) Build(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{Context: map[string]any{
		"repo_root":  b.RepoRoot,
		"store_root": b.Store.Root(),
	}}
	if opts.Repo != "" {
		res.Context["repo"] = opts.Repo
	}

	if opts.Target != nil {
		if err := b.addTarget(ctx, res, opts); err != nil {
			return nil, err
		}
	}

	applyVars(res.Context, opts.Vars)

	if !template.Lookup(res.Context, "item_ref").Present {
		if ref := fallbackRef(res.Context, opts); ref != "" {
			res.Context["item_ref"] = ref
		}
	}

	res.Context["now_iso"] = b.now().UTC().Format(time.RFC3339)

	return res, nil
}

func (b *Builder) addTarget(ctx context.Context, res *Result, opts Options) error {
	adapter, err := b.Registry.Get(b.providerFor(opts))
	if err != nil {
		return err
	}

	it, err := adapter.FetchItem(ctx, provider.FetchRequest{
		Kind: opts.Target.Kind,
		Key:  opts.Target.Key,
		Cwd:  b.Cwd,
		Repo: opts.Repo,
	})
	if err != nil {
		return err
	}
	res.Item = it
	log.Debug("item fetched", log.Provider(string(it.Provider)), log.ItemID(it.ID()))

	if opts.EnsureSidecar {
		ensured, err := sidecar.Ensure(b.Store, it)
		if err != nil {
			return err
		}
		res.Ensure = ensured
	}

	rec, err := sidecar.Find(b.Store, it.Kind, it.Key)
	if err != nil {
		return fmt.Errorf("read sidecar: %w", err)
	}
	res.Sidecar = rec

	fields := itemFields(it, adapter.ItemRef(it))
	for k, v := range fields {
		res.Context[k] = v
	}
	res.Context[string(it.Provider)] = copyMap(fields)
	res.Context[ItemNamespace] = copyMap(fields)

	if rec != nil {
		b.addSidecar(res.Context, rec)
	}

	return nil
}

var trailingNumber = regexp.MustCompile(`[0-9]+$`)

// SidecarPath maps a target to its sidecar path without contacting a remote
// provider. Issue and pull request references keep only their trailing
// number ("#42", "!42" and "OPS-42" all give 42); tasks are resolved in the
// store.
func (b *Builder) SidecarPath(ctx context.Context, t Target) (string, error) {
	if t.Kind == item.KindTask {
		adapter, err := b.Registry.Get(item.ProviderLocal)
		if err != nil {
			return "", err
		}
		it, err := adapter.FetchItem(ctx, provider.FetchRequest{Kind: t.Kind, Key: t.Key, Cwd: b.Cwd})
		if err != nil {
			return "", err
		}
		return it.Path(), nil
	}

	digits := trailingNumber.FindString(strings.TrimSpace(t.Key))
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("%w: %q has no item number", providererrors.ErrInvalidReference, t.Key)
	}
	return item.Path(t.Kind, strconv.Itoa(n)), nil
}

func (b *Builder) providerFor(opts Options) item.ProviderID {
	switch {
	case opts.Provider != "":
		return opts.Provider
	case opts.Target.Kind == item.KindTask:
		return item.ProviderLocal
	case b.DefaultProvider != "":
		return b.DefaultProvider
	}
	return item.ProviderGitHub
}

// addSidecar copies sidecar fields only into keys not already set, then
// adds the derived paths and body.
func (b *Builder) addSidecar(c map[string]any, rec *sidecar.Record) {
	for k, v := range rec.Frontmatter {
		if _, exists := c[k]; !exists {
			c[k] = v
		}
	}
	if _, exists := c["sidecar"]; !exists {
		c["sidecar"] = copyMap(rec.Frontmatter)
	}

	abs := filepath.Join(b.Store.Root(), filepath.FromSlash(rec.Path))
	rel := abs
	if b.RepoRoot != "" {
		if r, err := filepath.Rel(b.RepoRoot, abs); err == nil && !strings.HasPrefix(r, "..") {
			rel = filepath.ToSlash(r)
		}
	}
	c["sidecar_path"] = rec.Path
	c["ops_item_path"] = rel
	c["ops_item_abs_path"] = abs
	c["sidecar_body"] = rec.Body
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// itemFields flattens an item into render keys. The body is fenced with a
// provider and kind tag; body_raw carries it unwrapped.
func itemFields(it *item.RemoteItem, ref string) map[string]any {
	fence := fmt.Sprintf("%s-%s-body", it.Provider, it.Kind)
	f := map[string]any{
		"item_id":       it.ID(),
		"provider":      string(it.Provider),
		"kind":          string(it.Kind),
		"key":           it.Key,
		"title":         it.Title,
		"body":          fmt.Sprintf("<%s>\n%s\n</%s>", fence, it.Body, fence),
		"body_raw":      it.Body,
		"author":        it.Author,
		"state":         it.State,
		"url":           it.URL,
		"labels":        it.Labels,
		"labels_csv":    strings.Join(it.Labels, ","),
		"assignees":     it.Assignees,
		"assignees_csv": strings.Join(it.Assignees, ","),
		"updated_at":    it.UpdatedAt,
		"item_ref":      ref,
		"head_ref":      it.HeadRefName,
		"base_ref":      it.BaseRefName,
	}
	if it.Repo != "" {
		f["repo"] = it.Repo
	}
	if it.Number > 0 {
		f["number"] = it.Number
	}
	if it.SourcePath != "" {
		f["source_path"] = it.SourcePath
	}
	return f
}

func fallbackRef(c map[string]any, opts Options) string {
	str := func(k string) string {
		if v := template.Lookup(c, k); v.Present {
			return template.Stringify(v.Value)
		}
		return ""
	}

	repo := str("repo")
	key := str("key")
	if key == "" && opts.Target != nil {
		key = opts.Target.Key
	}
	number, _ := item.NumberFromKey(strings.TrimLeft(str("number"), "#"))
	if number == 0 {
		number, _ = item.NumberFromKey(strings.TrimLeft(key, "#!"))
	}

	return item.FallbackRef(repo, number, str("source_path"), key)
}

// applyVars writes every var under its flat key, in sorted order, and then
// nests the dotted ones, also in sorted order.
func applyVars(c map[string]any, vars map[string]any) {
	keys := slices.Sorted(maps.Keys(vars))
	for _, k := range keys {
		c[k] = vars[k]
	}
	for _, k := range keys {
		if strings.Contains(k, ".") {
			setPath(c, strings.Split(k, "."), vars[k])
		}
	}
}

// setPath copies each map on the path before writing into it, so maps
// shared with the sidecar record or other namespaces stay untouched. A
// non-map intermediate ends the walk; the value then lives only under its
// flat key.
func setPath(c map[string]any, segs []string, v any) {
	cur := c
	for _, seg := range segs[:len(segs)-1] {
		var next map[string]any
		switch existing := cur[seg].(type) {
		case nil:
			next = map[string]any{}
		case map[string]any:
			next = copyMap(existing)
		default:
			return
		}
		cur[seg] = next
		cur = next
	}
	cur[segs[len(segs)-1]] = v
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
