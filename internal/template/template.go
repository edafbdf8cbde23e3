// Package template renders command prompts. A placeholder is written
// "{{ path }}" or "{{ path | fallback }}", where path is a dotted walk
// through nested maps and fallback is literal text used when the value is
// absent.
package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/spf13/cast"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*(?:\|(.*?))?\}\}`)

// Result is the outcome of rendering one template.
type Result struct {
	Text string `json:"text"`
	// MissingRequired lists paths that were absent and had no fallback, in
	// first-seen order.
	MissingRequired []string `json:"missing_required"`
	// PlaceholdersUsed lists every distinct path in first-seen order.
	PlaceholdersUsed []string `json:"placeholders_used"`
}

// Render substitutes every placeholder in tpl from ctx. It has no side
// effects; identical inputs give identical results.
func Render(tpl string, ctx map[string]any) Result {
	res := Result{MissingRequired: []string{}, PlaceholdersUsed: []string{}}
	seen := make(map[string]bool)
	missing := make(map[string]bool)

	res.Text = placeholderPattern.ReplaceAllStringFunc(tpl, func(match string) string {
		m := placeholderPattern.FindStringSubmatch(match)
		path, fallback, hasFallback := m[1], "", strings.Contains(match, "|")
		if hasFallback {
			fallback = strings.TrimSpace(m[2])
		}

		if !seen[path] {
			seen[path] = true
			res.PlaceholdersUsed = append(res.PlaceholdersUsed, path)
		}

		if v := Lookup(ctx, path); v.Present {
			return Stringify(v.Value)
		}
		if hasFallback {
			return fallback
		}
		if !missing[path] {
			missing[path] = true
			res.MissingRequired = append(res.MissingRequired, path)
		}
		return ""
	})

	return res
}

// Placeholders returns the distinct placeholder paths in tpl without
// rendering it.
func Placeholders(tpl string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(tpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Value is the outcome of a context lookup. Missing keys, nil and the empty
// string are all Absent. Zero and false are Present.
type Value struct {
	Value   any
	Present bool
}

// Absent is the zero Value.
var Absent = Value{}

// Lookup walks a dotted path through nested maps. A missing segment or a
// non-map intermediate yields Absent.
func Lookup(ctx map[string]any, path string) Value {
	var cur any = ctx
	for _, seg := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return Absent
		}
		if cur, ok = m[seg]; !ok {
			return Absent
		}
	}

	switch v := cur.(type) {
	case nil:
		return Absent
	case string:
		if v == "" {
			return Absent
		}
	}
	return Value{Value: cur, Present: true}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

// Stringify renders a context value: lists join with ", ", maps become
// compact JSON, scalars use their natural form.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []string:
		return strings.Join(x, ", ")
	case []byte:
		return string(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = Stringify(rv.Index(i).Interface())
		}
		return strings.Join(parts, ", ")
	case reflect.Map, reflect.Struct:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return fmt.Sprint(v)
		}
		return strings.TrimSuffix(buf.String(), "\n")
	}

	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}
