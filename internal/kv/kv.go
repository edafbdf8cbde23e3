// Package kv parses key=value command-line pairs into typed values.
package kv

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidPair is returned when a pair has no '=' separator.
	ErrInvalidPair = errors.New("invalid key=value pair")

	// ErrInvalidKey is returned when the key part of a pair is empty.
	ErrInvalidKey = errors.New("invalid key")
)

var (
	intPattern   = regexp.MustCompile(`^-?\d+$`)
	floatPattern = regexp.MustCompile(`^-?\d+\.\d+$`)
)

// Parse turns "key=value" strings into a map. Only the first '=' separates key
// from value. With coerce set, values are converted by Coerce; otherwise they
// stay raw strings.
func Parse(pairs []string, coerce bool) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		idx := strings.Index(pair, "=")
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q (expected key=value)", ErrInvalidPair, pair)
		}

		key := strings.TrimSpace(pair[:idx])
		if key == "" {
			return nil, fmt.Errorf("%w: empty key in %q", ErrInvalidKey, pair)
		}

		raw := pair[idx+1:]
		if coerce {
			out[key] = Coerce(raw)
		} else {
			out[key] = raw
		}
	}

	return out, nil
}

// Coerce converts a raw value string using a fixed, ordered rule set:
// true/false/null literals, integers, decimals, then JSON arrays/objects.
// Anything else, including unparseable JSON, is returned verbatim.
func Coerce(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}

	if intPattern.MatchString(raw) {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
		// Out of int64 range: keep the digits rather than lose precision.
		return raw
	}

	if floatPattern.MatchString(raw) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
		return raw
	}

	if looksLikeJSON(raw) {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v
		}
	}

	return raw
}

func looksLikeJSON(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]

	return (first == '[' && last == ']') || (first == '{' && last == '}')
}
