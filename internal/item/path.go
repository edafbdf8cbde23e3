package item

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// ItemsDir is the store-relative directory holding sidecar records.
	ItemsDir = "items"

	maxSlugLen = 56
	hashLen    = 8
)

var nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)

// Path maps (kind, key) to a store-relative sidecar path.
//
// Numeric keys give "items/{kind}-{key}.md". Any other key gives
// "items/{kind}-{slug}-{hash8}.md", where hash8 comes from the untransformed
// key so that keys whose slugs collide still map to distinct files.
func Path(kind Kind, key string) string {
	if IsNumeric(key) {
		return path.Join(ItemsDir, string(kind)+"-"+key+".md")
	}

	return path.Join(ItemsDir, string(kind)+"-"+Slug(key)+"-"+shortHash(key)+".md")
}

// Slug lowercases s, folds accented letters to their base form, collapses
// every run of non-alphanumerics into a single hyphen and caps the result at
// 56 characters. An input with no usable characters slugs to "item".
func Slug(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	slug := nonAlnumRun.ReplaceAllString(strings.ToLower(folded), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return "item"
	}

	return slug
}

func shortHash(key string) string {
	sum := sha256.Sum256([]byte(key))

	return hex.EncodeToString(sum[:])[:hashLen]
}
