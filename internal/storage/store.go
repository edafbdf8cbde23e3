// Package storage persists markdown documents with YAML frontmatter under a
// store root and guards every session against concurrent processes with a
// PID-stamped lock file.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/valksor/go-opsdesk/internal/log"
)

// TypeField is the frontmatter key holding a document's type.
const TypeField = "type"

var (
	ErrNotFound  = errors.New("document not found")
	ErrExists    = errors.New("document already exists")
	ErrMalformed = errors.New("malformed document")
	ErrBadPath   = errors.New("path escapes store root")
)

// Store is the document store consumed by the sidecar, command and local
// task components.
type Store interface {
	Root() string
	Read(path string) (*Document, error)
	Create(docType, path string, frontmatter map[string]any, body string) error
	Update(path string, fields map[string]any) error
	Query(q Query) ([]Document, error)
}

// Query selects documents by type and an optional where clause.
type Query struct {
	Types       []string
	Where       string
	OrderBy     string // field name, "-field" for descending
	Limit       int
	IncludeBody bool
}

// FileStore is a Store backed by plain files under a root directory.
type FileStore struct {
	root string
}

// NewFileStore returns a store rooted at root. The directory is created on
// first write.
func NewFileStore(root string) (*FileStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve store root: %w", err)
	}

	return &FileStore{root: abs}, nil
}

// Root returns the absolute store root.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrBadPath, path)
	}

	return filepath.Join(s.root, clean), nil
}

// Read loads the document at a store-relative path.
func (s *FileStore) Read(path string) (*Document, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return parseDocument(filepath.ToSlash(path), data)
}

// Create writes a new document. It fails with ErrExists if the path is taken.
func (s *FileStore) Create(docType, path string, frontmatter map[string]any, body string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(full); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}

	fm := make(map[string]any, len(frontmatter)+1)
	for k, v := range frontmatter {
		fm[k] = v
	}
	if docType != "" {
		fm[TypeField] = docType
	}

	log.Debug("store create", "path", path, "type", docType)

	return s.write(full, fm, body)
}

// Update merges fields into an existing document's frontmatter. The body is
// left untouched.
func (s *FileStore) Update(path string, fields map[string]any) error {
	doc, err := s.Read(path)
	if err != nil {
		return err
	}
	for k, v := range fields {
		doc.Frontmatter[k] = v
	}

	full, err := s.resolve(path)
	if err != nil {
		return err
	}

	log.Debug("store update", "path", path, "fields", len(fields))

	return s.write(full, doc.Frontmatter, doc.Body)
}

func (s *FileStore) write(full string, frontmatter map[string]any, body string) error {
	data, err := formatDocument(frontmatter, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := atomic.WriteFile(full, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", full, err)
	}

	return nil
}

// Query scans every markdown document under the root and returns those that
// match. Documents that fail to parse are skipped with a warning.
func (s *FileStore) Query(q Query) ([]Document, error) {
	where, err := ParseWhere(q.Where)
	if err != nil {
		return nil, err
	}

	types := make(map[string]bool, len(q.Types))
	for _, t := range q.Types {
		types[t] = true
	}

	var results []Document
	walkErr := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}

			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		doc, err := s.Read(rel)
		if err != nil {
			log.Warn("skipping unreadable document", "path", rel, log.Err(err))

			return nil
		}
		if len(types) > 0 && !types[doc.Type()] {
			return nil
		}
		if !where.Match(doc.Frontmatter) {
			return nil
		}
		if !q.IncludeBody {
			doc.Body = ""
		}
		results = append(results, *doc)

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("query: %w", walkErr)
	}

	sortDocuments(results, q.OrderBy)
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}

	return results, nil
}

func sortDocuments(docs []Document, orderBy string) {
	field := strings.TrimPrefix(orderBy, "-")
	desc := strings.HasPrefix(orderBy, "-")

	sort.SliceStable(docs, func(i, j int) bool {
		if field == "" {
			return docs[i].Path < docs[j].Path
		}
		a, b := fmt.Sprint(docs[i].Frontmatter[field]), fmt.Sprint(docs[j].Frontmatter[field])
		if desc {
			return a > b
		}

		return a < b
	})
}
