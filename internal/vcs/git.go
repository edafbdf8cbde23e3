// Package vcs discovers repository facts from the local git checkout.
//
// Only read-only queries are exposed: the repository root (used to anchor
// the .ops store) and remote URLs (used by providers to infer their scope).
package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultRemote is the remote consulted for scope detection.
const DefaultRemote = "origin"

// ErrNotRepository is returned when a path is outside any git work tree.
var ErrNotRepository = errors.New("not a git repository")

// Git provides git queries for a repository
type Git struct {
	repoRoot string
}

// New creates a Git instance for the given path
func New(path string) (*Git, error) {
	root, err := RepoRoot(context.Background(), path)
	if err != nil {
		return nil, err
	}
	return &Git{repoRoot: root}, nil
}

// Root returns the repository root path
func (g *Git) Root() string {
	return g.repoRoot
}

// IsRepo checks if the path is inside a git repository
func IsRepo(path string) bool {
	_, err := RepoRoot(context.Background(), path)
	return err == nil
}

// RepoRoot locates the top-level directory of the work tree containing path.
func RepoRoot(ctx context.Context, path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	out, err := runGitCommandContext(ctx, absPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNotRepository, absPath, err)
	}

	return strings.TrimSpace(out), nil
}

// RemoteURL returns the URL for a remote
func (g *Git) RemoteURL(ctx context.Context, name string) (string, error) {
	return RemoteURL(ctx, g.repoRoot, name)
}

// GetConfig reads a git config value
func (g *Git) GetConfig(ctx context.Context, key string) (string, error) {
	out, err := runGitCommandContext(ctx, g.repoRoot, "config", "--get", key)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// RemoteURL returns the URL of the named remote for the checkout at dir.
func RemoteURL(ctx context.Context, dir, name string) (string, error) {
	out, err := runGitCommandContext(ctx, dir, "remote", "get-url", name)
	if err != nil {
		return "", fmt.Errorf("get remote URL %s: %w", name, err)
	}
	return strings.TrimSpace(out), nil
}

// OriginURL is RemoteURL for DefaultRemote.
func OriginURL(ctx context.Context, dir string) (string, error) {
	return RemoteURL(ctx, dir, DefaultRemote)
}

func runGitCommandContext(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		errMsg := stderr.String()
		if errMsg == "" {
			errMsg = err.Error()
		}
		return "", fmt.Errorf("%s", strings.TrimSpace(errMsg))
	}

	return stdout.String(), nil
}
