// Package testutil provides shared fixtures for opsdesk tests: a stub
// provider, a fake agent runner, temporary stores and git repositories.
package testutil

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/valksor/go-opsdesk/internal/storage"
)

// NewStore creates a repository directory with an empty store at
// {repo}/.ops.
func NewStore(t *testing.T) (repoRoot string, store *storage.FileStore) {
	t.Helper()
	repoRoot = t.TempDir()

	store, err := storage.NewFileStore(filepath.Join(repoRoot, ".ops"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return repoRoot, store
}

// CreateTempGitRepo creates a git repository with one commit. When remote is
// set it becomes remote.origin.url. The test is skipped without git.
func CreateTempGitRepo(t *testing.T, remote string) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()

	if err := runGit(t, dir, "init"); err != nil {
		t.Skipf("git init: %v", err)
	}
	mustRunGit(t, dir, "config", "user.email", "test@example.com")
	mustRunGit(t, dir, "config", "user.name", "Test User")
	WriteFile(t, filepath.Join(dir, "README.md"), "# Test Repository\n")
	mustRunGit(t, dir, "add", ".")
	mustRunGit(t, dir, "commit", "-m", "initial commit")
	if remote != "" {
		mustRunGit(t, dir, "remote", "add", "origin", remote)
	}

	return dir
}

// WriteFile creates a file with the given content, creating parent directories as needed.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll(%s): %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func runGit(t *testing.T, dir string, args ...string) error {
	t.Helper()
	cmd := exec.CommandContext(context.Background(), "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_DATE=2020-01-01T00:00:00Z",
		"GIT_COMMITTER_DATE=2020-01-01T00:00:00Z",
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("git %v failed: %s", args, output)
	}

	return err
}

func mustRunGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	if err := runGit(t, dir, args...); err != nil {
		t.Fatalf("git %v: %v", args, err)
	}
}
