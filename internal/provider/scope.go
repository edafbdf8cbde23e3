package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	"github.com/valksor/go-opsdesk/internal/vcs"
)

// RemoteLookup returns the git remote URL for the checkout at dir.
type RemoteLookup func(ctx context.Context, dir string) (string, error)

// CommandRunner runs an external CLI in dir and returns its stdout.
type CommandRunner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// OriginURL is the default RemoteLookup.
func OriginURL(ctx context.Context, dir string) (string, error) {
	return vcs.OriginURL(ctx, dir)
}

// ExecCommand is the default CommandRunner.
func ExecCommand(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
		}
		return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
	}
	return out, nil
}

// RemotePath extracts the repository path from a git remote URL when the
// remote points at host. Supported shapes:
//
//	git@host:group/repo.git
//	ssh://git@host:22/group/repo.git
//	https://host/group/repo(.git)
//	https://user@host/group/repo
//
// The ".git" suffix and surrounding slashes are removed.
func RemotePath(remoteURL, host string) (string, bool) {
	remoteURL = strings.TrimSpace(remoteURL)
	if remoteURL == "" || host == "" {
		return "", false
	}

	var path string
	switch {
	case strings.Contains(remoteURL, "://"):
		u, err := url.Parse(remoteURL)
		if err != nil || !strings.EqualFold(u.Hostname(), host) {
			return "", false
		}
		path = u.Path
	default:
		// scp-like: [user@]host:path
		at := strings.LastIndex(remoteURL, "@")
		rest := remoteURL[at+1:]
		h, p, ok := strings.Cut(rest, ":")
		if !ok || !strings.EqualFold(h, host) {
			return "", false
		}
		path = p
	}

	path = strings.Trim(path, "/")
	path = strings.TrimSuffix(path, ".git")
	if path == "" {
		return "", false
	}
	return path, true
}

// HostOf returns the host name of a base URL such as https://gitlab.example.com.
func HostOf(baseURL string) string {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return ""
	}
	return u.Hostname()
}
