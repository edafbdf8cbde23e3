// Package item defines the normalized remote item shape shared by all
// providers, together with the deterministic identity and storage path rules
// for the sidecar records that track them.
package item

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ProviderID identifies a remote system.
type ProviderID string

const (
	ProviderGitHub ProviderID = "github"
	ProviderGitLab ProviderID = "gitlab"
	ProviderJira   ProviderID = "jira"
	ProviderAzure  ProviderID = "azure"
	ProviderLocal  ProviderID = "local"
)

// Providers lists every known provider in display order.
func Providers() []ProviderID {
	return []ProviderID{ProviderGitHub, ProviderGitLab, ProviderJira, ProviderAzure, ProviderLocal}
}

// ParseProvider validates a provider name. "azuredevops" and "ado" are
// accepted as aliases for azure.
func ParseProvider(s string) (ProviderID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "github", "gh":
		return ProviderGitHub, nil
	case "gitlab", "gl":
		return ProviderGitLab, nil
	case "jira":
		return ProviderJira, nil
	case "azure", "azuredevops", "ado":
		return ProviderAzure, nil
	case "local":
		return ProviderLocal, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}

// Kind is the category of a remote item.
type Kind string

const (
	KindIssue Kind = "issue"
	KindPR    Kind = "pr"
	KindTask  Kind = "task"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindIssue:
		return KindIssue, nil
	case KindPR, "mr":
		return KindPR, nil
	case KindTask:
		return KindTask, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrUnknownKind     = errors.New("unknown item kind")
	ErrInvalidItem     = errors.New("invalid remote item")
)

// RemoteItem is a snapshot of an issue, pull request or task as reported by
// its provider at fetch time. Number is zero for tasks.
type RemoteItem struct {
	Provider    ProviderID `json:"provider"`
	Kind        Kind       `json:"kind"`
	Key         string     `json:"key"`
	Repo        string     `json:"repo,omitempty"`
	SourcePath  string     `json:"source_path,omitempty"`
	Number      int        `json:"number,omitempty"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Author      string     `json:"author"`
	State       string     `json:"state"`
	URL         string     `json:"url"`
	Labels      []string   `json:"labels"`
	Assignees   []string   `json:"assignees"`
	UpdatedAt   string     `json:"updated_at"`
	HeadRefName string     `json:"head_ref_name,omitempty"`
	BaseRefName string     `json:"base_ref_name,omitempty"`
}

// Validate checks the task/provider/number invariant.
func (it *RemoteItem) Validate() error {
	if it.Kind == KindTask {
		if it.Provider != ProviderLocal {
			return fmt.Errorf("%w: task from provider %s", ErrInvalidItem, it.Provider)
		}
		if it.Number != 0 {
			return fmt.Errorf("%w: task with number %d", ErrInvalidItem, it.Number)
		}

		return nil
	}
	if it.Provider == ProviderLocal {
		return fmt.Errorf("%w: local provider only serves tasks, got %s", ErrInvalidItem, it.Kind)
	}
	if it.Number <= 0 {
		return fmt.Errorf("%w: %s without a number", ErrInvalidItem, it.Kind)
	}

	return nil
}

// ID returns the canonical sidecar identifier for the item.
func (it *RemoteItem) ID() string {
	return CanonicalID(it.Provider, it.Repo, it.Kind, it.Key)
}

// Path returns the sidecar path for the item, relative to the store root.
func (it *RemoteItem) Path() string {
	return Path(it.Kind, it.Key)
}

// CanonicalID builds "{provider}:{repo}:{kind}:{number-or-key}".
// Local tasks use "{provider}:task:{key}"; without a repo the repo segment
// is dropped.
func CanonicalID(provider ProviderID, repo string, kind Kind, key string) string {
	if provider == ProviderLocal || kind == KindTask {
		return fmt.Sprintf("%s:task:%s", provider, key)
	}
	if repo != "" {
		if n, ok := NumberFromKey(key); ok {
			return fmt.Sprintf("%s:%s:%s:%d", provider, repo, kind, n)
		}

		return fmt.Sprintf("%s:%s:%s:%s", provider, repo, kind, key)
	}

	return fmt.Sprintf("%s:%s:%s", provider, kind, key)
}

// NumberFromKey parses a purely numeric key.
func NumberFromKey(key string) (int, bool) {
	if !IsNumeric(key) {
		return 0, false
	}
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, false
	}

	return n, true
}

// IsNumeric reports whether s is a non-empty string of ASCII digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
