// Package config loads opsdesk settings from .ops/config.yaml and .ops/.env.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/valksor/go-opsdesk/internal/agent"
	"github.com/valksor/go-opsdesk/internal/item"
)

// FileName is the settings file inside OpsDir.
const FileName = "config.yaml"

// Settings holds all application configuration
type Settings struct {
	Agent     AgentSettings     `yaml:"agent"`
	Providers ProvidersSettings `yaml:"providers"`
	Store     StoreSettings     `yaml:"store"`
}

// AgentSettings is the default execution profile. Command frontmatter and
// CLI flags override each field.
type AgentSettings struct {
	CLI            string            `yaml:"cli,omitempty"`
	Mode           string            `yaml:"mode,omitempty"`
	Model          string            `yaml:"model,omitempty"`
	PermissionMode string            `yaml:"permission_mode,omitempty"`
	Sandbox        string            `yaml:"sandbox,omitempty"`
	Approval       string            `yaml:"approval,omitempty"`
	Env            map[string]string `yaml:"env,omitempty"`
}

// ProvidersSettings holds provider settings
type ProvidersSettings struct {
	Default string         `yaml:"default,omitempty"` // Provider for --issue/--pr without --provider
	GitHub  GitHubSettings `yaml:"github,omitempty"`
	GitLab  GitLabSettings `yaml:"gitlab,omitempty"`
	Jira    JiraSettings   `yaml:"jira,omitempty"`
	Azure   AzureSettings  `yaml:"azure,omitempty"`
}

// GitHubSettings holds GitHub provider settings
type GitHubSettings struct {
	Repo    string `yaml:"repo,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"` // GitHub Enterprise API root
	Token   string `yaml:"token,omitempty"`
}

// GitLabSettings holds GitLab provider settings
type GitLabSettings struct {
	Project string `yaml:"project,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Token   string `yaml:"token,omitempty"`
}

// JiraSettings holds Jira provider settings
type JiraSettings struct {
	BaseURL string `yaml:"base_url,omitempty"`
	Project string `yaml:"project,omitempty"`
	Email   string `yaml:"email,omitempty"`
}

// AzureSettings holds Azure DevOps provider settings
type AzureSettings struct {
	Org     string `yaml:"org,omitempty"`
	Project string `yaml:"project,omitempty"`
	Repo    string `yaml:"repo,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// StoreSettings holds storage settings
type StoreSettings struct {
	// Root is the store directory, relative to the repository root unless
	// absolute.
	Root string `yaml:"root,omitempty"`
}

// NewDefault creates Settings with default values
func NewDefault() *Settings {
	return &Settings{
		Agent: AgentSettings{
			Mode: string(agent.ModeInteractive),
		},
		Providers: ProvidersSettings{
			Default: string(item.ProviderGitHub),
		},
		Store: StoreSettings{
			Root: OpsDir,
		},
	}
}

// Validate checks enum-valued settings.
func (s *Settings) Validate() error {
	if s.Agent.CLI != "" {
		if _, err := agent.ParseKind(s.Agent.CLI); err != nil {
			return fmt.Errorf("agent.cli: %w", err)
		}
	}
	if s.Agent.Mode != "" {
		if _, err := agent.ParseMode(s.Agent.Mode); err != nil {
			return fmt.Errorf("agent.mode: %w", err)
		}
	}
	if s.Providers.Default != "" {
		if _, err := item.ParseProvider(s.Providers.Default); err != nil {
			return fmt.Errorf("providers.default: %w", err)
		}
	}
	return nil
}

// AgentDefaults converts the agent section into execution defaults. Call
// Validate first; unknown values are dropped here.
func (s *Settings) AgentDefaults() agent.Params {
	p := agent.Params{
		Model:          s.Agent.Model,
		PermissionMode: s.Agent.PermissionMode,
		Sandbox:        s.Agent.Sandbox,
		Approval:       s.Agent.Approval,
		Env:            s.Agent.Env,
	}
	if k, err := agent.ParseKind(s.Agent.CLI); err == nil {
		p.CLI = k
	}
	if m, err := agent.ParseMode(s.Agent.Mode); err == nil {
		p.Mode = m
	}
	return p
}

// DefaultProvider returns the configured default provider, GitHub when
// unset or invalid.
func (s *Settings) DefaultProvider() item.ProviderID {
	if p, err := item.ParseProvider(s.Providers.Default); err == nil {
		return p
	}
	return item.ProviderGitHub
}

// StoreRoot resolves the store directory against repoRoot.
func (s *Settings) StoreRoot(repoRoot string) string {
	root := s.Store.Root
	if root == "" {
		root = OpsDir
	}
	if filepath.IsAbs(root) {
		return root
	}
	return filepath.Join(repoRoot, root)
}
