package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/valksor/go-opsdesk/internal/log"
)

// Path returns {repoRoot}/.ops/config.yaml.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, OpsDir, FileName)
}

// Load reads .ops/.env into the environment, then .ops/config.yaml into
// Settings, then applies provider environment variables on top. A missing
// config file yields defaults.
func Load(repoRoot string) (*Settings, error) {
	if err := LoadDotEnv(repoRoot); err != nil {
		return nil, fmt.Errorf("load %s: %w", EnvFileName, err)
	}

	cfg := NewDefault()

	path := Path(repoRoot)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Debug("no config file, using defaults", "path", path)
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overrides provider settings with the environment variables the
// adapters read, so that the effective settings can be shown.
func (s *Settings) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&s.Providers.Default, "OPSDESK_PROVIDER")
	set(&s.Agent.CLI, "OPSDESK_AGENT")
	set(&s.Providers.GitHub.Repo, "GITHUB_REPOSITORY")
	set(&s.Providers.GitLab.BaseURL, "GITLAB_BASE_URL")
	set(&s.Providers.GitLab.Project, "CI_PROJECT_PATH")
	set(&s.Providers.Jira.BaseURL, "JIRA_BASE_URL")
	set(&s.Providers.Jira.Project, "JIRA_PROJECT")
	set(&s.Providers.Jira.Email, "JIRA_EMAIL", "JIRA_USER")
	set(&s.Providers.Azure.Org, "AZURE_ORG")
	set(&s.Providers.Azure.Project, "AZURE_PROJECT")
	set(&s.Providers.Azure.Repo, "AZURE_REPO")
	set(&s.Providers.Azure.BaseURL, "AZURE_DEVOPS_URL")
}
