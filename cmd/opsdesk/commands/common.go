package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valksor/go-opsdesk/internal/agent"
	"github.com/valksor/go-opsdesk/internal/agent/claude"
	"github.com/valksor/go-opsdesk/internal/agent/codex"
	"github.com/valksor/go-opsdesk/internal/agent/gemini"
	"github.com/valksor/go-opsdesk/internal/cache"
	"github.com/valksor/go-opsdesk/internal/conductor"
	"github.com/valksor/go-opsdesk/internal/item"
	"github.com/valksor/go-opsdesk/internal/kv"
	"github.com/valksor/go-opsdesk/internal/log"
	"github.com/valksor/go-opsdesk/internal/provider"
	"github.com/valksor/go-opsdesk/internal/provider/azuredevops"
	"github.com/valksor/go-opsdesk/internal/provider/github"
	"github.com/valksor/go-opsdesk/internal/provider/gitlab"
	"github.com/valksor/go-opsdesk/internal/provider/jira"
	"github.com/valksor/go-opsdesk/internal/provider/local"
	"github.com/valksor/go-opsdesk/internal/runctx"
	"github.com/valksor/go-opsdesk/internal/storage"
	"github.com/valksor/go-opsdesk/internal/vcs"
)

var (
	// cwd is where opsdesk was started; repoRoot is its git top level, or
	// cwd outside a repository.
	cwd      string
	repoRoot string

	// providerCache keeps GitHub and GitLab reads for the life of the
	// process, so "auto" fetches each item once.
	providerCache = cache.New()

	// Target flags.
	targetIssue    string
	targetPR       string
	targetTask     string
	targetProvider string
	targetRepo     string
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&targetIssue, "issue", "", "Issue number or key (e.g. 42, OPS-42)")
	pf.StringVar(&targetPR, "pr", "", "Pull/merge request number")
	pf.StringVar(&targetTask, "task", "", "Local task path or title")
	pf.StringVar(&targetProvider, "provider", "", "Provider: github, gitlab, jira, azure, local")
	pf.StringVar(&targetRepo, "repo", "", "Repository or project scope (default: detect)")
	rootCmd.MarkFlagsMutuallyExclusive("issue", "pr", "task")
}

// resolveRepo sets cwd and repoRoot.
func resolveRepo(ctx context.Context) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	cwd = dir

	root, err := vcs.RepoRoot(ctx, dir)
	if err != nil {
		log.Debug("not in a git repository, using working directory", "dir", dir, log.Err(err))
		root = dir
	}
	repoRoot = root

	return nil
}

func storeRoot() string {
	return settings.StoreRoot(repoRoot)
}

// withStore runs fn with the store locked.
func withStore(fn func(storage.Store) error) error {
	return storage.WithSession(storeRoot(), fn)
}

// newProviderRegistry wires every provider adapter. The local adapter reads
// tasks from store, so a registry is built per session.
func newProviderRegistry(store storage.Store) *provider.Registry {
	p := settings.Providers

	return provider.NewRegistry(
		github.New(github.Options{
			Token:   p.GitHub.Token,
			Repo:    p.GitHub.Repo,
			BaseURL: p.GitHub.BaseURL,
			Cache:   providerCache,
		}),
		gitlab.New(gitlab.Options{
			Token:   p.GitLab.Token,
			BaseURL: p.GitLab.BaseURL,
			Project: p.GitLab.Project,
			Cache:   providerCache,
		}),
		jira.New(jira.Options{
			BaseURL: p.Jira.BaseURL,
			Email:   p.Jira.Email,
			Project: p.Jira.Project,
		}),
		azuredevops.New(azuredevops.Options{
			BaseURL:      p.Azure.BaseURL,
			Organization: p.Azure.Org,
			Project:      p.Azure.Project,
			Repository:   p.Azure.Repo,
		}),
		local.New(store),
	)
}

func newBuilder(store storage.Store) *runctx.Builder {
	return &runctx.Builder{
		Store:           store,
		Registry:        newProviderRegistry(store),
		RepoRoot:        repoRoot,
		Cwd:             cwd,
		DefaultProvider: settings.DefaultProvider(),
	}
}

// newAgentRegistry registers the agent CLIs. The first one registered is
// the fallback when nothing else names a CLI.
func newAgentRegistry() (*agent.Registry, error) {
	return agent.NewRegistry(codex.New(), claude.New(), gemini.New())
}

func newConductor() (*conductor.Conductor, error) {
	agents, err := newAgentRegistry()
	if err != nil {
		return nil, fmt.Errorf("register agents: %w", err)
	}

	return conductor.New(withStore, newBuilder, agents,
		conductor.WithDefaults(settings.AgentDefaults()),
		conductor.WithWorkDir(repoRoot),
	), nil
}

// targetFromFlags returns the --issue/--pr/--task target, or nil.
func targetFromFlags() *runctx.Target {
	switch {
	case targetIssue != "":
		return &runctx.Target{Kind: item.KindIssue, Key: targetIssue}
	case targetPR != "":
		return &runctx.Target{Kind: item.KindPR, Key: targetPR}
	case targetTask != "":
		return &runctx.Target{Kind: item.KindTask, Key: targetTask}
	}
	return nil
}

// requireTarget is targetFromFlags for commands that need an item.
func requireTarget() (*runctx.Target, error) {
	if t := targetFromFlags(); t != nil {
		return t, nil
	}
	return nil, fmt.Errorf("%w: use --issue, --pr or --task", conductor.ErrNoTarget)
}

func providerFromFlag() (item.ProviderID, error) {
	if targetProvider == "" {
		return "", nil
	}
	return item.ParseProvider(targetProvider)
}

// parseVars parses --var pairs. Values stay strings: "42" renders as 42.
func parseVars(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	return kv.Parse(pairs, false)
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

func outln(cmd *cobra.Command, s string) {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), s)
}
