package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valksor/go-opsdesk/internal/command"
	"github.com/valksor/go-opsdesk/internal/config"
	"github.com/valksor/go-opsdesk/internal/display"
	"github.com/valksor/go-opsdesk/internal/storage"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .ops with a config file and starter commands",
	Long: `Initialize .ops in the repository root: config.yaml with defaults, a
.env template for provider credentials, and the "triage" and "address"
command templates used by opsdesk auto. Existing files are left alone.`,
	GroupID: "admin",
	Args:    cobra.NoArgs,
	RunE:    runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	opsDir := filepath.Join(repoRoot, config.OpsDir)
	if err := os.MkdirAll(opsDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", opsDir, err)
	}

	cfgPath := config.Path(repoRoot)
	if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
		if err := config.NewDefault().Save(repoRoot); err != nil {
			return fmt.Errorf("create config file: %w", err)
		}
		outln(cmd, display.SuccessMsg("created %s", cfgPath))
	} else {
		outln(cmd, display.InfoMsg("config file already exists: %s", cfgPath))
	}

	if err := writeIfMissing(cmd, filepath.Join(opsDir, config.EnvFileName), envTemplate, 0o600); err != nil {
		return err
	}
	if err := writeIfMissing(cmd, filepath.Join(opsDir, ".gitignore"), ".env\n.lock\n", 0o644); err != nil {
		return err
	}

	err := withStore(func(store storage.Store) error {
		for _, c := range starterCommands {
			_, err := command.Lookup(store, c.id)
			if err == nil {
				outln(cmd, display.InfoMsg("command %q already exists", c.id))
				continue
			}
			if !errors.Is(err, command.ErrNotFound) {
				return err
			}
			if err := store.Create(command.DocType, c.path, c.frontmatter, c.body); err != nil {
				return fmt.Errorf("create command %s: %w", c.id, err)
			}
			outln(cmd, display.SuccessMsg("created command %q (%s)", c.id, c.path))
		}
		return nil
	})
	if err != nil {
		return err
	}

	outln(cmd, display.FormatNextSteps(
		display.NextStep{Command: "opsdesk context --issue 1", Description: "Check provider access"},
		display.NextStep{Command: "opsdesk auto --issue 1", Description: "Triage and address an issue"},
	))
	return nil
}

func writeIfMissing(cmd *cobra.Command, path, content string, perm os.FileMode) error {
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	outln(cmd, display.SuccessMsg("created %s", path))
	return nil
}

const envTemplate = `# opsdesk environment variables. Keep this file out of git.
# Variables already set in the environment win over this file.

# GITHUB_TOKEN=ghp_...
# GITLAB_TOKEN=glpat-...
# GITLAB_BASE_URL=https://gitlab.example.com
# JIRA_BASE_URL=https://example.atlassian.net
# JIRA_EMAIL=you@example.com
# JIRA_API_TOKEN=...
# JIRA_PROJECT=OPS
# AZURE_DEVOPS_PAT=...
# AZURE_ORG=contoso
# AZURE_PROJECT=web
# AZURE_REPO=site
`

type starterCommand struct {
	id          string
	path        string
	frontmatter map[string]any
	body        string
}

var starterCommands = []starterCommand{
	{
		id:   "triage",
		path: "commands/triage.md",
		frontmatter: map[string]any{
			"id":           "triage",
			"title":        "Triage an item",
			"mode":         "exec",
			"placeholders": []string{"item_ref", "title", "url", "labels_csv", "body", "ops_item_path", "provider", "kind", "key"},
		},
		body: `Triage {{item_ref}}: {{title}}
URL: {{url|none}}
Labels: {{labels_csv|none}}

{{body}}

Read the code this touches and decide whether it can be addressed now.
Record the outcome with:

  opsdesk item set --provider {{provider}} --{{kind}} {{key}} local_status=<triaged|blocked|needs_info|wontfix> risk=<low|medium|high> summary="<one line>"

Add longer notes under "## Notes" in {{ops_item_path}}.
`,
	},
	{
		id:   "address",
		path: "commands/address.md",
		frontmatter: map[string]any{
			"id":           "address",
			"title":        "Address a triaged item",
			"placeholders": []string{"item_ref", "title", "body", "summary", "risk", "ops_item_path", "provider", "kind", "key"},
		},
		body: `Address {{item_ref}}: {{title}}
Triage summary ({{risk|unknown}}): {{summary|none}}

{{body}}

Notes from triage are in {{ops_item_path}}. Make the change, run the tests,
then record the result with:

  opsdesk item set --provider {{provider}} --{{kind}} {{key}} local_status=done
`,
	},
}
