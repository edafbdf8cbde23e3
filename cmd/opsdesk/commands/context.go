package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valksor/go-opsdesk/internal/display"
	"github.com/valksor/go-opsdesk/internal/runctx"
	"github.com/valksor/go-opsdesk/internal/storage"
	"github.com/valksor/go-opsdesk/internal/template"
)

var (
	contextVars   []string
	contextEnsure bool
	contextJSON   bool
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Show the render context for an item",
	Long: `Build the render context a command would see, without rendering or
running anything.

The context merges, in increasing precedence: repo and store paths, sidecar
fields, provider fields and --var overrides.

Examples:
  opsdesk context --issue 42
  opsdesk context --pr 7 --provider gitlab --json
  opsdesk context --task tasks/login.md --var focus=tests`,
	GroupID: "run",
	Args:    cobra.NoArgs,
	RunE:    runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)

	contextCmd.Flags().StringArrayVar(&contextVars, "var", nil, "Set a context value (key=value, repeatable)")
	contextCmd.Flags().BoolVar(&contextEnsure, "ensure", false, "Create or refresh the sidecar first")
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "Output as JSON")
}

func runContext(cmd *cobra.Command, args []string) error {
	vars, err := parseVars(contextVars)
	if err != nil {
		return err
	}
	prov, err := providerFromFlag()
	if err != nil {
		return err
	}

	var res *runctx.Result
	err = withStore(func(store storage.Store) error {
		var err error
		res, err = newBuilder(store).Build(cmd.Context(), runctx.Options{
			Target:        targetFromFlags(),
			Provider:      prov,
			Repo:          targetRepo,
			Vars:          vars,
			EnsureSidecar: contextEnsure,
		})
		return err
	})
	if err != nil {
		return err
	}

	if contextJSON {
		return outputJSON(cmd.OutOrStdout(), res)
	}

	if res.Item != nil {
		outln(cmd, display.FormatItem(res.Item))
		outln(cmd, display.FormatSidecar(res.Sidecar))
	}
	outln(cmd, display.Section("Context"))
	outln(cmd, formatContext(res.Context))

	return nil
}

// formatContext lists top-level keys in order. Long values are truncated;
// the item and provider namespaces are summarized.
func formatContext(c map[string]any) string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var sb strings.Builder
	for _, k := range keys {
		v := c[k]
		var s string
		if m, ok := v.(map[string]any); ok {
			s = display.Muted(fmt.Sprintf("{%d fields}", len(m)))
		} else {
			s = strings.ReplaceAll(template.Stringify(v), "\n", " ")
			s = display.Truncate(s, 80)
		}
		sb.WriteString(display.KeyValue(k, s))
	}
	return sb.String()
}
