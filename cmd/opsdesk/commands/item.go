package commands

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/valksor/go-opsdesk/internal/display"
	"github.com/valksor/go-opsdesk/internal/runctx"
	"github.com/valksor/go-opsdesk/internal/sidecar"
	"github.com/valksor/go-opsdesk/internal/storage"
	"github.com/valksor/go-opsdesk/internal/template"
)

var (
	itemJSON    bool
	itemPathAbs bool
)

var itemCmd = &cobra.Command{
	Use:     "item",
	Short:   "Manage the sidecar note of an issue, pull request or task",
	GroupID: "item",
}

var itemEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the sidecar, or refresh its remote fields",
	Long: `Fetch the item and write its sidecar under .ops/items. An existing
sidecar keeps its local fields and notes; only remote_* fields change.

Examples:
  opsdesk item ensure --issue 42
  opsdesk item ensure --pr 7 --provider azure --repo contoso/web/site`,
	Args: cobra.NoArgs,
	RunE: runItemEnsure,
}

var itemShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the sidecar",
	Args:  cobra.NoArgs,
	RunE:  runItemShow,
}

var itemSetCmd = &cobra.Command{
	Use:   "set key=value...",
	Short: "Set local sidecar fields",
	Long: `Set local fields on an existing sidecar. Values are coerced: numbers,
true/false, null and JSON arrays or objects keep their type.

Identity and remote_* fields cannot be set.

Examples:
  opsdesk item set --issue 42 local_status=triaged risk=low
  opsdesk item set --task tasks/login.md tags='["auth","ui"]' priority=2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runItemSet,
}

var itemPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the sidecar path",
	Args:  cobra.NoArgs,
	RunE:  runItemPath,
}

func init() {
	rootCmd.AddCommand(itemCmd)
	itemCmd.AddCommand(itemEnsureCmd, itemShowCmd, itemSetCmd, itemPathCmd)

	itemCmd.PersistentFlags().BoolVar(&itemJSON, "json", false, "Output as JSON")
	itemPathCmd.Flags().BoolVar(&itemPathAbs, "abs", false, "Print an absolute path")
}

func runItemEnsure(cmd *cobra.Command, args []string) error {
	target, err := requireTarget()
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
			Target:        target,
			Provider:      prov,
			Repo:          targetRepo,
			EnsureSidecar: true,
		})
		return err
	})
	if err != nil {
		return err
	}

	if itemJSON {
		return outputJSON(cmd.OutOrStdout(), res.Ensure)
	}

	switch {
	case res.Ensure.Created:
		outln(cmd, display.SuccessMsg("created %s", res.Ensure.Path))
	case res.Ensure.Drifted:
		outln(cmd, display.WarningMsg("refreshed %s (remote changed since last seen)", res.Ensure.Path))
	default:
		outln(cmd, display.SuccessMsg("refreshed %s", res.Ensure.Path))
	}
	return nil
}

// withSidecarPath resolves the target's sidecar path inside a session.
func withSidecarPath(cmd *cobra.Command, fn func(store storage.Store, path string) error) error {
	target, err := requireTarget()
	if err != nil {
		return err
	}

	return withStore(func(store storage.Store) error {
		path, err := newBuilder(store).SidecarPath(cmd.Context(), *target)
		if err != nil {
			return err
		}
		return fn(store, path)
	})
}

func runItemShow(cmd *cobra.Command, args []string) error {
	var rec *sidecar.Record
	err := withSidecarPath(cmd, func(store storage.Store, path string) error {
		var err error
		rec, err = sidecar.Read(store, path)
		if err != nil {
			return fmt.Errorf("%w (run opsdesk item ensure first)", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if itemJSON {
		return outputJSON(cmd.OutOrStdout(), rec)
	}

	outln(cmd, display.FormatSidecar(rec))
	outln(cmd, display.Section(""))
	outln(cmd, rec.Body)
	return nil
}

func runItemSet(cmd *cobra.Command, args []string) error {
	var (
		path   string
		fields map[string]any
	)
	err := withSidecarPath(cmd, func(store storage.Store, p string) error {
		path = p
		var err error
		fields, err = sidecar.SetFields(store, p, args)
		return err
	})
	if err != nil {
		return err
	}

	if itemJSON {
		return outputJSON(cmd.OutOrStdout(), map[string]any{"path": path, "fields": fields})
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	outln(cmd, display.SuccessMsg("updated %s", path))
	for _, k := range keys {
		outf(cmd, "%s", display.KeyValue(k, template.Stringify(fields[k])))
	}
	return nil
}

func runItemPath(cmd *cobra.Command, args []string) error {
	return withSidecarPath(cmd, func(_ storage.Store, path string) error {
		if itemPathAbs {
			path = filepath.Join(storeRoot(), filepath.FromSlash(path))
		}
		outln(cmd, path)
		return nil
	})
}
