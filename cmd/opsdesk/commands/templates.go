package commands

import (
	"cmp"

	"github.com/spf13/cobra"

	"github.com/valksor/go-opsdesk/internal/command"
	"github.com/valksor/go-opsdesk/internal/display"
	"github.com/valksor/go-opsdesk/internal/storage"
)

var commandsJSON bool

var commandsCmd = &cobra.Command{
	Use:     "commands",
	Short:   "List the command templates in the store",
	GroupID: "run",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var tpls []*command.Template
		err := withStore(func(store storage.Store) error {
			var err error
			tpls, err = command.List(store)
			return err
		})
		if err != nil {
			return err
		}

		if commandsJSON {
			return outputJSON(cmd.OutOrStdout(), tpls)
		}
		if len(tpls) == 0 {
			outln(cmd, display.InfoMsg("no command templates; run opsdesk init to add the starter set"))
			return nil
		}

		rows := make([][]string, 0, len(tpls))
		for _, t := range tpls {
			rows = append(rows, []string{t.ID, cmp.Or(t.CLI, "-"), cmp.Or(t.Mode, "-"), t.Path, t.Title})
		}
		outln(cmd, display.Table([]string{"ID", "AGENT", "MODE", "PATH", "TITLE"}, rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commandsCmd)
	commandsCmd.Flags().BoolVar(&commandsJSON, "json", false, "Output as JSON")
}
