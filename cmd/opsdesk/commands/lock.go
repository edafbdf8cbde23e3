package commands

import (
	"github.com/spf13/cobra"

	"github.com/valksor/go-opsdesk/internal/display"
	"github.com/valksor/go-opsdesk/internal/storage"
)

var (
	lockJSON  bool
	lockForce bool
)

var lockCmd = &cobra.Command{
	Use:     "lock",
	Short:   "Inspect or clear the store lock",
	GroupID: "admin",
}

var lockStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which process holds the store lock",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := storage.InspectLock(storeRoot())
		if err != nil {
			return err
		}
		if lockJSON {
			return outputJSON(cmd.OutOrStdout(), st)
		}

		switch {
		case !st.Held:
			outln(cmd, display.SuccessMsg("unlocked"))
		case st.Alive:
			outln(cmd, display.WarningMsg("held by pid %d (%s)", st.PID, st.Path))
		default:
			outln(cmd, display.WarningMsg("stale lock from pid %d; run opsdesk lock release", st.PID))
		}
		return nil
	},
}

var lockReleaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Remove a stale store lock",
	Long: `Remove the lock marker left behind by a process that no longer runs.
A lock held by a live process is only removed with --force.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := storage.BreakLock(storeRoot(), lockForce)
		if err != nil {
			return err
		}
		if !st.Held {
			outln(cmd, display.InfoMsg("no lock to release"))
			return nil
		}
		outln(cmd, display.SuccessMsg("released lock of pid %d", st.PID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lockCmd)
	lockCmd.AddCommand(lockStatusCmd, lockReleaseCmd)

	lockStatusCmd.Flags().BoolVar(&lockJSON, "json", false, "Output as JSON")
	lockReleaseCmd.Flags().BoolVarP(&lockForce, "force", "f", false, "Remove the lock even if its holder is alive")
}
