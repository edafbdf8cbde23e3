package commands

import (
	"github.com/spf13/cobra"

	"github.com/valksor/go-opsdesk/internal/conductor"
	"github.com/valksor/go-opsdesk/internal/display"
)

var (
	autoVars          []string
	autoJSON          bool
	autoAllowHighRisk bool
	autoTriage        string
	autoAddress       string
	autoAgent         agentFlags
)

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Triage an item, then address it when the sidecar allows",
	Long: `Run the triage command, re-read the sidecar it updated, and run the
address command unless triage stopped it.

Address is skipped when local_status is blocked, wontfix, needs_info or done,
or when risk is high (unless --allow-high-risk). A failed triage ends the run
with the triage agent's exit status.

Examples:
  opsdesk auto --issue 42
  opsdesk auto --pr 7 --allow-high-risk
  opsdesk auto --task tasks/login.md --triage quick-triage --address fix`,
	GroupID: "run",
	Args:    cobra.NoArgs,
	RunE:    runAuto,
}

func init() {
	rootCmd.AddCommand(autoCmd)

	defaults := conductor.DefaultAutoOptions()
	autoCmd.Flags().StringArrayVar(&autoVars, "var", nil, "Set a context value (key=value, repeatable)")
	autoCmd.Flags().BoolVar(&autoJSON, "json", false, "Output both runs as JSON")
	autoCmd.Flags().BoolVar(&autoAllowHighRisk, "allow-high-risk", false, "Address items triaged as risk=high")
	autoCmd.Flags().StringVar(&autoTriage, "triage", defaults.TriageCommand, "Triage command id")
	autoCmd.Flags().StringVar(&autoAddress, "address", defaults.AddressCommand, "Address command id")
	autoAgent.register(autoCmd)
}

func runAuto(cmd *cobra.Command, args []string) error {
	if _, err := requireTarget(); err != nil {
		return err
	}
	req, err := buildRunRequest("", autoVars, autoAgent)
	if err != nil {
		return err
	}

	cond, err := newConductor()
	if err != nil {
		return err
	}

	res, err := cond.AutoAddress(cmd.Context(), req, conductor.AutoOptions{
		TriageCommand:  autoTriage,
		AddressCommand: autoAddress,
		AllowHighRisk:  autoAllowHighRisk,
	})
	if err != nil {
		return err
	}

	if autoJSON {
		if err := outputJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		return exitWith(res.ExitCode())
	}

	if res.Triage != nil {
		writeCaptured(cmd, res.Triage)
	}
	if res.Address != nil {
		writeCaptured(cmd, res.Address)
	}

	outln(cmd, display.Section("Auto"))
	outln(cmd, display.KeyValue("Status", display.FormatStatusColored(res.LocalStatus))+
		display.KeyValue("Risk", display.FormatRisk(res.Risk)))
	switch {
	case res.FailedAt != "":
		outln(cmd, display.ErrorMsg("%s exited with status %d", res.FailedAt, res.ExitCode()))
	case res.SkipReason != "":
		outln(cmd, display.WarningMsg("address skipped: %s", res.SkipReason))
	default:
		outln(cmd, display.SuccessMsg("triaged and addressed"))
	}

	return exitWith(res.ExitCode())
}
