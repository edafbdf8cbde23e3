package commands

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/valksor/go-opsdesk/internal/agent"
	"github.com/valksor/go-opsdesk/internal/config"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

var versionJSON bool

type versionInfo struct {
	Version string       `json:"version"`
	Commit  string       `json:"commit"`
	Built   string       `json:"built"`
	Go      string       `json:"go"`
	Agents  []agent.Kind `json:"agents"`
	// Config is the config file of the current repository, if it has one.
	Config string `json:"config,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// version works outside a repository and without a config file.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	RunE: func(cmd *cobra.Command, args []string) error {
		info := versionInfo{
			Version: Version,
			Commit:  Commit,
			Built:   BuildTime,
			Go:      runtime.Version(),
			Agents:  agent.Kinds(),
		}
		if err := resolveRepo(cmd.Context()); err == nil {
			if path := config.Path(repoRoot); fileExists(path) {
				info.Config = path
			}
		}

		out := cmd.OutOrStdout()
		if versionJSON {
			return outputJSON(out, info)
		}
		_, _ = fmt.Fprintf(out, "opsdesk %s\n", info.Version)
		_, _ = fmt.Fprintf(out, "  Commit: %s\n", info.Commit)
		_, _ = fmt.Fprintf(out, "  Built:  %s\n", info.Built)
		_, _ = fmt.Fprintf(out, "  Go:     %s\n", info.Go)
		_, _ = fmt.Fprintf(out, "  Agents: %v\n", info.Agents)
		if info.Config != "" {
			_, _ = fmt.Fprintf(out, "  Config: %s\n", info.Config)
		}
		return nil
	},
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(versionCmd)
}
