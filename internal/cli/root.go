package cli

import (
	"os"

	"github.com/agentx-labs/brat/internal/branding"
	"github.com/agentx-labs/brat/internal/config"
	"github.com/agentx-labs/brat/internal/sweep"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` follows beta releases of extension packages and themes published on
GitHub, installs them into a vault and keeps them up to date.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Skip the notice for commands that sweep or only touch settings.
		switch cmd.Name() {
		case "update", "watch", "config", "get", "set", "version":
			return
		}
		sweep.PrintStaleNotice(os.Stderr, config.Dir(), branding.CLIName(), sweep.DefaultReportMaxAge)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}
