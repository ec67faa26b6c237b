package cli

import (
	"fmt"

	"github.com/agentx-labs/brat/internal/tracking"
	"github.com/spf13/cobra"
)

var removeTheme bool

func init() {
	removeCmd.Flags().BoolVar(&removeTheme, "theme", false, "Stop following a theme repository")
	rootCmd.AddCommand(removeCmd)
}

var removeCmd = &cobra.Command{
	Use:     "remove <owner/name>",
	Aliases: []string{"rm"},
	Short:   "Stop following a repository",
	Long: `Stop following a repository. Installed files are left in the vault; disable
or delete them from the host application.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newStoreOnly()
		if err != nil {
			return err
		}
		defer a.close()

		repo, err := tracking.NormalizeRepository(args[0])
		if err != nil {
			return err
		}
		if removeTheme {
			err = a.store.RemoveTheme(repo)
		} else {
			err = a.store.RemovePackage(repo)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "No longer following %s\n", repo)
		return nil
	},
}
