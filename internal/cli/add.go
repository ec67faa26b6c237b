package cli

import (
	"fmt"

	"github.com/agentx-labs/brat/internal/sweep"
	"github.com/agentx-labs/brat/internal/tracking"
	"github.com/spf13/cobra"
)

var (
	addVersion   string
	addTheme     bool
	addNoInstall bool
)

func init() {
	addCmd.Flags().StringVar(&addVersion, "version", "", "Pin the package to this release tag")
	addCmd.Flags().BoolVar(&addTheme, "theme", false, "Follow a theme repository instead of a package")
	addCmd.Flags().BoolVar(&addNoInstall, "no-install", false, "Only follow the repository, install on the next update")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add <owner/name | github URL>",
	Short: "Follow a beta package or theme repository",
	Long: `Follow a repository and install its latest release (or the release given
with --version, which pins the package to that tag).

  brat add pjeby/hot-reload
  brat add https://github.com/owner/plugin --version 0.9.0
  brat add owner/theme --theme`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if addTheme {
			return addThemeRepo(cmd, args[0])
		}
		return addPackageRepo(cmd, args[0])
	},
}

func addPackageRepo(cmd *cobra.Command, input string) error {
	var (
		a   *app
		err error
	)
	if addNoInstall {
		a, err = newStoreOnly()
	} else {
		a, err = newApp()
	}
	if err != nil {
		return err
	}
	defer a.close()

	p, err := tracking.AddPackage(a.store, input, addVersion)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Following %s%s\n", p.Repository, pinSuffix(p.PinnedVersion))
	if addNoInstall {
		return nil
	}

	out := a.sweeper.InstallPackage(cmd.Context(), sweep.PackageRequest{
		Repository: p.Repository,
		Pin:        p.PinnedVersion,
	})
	printOutcome(cmd.OutOrStdout(), out)
	if out.Failed() {
		return fmt.Errorf("installing %s: %w", p.Repository, out.Err)
	}
	return nil
}

func addThemeRepo(cmd *cobra.Command, input string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	repo, err := tracking.CheckNewTheme(a.store, input)
	if err != nil {
		return err
	}
	// A theme is followed once its first install succeeds.
	out := a.sweeper.UpdateTheme(cmd.Context(), repo)
	printOutcome(cmd.OutOrStdout(), out)
	if out.Failed() {
		return fmt.Errorf("installing theme %s: %w", repo, out.Err)
	}
	return nil
}

func pinSuffix(pin string) string {
	if pin == "" {
		return ""
	}
	return " (pinned to " + pin + ")"
}
