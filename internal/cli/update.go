package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/agentx-labs/brat/internal/config"
	"github.com/agentx-labs/brat/internal/sweep"
	"github.com/agentx-labs/brat/internal/tracking"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	updatePin         string
	updateForce       bool
	updateThemesOnly  bool
	updateMetricsFile string
	updateStartup     bool
)

func init() {
	updateCmd.Flags().StringVar(&updatePin, "pin", "", "Move a package's pin to this release tag (single repository only)")
	updateCmd.Flags().BoolVar(&updateForce, "force", false, "Reinstall even if the installed version matches")
	updateCmd.Flags().BoolVar(&updateThemesOnly, "themes-only", false, "Only update themes")
	updateCmd.Flags().StringVar(&updateMetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the sweep")
	updateCmd.Flags().BoolVar(&updateStartup, "startup", false, "Honour the update_at_startup settings (for login scripts)")
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update [owner/name]",
	Short: "Install new releases of followed repositories",
	Long: `Checks every followed repository for a new release and installs it.
Pinned packages stay on their tag unless --pin moves them.

  brat update                         # sweep everything
  brat update owner/plugin            # one repository
  brat update owner/plugin --pin 1.2.0
  brat update --themes-only`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if updatePin != "" && len(args) == 0 {
			return fmt.Errorf("--pin needs a repository")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if len(args) == 1 {
			return updateOne(cmd, a, args[0])
		}

		opts := sweep.RunOptions{SkipPackages: updateThemesOnly, Force: updateForce}
		if updateStartup {
			opts.SkipPackages = opts.SkipPackages || !a.settings.UpdateAtStartup
			opts.SkipThemes = !a.settings.UpdateThemesAtStartup
			if opts.SkipPackages && opts.SkipThemes {
				return nil
			}
		}
		return updateAll(cmd, a, opts)
	},
}

func updateOne(cmd *cobra.Command, a *app, input string) error {
	repo, err := tracking.NormalizeRepository(input)
	if err != nil {
		return err
	}

	var out sweep.Outcome
	if isTheme, err := a.store.ContainsTheme(repo); err != nil {
		return err
	} else if isTheme {
		out = a.sweeper.UpdateTheme(cmd.Context(), repo)
	} else {
		p, err := trackedPackage(a.store, repo)
		if err != nil {
			return err
		}
		out = a.sweeper.InstallPackage(cmd.Context(), sweep.PackageRequest{
			Repository: p.Repository,
			Pin:        p.PinnedVersion,
			BumpTo:     updatePin,
			Force:      updateForce,
		})
	}

	printOutcome(cmd.OutOrStdout(), out)
	if out.Failed() {
		return fmt.Errorf("updating %s: %w", repo, out.Err)
	}
	return nil
}

func trackedPackage(store tracking.Store, repo string) (tracking.TrackedPackage, error) {
	pkgs, err := store.ListPackages()
	if err != nil {
		return tracking.TrackedPackage{}, err
	}
	for _, p := range pkgs {
		if strings.EqualFold(p.Repository, repo) {
			return p, nil
		}
	}
	return tracking.TrackedPackage{}, fmt.Errorf("%s is not followed; run `brat add %s` first", repo, repo)
}

func updateAll(cmd *cobra.Command, a *app, opts sweep.RunOptions) error {
	total, err := countItems(a.store, opts)
	if err != nil {
		return err
	}
	if total == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Not following any repositories yet.")
		return nil
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("checking"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
	opts.Progress = func(o sweep.Outcome) {
		bar.Describe(o.Repository)
		_ = bar.Add(1)
	}

	report := a.sweeper.Run(cmd.Context(), opts)
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)
	if report.Err != nil {
		return report.Err
	}

	printSummary(cmd.OutOrStdout(), report)
	if err := sweep.SaveReport(config.Dir(), report.Summary()); err != nil {
		a.logger.Warn("saving sweep report", zap.Error(err))
	}
	if updateMetricsFile != "" {
		if err := a.metrics.WriteTextfile(updateMetricsFile); err != nil {
			return err
		}
	}

	if failed := report.Count(sweep.StatusFailed); failed > 0 {
		return fmt.Errorf("%d of %d item(s) failed", failed, len(report.Outcomes))
	}
	return nil
}

func countItems(store tracking.Store, opts sweep.RunOptions) (int, error) {
	n := 0
	if !opts.SkipPackages {
		pkgs, err := store.ListPackages()
		if err != nil {
			return 0, err
		}
		n += len(pkgs)
	}
	if !opts.SkipThemes {
		themes, err := store.ListThemes()
		if err != nil {
			return 0, err
		}
		n += len(themes)
	}
	return n, nil
}
