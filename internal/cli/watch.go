package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentx-labs/brat/internal/config"
	"github.com/agentx-labs/brat/internal/sweep"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	watchInterval    time.Duration
	watchMetricsFile string
)

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Time between sweeps (default: sweep_interval setting)")
	watchCmd.Flags().StringVar(&watchMetricsFile, "metrics-file", "", "Rewrite Prometheus metrics to this file after each sweep")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep sweeping on an interval until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		interval := watchInterval
		if interval <= 0 {
			interval = a.settings.SweepInterval
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "Sweeping every %s, press Ctrl+C to stop\n", interval)
		err = a.sweeper.Watch(ctx, interval, sweep.RunOptions{}, func(r sweep.Report) {
			printSummary(cmd.OutOrStdout(), r)
			if err := sweep.SaveReport(config.Dir(), r.Summary()); err != nil {
				a.logger.Warn("saving sweep report", zap.Error(err))
			}
			if watchMetricsFile != "" {
				if err := a.metrics.WriteTextfile(watchMetricsFile); err != nil {
					a.logger.Warn("writing metrics", zap.Error(err))
				}
			}
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
