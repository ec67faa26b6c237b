package cli

import (
	"fmt"
	"net/http"

	"github.com/agentx-labs/brat/internal/config"
	"github.com/agentx-labs/brat/internal/host"
	"github.com/agentx-labs/brat/internal/logging"
	"github.com/agentx-labs/brat/internal/sweep"
	"github.com/agentx-labs/brat/internal/telemetry"
	"github.com/agentx-labs/brat/internal/tracking"
	"github.com/agentx-labs/brat/internal/updater"
	"go.uber.org/zap"
)

// app is the set of collaborators a command works with. It is built once
// per invocation and torn down with close.
type app struct {
	settings config.Settings
	logger   *zap.Logger
	store    *tracking.FileStore
	metrics  *telemetry.Metrics
	client   *updater.Client
	sweeper  *sweep.Sweeper
}

// newStoreOnly loads settings and opens the tracking store without
// requiring a configured vault.
func newStoreOnly() (*app, error) {
	config.Load()
	logger, err := logging.New(verbose)
	if err != nil {
		return nil, err
	}
	return &app{
		settings: config.LoadSettings(),
		logger:   logger,
		store:    tracking.NewFileStore(config.TrackingPath()),
	}, nil
}

// newApp wires the full install pipeline.
func newApp() (*app, error) {
	a, err := newStoreOnly()
	if err != nil {
		return nil, err
	}
	s := a.settings

	vault, err := host.NewVaultHost(s.Vault,
		host.WithReloadCommand(s.ReloadCommand),
		host.WithLogger(a.logger.Named("host")))
	if err != nil {
		return nil, err
	}

	if a.metrics, err = telemetry.New(); err != nil {
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	a.client = updater.New(
		updater.WithHTTPClient(&http.Client{Timeout: s.RequestTimeout}),
		updater.WithAPIBase(s.APIBase),
		updater.WithRawBase(s.RawBase),
		updater.WithToken(s.GitHubToken),
		updater.WithPrereleases(s.IncludePrereleases),
		updater.WithDrafts(s.IncludeDrafts),
		updater.WithMaxAssetBytes(s.MaxAssetBytes),
		updater.WithRetry(s.RetryAttempts, 0),
		updater.WithLogger(a.logger.Named("updater")),
		updater.WithByteCounter(a.metrics.AddAssetBytes),
	)

	a.sweeper = sweep.New(a.client, vault, a.store,
		sweep.WithWorkers(s.Workers),
		sweep.WithEnableAfterInstall(s.EnableAfterInstall),
		sweep.WithLogger(a.logger.Named("sweep")),
		sweep.WithMetrics(a.metrics),
	)
	return a, nil
}

func (a *app) close() {
	if a.sweeper != nil {
		a.sweeper.Close()
	}
	_ = a.logger.Sync()
}
