package sweep

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agentx-labs/brat/internal/host"
	"github.com/agentx-labs/brat/internal/telemetry"
	"github.com/agentx-labs/brat/internal/tracking"
	"github.com/agentx-labs/brat/internal/updater"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultWorkers bounds concurrent items when no worker count is set.
const DefaultWorkers = 4

// ReleaseSource resolves releases and downloads their files.
// *updater.Client implements it.
type ReleaseSource interface {
	ResolveLatest(ctx context.Context, repo string) (*updater.Release, error)
	ResolveTag(ctx context.Context, repo, tag string) (*updater.Release, error)
	FetchAsset(ctx context.Context, asset updater.Asset) ([]byte, error)
	FetchRaw(ctx context.Context, repo, path string) ([]byte, error)
}

var _ ReleaseSource = (*updater.Client)(nil)

// Sweeper carries the collaborators of every install. Create one per
// process with New and release it with Close.
type Sweeper struct {
	source  ReleaseSource
	host    host.Host
	store   tracking.Store
	writer  *tracking.Writer
	logger  *zap.Logger
	metrics *telemetry.Metrics

	workers            int
	enableAfterInstall bool

	locks   *keyedMutex
	flights singleflight.Group
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithWorkers bounds how many items are processed at once.
func WithWorkers(n int) Option {
	return func(s *Sweeper) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithEnableAfterInstall enables packages the host did not know before
// instead of reloading them.
func WithEnableAfterInstall(enable bool) Option {
	return func(s *Sweeper) {
		s.enableAfterInstall = enable
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records item outcomes and sweep durations.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Sweeper) {
		s.metrics = m
	}
}

// New returns a Sweeper and starts its tracking writer.
func New(source ReleaseSource, h host.Host, store tracking.Store, opts ...Option) *Sweeper {
	s := &Sweeper{
		source:  source,
		host:    h,
		store:   store,
		writer:  tracking.NewWriter(store),
		logger:  zap.NewNop(),
		workers: DefaultWorkers,
		locks:   newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close stops the tracking writer. Pending Apply calls fail afterwards.
func (s *Sweeper) Close() {
	s.writer.Close()
}

// RunOptions selects what a sweep covers.
type RunOptions struct {
	SkipPackages bool
	SkipThemes   bool
	// Force reinstalls packages whose installed version already matches.
	Force bool
	// Progress is called once per finished item, never concurrently.
	Progress func(Outcome)
}

// Report summarizes one sweep.
type Report struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	// Outcomes holds one entry per item in tracking store order, packages
	// first.
	Outcomes []Outcome
	// Err is set when the tracking store could not be listed.
	Err error
}

// Count returns how many outcomes have status.
func (r Report) Count(status Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Failures returns the failed outcomes.
func (r Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			out = append(out, o)
		}
	}
	return out
}

type item struct {
	pkg   *tracking.TrackedPackage
	theme *tracking.TrackedTheme
}

// Run makes one pass over every tracked package and theme. It never
// returns early because of an item failure.
func (s *Sweeper) Run(ctx context.Context, opts RunOptions) Report {
	report := Report{ID: uuid.NewString(), Started: time.Now()}
	logger := s.logger.With(zap.String("sweep_id", report.ID))

	items, err := s.items(opts)
	if err != nil {
		report.Err = err
		report.Duration = time.Since(report.Started)
		logger.Error("listing tracked repositories", zap.Error(err))
		return report
	}
	logger.Debug("sweep started", zap.Int("items", len(items)))

	report.Outcomes = make([]Outcome, len(items))
	var progressMu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, it := range items {
		g.Go(func() error {
			out := s.runItem(ctx, it, opts.Force)
			report.Outcomes[i] = out
			s.metrics.RecordItem(string(out.Status), out.Reason())
			if out.Failed() {
				logger.Warn("item failed",
					zap.String("repository", out.Repository),
					zap.String("stage", string(out.Stage)),
					zap.String("reason", out.Reason()),
					zap.Error(out.Err))
			}
			if opts.Progress != nil {
				progressMu.Lock()
				opts.Progress(out)
				progressMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(report.Started)
	s.metrics.RecordSweepDuration(report.Duration)
	logger.Debug("sweep finished",
		zap.Duration("duration", report.Duration),
		zap.Int("failed", report.Count(StatusFailed)))
	return report
}

func (s *Sweeper) items(opts RunOptions) ([]item, error) {
	var items []item
	if !opts.SkipPackages {
		pkgs, err := s.store.ListPackages()
		if err != nil {
			return nil, fmt.Errorf("listing packages: %w", err)
		}
		for i := range pkgs {
			items = append(items, item{pkg: &pkgs[i]})
		}
	}
	if !opts.SkipThemes {
		themes, err := s.store.ListThemes()
		if err != nil {
			return nil, fmt.Errorf("listing themes: %w", err)
		}
		for i := range themes {
			items = append(items, item{theme: &themes[i]})
		}
	}
	return items, nil
}

func (s *Sweeper) runItem(ctx context.Context, it item, force bool) Outcome {
	if it.pkg != nil {
		if ctx.Err() != nil {
			return Outcome{Kind: KindPackage, Repository: it.pkg.Repository, Stage: StageIdle, Status: StatusSkipped, Err: ctx.Err()}
		}
		return s.InstallPackage(ctx, PackageRequest{
			Repository: it.pkg.Repository,
			Pin:        it.pkg.PinnedVersion,
			Force:      force,
		})
	}
	if ctx.Err() != nil {
		return Outcome{Kind: KindTheme, Repository: it.theme.Repository, Stage: StageIdle, Status: StatusSkipped, Err: ctx.Err()}
	}
	return s.UpdateTheme(ctx, it.theme.Repository)
}
