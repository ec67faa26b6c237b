package sweep

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentx-labs/brat/internal/manifest"
	"github.com/agentx-labs/brat/internal/tracking"
	"github.com/agentx-labs/brat/internal/updater"
	"go.uber.org/zap"
)

// PackageRequest asks for one package repository to be brought up to date.
type PackageRequest struct {
	Repository string
	// Pin is the tag the package is locked to. Empty means latest.
	Pin string
	// BumpTo moves the pin to another tag. Only an explicit bump changes a
	// recorded pin.
	BumpTo string
	// Force reinstalls even when the installed version matches.
	Force bool
}

func (r PackageRequest) target() string {
	if r.BumpTo != "" {
		return r.BumpTo
	}
	return r.Pin
}

// InstallPackage resolves, fetches, validates and installs one package.
// Concurrent calls for the same repository share a single run.
func (s *Sweeper) InstallPackage(ctx context.Context, req PackageRequest) Outcome {
	v, _, _ := s.flights.Do("package:"+strings.ToLower(req.Repository), func() (any, error) {
		return s.installPackage(ctx, req), nil
	})
	return v.(Outcome)
}

type fetched struct {
	release  *updater.Release
	manifest []byte
	bundle   []byte
	style    []byte
	hasStyle bool
}

func (s *Sweeper) installPackage(ctx context.Context, req PackageRequest) Outcome {
	out := Outcome{Kind: KindPackage, Repository: req.Repository}
	logger := s.logger.With(zap.String("repository", req.Repository))

	release, err := s.resolve(ctx, req)
	if err != nil {
		return out.fail(StageResolving, err)
	}
	out.Tag = release.Tag
	logger = logger.With(zap.String("tag", release.Tag))

	assets, err := updater.ClassifyAssets(release.Assets)
	if err != nil {
		return out.fail(StageResolving, err)
	}

	f := fetched{release: release}
	if f.manifest, err = s.source.FetchAsset(ctx, *assets.Manifest); err != nil {
		return out.fail(StageFetching, err)
	}

	if !req.Force {
		if id, ok := s.alreadyInstalled(req.Repository, f.manifest); ok {
			out.PackageID = id
			logger.Debug("installed version matches release", zap.String("package_id", id))
			if err := s.recordPackage(ctx, req, id, release.Tag, tracking.ActivationNone); err != nil {
				return out.fail(StageInstalling, err)
			}
			return out.done(StatusUnchanged)
		}
	}

	if assets.Bundle != nil {
		if f.bundle, err = s.source.FetchAsset(ctx, *assets.Bundle); err != nil {
			return out.fail(StageFetching, err)
		}
	}
	if assets.Style != nil {
		if f.style, err = s.source.FetchAsset(ctx, *assets.Style); err != nil {
			return out.fail(StageFetching, err)
		}
		f.hasStyle = true
	}
	if err := ctx.Err(); err != nil {
		return out.fail(StageFetching, err)
	}

	// Validation and install share the identifier lock so that the first
	// repository to claim an identifier owns it before the next one checks.
	lockKey := ""
	if m, err := manifest.Parse(f.manifest); err == nil {
		lockKey = m.ID
	}
	unlock := s.locks.Lock(lockKey)
	defer unlock()

	m, err := manifest.Check(manifest.CheckInput{
		Repository:    req.Repository,
		Manifest:      f.manifest,
		BundlePresent: assets.Bundle != nil,
		Style:         f.style,
		RequireBundle: true,
	}, s.store)
	if err != nil {
		return out.fail(StageValidating, err)
	}
	out.PackageID = m.ID
	logger = logger.With(zap.String("package_id", m.ID))

	fields := []zap.Field{zap.String("version", m.Version)}
	if prev, ok := s.host.InstalledVersion(m.ID); ok {
		fields = append(fields, zap.String("previous", prev))
		if upgrade, err := updater.IsUpdateAvailable(prev, m.Version); err == nil {
			fields = append(fields, zap.Bool("upgrade", upgrade))
		}
	}

	if err := s.install(ctx, m.ID, f, req); err != nil {
		return out.fail(StageInstalling, err)
	}
	logger.Info("installed package", fields...)
	return out.done(StatusInstalled)
}

func (s *Sweeper) resolve(ctx context.Context, req PackageRequest) (*updater.Release, error) {
	if tag := req.target(); tag != "" {
		return s.source.ResolveTag(ctx, req.Repository, tag)
	}
	return s.source.ResolveLatest(ctx, req.Repository)
}

// alreadyInstalled reports whether the host already runs the version the
// manifest declares, installed from this repository. An install whose reload
// or enable failed does not count.
func (s *Sweeper) alreadyInstalled(repo string, manifestJSON []byte) (string, bool) {
	m, err := manifest.Parse(manifestJSON)
	if err != nil || m.ID == "" || m.Version == "" {
		return "", false
	}
	owner, ok, err := s.store.OwnerOf(m.ID)
	if err != nil || (ok && !strings.EqualFold(owner, repo)) {
		return "", false
	}
	if s.pendingActivation(repo) != tracking.ActivationNone {
		return "", false
	}
	installed, ok := s.host.InstalledVersion(m.ID)
	if !ok || !updater.SameVersion(installed, m.Version) {
		return "", false
	}
	return m.ID, true
}

func (s *Sweeper) install(ctx context.Context, id string, f fetched, req PackageRequest) error {
	files := map[string][]byte{updater.ManifestFile: f.manifest}
	if f.bundle != nil {
		files[updater.BundleFile] = f.bundle
	}
	if f.hasStyle {
		files[updater.StyleFile] = f.style
	}

	activation := tracking.ActivationReload
	if s.pendingActivation(req.Repository) == tracking.ActivationEnable ||
		(!s.host.IsExtensionIdentifierKnown(id) && s.enableAfterInstall) {
		activation = tracking.ActivationEnable
	}
	if err := s.host.WriteExtensionFiles(ctx, id, files); err != nil {
		return err
	}

	// The files are on disk; record them even if the caller gives up now.
	// The pending activation stays recorded until the host accepts it.
	persist := context.WithoutCancel(ctx)
	if err := s.recordPackage(persist, req, id, f.release.Tag, activation); err != nil {
		return err
	}

	if err := s.activate(ctx, id, activation); err != nil {
		return err
	}
	return s.recordPackage(persist, req, id, f.release.Tag, tracking.ActivationNone)
}

func (s *Sweeper) activate(ctx context.Context, id string, activation tracking.Activation) error {
	if activation == tracking.ActivationEnable {
		if err := s.host.EnableExtension(ctx, id); err != nil {
			return fmt.Errorf("enabling %s: %w", id, err)
		}
		return nil
	}
	if err := s.host.ReloadExtension(ctx, id); err != nil {
		return fmt.Errorf("reloading %s: %w", id, err)
	}
	return nil
}

// pendingActivation returns the activation a previous install of repo left
// unfinished.
func (s *Sweeper) pendingActivation(repo string) tracking.Activation {
	pkgs, err := s.store.ListPackages()
	if err != nil {
		return tracking.ActivationNone
	}
	for _, p := range pkgs {
		if strings.EqualFold(p.Repository, repo) {
			return p.PendingActivation
		}
	}
	return tracking.ActivationNone
}

// recordPackage stores the package identifier owned by req.Repository, the
// activation still owed to the host and, for an explicit bump, the new pin.
// Untracked repositories are left alone.
func (s *Sweeper) recordPackage(ctx context.Context, req PackageRequest, id, tag string, pending tracking.Activation) error {
	return s.writer.Apply(ctx, func(st tracking.Store) error {
		pkgs, err := st.ListPackages()
		if err != nil {
			return err
		}
		for _, p := range pkgs {
			if !strings.EqualFold(p.Repository, req.Repository) {
				continue
			}
			changed := false
			if p.PackageID != id {
				p.PackageID = id
				changed = true
			}
			if p.PendingActivation != pending {
				p.PendingActivation = pending
				changed = true
			}
			if req.BumpTo != "" && p.PinnedVersion != tag {
				p.PinnedVersion = tag
				changed = true
			}
			if !changed {
				return nil
			}
			return st.UpsertPackage(p)
		}
		return nil
	})
}
