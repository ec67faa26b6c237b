package sweep

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/agentx-labs/brat/internal/checksum"
	"github.com/agentx-labs/brat/internal/manifest"
	"github.com/agentx-labs/brat/internal/tracking"
	"github.com/agentx-labs/brat/internal/updater"
	"go.uber.org/zap"
)

// Theme files on the default branch, in order of preference.
var themeStylesheets = []string{"theme-beta.css", "theme.css"}

const themeInstallFile = "theme.css"

// UpdateTheme downloads the current stylesheet of repo and installs it if
// it changed since the last install.
func (s *Sweeper) UpdateTheme(ctx context.Context, repo string) Outcome {
	v, _, _ := s.flights.Do("theme:"+strings.ToLower(repo), func() (any, error) {
		out := Outcome{Kind: KindTheme, Repository: repo}

		css, err := s.fetchStylesheet(ctx, repo)
		if err != nil {
			return out.fail(StageFetching, err), nil
		}
		manifestJSON, err := s.source.FetchRaw(ctx, repo, updater.ManifestFile)
		if err != nil && !errors.Is(err, updater.ErrNotFound) {
			return out.fail(StageFetching, err), nil
		}
		return s.InstallTheme(ctx, repo, string(css), manifestJSON), nil
	})
	return v.(Outcome)
}

func (s *Sweeper) fetchStylesheet(ctx context.Context, repo string) ([]byte, error) {
	var lastErr error
	for _, name := range themeStylesheets {
		css, err := s.source.FetchRaw(ctx, repo, name)
		if err == nil {
			return css, nil
		}
		if !errors.Is(err, updater.ErrNotFound) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// InstallTheme writes css for repo unless its digest matches the one
// recorded at the last install. manifestJSON is optional and supplies the
// theme name.
func (s *Sweeper) InstallTheme(ctx context.Context, repo, css string, manifestJSON []byte) Outcome {
	out := Outcome{Kind: KindTheme, Repository: repo}
	logger := s.logger.With(zap.String("repository", repo))

	current, err := s.trackedTheme(repo)
	if err != nil {
		return out.fail(StageValidating, err)
	}
	digest := checksum.Digest(css)
	name := themeName(repo, current.Name, manifestJSON)
	out.PackageID = name

	if current.LastUpdateDigest != "" && checksum.Equal(css, current.LastUpdateDigest) {
		logger.Debug("theme unchanged")
		return out.done(StatusUnchanged)
	}

	files := map[string][]byte{themeInstallFile: []byte(css)}
	if len(manifestJSON) > 0 {
		files[updater.ManifestFile] = manifestJSON
	}

	// The name check and the write share a lock so that only one repository
	// can claim a theme folder.
	unlock := s.locks.Lock("theme:" + strings.ToLower(name))
	defer unlock()
	if err := s.checkThemeOwner(repo, name); err != nil {
		return out.fail(StageValidating, err)
	}
	if err := s.host.WriteTheme(ctx, name, files); err != nil {
		return out.fail(StageInstalling, err)
	}

	theme := tracking.TrackedTheme{Repository: repo, LastUpdateDigest: digest, Name: name}
	if err := s.writer.UpsertTheme(context.WithoutCancel(ctx), theme); err != nil {
		return out.fail(StageInstalling, err)
	}
	logger.Info("installed theme", zap.String("name", name))
	return out.done(StatusInstalled)
}

func (s *Sweeper) trackedTheme(repo string) (tracking.TrackedTheme, error) {
	themes, err := s.store.ListThemes()
	if err != nil {
		return tracking.TrackedTheme{}, err
	}
	for _, t := range themes {
		if strings.EqualFold(t.Repository, repo) {
			return t, nil
		}
	}
	return tracking.TrackedTheme{Repository: repo}, nil
}

// checkThemeOwner fails when another tracked repository installs a theme
// under name.
func (s *Sweeper) checkThemeOwner(repo, name string) error {
	themes, err := s.store.ListThemes()
	if err != nil {
		return err
	}
	for _, t := range themes {
		if strings.EqualFold(t.Repository, repo) || !strings.EqualFold(t.Name, name) {
			continue
		}
		return &manifest.ValidationError{
			Reason: manifest.ReasonCollision,
			Detail: fmt.Sprintf("theme %q is already installed from %s", name, t.Repository),
		}
	}
	return nil
}

// themeName prefers the manifest name, then the recorded name, then the
// repository name.
func themeName(repo, recorded string, manifestJSON []byte) string {
	if len(manifestJSON) > 0 {
		if m, err := manifest.Parse(manifestJSON); err == nil && strings.TrimSpace(m.Name) != "" {
			return strings.TrimSpace(m.Name)
		}
	}
	if recorded != "" {
		return recorded
	}
	return path.Base(repo)
}
