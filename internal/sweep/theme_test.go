package sweep

import (
	"context"
	"testing"

	"github.com/agentx-labs/brat/internal/checksum"
	"github.com/agentx-labs/brat/internal/manifest"
	"github.com/agentx-labs/brat/internal/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallTheme_UnchangedSkipsWrite(t *testing.T) {
	css := ".theme-dark { --accent: teal; }"
	f := newFixture(t, nil, []tracking.TrackedTheme{{
		Repository:       "T/midnight",
		LastUpdateDigest: checksum.Digest(css),
		Name:             "Midnight",
	}})

	out := f.sw.InstallTheme(context.Background(), "T/midnight", css, nil)

	assert.Equal(t, StatusUnchanged, out.Status)
	assert.Zero(t, f.host.themeWrites)
	assert.Empty(t, f.host.reloads)
	assert.Zero(t, f.store.upsertCount())
}

func TestInstallTheme_NameCollisionAcrossRepositories(t *testing.T) {
	f := newFixture(t, nil, nil)
	shared := []byte(`{"name":"Shared","version":"1.0.0"}`)

	first := f.sw.InstallTheme(context.Background(), "A/t1", "a{}", shared)
	require.NoError(t, first.Err)
	assert.Equal(t, StatusInstalled, first.Status)

	second := f.sw.InstallTheme(context.Background(), "B/t2", "b{}", shared)
	assert.Equal(t, StatusFailed, second.Status)
	assert.Equal(t, StageValidating, second.Stage)
	assert.Equal(t, manifest.ReasonCollision, second.Reason())

	assert.Equal(t, 1, f.host.themeWrites)
	assert.Equal(t, "a{}", string(f.host.themes["Shared"]["theme.css"]))
	contains, err := f.store.ContainsTheme("B/t2")
	require.NoError(t, err)
	assert.False(t, contains)
}

func TestInstallTheme_SameRepositoryKeepsItsName(t *testing.T) {
	f := newFixture(t, nil, []tracking.TrackedTheme{{
		Repository:       "A/t1",
		LastUpdateDigest: checksum.Digest("old"),
		Name:             "Shared",
	}})

	out := f.sw.InstallTheme(context.Background(), "a/T1", "new", []byte(`{"name":"Shared"}`))

	require.NoError(t, out.Err)
	assert.Equal(t, StatusInstalled, out.Status)
}

func TestInstallTheme_ChangedUpdatesDigest(t *testing.T) {
	f := newFixture(t, nil, []tracking.TrackedTheme{{
		Repository:       "T/midnight",
		LastUpdateDigest: checksum.Digest("old"),
		Name:             "Midnight",
	}})

	out := f.sw.InstallTheme(context.Background(), "T/midnight", "new", nil)

	require.NoError(t, out.Err)
	assert.Equal(t, StatusInstalled, out.Status)
	assert.Equal(t, "Midnight", out.PackageID)
	assert.Equal(t, "new", string(f.host.themes["Midnight"]["theme.css"]))

	themes, err := f.store.ListThemes()
	require.NoError(t, err)
	require.Len(t, themes, 1)
	assert.Equal(t, checksum.Digest("new"), themes[0].LastUpdateDigest)
}

func TestInstallTheme_FailedWriteKeepsDigest(t *testing.T) {
	f := newFixture(t, nil, []tracking.TrackedTheme{{
		Repository:       "T/midnight",
		LastUpdateDigest: checksum.Digest("old"),
	}})
	f.host.writeErr = assert.AnError

	out := f.sw.InstallTheme(context.Background(), "T/midnight", "new", nil)

	assert.Equal(t, StatusFailed, out.Status)
	themes, _ := f.store.ListThemes()
	assert.Equal(t, checksum.Digest("old"), themes[0].LastUpdateDigest)
}

func TestUpdateTheme_PrefersBetaStylesheet(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.hub.setRaw("T/midnight", "theme-beta.css", "beta")
	f.hub.setRaw("T/midnight", "theme.css", "stable")
	f.hub.setRaw("T/midnight", "manifest.json", `{"name":"Midnight","version":"1.0.0"}`)

	out := f.sw.UpdateTheme(context.Background(), "T/midnight")

	require.NoError(t, out.Err)
	assert.Equal(t, "Midnight", out.PackageID)
	assert.Equal(t, "beta", string(f.host.themes["Midnight"]["theme.css"]))
	assert.NotEmpty(t, f.host.themes["Midnight"]["manifest.json"])

	themes, err := f.store.ListThemes()
	require.NoError(t, err)
	require.Len(t, themes, 1, "a theme is followed once it installed")
	assert.Equal(t, "Midnight", themes[0].Name)
}

func TestUpdateTheme_FallsBackToStableStylesheet(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.hub.setRaw("T/plain", "theme.css", "stable")

	out := f.sw.UpdateTheme(context.Background(), "T/plain")

	require.NoError(t, out.Err)
	assert.Equal(t, "plain", out.PackageID)
	assert.Equal(t, "stable", string(f.host.themes["plain"]["theme.css"]))
}

func TestUpdateTheme_Idempotent(t *testing.T) {
	f := newFixture(t, nil, []tracking.TrackedTheme{{Repository: "T/plain"}})
	f.hub.setRaw("T/plain", "theme.css", "stable")

	first := f.sw.Run(context.Background(), RunOptions{})
	second := f.sw.Run(context.Background(), RunOptions{})

	assert.Equal(t, StatusInstalled, first.Outcomes[0].Status)
	assert.Equal(t, StatusUnchanged, second.Outcomes[0].Status)
	assert.Equal(t, 1, f.host.themeWrites)
}

func TestUpdateTheme_NoStylesheet(t *testing.T) {
	f := newFixture(t, nil, nil)

	out := f.sw.UpdateTheme(context.Background(), "T/empty")

	assert.Equal(t, StageFetching, out.Stage)
	assert.Equal(t, "not-found", out.Reason())
}

func TestThemeName(t *testing.T) {
	assert.Equal(t, "Midnight", themeName("T/x", "Recorded", []byte(`{"name":" Midnight "}`)))
	assert.Equal(t, "Recorded", themeName("T/x", "Recorded", []byte(`{"version":"1"}`)))
	assert.Equal(t, "Recorded", themeName("T/x", "Recorded", []byte(`not json`)))
	assert.Equal(t, "x", themeName("T/x", "", nil))
}
