package updater

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CompareVersions orders an installed version against a release version.
// Returns -1 if installed is older, 0 if equal, 1 if installed is newer.
// A leading "v" on either side is ignored, so tags and manifest versions
// compare directly.
func CompareVersions(installed, release string) (int, error) {
	iv, err := parseSemver(installed)
	if err != nil {
		return 0, fmt.Errorf("parsing installed version %q: %w", installed, err)
	}
	rv, err := parseSemver(release)
	if err != nil {
		return 0, fmt.Errorf("parsing release version %q: %w", release, err)
	}
	return iv.Compare(rv), nil
}

// IsUpdateAvailable reports whether release is newer than installed. A
// false result with a nil error on a real install means a downgrade or a
// reinstall, which happens when a pin points at an older tag.
func IsUpdateAvailable(installed, release string) (bool, error) {
	cmp, err := CompareVersions(installed, release)
	if err != nil {
		return false, err
	}
	return cmp == -1, nil
}

func parseSemver(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(version, "v"))
}

// SameVersion reports whether two version strings name the same release.
// Semver strings compare semantically ("v1.0.0" equals "1.0.0") but build
// metadata must match too, since a beta re-released as "1.0.0+2" replaces
// "1.0.0+1". Anything else falls back to exact string equality.
func SameVersion(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	av, aErr := parseSemver(a)
	bv, bErr := parseSemver(b)
	if aErr != nil || bErr != nil {
		return a == b
	}
	return av.Equal(bv) && av.Metadata() == bv.Metadata()
}
