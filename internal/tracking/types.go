package tracking

import (
	"errors"
	"strings"
)

// ErrAlreadyTracked is returned when following a repository twice.
var ErrAlreadyTracked = errors.New("repository is already tracked")

// TrackedPackage is a followed extension package repository.
type TrackedPackage struct {
	Repository string `yaml:"repo"`
	// PinnedVersion locks resolution to one release tag. Empty means the
	// package floats on the latest release.
	PinnedVersion string `yaml:"version,omitempty"`
	// PackageID is the identifier the last install declared in its
	// manifest. It records ownership, not a version.
	PackageID string `yaml:"package_id,omitempty"`
	// PendingActivation is set while installed files wait for a reload or
	// enable that has not succeeded yet.
	PendingActivation Activation `yaml:"pending,omitempty"`
}

// Activation is what the host must do to run freshly written files.
type Activation string

const (
	ActivationNone   Activation = ""
	ActivationReload Activation = "reload"
	ActivationEnable Activation = "enable"
)

// Pinned reports whether the package is locked to a tag.
func (p TrackedPackage) Pinned() bool { return p.PinnedVersion != "" }

// TrackedTheme is a followed theme repository.
type TrackedTheme struct {
	Repository string `yaml:"repo"`
	// LastUpdateDigest is the checksum of the last stylesheet installed.
	LastUpdateDigest string `yaml:"last_update"`
	Name             string `yaml:"name,omitempty"`
}

// Store is the persisted list of followed repositories. Lists preserve
// order, newest first.
type Store interface {
	ListPackages() ([]TrackedPackage, error)
	ListThemes() ([]TrackedTheme, error)
	UpsertPackage(p TrackedPackage) error
	UpsertTheme(t TrackedTheme) error
	ContainsPackage(repo string) (bool, error)
	ContainsTheme(repo string) (bool, error)
	RemovePackage(repo string) error
	RemoveTheme(repo string) error
	// OwnerOf returns the repository whose install declared packageID.
	// An unreadable store is an error, never "no owner".
	OwnerOf(packageID string) (string, bool, error)
}

// document is the on-disk layout shared by every Store implementation.
type document struct {
	Packages []TrackedPackage `yaml:"packages"`
	Themes   []TrackedTheme   `yaml:"themes"`
}

func sameRepo(a, b string) bool { return strings.EqualFold(a, b) }

func (d *document) findPackage(repo string) int {
	for i := range d.Packages {
		if sameRepo(d.Packages[i].Repository, repo) {
			return i
		}
	}
	return -1
}

func (d *document) findTheme(repo string) int {
	for i := range d.Themes {
		if sameRepo(d.Themes[i].Repository, repo) {
			return i
		}
	}
	return -1
}

func (d *document) upsertPackage(p TrackedPackage) {
	if i := d.findPackage(p.Repository); i >= 0 {
		d.Packages[i] = p
		return
	}
	d.Packages = append([]TrackedPackage{p}, d.Packages...)
}

func (d *document) upsertTheme(t TrackedTheme) {
	if i := d.findTheme(t.Repository); i >= 0 {
		d.Themes[i] = t
		return
	}
	d.Themes = append([]TrackedTheme{t}, d.Themes...)
}

func (d *document) removePackage(repo string) bool {
	i := d.findPackage(repo)
	if i < 0 {
		return false
	}
	d.Packages = append(d.Packages[:i], d.Packages[i+1:]...)
	return true
}

func (d *document) removeTheme(repo string) bool {
	i := d.findTheme(repo)
	if i < 0 {
		return false
	}
	d.Themes = append(d.Themes[:i], d.Themes[i+1:]...)
	return true
}

func (d *document) ownerOf(packageID string) (string, bool) {
	if packageID == "" {
		return "", false
	}
	for _, p := range d.Packages {
		if p.PackageID == packageID {
			return p.Repository, true
		}
	}
	return "", false
}

func (d *document) clone() document {
	return document{
		Packages: append([]TrackedPackage(nil), d.Packages...),
		Themes:   append([]TrackedTheme(nil), d.Themes...),
	}
}
