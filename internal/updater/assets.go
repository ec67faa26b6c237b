package updater

import (
	"fmt"
	"strings"
)

// Role is the logical purpose of a release asset.
type Role string

// Asset roles recognised in a release.
const (
	RoleManifest Role = "manifest"
	RoleBundle   Role = "bundle"
	RoleStyle    Role = "style"
)

// Well-known asset file names.
const (
	ManifestFile = "manifest.json"
	BundleFile   = "main.js"
	StyleFile    = "styles.css"
)

var roleNames = map[Role][]string{
	RoleManifest: {ManifestFile},
	RoleBundle:   {BundleFile, "main.mjs"},
	RoleStyle:    {StyleFile},
}

// ReleaseAssets holds the asset selected for each role. Nil means the
// release does not carry that role.
type ReleaseAssets struct {
	Manifest *Asset
	Bundle   *Asset
	Style    *Asset
}

// RoleOf returns the role an asset name plays, or "" for unrelated files.
// Matching is case-insensitive.
func RoleOf(name string) Role {
	lower := strings.ToLower(name)
	for role, names := range roleNames {
		for _, n := range names {
			if lower == n {
				return role
			}
		}
	}
	return ""
}

// ClassifyAssets selects the manifest, bundle and style assets of a release.
// Two assets claiming the same role is ErrAmbiguousAssets; a release without
// a manifest is ErrNotFound.
func ClassifyAssets(assets []Asset) (*ReleaseAssets, error) {
	var out ReleaseAssets
	for i := range assets {
		a := &assets[i]
		var slot **Asset
		switch RoleOf(a.Name) {
		case RoleManifest:
			slot = &out.Manifest
		case RoleBundle:
			slot = &out.Bundle
		case RoleStyle:
			slot = &out.Style
		default:
			continue
		}
		if *slot != nil {
			return nil, fmt.Errorf("%q and %q both match the %s role: %w",
				(*slot).Name, a.Name, RoleOf(a.Name), ErrAmbiguousAssets)
		}
		*slot = a
	}

	if out.Manifest == nil {
		return nil, fmt.Errorf("release has no %s asset: %w", ManifestFile, ErrNotFound)
	}
	return &out, nil
}
