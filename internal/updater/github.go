package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// ResolveLatest fetches the most recent qualifying release of repo.
//
// By default this is the API's "latest release", which never includes
// drafts or prereleases. With prereleases enabled the release list is
// walked newest first instead and the first acceptable entry wins.
// A repository without qualifying releases yields ErrNotFound.
func (u *Client) ResolveLatest(ctx context.Context, repo string) (*Release, error) {
	if u.includePrereleases {
		return u.resolveFromList(ctx, repo)
	}

	endpoint := fmt.Sprintf("%s/repos/%s/releases/latest", u.apiBase, repo)
	release, err := u.fetchRelease(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("resolving latest release of %s: %w", repo, err)
	}
	if !u.acceptable(release) {
		return nil, fmt.Errorf("resolving latest release of %s: %w", repo, ErrNotFound)
	}
	release.Repository = repo
	return release, nil
}

// ResolveTag fetches the release published under tag. It never falls back
// to another release: a tag deleted upstream is ErrNotFound.
func (u *Client) ResolveTag(ctx context.Context, repo, tag string) (*Release, error) {
	if tag == "" {
		return nil, fmt.Errorf("resolving release of %s: empty tag", repo)
	}

	endpoint := fmt.Sprintf("%s/repos/%s/releases/tags/%s", u.apiBase, repo, url.PathEscape(tag))
	release, err := u.fetchRelease(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("resolving release %s of %s: %w", tag, repo, err)
	}
	if release.Tag != tag {
		return nil, fmt.Errorf("resolving release %s of %s: API returned tag %q: %w", tag, repo, release.Tag, ErrNotFound)
	}
	if release.Draft && !u.includeDrafts {
		return nil, fmt.Errorf("resolving release %s of %s: release is a draft: %w", tag, repo, ErrNotFound)
	}
	release.Repository = repo
	return release, nil
}

func (u *Client) resolveFromList(ctx context.Context, repo string) (*Release, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/releases?per_page=%d", u.apiBase, repo, releaseListPageSize)
	body, err := u.get(ctx, endpoint, "application/vnd.github+json", u.maxAssetBytes)
	if err != nil {
		return nil, fmt.Errorf("listing releases of %s: %w", repo, err)
	}

	var releases []Release
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, fmt.Errorf("parsing release list of %s: %w", repo, err)
	}

	for i := range releases {
		if u.acceptable(&releases[i]) {
			release := releases[i]
			release.Repository = repo
			return &release, nil
		}
	}
	return nil, fmt.Errorf("listing releases of %s: no published release: %w", repo, ErrNotFound)
}

// acceptable applies the draft/prerelease policy to a floating resolution.
func (u *Client) acceptable(r *Release) bool {
	if r.Draft && !u.includeDrafts {
		return false
	}
	if r.Prerelease && !u.includePrereleases {
		return false
	}
	return true
}

func (u *Client) fetchRelease(ctx context.Context, endpoint string) (*Release, error) {
	body, err := u.get(ctx, endpoint, "application/vnd.github+json", u.maxAssetBytes)
	if err != nil {
		return nil, err
	}

	var release Release
	if err := json.Unmarshal(body, &release); err != nil {
		return nil, fmt.Errorf("parsing release JSON: %w", err)
	}
	if release.Tag == "" {
		return nil, fmt.Errorf("release JSON has no tag_name")
	}
	return &release, nil
}
