package tracking

import (
	"fmt"
	"regexp"
	"strings"
)

// knownPrefixes are stripped from user input so a pasted repository URL
// and a bare owner/name identify the same repository.
var knownPrefixes = []string{
	"https://github.com/",
	"http://github.com/",
	"https://www.github.com/",
	"www.github.com/",
	"github.com/",
}

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// NormalizeRepository turns user input into an owner/name identifier.
func NormalizeRepository(input string) (string, error) {
	repo := strings.TrimSpace(input)
	for _, prefix := range knownPrefixes {
		if len(repo) >= len(prefix) && strings.EqualFold(repo[:len(prefix)], prefix) {
			repo = repo[len(prefix):]
			break
		}
	}
	repo = strings.TrimRight(repo, "/")
	repo = strings.TrimSuffix(repo, ".git")

	parts := strings.Split(repo, "/")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid repository %q: expected owner/name", input)
	}
	for _, part := range parts {
		if !segmentPattern.MatchString(part) || part == "." || part == ".." {
			return "", fmt.Errorf("invalid repository %q: bad segment %q", input, part)
		}
	}
	return parts[0] + "/" + parts[1], nil
}

// AddPackage follows a package repository, optionally pinned to version.
// Following the same repository twice is ErrAlreadyTracked.
func AddPackage(store Store, input, version string) (TrackedPackage, error) {
	repo, err := NormalizeRepository(input)
	if err != nil {
		return TrackedPackage{}, err
	}
	exists, err := store.ContainsPackage(repo)
	if err != nil {
		return TrackedPackage{}, err
	}
	if exists {
		return TrackedPackage{}, fmt.Errorf("%s: %w", repo, ErrAlreadyTracked)
	}

	p := TrackedPackage{Repository: repo, PinnedVersion: strings.TrimSpace(version)}
	if err := store.UpsertPackage(p); err != nil {
		return TrackedPackage{}, err
	}
	return p, nil
}

// CheckNewTheme normalizes input and rejects themes already followed.
func CheckNewTheme(store Store, input string) (string, error) {
	repo, err := NormalizeRepository(input)
	if err != nil {
		return "", err
	}
	exists, err := store.ContainsTheme(repo)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%s: %w", repo, ErrAlreadyTracked)
	}
	return repo, nil
}
