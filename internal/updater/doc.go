// Package updater talks to the release hosting API. It resolves the latest
// (or a pinned) release of a followed repository, classifies the release
// assets by role, and downloads them with a size ceiling and bounded retries
// for transient failures.
package updater
