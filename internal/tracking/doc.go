// Package tracking persists the repositories being followed: beta packages
// (optionally pinned to a release tag) and themes (with the digest of the
// last stylesheet seen). Writers serialise every mutation through a single
// goroutine so concurrent sweep workers never race on the stored list.
package tracking
