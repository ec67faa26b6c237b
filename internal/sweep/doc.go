// Package sweep installs and updates followed repositories.
//
// A sweep is one best-effort pass over the tracking store. Each item runs
// through the stages Resolving, Fetching, Validating and Installing and ends
// with an Outcome; a failure in one item never stops the others. Nothing is
// carried between sweeps except what the tracking store persists, so a
// failed item is simply retried from scratch next time.
//
// Work fans out over a bounded worker pool. Host writes are serialized per
// package identifier, overlapping requests for the same repository are
// coalesced, and every tracking store mutation goes through a single
// tracking.Writer.
package sweep
