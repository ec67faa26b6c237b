// Package manifest handles parsing and validation of extension manifests
// (manifest.json) fetched from a release. It checks manifests against an
// embedded JSON Schema and gates installation with Check, which also rejects
// package identifiers already owned by another followed repository.
package manifest
