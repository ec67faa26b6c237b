package updater

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced by the resolver and fetcher. Everything except
// ErrNetworkTransient is permanent.
var (
	ErrNotFound         = errors.New("not found")
	ErrAmbiguousAssets  = errors.New("ambiguous release assets")
	ErrAssetTooLarge    = errors.New("asset exceeds size limit")
	ErrNetworkTransient = errors.New("transient network failure")
)

// HTTPError is a non-success response from the hosting API.
type HTTPError struct {
	StatusCode int
	URL        string
	Message    string
}

// Error returns the error message.
func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d for URL %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}
