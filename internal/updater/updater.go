package updater

import (
	"net/http"
	"strings"
	"time"

	"github.com/agentx-labs/brat/internal/branding"
	"go.uber.org/zap"
)

// Release represents a published release of a repository.
type Release struct {
	Repository string    `json:"-"`
	Tag        string    `json:"tag_name"`
	Name       string    `json:"name"`
	Draft      bool      `json:"draft"`
	Prerelease bool      `json:"prerelease"`
	Assets     []Asset   `json:"assets"`
	Published  time.Time `json:"published_at"`
	HTMLURL    string    `json:"html_url"`
}

// Asset represents a downloadable file attached to a release.
type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Defaults used when no option overrides them.
const (
	DefaultMaxAssetBytes int64 = 32 << 20
	DefaultMaxAttempts         = 3
	DefaultRetryInterval       = 500 * time.Millisecond
	releaseListPageSize        = 30
)

var userAgent = branding.UserAgent()

// Client resolves releases and fetches their assets.
type Client struct {
	httpClient         *http.Client
	apiBase            string
	rawBase            string
	token              string
	includePrereleases bool
	includeDrafts      bool
	maxAssetBytes      int64
	maxAttempts        int
	retryInterval      time.Duration
	logger             *zap.Logger
	onBytes            func(n int)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(u *Client) {
		u.httpClient = c
	}
}

// WithAPIBase points the resolver at a different releases API.
func WithAPIBase(base string) Option {
	return func(u *Client) {
		u.apiBase = strings.TrimRight(base, "/")
	}
}

// WithRawBase points theme downloads at a different raw content host.
func WithRawBase(base string) Option {
	return func(u *Client) {
		u.rawBase = strings.TrimRight(base, "/")
	}
}

// WithToken sends a personal access token for higher rate limits and
// private repositories.
func WithToken(token string) Option {
	return func(u *Client) {
		u.token = token
	}
}

// WithPrereleases lets ResolveLatest return releases marked as prerelease.
func WithPrereleases(include bool) Option {
	return func(u *Client) {
		u.includePrereleases = include
	}
}

// WithDrafts lets resolution return draft releases. Drafts are only visible
// to authenticated callers with push access.
func WithDrafts(include bool) Option {
	return func(u *Client) {
		u.includeDrafts = include
	}
}

// WithMaxAssetBytes sets the download size ceiling.
func WithMaxAssetBytes(n int64) Option {
	return func(u *Client) {
		if n > 0 {
			u.maxAssetBytes = n
		}
	}
}

// WithRetry sets the total number of attempts for transient failures and
// the initial backoff interval.
func WithRetry(attempts int, initial time.Duration) Option {
	return func(u *Client) {
		if attempts > 0 {
			u.maxAttempts = attempts
		}
		if initial > 0 {
			u.retryInterval = initial
		}
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(u *Client) {
		if l != nil {
			u.logger = l
		}
	}
}

// WithByteCounter registers a callback receiving the size of every body
// downloaded successfully.
func WithByteCounter(fn func(n int)) Option {
	return func(u *Client) {
		u.onBytes = fn
	}
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	u := &Client{
		httpClient:    http.DefaultClient,
		apiBase:       branding.APIBase(),
		rawBase:       branding.RawBase(),
		maxAssetBytes: DefaultMaxAssetBytes,
		maxAttempts:   DefaultMaxAttempts,
		retryInterval: DefaultRetryInterval,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}
