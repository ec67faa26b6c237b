package updater

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// FetchAsset downloads the body of a release asset. Assets whose declared
// size or streamed body exceeds the ceiling fail with ErrAssetTooLarge.
// Transient failures are retried with exponential backoff; the body is only
// returned once complete.
func (u *Client) FetchAsset(ctx context.Context, asset Asset) ([]byte, error) {
	if asset.Size > u.maxAssetBytes {
		return nil, fmt.Errorf("asset %s is %d bytes, limit %d: %w", asset.Name, asset.Size, u.maxAssetBytes, ErrAssetTooLarge)
	}
	body, err := u.get(ctx, asset.DownloadURL, "application/octet-stream", u.maxAssetBytes)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", asset.Name, err)
	}
	return body, nil
}

// FetchRaw downloads a file from the default branch of repo through the raw
// content endpoint.
func (u *Client) FetchRaw(ctx context.Context, repo, path string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/%s/HEAD/%s", u.rawBase, repo, strings.TrimLeft(path, "/"))
	body, err := u.get(ctx, endpoint, "", u.maxAssetBytes)
	if err != nil {
		return nil, fmt.Errorf("downloading %s from %s: %w", path, repo, err)
	}
	return body, nil
}

// get performs a GET with retries. Only ErrNetworkTransient failures are
// retried, up to maxAttempts attempts in total.
func (u *Client) get(ctx context.Context, endpoint, accept string, limit int64) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = u.retryInterval
	b.MaxInterval = 20 * u.retryInterval

	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		body, err := u.getOnce(ctx, endpoint, accept, limit)
		if err == nil {
			return body, nil
		}
		if errors.Is(err, ErrNetworkTransient) && ctx.Err() == nil {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	body, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(u.maxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			u.logger.Debug("retrying request",
				zap.String("url", endpoint),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", next),
				zap.Error(err))
		}),
	)
	if err != nil {
		return nil, err
	}
	if u.onBytes != nil {
		u.onBytes(len(body))
	}
	return body, nil
}

func (u *Client) getOnce(ctx context.Context, endpoint, accept string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.Header.Set("User-Agent", userAgent)
	if u.token != "" {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrNetworkTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", endpoint, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %w", ErrNetworkTransient, &HTTPError{StatusCode: resp.StatusCode, URL: endpoint})
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: endpoint, Message: "API rate limit exceeded, set a github_token for higher limits"}
	default:
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	if limit > 0 && resp.ContentLength > limit {
		return nil, fmt.Errorf("%s declares %d bytes, limit %d: %w", endpoint, resp.ContentLength, limit, ErrAssetTooLarge)
	}

	reader := io.Reader(resp.Body)
	if limit > 0 {
		reader = io.LimitReader(resp.Body, limit+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: reading response body: %w", ErrNetworkTransient, err)
	}
	if limit > 0 && int64(len(body)) > limit {
		return nil, fmt.Errorf("%s exceeds %d bytes: %w", endpoint, limit, ErrAssetTooLarge)
	}
	return body, nil
}
