// Package manifestsrc fetches the two manifest documents consumed
// by the manifest loader: the navigation tree and the URL-list.
package manifestsrc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venicekb/internal/cache"
	"github.com/ternarybob/venicekb/internal/fetch/fetchutil"
	"github.com/ternarybob/venicekb/internal/httpclient"
)

// Fetcher fetches raw manifest text (navigation JSON or URL-list text);
// parsing is left entirely to internal/manifest.
type Fetcher struct {
	client *http.Client
	cache  *cache.Store
	retry  *fetchutil.RetryPolicy
	logger arbor.ILogger
}

// New creates a manifest fetcher.
func New(store *cache.Store, logger arbor.ILogger) *Fetcher {
	return &Fetcher{
		client: httpclient.NewDefault(30 * time.Second),
		cache:  store,
		retry:  fetchutil.NewRetryPolicy(),
		logger: logger,
	}
}

// Fetch retrieves the raw text at url, preferring a cached copy.
func (f *Fetcher) Fetch(ctx context.Context, kind, url string) ([]byte, error) {
	key := cache.Key(kind, url)
	if data, _, ok := f.cache.Get(key); ok {
		return data, nil
	}

	var body []byte
	statusCode, err := f.retry.Do(ctx, f.logger, kind, func() (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return 0, err
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, err
		}
		if resp.StatusCode >= 400 {
			return resp.StatusCode, fmt.Errorf("unexpected status fetching %s manifest: %d", kind, resp.StatusCode)
		}
		body = b
		return resp.StatusCode, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s manifest %s (status %d): %w", kind, url, statusCode, err)
	}

	if err := f.cache.Put(key, body, cache.Meta{URL: url}); err != nil {
		f.logger.Warn().Err(err).Str("url", url).Msg("failed to persist cache entry for manifest")
	}

	return body, nil
}
