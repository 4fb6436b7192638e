// Package specsrc fetches the OpenAPI document ("spec" fetcher).
package specsrc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/venicekb/internal/cache"
	"github.com/ternarybob/venicekb/internal/fetch/fetchutil"
	"github.com/ternarybob/venicekb/internal/httpclient"
)

// Result carries the raw spec bytes, its parsed document and its hash,
// used directly as Snapshot.SourceVersions.SpecHash.
type Result struct {
	Raw  []byte
	Doc  map[string]interface{}
	Hash string
}

// Fetcher fetches and parses a single OpenAPI document URL.
type Fetcher struct {
	url    string
	client *http.Client
	cache  *cache.Store
	retry  *fetchutil.RetryPolicy
	logger arbor.ILogger
}

// New creates a spec fetcher for the given URL.
func New(url string, store *cache.Store, logger arbor.ILogger) *Fetcher {
	return &Fetcher{
		url:    url,
		client: httpclient.NewDefault(30 * time.Second),
		cache:  store,
		retry:  fetchutil.NewRetryPolicy(),
		logger: logger,
	}
}

// Fetch retrieves and parses the spec document, preferring a cached copy.
func (f *Fetcher) Fetch(ctx context.Context) (Result, error) {
	key := cache.Key("spec", f.url)

	var raw []byte
	if data, _, ok := f.cache.Get(key); ok {
		raw = data
	} else {
		fetched, err := f.fetchRaw(ctx)
		if err != nil {
			return Result{}, err
		}
		raw = fetched
		if err := f.cache.Put(key, raw, cache.Meta{URL: f.url}); err != nil {
			f.logger.Warn().Err(err).Str("url", f.url).Msg("failed to persist cache entry for spec")
		}
	}

	doc, err := parse(f.url, raw)
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse spec document: %w", err)
	}

	sum := sha256.Sum256(raw)
	return Result{Raw: raw, Doc: doc, Hash: hex.EncodeToString(sum[:])}, nil
}

func (f *Fetcher) fetchRaw(ctx context.Context) ([]byte, error) {
	var body []byte
	statusCode, err := f.retry.Do(ctx, f.logger, "spec", func() (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
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
			return resp.StatusCode, fmt.Errorf("unexpected status fetching spec: %d", resp.StatusCode)
		}
		body = b
		return resp.StatusCode, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spec %s (status %d): %w", f.url, statusCode, err)
	}
	return body, nil
}

// parse decodes raw as YAML if the URL suffix suggests it, otherwise as
// JSON. A JSON document served under a .yaml suffix still parses, since
// YAML is a JSON superset.
func parse(url string, raw []byte) (map[string]interface{}, error) {
	var doc map[string]interface{}
	if strings.HasSuffix(url, ".yaml") || strings.HasSuffix(url, ".yml") {
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
