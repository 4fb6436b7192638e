// Package httpclient builds the shared *http.Client used by every
// source fetcher that talks to a plain HTTP endpoint (spec/manifest/live
// fetchers; githubsrc uses its own go-github-managed client).
package httpclient

import (
	"net/http"
	"time"
)

// NewDefault creates a simple HTTP client with a fixed timeout. Fetchers
// apply their own retry/backoff (internal/fetch/fetchutil) on top of this,
// so the client itself stays stateless and jar-free.
func NewDefault(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}
