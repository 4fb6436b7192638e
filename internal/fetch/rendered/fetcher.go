// Package rendered drives a headless browser to retrieve JavaScript-
// rendered documentation pages. It owns a single browser instance
// for the lifetime of one build — pages are fetched serially against it.
// pipeline.Build runs this fetch as a stage of its own, after the
// manifests load and before the live-endpoint fetch; it does not run
// concurrently with the other fetcher families.
package rendered

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// fallbackTemplate marks content that could not be rendered, so
// downstream stages still see a usable total result.
const fallbackTemplate = "[Dynamic content — see %s]"

// Options configures the rendered-page fetcher.
type Options struct {
	Enabled            bool
	UserAgent          string
	WaitSelectors      []string
	NetworkIdleTimeout time.Duration
	SelectorTimeout    time.Duration
}

// Fetcher owns one browser for the duration of a build. Acquire must be
// called before the first Fetch and Release on every exit path,
// including failure, so the child process is never leaked.
type Fetcher struct {
	opts Options

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	browserCtx    context.Context
	acquired      bool

	logger arbor.ILogger
}

// New creates a rendered-page fetcher. Acquire must be called before use.
func New(opts Options, logger arbor.ILogger) *Fetcher {
	if opts.SelectorTimeout <= 0 {
		opts.SelectorTimeout = 10 * time.Second
	}
	if opts.NetworkIdleTimeout <= 0 {
		opts.NetworkIdleTimeout = 5 * time.Second
	}
	return &Fetcher{opts: opts, logger: logger}
}

// Acquire starts the browser child process. A no-op (returning nil) when
// the fetcher is disabled in config.
func (f *Fetcher) Acquire() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.opts.Enabled || f.acquired {
		return nil
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(f.opts.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("failed to start rendered-page browser: %w", err)
	}

	f.allocCancel = allocCancel
	f.browserCancel = browserCancel
	f.browserCtx = browserCtx
	f.acquired = true
	return nil
}

// Release shuts down the browser child process. Safe to call multiple
// times and safe to call even if Acquire was never called or failed.
func (f *Fetcher) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.acquired {
		return
	}
	if f.browserCancel != nil {
		f.browserCancel()
	}
	if f.allocCancel != nil {
		f.allocCancel()
	}
	f.acquired = false
}

// Fetch navigates to url, waits for network-idle then for one of the
// configured selectors, and returns the serialized DOM. Any failure
// (browser unavailable, selector timeout) degrades to the fallback
// sentinel rather than propagating, so downstream stages see a total
// function.
func (f *Fetcher) Fetch(ctx context.Context, url string) string {
	f.mu.Lock()
	acquired := f.acquired
	browserCtx := f.browserCtx
	f.mu.Unlock()

	if !f.opts.Enabled || !acquired {
		return fallback(url)
	}

	taskCtx, cancel := context.WithTimeout(browserCtx, f.opts.SelectorTimeout+f.opts.NetworkIdleTimeout)
	defer cancel()

	var html string
	actions := []chromedp.Action{
		network.Enable(),
		chromedp.Navigate(url),
		waitForNetworkIdle(f.opts.NetworkIdleTimeout),
	}
	if len(f.opts.WaitSelectors) > 0 {
		actions = append(actions, waitForAnySelector(f.opts.WaitSelectors, f.opts.SelectorTimeout))
	}
	actions = append(actions, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(taskCtx, actions...); err != nil {
		f.logger.Warn().Err(err).Str("url", url).Msg("rendered-page fetch failed, using fallback sentinel")
		return fallback(url)
	}

	return html
}

func fallback(url string) string {
	return fmt.Sprintf(fallbackTemplate, url)
}

// networkQuietWindow is how long the wire must stay silent before the
// page counts as network-idle.
const networkQuietWindow = 500 * time.Millisecond

// waitForNetworkIdle blocks until no tracked network request has been in
// flight for networkQuietWindow, or timeout elapses. It never errors on
// a busy page — a deadline simply moves on to the selector wait, which
// is the stronger readiness signal anyway.
func waitForNetworkIdle(timeout time.Duration) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		var mu sync.Mutex
		inflight := map[network.RequestID]struct{}{}
		drained := make(chan struct{}, 1)

		listenCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		chromedp.ListenTarget(listenCtx, func(ev interface{}) {
			mu.Lock()
			defer mu.Unlock()
			switch e := ev.(type) {
			case *network.EventRequestWillBeSent:
				inflight[e.RequestID] = struct{}{}
			case *network.EventLoadingFinished:
				delete(inflight, e.RequestID)
			case *network.EventLoadingFailed:
				delete(inflight, e.RequestID)
			default:
				return
			}
			if len(inflight) == 0 {
				select {
				case drained <- struct{}{}:
				default:
				}
			}
		})

		deadline := time.NewTimer(timeout)
		defer deadline.Stop()
		quiet := time.NewTimer(networkQuietWindow)
		defer quiet.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-deadline.C:
				return nil
			case <-drained:
				// Restart the quiet window each time the wire empties.
				if !quiet.Stop() {
					select {
					case <-quiet.C:
					default:
					}
				}
				quiet.Reset(networkQuietWindow)
			case <-quiet.C:
				mu.Lock()
				n := len(inflight)
				mu.Unlock()
				if n == 0 {
					return nil
				}
				quiet.Reset(networkQuietWindow)
			}
		}
	}
}

// waitForAnySelector polls each configured selector in turn until one
// becomes visible or timeout elapses. It never errors — a deadline with
// nothing visible still lets the caller read whatever DOM exists, and
// the fallback sentinel is only used when the whole fetch fails outright.
func waitForAnySelector(selectors []string, timeout time.Duration) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		if len(selectors) == 0 {
			return nil
		}
		deadline := time.Now().Add(timeout)
		for time.Now().Before(deadline) {
			for _, sel := range selectors {
				var found bool
				_ = chromedp.Run(ctx, chromedp.Evaluate(
					fmt.Sprintf("document.querySelector(%q) !== null", sel), &found,
				))
				if found {
					return nil
				}
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(200 * time.Millisecond):
			}
		}
		return nil
	}
}

// SelectorList joins selectors for logging.
func SelectorList(selectors []string) string {
	return strings.Join(selectors, ", ")
}
