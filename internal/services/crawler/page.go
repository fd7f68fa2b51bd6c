package crawler

import (
	"context"
	"time"
)

// Page is one reusable document slot: a browser tab or an HTTP fetch buffer.
// Navigate replaces the current document; the wait and read methods act on it.
type Page interface {
	// Navigate loads url. The caller bounds the attempt through ctx.
	Navigate(ctx context.Context, url string) error

	// NavigationTimeout is the per-attempt bound the Navigator applies
	NavigationTimeout() time.Duration

	// RendersScripts reports whether client-side scripts can still change the
	// document after Navigate returns
	RendersScripts() bool

	// WaitReady blocks until selector is visible or timeout elapses
	WaitReady(ctx context.Context, selector string, timeout time.Duration) error

	// WaitIdle blocks until network activity settles or timeout elapses
	WaitIdle(ctx context.Context, timeout time.Duration) error

	// HTML returns the current document markup (or raw body for non-HTML responses)
	HTML(ctx context.Context) (string, error)

	// URL returns the document URL after redirects
	URL() string

	Close()
}

// sleepCtx pauses for d unless ctx ends first. Returns false when cancelled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
