package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// BrowserPage is a Chrome tab. Client-rendered boards need it: their listing
// and detail content only exists after scripts run.
type BrowserPage struct {
	tabCtx  context.Context
	cancel  context.CancelFunc
	timeout time.Duration

	mu      sync.Mutex
	idle    chan struct{}
	idleSet bool
	url     string
}

// NewBrowserPage opens a tab on browser and starts tracking network-idle lifecycle events
func NewBrowserPage(browser *Browser, timeout time.Duration) (*BrowserPage, error) {
	tabCtx, cancel, err := browser.NewTab()
	if err != nil {
		return nil, err
	}

	p := &BrowserPage{
		tabCtx:  tabCtx,
		cancel:  cancel,
		timeout: timeout,
		idle:    make(chan struct{}),
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if lifecycle, ok := ev.(*page.EventLifecycleEvent); ok && lifecycle.Name == "networkIdle" {
			p.markIdle()
		}
	})

	if err := chromedp.Run(tabCtx, page.SetLifecycleEventsEnabled(true)); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to enable lifecycle events: %w", err)
	}

	return p, nil
}

func (p *BrowserPage) markIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.idleSet {
		p.idleSet = true
		close(p.idle)
	}
}

func (p *BrowserPage) resetIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idle = make(chan struct{})
	p.idleSet = false
}

// bind derives a context that carries the tab but honours the caller's
// deadline and cancellation
func (p *BrowserPage) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(p.tabCtx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		prev := cancel
		cancel = func() {
			cancelDeadline()
			prev()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (p *BrowserPage) Navigate(ctx context.Context, url string) error {
	p.resetIdle()

	runCtx, cancel := p.bind(ctx)
	defer cancel()

	var location string
	if err := chromedp.Run(runCtx, chromedp.Navigate(url), chromedp.Location(&location)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}

	p.mu.Lock()
	p.url = location
	p.mu.Unlock()
	return nil
}

func (p *BrowserPage) NavigationTimeout() time.Duration {
	return p.timeout
}

func (p *BrowserPage) RendersScripts() bool {
	return true
}

func (p *BrowserPage) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	runCtx, release := p.bind(waitCtx)
	defer release()

	return chromedp.Run(runCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (p *BrowserPage) WaitIdle(ctx context.Context, timeout time.Duration) error {
	p.mu.Lock()
	idle := p.idle
	p.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-idle:
		return nil
	case <-timer.C:
		return fmt.Errorf("network did not become idle within %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *BrowserPage) HTML(ctx context.Context) (string, error) {
	runCtx, cancel := p.bind(ctx)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return html, nil
}

func (p *BrowserPage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *BrowserPage) Close() {
	p.cancel()
}
