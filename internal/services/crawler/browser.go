package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// BrowserConfig holds configuration for the shared headless browser
type BrowserConfig struct {
	UserAgent      string
	Headless       bool
	NoSandbox      bool
	BlockResources bool
	StartupTimeout time.Duration
}

// Browser owns one Chrome process. Tabs are opened per page visit and closed
// afterwards; the process lives until Close. Chrome is started lazily so runs
// that only touch HTTP sources never launch it.
type Browser struct {
	config          BrowserConfig
	logger          arbor.ILogger
	mu              sync.Mutex
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	allocatorCancel context.CancelFunc
	started         bool
}

// NewBrowser creates a browser handle without launching Chrome
func NewBrowser(config BrowserConfig, logger arbor.ILogger) *Browser {
	if config.UserAgent == "" {
		config.UserAgent = "Ecclesia-Crawler/1.0"
	}
	if config.StartupTimeout <= 0 {
		config.StartupTimeout = 30 * time.Second
	}
	return &Browser{
		config: config,
		logger: logger,
	}
}

// start launches Chrome and verifies it responds (must be called with mutex held)
func (b *Browser) start() error {
	startTime := time.Now()

	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.config.Headless),
		chromedp.Flag("no-sandbox", b.config.NoSandbox),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(b.config.UserAgent),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	// The first Run allocates the browser; it must use the browser context
	// itself so a probe timeout cannot tear the process down later.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return fmt.Errorf("failed to start browser: %w", err)
	}

	probeCtx, probeCancel := context.WithTimeout(browserCtx, b.config.StartupTimeout)
	defer probeCancel()

	var title string
	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank"), chromedp.Title(&title)); err != nil {
		browserCancel()
		allocatorCancel()
		return fmt.Errorf("browser instance failed startup test: %w", err)
	}

	b.browserCtx = browserCtx
	b.browserCancel = browserCancel
	b.allocatorCancel = allocatorCancel
	b.started = true

	b.logger.Info().
		Bool("headless", b.config.Headless).
		Bool("block_resources", b.config.BlockResources).
		Dur("startup_time", time.Since(startTime)).
		Msg("Headless browser started")

	return nil
}

// NewTab opens a fresh tab. The returned cancel closes it.
func (b *Browser) NewTab() (context.Context, context.CancelFunc, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		if err := b.start(); err != nil {
			return nil, nil, err
		}
	}

	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)

	if b.config.BlockResources {
		if err := EnableResourceBlocking(tabCtx, b.logger); err != nil {
			tabCancel()
			return nil, nil, fmt.Errorf("failed to enable resource blocking: %w", err)
		}
	}

	return tabCtx, tabCancel, nil
}

// IsStarted reports whether Chrome has been launched
func (b *Browser) IsStarted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.started
}

// Close shuts Chrome down
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		b.browserCancel()
		b.allocatorCancel()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		b.logger.Warn().Msg("Browser shutdown timed out")
	}

	b.started = false
	b.logger.Info().Msg("Headless browser shut down")
	return nil
}
