package crawler

import (
	"context"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ecclesia/internal/models"
)

// PageFactory opens pages for a fetch mode
type PageFactory interface {
	NewPage(ctx context.Context, mode models.FetchMode) (Page, error)
}

// PagesConfig holds the per-attempt timeouts of both page kinds
type PagesConfig struct {
	UserAgent      string
	BrowserTimeout time.Duration
	HTTPTimeout    time.Duration
}

// Pages opens browser tabs when a browser is available and falls back to
// plain HTTP otherwise, so a host without Chrome still ingests static sources.
type Pages struct {
	browser *Browser
	client  *http.Client
	config  PagesConfig
	logger  arbor.ILogger
}

// NewPages creates a page factory. browser may be nil to disable rendering.
func NewPages(browser *Browser, client *http.Client, config PagesConfig, logger arbor.ILogger) *Pages {
	return &Pages{
		browser: browser,
		client:  client,
		config:  config,
		logger:  logger,
	}
}

func (f *Pages) NewPage(ctx context.Context, mode models.FetchMode) (Page, error) {
	if mode == models.FetchBrowser && f.browser != nil {
		p, err := NewBrowserPage(f.browser, f.config.BrowserTimeout)
		if err == nil {
			return p, nil
		}
		f.logger.Warn().Err(err).Msg("Browser unavailable, falling back to HTTP fetch")
	}
	return NewHTTPPage(f.client, f.config.UserAgent, f.config.HTTPTimeout), nil
}
