package crawler

import (
	"context"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ecclesia/internal/models"
)

// WaitConfig bounds the waits performed after navigation
type WaitConfig struct {
	ReadyTimeout time.Duration // WaitSelector bound
	IdleTimeout  time.Duration // network-idle bound on detail pages
	SettleDelay  time.Duration // fixed pause when no better signal exists
}

// LinkExtractor discovers detail-page URLs on a source's listing page(s)
type LinkExtractor struct {
	pages      PageFactory
	navigator  *Navigator
	wait       WaitConfig
	strategies map[string]LinkStrategy
	logger     arbor.ILogger
	now        func() time.Time
}

// NewLinkExtractor creates a link extractor
func NewLinkExtractor(pages PageFactory, navigator *Navigator, wait WaitConfig, logger arbor.ILogger) *LinkExtractor {
	return &LinkExtractor{
		pages:      pages,
		navigator:  navigator,
		wait:       wait,
		strategies: defaultStrategies(),
		logger:     logger,
		now:        time.Now,
	}
}

// ExtractLinks returns the source's candidate URLs: predicate-filtered,
// unique in first-seen order and capped at MaxItems. Any failure yields an
// empty slice; the reason is logged.
func (le *LinkExtractor) ExtractLinks(ctx context.Context, src models.Source) []string {
	page, err := le.pages.NewPage(ctx, src.FetchModeOrDefault())
	if err != nil {
		le.logger.Error().Err(err).Str("source", src.Name).Msg("Failed to open page for listing")
		return []string{}
	}
	defer page.Close()

	seen := make(map[string]bool)
	links := []string{}

	for _, listingURL := range src.ListingURLs(le.now()) {
		if src.MaxItems > 0 && len(links) >= src.MaxItems {
			break
		}

		if !le.navigator.Navigate(ctx, page, listingURL, le.navigator.Retries()) {
			le.logger.Warn().
				Str("source", src.Name).
				Str("listing_url", listingURL).
				Msg("Listing page unreachable, skipping")
			continue
		}

		le.settle(ctx, page, src.WaitSelector)

		body, err := page.HTML(ctx)
		if err != nil {
			le.logger.Warn().Err(err).Str("listing_url", listingURL).Msg("Failed to read listing document")
			continue
		}

		for _, link := range le.collect(src, body, page.URL()) {
			if seen[link] {
				continue
			}
			seen[link] = true
			links = append(links, link)
			if src.MaxItems > 0 && len(links) >= src.MaxItems {
				break
			}
		}
	}

	le.logger.Info().
		Str("source", src.Name).
		Int("links", len(links)).
		Msg("Links extracted from listing")

	return links
}

// collect runs the source's strategies in order; the first one yielding
// predicate-matching links wins
func (le *LinkExtractor) collect(src models.Source, body, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil || pageURL == "" {
		base = nil
		if parsed, perr := url.Parse(src.ListingURL); perr == nil {
			base = parsed
		}
	}

	for _, name := range src.Strategies() {
		strategy, ok := le.strategies[name]
		if !ok {
			le.logger.Warn().Str("strategy", name).Str("source", src.Name).Msg("Unknown link strategy")
			continue
		}

		raw, err := strategy.Extract(src, body, base)
		if err != nil {
			le.logger.Debug().Err(err).Str("strategy", name).Str("source", src.Name).Msg("Link strategy failed")
			continue
		}

		matched := make([]string, 0, len(raw))
		for _, link := range raw {
			if src.Matches(link) {
				matched = append(matched, link)
			}
		}
		if len(matched) > 0 {
			le.logger.Debug().
				Str("strategy", name).
				Str("source", src.Name).
				Int("found", len(raw)).
				Int("matched", len(matched)).
				Msg("Link strategy produced candidates")
			return matched
		}
	}
	return nil
}

// settle waits for client-rendered listings to populate
func (le *LinkExtractor) settle(ctx context.Context, page Page, selector string) {
	if !page.RendersScripts() {
		return
	}
	if selector != "" {
		if err := page.WaitReady(ctx, selector, le.wait.ReadyTimeout); err == nil {
			return
		}
		le.logger.Debug().Str("selector", selector).Msg("Wait selector not ready, using settle delay")
	}
	sleepCtx(ctx, le.wait.SettleDelay)
}
