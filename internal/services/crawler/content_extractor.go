package crawler

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ecclesia/internal/models"
)

// noiseSelector matches elements that never carry event text
const noiseSelector = "script, style, noscript, nav, header, footer, iframe"

// DefaultContentSelectors are the generic containers used by Korean board
// software (gnuboard, XE, in-house CMSes) and common blog themes
var DefaultContentSelectors = []string{
	"article",
	"main",
	".board-view",
	".view-body",
	".view_content",
	".board_view",
	"#bo_v_con",
	".article-body",
	".entry-content",
	".content",
	"#content",
}

// ContentExtractor pulls the readable text of a detail page
type ContentExtractor struct {
	pages     PageFactory
	navigator *Navigator
	wait      WaitConfig
	minChars  int
	logger    arbor.ILogger
}

// NewContentExtractor creates a content extractor. A selector match is
// accepted only when its text is longer than minChars characters.
func NewContentExtractor(pages PageFactory, navigator *Navigator, wait WaitConfig, minChars int, logger arbor.ILogger) *ContentExtractor {
	return &ContentExtractor{
		pages:     pages,
		navigator: navigator,
		wait:      wait,
		minChars:  minChars,
		logger:    logger,
	}
}

// ExtractText loads targetURL and returns its main text. src may be nil for
// ad-hoc URLs; it contributes the fetch mode and site-specific selectors.
func (ce *ContentExtractor) ExtractText(ctx context.Context, targetURL string, src *models.Source) (*models.ExtractedContent, error) {
	mode := models.FetchBrowser
	var selectors []string
	if src != nil {
		mode = src.FetchModeOrDefault()
		if src.Feed != nil && src.Fetch == "" {
			// Feed detail pages are ordinary HTML
			mode = models.FetchBrowser
		}
		selectors = src.ContentSelectors
	}

	page, err := ce.pages.NewPage(ctx, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open page: %v", models.ErrContentExtraction, err)
	}
	defer page.Close()

	if !ce.navigator.Navigate(ctx, page, targetURL, ce.navigator.Retries()) {
		return nil, fmt.Errorf("%w: %w: %s", models.ErrContentExtraction, models.ErrTransientNetwork, targetURL)
	}

	if page.RendersScripts() {
		if err := page.WaitIdle(ctx, ce.wait.IdleTimeout); err != nil {
			ce.logger.Debug().Err(err).Str("url", targetURL).Msg("Network idle not reached, using settle delay")
			sleepCtx(ctx, ce.wait.SettleDelay)
		}
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read document: %v", models.ErrContentExtraction, err)
	}

	text, err := ExtractMainText(html, selectors, ce.minChars)
	if err != nil {
		return nil, err
	}

	origin := page.URL()
	if origin == "" {
		origin = targetURL
	}

	ce.logger.Debug().
		Str("url", origin).
		Int("chars", utf8.RuneCountInString(text)).
		Msg("Content extracted")

	return &models.ExtractedContent{Text: text, OriginURL: origin}, nil
}

// ExtractMainText strips noise elements and returns the normalized text of
// the first selector (site-specific, then generic) longer than minChars,
// falling back to the whole body.
func ExtractMainText(html string, siteSelectors []string, minChars int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse HTML: %v", models.ErrContentExtraction, err)
	}

	doc.Find(noiseSelector).Remove()

	selectors := make([]string, 0, len(siteSelectors)+len(DefaultContentSelectors))
	selectors = append(selectors, siteSelectors...)
	selectors = append(selectors, DefaultContentSelectors...)

	for _, selector := range selectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		text := NormalizeText(sel.First().Text())
		if utf8.RuneCountInString(text) > minChars {
			return text, nil
		}
	}

	text := NormalizeText(doc.Find("body").Text())
	if text == "" {
		return "", fmt.Errorf("%w: document has no text", models.ErrContentExtraction)
	}
	return text, nil
}

// NormalizeText collapses runs of whitespace to single spaces
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
