package models

import (
	"fmt"
	"strings"
	"time"
)

// FetchMode selects how a source's pages are loaded
type FetchMode string

const (
	// FetchBrowser renders pages in headless Chrome (client-rendered boards)
	FetchBrowser FetchMode = "browser"
	// FetchHTTP downloads raw HTML and decodes it locally (legacy EUC-KR boards)
	FetchHTTP FetchMode = "http"
)

// Link strategy names, evaluated in the order a source lists them
const (
	LinkStrategyDOM   = "dom"
	LinkStrategyRegex = "regex"
	LinkStrategyFeed  = "feed"
)

// Source describes one crawlable origin. Sources are defined in code at
// process start and never change afterwards.
type Source struct {
	Name             string
	ListingURL       string
	LinkPredicate    func(url string) bool
	MaxItems         int
	WaitSelector     string    // Optional CSS selector signalling the listing is ready
	Fetch            FetchMode // Defaults to FetchBrowser
	ContentSelectors []string  // Probed before the generic content containers
	LinkStrategies   []string  // Defaults to dom, regex
	Feed             *FeedSpec // Set for JSON calendar feeds
	SkipClassify     bool      // Source path carries its own category
	DefaultCategory  Category  // Used when SkipClassify is set
	MonthsAhead      int       // Calendar months expanded from a templated listing URL
}

// FeedSpec describes a diocesan calendar API returning loosely-typed JSON
type FeedSpec struct {
	APIURL    string // May contain {yyyy} and {mm}
	DetailURL string // Must contain {id}
}

// Matches reports whether a candidate URL belongs to this source. A source
// without a predicate accepts every link its strategies produce.
func (s Source) Matches(url string) bool {
	if s.LinkPredicate == nil {
		return true
	}
	return s.LinkPredicate(url)
}

// FetchModeOrDefault returns the configured fetch mode. Feeds default to
// HTTP, everything else to the browser.
func (s Source) FetchModeOrDefault() FetchMode {
	if s.Fetch != "" {
		return s.Fetch
	}
	if s.Feed != nil {
		return FetchHTTP
	}
	return FetchBrowser
}

// Strategies returns the ordered link strategies for the source
func (s Source) Strategies() []string {
	if len(s.LinkStrategies) > 0 {
		return s.LinkStrategies
	}
	if s.Feed != nil {
		return []string{LinkStrategyFeed}
	}
	return []string{LinkStrategyDOM, LinkStrategyRegex}
}

// ListingURLs expands the listing (or feed) URL for the requested number of
// calendar months starting at now. URLs without month placeholders expand to
// exactly one entry.
func (s Source) ListingURLs(now time.Time) []string {
	template := s.ListingURL
	if s.Feed != nil && s.Feed.APIURL != "" {
		template = s.Feed.APIURL
	}

	if !strings.Contains(template, "{yyyy}") && !strings.Contains(template, "{mm}") {
		return []string{template}
	}

	months := s.MonthsAhead
	if months < 1 {
		months = 1
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	urls := make([]string, 0, months)
	for i := 0; i < months; i++ {
		month := first.AddDate(0, i, 0)
		u := strings.ReplaceAll(template, "{yyyy}", fmt.Sprintf("%04d", month.Year()))
		u = strings.ReplaceAll(u, "{mm}", fmt.Sprintf("%02d", int(month.Month())))
		urls = append(urls, u)
	}
	return urls
}

// CandidateLink is a detail-page URL discovered on a source's listing page
type CandidateLink struct {
	URL        string
	SourceName string
}

// ExtractedContent is the primary readable text of a detail page
type ExtractedContent struct {
	Text      string
	OriginURL string
}
