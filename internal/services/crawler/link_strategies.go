package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/ecclesia/internal/models"
)

// LinkStrategy pulls candidate URLs out of one listing document. Results are
// resolved but not yet filtered by the source predicate.
type LinkStrategy interface {
	Name() string
	Extract(src models.Source, body string, base *url.URL) ([]string, error)
}

// defaultStrategies maps strategy names to implementations
func defaultStrategies() map[string]LinkStrategy {
	return map[string]LinkStrategy{
		models.LinkStrategyDOM:   domStrategy{},
		models.LinkStrategyRegex: regexStrategy{},
		models.LinkStrategyFeed:  feedStrategy{},
	}
}

// domStrategy reads a[href] from the parsed document
type domStrategy struct{}

func (domStrategy) Name() string { return models.LinkStrategyDOM }

func (domStrategy) Extract(src models.Source, body string, base *url.URL) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML for link extraction: %w", err)
	}

	var links []string
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if shouldSkipLink(href) {
			return
		}
		if resolved := resolveURL(href, base); resolved != "" {
			links = append(links, resolved)
		}
	})
	return links, nil
}

var (
	hrefPattern     = regexp.MustCompile(`(?i)href\s*=\s*["']([^"'#][^"']*)["']`)
	locationPattern = regexp.MustCompile(`(?i)location(?:\.href)?\s*=\s*["']([^"']+)["']`)
)

// regexStrategy scans raw markup for href attributes and script-driven
// location assignments. It recovers links from malformed tables and
// onclick handlers that the HTML parser drops.
type regexStrategy struct{}

func (regexStrategy) Name() string { return models.LinkStrategyRegex }

func (regexStrategy) Extract(src models.Source, body string, base *url.URL) ([]string, error) {
	var links []string
	for _, re := range []*regexp.Regexp{hrefPattern, locationPattern} {
		for _, m := range re.FindAllStringSubmatch(body, -1) {
			href := strings.ReplaceAll(m[1], "&amp;", "&")
			if shouldSkipLink(href) {
				continue
			}
			if resolved := resolveURL(href, base); resolved != "" {
				links = append(links, resolved)
			}
		}
	}
	return links, nil
}

// feedStrategy turns a JSON calendar feed into detail-page URLs
type feedStrategy struct{}

func (feedStrategy) Name() string { return models.LinkStrategyFeed }

func (feedStrategy) Extract(src models.Source, body string, base *url.URL) ([]string, error) {
	if src.Feed == nil || src.Feed.DetailURL == "" {
		return nil, fmt.Errorf("source %s has no feed detail URL", src.Name)
	}

	items, err := ParseFeedItems([]byte(body))
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		detail := strings.ReplaceAll(src.Feed.DetailURL, "{id}", url.QueryEscape(item.ID))
		if resolved := resolveURL(detail, base); resolved != "" {
			links = append(links, resolved)
		}
	}
	return links, nil
}

// shouldSkipLink reports hrefs that can never be detail pages
func shouldSkipLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	if href == "" || strings.HasPrefix(href, "#") {
		return true
	}
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "sms:", "ftp:", "data:"} {
		if strings.HasPrefix(href, prefix) {
			return true
		}
	}
	return false
}

// resolveURL resolves href against base, dropping the fragment
func resolveURL(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	var resolved *url.URL
	var err error
	if base == nil {
		resolved, err = url.Parse(href)
		if err != nil || !resolved.IsAbs() {
			return ""
		}
	} else {
		resolved, err = base.Parse(href)
		if err != nil {
			return ""
		}
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}
