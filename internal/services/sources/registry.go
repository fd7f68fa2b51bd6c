// Package sources holds the fixed set of crawled origins. Adding a site means
// adding a descriptor here; there is no runtime source configuration.
package sources

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ternarybob/ecclesia/internal/models"
)

// Registry is an immutable, ordered list of sources
type Registry struct {
	sources []models.Source
}

// NewRegistry creates a registry over the given sources in sweep order
func NewRegistry(sources ...models.Source) *Registry {
	copied := make([]models.Source, len(sources))
	copy(copied, sources)
	return &Registry{sources: copied}
}

// Default returns the built-in source list
func Default() *Registry {
	return NewRegistry(defaultSources()...)
}

// All returns the sources in sweep order
func (r *Registry) All() []models.Source {
	out := make([]models.Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Len returns the number of sources
func (r *Registry) Len() int {
	return len(r.sources)
}

// ByName finds a source by name
func (r *Registry) ByName(name string) (models.Source, bool) {
	for _, src := range r.sources {
		if src.Name == name {
			return src, true
		}
	}
	return models.Source{}, false
}

// ForURL finds the source whose predicate accepts rawURL, falling back to a
// host match against the listing URL. Ad-hoc URLs from unknown sites get false.
func (r *Registry) ForURL(rawURL string) (models.Source, bool) {
	for _, src := range r.sources {
		if src.LinkPredicate != nil && src.LinkPredicate(rawURL) {
			return src, true
		}
	}

	host := hostOf(rawURL)
	if host == "" {
		return models.Source{}, false
	}
	for _, src := range r.sources {
		if hostOf(src.ListingURL) == host {
			return src, true
		}
	}
	return models.Source{}, false
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// matchURL builds a link predicate from a regular expression
func matchURL(pattern string) func(string) bool {
	re := regexp.MustCompile(pattern)
	return re.MatchString
}
