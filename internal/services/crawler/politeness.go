package crawler

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter spaces out requests to the same host. Parish and diocesan
// sites are small servers, so every host gets its own bucket with burst 1.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
}

// NewHostLimiter creates a limiter allowing requestsPerSecond per host.
// A non-positive rate disables limiting.
func NewHostLimiter(requestsPerSecond float64) *HostLimiter {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
	}
}

func (h *HostLimiter) limiterFor(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	if lim, ok := h.limiters[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(h.limit, 1)
	h.limiters[host] = lim
	return lim
}

// Wait blocks until a request to rawURL's host is allowed or ctx ends
func (h *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	if h == nil {
		return nil
	}
	return h.limiterFor(hostOf(rawURL)).Wait(ctx)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "_"
	}
	return strings.ToLower(u.Hostname())
}
