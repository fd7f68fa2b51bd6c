package crawler

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
)

// NavigatorConfig controls navigation retries
type NavigatorConfig struct {
	// Retries is the number of extra attempts after the first one
	Retries int
	// BackoffUnit is multiplied by the attempt number between attempts
	BackoffUnit time.Duration
}

// Navigator loads pages with bounded retries and linear backoff. Failures are
// logged and reported as false; callers decide what a missing page means.
type Navigator struct {
	config  NavigatorConfig
	limiter *HostLimiter
	logger  arbor.ILogger

	// sleep is swapped in tests to observe backoff without waiting
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewNavigator creates a navigator. limiter may be nil.
func NewNavigator(config NavigatorConfig, limiter *HostLimiter, logger arbor.ILogger) *Navigator {
	if config.Retries < 0 {
		config.Retries = 0
	}
	return &Navigator{
		config:  config,
		limiter: limiter,
		logger:  logger,
		sleep:   sleepCtx,
	}
}

// Retries returns the configured default retry count
func (n *Navigator) Retries() int {
	return n.config.Retries
}

// Navigate loads targetURL into page, trying up to retries+1 times. Each
// attempt is bounded by the page's navigation timeout.
func (n *Navigator) Navigate(ctx context.Context, page Page, targetURL string, retries int) bool {
	if retries < 0 {
		retries = 0
	}
	attempts := retries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return false
		}

		if err := n.limiter.Wait(ctx, targetURL); err != nil {
			return false
		}

		err := n.attempt(ctx, page, targetURL)
		if err == nil {
			if attempt > 1 {
				n.logger.Debug().
					Str("url", targetURL).
					Int("attempt", attempt).
					Msg("Navigation succeeded after retry")
			}
			return true
		}

		n.logger.Warn().
			Err(err).
			Str("url", targetURL).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("Navigation attempt failed")

		if attempt < attempts {
			backoff := n.config.BackoffUnit * time.Duration(attempt)
			if !n.sleep(ctx, backoff) {
				return false
			}
		}
	}

	n.logger.Error().
		Str("url", targetURL).
		Int("attempts", attempts).
		Msg("Navigation failed, giving up")
	return false
}

func (n *Navigator) attempt(ctx context.Context, page Page, targetURL string) error {
	timeout := page.NavigationTimeout()
	if timeout <= 0 {
		return page.Navigate(ctx, targetURL)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return page.Navigate(attemptCtx, targetURL)
}
