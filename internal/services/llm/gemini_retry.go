package llm

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// rateLimitPolicy bounds how long one extraction may wait on Gemini quota.
// Sweeps run candidates one at a time, so the total wait per call is capped
// by budget; past it the candidate fails and the sweep moves on.
type rateLimitPolicy struct {
	retries int           // calls after the first
	base    time.Duration // first wait when the API suggests none; doubles per retry
	ceiling time.Duration // cap on a single wait
	budget  time.Duration // cap on all waits of one Chat call
}

// defaultRateLimitPolicy fits the free-tier per-minute quota: two retries
// reach the next quota window without stalling a sweep for minutes
func defaultRateLimitPolicy() rateLimitPolicy {
	return rateLimitPolicy{
		retries: 2,
		base:    20 * time.Second,
		ceiling: 60 * time.Second,
		budget:  90 * time.Second,
	}
}

// next returns the wait before retry number attempt (1-based), or false when
// err is not a quota error or the retries or budget are used up
func (p rateLimitPolicy) next(attempt int, err error, waited time.Duration) (time.Duration, bool) {
	if attempt > p.retries || !isRateLimited(err) {
		return 0, false
	}

	wait := suggestedDelay(err)
	if wait > 0 {
		wait += time.Second
	} else {
		wait = p.base << (attempt - 1)
	}
	if wait > p.ceiling {
		wait = p.ceiling
	}

	if waited+wait > p.budget {
		return 0, false
	}
	return wait, true
}

// isRateLimited matches 429 and RESOURCE_EXHAUSTED responses
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(msg), "quota")
}

// Gemini puts its hint in the message text, e.g.
// "Error 429, Message: ... Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"
var retryHintRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// suggestedDelay returns the delay the API asked for, or 0
func suggestedDelay(err error) time.Duration {
	if err == nil {
		return 0
	}
	m := retryHintRegex.FindStringSubmatch(err.Error())
	if len(m) < 2 {
		return 0
	}
	seconds, perr := strconv.ParseFloat(m[1], 64)
	if perr != nil {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
