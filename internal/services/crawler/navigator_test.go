package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

func newTestNavigator(retries int) (*Navigator, *noSleep) {
	sleeper := &noSleep{}
	nav := NewNavigator(NavigatorConfig{Retries: retries, BackoffUnit: 2 * time.Second}, nil, arbor.NewLogger())
	nav.sleep = sleeper.sleep
	return nav, sleeper
}

func TestNavigator_SucceedsFirstAttempt(t *testing.T) {
	nav, sleeper := newTestNavigator(2)
	page := newFakePage(map[string]string{"https://a.kr/": "<html></html>"})

	ok := nav.Navigate(context.Background(), page, "https://a.kr/", 2)

	assert.True(t, ok)
	assert.Len(t, page.visited, 1)
	assert.Empty(t, sleeper.durations)
}

func TestNavigator_RetriesWithLinearBackoff(t *testing.T) {
	nav, sleeper := newTestNavigator(2)
	page := newFakePage(map[string]string{"https://a.kr/": "<html></html>"})
	page.failures["https://a.kr/"] = 2

	ok := nav.Navigate(context.Background(), page, "https://a.kr/", 2)

	assert.True(t, ok)
	assert.Len(t, page.visited, 3)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeper.durations)
}

func TestNavigator_GivesUpAfterRetriesPlusOne(t *testing.T) {
	tests := []struct {
		name     string
		retries  int
		attempts int
	}{
		{"no retries", 0, 1},
		{"default", 2, 3},
		{"many", 4, 5},
		{"negative treated as zero", -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav, _ := newTestNavigator(2)
			page := newFakePage(map[string]string{})
			page.failures["https://down.kr/"] = -1

			ok := nav.Navigate(context.Background(), page, "https://down.kr/", tt.retries)

			assert.False(t, ok)
			assert.Len(t, page.visited, tt.attempts)
		})
	}
}

func TestNavigator_StopsOnCancelledContext(t *testing.T) {
	nav, _ := newTestNavigator(2)
	page := newFakePage(map[string]string{"https://a.kr/": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, nav.Navigate(ctx, page, "https://a.kr/", 2))
	assert.Empty(t, page.visited)
}

func TestSleepCtx(t *testing.T) {
	assert.True(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, time.Hour))
}

func TestHostLimiter_NilAndUnlimited(t *testing.T) {
	var nilLimiter *HostLimiter
	assert.NoError(t, nilLimiter.Wait(context.Background(), "https://a.kr/"))

	limiter := NewHostLimiter(0)
	for i := 0; i < 5; i++ {
		assert.NoError(t, limiter.Wait(context.Background(), "https://a.kr/x"))
	}
	assert.Equal(t, "a.kr", hostOf("https://A.kr:8080/x"))
	assert.Equal(t, "_", hostOf("not a url"))
}
