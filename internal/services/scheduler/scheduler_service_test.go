package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestScheduler_TriggerNowRecordsRun(t *testing.T) {
	var calls int32
	s := NewService(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("source offline")
	}, arbor.NewLogger())

	assert.True(t, s.TriggerNow())

	lastRun, lastErr := s.LastRun()
	require.NotNil(t, lastRun)
	assert.Equal(t, "source offline", lastErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestScheduler_SkipsOverlappingRun(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	s := NewService(func(ctx context.Context) error {
		close(entered)
		<-release
		return nil
	}, arbor.NewLogger())

	go s.TriggerNow()
	<-entered

	assert.False(t, s.TriggerNow())
	close(release)
}

func TestScheduler_PanicIsRecovered(t *testing.T) {
	s := NewService(func(ctx context.Context) error {
		panic("bad source")
	}, arbor.NewLogger())

	assert.True(t, s.TriggerNow())
	_, lastErr := s.LastRun()
	assert.Contains(t, lastErr, "bad source")
}

func TestScheduler_StartStop(t *testing.T) {
	var calls int32
	s := NewService(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, arbor.NewLogger())

	require.NoError(t, s.Start("* * * * * *"))
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start("* * * * * *"))

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) > 0 }, 3*time.Second, 50*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewService(func(ctx context.Context) error { return nil }, arbor.NewLogger())
	assert.Error(t, s.Start("every six hours"))
}
