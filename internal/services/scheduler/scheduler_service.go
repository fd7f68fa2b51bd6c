package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// SweepFunc runs one scheduled sweep and blocks until it finishes
type SweepFunc func(ctx context.Context) error

// Service triggers sweeps on a cron schedule. A tick that fires while the
// previous sweep is still running is skipped rather than queued.
type Service struct {
	cron   *cron.Cron
	logger arbor.ILogger
	sweep  SweepFunc

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	isProcessing bool
	running      bool
	entryID      cron.EntryID
	lastRun      *time.Time
	lastError    string
	wg           sync.WaitGroup
}

// NewService creates a scheduler for sweep. Schedules use the six-field
// cron format with a leading seconds field.
func NewService(sweep SweepFunc, logger arbor.ILogger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cron:   cron.New(cron.WithSeconds()),
		logger: logger,
		sweep:  sweep,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start registers the sweep under schedule and starts the cron loop
func (s *Service) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	id, err := s.cron.AddFunc(schedule, s.runScheduledSweep)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = id
	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Str("next_run", s.cron.Entry(id).Next.Format(time.RFC3339)).
		Msg("Scheduler started")

	return nil
}

// Stop halts the cron loop, cancels a running sweep and waits for it
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	stopCtx := s.cron.Stop()
	s.cancel()
	<-stopCtx.Done()
	s.wg.Wait()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// TriggerNow runs a sweep immediately on the caller's goroutine. It returns
// false when a sweep is already in progress.
func (s *Service) TriggerNow() bool {
	return s.execute()
}

// IsRunning reports whether the cron loop is active
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastRun returns the completion time and error text of the last sweep
func (s *Service) LastRun() (*time.Time, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastError
}

func (s *Service) runScheduledSweep() {
	s.execute()
}

// execute wraps a sweep with the overlap guard, panic recovery and status tracking
func (s *Service) execute() (ran bool) {
	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous sweep still running, skipping this cycle")
		return false
	}
	s.isProcessing = true
	s.wg.Add(1)
	s.mu.Unlock()

	start := time.Now()
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			s.logger.Error().Str("panic", fmt.Sprintf("%v", r)).Msg("PANIC RECOVERED in scheduled sweep")
		}

		finished := time.Now()
		s.mu.Lock()
		s.isProcessing = false
		s.lastRun = &finished
		s.lastError = ""
		if err != nil {
			s.lastError = err.Error()
		}
		s.mu.Unlock()
		s.wg.Done()
		ran = true
	}()

	s.logger.Info().Msg("Scheduled sweep started")

	err = s.sweep(s.ctx)
	if err != nil {
		s.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("Scheduled sweep failed")
	} else {
		s.logger.Info().Dur("duration", time.Since(start)).Msg("Scheduled sweep completed")
	}
	return true
}
