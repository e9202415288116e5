package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// SweepFunc removes expired records and reports how many were deleted.
type SweepFunc func(ctx context.Context) (int64, error)

// Target is a named cleanup run by the sweeper.
type Target struct {
	Name  string
	Sweep SweepFunc
}

// SweepResult is the outcome of one target in a sweep run.
type SweepResult struct {
	Name    string
	Deleted int64
	Err     error
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule checks a cron expression in standard five-field form.
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("schedule is empty")
	}
	_, err := parser.Parse(schedule)
	return err
}

// SessionSweepScheduler periodically deletes expired sessions and provider tokens.
type SessionSweepScheduler struct {
	schedule string
	targets  []Target
	timeout  time.Duration

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewSessionSweepScheduler creates a scheduler for the given cron schedule.
func NewSessionSweepScheduler(schedule string, targets ...Target) *SessionSweepScheduler {
	return &SessionSweepScheduler{
		schedule: schedule,
		targets:  targets,
		timeout:  time.Minute,
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start schedules the sweep job. It stops on its own when ctx is cancelled.
func (s *SessionSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.RunNow(runCtx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("[SESSION] Sweep scheduler started with schedule '%s'. Next run: %v",
		s.schedule, s.cron.Entry(entryID).Next)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running sweep to finish and stops the scheduler.
func (s *SessionSweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)

	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("[SESSION] Sweep scheduler stopped")
}

// IsRunning returns whether the scheduler is active
func (s *SessionSweepScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next sweep will occur, or nil when stopped.
func (s *SessionSweepScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}

// RunNow sweeps every target once. A failing target does not stop the others.
func (s *SessionSweepScheduler) RunNow(ctx context.Context) []SweepResult {
	return Sweep(ctx, s.targets...)
}

// Sweep runs each target in order and logs the outcome.
func Sweep(ctx context.Context, targets ...Target) []SweepResult {
	results := make([]SweepResult, 0, len(targets))
	for _, t := range targets {
		deleted, err := t.Sweep(ctx)
		if err != nil {
			log.Printf("[SESSION] Sweep %s failed: %v", t.Name, err)
		} else if deleted > 0 {
			log.Printf("[SESSION] Sweep %s: deleted %d expired records", t.Name, deleted)
		}
		results = append(results, SweepResult{Name: t.Name, Deleted: deleted, Err: err})
	}
	return results
}
