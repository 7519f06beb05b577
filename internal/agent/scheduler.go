package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler runs fn once after d. Scheduled work is fire-and-forget: it is
// never cancelled and never retried.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// TimerScheduler schedules work on runtime timers and counts what is still
// pending so shutdown can give it a moment to finish. Work scheduled while
// Wait is blocked is waited for too.
type TimerScheduler struct {
	mu      sync.Mutex
	pending int
	idle    chan struct{} // closed when pending drops to zero; nil when nobody waits
	logger  *slog.Logger
}

func NewTimerScheduler(logger *slog.Logger) *TimerScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimerScheduler{logger: logger}
}

func (s *TimerScheduler) After(d time.Duration, fn func()) {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()

	time.AfterFunc(d, func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("delayed dispatch panicked", "panic", r)
			}
			s.done()
		}()
		fn()
	})
}

func (s *TimerScheduler) done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if s.pending == 0 && s.idle != nil {
		close(s.idle)
		s.idle = nil
	}
}

// Pending returns the number of scheduled functions that have not finished.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Wait blocks until all scheduled work has run or ctx is done. Work still
// pending when ctx ends is dropped with the process.
func (s *TimerScheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	if s.pending == 0 {
		s.mu.Unlock()
		return nil
	}
	if s.idle == nil {
		s.idle = make(chan struct{})
	}
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		s.logger.Warn("dropping delayed dispatches", "pending", s.Pending())
		return ctx.Err()
	}
}
