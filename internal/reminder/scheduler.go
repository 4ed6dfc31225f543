package reminder

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner is the unit of work a Scheduler drives.
type Runner interface {
	Run(ctx context.Context) Report
}

// Status is a snapshot of the scheduler state.
type Status struct {
	Running  bool
	Sweeping bool
	LastRun  time.Time
	Last     Report
	Skipped  int
}

// Scheduler runs a sweep on a cron schedule from a single background
// goroutine. At most one sweep executes at any time; triggers arriving
// while one is in flight are skipped.
type Scheduler struct {
	runner     Runner
	schedule   cron.Schedule
	runOnStart bool
	log        *slog.Logger

	sweeping atomic.Bool

	mu        sync.Mutex
	running   bool
	ctxDone   <-chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
	triggerCh chan struct{}
	lastRun   time.Time
	last      Report
	skipped   int
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithRunOnStart makes Start run one sweep immediately.
func WithRunOnStart(on bool) SchedulerOption {
	return func(s *Scheduler) { s.runOnStart = on }
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.log = l }
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(r Runner, schedule cron.Schedule, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		runner:    r,
		schedule:  schedule,
		log:       slog.Default(),
		triggerCh: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "scheduler")
	return s
}

// Start launches the scheduling goroutine. Calling Start on a running
// scheduler does nothing. Cancelling ctx stops the loop like Stop, but
// never interrupts a sweep that has already begun. If the previous loop's
// context is already cancelled, Start waits for that loop to exit and then
// starts a new one.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.running {
		select {
		case <-s.ctxDone:
			done := s.doneCh
			s.mu.Unlock()
			<-done
			s.mu.Lock()
		default:
			return
		}
	}
	s.running = true
	s.ctxDone = ctx.Done()
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.loop(context.WithoutCancel(ctx), ctx.Done(), s.stopCh, s.doneCh)
}

// Stop halts the scheduling goroutine and waits for an in-flight sweep to
// complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	done := s.doneCh
	s.running = false
	s.mu.Unlock()

	<-done
}

// Trigger requests an immediate sweep. Requests made while one is pending
// are coalesced.
func (s *Scheduler) Trigger() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

// RunOnce runs a sweep synchronously on the caller's goroutine. It returns
// false without running if another sweep is in progress.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, bool) {
	if !s.sweeping.CompareAndSwap(false, true) {
		s.mu.Lock()
		s.skipped++
		s.mu.Unlock()
		s.log.Warn("sweep already in progress, skipping")
		return Report{}, false
	}
	defer s.sweeping.Store(false)

	r := s.runner.Run(ctx)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.last = r
	s.mu.Unlock()

	return r, true
}

// Status returns the current scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		Running:  s.running,
		Sweeping: s.sweeping.Load(),
		LastRun:  s.lastRun,
		Last:     s.last,
		Skipped:  s.skipped,
	}
}

// loop waits for the next scheduled time, a trigger, or a stop signal.
func (s *Scheduler) loop(ctx context.Context, cancelled <-chan struct{}, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	if s.runOnStart {
		s.RunOnce(ctx)
	}

	for {
		now := time.Now()
		next := s.schedule.Next(now)
		if next.IsZero() {
			// The schedule never fires again; only triggers remain.
			next = now.Add(100 * 365 * 24 * time.Hour)
		}
		timer := time.NewTimer(next.Sub(now))
		s.log.Debug("next sweep scheduled", "at", next)

		select {
		case <-stop:
			timer.Stop()
			return
		case <-cancelled:
			timer.Stop()
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return
		case <-timer.C:
			s.RunOnce(ctx)
		case <-s.triggerCh:
			timer.Stop()
			s.RunOnce(ctx)
		}
	}
}
