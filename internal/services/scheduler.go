package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"canteen/internal/log"
)

var ErrSchedulerAlreadyStarted = errors.New("scheduler already started")

type SchedulerState int32

const (
	StateIdle SchedulerState = iota
	StateArmed
	StateRunning
	StateCooldown
)

func (s SchedulerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateRunning:
		return "running"
	case StateCooldown:
		return "cooldown"
	}
	return "unknown"
}

// Runner executes one report run. ReportService runs in-process;
// HTTPTrigger goes through the report endpoint.
type Runner interface {
	Run(ctx context.Context) RunResult
}

type SchedulerConfig struct {
	// Enabled gates Start. A disabled scheduler stays idle.
	Enabled bool

	// At is the daily wall-clock fire time, "HH:MM" (default: 00:01).
	At string

	// Location is the reference timezone for At (default: UTC).
	Location *time.Location
}

// DefaultSchedulerConfig returns the disabled 00:01 UTC schedule
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		At:       "00:01",
		Location: time.UTC,
	}
}

// Scheduler fires the daily report once per calendar day at a fixed local
// time. Runs are never retried; the next fire is always the following day.
type Scheduler struct {
	runner Runner
	config SchedulerConfig
	hour   int
	minute int

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	mu     sync.Mutex
	state  SchedulerState
	next   time.Time
	stopCh chan struct{}
	doneCh chan struct{}
}

func NewScheduler(runner Runner, config SchedulerConfig) (*Scheduler, error) {
	if config.At == "" {
		config.At = "00:01"
	}
	if config.Location == nil {
		config.Location = time.UTC
	}

	hour, minute, err := ParseClock(config.At)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		runner: runner,
		config: config,
		hour:   hour,
		minute: minute,
		now:    time.Now,
		after:  time.After,
	}, nil
}

// ParseClock parses "HH:MM" on a 24h clock.
func ParseClock(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid clock time %q: want HH:MM", s)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// NextFire returns the first instant strictly after now whose wall clock in
// loc reads hour:minute.
func NextFire(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(now) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

// Start arms the timer. It is a no-op when the scheduler is disabled and
// returns ErrSchedulerAlreadyStarted if it is already armed.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		slog.InfoContext(ctx, "Report scheduler disabled, set ENABLE_CRON=true to enable")
		return nil
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrSchedulerAlreadyStarted
	}
	s.state = StateArmed
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	go s.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Report scheduler started",
		log.FieldComponent, log.ComponentScheduler,
		"at", s.config.At,
		"timezone", s.config.Location.String())

	return nil
}

// Stop disarms the timer and waits for an in-flight run to finish. The run
// itself is not cancelled, so ctx only bounds how long Stop waits.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateIdle || s.stopCh == nil {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.stopCh = nil
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Report scheduler stopped")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Report scheduler stop timed out")
		return ctx.Err()
	}

	return nil
}

// TriggerNow runs a report immediately in the caller's goroutine,
// independent of the timer. The HTTP trigger endpoint does not go through
// here: it runs ReportService directly, because the timer's runner may be
// an HTTPTrigger calling that same endpoint.
func (s *Scheduler) TriggerNow(ctx context.Context) RunResult {
	slog.InfoContext(ctx, "Manual report trigger")
	return s.runner.Run(ctx)
}

func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NextRun returns the next scheduled fire time, zero when not armed.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return time.Time{}
	}
	return s.next
}

func (s *Scheduler) setState(st SchedulerState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Scheduler) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer func() {
		s.setState(StateIdle)
		close(doneCh)
	}()

	for {
		now := s.now()
		next := NextFire(now, s.hour, s.minute, s.config.Location)

		s.mu.Lock()
		s.next = next
		s.state = StateArmed
		s.mu.Unlock()

		slog.DebugContext(ctx, "Report scheduler armed", log.FieldNextRun, next.Format(time.RFC3339))

		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-s.after(next.Sub(now)):
			select {
			case <-stopCh:
				return
			default:
			}
			s.fire(ctx)
		}
	}
}

// fire runs one report. Cancelling the Start context stops the timer but
// never a run that has already begun.
func (s *Scheduler) fire(ctx context.Context) {
	s.setState(StateRunning)
	res := s.runner.Run(context.WithoutCancel(ctx))
	s.setState(StateCooldown)

	if res.Success {
		slog.InfoContext(ctx, "Scheduled report completed", log.FieldRunID, res.RunID)
	} else {
		slog.ErrorContext(ctx, "Scheduled report failed", log.FieldRunID, res.RunID, "error", res.Err)
	}
}
