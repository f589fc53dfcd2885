package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"canteen/internal/core"
	"canteen/internal/records/memory"
)

// fakeClock hands the scheduler a controllable timer channel and records
// every wait it asks for.
type fakeClock struct {
	now    time.Time
	waits  chan time.Duration
	fireCh chan time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{
		now:    now,
		waits:  make(chan time.Duration, 10),
		fireCh: make(chan time.Time),
	}
}

func (c *fakeClock) install(s *Scheduler) {
	s.now = func() time.Time { return c.now }
	s.after = func(d time.Duration) <-chan time.Time {
		c.waits <- d
		return c.fireCh
	}
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for scheduler")
	}
	var zero T
	return zero
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in        string
		hour, min int
		wantErr   bool
	}{
		{"00:01", 0, 1, false},
		{"23:59", 23, 59, false},
		{" 7:05 ", 7, 5, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"1201", 0, 0, true},
		{"ab:cd", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := ParseClock(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && (h != tt.hour || m != tt.min) {
				t.Errorf("ParseClock(%q) = %d:%d, want %d:%d", tt.in, h, m, tt.hour, tt.min)
			}
		})
	}
}

func TestNextFire(t *testing.T) {
	loc := mustLoad(t, "Asia/Kolkata")

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2025, 3, 10, 0, 0, 30, 0, loc),
			want: time.Date(2025, 3, 10, 0, 1, 0, 0, loc),
		},
		{
			name: "exactly at fire time moves to tomorrow",
			now:  time.Date(2025, 3, 10, 0, 1, 0, 0, loc),
			want: time.Date(2025, 3, 11, 0, 1, 0, 0, loc),
		},
		{
			name: "afternoon",
			now:  time.Date(2025, 3, 10, 15, 0, 0, 0, loc),
			want: time.Date(2025, 3, 11, 0, 1, 0, 0, loc),
		},
		{
			name: "now given in UTC",
			now:  time.Date(2025, 3, 9, 18, 0, 0, 0, time.UTC), // 23:30 IST
			want: time.Date(2025, 3, 10, 0, 1, 0, 0, loc),
		},
		{
			name: "month rollover",
			now:  time.Date(2025, 1, 31, 12, 0, 0, 0, loc),
			want: time.Date(2025, 2, 1, 0, 1, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextFire(tt.now, 0, 1, loc)
			if !got.Equal(tt.want) {
				t.Errorf("NextFire(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestScheduler_DisabledStaysIdle(t *testing.T) {
	runner := newCountingRunner()
	s, err := NewScheduler(runner, SchedulerConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if s.State() != StateIdle {
		t.Errorf("State() = %v, want idle", s.State())
	}
	if !s.NextRun().IsZero() {
		t.Errorf("NextRun() = %v, want zero", s.NextRun())
	}
	if runner.Calls() != 0 {
		t.Errorf("runner called %d times", runner.Calls())
	}
}

func TestScheduler_FiresOncePerDay(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	clock := newFakeClock(now)
	runner := newCountingRunner()

	s, err := NewScheduler(runner, SchedulerConfig{Enabled: true, At: "00:01", Location: time.UTC})
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	clock.install(s)

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop(ctx)

	if d := waitFor(t, clock.waits); d != time.Minute {
		t.Errorf("first wait = %v, want 1m", d)
	}
	if s.State() != StateArmed {
		t.Errorf("State() = %v, want armed", s.State())
	}

	// Fire: the clock now reads the fire time, so the next wait is a full day.
	clock.now = now.Add(time.Minute)
	clock.fireCh <- clock.now
	waitFor(t, runner.ran)

	if d := waitFor(t, clock.waits); d != 24*time.Hour {
		t.Errorf("wait after run = %v, want 24h", d)
	}
	if runner.Calls() != 1 {
		t.Errorf("runner called %d times, want 1", runner.Calls())
	}
	if want := time.Date(2025, 3, 11, 0, 1, 0, 0, time.UTC); !s.NextRun().Equal(want) {
		t.Errorf("NextRun() = %v, want %v", s.NextRun(), want)
	}
}

func TestScheduler_StartTwice(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	s, err := NewScheduler(newCountingRunner(), SchedulerConfig{Enabled: true})
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	clock.install(s)

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	defer s.Stop(ctx)
	waitFor(t, clock.waits)

	if err := s.Start(ctx); !errors.Is(err, ErrSchedulerAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrSchedulerAlreadyStarted", err)
	}
	select {
	case d := <-clock.waits:
		t.Errorf("second Start() armed another timer (%v)", d)
	default:
	}
}

func TestScheduler_StopIdempotent(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	s, err := NewScheduler(newCountingRunner(), SchedulerConfig{Enabled: true})
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	clock.install(s)

	ctx := context.Background()
	if err := s.Stop(ctx); err != nil {
		t.Errorf("Stop() before Start() error = %v", err)
	}

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, clock.waits)

	for i := 0; i < 2; i++ {
		if err := s.Stop(ctx); err != nil {
			t.Errorf("Stop() #%d error = %v", i+1, err)
		}
	}
	if s.State() != StateIdle {
		t.Errorf("State() after Stop = %v, want idle", s.State())
	}

	// A stopped scheduler can be armed again.
	if err := s.Start(ctx); err != nil {
		t.Errorf("Start() after Stop error = %v", err)
	}
	waitFor(t, clock.waits)
	s.Stop(ctx)
}

func TestScheduler_TriggerNow(t *testing.T) {
	runner := newCountingRunner()
	s, err := NewScheduler(runner, DefaultSchedulerConfig())
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	res := s.TriggerNow(context.Background())
	if !res.Success {
		t.Errorf("TriggerNow() = %+v", res)
	}
	if runner.Calls() != 1 {
		t.Errorf("runner called %d times, want 1", runner.Calls())
	}
	if s.State() != StateIdle {
		t.Errorf("TriggerNow() changed state to %v", s.State())
	}
}

func TestNewScheduler_InvalidTime(t *testing.T) {
	if _, err := NewScheduler(newCountingRunner(), SchedulerConfig{At: "25:00"}); err == nil {
		t.Error("NewScheduler() expected error for 25:00")
	}
}

func TestScheduler_InFlightRunOutlivesStartContext(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	clock := newFakeClock(now)
	runner := newBlockingRunner()

	s, err := NewScheduler(runner, SchedulerConfig{Enabled: true, At: "00:01", Location: time.UTC})
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	clock.install(s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, clock.waits)

	clock.now = now.Add(time.Minute)
	clock.fireCh <- clock.now
	waitFor(t, runner.started)

	// Shutdown cancels the Start context while the run is still going.
	cancel()
	close(runner.release)

	if err := waitFor(t, runner.done); err != nil {
		t.Errorf("run context error = %v, want nil", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if s.State() != StateIdle {
		t.Errorf("State() after Stop = %v, want idle", s.State())
	}
}

func TestScheduler_TimerAndManualRunsAgree(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	fireAt := time.Date(2025, 3, 11, 0, 1, 0, 0, time.UTC)

	store := memory.New()
	seed(t, store,
		[]core.Expense{{Category: "utilities", Description: "gas", Amount: core.MustParseMoney("2500"), Date: day.Add(time.Hour)}},
		[]core.Transaction{
			{Type: core.Sale, TotalAmount: core.MustParseMoney("6000"), Date: day.Add(2 * time.Hour)},
			{Type: core.Sale, TotalAmount: core.MustParseMoney("4000"), Date: day.Add(5 * time.Hour)},
			{Type: core.Purchase, TotalAmount: core.MustParseMoney("3000"), Date: day.Add(3 * time.Hour)},
		},
	)

	notifier := newSignallingNotifier()
	reports := newTestReportService(t, store, notifier, nil, fireAt)

	clock := newFakeClock(fireAt.Add(-time.Minute))
	s, err := NewScheduler(reports, SchedulerConfig{Enabled: true, At: "00:01", Location: time.UTC})
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	clock.install(s)

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop(ctx)
	waitFor(t, clock.waits)

	clock.now = fireAt
	clock.fireCh <- fireAt
	timed := waitFor(t, notifier.sent)

	manual := s.TriggerNow(ctx)
	waitFor(t, notifier.sent)
	if !manual.Success {
		t.Fatalf("TriggerNow() = %+v, want success", manual)
	}

	// The HTTP endpoint calls ReportService.Run directly.
	direct := reports.Run(ctx)
	waitFor(t, notifier.sent)

	for name, got := range map[string]core.DailySummary{"TriggerNow": manual.Summary, "ReportService.Run": direct.Summary} {
		if !sameSummary(timed, got) {
			t.Errorf("%s summary = %+v, timer summary = %+v", name, got, timed)
		}
	}
	if !timed.NetProfit.Equal(core.MustParseMoney("4500")) || timed.SalesCount != 2 {
		t.Errorf("timer summary = %+v, want net profit 4500 from 2 sales", timed)
	}
	if n := len(store.ReportLogs()); n != 3 {
		t.Errorf("report logs = %d, want 3", n)
	}
}
