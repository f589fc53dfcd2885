package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"canteen/internal/amqp"
	"canteen/internal/core"
)

var errBoom = errors.New("boom")

type failingReader struct{}

func (failingReader) ListExpensesBetween(context.Context, time.Time, time.Time) ([]core.Expense, error) {
	return nil, errBoom
}

func (failingReader) ListTransactionsBetween(context.Context, time.Time, time.Time) ([]core.Transaction, error) {
	return nil, errBoom
}

type failingLogWriter struct{ calls int }

func (f *failingLogWriter) AppendReportLog(context.Context, core.ReportLog) (core.ReportLog, error) {
	f.calls++
	return core.ReportLog{}, errBoom
}

type fakeNotifier struct {
	mu        sync.Mutex
	result    core.NotifyResult
	calls     int
	recipient string
	summary   core.DailySummary
}

func (f *fakeNotifier) Notify(_ context.Context, recipient string, s core.DailySummary) core.NotifyResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.recipient = recipient
	f.summary = s
	return f.result
}

func (f *fakeNotifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePublisher struct {
	msgs []*amqp.ReportCompletedMessage
	err  error
}

func (f *fakePublisher) PublishReportCompleted(_ context.Context, msg *amqp.ReportCompletedMessage) error {
	f.msgs = append(f.msgs, msg)
	return f.err
}

type countingRunner struct {
	mu    sync.Mutex
	calls int
	ran   chan struct{}
}

func newCountingRunner() *countingRunner {
	return &countingRunner{ran: make(chan struct{}, 10)}
}

func (r *countingRunner) Run(context.Context) RunResult {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	r.ran <- struct{}{}
	return RunResult{RunID: "run", Success: true}
}

func (r *countingRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// blockingRunner holds a run open until release is closed and records the
// context error it saw afterwards.
type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	done    chan error
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		done:    make(chan error, 1),
	}
}

func (r *blockingRunner) Run(ctx context.Context) RunResult {
	r.started <- struct{}{}
	<-r.release
	r.done <- ctx.Err()
	return RunResult{RunID: "run", Success: ctx.Err() == nil}
}

// signallingNotifier wraps fakeNotifier and reports every summary it is sent.
type signallingNotifier struct {
	fakeNotifier
	sent chan core.DailySummary
}

func newSignallingNotifier() *signallingNotifier {
	return &signallingNotifier{
		fakeNotifier: fakeNotifier{result: core.NotifyResult{Success: true, MessageID: "wamid.1"}},
		sent:         make(chan core.DailySummary, 10),
	}
}

func (n *signallingNotifier) Notify(ctx context.Context, recipient string, s core.DailySummary) core.NotifyResult {
	res := n.fakeNotifier.Notify(ctx, recipient, s)
	n.sent <- s
	return res
}

func sameSummary(a, b core.DailySummary) bool {
	return a.ReportDate.Equal(b.ReportDate) &&
		a.TotalSales.Equal(b.TotalSales) &&
		a.TotalExpenses.Equal(b.TotalExpenses) &&
		a.TotalPurchases.Equal(b.TotalPurchases) &&
		a.NetProfit.Equal(b.NetProfit) &&
		a.SalesCount == b.SalesCount
}
