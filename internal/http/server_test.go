package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"canteen/internal/core"
	"canteen/internal/log"
	"canteen/internal/records/memory"
	"canteen/internal/services"
)

type fakeNotifier struct {
	calls  int64
	result core.NotifyResult
}

func (f *fakeNotifier) Notify(context.Context, string, core.DailySummary) core.NotifyResult {
	atomic.AddInt64(&f.calls, 1)
	return f.result
}

// countingStore counts ranged reads so tests can prove nothing was aggregated.
type countingStore struct {
	*memory.Store
	reads int64
}

func (c *countingStore) ListExpensesBetween(ctx context.Context, from, to time.Time) ([]core.Expense, error) {
	atomic.AddInt64(&c.reads, 1)
	return c.Store.ListExpensesBetween(ctx, from, to)
}

func (c *countingStore) ListTransactionsBetween(ctx context.Context, from, to time.Time) ([]core.Transaction, error) {
	atomic.AddInt64(&c.reads, 1)
	return c.Store.ListTransactionsBetween(ctx, from, to)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }

type harness struct {
	srv      *Server
	store    *countingStore
	notifier *fakeNotifier
}

func newHarness(t *testing.T, secret string) *harness {
	t.Helper()

	store := &countingStore{Store: memory.New()}
	notifier := &fakeNotifier{result: core.NotifyResult{Success: true, MessageID: "wamid.TEST"}}
	agg := services.NewAggregator(store, store, time.UTC)
	reports := services.NewReportService(agg, notifier, store, nil, "919876543210")

	srv, err := NewServer(":0", Deps{
		Expenses:   services.NewExpenseService(store, nil),
		Aggregator: agg,
		Reports:    reports,
		CronSecret: secret,
		Logger:     log.New(log.Config{Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { srv.rateLimiter.Stop() })

	return &harness{srv: srv, store: store, notifier: notifier}
}

func (h *harness) do(method, target string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	h := newHarness(t, "")

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := h.do(http.MethodGet, path, "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s missing security headers", path)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s missing request id", path)
		}
	}
}

func TestReadyReportsStoreFailure(t *testing.T) {
	h := newHarness(t, "")
	h.srv.pinger = failingPinger{}

	rr := h.do(http.MethodGet, "/readyz", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "database is locked") {
		t.Errorf("body missing cause: %s", rr.Body.String())
	}
}

func TestMetricsExposesCounters(t *testing.T) {
	h := newHarness(t, "s3cret")
	h.do(http.MethodPost, "/api/cron/daily-report", "", nil)

	rr := h.do(http.MethodGet, "/metrics", "", nil)
	body := rr.Body.String()
	for _, want := range []string{"http_requests_total 1", "report_unauthorized_total 1", "uptime_seconds"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestRateLimitOnWrites(t *testing.T) {
	h := newHarness(t, "")

	var last int
	for i := 0; i < 61; i++ {
		last = h.do(http.MethodPost, "/api/expenses", "{}", nil).Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("61st POST status=%d, want 429", last)
	}
	if rr := h.do(http.MethodGet, "/api/expenses", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("GET after limit status=%d, want 200", rr.Code)
	}
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&v); err != nil {
		t.Fatalf("decode %T: %v (body %s)", v, err, rr.Body.String())
	}
	return v
}
