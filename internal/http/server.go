package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"canteen/internal/log"
	"canteen/internal/middleware/ratelimit"
	"canteen/internal/middleware/security"
	"canteen/internal/middleware/trace"
	"canteen/internal/services"
)

// Pinger reports store readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the API server.
type Deps struct {
	Expenses   *services.ExpenseService
	Aggregator *services.Aggregator
	// Reports runs the daily report in-process for the trigger endpoint.
	Reports services.Runner
	// Pinger is optional; readiness reports "not_configured" without it.
	Pinger Pinger
	// CronSecret guards the trigger endpoint when non-empty.
	CronSecret string
	Logger     *log.Logger
	// TrustedProxies extends the networks allowed to set forwarding headers.
	TrustedProxies []string
}

type appMetrics struct {
	uptime               time.Time
	expensesCreated      int64
	transactionsCreated  int64
	reportRuns           int64
	reportFailures       int64
	unauthorizedTriggers int64
}

// Server is the canteen JSON API.
type Server struct {
	http.Server
	expenses    *services.ExpenseService
	aggregator  *services.Aggregator
	reports     services.Runner
	pinger      Pinger
	cronSecret  string
	logger      *log.Logger
	structured  *log.StructuredLogger
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware
	appMetrics  appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector, err := security.NewDetector(deps.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      2 * time.Minute,
			IdleTimeout:       2 * time.Minute,
		},
		expenses:    deps.Expenses,
		aggregator:  deps.Aggregator,
		reports:     deps.Reports,
		pinger:      deps.Pinger,
		cronSecret:  deps.CronSecret,
		logger:      logger,
		structured:  log.NewStructuredLogger(logger),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:    detector,
		appMetrics:  appMetrics{uptime: time.Now()},
	}
	s.tracer = trace.NewMiddleware(detector.ExtractClientIP, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc(services.ReportPath, s.handleDailyReport)
	mux.HandleFunc("/api/last-report-status", s.handleLastReportStatus)
	mux.HandleFunc("/api/reports/summary", s.handleReportSummary)

	mux.HandleFunc("/api/expenses", s.handleExpenses)
	mux.HandleFunc("/api/expense-categories", s.handleCategories)
	mux.HandleFunc("/api/dashboard", s.handleDashboard)
	mux.HandleFunc("/api/transactions", s.handleTransactions)

	s.Handler = s.middleware(mux)
	return s, nil
}

// middleware wraps h, outermost first: security headers, tracing, request
// logger, probe detection, write rate limiting.
func (s *Server) middleware(h http.Handler) http.Handler {
	h = s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(h)
	h = s.detector.Middleware(h)
	h = log.RequestIDMiddleware(trace.RequestID)(h)
	h = log.Middleware(s.logger)(h)
	h = s.tracer.Middleware(h)
	return security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldComponent, log.ComponentRateLimit,
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil).Write(w)
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
