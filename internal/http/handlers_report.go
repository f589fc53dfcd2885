package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"canteen/internal/core"
	"canteen/internal/log"
	"canteen/internal/services"
)

// handleDailyReport is the manual trigger and the target of the scheduler's
// self-call. It runs ReportService directly; the shared secret is checked
// before anything is read or sent.
func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		MethodNotAllowedError("GET, POST").Write(w)
		return
	}

	ctx := r.Context()
	logger := log.FromContext(ctx)

	if !authorized(r, s.cronSecret) {
		atomic.AddInt64(&s.appMetrics.unauthorizedTriggers, 1)
		logger.WarnContext(ctx, "Unauthorized report trigger",
			log.FieldComponent, log.ComponentReport,
			log.FieldErrorType, log.ErrorTypeAuth,
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldUserAgent, r.Header.Get("User-Agent"))
		NewJSONResponse().
			Status(http.StatusUnauthorized).
			Body(services.TriggerResponse{Error: "Unauthorized"}).
			Write(w)
		return
	}

	if s.reports == nil {
		InternalServerError("Report runner not configured").Write(w)
		return
	}

	// A caller hanging up must not abort a run that may already have sent.
	res := s.reports.Run(context.WithoutCancel(ctx))

	atomic.AddInt64(&s.appMetrics.reportRuns, 1)
	status := http.StatusOK
	if !res.Success {
		atomic.AddInt64(&s.appMetrics.reportFailures, 1)
		status = http.StatusInternalServerError
	}

	logger.InfoContext(ctx, "Report trigger handled",
		log.FieldComponent, log.ComponentReport,
		log.FieldOperation, log.OpTrigger,
		log.FieldRunID, res.RunID,
		log.FieldSuccess, res.Success)

	NewJSONResponse().
		Status(status).
		Body(services.NewTriggerResponse(res, time.Now())).
		Write(w)
}

func (s *Server) handleLastReportStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	last, found, err := s.expenses.LastReport(r.Context())
	if err != nil {
		s.structured.LogError(r.Context(), "Failed to fetch last report status", err,
			log.ErrorTypeDatabase, log.ComponentReport, log.OpRead)
		NewJSONResponse().
			Status(http.StatusInternalServerError).
			Body(MessageBody{Error: "Failed to fetch status"}).
			Write(w)
		return
	}
	if !found {
		NewJSONResponse().Body(MessageBody{Message: "No report has been sent yet."}).Write(w)
		return
	}

	NewJSONResponse().Body(last).Write(w)
}

// handleReportSummary computes a day's summary without sending it. The day
// defaults to yesterday in the reference timezone.
func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	if s.aggregator == nil {
		InternalServerError("Aggregator not configured").Write(w)
		return
	}

	var (
		summary core.DailySummary
		err     error
	)
	if v := strings.TrimSpace(r.URL.Query().Get("date")); v != "" {
		day, perr := time.ParseInLocation(time.DateOnly, v, s.location())
		if perr != nil {
			BadRequestError("Invalid date, expected YYYY-MM-DD", perr).Write(w)
			return
		}
		summary, err = s.aggregator.Summarize(r.Context(), day)
	} else {
		summary, err = s.aggregator.SummarizeYesterday(r.Context(), time.Now())
	}

	if err != nil {
		s.structured.LogError(r.Context(), "Failed to summarize day", err,
			log.ErrorTypeDatabase, log.ComponentReport, log.OpAggregate)
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrStoreUnavailable) {
			status = http.StatusServiceUnavailable
		}
		ErrorResponse(status, "Failed to summarize day", err).Write(w)
		return
	}

	NewJSONResponse().Body(summary).Write(w)
}
