// Package worker holds the message handlers run by cmd/report-archiver.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"canteen/internal/amqp"
	"canteen/internal/cache"
	"canteen/internal/log"
)

// ReportAppender stores one finished run and returns a reference to it.
type ReportAppender interface {
	AppendReport(ctx context.Context, msg *amqp.ReportCompletedMessage) (string, error)
}

// ReportArchiver copies report.completed events into the archive. Deliveries
// are at-least-once, so recently archived run IDs are remembered and
// duplicates acknowledged without a second append.
type ReportArchiver struct {
	appender ReportAppender
	seen     *cache.LRU[string]
	logger   *slog.Logger
}

// Seen returns the cache of archived run IDs so a cache.Janitor can purge it.
func (w *ReportArchiver) Seen() *cache.LRU[string] {
	return w.seen
}

func NewReportArchiver(appender ReportAppender, logger *log.Logger) *ReportArchiver {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ReportArchiver{
		appender: appender,
		seen:     cache.NewLRU[string](1024, 48*time.Hour),
		logger:   logger.WithComponent(log.ComponentArchiver).Logger,
	}
}

// HandleReportCompleted archives a single run. A returned error makes the
// consumer requeue the delivery.
func (w *ReportArchiver) HandleReportCompleted(ctx context.Context, msg *amqp.ReportCompletedMessage) error {
	if msg == nil || msg.RunID == "" {
		return errors.New("report message without run id")
	}

	logger := w.logger.With(
		log.FieldRunID, msg.RunID,
		log.FieldReportDate, msg.ReportDate,
		log.FieldSuccess, msg.Success)

	if ref, ok := w.seen.Get(msg.RunID); ok {
		logger.InfoContext(ctx, "Report already archived, skipping duplicate", "sheets_ref", ref)
		return nil
	}

	ref, err := w.appender.AppendReport(ctx, msg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to archive report",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeNetwork)
		return fmt.Errorf("archive report %s: %w", msg.RunID, err)
	}
	w.seen.Put(msg.RunID, ref)

	logger.InfoContext(ctx, "Report archived",
		"sheets_ref", ref,
		log.FieldMessageID, msg.MessageID,
		"net_profit", msg.NetProfit.Fixed())
	return nil
}
