package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"canteen/internal/amqp"
	"canteen/internal/core"
	"canteen/internal/log"
	"canteen/internal/records"
)

const reportSentMessage = "Daily report sent successfully via template"

// Notifier delivers a summary to a recipient. Failures are carried in the
// result, never returned.
type Notifier interface {
	Notify(ctx context.Context, recipient string, s core.DailySummary) core.NotifyResult
}

// ReportPublisher announces finished runs on the event bus.
type ReportPublisher interface {
	PublishReportCompleted(ctx context.Context, msg *amqp.ReportCompletedMessage) error
}

// RunResult is the outcome of one report run. Summary is only meaningful
// when Summarized is true.
type RunResult struct {
	RunID      string
	ReportDate time.Time
	Success    bool
	Summarized bool
	Summary    core.DailySummary
	MessageID  string
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// ReportService runs the aggregate, notify, log pipeline.
type ReportService struct {
	aggregator *Aggregator
	notifier   Notifier
	logs       records.ReportLogWriter
	publisher  ReportPublisher
	recipient  string
	now        func() time.Time
}

// NewReportService wires the pipeline. publisher may be nil.
func NewReportService(aggregator *Aggregator, notifier Notifier, logs records.ReportLogWriter, publisher ReportPublisher, recipient string) *ReportService {
	return &ReportService{
		aggregator: aggregator,
		notifier:   notifier,
		logs:       logs,
		publisher:  publisher,
		recipient:  recipient,
		now:        time.Now,
	}
}

// Run sends the report for the day before the current moment. Every
// failure is folded into the result; a ReportLog entry is written best-effort.
func (s *ReportService) Run(ctx context.Context) RunResult {
	res := RunResult{RunID: core.NewID(), StartedAt: s.now()}
	res.ReportDate = core.YesterdayWindow(res.StartedAt, s.aggregator.Location()).Start
	logger := slog.With(log.FieldComponent, log.ComponentReport,
		log.FieldRunID, res.RunID,
		log.FieldReportDate, res.ReportDate.Format(time.DateOnly))

	logger.InfoContext(ctx, "Daily report run started")

	summary, err := s.aggregator.Summarize(ctx, res.ReportDate)
	if err != nil {
		res.Err = err
	} else {
		res.Summarized = true
		res.Summary = summary

		sent := s.notifier.Notify(ctx, s.recipient, summary)
		res.Success = sent.Success
		res.MessageID = sent.MessageID
		if !sent.Success {
			res.Err = sent.Err
			if res.Err == nil {
				res.Err = errors.New("notification failed")
			}
			res.Err = fmt.Errorf("send daily report: %w", res.Err)
		}
	}
	res.FinishedAt = s.now()

	s.writeLog(ctx, logger, res)
	s.publish(ctx, logger, res)

	if res.Success {
		logger.InfoContext(ctx, "Daily report run succeeded",
			log.FieldMessageID, res.MessageID,
			"total_sales", res.Summary.TotalSales.Fixed(),
			"total_expenses", res.Summary.TotalExpenses.Fixed(),
			"net_profit", res.Summary.NetProfit.Fixed(),
			"duration_ms", res.FinishedAt.Sub(res.StartedAt).Milliseconds())
	} else {
		logger.ErrorContext(ctx, "Daily report run failed",
			"error", res.Err,
			"summarized", res.Summarized)
	}

	return res
}

func (s *ReportService) writeLog(ctx context.Context, logger *slog.Logger, res RunResult) {
	if s.logs == nil {
		return
	}

	entry := core.ReportLog{Status: core.ReportSuccess, Message: reportSentMessage, SentAt: res.FinishedAt}
	if !res.Success {
		entry.Status = core.ReportFailure
		entry.Message = res.Err.Error()
	}

	if _, err := s.logs.AppendReportLog(ctx, entry); err != nil {
		logger.ErrorContext(ctx, "Failed to write report log", "error", err)
	}
}

func (s *ReportService) publish(ctx context.Context, logger *slog.Logger, res RunResult) {
	if s.publisher == nil {
		return
	}

	msg := &amqp.ReportCompletedMessage{
		RunID:          res.RunID,
		ReportDate:     res.ReportDate.Format(time.DateOnly),
		Success:        res.Success,
		TotalSales:     res.Summary.TotalSales,
		TotalExpenses:  res.Summary.TotalExpenses,
		TotalPurchases: res.Summary.TotalPurchases,
		NetProfit:      res.Summary.NetProfit,
		SalesCount:     res.Summary.SalesCount,
		MessageID:      res.MessageID,
		Timestamp:      res.FinishedAt,
	}
	if res.Err != nil {
		msg.Error = res.Err.Error()
	}

	if err := s.publisher.PublishReportCompleted(ctx, msg); err != nil {
		logger.WarnContext(ctx, "Failed to publish report completed message", "error", err)
	}
}
