package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"canteen/internal/core"
	"canteen/internal/records"
)

// ExpensePublisher announces stored expenses on the event bus.
type ExpensePublisher interface {
	PublishExpenseCreated(ctx context.Context, e core.Expense) error
}

// ExpenseService orchestrates record operations across the store and AMQP
type ExpenseService struct {
	store     records.Store
	publisher ExpensePublisher
	now       func() time.Time
}

// NewExpenseService wires the service. publisher may be nil.
func NewExpenseService(store records.Store, publisher ExpensePublisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// CreateExpense saves an expense and publishes an expense.created event.
// Publishing is best-effort: the expense is stored either way.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	saved, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseCreated(ctx, saved); err != nil {
			slog.ErrorContext(ctx, "Failed to publish expense created message",
				"id", saved.ID, "error", err)
		}
	}

	return saved, nil
}

// ListExpenses returns the filtered expenses, most recent date first.
func (s *ExpenseService) ListExpenses(ctx context.Context, f core.ExpenseFilter) ([]core.Expense, error) {
	all, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return f.Apply(all), nil
}

func (s *ExpenseService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	saved, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	return saved, nil
}

// ListTransactions returns transactions dated in [from, to).
func (s *ExpenseService) ListTransactions(ctx context.Context, from, to time.Time) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactionsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Dashboard builds the rolling expense totals relative to the current time.
func (s *ExpenseService) Dashboard(ctx context.Context) (core.DashboardOverview, error) {
	all, err := s.store.ListExpenses(ctx)
	if err != nil {
		return core.DashboardOverview{}, fmt.Errorf("list expenses: %w", err)
	}
	return core.BuildDashboardOverview(all, s.now()), nil
}

// LastReport returns the most recent report log, found=false before the first run.
func (s *ExpenseService) LastReport(ctx context.Context) (core.ReportLog, bool, error) {
	l, found, err := s.store.LatestReportLog(ctx)
	if err != nil {
		return core.ReportLog{}, false, fmt.Errorf("latest report log: %w", err)
	}
	return l, found, nil
}
