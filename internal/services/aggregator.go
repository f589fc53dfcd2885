package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"canteen/internal/core"
	"canteen/internal/records"
)

// ErrStoreUnavailable wraps every read failure of the record store during
// aggregation. No partial summary is returned alongside it.
var ErrStoreUnavailable = errors.New("record store unavailable")

// Aggregator projects one calendar day of records into a DailySummary.
// It never writes.
type Aggregator struct {
	expenses     records.ExpenseReader
	transactions records.TransactionReader
	loc          *time.Location
}

// NewAggregator builds an aggregator whose days are calendar days in loc.
// A nil loc means UTC.
func NewAggregator(expenses records.ExpenseReader, transactions records.TransactionReader, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{
		expenses:     expenses,
		transactions: transactions,
		loc:          loc,
	}
}

// Location returns the reference timezone.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// Summarize totals the records of the calendar day containing day.
// Transactions typed "expense" are not counted: expenses come only from
// the expense collection.
func (a *Aggregator) Summarize(ctx context.Context, day time.Time) (core.DailySummary, error) {
	w := core.NewDayWindow(day, a.loc)

	expenses, err := a.expenses.ListExpensesBetween(ctx, w.Start, w.End)
	if err != nil {
		return core.DailySummary{}, fmt.Errorf("%w: read expenses: %w", ErrStoreUnavailable, err)
	}

	txs, err := a.transactions.ListTransactionsBetween(ctx, w.Start, w.End)
	if err != nil {
		return core.DailySummary{}, fmt.Errorf("%w: read transactions: %w", ErrStoreUnavailable, err)
	}

	s := core.DailySummary{
		ReportDate:     w.Start,
		TotalSales:     core.Zero,
		TotalExpenses:  core.Zero,
		TotalPurchases: core.Zero,
	}

	for _, e := range expenses {
		s.TotalExpenses = s.TotalExpenses.Add(e.Amount)
	}

	for _, t := range txs {
		switch t.Type {
		case core.Sale:
			s.TotalSales = s.TotalSales.Add(t.TotalAmount)
			s.SalesCount++
		case core.Purchase:
			s.TotalPurchases = s.TotalPurchases.Add(t.TotalAmount)
		}
	}

	s.ComputeNetProfit()
	return s, nil
}

// SummarizeYesterday totals the day before now in the reference timezone.
func (a *Aggregator) SummarizeYesterday(ctx context.Context, now time.Time) (core.DailySummary, error) {
	return a.Summarize(ctx, core.YesterdayWindow(now, a.loc).Start)
}
