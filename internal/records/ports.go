// Package records defines the ports of the record store: expenses,
// sales/purchase transactions and report logs.
package records

import (
	"context"
	"time"

	"canteen/internal/core"
)

// Ports for outbound adapters.
type (
	ExpenseWriter interface {
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	}

	// ExpenseReader returns expenses whose date lies in [from, to).
	ExpenseReader interface {
		ListExpensesBetween(ctx context.Context, from, to time.Time) ([]core.Expense, error)
	}

	// ExpenseLister returns every expense, most recent date first.
	ExpenseLister interface {
		ListExpenses(ctx context.Context) ([]core.Expense, error)
	}

	TransactionWriter interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	}

	// TransactionReader returns transactions whose date lies in [from, to).
	TransactionReader interface {
		ListTransactionsBetween(ctx context.Context, from, to time.Time) ([]core.Transaction, error)
	}

	ReportLogWriter interface {
		AppendReportLog(ctx context.Context, l core.ReportLog) (core.ReportLog, error)
	}

	// ReportLogReader returns the most recent log entry by SentAt.
	// found is false when no run has been logged yet.
	ReportLogReader interface {
		LatestReportLog(ctx context.Context) (l core.ReportLog, found bool, err error)
	}

	// Store is the full record store used by the server.
	Store interface {
		ExpenseWriter
		ExpenseReader
		ExpenseLister
		TransactionWriter
		TransactionReader
		ReportLogWriter
		ReportLogReader
	}
)
