package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"canteen/internal/core"
	"canteen/internal/records"

	_ "modernc.org/sqlite"
)

var _ records.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	now     func() time.Time
	version uint
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := Migrate(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now, version: version}, nil
}

// SchemaVersion is the migration version applied when the repository opened.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.version
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateExpense implements records.ExpenseWriter
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.ID == "" {
		e.ID = core.NewID()
	}
	now := r.now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now

	tags, err := json.Marshal(nonNil(e.Tags))
	if err != nil {
		return core.Expense{}, fmt.Errorf("encode tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, category, subcategory, description, amount, date_ms, supplier, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Category, e.Subcategory, e.Description, e.Amount.String(),
		e.Date.UnixMilli(), e.Supplier, string(tags), now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"category", e.Category,
		"amount", e.Amount.Fixed(),
		"date", e.Date.Format(time.RFC3339))

	return e, nil
}

// ListExpensesBetween implements records.ExpenseReader
func (r *SQLiteRepository) ListExpensesBetween(ctx context.Context, from, to time.Time) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, subcategory, description, amount, date_ms, supplier, tags, created_at, updated_at
		FROM expenses WHERE date_ms >= ? AND date_ms < ? ORDER BY date_ms`,
		from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query expenses by range: %w", err)
	}
	return scanExpenses(rows)
}

// ListExpenses implements records.ExpenseLister
func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, subcategory, description, amount, date_ms, supplier, tags, created_at, updated_at
		FROM expenses ORDER BY date_ms DESC`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	return scanExpenses(rows)
}

// CreateTransaction implements records.TransactionWriter
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = core.NewID()
	}
	now := r.now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, type, item_name, quantity, unit_price, total_amount, date_ms, customer, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Type), t.ItemName, t.Quantity, t.UnitPrice.String(), t.TotalAmount.String(),
		t.Date.UnixMilli(), t.Customer, t.Notes, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"type", t.Type,
		"total_amount", t.TotalAmount.Fixed())

	return t, nil
}

// ListTransactionsBetween implements records.TransactionReader
func (r *SQLiteRepository) ListTransactionsBetween(ctx context.Context, from, to time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, item_name, quantity, unit_price, total_amount, date_ms, customer, notes, created_at, updated_at
		FROM transactions WHERE date_ms >= ? AND date_ms < ? ORDER BY date_ms`,
		from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query transactions by range: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t                      core.Transaction
			typ, unitPrice, amount string
			dateMs, created, upd   int64
		)
		if err := rows.Scan(&t.ID, &typ, &t.ItemName, &t.Quantity, &unitPrice, &amount,
			&dateMs, &t.Customer, &t.Notes, &created, &upd); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		if t.UnitPrice, err = parseStoredAmount(unitPrice); err != nil {
			return nil, fmt.Errorf("transaction %s unit price: %w", t.ID, err)
		}
		if t.TotalAmount, err = parseStoredAmount(amount); err != nil {
			return nil, fmt.Errorf("transaction %s total amount: %w", t.ID, err)
		}
		t.Date = time.UnixMilli(dateMs).UTC()
		t.CreatedAt = time.UnixMilli(created).UTC()
		t.UpdatedAt = time.UnixMilli(upd).UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// AppendReportLog implements records.ReportLogWriter
func (r *SQLiteRepository) AppendReportLog(ctx context.Context, l core.ReportLog) (core.ReportLog, error) {
	if err := l.Validate(); err != nil {
		return core.ReportLog{}, err
	}
	if l.SentAt.IsZero() {
		l.SentAt = r.now()
	}
	l.SentAt = l.SentAt.UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO report_logs (status, message, sent_at) VALUES (?, ?, ?)`,
		string(l.Status), l.Message, l.SentAt.UnixMilli())
	if err != nil {
		return core.ReportLog{}, fmt.Errorf("insert report log: %w", err)
	}
	if l.ID, err = res.LastInsertId(); err != nil {
		return core.ReportLog{}, fmt.Errorf("report log id: %w", err)
	}
	return l, nil
}

// LatestReportLog implements records.ReportLogReader
func (r *SQLiteRepository) LatestReportLog(ctx context.Context) (core.ReportLog, bool, error) {
	var (
		l      core.ReportLog
		status string
		sentMs int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, status, message, sent_at FROM report_logs ORDER BY sent_at DESC, id DESC LIMIT 1`).
		Scan(&l.ID, &status, &l.Message, &sentMs)
	if err == sql.ErrNoRows {
		return core.ReportLog{}, false, nil
	}
	if err != nil {
		return core.ReportLog{}, false, fmt.Errorf("query latest report log: %w", err)
	}
	l.Status = core.ReportStatus(status)
	l.SentAt = time.UnixMilli(sentMs).UTC()
	return l, true, nil
}

func scanExpenses(rows *sql.Rows) ([]core.Expense, error) {
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e                    core.Expense
			amount, tags         string
			dateMs, created, upd int64
		)
		if err := rows.Scan(&e.ID, &e.Category, &e.Subcategory, &e.Description, &amount,
			&dateMs, &e.Supplier, &tags, &created, &upd); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		var err error
		if e.Amount, err = parseStoredAmount(amount); err != nil {
			return nil, fmt.Errorf("expense %s amount: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
			return nil, fmt.Errorf("expense %s tags: %w", e.ID, err)
		}
		if len(e.Tags) == 0 {
			e.Tags = nil
		}
		e.Date = time.UnixMilli(dateMs).UTC()
		e.CreatedAt = time.UnixMilli(created).UTC()
		e.UpdatedAt = time.UnixMilli(upd).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func parseStoredAmount(s string) (core.Money, error) {
	var m core.Money
	if err := m.UnmarshalJSON([]byte(s)); err != nil {
		return core.Zero, err
	}
	return m, nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
