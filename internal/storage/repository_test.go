package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"canteen/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_ExpenseRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	day := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	saved, err := repo.CreateExpense(ctx, core.Expense{
		Category:    "utilities",
		Subcategory: "electricity",
		Description: "Power bill",
		Amount:      core.MustParseMoney("1234.50"),
		Date:        day,
		Supplier:    "City Power",
		Tags:        []string{"monthly"},
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if saved.ID == "" {
		t.Fatal("CreateExpense() did not assign an ID")
	}

	got, err := repo.ListExpensesBetween(ctx, day.Add(-time.Hour), day.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListExpensesBetween() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListExpensesBetween() returned %d rows, want 1", len(got))
	}
	e := got[0]
	if e.ID != saved.ID || e.Description != "Power bill" || e.Supplier != "City Power" {
		t.Errorf("unexpected expense %+v", e)
	}
	if !e.Amount.Equal(core.MustParseMoney("1234.50")) {
		t.Errorf("Amount = %s, want 1234.50", e.Amount.Fixed())
	}
	if !e.Date.Equal(day) {
		t.Errorf("Date = %v, want %v", e.Date, day)
	}
	if len(e.Tags) != 1 || e.Tags[0] != "monthly" {
		t.Errorf("Tags = %v, want [monthly]", e.Tags)
	}
}

func TestSQLiteRepository_RangeIsHalfOpen(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	for _, d := range []time.Time{start, end.Add(-time.Millisecond), end} {
		if _, err := repo.CreateTransaction(ctx, core.Transaction{
			Type:        core.Sale,
			TotalAmount: core.MustParseMoney("10"),
			Date:        d,
		}); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	got, err := repo.ListTransactionsBetween(ctx, start, end)
	if err != nil {
		t.Fatalf("ListTransactionsBetween() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListTransactionsBetween() returned %d rows, want 2", len(got))
	}
	for _, tx := range got {
		if tx.Type != core.Sale {
			t.Errorf("Type = %q, want sale", tx.Type)
		}
	}
}

func TestSQLiteRepository_ListExpensesNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, desc := range []string{"first", "third", "second"} {
		offset := []int{0, 2, 1}[i]
		if _, err := repo.CreateExpense(ctx, core.Expense{
			Category:    "other",
			Description: desc,
			Amount:      core.NewMoney(100),
			Date:        base.AddDate(0, 0, offset),
		}); err != nil {
			t.Fatalf("CreateExpense(%s) error = %v", desc, err)
		}
	}

	got, err := repo.ListExpenses(ctx)
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	want := []string{"third", "second", "first"}
	for i, e := range got {
		if e.Description != want[i] {
			t.Errorf("ListExpenses()[%d] = %q, want %q", i, e.Description, want[i])
		}
	}
}

func TestSQLiteRepository_CreateExpenseRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.CreateExpense(context.Background(), core.Expense{
		Category: "not-a-category",
		Amount:   core.NewMoney(100),
		Date:     time.Now(),
	})
	if err == nil {
		t.Fatal("CreateExpense() expected validation error")
	}
}

func TestSQLiteRepository_ReportLogs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, found, err := repo.LatestReportLog(ctx); err != nil || found {
		t.Fatalf("LatestReportLog() on empty store = found %v, err %v", found, err)
	}

	t0 := time.Date(2025, 3, 11, 0, 1, 0, 0, time.UTC)
	if _, err := repo.AppendReportLog(ctx, core.ReportLog{Status: core.ReportFailure, Message: "provider down", SentAt: t0}); err != nil {
		t.Fatalf("AppendReportLog() error = %v", err)
	}
	second, err := repo.AppendReportLog(ctx, core.ReportLog{Status: core.ReportSuccess, Message: "sent", SentAt: t0.Add(24 * time.Hour)})
	if err != nil {
		t.Fatalf("AppendReportLog() error = %v", err)
	}
	if second.ID == 0 {
		t.Error("AppendReportLog() did not assign an ID")
	}

	latest, found, err := repo.LatestReportLog(ctx)
	if err != nil || !found {
		t.Fatalf("LatestReportLog() = found %v, err %v", found, err)
	}
	if latest.Status != core.ReportSuccess || latest.Message != "sent" {
		t.Errorf("LatestReportLog() = %+v, want the success entry", latest)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")

	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		if got := repo.SchemaVersion(); got != 1 {
			t.Errorf("open #%d: SchemaVersion() = %d, want 1", i+1, got)
		}
		repo.Close()
	}
}
