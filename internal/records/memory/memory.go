package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"canteen/internal/core"
	"canteen/internal/records"
)

var _ records.Store = (*Store)(nil)

// Store keeps records in process memory. Used by the memory backend and tests.
type Store struct {
	mu           sync.Mutex
	expenses     []core.Expense
	transactions []core.Transaction
	logs         []core.ReportLog
	now          func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = core.NewID()
	}
	now := s.now()
	e.CreatedAt, e.UpdatedAt = now, now
	e.Tags = append([]string(nil), e.Tags...)
	s.expenses = append(s.expenses, e)
	return cloneExpense(e), nil
}

// cloneExpense detaches the tags so callers cannot edit stored records.
func cloneExpense(e core.Expense) core.Expense {
	if e.Tags != nil {
		e.Tags = append([]string(nil), e.Tags...)
	}
	return e
}

func (s *Store) ListExpensesBetween(_ context.Context, from, to time.Time) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := core.DayWindow{Start: from, End: to}
	var out []core.Expense
	for _, e := range s.expenses {
		if w.Contains(e.Date) {
			out = append(out, cloneExpense(e))
		}
	}
	return out, nil
}

func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	out := make([]core.Expense, len(s.expenses))
	for i, e := range s.expenses {
		out[i] = cloneExpense(e)
	}
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = core.NewID()
	}
	now := s.now()
	t.CreatedAt, t.UpdatedAt = now, now
	s.transactions = append(s.transactions, t)
	return t, nil
}

func (s *Store) ListTransactionsBetween(_ context.Context, from, to time.Time) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := core.DayWindow{Start: from, End: to}
	var out []core.Transaction
	for _, t := range s.transactions {
		if w.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) AppendReportLog(_ context.Context, l core.ReportLog) (core.ReportLog, error) {
	if err := l.Validate(); err != nil {
		return core.ReportLog{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.SentAt.IsZero() {
		l.SentAt = s.now()
	}
	l.ID = int64(len(s.logs) + 1)
	s.logs = append(s.logs, l)
	return l, nil
}

func (s *Store) LatestReportLog(_ context.Context) (core.ReportLog, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.logs) == 0 {
		return core.ReportLog{}, false, nil
	}
	latest := s.logs[0]
	for _, l := range s.logs[1:] {
		if !l.SentAt.Before(latest.SentAt) {
			latest = l
		}
	}
	return latest, true, nil
}

// ReportLogs returns every log entry in insertion order.
func (s *Store) ReportLogs() []core.ReportLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ReportLog(nil), s.logs...)
}
