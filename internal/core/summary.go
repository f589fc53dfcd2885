package core

import "time"

// DayWindow is the half-open interval [Start, End) covering one calendar day.
type DayWindow struct {
	Start time.Time
	End   time.Time
}

// NewDayWindow returns the window of the calendar day containing t, as seen in loc.
func NewDayWindow(t time.Time, loc *time.Location) DayWindow {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return DayWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

// YesterdayWindow returns the window of the day before now in loc.
func YesterdayWindow(now time.Time, loc *time.Location) DayWindow {
	today := NewDayWindow(now, loc)
	return DayWindow{Start: today.Start.AddDate(0, 0, -1), End: today.Start}
}

// Contains reports whether t lies in [Start, End).
func (w DayWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// DailySummary is the projection of one day's expenses and transactions.
type DailySummary struct {
	ReportDate     time.Time `json:"reportDate"`
	TotalSales     Money     `json:"totalSales"`
	TotalExpenses  Money     `json:"totalExpenses"`
	TotalPurchases Money     `json:"totalPurchases"`
	NetProfit      Money     `json:"netProfit"`
	SalesCount     int       `json:"salesCount"`
}

// ComputeNetProfit sets NetProfit = TotalSales - TotalExpenses - TotalPurchases.
func (s *DailySummary) ComputeNetProfit() {
	s.NetProfit = s.TotalSales.Sub(s.TotalExpenses).Sub(s.TotalPurchases)
}

// DashboardOverview holds rolling expense totals for the dashboard.
type DashboardOverview struct {
	TotalExpenses   Money `json:"totalExpenses"`
	MonthlyExpenses Money `json:"monthlyExpenses"`
	WeeklyExpenses  Money `json:"weeklyExpenses"`
	ExpenseCount    int   `json:"expenseCount"`
}

// BuildDashboardOverview sums expenses overall and over the last 30 and 7 days.
func BuildDashboardOverview(expenses []Expense, now time.Time) DashboardOverview {
	monthAgo := now.AddDate(0, 0, -30)
	weekAgo := now.AddDate(0, 0, -7)
	ov := DashboardOverview{TotalExpenses: Zero, MonthlyExpenses: Zero, WeeklyExpenses: Zero}
	for _, e := range expenses {
		ov.TotalExpenses = ov.TotalExpenses.Add(e.Amount)
		if !e.Date.Before(monthAgo) {
			ov.MonthlyExpenses = ov.MonthlyExpenses.Add(e.Amount)
		}
		if !e.Date.Before(weekAgo) {
			ov.WeeklyExpenses = ov.WeeklyExpenses.Add(e.Amount)
		}
	}
	ov.ExpenseCount = len(expenses)
	return ov
}
