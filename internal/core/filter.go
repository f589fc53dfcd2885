package core

import (
	"strings"
	"time"
)

// ExpenseFilter narrows an expense listing. Text fields match
// case-insensitive substrings; zero values disable a criterion.
type ExpenseFilter struct {
	Category    string
	Subcategory string
	Supplier    string
	// Query matches description, category, subcategory, supplier or amount.
	Query string
	Min   *Money
	Max   *Money
	// From and To bound the expense date, inclusive of From, exclusive of To.
	From time.Time
	To   time.Time
}

func (f ExpenseFilter) IsZero() bool {
	return f.Category == "" && f.Subcategory == "" && f.Supplier == "" && f.Query == "" &&
		f.Min == nil && f.Max == nil && f.From.IsZero() && f.To.IsZero()
}

func (f ExpenseFilter) Match(e Expense) bool {
	if !containsFold(e.Category, f.Category) ||
		!containsFold(e.Subcategory, f.Subcategory) ||
		!containsFold(e.Supplier, f.Supplier) {
		return false
	}
	if f.Min != nil && e.Amount.LessThan(f.Min.Decimal) {
		return false
	}
	if f.Max != nil && e.Amount.GreaterThan(f.Max.Decimal) {
		return false
	}
	if !f.From.IsZero() && e.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.Date.Before(f.To) {
		return false
	}
	if f.Query != "" {
		return containsFold(e.Description, f.Query) ||
			containsFold(e.Category, f.Query) ||
			containsFold(e.Subcategory, f.Query) ||
			containsFold(e.Supplier, f.Query) ||
			strings.Contains(e.Amount.String(), f.Query)
	}
	return true
}

// Apply returns the matching expenses in their original order.
func (f ExpenseFilter) Apply(expenses []Expense) []Expense {
	if f.IsZero() {
		return expenses
	}
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

func containsFold(s, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
