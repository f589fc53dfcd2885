package core

import (
	"testing"
	"time"
)

func TestExpenseFilter_Apply(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	expenses := []Expense{
		{ID: "1", Category: "food_purchase", Subcategory: "vegetables", Supplier: "Green Farm", Description: "Onions", Amount: MustParseMoney("450"), Date: day},
		{ID: "2", Category: "utilities", Subcategory: "electricity", Supplier: "City Power", Description: "March bill", Amount: MustParseMoney("3200.50"), Date: day.AddDate(0, 0, -5)},
		{ID: "3", Category: "staff", Description: "Weekly wages", Amount: MustParseMoney("7000"), Date: day.AddDate(0, 0, -10)},
	}
	money := func(s string) *Money {
		m := MustParseMoney(s)
		return &m
	}

	tests := []struct {
		name   string
		filter ExpenseFilter
		want   []string
	}{
		{"zero filter keeps all", ExpenseFilter{}, []string{"1", "2", "3"}},
		{"category substring case-insensitive", ExpenseFilter{Category: "FOOD"}, []string{"1"}},
		{"subcategory", ExpenseFilter{Subcategory: "elec"}, []string{"2"}},
		{"supplier", ExpenseFilter{Supplier: "farm"}, []string{"1"}},
		{"min amount inclusive", ExpenseFilter{Min: money("3200.50")}, []string{"2", "3"}},
		{"max amount inclusive", ExpenseFilter{Max: money("450")}, []string{"1"}},
		{"date range half-open", ExpenseFilter{From: day.AddDate(0, 0, -5), To: day}, []string{"2"}},
		{"query description", ExpenseFilter{Query: "wages"}, []string{"3"}},
		{"query amount", ExpenseFilter{Query: "3200"}, []string{"2"}},
		{"query supplier", ExpenseFilter{Query: "city"}, []string{"2"}},
		{"combined criteria", ExpenseFilter{Category: "utilities", Max: money("100")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(expenses)
			if len(got) != len(tt.want) {
				t.Fatalf("Apply() returned %d expenses, want %d", len(got), len(tt.want))
			}
			for i, e := range got {
				if e.ID != tt.want[i] {
					t.Errorf("Apply()[%d] = %s, want %s", i, e.ID, tt.want[i])
				}
			}
		})
	}
}
