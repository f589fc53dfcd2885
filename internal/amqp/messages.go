package amqp

import (
	"encoding/json"
	"time"

	"canteen/internal/core"
)

// Routing keys on the canteen topic exchange.
const (
	RoutingExpenseCreated  = "expense.created"
	RoutingReportCompleted = "report.completed"
)

// ExpenseCreatedMessage announces a newly recorded expense.
type ExpenseCreatedMessage struct {
	ID        string     `json:"id"`
	Category  string     `json:"category"`
	Amount    core.Money `json:"amount"`
	Date      time.Time  `json:"date"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewExpenseCreatedMessage(e core.Expense) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		ID:        e.ID,
		Category:  e.Category,
		Amount:    e.Amount,
		Date:      e.Date,
		Timestamp: time.Now(),
	}
}

// ReportCompletedMessage carries the outcome of one daily report run,
// successful or not. Consumers archive it; the summary fields are zero
// when the run failed before aggregation finished.
type ReportCompletedMessage struct {
	RunID          string     `json:"runId"`
	ReportDate     string     `json:"reportDate"`
	Success        bool       `json:"success"`
	TotalSales     core.Money `json:"totalSales"`
	TotalExpenses  core.Money `json:"totalExpenses"`
	TotalPurchases core.Money `json:"totalPurchases"`
	NetProfit      core.Money `json:"netProfit"`
	SalesCount     int        `json:"salesCount"`
	MessageID      string     `json:"messageId,omitempty"`
	Error          string     `json:"error,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}

func (m *ReportCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReportCompletedMessageFromJSON(data []byte) (*ReportCompletedMessage, error) {
	var msg ReportCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
