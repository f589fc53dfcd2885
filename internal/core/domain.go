package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Sale         TransactionType = "sale"
	Purchase     TransactionType = "purchase"
	ExpenseEntry TransactionType = "expense"

	ReportSuccess ReportStatus = "Success"
	ReportFailure ReportStatus = "Failure"
)

type (
	TransactionType string

	ReportStatus string

	Expense struct {
		ID          string    `json:"id"`
		Category    string    `json:"category"`
		Subcategory string    `json:"subcategory,omitempty"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Date        time.Time `json:"date"`
		Supplier    string    `json:"supplier,omitempty"`
		Tags        []string  `json:"tags,omitempty"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		ItemName    string          `json:"itemName,omitempty"`
		Quantity    int64           `json:"quantity,omitempty"`
		UnitPrice   Money           `json:"unitPrice"`
		TotalAmount Money           `json:"totalAmount"`
		Date        time.Time       `json:"date"`
		Customer    string          `json:"customer,omitempty"`
		Notes       string          `json:"notes,omitempty"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
	}

	// ReportLog is the audit record written once per report run.
	ReportLog struct {
		ID      int64        `json:"id"`
		Status  ReportStatus `json:"status"`
		Message string       `json:"message"`
		SentAt  time.Time    `json:"sentAt"`
	}
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidDate            = errors.New("date cannot be zero")
	ErrEmptyDescription       = errors.New("empty description")
	ErrDescriptionTooLong     = errors.New("description too long (max 200 characters)")
	ErrInvalidCategory        = errors.New("invalid expense category")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidReportStatus    = errors.New("invalid report status")
	ErrEmptyReportMessage     = errors.New("empty report message")
	ErrNotifierNotConfigured  = errors.New("messaging provider credentials not configured")
)

// NewID returns an opaque identifier for a new record.
func NewID() string {
	return uuid.NewString()
}

func (t TransactionType) IsValid() bool {
	switch t {
	case Sale, Purchase, ExpenseEntry:
		return true
	default:
		return false
	}
}

func (s ReportStatus) IsValid() bool {
	return s == ReportSuccess || s == ReportFailure
}

func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if e.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if _, ok := CategoryByID(e.Category); !ok {
		return ErrInvalidCategory
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return ErrInvalidTransactionType
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if t.TotalAmount.IsNegative() || t.UnitPrice.IsNegative() || t.Quantity < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (l ReportLog) Validate() error {
	if !l.Status.IsValid() {
		return ErrInvalidReportStatus
	}
	if strings.TrimSpace(l.Message) == "" {
		return ErrEmptyReportMessage
	}
	return nil
}
