// Package http provides the JSON API server and its handlers.
//
// This file implements decoding and validation of request bodies and query
// filters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"canteen/internal/core"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names in validation errors.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CreateExpenseRequest is the body of POST /api/expenses.
type CreateExpenseRequest struct {
	Category    string      `json:"category" validate:"required"`
	Subcategory string      `json:"subcategory" validate:"max=100"`
	Description string      `json:"description" validate:"required,max=200"`
	Amount      *core.Money `json:"amount" validate:"required"`
	Date        string      `json:"date" validate:"required"`
	Supplier    string      `json:"supplier" validate:"max=200"`
	Tags        []string    `json:"tags" validate:"max=20,dive,max=50"`
}

// Expense converts the request into a record, resolving dates in loc.
func (req CreateExpenseRequest) Expense(loc *time.Location) (core.Expense, error) {
	date, err := parseDate(req.Date, loc)
	if err != nil {
		return core.Expense{}, err
	}
	tags := make([]string, 0, len(req.Tags))
	for _, t := range req.Tags {
		if t = sanitizeInput(t); t != "" {
			tags = append(tags, t)
		}
	}
	return core.Expense{
		Category:    sanitizeInput(req.Category),
		Subcategory: sanitizeInput(req.Subcategory),
		Description: sanitizeInput(req.Description),
		Amount:      *req.Amount,
		Date:        date,
		Supplier:    sanitizeInput(req.Supplier),
		Tags:        tags,
	}, nil
}

// CreateTransactionRequest is the body of POST /api/transactions.
type CreateTransactionRequest struct {
	Type        string      `json:"type" validate:"required,oneof=sale purchase expense"`
	ItemName    string      `json:"itemName" validate:"max=200"`
	Quantity    int64       `json:"quantity" validate:"gte=0"`
	UnitPrice   *core.Money `json:"unitPrice"`
	TotalAmount *core.Money `json:"totalAmount" validate:"required"`
	Date        string      `json:"date" validate:"required"`
	Customer    string      `json:"customer" validate:"max=200"`
	Notes       string      `json:"notes" validate:"max=1000"`
}

func (req CreateTransactionRequest) Transaction(loc *time.Location) (core.Transaction, error) {
	date, err := parseDate(req.Date, loc)
	if err != nil {
		return core.Transaction{}, err
	}
	unit := core.Zero
	if req.UnitPrice != nil {
		unit = *req.UnitPrice
	}
	return core.Transaction{
		Type:        core.TransactionType(req.Type),
		ItemName:    sanitizeInput(req.ItemName),
		Quantity:    req.Quantity,
		UnitPrice:   unit,
		TotalAmount: *req.TotalAmount,
		Date:        date,
		Customer:    sanitizeInput(req.Customer),
		Notes:       sanitizeInput(req.Notes),
	}, nil
}

// decodeJSON reads a size-limited JSON body into v and validates it.
func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return errors.New("request body too large")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errors.New("empty request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return validate.Struct(v)
}

// validationFields maps each failed field to the rule it broke. It returns
// nil when err is not a validation failure.
func validationFields(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

// ParseExpenseFilter reads the expense listing filters from a query string.
// from and to are calendar dates in loc; to is inclusive of its whole day.
func ParseExpenseFilter(q url.Values, loc *time.Location) (core.ExpenseFilter, error) {
	f := core.ExpenseFilter{
		Category:    sanitizeInput(q.Get("category")),
		Subcategory: sanitizeInput(q.Get("subcategory")),
		Supplier:    sanitizeInput(q.Get("supplier")),
		Query:       sanitizeInput(q.Get("q")),
	}

	var err error
	if f.Min, err = parseBound(q, "min"); err != nil {
		return core.ExpenseFilter{}, err
	}
	if f.Max, err = parseBound(q, "max"); err != nil {
		return core.ExpenseFilter{}, err
	}

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		from, err := parseDate(v, loc)
		if err != nil {
			return core.ExpenseFilter{}, fmt.Errorf("from: %w", err)
		}
		f.From = from
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		to, err := parseDate(v, loc)
		if err != nil {
			return core.ExpenseFilter{}, fmt.Errorf("to: %w", err)
		}
		f.To = core.NewDayWindow(to, loc).End
	}

	return f, nil
}

func parseBound(q url.Values, key string) (*core.Money, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	m, err := core.ParseAmount(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &m, nil
}

// ParseRange reads a from/to date range. Missing bounds default to the
// last 30 days ending today in loc; to covers its whole day.
func ParseRange(q url.Values, now time.Time, loc *time.Location) (from, to time.Time, err error) {
	today := core.NewDayWindow(now, loc)
	from, to = today.Start.AddDate(0, 0, -30), today.End

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		if from, err = parseDate(v, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("from: %w", err)
		}
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		day, err := parseDate(v, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("to: %w", err)
		}
		to = core.NewDayWindow(day, loc).End
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, errors.New("to must be after from")
	}
	return from, to, nil
}
