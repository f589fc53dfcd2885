// Package core provides money parsing and handling utilities.
//
// Amounts are exact decimals. They are serialized as JSON numbers with two
// fractional digits and accept both numbers and strings on input.
package core

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a non-floating monetary amount.
type Money struct {
	decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{Decimal: decimal.Zero}

// NewMoney builds an amount from an integer number of minor units (paise, cents).
func NewMoney(minor int64) Money {
	return Money{Decimal: decimal.New(minor, -2)}
}

// MustParseMoney is ParseAmount for literals; it panics on invalid input.
func MustParseMoney(s string) Money {
	m, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseAmount converts a decimal string to Money rounded half-up to two places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Negative values are rejected; zero is accepted.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Zero, ErrInvalidAmount
	}
	return Money{Decimal: d.Round(2)}, nil
}

func (m Money) Add(o Money) Money {
	return Money{Decimal: m.Decimal.Add(o.Decimal)}
}

func (m Money) Sub(o Money) Money {
	return Money{Decimal: m.Decimal.Sub(o.Decimal)}
}

func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

// Fixed renders the amount with exactly two decimal places.
func (m Money) Fixed() string {
	return m.Decimal.StringFixed(2)
}

// Format renders the amount prefixed by a currency symbol, e.g. "₹45.00" or "-₹3.50".
func (m Money) Format(symbol string) string {
	if m.IsNegative() {
		return "-" + symbol + m.Decimal.Neg().StringFixed(2)
	}
	return symbol + m.Fixed()
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Fixed()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		m.Decimal = decimal.Zero
		return nil
	}
	data = bytes.Trim(data, `"`)
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return ErrInvalidAmount
	}
	m.Decimal = d
	return nil
}
