package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0", "0.00", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.50", true},
		{"-1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Fixed() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got.Fixed(), err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := []struct {
		m    Money
		want string
	}{
		{MustParseMoney("4500"), "₹4500.00"},
		{NewMoney(1234), "₹12.34"},
		{Zero, "₹0.00"},
		{Zero.Sub(MustParseMoney("3.5")), "-₹3.50"},
	}
	for _, tc := range cases {
		if got := tc.m.Format("₹"); got != tc.want {
			t.Fatalf("Format = %q, want %q", got, tc.want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	var payload struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a": 12.5, "b": "7"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !payload.A.Equal(MustParseMoney("12.5")) || !payload.B.Equal(MustParseMoney("7")) {
		t.Fatalf("unexpected values: %s %s", payload.A, payload.B)
	}
	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":12.50,"b":7.00}` {
		t.Fatalf("unexpected json %s", out)
	}
	if err := json.Unmarshal([]byte(`{"a": "abc"}`), &payload); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}
