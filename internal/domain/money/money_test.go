package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestEqual_IgnoresScale(t *testing.T) {
	a, err := FromString("100.00", "USD")
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}
	b, err := FromString("100.0", "USD")
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}

	if !a.Equal(b) {
		t.Errorf("Equal() = false, want true for same numeric value")
	}
}

func TestEqual_DifferentCurrency(t *testing.T) {
	a := New(decimal.NewFromInt(100), "USD")
	b := New(decimal.NewFromInt(100), "EUR")

	if a.Equal(b) {
		t.Errorf("Equal() = true, want false for different currencies")
	}
}

func TestFromString_Invalid(t *testing.T) {
	if _, err := FromString("not-a-number", "USD"); err == nil {
		t.Error("FromString() error = nil, want parse error")
	}
}

func TestAdd_CurrencyMismatch(t *testing.T) {
	a := New(decimal.NewFromInt(10), "USD")
	b := New(decimal.NewFromInt(5), "BRL")

	if _, err := a.Add(b); err != ErrCurrencyMismatch {
		t.Errorf("Add() error = %v, want ErrCurrencyMismatch", err)
	}
}

func TestMarshalJSON_DecimalString(t *testing.T) {
	m, _ := FromString("100.05", "USD")

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"amount":"100.05","currency":"USD"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestUnmarshalJSON_RoundTrip(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`{"amount":"42.50","currency":"eur"}`), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want, _ := FromString("42.50", "EUR")
	if !m.Equal(want) {
		t.Errorf("Unmarshal() = %v, want %v", m, want)
	}
	if m.Currency != "EUR" {
		t.Errorf("Currency = %q, want normalized %q", m.Currency, "EUR")
	}
}
