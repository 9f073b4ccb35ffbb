package money

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseMinor(t *testing.T) {
	cases := map[string]int64{
		"10":     1000,
		"10.5":   1050,
		"10.05":  1005,
		"-3.20":  -320,
		" 0.99 ": 99,
		".5":     50,
	}
	for input, expected := range cases {
		got, err := ParseMinor(input)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", input, err)
		}
		if got != expected {
			t.Fatalf("%q: expected %d, got %d", input, expected, got)
		}
	}
	if _, err := ParseMinor("1.234"); !errors.Is(err, ErrTooManyDecimals) {
		t.Fatalf("expected too many decimals, got %v", err)
	}
	if _, err := ParseMinor("abc"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestParseMinorRejectsOverflow(t *testing.T) {
	got, err := ParseMinor("92233720368547757.99")
	if err != nil || got != 9223372036854775799 {
		t.Fatalf("largest amount: got %d, %v", got, err)
	}
	for _, input := range []string{"200000000000000000", "92233720368547758", "92233720368547758.99", "-92233720368547758", "99999999999999999999"} {
		if got, err := ParseMinor(input); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q: expected invalid amount, got %d, %v", input, got, err)
		}
	}
	if _, err := ParseAmount(int64(math.MaxInt64 / 10)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected integer overflow to be rejected, got %v", err)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		input    any
		expected int64
	}{
		{float64(500), 50000},
		{float64(12.5), 1250},
		{"200", 20000},
		{json.Number("99.99"), 9999},
		{3, 300},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.input)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", c.input, err)
		}
		if got != c.expected {
			t.Fatalf("%v: expected %d, got %d", c.input, c.expected, got)
		}
	}
}

func TestParseAmountRejects(t *testing.T) {
	if _, err := ParseAmount(nil); !errors.Is(err, ErrMissingAmount) {
		t.Fatalf("expected missing amount, got %v", err)
	}
	if _, err := ParseAmount(" "); !errors.Is(err, ErrMissingAmount) {
		t.Fatalf("expected missing amount, got %v", err)
	}
	if _, err := ParseAmount("ten"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := ParseAmount(true); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := ParseAmount(float64(1.005)); !errors.Is(err, ErrTooManyDecimals) {
		t.Fatalf("expected too many decimals, got %v", err)
	}
}

func TestFormatMinor(t *testing.T) {
	if got := FormatMinor(30000); got != "300.00" {
		t.Fatalf("unexpected format: %s", got)
	}
	if got := FormatMinor(-5); got != "-0.05" {
		t.Fatalf("unexpected format: %s", got)
	}
}
