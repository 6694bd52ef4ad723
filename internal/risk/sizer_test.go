package risk

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSize(t *testing.T) {
	s, err := Size(decimal.NewFromInt(1000), decimal.NewFromInt(2), decimal.NewFromInt(50000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Notional.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("notional=%s want 20", s.Notional)
	}
	if !s.Units.Equal(decimal.RequireFromString("0.0004")) {
		t.Fatalf("units=%s want 0.0004", s.Units)
	}
}

func TestSizeErrors(t *testing.T) {
	two := decimal.NewFromInt(2)
	if _, err := Size(decimal.Zero, two, decimal.NewFromInt(10)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}
	if _, err := Size(decimal.NewFromInt(-5), two, decimal.NewFromInt(10)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}
	if _, err := Size(decimal.NewFromInt(100), two, decimal.Zero); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("want ErrInvalidPrice, got %v", err)
	}
	if _, err := Size(decimal.NewFromInt(100), decimal.Zero, decimal.NewFromInt(10)); !errors.Is(err, ErrInvalidRisk) {
		t.Fatalf("want ErrInvalidRisk, got %v", err)
	}
}

func TestSizeNeverExceedsNotional(t *testing.T) {
	cases := []struct {
		balance, risk, entry string
	}{
		{"1000", "100", "1.5"},
		{"1000", "100", "3"},
		{"777.77", "33.3", "0.7"},
		{"1000", "2", "49999.99"},
	}
	for _, c := range cases {
		s, err := Size(decimal.RequireFromString(c.balance), decimal.RequireFromString(c.risk), decimal.RequireFromString(c.entry))
		if err != nil {
			t.Fatalf("%+v: %v", c, err)
		}
		if !s.Units.IsPositive() {
			t.Fatalf("%+v: units=%s", c, s.Units)
		}
		cost := s.Units.Mul(decimal.RequireFromString(c.entry))
		if cost.GreaterThan(s.Notional) {
			t.Fatalf("%+v: cost %s exceeds notional %s", c, cost, s.Notional)
		}
	}
}
