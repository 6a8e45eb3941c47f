package market

import (
	"testing"

	"github.com/quantsim/lob/pkg/book"
)

func testParams() Params {
	return Params{
		Currency:     USD,
		MinQuote:     book.NewQuote(9900, 100),
		MaxQuote:     book.NewQuote(10100, 100),
		PoolSize:     64,
		MinOrderSize: 1,
		MaxOrderSize: 1000,
	}
}

func TestNewMarketValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr bool
	}{
		{"valid", func(p *Params) {}, false},
		{"lot does not match currency unit", func(p *Params) {
			p.MinQuote = book.NewQuote(9900, 10)
			p.MaxQuote = book.NewQuote(10100, 10)
		}, true},
		{"min above max", func(p *Params) {
			p.MinQuote, p.MaxQuote = p.MaxQuote, p.MinQuote
		}, true},
		{"zero pool", func(p *Params) { p.PoolSize = 0 }, true},
		{"inverted size bounds", func(p *Params) {
			p.MinOrderSize = 10
			p.MaxOrderSize = 5
		}, true},
	}

	for _, tt := range tests {
		p := testParams()
		tt.mutate(&p)
		_, err := New("ACME-USD", "ACME", "USD", p)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestValidateOrder(t *testing.T) {
	m, err := New("ACME-USD", "ACME", "USD", testParams())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ok := book.LimitOrder{Side: book.Buy, Quantity: 10, Limit: book.NewQuote(10000, 100)}
	if err := m.ValidateOrder(ok); err != nil {
		t.Errorf("valid order rejected: %v", err)
	}

	big := ok
	big.Quantity = 5000
	if err := m.ValidateOrder(big); err == nil {
		t.Error("oversized order accepted")
	}

	m.Status = Paused
	if err := m.ValidateOrder(ok); err == nil {
		t.Error("paused market accepted an order")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	m, _ := New("ACME-USD", "ACME", "USD", testParams())

	if err := r.Register(m); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(m); err == nil {
		t.Error("duplicate Register succeeded")
	}

	got, err := r.Get("ACME-USD")
	if err != nil || got != m {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if _, err := r.Get("NOPE"); err == nil {
		t.Error("Get unknown symbol succeeded")
	}
	if n := len(r.List()); n != 1 {
		t.Errorf("List len = %d, want 1", n)
	}

	if err := r.SetStatus("ACME-USD", Settled); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if err := r.SetStatus("ACME-USD", Active); err == nil {
		t.Error("status change out of Settled succeeded")
	}
}

func TestCurrencyByCode(t *testing.T) {
	c, err := CurrencyByCode("USD")
	if err != nil || c.Unit != 100 {
		t.Fatalf("CurrencyByCode(USD) = %v, %v", c, err)
	}
	if _, err := CurrencyByCode("XXX"); err == nil {
		t.Error("unknown code resolved")
	}
}
