package sim

import (
	"testing"

	"github.com/quantsim/lob/pkg/book"
	"github.com/quantsim/lob/pkg/exchange"
	"github.com/quantsim/lob/pkg/market"
	"github.com/quantsim/lob/pkg/util"
)

func newTestExchange(t *testing.T) *exchange.Exchange {
	t.Helper()
	ex := exchange.New(nil, nil)
	m, err := market.New("ACME-USD", "ACME", "USD", market.Params{
		Currency:     market.USD,
		MinQuote:     book.NewQuote(9900, 100),
		MaxQuote:     book.NewQuote(10100, 100),
		PoolSize:     1 << 12,
		MinOrderSize: 1,
		MaxOrderSize: 1000,
	})
	if err != nil {
		t.Fatalf("market.New: %v", err)
	}
	if err := ex.AddMarket(m); err != nil {
		t.Fatalf("AddMarket: %v", err)
	}
	return ex
}

func TestGeneratorStaysInsideInterval(t *testing.T) {
	g := NewGenerator(Config{Traders: 10, Seed: 1}, book.NewQuote(9900, 100), book.NewQuote(10100, 100))

	for i := 0; i < 1000; i++ {
		ord := g.NextOrder()
		if ord.Limit.Amount < 9900 || ord.Limit.Amount > 10100 {
			t.Fatalf("order %d price %s outside interval", i, ord.Limit)
		}
		if ord.Quantity < 1 || ord.Quantity > 100 {
			t.Fatalf("order %d quantity %d out of range", i, ord.Quantity)
		}
		if ord.Side != book.Buy && ord.Side != book.Sell {
			t.Fatalf("order %d has no side", i)
		}
	}
}

func TestGeneratorCancelTargets(t *testing.T) {
	g := NewGenerator(Config{Traders: 2, Seed: 7}, book.NewQuote(9900, 100), book.NewQuote(10100, 100))

	if h := g.NextCancel(); h != book.NoHandle {
		t.Fatalf("cancel with nothing tracked = %v", h)
	}
	g.Track(book.Handle(3))
	g.Track(book.Handle(5))
	first := g.NextCancel()
	second := g.NextCancel()
	if first == second || g.NextCancel() != book.NoHandle {
		t.Errorf("tracked handles not drained: %v %v", first, second)
	}
}

func TestFeederStepKeepsBookConsistent(t *testing.T) {
	ex := newTestExchange(t)
	cfg := DefaultConfig("ACME-USD")
	cfg.Seed = 42

	f, err := NewFeeder(ex, cfg, util.InstantClock{}, nil)
	if err != nil {
		t.Fatalf("NewFeeder: %v", err)
	}

	for i := 0; i < 50; i++ {
		f.Step(20)

		bid, ask, haveBid, haveAsk, err := ex.TopOfBook("ACME-USD")
		if err != nil {
			t.Fatalf("TopOfBook: %v", err)
		}
		if haveBid && haveAsk && !bid.Less(ask) {
			// a crossed book means matching failed to clear marketable flow
			t.Fatalf("step %d: book crossed, bid %s >= ask %s", i, bid, ask)
		}
	}
}

func TestNewFeederUnknownSymbol(t *testing.T) {
	ex := newTestExchange(t)
	if _, err := NewFeeder(ex, DefaultConfig("NOPE"), nil, nil); err == nil {
		t.Error("feeder for unknown market created")
	}
}
