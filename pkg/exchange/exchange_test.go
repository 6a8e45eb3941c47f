package exchange

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/quantsim/lob/pkg/book"
	"github.com/quantsim/lob/pkg/market"
)

var (
	alice = common.HexToAddress("0xa11ce")
	bob   = common.HexToAddress("0xb0b")
)

func newTestExchange(t *testing.T) *Exchange {
	t.Helper()
	e := New(nil, nil)
	m, err := market.New("ACME-USD", "ACME", "USD", market.Params{
		Currency:     market.USD,
		MinQuote:     book.NewQuote(9900, 100),
		MaxQuote:     book.NewQuote(10100, 100),
		PoolSize:     64,
		MinOrderSize: 1,
		MaxOrderSize: 1000,
	})
	if err != nil {
		t.Fatalf("market.New: %v", err)
	}
	if err := e.AddMarket(m); err != nil {
		t.Fatalf("AddMarket: %v", err)
	}
	return e
}

func TestSubmitAndMatch(t *testing.T) {
	e := newTestExchange(t)

	var published []book.ExecutionReport
	e.OnReport = func(symbol string, reps []book.ExecutionReport) {
		if symbol != "ACME-USD" {
			t.Errorf("published symbol = %q", symbol)
		}
		published = append(published, reps...)
	}

	sell := book.LimitOrder{Side: book.Sell, Quantity: 10, Limit: book.NewQuote(10050, 100), Owner: alice}
	reps, err := e.Submit("ACME-USD", sell)
	if err != nil {
		t.Fatalf("Submit sell: %v", err)
	}
	if len(reps) != 1 || reps[0].State != book.Placement {
		t.Fatalf("sell reports = %v, want single placement", reps)
	}

	buy := book.LimitOrder{Side: book.Buy, Quantity: 4, Limit: book.NewQuote(10050, 100), Owner: bob}
	reps, err = e.Submit("ACME-USD", buy)
	if err != nil {
		t.Fatalf("Submit buy: %v", err)
	}
	if len(reps) != 2 || reps[0].State != book.Match || reps[1].State != book.Match {
		t.Fatalf("buy reports = %v, want aggressor and resting match legs", reps)
	}

	// every report the calls produced reached the listener, in order
	if len(published) != 3 {
		t.Fatalf("published %d reports, want 3", len(published))
	}
	if published[0].State != book.Placement || published[1].State != book.Match {
		t.Errorf("published order wrong: %v", published)
	}

	bid, ask, haveBid, haveAsk, err := e.TopOfBook("ACME-USD")
	if err != nil {
		t.Fatalf("TopOfBook: %v", err)
	}
	if haveBid {
		t.Errorf("unexpected bid %s", bid)
	}
	if !haveAsk || ask.Amount != 10050 {
		t.Errorf("ask = %s, %v, want 100.50", ask, haveAsk)
	}
}

func TestCancelThroughExchange(t *testing.T) {
	e := newTestExchange(t)

	reps, err := e.Submit("ACME-USD", book.LimitOrder{
		Side: book.Buy, Quantity: 5, Limit: book.NewQuote(10000, 100), Owner: alice,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	h := reps[0].Handle

	rep, err := e.Cancel("ACME-USD", h)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if rep.State != book.Cancel || rep.Quantity != 5 {
		t.Errorf("cancel report = %+v", rep)
	}
	if _, err := e.Cancel("ACME-USD", h); err == nil {
		t.Error("second Cancel of same handle succeeded")
	}
}

func TestSubmitValidation(t *testing.T) {
	e := newTestExchange(t)

	if _, err := e.Submit("NOPE", book.LimitOrder{Side: book.Buy, Quantity: 1, Limit: book.NewQuote(10000, 100)}); err == nil {
		t.Error("unknown symbol accepted")
	}
	oversize := book.LimitOrder{Side: book.Buy, Quantity: 100000, Limit: book.NewQuote(10000, 100), Owner: alice}
	if _, err := e.Submit("ACME-USD", oversize); err == nil {
		t.Error("oversized order accepted")
	}
}

func TestSnapshot(t *testing.T) {
	e := newTestExchange(t)

	e.Submit("ACME-USD", book.LimitOrder{Side: book.Buy, Quantity: 5, Limit: book.NewQuote(10000, 100), Owner: alice})
	e.Submit("ACME-USD", book.LimitOrder{Side: book.Buy, Quantity: 3, Limit: book.NewQuote(9990, 100), Owner: bob})
	e.Submit("ACME-USD", book.LimitOrder{Side: book.Sell, Quantity: 7, Limit: book.NewQuote(10020, 100), Owner: bob})

	bids, asks, err := e.Snapshot("ACME-USD")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(bids) != 2 || bids[0].Price.Amount != 10000 || bids[0].Quantity != 5 {
		t.Errorf("bids = %v", bids)
	}
	if len(asks) != 1 || asks[0].Price.Amount != 10020 || asks[0].Quantity != 7 {
		t.Errorf("asks = %v", asks)
	}

	depth, err := e.Depth("ACME-USD", 5)
	if err != nil || depth == "" {
		t.Errorf("Depth = %q, %v", depth, err)
	}
}
