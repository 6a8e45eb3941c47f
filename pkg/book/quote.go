// Package book implements a fixed-capacity, price-indexed limit order book.
//
// A Book manages exactly one tradable instrument. Prices are discretized onto
// a ladder of FIFO levels sized at construction; resting orders live in a
// fixed-capacity pool and are addressed by opaque handles. All operations are
// synchronous and single-threaded: callers sharing a Book across goroutines
// must serialize access externally.
package book

import (
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Side of an order: Buy bids, Sell asks.
type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

// Opposite returns the side a marketable order executes against.
func (s Side) Opposite() Side { return -s }

// Lifetime is the order lifetime policy.
type Lifetime int8

const (
	// GoodTillCancel rests any unmatched remainder until explicitly cancelled.
	GoodTillCancel Lifetime = iota
	// ImmediateOrCancel fills what it can and cancels the remainder.
	ImmediateOrCancel
	// FillOrKill fills in full or cancels without touching the book.
	FillOrKill
)

func (l Lifetime) String() string {
	switch l {
	case GoodTillCancel:
		return "GTC"
	case ImmediateOrCancel:
		return "IOC"
	case FillOrKill:
		return "FOK"
	}
	return "unknown"
}

// ParseLifetime maps the wire spellings ("GTC", "IOC", "FOK") to a Lifetime.
func ParseLifetime(s string) (Lifetime, error) {
	switch s {
	case "GTC":
		return GoodTillCancel, nil
	case "IOC":
		return ImmediateOrCancel, nil
	case "FOK":
		return FillOrKill, nil
	}
	return 0, fmt.Errorf("unknown lifetime %q", s)
}

// Quote is a price expressed as an integer numerator over a fixed lot scale,
// e.g. $100.50 with Lot=100 is Quote{Amount: 10050, Lot: 100}. Quotes avoid
// floating-point price drift; two quotes are comparable only when they share
// the same lot.
type Quote struct {
	Amount int64
	Lot    int64
}

// NewQuote builds a quote from an integer numerator and lot scale.
func NewQuote(amount, lot int64) Quote {
	if lot <= 0 {
		panic(fmt.Sprintf("book: quote lot must be positive, got %d", lot))
	}
	return Quote{Amount: amount, Lot: lot}
}

// QuoteFromDecimal converts a decimal price to a quote at the given lot
// scale, rounding to the nearest representable numerator.
func QuoteFromDecimal(d decimal.Decimal, lot int64) Quote {
	amount := d.Mul(decimal.NewFromInt(lot)).Round(0).IntPart()
	return NewQuote(amount, lot)
}

// SameLot reports whether two quotes share a lot scale and are comparable.
func (q Quote) SameLot(o Quote) bool { return q.Lot == o.Lot }

// Cmp compares two quotes sharing the same lot: -1 if q < o, 0 if equal,
// +1 if q > o.
func (q Quote) Cmp(o Quote) int {
	switch {
	case q.Amount < o.Amount:
		return -1
	case q.Amount > o.Amount:
		return 1
	}
	return 0
}

// Less reports q < o for quotes sharing the same lot.
func (q Quote) Less(o Quote) bool { return q.Amount < o.Amount }

// Float64 returns the price in currency units. For display only; all
// book arithmetic stays on the integer numerator.
func (q Quote) Float64() float64 { return float64(q.Amount) / float64(q.Lot) }

// Decimal returns the price as an exact decimal in currency units.
func (q Quote) Decimal() decimal.Decimal {
	return decimal.NewFromInt(q.Amount).Div(decimal.NewFromInt(q.Lot))
}

// String renders the quote with the precision implied by its lot,
// e.g. Quote{10050, 100} -> "100.50".
func (q Quote) String() string {
	digits := int32(math.Round(math.Log10(float64(q.Lot))))
	return q.Decimal().StringFixed(digits)
}

// LimitOrder is the order message consumed by Book.Insert. No other fields
// are read by the matching core.
type LimitOrder struct {
	Side     Side
	Quantity int64
	Limit    Quote
	Lifetime Lifetime
	Owner    common.Address
}

func (o LimitOrder) String() string {
	return fmt.Sprintf("%s %s %d@%s %s", o.Lifetime, o.Side, o.Quantity, o.Limit, o.Owner.Hex())
}
