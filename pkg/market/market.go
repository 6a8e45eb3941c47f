// Package market holds the instrument metadata sitting above the matching
// core: currency and price-interval parameters, order-size validation, and
// the registry mapping symbols to live books.
package market

import (
	"fmt"

	"github.com/quantsim/lob/pkg/book"
)

// Status is the trading status of a market.
type Status int8

const (
	Active Status = iota
	Paused
	Settled
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Paused:
		return "paused"
	case Settled:
		return "settled"
	}
	return "unknown"
}

// Params configures a market and fully determines its book: the valid price
// interval [MinQuote, MaxQuote] (one lot scale, fixed for the market's
// lifetime) and the resting-order pool capacity.
type Params struct {
	Currency Currency
	MinQuote book.Quote
	MaxQuote book.Quote
	// PoolSize caps the number of simultaneously resting orders.
	PoolSize int
	// MinOrderSize/MaxOrderSize bound accepted order quantities. Zero
	// MaxOrderSize means unbounded.
	MinOrderSize int64
	MaxOrderSize int64
}

// DefaultParams covers $90.00 .. $110.00 in cents with room for 128k
// resting orders.
func DefaultParams() Params {
	return Params{
		Currency:     USD,
		MinQuote:     book.NewQuote(9000, 100),
		MaxQuote:     book.NewQuote(11000, 100),
		PoolSize:     1 << 17,
		MinOrderSize: 1,
		MaxOrderSize: 1_000_000,
	}
}

// Market is one tradable instrument and its order book.
type Market struct {
	Symbol     string
	BaseAsset  string
	QuoteAsset string
	Params     Params
	Status     Status

	book *book.Book
}

// New validates the parameters and constructs the market's book. The quote
// interval must be expressed in the quote currency's unit.
func New(symbol, baseAsset, quoteAsset string, p Params) (*Market, error) {
	if symbol == "" {
		return nil, fmt.Errorf("market symbol required")
	}
	if p.Currency.Unit <= 0 {
		return nil, fmt.Errorf("market %s: currency %q has no unit", symbol, p.Currency.Code)
	}
	if p.MinQuote.Lot != p.Currency.Unit {
		return nil, fmt.Errorf("market %s: quote lot %d does not match %s unit %d",
			symbol, p.MinQuote.Lot, p.Currency, p.Currency.Unit)
	}
	if p.PoolSize <= 0 {
		return nil, fmt.Errorf("market %s: pool size must be positive", symbol)
	}
	if p.MinOrderSize < 0 || (p.MaxOrderSize != 0 && p.MaxOrderSize < p.MinOrderSize) {
		return nil, fmt.Errorf("market %s: bad order size bounds [%d, %d]",
			symbol, p.MinOrderSize, p.MaxOrderSize)
	}

	b, err := book.New(p.MinQuote, p.MaxQuote, p.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("market %s: %w", symbol, err)
	}
	return &Market{
		Symbol:     symbol,
		BaseAsset:  baseAsset,
		QuoteAsset: quoteAsset,
		Params:     p,
		Status:     Active,
		book:       b,
	}, nil
}

// Book returns the market's order book. The book itself is not locked;
// callers serialize access (the exchange layer does).
func (m *Market) Book() *book.Book { return m.book }

// ValidateOrder applies market-level checks before an order reaches the
// book. Price-interval and quantity-positivity violations are left to the
// book, which reports them in the execution stream.
func (m *Market) ValidateOrder(ord book.LimitOrder) error {
	if m.Status != Active {
		return fmt.Errorf("market %s is not active (status: %s)", m.Symbol, m.Status)
	}
	if ord.Quantity > 0 && ord.Quantity < m.Params.MinOrderSize {
		return fmt.Errorf("order size %d below minimum %d", ord.Quantity, m.Params.MinOrderSize)
	}
	if m.Params.MaxOrderSize != 0 && ord.Quantity > m.Params.MaxOrderSize {
		return fmt.Errorf("order size %d exceeds maximum %d", ord.Quantity, m.Params.MaxOrderSize)
	}
	return nil
}
