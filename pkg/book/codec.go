package book

import (
	"errors"
	"fmt"
)

// ErrBadInterval is returned when a price interval cannot form a ladder:
// min above max, or mismatched lot scales.
var ErrBadInterval = errors.New("book: invalid price interval")

// Codec maps quotes in [min, max] onto discrete ladder levels and back.
//
// The ladder has sub-lot resolution: each numerator unit of the quote scale
// is split into `ticks` slots (ticks defaults to the lot, so a book quoted
// in cents carries 100 slots per cent). Encoding is exact integer
// arithmetic; decoding rounds down to the quote grid, so a round trip stays
// within one tick of the input and is exact for every encodable quote.
type Codec struct {
	min   Quote
	max   Quote
	ticks int64
	span  int64
}

// NewCodec validates the interval and derives the ladder geometry.
func NewCodec(min, max Quote) (Codec, error) {
	if !min.SameLot(max) {
		return Codec{}, fmt.Errorf("%w: lot mismatch %d vs %d", ErrBadInterval, min.Lot, max.Lot)
	}
	if max.Less(min) {
		return Codec{}, fmt.Errorf("%w: min %s above max %s", ErrBadInterval, min, max)
	}
	ticks := min.Lot
	return Codec{
		min:   min,
		max:   max,
		ticks: ticks,
		// the maximum value is included
		span: (max.Amount-min.Amount)*ticks + 1,
	}, nil
}

// Span is the number of ladder levels, one per tick over [min, max] inclusive.
func (c Codec) Span() int { return int(c.span) }

// Min returns the lowest valid quote.
func (c Codec) Min() Quote { return c.min }

// Max returns the highest valid quote.
func (c Codec) Max() Quote { return c.max }

// Contains reports whether q lies inside the valid interval.
func (c Codec) Contains(q Quote) bool {
	return q.SameLot(c.min) && c.min.Amount <= q.Amount && q.Amount <= c.max.Amount
}

// Encode maps a quote to its ladder level. The second return value is false
// when the quote falls outside [min, max] or carries a foreign lot scale.
func (c Codec) Encode(q Quote) (int64, bool) {
	if !c.Contains(q) {
		return 0, false
	}
	return (q.Amount - c.min.Amount) * c.ticks, true
}

// Decode maps a ladder level back to a quote. Calling it with a level
// outside [0, Span) is a programming error and panics.
func (c Codec) Decode(level int64) Quote {
	if level < 0 || level >= c.span {
		panic(fmt.Sprintf("book: level %d outside ladder [0, %d)", level, c.span))
	}
	return Quote{Amount: c.min.Amount + level/c.ticks, Lot: c.min.Lot}
}
