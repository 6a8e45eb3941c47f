package book

import (
	"fmt"
	"strings"
)

// level is one ladder slot: the FIFO queue of resting orders at a single
// price tick, held as head/tail handles into the pool. Both NoHandle iff
// the level holds no resting quantity.
type level struct {
	head Handle
	tail Handle
}

// PriceLevel is the aggregated depth of one nonempty price level, used by
// snapshots and the diagnostic dump.
type PriceLevel struct {
	Price    Quote
	Quantity int64
	Orders   int
}

// Book is a price-time priority matching engine over a bounded price
// interval. The ladder is sized at construction and never reallocates;
// best-bid/best-ask are integer indices into it, so nothing a mutation does
// can invalidate them.
//
// Single-threaded by contract: no internal locking, no blocking calls.
type Book struct {
	codec  Codec
	pool   *Pool
	ladder []level

	// bestBid is at or below the highest nonempty bid level, bestAsk at or
	// below the lowest nonempty ask level; each points at its exact level
	// whenever the side holds quantity.
	bestBid int
	bestAsk int

	reports []ExecutionReport
}

// New constructs a book covering every tick in [min, max] inclusive, with a
// resting-order pool of the given capacity. The interval is fixed for the
// book's lifetime; there is no resize.
func New(min, max Quote, capacity int) (*Book, error) {
	codec, err := NewCodec(min, max)
	if err != nil {
		return nil, err
	}
	b := &Book{
		codec:   codec,
		pool:    NewPool(capacity),
		ladder:  make([]level, codec.Span()),
		bestBid: 0,
		bestAsk: codec.Span() - 1,
		reports: make([]ExecutionReport, 0, 32),
	}
	return b, nil
}

// Codec exposes the book's price codec.
func (b *Book) Codec() Codec { return b.codec }

// Pool exposes the resting-order pool (capacity and occupancy inspection).
func (b *Book) Pool() *Pool { return b.pool }

// bidAt reports whether lvl holds resting buy quantity. A parked best
// pointer can sit on a level occupied by the opposite side (a sell resting
// at the interval minimum while no bids exist), so emptiness checks on the
// best pointers must inspect the head record's side, never just the head.
func (b *Book) bidAt(lvl int) bool {
	h := b.ladder[lvl].head
	if h == NoHandle {
		return false
	}
	rec, err := b.pool.Get(h)
	return err == nil && rec.Side == Buy
}

// askAt reports whether lvl holds resting sell quantity.
func (b *Book) askAt(lvl int) bool {
	h := b.ladder[lvl].head
	if h == NoHandle {
		return false
	}
	rec, err := b.pool.Get(h)
	return err == nil && rec.Side == Sell
}

// Bid returns the best (highest) bid price, if any quantity is bid.
func (b *Book) Bid() (Quote, bool) {
	if !b.bidAt(b.bestBid) {
		return Quote{}, false
	}
	return b.codec.Decode(int64(b.bestBid)), true
}

// Ask returns the best (lowest) ask price, if any quantity is offered.
func (b *Book) Ask() (Quote, bool) {
	if !b.askAt(b.bestAsk) {
		return Quote{}, false
	}
	return b.codec.Decode(int64(b.bestAsk)), true
}

// Reports returns the cumulative execution-report stream. The book never
// clears it; callers that do not Drain will grow it without bound.
func (b *Book) Reports() []ExecutionReport { return b.reports }

// Drain returns all accumulated reports and resets the stream.
func (b *Book) Drain() []ExecutionReport {
	out := b.reports
	b.reports = make([]ExecutionReport, 0, 32)
	return out
}

// Insert validates, matches and (for GTC remainders) places an order,
// appending one report per state change. The returned slice is this call's
// reports, in strict match order; it aliases the cumulative stream.
//
// Matching walks the opposite side from the current best price toward the
// order's limit, consuming each level strictly FIFO. Emptied levels advance
// the best pointer outward; under sparse liquidity that scan can cost up to
// the full ladder width, a known cost profile of the flat-array design.
//
// The only error condition is pool exhaustion while placing a remainder:
// the fills stand, the remainder is reported cancelled, and
// ErrPoolExhausted is returned.
func (b *Book) Insert(ord LimitOrder) ([]ExecutionReport, error) {
	mark := len(b.reports)

	limitIdx, ok := b.codec.Encode(ord.Limit)
	if !ok || ord.Quantity <= 0 {
		b.reports = append(b.reports, ExecutionReport{
			State:    Invalid,
			Quantity: ord.Quantity,
			Side:     ord.Side,
			Limit:    ord.Limit,
			Owner:    ord.Owner,
		})
		return b.reports[mark:], nil
	}

	// Fill-or-kill is all-or-nothing: prove the full quantity is there
	// before the first fill, or cancel without mutating anything.
	if ord.Lifetime == FillOrKill && b.available(ord.Side, int(limitIdx), ord.Quantity) < ord.Quantity {
		b.reports = append(b.reports, ExecutionReport{
			State:    Cancel,
			Quantity: ord.Quantity,
			Side:     ord.Side,
			Limit:    ord.Limit,
			Owner:    ord.Owner,
		})
		return b.reports[mark:], nil
	}

	remainder := ord.Quantity
	switch {
	case ord.Side == Buy && b.askAt(b.bestAsk) && int(limitIdx) >= b.bestAsk:
		// buyer aggressor: sweep asks upward to the limit
		for l := b.bestAsk; l <= int(limitIdx) && remainder > 0; l++ {
			if b.ladder[l].head == NoHandle {
				continue
			}
			remainder = b.matchAtLevel(ord, remainder, l)
		}
	case ord.Side == Sell && b.bidAt(b.bestBid) && int(limitIdx) <= b.bestBid:
		// seller aggressor: sweep bids downward to the limit
		for l := b.bestBid; l >= int(limitIdx) && remainder > 0; l-- {
			if b.ladder[l].head == NoHandle {
				continue
			}
			remainder = b.matchAtLevel(ord, remainder, l)
		}
	}

	if remainder <= 0 {
		return b.reports[mark:], nil
	}

	if ord.Lifetime == ImmediateOrCancel || ord.Lifetime == FillOrKill {
		b.reports = append(b.reports, ExecutionReport{
			State:    Cancel,
			Quantity: remainder,
			Side:     ord.Side,
			Limit:    ord.Limit,
			Owner:    ord.Owner,
		})
		return b.reports[mark:], nil
	}

	// good-till-cancel: the remainder comes to rest at its limit level
	h, err := b.pool.Allocate(Record{
		Quantity: remainder,
		Owner:    ord.Owner,
		Side:     ord.Side,
		Level:    int32(limitIdx),
	})
	if err != nil {
		b.reports = append(b.reports, ExecutionReport{
			State:    Cancel,
			Quantity: remainder,
			Side:     ord.Side,
			Limit:    ord.Limit,
			Owner:    ord.Owner,
		})
		return b.reports[mark:], fmt.Errorf("place %d@%s: %w", remainder, ord.Limit, err)
	}

	lv := &b.ladder[limitIdx]
	if lv.head == NoHandle {
		lv.head, lv.tail = h, h
	} else {
		tail, _ := b.pool.Get(lv.tail)
		tail.Next = h
		rec, _ := b.pool.Get(h)
		rec.Prev = lv.tail
		lv.tail = h
	}

	b.reports = append(b.reports, ExecutionReport{
		State:    Placement,
		Quantity: remainder,
		Handle:   h,
		Side:     ord.Side,
		Limit:    ord.Limit,
		Owner:    ord.Owner,
	})

	if ord.Side == Buy {
		if int(limitIdx) > b.bestBid {
			b.bestBid = int(limitIdx)
		}
	} else {
		if int(limitIdx) < b.bestAsk {
			b.bestAsk = int(limitIdx)
		}
	}
	return b.reports[mark:], nil
}

// matchAtLevel consumes resting quantity at one level in FIFO order,
// emitting the aggressor/resting report pair per fill, until the aggressor
// is satisfied or the level runs dry. Returns the unmatched remainder.
func (b *Book) matchAtLevel(ord LimitOrder, remainder int64, lvl int) int64 {
	price := b.codec.Decode(int64(lvl))
	lv := &b.ladder[lvl]

	for h := lv.head; remainder > 0 && h != NoHandle; {
		rec, err := b.pool.Get(h)
		if err != nil {
			panic(fmt.Sprintf("book: corrupt level chain at %s: %v", price, err))
		}

		exec := rec.Quantity
		if exec > remainder {
			exec = remainder
		}
		rec.Quantity -= exec
		remainder -= exec

		b.reports = append(b.reports,
			ExecutionReport{ // aggressor leg
				State:    Match,
				Quantity: exec,
				Side:     ord.Side,
				Limit:    price,
				Owner:    ord.Owner,
			},
			ExecutionReport{ // resting leg
				State:    Match,
				Quantity: exec,
				Handle:   h,
				Side:     ord.Side.Opposite(),
				Limit:    price,
				Owner:    rec.Owner,
			})

		if rec.Quantity > 0 {
			break // remainder exhausted against a larger resting order
		}

		// fully consumed: evict from the pool and pop the FIFO head
		next := rec.Next
		lv.head = next
		if next == NoHandle {
			lv.tail = NoHandle
		} else {
			nrec, _ := b.pool.Get(next)
			nrec.Prev = NoHandle
		}
		if err := b.pool.Free(h); err != nil {
			panic(fmt.Sprintf("book: double free at %s: %v", price, err))
		}
		h = next
	}

	if lv.head == NoHandle {
		// level depleted: the aggressor took out the best price on the
		// opposite side, so scan outward for the next nonempty level
		if ord.Side == Buy {
			b.advanceAsk()
		} else {
			b.advanceBid()
		}
	}
	return remainder
}

// advanceAsk moves bestAsk up to the next nonempty level, stopping at the
// interval boundary.
func (b *Book) advanceAsk() {
	for b.bestAsk < len(b.ladder)-1 {
		b.bestAsk++
		if b.ladder[b.bestAsk].head != NoHandle {
			return
		}
	}
}

// advanceBid moves bestBid down to the next nonempty level, stopping at the
// interval boundary.
func (b *Book) advanceBid() {
	for b.bestBid > 0 {
		b.bestBid--
		if b.ladder[b.bestBid].head != NoHandle {
			return
		}
	}
}

// available sums resting quantity on the opposite side between the current
// best price and limitIdx inclusive, stopping early once want is covered.
// Used by the fill-or-kill pre-check. Resting sides never interleave, so
// once the best level is confirmed opposite-side the whole scan range is.
func (b *Book) available(side Side, limitIdx int, want int64) int64 {
	var total int64
	if side == Buy {
		if !b.askAt(b.bestAsk) {
			return 0
		}
		for l := b.bestAsk; l <= limitIdx && total < want; l++ {
			total += b.levelQuantity(l)
		}
	} else {
		if !b.bidAt(b.bestBid) {
			return 0
		}
		for l := b.bestBid; l >= limitIdx && total < want; l-- {
			total += b.levelQuantity(l)
		}
	}
	return total
}

func (b *Book) levelQuantity(lvl int) int64 {
	var total int64
	for h := b.ladder[lvl].head; h != NoHandle; {
		rec, err := b.pool.Get(h)
		if err != nil {
			panic(fmt.Sprintf("book: corrupt level chain at index %d: %v", lvl, err))
		}
		total += rec.Quantity
		h = rec.Next
	}
	return total
}

// Cancel removes a resting order by handle: it emits a cancel report for
// the remaining quantity, splices the record out of its level's FIFO chain
// in O(1), frees the slot, and walks the best pointer outward if the
// emptied level was the best. Unknown or already-freed handles fail with
// ErrNotFound and mutate nothing.
func (b *Book) Cancel(h Handle) (ExecutionReport, error) {
	rec, err := b.pool.Get(h)
	if err != nil {
		return ExecutionReport{}, err
	}

	lvl := int(rec.Level)
	lv := &b.ladder[lvl]
	rep := ExecutionReport{
		State:    Cancel,
		Quantity: rec.Quantity,
		Handle:   h,
		Side:     rec.Side,
		Limit:    b.codec.Decode(int64(lvl)),
		Owner:    rec.Owner,
	}

	if rec.Prev == NoHandle {
		lv.head = rec.Next
	} else {
		prev, _ := b.pool.Get(rec.Prev)
		prev.Next = rec.Next
	}
	if rec.Next == NoHandle {
		lv.tail = rec.Prev
	} else {
		next, _ := b.pool.Get(rec.Next)
		next.Prev = rec.Prev
	}

	side := rec.Side
	if err := b.pool.Free(h); err != nil {
		return ExecutionReport{}, err
	}
	b.reports = append(b.reports, rep)

	if lv.head == NoHandle {
		if side == Buy && lvl == b.bestBid {
			b.advanceBid()
		} else if side == Sell && lvl == b.bestAsk {
			b.advanceAsk()
		}
	}
	return rep, nil
}

// BidLevels returns nonempty bid levels best-first (highest price first).
func (b *Book) BidLevels() []PriceLevel {
	if !b.bidAt(b.bestBid) {
		return nil
	}
	var out []PriceLevel
	for l := b.bestBid; l >= 0; l-- {
		if pl, ok := b.collectLevel(l); ok {
			out = append(out, pl)
		}
	}
	return out
}

// AskLevels returns nonempty ask levels best-first (lowest price first).
func (b *Book) AskLevels() []PriceLevel {
	if !b.askAt(b.bestAsk) {
		return nil
	}
	var out []PriceLevel
	for l := b.bestAsk; l < len(b.ladder); l++ {
		if pl, ok := b.collectLevel(l); ok {
			out = append(out, pl)
		}
	}
	return out
}

func (b *Book) collectLevel(lvl int) (PriceLevel, bool) {
	if b.ladder[lvl].head == NoHandle {
		return PriceLevel{}, false
	}
	pl := PriceLevel{Price: b.codec.Decode(int64(lvl))}
	for h := b.ladder[lvl].head; h != NoHandle; {
		rec, _ := b.pool.Get(h)
		pl.Quantity += rec.Quantity
		pl.Orders++
		h = rec.Next
	}
	return pl, true
}

// Depth renders a human-readable view of the top levels of the book for
// terminal diagnostics. The format is not a programmatic interface and not
// guaranteed stable.
func (b *Book) Depth(levels int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%15s | %14s | %s\n", "bid", "price", "ask")

	asks := b.AskLevels()
	if len(asks) > levels {
		asks = asks[:levels]
	}
	for i := len(asks) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%15s | %14s | %-d\n", "", asks[i].Price, asks[i].Quantity)
	}

	bids := b.BidLevels()
	if len(bids) > levels {
		bids = bids[:levels]
	}
	for _, pl := range bids {
		fmt.Fprintf(&sb, "%15d | %14s |\n", pl.Quantity, pl.Price)
	}
	return sb.String()
}
