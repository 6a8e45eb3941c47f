package book

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrPoolExhausted is returned when every slot in the pool is resident.
	// The condition is recoverable: capacity frees up as resting orders
	// fill or cancel.
	ErrPoolExhausted = errors.New("book: order pool exhausted")
	// ErrNotFound is returned for handles that were never allocated or
	// have already been freed.
	ErrNotFound = errors.New("book: order not found")
)

// Handle is an opaque, stable reference to a pool slot. It is not a memory
// address: records never move, and a handle stays valid exactly until its
// record is freed by a full fill or a cancel. NoHandle is never allocated.
type Handle uint64

// NoHandle marks the absence of a handle: an empty successor link, or the
// aggressor leg of a match report.
const NoHandle Handle = 0

// Record is a resting order resident in the pool. Next and Prev chain the
// FIFO queue of its price level; Level is the owning ladder index so a
// cancel can splice the record out in O(1).
type Record struct {
	Quantity int64
	Owner    common.Address
	Side     Side
	Level    int32
	Next     Handle
	Prev     Handle
}

type poolSlot struct {
	rec  Record
	next int32 // free-list link, -1 terminates
	live bool
}

// Pool is a fixed-capacity slot allocator for resting-order records.
// Allocate, Get and Free are all O(1). Capacity never grows.
type Pool struct {
	slots    []poolSlot
	freeHead int32
	inUse    int
}

// NewPool allocates every slot up front and threads them onto the free list.
func NewPool(capacity int) *Pool {
	if capacity <= 0 {
		panic(fmt.Sprintf("book: pool capacity must be positive, got %d", capacity))
	}
	p := &Pool{slots: make([]poolSlot, capacity), freeHead: 0}
	for i := range p.slots {
		p.slots[i].next = int32(i + 1)
	}
	p.slots[capacity-1].next = -1
	return p
}

// Cap returns the fixed capacity chosen at construction.
func (p *Pool) Cap() int { return len(p.slots) }

// InUse returns the number of resident records.
func (p *Pool) InUse() int { return p.inUse }

// Allocate stores rec in a free slot and returns its handle, or
// ErrPoolExhausted when all slots are resident.
func (p *Pool) Allocate(rec Record) (Handle, error) {
	if p.freeHead < 0 {
		return NoHandle, ErrPoolExhausted
	}
	i := p.freeHead
	slot := &p.slots[i]
	p.freeHead = slot.next
	slot.rec = rec
	slot.live = true
	p.inUse++
	// handles are slot index + 1, keeping NoHandle out of the range
	return Handle(i + 1), nil
}

// Get resolves a handle to its record. Stale or out-of-range handles fail
// with ErrNotFound rather than exposing reused memory. Handles beyond
// MaxInt64 wrap negative under the int conversion, so the low bound is
// checked too.
func (p *Pool) Get(h Handle) (*Record, error) {
	i := int(h) - 1
	if h == NoHandle || i < 0 || i >= len(p.slots) || !p.slots[i].live {
		return nil, fmt.Errorf("%w: handle %d", ErrNotFound, h)
	}
	return &p.slots[i].rec, nil
}

// Free returns a slot to the free list. Freeing a stale handle fails with
// ErrNotFound; the slot is not reused until freed exactly once.
func (p *Pool) Free(h Handle) error {
	i := int(h) - 1
	if h == NoHandle || i < 0 || i >= len(p.slots) || !p.slots[i].live {
		return fmt.Errorf("%w: handle %d", ErrNotFound, h)
	}
	slot := &p.slots[i]
	slot.live = false
	slot.rec = Record{}
	slot.next = p.freeHead
	p.freeHead = int32(i)
	p.inUse--
	return nil
}
