package book

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ReportState classifies an execution report.
type ReportState int8

const (
	// Invalid rejects an order message outright: zero quantity or a limit
	// outside the book's price interval. Nothing was mutated.
	Invalid ReportState = iota
	// Cancel records removed quantity: an IOC/FOK remainder, an explicit
	// cancel, or a remainder dropped on pool exhaustion.
	Cancel
	// Match records one fill leg. Every fill emits two Match reports: the
	// aggressor leg (no handle) immediately followed by the resting leg.
	Match
	// Placement records a remainder coming to rest in the ladder.
	Placement
)

func (s ReportState) String() string {
	switch s {
	case Invalid:
		return "invalid"
	case Cancel:
		return "cancel"
	case Match:
		return "match"
	case Placement:
		return "placement"
	}
	return "unknown"
}

// ExecutionReport is one entry of the book's append-only report stream.
// Every state change performed by Insert or Cancel is reported; the caller
// owns draining the stream after each call.
type ExecutionReport struct {
	State    ReportState
	Quantity int64
	// Handle identifies the resting order a report concerns. It is
	// NoHandle on aggressor match legs and on reports for orders that
	// never rested (rejections, IOC/FOK remainders).
	Handle Handle
	Side   Side
	Limit  Quote
	Owner  common.Address
}

// Resting reports whether the report refers to an order resident in the
// pool (as opposed to the aggressor leg of a fill or a never-rested order).
func (r ExecutionReport) Resting() bool { return r.Handle != NoHandle }

func (r ExecutionReport) String() string {
	return fmt.Sprintf("%s %s %s %d@%s", r.State, r.Owner.Hex(), r.Side, r.Quantity, r.Limit)
}
