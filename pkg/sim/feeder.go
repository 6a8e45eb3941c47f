// Package sim generates synthetic order flow against an exchange for load
// and soak testing.
package sim

import (
	"context"
	"math/big"
	"math/rand"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/quantsim/lob/pkg/book"
	"github.com/quantsim/lob/pkg/exchange"
	"github.com/quantsim/lob/pkg/util"
)

// Config controls the shape of the generated flow.
type Config struct {
	Symbol    string
	Interval  time.Duration // time between batches
	BatchSize int           // orders per batch
	Traders   int           // simulated owner addresses
	Seed      int64         // 0 seeds from the wall clock
	CancelPct int           // percent of actions that cancel a resting order
}

// DefaultConfig is a modest load: 100 actions/sec from 50 traders.
func DefaultConfig(symbol string) Config {
	return Config{
		Symbol:    symbol,
		Interval:  100 * time.Millisecond,
		BatchSize: 10,
		Traders:   50,
		CancelPct: 10,
	}
}

// Generator produces random limit orders inside a market's price interval.
// Handles returned by GTC placements are tracked so cancels target real
// resting orders.
type Generator struct {
	cfg     Config
	rng     *rand.Rand
	traders []common.Address
	min     book.Quote
	span    int64
	lot     int64

	resting []book.Handle
}

// NewGenerator builds a generator for the given price interval.
func NewGenerator(cfg Config, min, max book.Quote) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	traders := make([]common.Address, cfg.Traders)
	for i := range traders {
		traders[i] = common.BigToAddress(big.NewInt(int64(i) + 1))
	}
	return &Generator{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		traders: traders,
		min:     min,
		span:    max.Amount - min.Amount + 1,
		lot:     min.Lot,
	}
}

// NextOrder draws a random order: 70% GTC, 20% IOC, 10% FOK, uniform side
// and price within the interval.
func (g *Generator) NextOrder() book.LimitOrder {
	var lifetime book.Lifetime
	switch r := g.rng.Intn(100); {
	case r < 70:
		lifetime = book.GoodTillCancel
	case r < 90:
		lifetime = book.ImmediateOrCancel
	default:
		lifetime = book.FillOrKill
	}

	side := book.Buy
	if g.rng.Intn(2) == 1 {
		side = book.Sell
	}

	return book.LimitOrder{
		Side:     side,
		Quantity: int64(g.rng.Intn(100)) + 1,
		Limit:    book.NewQuote(g.min.Amount+g.rng.Int63n(g.span), g.lot),
		Lifetime: lifetime,
		Owner:    g.traders[g.rng.Intn(len(g.traders))],
	}
}

// Track remembers a placed handle as a future cancel target.
func (g *Generator) Track(h book.Handle) {
	g.resting = append(g.resting, h)
}

// NextCancel pops a random tracked handle, or NoHandle when none rest.
func (g *Generator) NextCancel() book.Handle {
	if len(g.resting) == 0 {
		return book.NoHandle
	}
	i := g.rng.Intn(len(g.resting))
	h := g.resting[i]
	g.resting[i] = g.resting[len(g.resting)-1]
	g.resting = g.resting[:len(g.resting)-1]
	return h
}

// wantCancel rolls the order-vs-cancel mix.
func (g *Generator) wantCancel() bool {
	return g.rng.Intn(100) < g.cfg.CancelPct
}

// Feeder drives generated flow into an exchange.
type Feeder struct {
	ex    *exchange.Exchange
	gen   *Generator
	cfg   Config
	clock util.Clock
	log   *zap.SugaredLogger
}

// NewFeeder wires a feeder to an exchange. The clock defaults to real time.
func NewFeeder(ex *exchange.Exchange, cfg Config, clock util.Clock, logger *zap.SugaredLogger) (*Feeder, error) {
	m, err := ex.Market(cfg.Symbol)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if clock == nil {
		clock = util.RealClock{}
	}
	return &Feeder{
		ex:    ex,
		gen:   NewGenerator(cfg, m.Params.MinQuote, m.Params.MaxQuote),
		cfg:   cfg,
		clock: clock,
		log:   logger,
	}, nil
}

// Run feeds batches until the context is cancelled. Blocks; run it in a
// goroutine.
func (f *Feeder) Run(ctx context.Context) {
	start := f.clock.Now()
	total := 0

	f.log.Infow("feeder_started",
		"symbol", f.cfg.Symbol,
		"batch", f.cfg.BatchSize,
		"interval", f.cfg.Interval,
		"traders", f.cfg.Traders)

	for {
		select {
		case <-ctx.Done():
			elapsed := f.clock.Now().Sub(start)
			f.log.Infow("feeder_stopped", "actions", total, "elapsed", elapsed.Round(time.Second))
			return
		case <-f.clock.After(f.cfg.Interval):
			total += f.Step(f.cfg.BatchSize)
		}
	}
}

// Step performs one batch of actions and returns how many were attempted.
func (f *Feeder) Step(n int) int {
	for i := 0; i < n; i++ {
		if f.gen.wantCancel() {
			if h := f.gen.NextCancel(); h != book.NoHandle {
				// the order may have been filled since placement
				if _, err := f.ex.Cancel(f.cfg.Symbol, h); err != nil {
					f.log.Debugw("feeder_cancel_stale", "handle", h)
				}
			}
			continue
		}

		reports, err := f.ex.Submit(f.cfg.Symbol, f.gen.NextOrder())
		if err != nil {
			f.log.Debugw("feeder_submit_failed", "err", err)
			continue
		}
		for _, rep := range reports {
			if rep.State == book.Placement {
				f.gen.Track(rep.Handle)
			}
		}
	}
	return n
}
