// Package exchange is the application layer over the matching core: it owns
// the market registry, serializes access to each single-threaded book,
// drains the execution-report stream after every call, and fans the drained
// reports out to the journal and any subscribed listener.
package exchange

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/quantsim/lob/pkg/book"
	"github.com/quantsim/lob/pkg/journal"
	"github.com/quantsim/lob/pkg/market"
)

// Exchange routes order flow to per-symbol books.
type Exchange struct {
	registry *market.Registry
	journal  *journal.Journal // optional
	log      *zap.SugaredLogger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-symbol book serialization

	// OnReport, when set, receives every drained report batch. Invoked
	// synchronously after the call that produced it; keep it fast.
	OnReport func(symbol string, reports []book.ExecutionReport)
}

// New builds an exchange. The journal may be nil to run without
// persistence (tests, benchmarks).
func New(logger *zap.SugaredLogger, j *journal.Journal) *Exchange {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Exchange{
		registry: market.NewRegistry(),
		journal:  j,
		log:      logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// AddMarket registers a market and its book.
func (e *Exchange) AddMarket(m *market.Market) error {
	if err := e.registry.Register(m); err != nil {
		return err
	}
	e.mu.Lock()
	e.locks[m.Symbol] = &sync.Mutex{}
	e.mu.Unlock()

	e.log.Infow("market_registered",
		"symbol", m.Symbol,
		"interval", fmt.Sprintf("[%s, %s]", m.Params.MinQuote, m.Params.MaxQuote),
		"pool_size", m.Params.PoolSize)
	return nil
}

// Markets lists the registered markets.
func (e *Exchange) Markets() []*market.Market { return e.registry.List() }

// Market resolves one market by symbol.
func (e *Exchange) Market(symbol string) (*market.Market, error) {
	return e.registry.Get(symbol)
}

func (e *Exchange) lockFor(symbol string) (*sync.Mutex, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[symbol]
	if !ok {
		return nil, fmt.Errorf("market %s not found", symbol)
	}
	return l, nil
}

// Submit validates an order against its market and inserts it into the
// book. The book's whole report stream is drained, journalled and fanned
// out before Submit returns; the returned slice is this call's reports.
func (e *Exchange) Submit(symbol string, ord book.LimitOrder) ([]book.ExecutionReport, error) {
	m, err := e.registry.Get(symbol)
	if err != nil {
		return nil, err
	}
	if err := m.ValidateOrder(ord); err != nil {
		return nil, fmt.Errorf("submit %s: %w", symbol, err)
	}

	l, err := e.lockFor(symbol)
	if err != nil {
		return nil, err
	}
	l.Lock()
	reports, insErr := m.Book().Insert(ord)
	drained := m.Book().Drain()
	l.Unlock()

	e.publish(symbol, drained)
	if insErr != nil {
		e.log.Warnw("order_rejected", "symbol", symbol, "order", ord.String(), "err", insErr)
		return reports, insErr
	}
	return reports, nil
}

// Cancel removes a resting order by handle.
func (e *Exchange) Cancel(symbol string, h book.Handle) (book.ExecutionReport, error) {
	m, err := e.registry.Get(symbol)
	if err != nil {
		return book.ExecutionReport{}, err
	}
	l, err := e.lockFor(symbol)
	if err != nil {
		return book.ExecutionReport{}, err
	}

	l.Lock()
	rep, cErr := m.Book().Cancel(h)
	drained := m.Book().Drain()
	l.Unlock()

	e.publish(symbol, drained)
	if cErr != nil {
		return book.ExecutionReport{}, cErr
	}
	return rep, nil
}

// Snapshot returns aggregated bid and ask depth, best-first.
func (e *Exchange) Snapshot(symbol string) (bids, asks []book.PriceLevel, err error) {
	m, err := e.registry.Get(symbol)
	if err != nil {
		return nil, nil, err
	}
	l, err := e.lockFor(symbol)
	if err != nil {
		return nil, nil, err
	}
	l.Lock()
	defer l.Unlock()
	return m.Book().BidLevels(), m.Book().AskLevels(), nil
}

// TopOfBook returns the current best bid and ask.
func (e *Exchange) TopOfBook(symbol string) (bid, ask book.Quote, haveBid, haveAsk bool, err error) {
	m, err := e.registry.Get(symbol)
	if err != nil {
		return book.Quote{}, book.Quote{}, false, false, err
	}
	l, err := e.lockFor(symbol)
	if err != nil {
		return book.Quote{}, book.Quote{}, false, false, err
	}
	l.Lock()
	defer l.Unlock()
	bid, haveBid = m.Book().Bid()
	ask, haveAsk = m.Book().Ask()
	return bid, ask, haveBid, haveAsk, nil
}

// Depth renders the diagnostic depth dump for a symbol.
func (e *Exchange) Depth(symbol string, levels int) (string, error) {
	m, err := e.registry.Get(symbol)
	if err != nil {
		return "", err
	}
	l, err := e.lockFor(symbol)
	if err != nil {
		return "", err
	}
	l.Lock()
	defer l.Unlock()
	return m.Book().Depth(levels), nil
}

func (e *Exchange) publish(symbol string, reports []book.ExecutionReport) {
	if len(reports) == 0 {
		return
	}
	if e.journal != nil {
		if err := e.journal.Append(symbol, reports); err != nil {
			e.log.Errorw("journal_append_failed", "symbol", symbol, "reports", len(reports), "err", err)
		}
	}
	if e.OnReport != nil {
		e.OnReport(symbol, reports)
	}
}
