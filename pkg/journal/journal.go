// Package journal persists the execution-report stream drained from the
// matching engine after every call. Reports are appended to a Pebble
// keyspace ordered by per-symbol sequence number, so recent-history queries
// and full exports are range scans.
package journal

import (
	"encoding/binary"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/quantsim/lob/pkg/book"
)

// Entry is one journalled execution report.
type Entry struct {
	Seq      uint64 `json:"seq"`
	Symbol   string `json:"symbol"`
	State    string `json:"state"`
	Quantity int64  `json:"quantity"`
	Handle   uint64 `json:"handle,omitempty"`
	Side     string `json:"side"`
	Price    string `json:"price"`
	Owner    string `json:"owner"`
	At       int64  `json:"at"` // unix milliseconds
}

// Journal is a pebble-backed append-only log of execution reports.
// Appends from multiple markets are safe; the sequence counters are
// guarded by a mutex.
type Journal struct {
	db *pebble.DB

	mu  sync.Mutex
	seq map[string]uint64 // next sequence number per symbol
}

// key schema: r:<symbol>:<8-byte big-endian seq>
func reportKey(symbol string, seq uint64) []byte {
	k := make([]byte, 0, 2+len(symbol)+1+8)
	k = append(k, 'r', ':')
	k = append(k, symbol...)
	k = append(k, ':')
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return append(k, b[:]...)
}

func reportPrefix(symbol string) []byte {
	return []byte("r:" + symbol + ":")
}

// keyUpperBound returns the exclusive upper bound for a prefix scan.
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}

// Open opens (or creates) a journal at path.
func Open(path string) (*Journal, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{db: db, seq: make(map[string]uint64)}, nil
}

// Close flushes and closes the underlying store.
func (j *Journal) Close() error { return j.db.Close() }

// nextSeq resumes the per-symbol counter from the store on first use. An
// iterator failure must not be mistaken for an empty keyspace: restarting
// at zero would overwrite existing history.
func (j *Journal) nextSeq(symbol string) (uint64, error) {
	if s, ok := j.seq[symbol]; ok {
		j.seq[symbol] = s + 1
		return s, nil
	}
	prefix := reportPrefix(symbol)
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return 0, fmt.Errorf("resume sequence for %s: %w", symbol, err)
	}
	var s uint64
	if iter.Last() && iter.Valid() {
		k := iter.Key()
		s = binary.BigEndian.Uint64(k[len(k)-8:]) + 1
	}
	if err := iter.Close(); err != nil {
		return 0, fmt.Errorf("resume sequence for %s: %w", symbol, err)
	}
	j.seq[symbol] = s + 1
	return s, nil
}

// Append journals one call's drained reports in order.
func (j *Journal) Append(symbol string, reports []book.ExecutionReport) error {
	if len(reports) == 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now().UnixMilli()
	batch := j.db.NewBatch()
	defer batch.Close()

	for _, r := range reports {
		seq, err := j.nextSeq(symbol)
		if err != nil {
			return err
		}
		e := Entry{
			Seq:      seq,
			Symbol:   symbol,
			State:    r.State.String(),
			Quantity: r.Quantity,
			Handle:   uint64(r.Handle),
			Side:     r.Side.String(),
			Price:    r.Limit.String(),
			Owner:    r.Owner.Hex(),
			At:       now,
		}
		val, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		if err := batch.Set(reportKey(symbol, seq), val, nil); err != nil {
			return fmt.Errorf("batch report: %w", err)
		}
	}
	if err := batch.Commit(pebble.NoSync); err != nil {
		return fmt.Errorf("commit reports: %w", err)
	}
	return nil
}

// Recent returns up to limit of the most recently journalled entries for a
// symbol, newest first.
func (j *Journal) Recent(symbol string, limit int) ([]Entry, error) {
	prefix := reportPrefix(symbol)
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("iter reports: %w", err)
	}
	defer iter.Close()

	var out []Entry
	for ok := iter.Last(); ok && len(out) < limit; ok = iter.Prev() {
		var e Entry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			continue // skip torn entries
		}
		out = append(out, e)
	}
	return out, nil
}

var csvHeader = []string{"seq", "state", "quantity", "handle", "side", "price", "owner", "at"}

// ExportCSV writes a symbol's full report history as delimiter-separated
// values, oldest first, for offline analysis.
func (j *Journal) ExportCSV(w io.Writer, symbol string) error {
	prefix := reportPrefix(symbol)
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return fmt.Errorf("iter reports: %w", err)
	}
	defer iter.Close()

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for ok := iter.First(); ok; ok = iter.Next() {
		var e Entry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			continue
		}
		row := []string{
			strconv.FormatUint(e.Seq, 10),
			e.State,
			strconv.FormatInt(e.Quantity, 10),
			strconv.FormatUint(e.Handle, 10),
			e.Side,
			e.Price,
			e.Owner,
			strconv.FormatInt(e.At, 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
