package book

import (
	"errors"
	"testing"
)

func mustCodec(t *testing.T, minAmount, maxAmount, lot int64) Codec {
	t.Helper()
	c, err := NewCodec(NewQuote(minAmount, lot), NewQuote(maxAmount, lot))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestCodecSpan(t *testing.T) {
	// $99.00 .. $101.00 in cents with sub-lot resolution
	c := mustCodec(t, 9900, 10100, 100)
	want := (10100-9900)*100 + 1
	if c.Span() != want {
		t.Fatalf("span = %d, want %d", c.Span(), want)
	}
}

func TestCodecRejectsBadIntervals(t *testing.T) {
	if _, err := NewCodec(NewQuote(10100, 100), NewQuote(9900, 100)); !errors.Is(err, ErrBadInterval) {
		t.Errorf("min > max: err = %v, want ErrBadInterval", err)
	}
	if _, err := NewCodec(NewQuote(9900, 100), NewQuote(10100, 1000)); !errors.Is(err, ErrBadInterval) {
		t.Errorf("lot mismatch: err = %v, want ErrBadInterval", err)
	}
}

func TestCodecEncodeRange(t *testing.T) {
	c := mustCodec(t, 9900, 10100, 100)

	tests := []struct {
		name   string
		quote  Quote
		wantOK bool
	}{
		{"below min", NewQuote(9800, 100), false},
		{"at min", NewQuote(9900, 100), true},
		{"interior", NewQuote(10050, 100), true},
		{"at max", NewQuote(10100, 100), true},
		{"above max", NewQuote(10101, 100), false},
		{"foreign lot", NewQuote(10050, 10), false},
	}
	for _, tt := range tests {
		if _, ok := c.Encode(tt.quote); ok != tt.wantOK {
			t.Errorf("%s: Encode ok = %v, want %v", tt.name, ok, tt.wantOK)
		}
	}
}

// Round trip must be exact for every encodable quote in the interval.
func TestCodecRoundTrip(t *testing.T) {
	c := mustCodec(t, 9900, 10100, 100)

	for amount := int64(9900); amount <= 10100; amount++ {
		q := NewQuote(amount, 100)
		idx, ok := c.Encode(q)
		if !ok {
			t.Fatalf("Encode(%s) failed inside interval", q)
		}
		back := c.Decode(idx)
		if back != q {
			t.Fatalf("Decode(Encode(%s)) = %s", q, back)
		}
	}
}

// Decoding an arbitrary interior level rounds down to the quote grid and
// stays within one tick.
func TestCodecDecodeRounding(t *testing.T) {
	c := mustCodec(t, 9900, 10100, 100)

	for _, lvl := range []int64{1, 99, 101, 14999, 15001} {
		q := c.Decode(lvl)
		idx, ok := c.Encode(q)
		if !ok {
			t.Fatalf("Decode(%d) = %s outside interval", lvl, q)
		}
		if diff := lvl - idx; diff < 0 || diff >= 100 {
			t.Errorf("Decode(%d) off by %d sub-ticks, want [0, 100)", lvl, diff)
		}
	}
}

func TestCodecDecodeOutOfRangePanics(t *testing.T) {
	c := mustCodec(t, 9900, 10100, 100)
	defer func() {
		if recover() == nil {
			t.Fatal("Decode past the ladder did not panic")
		}
	}()
	c.Decode(int64(c.Span()))
}
