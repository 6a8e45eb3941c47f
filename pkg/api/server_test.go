package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quantsim/lob/pkg/book"
	"github.com/quantsim/lob/pkg/exchange"
	"github.com/quantsim/lob/pkg/market"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ex := exchange.New(nil, nil)
	m, err := market.New("ACME-USD", "ACME", "USD", market.Params{
		Currency:     market.USD,
		MinQuote:     book.NewQuote(9900, 100),
		MaxQuote:     book.NewQuote(10100, 100),
		PoolSize:     64,
		MinOrderSize: 1,
		MaxOrderSize: 1000,
	})
	if err != nil {
		t.Fatalf("market.New: %v", err)
	}
	if err := ex.AddMarket(m); err != nil {
		t.Fatalf("AddMarket: %v", err)
	}
	return NewServer(ex, nil, nil)
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestGetMarkets(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, "GET", "/api/v1/markets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var markets []MarketInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &markets); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(markets) != 1 || markets[0].Symbol != "ACME-USD" || markets[0].MinPrice != "99.00" {
		t.Errorf("markets = %+v", markets)
	}

	if rec := do(t, s, "GET", "/api/v1/markets/NOPE", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown market status = %d", rec.Code)
	}
}

func TestSubmitAndDepth(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, "POST", "/api/v1/orders", SubmitOrderRequest{
		Symbol:   "ACME-USD",
		Side:     "sell",
		Quantity: 10,
		Price:    "100.50",
		Lifetime: "GTC",
		Owner:    "0x00000000000000000000000000000000000a11ce",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp SubmitOrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "accepted" || resp.Handle == 0 {
		t.Fatalf("resp = %+v, want accepted with handle", resp)
	}
	if len(resp.Reports) != 1 || resp.Reports[0].State != "placement" {
		t.Errorf("reports = %+v", resp.Reports)
	}

	rec = do(t, s, "GET", "/api/v1/markets/ACME-USD/depth", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("depth status = %d", rec.Code)
	}
	var snap DepthSnapshot
	json.Unmarshal(rec.Body.Bytes(), &snap)
	if snap.BestAsk != "100.50" || len(snap.Asks) != 1 || snap.Asks[0].Quantity != 10 {
		t.Errorf("snapshot = %+v", snap)
	}

	// cancel it
	rec = do(t, s, "POST", "/api/v1/orders/cancel", CancelOrderRequest{Symbol: "ACME-USD", Handle: resp.Handle})
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, s, "POST", "/api/v1/orders/cancel", CancelOrderRequest{Symbol: "ACME-USD", Handle: resp.Handle})
	if rec.Code != http.StatusNotFound {
		t.Errorf("double cancel status = %d", rec.Code)
	}
}

func TestSubmitValidation(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		req  SubmitOrderRequest
		want int
	}{
		{"unknown symbol", SubmitOrderRequest{Symbol: "NOPE", Side: "buy", Quantity: 1, Price: "100.00", Owner: "0x0000000000000000000000000000000000000b0b"}, http.StatusNotFound},
		{"bad side", SubmitOrderRequest{Symbol: "ACME-USD", Side: "hold", Quantity: 1, Price: "100.00", Owner: "0x0000000000000000000000000000000000000b0b"}, http.StatusBadRequest},
		{"bad lifetime", SubmitOrderRequest{Symbol: "ACME-USD", Side: "buy", Quantity: 1, Price: "100.00", Lifetime: "AON", Owner: "0x0000000000000000000000000000000000000b0b"}, http.StatusBadRequest},
		{"bad price", SubmitOrderRequest{Symbol: "ACME-USD", Side: "buy", Quantity: 1, Price: "about tree fiddy", Owner: "0x0000000000000000000000000000000000000b0b"}, http.StatusBadRequest},
		{"bad owner", SubmitOrderRequest{Symbol: "ACME-USD", Side: "buy", Quantity: 1, Price: "100.00", Owner: "not-an-address"}, http.StatusBadRequest},
		{"oversize", SubmitOrderRequest{Symbol: "ACME-USD", Side: "buy", Quantity: 99999, Price: "100.00", Owner: "0x0000000000000000000000000000000000000b0b"}, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		if rec := do(t, s, "POST", "/api/v1/orders", tc.req); rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
}

func TestOutOfRangePriceIsRejectedNotPlaced(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, "POST", "/api/v1/orders", SubmitOrderRequest{
		Symbol:   "ACME-USD",
		Side:     "buy",
		Quantity: 5,
		Price:    "250.00",
		Owner:    "0x0000000000000000000000000000000000000b0b",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp SubmitOrderResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != "rejected" || len(resp.Reports) != 1 || resp.Reports[0].State != "invalid" {
		t.Errorf("resp = %+v, want rejection with invalid report", resp)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	if rec := do(t, s, "GET", "/health", nil); rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
}
