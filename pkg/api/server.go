// Package api exposes the exchange over HTTP: REST endpoints for market
// metadata, depth and report history, order submission and cancellation,
// Prometheus metrics, and a WebSocket stream of depth and report updates.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantsim/lob/pkg/book"
	"github.com/quantsim/lob/pkg/exchange"
	"github.com/quantsim/lob/pkg/journal"
	"github.com/quantsim/lob/pkg/market"
)

// Server handles REST and WebSocket connections.
type Server struct {
	ex      *exchange.Exchange
	journal *journal.Journal // optional, serves report history
	router  *mux.Router
	hub     *Hub
	log     *zap.SugaredLogger
}

// NewServer wires the routes. The journal may be nil; history endpoints
// then return 404.
func NewServer(ex *exchange.Exchange, j *journal.Journal, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{
		ex:      ex,
		journal: j,
		router:  mux.NewRouter(),
		hub:     NewHub(logger),
		log:     logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/markets", s.handleGetMarkets).Methods("GET")
	api.HandleFunc("/markets/{symbol}", s.handleGetMarket).Methods("GET")
	api.HandleFunc("/markets/{symbol}/depth", s.handleGetDepth).Methods("GET")
	api.HandleFunc("/markets/{symbol}/reports", s.handleGetReports).Methods("GET")
	api.HandleFunc("/markets/{symbol}/reports.csv", s.handleExportReports).Methods("GET")

	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the WebSocket hub and serves HTTP on addr. Blocks.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.log.Infow("api_listening", "addr", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

func marketInfo(m *market.Market) MarketInfo {
	return MarketInfo{
		Symbol:       m.Symbol,
		BaseAsset:    m.BaseAsset,
		QuoteAsset:   m.QuoteAsset,
		Currency:     m.Params.Currency.Code,
		Status:       m.Status.String(),
		MinPrice:     m.Params.MinQuote.String(),
		MaxPrice:     m.Params.MaxQuote.String(),
		Lot:          m.Params.MinQuote.Lot,
		PoolSize:     m.Params.PoolSize,
		MinOrderSize: m.Params.MinOrderSize,
		MaxOrderSize: m.Params.MaxOrderSize,
	}
}

func toPriceLevels(levels []book.PriceLevel) []PriceLevel {
	out := make([]PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = PriceLevel{Price: l.Price.String(), Quantity: l.Quantity, Orders: l.Orders}
	}
	return out
}

func toReportInfo(r book.ExecutionReport) ReportInfo {
	return ReportInfo{
		State:    r.State.String(),
		Quantity: r.Quantity,
		Handle:   uint64(r.Handle),
		Side:     r.Side.String(),
		Price:    r.Limit.String(),
		Owner:    r.Owner.Hex(),
	}
}

func (s *Server) handleGetMarkets(w http.ResponseWriter, r *http.Request) {
	markets := s.ex.Markets()
	response := make([]MarketInfo, len(markets))
	for i, m := range markets {
		response[i] = marketInfo(m)
	}
	respondJSON(w, response)
}

func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	m, err := s.ex.Market(mux.Vars(r)["symbol"])
	if err != nil {
		respondError(w, http.StatusNotFound, "market not found", err.Error())
		return
	}
	respondJSON(w, marketInfo(m))
}

func (s *Server) handleGetDepth(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	bids, asks, err := s.ex.Snapshot(symbol)
	if err != nil {
		respondError(w, http.StatusNotFound, "market not found", err.Error())
		return
	}

	snap := DepthSnapshot{
		Symbol:    symbol,
		Bids:      toPriceLevels(bids),
		Asks:      toPriceLevels(asks),
		Timestamp: time.Now().UnixMilli(),
	}
	if len(bids) > 0 {
		snap.BestBid = bids[0].Price.String()
	}
	if len(asks) > 0 {
		snap.BestAsk = asks[0].Price.String()
	}
	respondJSON(w, snap)
}

func (s *Server) handleGetReports(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		respondError(w, http.StatusNotFound, "report history disabled", "")
		return
	}
	symbol := mux.Vars(r)["symbol"]
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	entries, err := s.journal.Recent(symbol, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "report query failed", err.Error())
		return
	}
	response := make([]ReportInfo, len(entries))
	for i, e := range entries {
		response[i] = ReportInfo{
			Seq:      e.Seq,
			State:    e.State,
			Quantity: e.Quantity,
			Handle:   e.Handle,
			Side:     e.Side,
			Price:    e.Price,
			Owner:    e.Owner,
			At:       e.At,
		}
	}
	respondJSON(w, response)
}

func (s *Server) handleExportReports(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		respondError(w, http.StatusNotFound, "report history disabled", "")
		return
	}
	symbol := mux.Vars(r)["symbol"]
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+symbol+"-reports.csv")
	if err := s.journal.ExportCSV(w, symbol); err != nil {
		s.log.Errorw("csv_export_failed", "symbol", symbol, "err", err)
	}
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	m, err := s.ex.Market(req.Symbol)
	if err != nil {
		respondError(w, http.StatusNotFound, "market not found", err.Error())
		return
	}

	var side book.Side
	switch req.Side {
	case "buy":
		side = book.Buy
	case "sell":
		side = book.Sell
	default:
		respondError(w, http.StatusBadRequest, "invalid side", "want buy or sell")
		return
	}

	lifetime := book.GoodTillCancel
	if req.Lifetime != "" {
		if lifetime, err = book.ParseLifetime(req.Lifetime); err != nil {
			respondError(w, http.StatusBadRequest, "invalid lifetime", err.Error())
			return
		}
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid price", err.Error())
		return
	}
	if !common.IsHexAddress(req.Owner) {
		respondError(w, http.StatusBadRequest, "invalid owner address", "")
		return
	}

	ord := book.LimitOrder{
		Side:     side,
		Quantity: req.Quantity,
		Limit:    book.QuoteFromDecimal(price, m.Params.MinQuote.Lot),
		Lifetime: lifetime,
		Owner:    common.HexToAddress(req.Owner),
	}

	reports, err := s.ex.Submit(req.Symbol, ord)
	if err != nil && !errors.Is(err, book.ErrPoolExhausted) {
		ordersTotal.WithLabelValues(req.Symbol, "rejected").Inc()
		respondError(w, http.StatusUnprocessableEntity, "order rejected", err.Error())
		return
	}

	s.observeReports(req.Symbol, reports)
	resp := SubmitOrderResponse{Status: "accepted", Reports: make([]ReportInfo, len(reports))}
	for i, rep := range reports {
		resp.Reports[i] = toReportInfo(rep)
		if rep.State == book.Placement {
			resp.Handle = uint64(rep.Handle)
		}
		if rep.State == book.Invalid {
			resp.Status = "rejected"
		}
	}
	result := "accepted"
	if resp.Status == "rejected" {
		result = "invalid"
	}
	ordersTotal.WithLabelValues(req.Symbol, result).Inc()
	respondJSON(w, resp)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	rep, err := s.ex.Cancel(req.Symbol, book.Handle(req.Handle))
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			respondError(w, http.StatusNotFound, "order not found", err.Error())
			return
		}
		respondError(w, http.StatusNotFound, "cancel failed", err.Error())
		return
	}

	reportsTotal.WithLabelValues(req.Symbol, rep.State.String()).Inc()
	respondJSON(w, CancelOrderResponse{Status: "cancelled", Report: toReportInfo(rep)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// observeReports updates per-state counters for one call's reports.
func (s *Server) observeReports(symbol string, reports []book.ExecutionReport) {
	for _, rep := range reports {
		reportsTotal.WithLabelValues(symbol, rep.State.String()).Inc()
		if rep.State == book.Match && !rep.Resting() {
			matchedQuantity.WithLabelValues(symbol).Add(float64(rep.Quantity))
		}
	}
}

// BroadcastReports pushes one call's drained reports to WebSocket
// subscribers of "reports:<symbol>", then a fresh depth snapshot to
// "depth:<symbol>". Wire this to exchange.OnReport.
func (s *Server) BroadcastReports(symbol string, reports []book.ExecutionReport) {
	now := time.Now().UnixMilli()

	upd := ReportUpdate{Type: "reports", Symbol: symbol, Timestamp: now}
	upd.Reports = make([]ReportInfo, len(reports))
	for i, rep := range reports {
		upd.Reports[i] = toReportInfo(rep)
	}
	s.hub.BroadcastToChannel("reports:"+symbol, upd)

	bids, asks, err := s.ex.Snapshot(symbol)
	if err != nil {
		return
	}
	s.hub.BroadcastToChannel("depth:"+symbol, DepthUpdate{
		Type:      "depth",
		Symbol:    symbol,
		Bids:      toPriceLevels(bids),
		Asks:      toPriceLevels(asks),
		Timestamp: now,
	})
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: error, Message: message})
}
