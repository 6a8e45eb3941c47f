package api

// Request and response types for the REST endpoints and WebSocket messages.

// MarketInfo is a market's static configuration.
type MarketInfo struct {
	Symbol       string `json:"symbol"`     // e.g. "ACME-USD"
	BaseAsset    string `json:"baseAsset"`  // e.g. "ACME"
	QuoteAsset   string `json:"quoteAsset"` // e.g. "USD"
	Currency     string `json:"currency"`   // ISO-4217 code
	Status       string `json:"status"`     // "active", "paused", "settled"
	MinPrice     string `json:"minPrice"`   // lower bound of the price interval
	MaxPrice     string `json:"maxPrice"`   // upper bound of the price interval
	Lot          int64  `json:"lot"`        // price denominator (sub-units per unit)
	PoolSize     int    `json:"poolSize"`   // resting-order capacity
	MinOrderSize int64  `json:"minOrderSize"`
	MaxOrderSize int64  `json:"maxOrderSize"`
}

// PriceLevel is one aggregated ladder level.
type PriceLevel struct {
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
	Orders   int    `json:"orders"`
}

// DepthSnapshot is the aggregated book state, best levels first.
type DepthSnapshot struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"` // sorted high to low
	Asks      []PriceLevel `json:"asks"` // sorted low to high
	BestBid   string       `json:"bestBid,omitempty"`
	BestAsk   string       `json:"bestAsk,omitempty"`
	Timestamp int64        `json:"timestamp"` // unix milliseconds
}

// ReportInfo is one execution report as served over the API.
type ReportInfo struct {
	Seq      uint64 `json:"seq"`
	State    string `json:"state"` // "invalid", "cancel", "match", "placement"
	Quantity int64  `json:"quantity"`
	Handle   uint64 `json:"handle,omitempty"` // resting leg only
	Side     string `json:"side"`
	Price    string `json:"price"`
	Owner    string `json:"owner"`
	At       int64  `json:"at"` // unix milliseconds
}

// SubmitOrderRequest is the payload for POST /api/v1/orders.
type SubmitOrderRequest struct {
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`     // "buy" or "sell"
	Quantity int64  `json:"quantity"` // base units
	Price    string `json:"price"`    // decimal string, e.g. "100.50"
	Lifetime string `json:"lifetime"` // "GTC", "IOC", "FOK"; defaults to GTC
	Owner    string `json:"owner"`    // hex address
}

// SubmitOrderResponse echoes the reports the order produced. Handle is set
// when a remainder was placed on the book.
type SubmitOrderResponse struct {
	Status  string       `json:"status"` // "accepted", "rejected"
	Handle  uint64       `json:"handle,omitempty"`
	Reports []ReportInfo `json:"reports"`
}

// CancelOrderRequest is the payload for POST /api/v1/orders/cancel.
type CancelOrderRequest struct {
	Symbol string `json:"symbol"`
	Handle uint64 `json:"handle"`
}

// CancelOrderResponse carries the cancel report.
type CancelOrderResponse struct {
	Status string     `json:"status"`
	Report ReportInfo `json:"report"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WSSubscribeRequest is sent by a client to manage channel subscriptions,
// e.g. {"op":"subscribe","channels":["depth:ACME-USD","reports:ACME-USD"]}.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// DepthUpdate is broadcast on the "depth:<symbol>" channel after each call
// that changed the book.
type DepthUpdate struct {
	Type      string       `json:"type"` // "depth"
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp int64        `json:"timestamp"`
}

// ReportUpdate is broadcast on the "reports:<symbol>" channel with one
// call's drained reports, in stream order.
type ReportUpdate struct {
	Type      string       `json:"type"` // "reports"
	Symbol    string       `json:"symbol"`
	Reports   []ReportInfo `json:"reports"`
	Timestamp int64        `json:"timestamp"`
}
