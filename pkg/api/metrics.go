package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lob",
		Name:      "orders_total",
		Help:      "Orders submitted, by outcome.",
	}, []string{"symbol", "result"})

	reportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lob",
		Name:      "reports_total",
		Help:      "Execution reports produced, by state.",
	}, []string{"symbol", "state"})

	matchedQuantity = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lob",
		Name:      "matched_quantity_total",
		Help:      "Base quantity matched (aggressor legs only).",
	}, []string{"symbol"})

	wsClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lob",
		Name:      "ws_clients",
		Help:      "Connected WebSocket clients.",
	})
)
