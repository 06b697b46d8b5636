package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BarsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "goicc_bars_processed_total",
			Help: "Total number of candles fed through the trader.",
		},
	)

	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goicc_orders_submitted_total",
			Help: "Total number of orders submitted, by final status.",
		},
		[]string{"status"},
	)

	TradesClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goicc_trades_closed_total",
			Help: "Total number of closed trades, by exit reason.",
		},
		[]string{"reason"},
	)

	RiskVetoes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "goicc_risk_vetoes_total",
			Help: "Total number of entries blocked by the risk engine.",
		},
	)

	EventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "goicc_events_dropped_total",
			Help: "Events dropped because the bus queue was full.",
		},
	)

	DailyPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "goicc_daily_pnl",
			Help: "Running daily P&L in account currency.",
		},
	)

	PositionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "goicc_positions_open",
			Help: "Current number of open positions (0 or 1).",
		},
	)
)

func init() {
	prometheus.MustRegister(
		BarsProcessed, OrdersSubmitted, TradesClosed,
		RiskVetoes, EventsDropped, DailyPnL, PositionsOpen,
	)
}
