package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trader_ticks_total",
		Help: "Completed decision cycles.",
	})

	IntentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trader_intents_total",
		Help: "Consensus outcomes by action and hold reason.",
	}, []string{"action", "reason"})

	GuardRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trader_guard_rejections_total",
		Help: "Pre-trade guard rejections by violation code.",
	}, []string{"code"})

	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trader_orders_total",
		Help: "Order submissions by final status.",
	}, []string{"status"})

	ExitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trader_exits_total",
		Help: "Realized exits by close reason.",
	}, []string{"reason"})

	RealizedPnl = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trader_realized_pnl",
		Help: "Cumulative realized pnl after fees.",
	})

	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trader_open_positions",
		Help: "Currently open positions.",
	})

	KillSwitchActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trader_kill_switch_active",
		Help: "1 while the daily kill-switch is suppressing entries.",
	})

	SnapshotFetchSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trader_snapshot_fetch_seconds",
		Help:    "Latency of the per-tick snapshot fetch.",
		Buckets: prometheus.DefBuckets,
	})
)

// ServeMetrics exposes /metrics on addr. It blocks, so callers run it
// in its own goroutine.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
