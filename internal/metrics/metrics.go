package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultOK     = "ok"
	ResultFailed = "failed"
	ResultStale  = "stale"
)

var (
	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "psb_generations_total",
			Help: "Total number of EA generations (by result).",
		},
		[]string{"result"},
	)

	GenerationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "psb_generation_duration_seconds",
			Help:    "Time spent generating one EA, its parameter file and its summary.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		},
	)

	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "psb_exports_total",
			Help: "Total number of project folders written (by result).",
		},
		[]string{"result"},
	)

	BridgeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "psb_bridge_requests_total",
			Help: "Telemetry requests received from the EA (by endpoint and result).",
		},
		[]string{"endpoint", "result"},
	)

	AccountBalance = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "psb_account_balance",
		Help: "Last balance reported by the EA.",
	})

	AccountEquity = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "psb_account_equity",
		Help: "Last equity reported by the EA.",
	})

	DailyDrawdown = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "psb_daily_drawdown_percent",
		Help: "Last daily drawdown reported by the EA.",
	})

	TotalDrawdown = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "psb_total_drawdown_percent",
		Help: "Last total drawdown reported by the EA.",
	})

	OpenPositions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "psb_open_positions",
		Help: "Number of positions in the last positions report.",
	})

	LastHeartbeat = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "psb_last_heartbeat_timestamp_seconds",
		Help: "Unix time of the last EA heartbeat.",
	})
)

func init() {
	prometheus.MustRegister(
		GenerationsTotal,
		GenerationDuration,
		ExportsTotal,
		BridgeRequests,
		AccountBalance,
		AccountEquity,
		DailyDrawdown,
		TotalDrawdown,
		OpenPositions,
		LastHeartbeat,
	)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
