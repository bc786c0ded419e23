package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine collects the transaction engine's operational metrics. One instance
// is shared by the daemon's submission path and the replay service.
type Engine struct {
	Applied       *prometheus.CounterVec
	Rejected      *prometheus.CounterVec
	ApplySeconds  prometheus.Histogram
	ReplaySeconds prometheus.Histogram
	NextTxID      prometheus.Gauge
}

// NewEngine registers the engine collectors with reg.
func NewEngine(reg prometheus.Registerer) *Engine {
	factory := promauto.With(reg)
	return &Engine{
		Applied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meterchain",
			Subsystem: "engine",
			Name:      "txs_applied_total",
			Help:      "Accepted transactions by kind.",
		}, []string{"kind"}),
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meterchain",
			Subsystem: "engine",
			Name:      "txs_rejected_total",
			Help:      "Rejected transactions by kind and error code.",
		}, []string{"kind", "code"}),
		ApplySeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "meterchain",
			Subsystem: "engine",
			Name:      "apply_seconds",
			Help:      "Wall time of validate+apply per transaction.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
		}),
		ReplaySeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "meterchain",
			Subsystem: "engine",
			Name:      "replay_seconds",
			Help:      "Wall time of full replay-to-tip runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		}),
		NextTxID: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "meterchain",
			Subsystem: "engine",
			Name:      "next_tx_id",
			Help:      "Id the next appended transaction will receive.",
		}),
	}
}
