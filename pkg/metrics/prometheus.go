package metrics

import (
	"PerpDash/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	snapshots       *prometheus.CounterVec
	candleSource    *prometheus.CounterVec
	upstreamErrors  *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	lastPrice       *prometheus.GaugeVec
}

// New creates a Prometheus metrics recorder registered on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		snapshots: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perpdash_snapshots_total",
				Help: "Market snapshot requests by outcome",
			},
			[]string{"market", "outcome"},
		),
		candleSource: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perpdash_candle_source_total",
				Help: "Where snapshot candles came from (cache, upstream, stale_cache, synthetic)",
			},
			[]string{"market", "source"},
		),
		upstreamErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perpdash_upstream_errors_total",
				Help: "Upstream failures by provider and kind",
			},
			[]string{"provider", "kind"},
		),
		upstreamLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "perpdash_upstream_duration_seconds",
				Help:    "Upstream call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "perpdash_last_price",
				Help: "Last oracle price per market",
			},
			[]string{"market"},
		),
	}
}

// RecordSnapshot counts a snapshot request outcome (ok, degraded, unknown_market, price_unavailable, error).
func (r *Recorder) RecordSnapshot(market, outcome string) {
	r.snapshots.WithLabelValues(market, outcome).Inc()
}

// RecordCandleSource counts where candles were served from.
func (r *Recorder) RecordCandleSource(market string, source models.CandleSource) {
	r.candleSource.WithLabelValues(market, string(source)).Inc()
}

// RecordUpstreamError counts an upstream failure.
func (r *Recorder) RecordUpstreamError(provider, kind string) {
	r.upstreamErrors.WithLabelValues(provider, kind).Inc()
}

// RecordUpstreamLatency observes an upstream call duration.
func (r *Recorder) RecordUpstreamLatency(provider string, seconds float64) {
	r.upstreamLatency.WithLabelValues(provider).Observe(seconds)
}

// RecordLastPrice sets the last oracle price for a market.
func (r *Recorder) RecordLastPrice(market string, price float64) {
	r.lastPrice.WithLabelValues(market).Set(price)
}

// Nop discards everything. Useful when metrics are disabled and in tests.
type Nop struct{}

func (Nop) RecordSnapshot(string, string)                  {}
func (Nop) RecordCandleSource(string, models.CandleSource) {}
func (Nop) RecordUpstreamError(string, string)             {}
func (Nop) RecordUpstreamLatency(string, float64)          {}
func (Nop) RecordLastPrice(string, float64)                {}
