package metrics

import (
	"testing"

	"PerpDash/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordSnapshot("bitcoin", "ok")
	r.RecordSnapshot("bitcoin", "ok")
	r.RecordCandleSource("bitcoin", models.SourceSynthetic)
	r.RecordUpstreamError("coingecko", "rate_limited")
	r.RecordUpstreamLatency("pyth", 0.05)
	r.RecordLastPrice("bitcoin", 65000)

	if got := testutil.ToFloat64(r.snapshots.WithLabelValues("bitcoin", "ok")); got != 2 {
		t.Fatalf("expected 2 snapshots, got %f", got)
	}
	if got := testutil.ToFloat64(r.candleSource.WithLabelValues("bitcoin", "synthetic")); got != 1 {
		t.Fatalf("expected 1 synthetic, got %f", got)
	}
	if got := testutil.ToFloat64(r.lastPrice.WithLabelValues("bitcoin")); got != 65000 {
		t.Fatalf("unexpected last price %f", got)
	}
	if n := testutil.CollectAndCount(r.upstreamLatency); n != 1 {
		t.Fatalf("expected 1 latency series, got %d", n)
	}
}
