package repository

import (
	"context"

	"PerpDash/internal/domain/models"
)

// PriceOracle returns the live price for an oracle feed. Never cached.
type PriceOracle interface {
	LatestPrice(ctx context.Context, feedID string) (models.PriceQuote, error)
}

// CandleProvider returns historical candles for a market over the last `days` days.
// Implementations return models.ErrUpstreamRateLimited or models.ErrUpstreamFormat (wrapped) on the
// expected failure modes.
type CandleProvider interface {
	OHLC(ctx context.Context, marketID string, days int) ([]models.Candle, error)
}

// Metrics records snapshot and upstream outcomes.
type Metrics interface {
	RecordSnapshot(market, outcome string)
	RecordCandleSource(market string, source models.CandleSource)
	RecordUpstreamError(provider, kind string)
	RecordUpstreamLatency(provider string, seconds float64)
	RecordLastPrice(market string, price float64)
}

// CandleCache keeps the last successful candle series per (market, timeframe).
type CandleCache interface {
	// Fresh returns the entry only while it is within the TTL.
	Fresh(marketID string, tf Timeframe) ([]models.Candle, bool)
	// Stale returns the entry regardless of age; used for degraded fallback.
	Stale(marketID string, tf Timeframe) ([]models.Candle, bool)
	Put(marketID string, tf Timeframe, candles []models.Candle)
}
