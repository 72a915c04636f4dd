package models

import "time"

// Candle is one OHLC bucket. Time is unix seconds.
type Candle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Market describes a tradable perpetual and how it is named by each upstream.
type Market struct {
	Key      string `json:"key"`    // "BTC", "XAUT"
	Name     string `json:"name"`   // display name
	FeedID   string `json:"feedId"` // Pyth price feed id, 0x-prefixed lowercase hex
	MarketID string `json:"market"` // CoinGecko coin id
}

// CandleSource tells where the candles of a snapshot came from.
type CandleSource string

const (
	SourceCache      CandleSource = "cache"
	SourceUpstream   CandleSource = "upstream"
	SourceStaleCache CandleSource = "stale_cache"
	SourceSynthetic  CandleSource = "synthetic"
)

// Degraded reports whether the candles are a fallback rather than fresh data.
func (s CandleSource) Degraded() bool {
	return s == SourceStaleCache || s == SourceSynthetic
}

// PriceQuote is a parsed oracle price.
type PriceQuote struct {
	FeedID      string
	Price       float64
	PublishTime time.Time
}

// MarketSnapshot is the aggregated view served to the chart.
type MarketSnapshot struct {
	MarketID  string
	Timeframe string
	Price     float64
	Candles   []Candle
	CacheHit  bool
	Source    CandleSource
}
