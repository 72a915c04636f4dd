package cache

import (
	"sync"
	"time"

	"PerpDash/internal/domain/models"
	domrepo "PerpDash/internal/domain/repository"
)

// DefaultTTL is how long a candle series is served without asking the provider again.
const DefaultTTL = time.Hour

// Entry is one cached candle series.
type Entry struct {
	Candles   []models.Candle
	FetchedAt time.Time
}

// Fresh reports whether the entry is younger than ttl at now.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// OHLCCache is the process-wide candle store. Entries are never evicted: an expired entry stays
// readable through Stale until the next successful Put replaces it.
type OHLCCache struct {
	mu  sync.RWMutex
	m   map[string]Entry
	ttl time.Duration
	now func() time.Time
}

// Option configures OHLCCache.
type Option func(*OHLCCache)

// WithTTL sets the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *OHLCCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *OHLCCache) {
		if now != nil {
			c.now = now
		}
	}
}

func NewOHLCCache(opts ...Option) *OHLCCache {
	c := &OHLCCache{
		m:   make(map[string]Entry),
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func key(marketID string, tf domrepo.Timeframe) string {
	return marketID + "_" + string(tf)
}

// Get returns the entry for (market, timeframe), fresh or not.
func (c *OHLCCache) Get(marketID string, tf domrepo.Timeframe) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.m[key(marketID, tf)]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	return Entry{Candles: cloneCandles(e.Candles), FetchedAt: e.FetchedAt}, true
}

// Put overwrites the entry and stamps it with the current time.
func (c *OHLCCache) Put(marketID string, tf domrepo.Timeframe, candles []models.Candle) {
	e := Entry{Candles: cloneCandles(candles), FetchedAt: c.now()}
	c.mu.Lock()
	c.m[key(marketID, tf)] = e
	c.mu.Unlock()
}

// Fresh returns the candles only while the entry is within the TTL.
func (c *OHLCCache) Fresh(marketID string, tf domrepo.Timeframe) ([]models.Candle, bool) {
	e, ok := c.Get(marketID, tf)
	if !ok || !e.Fresh(c.now(), c.ttl) {
		return nil, false
	}
	return e.Candles, true
}

// Stale returns whatever is stored for the key, regardless of age.
func (c *OHLCCache) Stale(marketID string, tf domrepo.Timeframe) ([]models.Candle, bool) {
	e, ok := c.Get(marketID, tf)
	if !ok {
		return nil, false
	}
	return e.Candles, true
}

// Len returns the number of stored series.
func (c *OHLCCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

func cloneCandles(in []models.Candle) []models.Candle {
	if in == nil {
		return nil
	}
	out := make([]models.Candle, len(in))
	copy(out, in)
	return out
}

var _ domrepo.CandleCache = (*OHLCCache)(nil)
