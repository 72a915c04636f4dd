// Package fallback builds placeholder candle series for charts when no real data is available.
// The series is a visual placeholder, not a price model, and must never be cached.
package fallback

import (
	"math/rand/v2"
	"time"

	"PerpDash/internal/domain/models"
	domrepo "PerpDash/internal/domain/repository"
)

// Points is the fixed length of every synthetic series.
const Points = 50

// jitter is the full width of the close noise band around the base price (±0.5%).
const jitter = 0.01

// Synthesizer generates synthetic candles. The zero value is not usable; use New.
type Synthesizer struct {
	now  func() time.Time
	rand func() float64
}

type Option func(*Synthesizer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

// WithRand replaces the uniform [0,1) source.
func WithRand(r func() float64) Option {
	return func(s *Synthesizer) { s.rand = r }
}

func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{now: time.Now, rand: rand.Float64}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize returns Points candles spaced by the timeframe interval, the last one ending one
// interval before now.
func (s *Synthesizer) Synthesize(base float64, tf domrepo.Timeframe) []models.Candle {
	now := s.now().Unix()
	step := int64(tf.SynthInterval() / time.Second)

	out := make([]models.Candle, Points)
	for i := range out {
		c := base * (1 + (s.rand()-0.5)*jitter)
		out[i] = models.Candle{
			Time:  now - int64(Points-i)*step,
			Open:  c * 0.999,
			High:  c * 1.01,
			Low:   c * 0.99,
			Close: c,
		}
	}
	return out
}
