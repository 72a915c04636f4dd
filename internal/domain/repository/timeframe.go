package repository

import "time"

// Timeframe is the requested chart lookback window.
type Timeframe string

const (
	TF24h Timeframe = "24h"
	TF7d  Timeframe = "7d"
	TF30d Timeframe = "30d"
	TF1y  Timeframe = "1y"
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF24h, TF7d, TF30d, TF1y:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF24h }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// LookbackDays is the `days` parameter sent to the candle provider.
func (tf Timeframe) LookbackDays() int {
	switch tf {
	case TF7d:
		return 7
	case TF30d:
		return 30
	case TF1y:
		return 365
	default:
		return 1
	}
}

// SynthInterval spaces 50 synthetic candles across roughly the lookback window.
func (tf Timeframe) SynthInterval() time.Duration {
	switch tf {
	case TF7d:
		return 12096 * time.Second
	case TF30d:
		return 51840 * time.Second
	case TF1y:
		return 630720 * time.Second
	default:
		return 1728 * time.Second
	}
}
