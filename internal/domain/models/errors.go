package models

import "errors"

var (
	// ErrUnknownMarket means the feed id has no candle-provider market.
	ErrUnknownMarket = errors.New("unknown market")
	// ErrPriceUnavailable means the oracle answered without a usable price.
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrUpstreamRateLimited means the candle provider (or our own outbound budget) refused the call.
	ErrUpstreamRateLimited = errors.New("upstream rate limited")
	// ErrUpstreamFormat covers non-2xx statuses and bodies that are not OHLC rows.
	ErrUpstreamFormat = errors.New("upstream format error")
	// ErrInvalidFeedID means the feed id is not hex.
	ErrInvalidFeedID = errors.New("invalid feed id")
	// ErrRateLimited means the caller is over its inbound request budget.
	ErrRateLimited = errors.New("rate limited")
)

// ErrLeverageExceeded is returned when a trade asks for more leverage than the configured maximum.
var ErrLeverageExceeded = errors.New("leverage exceeds maximum")
