package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"PerpDash/internal/domain/models"
	drepo "PerpDash/internal/domain/repository"
	"PerpDash/internal/service/ratelimit"
	xhttp "PerpDash/pkg/http"
)

const provider = "coingecko"

// Client fetches OHLC candles from the CoinGecko REST API.
type Client struct {
	baseURL      string
	apiKey       string
	apiKeyHeader string
	http         *xhttp.Client
	metrics      drepo.Metrics
	limiter      ratelimit.Limiter
}

// Option configures Client.
type Option func(*Client)

// WithAPIKey sends key in header on every request (x-cg-demo-api-key or x-cg-pro-api-key).
func WithAPIKey(header, key string) Option {
	return func(c *Client) {
		c.apiKey = key
		if header != "" {
			c.apiKeyHeader = header
		}
	}
}

// WithLimiter guards outgoing calls with a local budget so we back off before CoinGecko does.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// New creates a CoinGecko client. timeout bounds every call.
func New(baseURL string, timeout time.Duration, metrics drepo.Metrics, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		apiKeyHeader: "x-cg-demo-api-key",
		http:         xhttp.NewClient(xhttp.WithTimeout(timeout)),
		metrics:      metrics,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OHLC returns candles for marketID over the last days days, ascending and de-duplicated.
func (c *Client) OHLC(ctx context.Context, marketID string, days int) ([]models.Candle, error) {
	if c.limiter != nil {
		ok, err := c.limiter.Allow(ctx, provider)
		if err == nil && !ok {
			c.metrics.RecordUpstreamError(provider, "local_budget")
			return nil, fmt.Errorf("%w: local request budget exhausted", models.ErrUpstreamRateLimited)
		}
	}

	var headers map[string]string
	if c.apiKey != "" {
		headers = map[string]string{c.apiKeyHeader: c.apiKey}
	}

	start := time.Now()
	var raw json.RawMessage
	err := c.http.GetJSON(ctx, c.baseURL+"/coins/"+url.PathEscape(marketID)+"/ohlc", map[string][]string{
		"vs_currency": {"usd"},
		"days":        {strconv.Itoa(days)},
	}, headers, &raw)
	c.metrics.RecordUpstreamLatency(provider, time.Since(start).Seconds())
	if err != nil {
		var se *xhttp.StatusError
		switch {
		case xhttp.IsStatus(err, http.StatusTooManyRequests):
			c.metrics.RecordUpstreamError(provider, "rate_limited")
			return nil, fmt.Errorf("%w: %w", models.ErrUpstreamRateLimited, err)
		case errors.As(err, &se):
			c.metrics.RecordUpstreamError(provider, "status")
			return nil, fmt.Errorf("%w: %w", models.ErrUpstreamFormat, err)
		case isDecodeError(err):
			c.metrics.RecordUpstreamError(provider, "format")
			return nil, fmt.Errorf("%w: %w", models.ErrUpstreamFormat, err)
		default:
			c.metrics.RecordUpstreamError(provider, "transport")
			return nil, fmt.Errorf("coingecko ohlc: %w", err)
		}
	}

	candles, err := ParseOHLC(raw)
	if err != nil {
		c.metrics.RecordUpstreamError(provider, "format")
		return nil, err
	}
	return candles, nil
}

func isDecodeError(err error) bool {
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	return errors.As(err, &syn) || errors.As(err, &typ)
}

// ParseOHLC validates rows of [ms, open, high, low, close] and converts them to candles in seconds.
// Rows are sorted by time; a repeated timestamp keeps the last row.
func ParseOHLC(raw []byte) ([]models.Candle, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: body is not an array: %w", models.ErrUpstreamFormat, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty ohlc array", models.ErrUpstreamFormat)
	}

	byTime := make(map[int64]models.Candle, len(rows))
	for i, r := range rows {
		var vals []*float64
		if err := json.Unmarshal(r, &vals); err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", models.ErrUpstreamFormat, i, err)
		}
		if len(vals) != 5 {
			return nil, fmt.Errorf("%w: row %d has %d fields", models.ErrUpstreamFormat, i, len(vals))
		}
		for j, v := range vals {
			if v == nil {
				return nil, fmt.Errorf("%w: row %d field %d is null", models.ErrUpstreamFormat, i, j)
			}
		}
		ms := *vals[0]
		if ms < 1000 || ms >= math.MaxInt64 {
			return nil, fmt.Errorf("%w: row %d has timestamp %v out of range", models.ErrUpstreamFormat, i, ms)
		}
		ts := int64(ms) / 1000
		byTime[ts] = models.Candle{
			Time:  ts,
			Open:  *vals[1],
			High:  *vals[2],
			Low:   *vals[3],
			Close: *vals[4],
		}
	}

	out := make([]models.Candle, 0, len(byTime))
	for _, c := range byTime {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

var _ drepo.CandleProvider = (*Client)(nil)
