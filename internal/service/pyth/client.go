package pyth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PerpDash/internal/domain/models"
	drepo "PerpDash/internal/domain/repository"
	"PerpDash/internal/service/feeds"
	xhttp "PerpDash/pkg/http"

	"github.com/shopspring/decimal"
)

const provider = "pyth"

// Client queries the Pyth Hermes REST API for the latest price of a feed.
type Client struct {
	baseURL string
	http    *xhttp.Client
	metrics drepo.Metrics
}

// New creates a Hermes client. timeout bounds every call.
func New(baseURL string, timeout time.Duration, metrics drepo.Metrics, opts ...xhttp.ClientOption) *Client {
	opts = append([]xhttp.ClientOption{xhttp.WithTimeout(timeout)}, opts...)
	return &Client{
		baseURL: baseURL,
		http:    xhttp.NewClient(opts...),
		metrics: metrics,
	}
}

type hermesPrice struct {
	Price       string `json:"price"`
	Conf        string `json:"conf"`
	Expo        int32  `json:"expo"`
	PublishTime int64  `json:"publish_time"`
}

type hermesParsed struct {
	ID    string       `json:"id"`
	Price *hermesPrice `json:"price"`
}

type hermesResponse struct {
	Parsed []hermesParsed `json:"parsed"`
}

// LatestPrice returns price = mantissa * 10^expo for feedID.
// An answer without a usable price is models.ErrPriceUnavailable; transport failures are returned as-is.
func (c *Client) LatestPrice(ctx context.Context, feedID string) (models.PriceQuote, error) {
	feedID = feeds.NormalizeFeedID(feedID)
	start := time.Now()

	var resp hermesResponse
	err := c.http.GetJSON(ctx, c.baseURL+"/v2/updates/price/latest", map[string][]string{
		"ids[]": {feedID},
	}, nil, &resp)
	c.metrics.RecordUpstreamLatency(provider, time.Since(start).Seconds())
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			c.metrics.RecordUpstreamError(provider, "status")
			return models.PriceQuote{}, fmt.Errorf("%w: %w", models.ErrPriceUnavailable, err)
		}
		c.metrics.RecordUpstreamError(provider, "transport")
		return models.PriceQuote{}, fmt.Errorf("pyth latest price: %w", err)
	}

	q, err := parseQuote(feedID, resp)
	if err != nil {
		c.metrics.RecordUpstreamError(provider, "format")
		return models.PriceQuote{}, err
	}
	return q, nil
}

func parseQuote(feedID string, resp hermesResponse) (models.PriceQuote, error) {
	if len(resp.Parsed) == 0 || resp.Parsed[0].Price == nil || resp.Parsed[0].Price.Price == "" {
		return models.PriceQuote{}, fmt.Errorf("%w: no parsed price for %s", models.ErrPriceUnavailable, feedID)
	}
	p := resp.Parsed[0].Price
	price, err := ScalePrice(p.Price, p.Expo)
	if err != nil {
		return models.PriceQuote{}, fmt.Errorf("%w: %w", models.ErrPriceUnavailable, err)
	}
	if !price.IsPositive() {
		return models.PriceQuote{}, fmt.Errorf("%w: non-positive price %s", models.ErrPriceUnavailable, price)
	}
	return models.PriceQuote{
		FeedID:      feedID,
		Price:       price.InexactFloat64(),
		PublishTime: time.Unix(p.PublishTime, 0),
	}, nil
}

// ScalePrice turns a Pyth integer mantissa and base-10 exponent into an exact decimal.
func ScalePrice(mantissa string, expo int32) (decimal.Decimal, error) {
	m, err := decimal.NewFromString(mantissa)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse mantissa %q: %w", mantissa, err)
	}
	return m.Shift(expo), nil
}

var _ drepo.PriceOracle = (*Client)(nil)
