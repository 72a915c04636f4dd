package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"PerpDash/internal/domain/models"
	"PerpDash/internal/service/cache"
	"PerpDash/internal/service/fallback"
	"PerpDash/internal/usecase"
	"PerpDash/pkg/metrics"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const btcFeed = "0xe62df6c8b4a85fe1a67db44dc12de5db330f7ac66b72dc658afedf0f4a415b43"

type stubOracle struct {
	prices map[string]float64
	err    error
}

func (s stubOracle) LatestPrice(_ context.Context, feedID string) (models.PriceQuote, error) {
	if s.err != nil {
		return models.PriceQuote{}, s.err
	}
	p, ok := s.prices[feedID]
	if !ok {
		return models.PriceQuote{}, fmt.Errorf("%w: missing", models.ErrPriceUnavailable)
	}
	return models.PriceQuote{FeedID: feedID, Price: p}, nil
}

type stubCandles struct{ err error }

func (s stubCandles) OHLC(context.Context, string, int) ([]models.Candle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []models.Candle{{Time: 100, Open: 1, High: 2, Low: 0.5, Close: 1.5}}, nil
}

func newEcho(oracle stubOracle, candles stubCandles) *echo.Echo {
	snap := usecase.NewMarketSnapshotUseCase(oracle, candles, cache.NewOHLCCache(), fallback.New(), metrics.Nop{}, nil)
	prices := usecase.NewMarketPricesUseCase(oracle, metrics.Nop{}, nil)
	e := echo.New()
	NewMarketEchoHandler(nil, snap, prices).RegisterRoutes(e)
	NewRiskEchoHandler(nil, usecase.NewTradeRiskUseCase(usecase.DefaultRiskParams())).RegisterRoutes(e)
	return e
}

type budgetLimiter struct{ left int }

func (l *budgetLimiter) Allow(context.Context, string) (bool, error) {
	if l.left <= 0 {
		return false, nil
	}
	l.left--
	return true, nil
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type snapshotBody struct {
	Price  float64         `json:"price"`
	OHLC   []models.Candle `json:"ohlc"`
	Cached bool            `json:"cached"`
	Source string          `json:"source"`
	Market string          `json:"market"`
	Error  string          `json:"error"`
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) snapshotBody {
	t.Helper()
	var b snapshotBody
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return b
}

func TestSnapshotEndpoint(t *testing.T) {
	e := newEcho(stubOracle{prices: map[string]float64{btcFeed: 65000}}, stubCandles{})

	rec := do(e, http.MethodGet, "/api/market/"+btcFeed+"?tf=7d", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	b := decodeSnapshot(t, rec)
	if b.Price != 65000 || b.Cached || b.Market != "bitcoin" || b.Source != "upstream" || len(b.OHLC) != 1 {
		t.Fatalf("unexpected first body %+v", b)
	}

	b = decodeSnapshot(t, do(e, http.MethodGet, "/api/market/"+strings.TrimPrefix(btcFeed, "0x")+"?tf=7d", ""))
	if !b.Cached || b.Source != "cache" {
		t.Fatalf("expected cached response, got %+v", b)
	}
}

func TestSnapshotEndpointDegraded(t *testing.T) {
	e := newEcho(stubOracle{prices: map[string]float64{btcFeed: 65000}}, stubCandles{err: models.ErrUpstreamRateLimited})
	rec := do(e, http.MethodGet, "/api/market/"+btcFeed, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("degraded snapshot must still be 200, got %d", rec.Code)
	}
	b := decodeSnapshot(t, rec)
	if b.Source != "synthetic" || len(b.OHLC) != fallback.Points || b.Cached {
		t.Fatalf("unexpected degraded body %+v", b)
	}
}

func TestSnapshotEndpointErrors(t *testing.T) {
	cases := []struct {
		name   string
		oracle stubOracle
		path   string
		status int
	}{
		{"unknown market", stubOracle{}, "/api/market/0xabcdef", http.StatusNotFound},
		{"price unavailable", stubOracle{prices: map[string]float64{}}, "/api/market/" + btcFeed, http.StatusBadGateway},
		{"invalid id", stubOracle{}, "/api/market/not-hex", http.StatusBadRequest},
		{"transport", stubOracle{err: fmt.Errorf("dial tcp: refused")}, "/api/market/" + btcFeed, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := do(newEcho(tc.oracle, stubCandles{}), http.MethodGet, tc.path, "")
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, rec.Code)
		}
		b := decodeSnapshot(t, rec)
		if b.Error == "" {
			t.Fatalf("%s: expected error message", tc.name)
		}
		if len(b.OHLC) != fallback.Points {
			t.Fatalf("%s: expected placeholder chart, got %d candles", tc.name, len(b.OHLC))
		}
	}
}

func TestSnapshotEndpointRateLimited(t *testing.T) {
	oracle := stubOracle{prices: map[string]float64{btcFeed: 65000}}
	snap := usecase.NewMarketSnapshotUseCase(oracle, stubCandles{}, cache.NewOHLCCache(), fallback.New(), metrics.Nop{}, nil)
	prices := usecase.NewMarketPricesUseCase(oracle, metrics.Nop{}, nil)
	e := echo.New()
	NewMarketEchoHandler(nil, snap, prices).WithLimiter(&budgetLimiter{left: 1}).RegisterRoutes(e)

	if rec := do(e, http.MethodGet, "/api/market/"+btcFeed, ""); rec.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rec.Code)
	}
	rec := do(e, http.MethodGet, "/api/market/"+btcFeed+"?tf=7d", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", rec.Code, rec.Body.String())
	}
	b := decodeSnapshot(t, rec)
	if b.Error != "rate limited" {
		t.Fatalf("unexpected error %q", b.Error)
	}
	if len(b.OHLC) != fallback.Points {
		t.Fatalf("expected placeholder chart, got %d candles", len(b.OHLC))
	}

	if rec := do(e, http.MethodGet, "/api/markets", ""); rec.Code != http.StatusOK {
		t.Fatalf("markets is not limited by the snapshot limiter, got %d", rec.Code)
	}
}

func TestMarketsAndPrices(t *testing.T) {
	e := newEcho(stubOracle{prices: map[string]float64{btcFeed: 65000}}, stubCandles{})

	rec := do(e, http.MethodGet, "/api/markets", "")
	var markets []models.Market
	if err := json.Unmarshal(rec.Body.Bytes(), &markets); err != nil || len(markets) != 4 {
		t.Fatalf("unexpected markets %s (%v)", rec.Body.String(), err)
	}

	rec = do(e, http.MethodGet, "/api/prices", "")
	var prices struct {
		Prices map[string]float64 `json:"prices"`
		Errors map[string]string  `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &prices); err != nil {
		t.Fatalf("decode prices: %v", err)
	}
	if prices.Prices["BTC"] != 65000 || len(prices.Errors) != 3 {
		t.Fatalf("unexpected prices %+v", prices)
	}
}

func TestRiskPreviewEndpoint(t *testing.T) {
	e := newEcho(stubOracle{}, stubCandles{})
	rec := do(e, http.MethodPost, "/api/risk/preview", `{"margin":200,"leverage":10,"price":2000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data previewResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.LiquidationPriceLong != 100 || body.Data.LiquidationPriceShort != 3900 || body.Data.TotalCost != 201 {
		t.Fatalf("unexpected preview %+v", body.Data)
	}
}

func TestRiskPreviewUsesConfiguredParams(t *testing.T) {
	e := echo.New()
	NewRiskEchoHandler(nil, usecase.NewTradeRiskUseCase(usecase.RiskParams{
		TakerFeeBps:    10,
		MaintMarginBps: 1000,
		MaxLeverage:    10,
	})).RegisterRoutes(e)

	rec := do(e, http.MethodPost, "/api/risk/preview", `{"margin":100,"leverage":10,"price":2000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data previewResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.EntryFee != 1 || body.Data.LiquidationPriceLong != 200 {
		t.Fatalf("expected configured fee and margin, got %+v", body.Data)
	}

	// explicit request values still win
	rec = do(e, http.MethodPost, "/api/risk/preview", `{"margin":100,"leverage":10,"price":2000,"feeBps":5,"maintMarginBps":500}`)
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.EntryFee != 0.5 || body.Data.LiquidationPriceLong != 100 {
		t.Fatalf("expected request fee and margin, got %+v", body.Data)
	}
}

func TestRiskPreviewValidation(t *testing.T) {
	e := newEcho(stubOracle{}, stubCandles{})
	for name, body := range map[string]string{
		"zero margin":    `{"margin":0,"leverage":2,"price":1}`,
		"low leverage":   `{"margin":10,"leverage":0.5,"price":1}`,
		"high leverage":  `{"margin":10,"leverage":20,"price":1}`,
		"malformed json": `{"margin":`,
	} {
		if rec := do(e, http.MethodPost, "/api/risk/preview", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestRiskPositionEndpoint(t *testing.T) {
	e := newEcho(stubOracle{}, stubCandles{})
	rec := do(e, http.MethodPost, "/api/risk/position", `{"size":-2,"entryPrice":100,"marginUsd":50,"currentPrice":90,"closePercent":50}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data positionResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Side != "Short" || body.Data.PnL != 20 || body.Data.CloseSize == nil || *body.Data.CloseSize != 1 {
		t.Fatalf("unexpected position %+v", body.Data)
	}

	if rec := do(e, http.MethodPost, "/api/risk/position", `{"size":1,"entryPrice":100,"closePercent":33}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("closePercent 33 should be rejected, got %d", rec.Code)
	}
}

func TestPricesWebsocket(t *testing.T) {
	oracle := stubOracle{prices: map[string]float64{btcFeed: 65000}}
	b := NewPricesBroadcaster(nil, usecase.NewMarketPricesUseCase(oracle, metrics.Nop{}, nil), 20*time.Millisecond)
	e := echo.New()
	b.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/prices", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 2; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg usecase.PricesResult
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read message %d: %v", i, err)
		}
		if msg.Prices["BTC"] != 65000 || msg.TS == 0 {
			t.Fatalf("unexpected message %+v", msg)
		}
	}
}

func TestPricesBroadcastDropsClosedClients(t *testing.T) {
	oracle := stubOracle{prices: map[string]float64{btcFeed: 65000}}
	prices := usecase.NewMarketPricesUseCase(oracle, metrics.Nop{}, nil)
	b := NewPricesBroadcaster(nil, prices, time.Hour)
	e := echo.New()
	b.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/prices"
	dial := func() *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var first usecase.PricesResult
		if err := conn.ReadJSON(&first); err != nil {
			t.Fatalf("read initial message: %v", err)
		}
		return conn
	}
	waitClients := func(n int) {
		deadline := time.Now().Add(2 * time.Second)
		for b.Clients() != n {
			if time.Now().After(deadline) {
				t.Fatalf("expected %d clients, got %d", n, b.Clients())
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	gone := dial()
	live := dial()
	defer live.Close()
	waitClients(2)

	gone.Close()
	b.Broadcast(prices.All(context.Background()))

	_ = live.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg usecase.PricesResult
	if err := live.ReadJSON(&msg); err != nil {
		t.Fatalf("live client read: %v", err)
	}
	if msg.Prices["BTC"] != 65000 {
		t.Fatalf("unexpected message %+v", msg)
	}
	waitClients(1)
}
