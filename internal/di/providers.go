package di

import (
	"context"
	"fmt"
	"time"

	"PerpDash/internal/domain/repository"
	"PerpDash/internal/handler/api"
	"PerpDash/internal/service/cache"
	"PerpDash/internal/service/coingecko"
	"PerpDash/internal/service/fallback"
	"PerpDash/internal/service/pyth"
	"PerpDash/internal/service/ratelimit"
	"PerpDash/internal/usecase"
	"PerpDash/pkg/config"
	xhttp "PerpDash/pkg/http"
	"PerpDash/pkg/http/middleware"
	applogger "PerpDash/pkg/logger"
	"PerpDash/pkg/metrics"
	"PerpDash/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry creates the Prometheus registry scraped on /metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvidePriceOracle creates the Pyth Hermes client.
func ProvidePriceOracle(cfg *config.Config, m repository.Metrics) repository.PriceOracle {
	return pyth.New(cfg.Pyth.BaseURL, cfg.Pyth.Timeout, m)
}

// ProvideCandleProvider creates the CoinGecko client with its outbound request budget.
func ProvideCandleProvider(cfg *config.Config, m repository.Metrics) repository.CandleProvider {
	opts := []coingecko.Option{}
	if cfg.CoinGecko.APIKey != "" {
		opts = append(opts, coingecko.WithAPIKey(cfg.CoinGecko.APIKeyHeader, cfg.CoinGecko.APIKey))
	}
	if rpm := cfg.CoinGecko.RequestsPerMinute; rpm > 0 {
		opts = append(opts, coingecko.WithLimiter(ratelimit.NewTokenBucket(float64(rpm), float64(rpm)/60)))
	}
	return coingecko.New(cfg.CoinGecko.BaseURL, cfg.CoinGecko.Timeout, m, opts...)
}

// ProvideCandleCache creates the process-wide OHLC cache.
func ProvideCandleCache(cfg *config.Config) repository.CandleCache {
	return cache.NewOHLCCache(cache.WithTTL(cfg.Cache.TTL))
}

// ProvideSynthesizer creates the fallback candle generator.
func ProvideSynthesizer() *fallback.Synthesizer {
	return fallback.New()
}

// ProvideTradeRiskUseCase applies the configured exchange constants.
func ProvideTradeRiskUseCase(cfg *config.Config) *usecase.TradeRiskUseCase {
	return usecase.NewTradeRiskUseCase(usecase.RiskParams{
		TakerFeeBps:    cfg.Risk.TakerFeeBps,
		MaintMarginBps: cfg.Risk.MaintMarginBps,
		MaxLeverage:    cfg.Risk.MaxLeverage,
	})
}

// ProvideMarketEchoHandler creates the market routes; the snapshot route applies the inbound limiter itself.
func ProvideMarketEchoHandler(l *applogger.Logger, snap *usecase.MarketSnapshotUseCase, prices *usecase.MarketPricesUseCase, limiter middleware.Allower) *api.MarketEchoHandler {
	return api.NewMarketEchoHandler(l, snap, prices).WithLimiter(limiter)
}

// ProvidePricesBroadcaster creates the websocket price push.
func ProvidePricesBroadcaster(cfg *config.Config, l *applogger.Logger, prices *usecase.MarketPricesUseCase) *api.PricesBroadcaster {
	return api.NewPricesBroadcaster(l, prices, cfg.Stream.Interval)
}

// ProvideInboundLimiter creates the per-client limiter. The cleanup closes the Redis client, if any.
func ProvideInboundLimiter(cfg *config.Config, l *applogger.Logger) (middleware.Allower, func(), error) {
	if l == nil {
		l = applogger.Nop()
	}
	rl := cfg.RateLimit
	if !rl.Enabled {
		return nil, func() {}, nil
	}
	if rl.Backend != "redis" {
		perSec := float64(rl.Limit) / rl.Window.Seconds()
		return ratelimit.NewTokenBucket(float64(rl.Limit), perSec), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := ratelimit.NewRedisClient(ctx, ratelimit.RedisConfig{
		Addr:     rl.Redis.Addr,
		Password: rl.Redis.Password,
		DB:       rl.Redis.DB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("ratelimit redis: %w", err)
	}
	l.Info("rate limiter using redis", applogger.String("addr", rl.Redis.Addr))
	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}
	return ratelimit.NewRedisWindow(client, rl.Redis.Prefix, int64(rl.Limit), rl.Window), cleanup, nil
}

// ProvideHTTPHandler groups every route set served by the API.
func ProvideHTTPHandler(market *api.MarketEchoHandler, risk *api.RiskEchoHandler, stream *api.PricesBroadcaster, cfg *config.Config) xhttp.Handler {
	hs := xhttp.Handlers{market, risk}
	if cfg.Stream.Enabled {
		hs = append(hs, stream)
	}
	return hs
}

// ProvideHTTPServer creates the echo server with logging, metrics, CORS and rate limiting.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h xhttp.Handler, limiter middleware.Allower, reg *prometheus.Registry) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithLogger(l),
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(len(cfg.Server.CORSOrigins) > 0, cfg.Server.CORSOrigins...),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.Path, reg, reg),
		xhttp.WithSlowThreshold(cfg.Metrics.SlowThreshold),
	}
	if limiter != nil {
		opts = append(opts, xhttp.WithRateLimit(limiter, api.SnapshotPath))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, stream *api.PricesBroadcaster) *server.App {
	if !cfg.Stream.Enabled {
		return server.New(l, srv)
	}
	return server.New(l, srv, stream)
}
