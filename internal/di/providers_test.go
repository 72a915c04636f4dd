package di

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"PerpDash/internal/service/ratelimit"
	"PerpDash/pkg/config"

	"github.com/alicebob/miniredis/v2"
)

func TestInitializeAppWithDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "error"
	app, cleanup, err := InitializeApp(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cleanup()
	if app == nil {
		t.Fatalf("expected app")
	}
}

func TestProvideHTTPServerRoutes(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "error"
	l, err := ProvideLogger(cfg)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	reg := ProvideRegistry()
	limiter, cleanup, err := ProvideInboundLimiter(cfg, l)
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}
	defer cleanup()

	srv := ProvideHTTPServer(cfg, l, nil, limiter, reg)
	for _, path := range []string{"/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestProvideInboundLimiterRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.RateLimit.Backend = "redis"
	cfg.RateLimit.Redis.Addr = mr.Addr()

	limiter, cleanup, err := ProvideInboundLimiter(cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cleanup()
	if _, ok := limiter.(*ratelimit.RedisWindow); !ok {
		t.Fatalf("expected redis limiter, got %T", limiter)
	}
}

func TestProvideInboundLimiterDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	limiter, cleanup, err := ProvideInboundLimiter(cfg, nil)
	if err != nil || limiter != nil {
		t.Fatalf("expected no limiter, got %v %v", limiter, err)
	}
	cleanup()
}
