package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type countingLimiter struct{ left int }

func (l *countingLimiter) Allow(context.Context, string) (bool, error) {
	if l.left <= 0 {
		return false, nil
	}
	l.left--
	return true, nil
}

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	e.GET("/api/boom", func(c echo.Context) error { panic("boom") })
}

func newTestServer(l *countingLimiter) *Server {
	reg := prometheus.NewRegistry()
	opts := []ServerOption{WithMetrics(true, "/metrics", reg, reg)}
	if l != nil {
		opts = append(opts, WithRateLimit(l))
	}
	return NewServer(Handlers{pingHandler{}}, opts...)
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServerHealthz(t *testing.T) {
	rec := serve(newTestServer(nil), http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected healthz response %d %s", rec.Code, rec.Body.String())
	}
}

func TestServerRateLimit(t *testing.T) {
	s := newTestServer(&countingLimiter{left: 1})
	if rec := serve(s, http.MethodGet, "/api/ping"); rec.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rec.Code)
	}
	rec := serve(s, http.MethodGet, "/api/ping")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"rate limited"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if rec := serve(s, http.MethodGet, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz must not be limited, got %d", rec.Code)
	}
}

func TestServerRateLimitSkipsSelfLimitedRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServer(Handlers{pingHandler{}}, WithMetrics(true, "/metrics", reg, reg), WithRateLimit(&countingLimiter{}, "/api/ping"))
	if rec := serve(s, http.MethodGet, "/api/ping"); rec.Code != http.StatusOK {
		t.Fatalf("skipped route must not be limited, got %d", rec.Code)
	}
	if rec := serve(s, http.MethodGet, "/api/boom"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("other routes stay limited, got %d", rec.Code)
	}
}

func TestServerSlowThreshold(t *testing.T) {
	s := NewServer(nil, WithMetrics(false, "", nil, nil), WithSlowThreshold(250*time.Millisecond))
	if s.config.SlowThreshold != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s", s.config.SlowThreshold)
	}
	s = NewServer(nil, WithMetrics(false, "", nil, nil), WithSlowThreshold(0))
	if s.config.SlowThreshold != 2*time.Second {
		t.Fatalf("zero must keep the default, got %s", s.config.SlowThreshold)
	}
}

func TestServerRecoversPanic(t *testing.T) {
	rec := serve(newTestServer(nil), http.MethodGet, "/api/boom")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestServerMetricsEndpoint(t *testing.T) {
	s := newTestServer(nil)
	serve(s, http.MethodGet, "/api/ping")
	rec := serve(s, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `http_requests_total{method="GET",path="/api/ping",status="200"} 1`) {
		t.Fatalf("expected request counter in scrape, got:\n%s", rec.Body.String())
	}
}

func TestServerCORSPreflight(t *testing.T) {
	s := newTestServer(nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}
