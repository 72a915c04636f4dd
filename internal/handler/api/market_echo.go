package api

import (
	"errors"
	"net/http"

	"PerpDash/internal/domain/models"
	domrepo "PerpDash/internal/domain/repository"
	"PerpDash/internal/usecase"
	xhttp "PerpDash/pkg/http"
	"PerpDash/pkg/http/middleware"
	xlogger "PerpDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SnapshotPath is the snapshot route. It carries its own limiter so rejections keep the placeholder chart.
const SnapshotPath = "/api/market/:id"

// MarketEchoHandler serves market snapshots, the market table and live prices.
type MarketEchoHandler struct {
	logger  *xlogger.Logger
	snap    *usecase.MarketSnapshotUseCase
	prices  *usecase.MarketPricesUseCase
	limiter middleware.Allower
}

func NewMarketEchoHandler(logger *xlogger.Logger, snap *usecase.MarketSnapshotUseCase, prices *usecase.MarketPricesUseCase) *MarketEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &MarketEchoHandler{logger: logger, snap: snap, prices: prices}
}

// WithLimiter rate limits the snapshot route per client IP.
func (h *MarketEchoHandler) WithLimiter(l middleware.Allower) *MarketEchoHandler {
	h.limiter = l
	return h
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, middleware.RateLimitWithConfig(middleware.RateLimitConfig{
			Limiter:  h.limiter,
			Logger:   h.logger,
			Rejected: h.rateLimited,
		}))
	}
	e.GET(SnapshotPath, h.Snapshot, mw...)

	g := e.Group("/api")
	g.GET("/markets", h.Markets)
	g.GET("/prices", h.Prices)
}

type snapshotResponse struct {
	Price     float64         `json:"price"`
	OHLC      []models.Candle `json:"ohlc"`
	Cached    bool            `json:"cached"`
	Source    string          `json:"source"`
	Market    string          `json:"market"`
	Timeframe string          `json:"timeframe"`
}

// Snapshot returns price and candles for a feed id. Errors still carry a placeholder chart.
func (h *MarketEchoHandler) Snapshot(c echo.Context) error {
	req := &models.SnapshotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		tf := domrepo.NormalizeTimeframe(c.QueryParam("tf"))
		h.logger.Warn("market snapshot bad request", xlogger.String("id", c.Param("id")))
		return h.failure(c, tf, models.ErrInvalidFeedID)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	snap, err := h.snap.Snapshot(c.Request().Context(), req.ID, tf)
	if err != nil {
		h.logger.Error("market snapshot usecase error",
			xlogger.String("id", req.ID),
			xlogger.String("timeframe", string(tf)),
			xlogger.Error(err),
		)
		return h.failure(c, tf, err)
	}

	return xhttp.JSONResponse(c, http.StatusOK, snapshotResponse{
		Price:     snap.Price,
		OHLC:      snap.Candles,
		Cached:    snap.CacheHit,
		Source:    string(snap.Source),
		Market:    snap.MarketID,
		Timeframe: snap.Timeframe,
	})
}

func (h *MarketEchoHandler) rateLimited(c echo.Context) error {
	return h.failure(c, domrepo.NormalizeTimeframe(c.QueryParam("tf")), models.ErrRateLimited)
}

func (h *MarketEchoHandler) failure(c echo.Context, tf domrepo.Timeframe, err error) error {
	appErr := snapshotError(err)
	return xhttp.ErrorPayloadResponse(c, appErr.Status, appErr.Message, map[string]interface{}{
		"ohlc": h.snap.Placeholder(tf),
	})
}

// snapshotError maps domain errors to the status and message clients see.
func snapshotError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrInvalidFeedID):
		return xhttp.BadRequestError("invalid feed id").WithError(err)
	case errors.Is(err, models.ErrUnknownMarket):
		return xhttp.NotFoundError("unknown market").WithError(err)
	case errors.Is(err, models.ErrRateLimited):
		return xhttp.TooManyRequestsError("rate limited").WithError(err)
	case errors.Is(err, models.ErrPriceUnavailable):
		return xhttp.BadGatewayError("price unavailable").WithError(err)
	default:
		return xhttp.InternalError("failed to load market data").WithError(err)
	}
}

func (h *MarketEchoHandler) Markets(c echo.Context) error {
	return xhttp.JSONResponse(c, http.StatusOK, h.prices.Markets())
}

// Prices returns the live price of every market; failed markets are listed under errors.
func (h *MarketEchoHandler) Prices(c echo.Context) error {
	res := h.prices.All(c.Request().Context())
	return xhttp.JSONResponse(c, http.StatusOK, map[string]interface{}{
		"prices": res.Prices,
		"errors": res.Errors,
	})
}
