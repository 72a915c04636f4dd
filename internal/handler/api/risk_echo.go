package api

import (
	"errors"

	"PerpDash/internal/domain/models"
	"PerpDash/internal/usecase"
	xhttp "PerpDash/pkg/http"
	xlogger "PerpDash/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// RiskEchoHandler exposes the trade preview and position calculators.
type RiskEchoHandler struct {
	logger *xlogger.Logger
	risk   *usecase.TradeRiskUseCase
}

func NewRiskEchoHandler(logger *xlogger.Logger, risk *usecase.TradeRiskUseCase) *RiskEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &RiskEchoHandler{logger: logger, risk: risk}
}

func (h *RiskEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/risk")
	g.POST("/preview", h.Preview)
	g.POST("/position", h.Position)
}

type previewResponse struct {
	Notional              float64 `json:"notional"`
	Size                  float64 `json:"size"`
	EntryFee              float64 `json:"entryFee"`
	EntryFeePercent       float64 `json:"entryFeePercent"`
	PriceImpactPercent    float64 `json:"priceImpactPercent"`
	LiquidationPriceLong  float64 `json:"liquidationPriceLong"`
	LiquidationPriceShort float64 `json:"liquidationPriceShort"`
	TotalCost             float64 `json:"totalCost"`
}

type positionResponse struct {
	Side       string   `json:"side"`
	AbsSize    float64  `json:"absSize"`
	EntryPrice float64  `json:"entryPrice"`
	MarginUSD  float64  `json:"marginUsd"`
	Leverage   float64  `json:"leverage"`
	PnL        float64  `json:"pnl"`
	CloseSize  *float64 `json:"closeSize,omitempty"`
}

func (h *RiskEchoHandler) Preview(c echo.Context) error {
	req := &models.PreviewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	p, err := h.risk.Preview(usecase.PreviewParams{
		Margin:         decimal.NewFromFloat(req.Margin),
		Leverage:       decimal.NewFromFloat(req.Leverage),
		Price:          decimal.NewFromFloat(req.Price),
		FeeBps:         decimal.NewFromFloat(req.FeeBps),
		MaintMarginBps: decimal.NewFromFloat(req.MaintMarginBps),
	})
	if err != nil {
		h.logger.Warn("risk preview rejected", xlogger.Error(err))
		appErr := xhttp.BadRequestError(err.Error()).WithError(err)
		if errors.Is(err, models.ErrLeverageExceeded) {
			appErr = appErr.WithParam("max", h.risk.Params().MaxLeverage)
		}
		return xhttp.AppErrorResponse(c, appErr)
	}

	return xhttp.SuccessResponse(c, previewResponse{
		Notional:              p.Notional.InexactFloat64(),
		Size:                  p.Size.InexactFloat64(),
		EntryFee:              p.EntryFee.InexactFloat64(),
		EntryFeePercent:       p.EntryFeePercent.InexactFloat64(),
		PriceImpactPercent:    p.PriceImpactPercent.InexactFloat64(),
		LiquidationPriceLong:  p.LiquidationPriceLong.InexactFloat64(),
		LiquidationPriceShort: p.LiquidationPriceShort.InexactFloat64(),
		TotalCost:             p.TotalCost.InexactFloat64(),
	})
}

func (h *RiskEchoHandler) Position(c echo.Context) error {
	req := &models.PositionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snap, closeSize, err := h.risk.Position(
		decimal.NewFromFloat(req.Size),
		decimal.NewFromFloat(req.EntryPrice),
		decimal.NewFromFloat(req.MarginUSD),
		decimal.NewFromFloat(req.CurrentPrice),
		req.ClosePercent,
	)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()).WithError(err))
	}

	res := positionResponse{
		Side:       string(snap.Side),
		AbsSize:    snap.AbsSize.InexactFloat64(),
		EntryPrice: snap.EntryPrice.InexactFloat64(),
		MarginUSD:  snap.MarginUSD.InexactFloat64(),
		Leverage:   snap.Leverage.InexactFloat64(),
		PnL:        snap.PnL.InexactFloat64(),
	}
	if req.ClosePercent > 0 {
		cs := closeSize.InexactFloat64()
		res.CloseSize = &cs
	}
	return xhttp.SuccessResponse(c, res)
}
