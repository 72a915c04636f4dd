package usecase

import (
	"fmt"

	"PerpDash/internal/domain/models"
	"PerpDash/internal/service/risk"

	"github.com/shopspring/decimal"
)

// RiskParams are the exchange constants applied when a request does not override them.
type RiskParams struct {
	TakerFeeBps    int64
	MaintMarginBps int64
	MaxLeverage    int64
}

// DefaultRiskParams matches the on-chain exchange: 5 bps taker fee, 5% maintenance margin, 10x.
func DefaultRiskParams() RiskParams {
	return RiskParams{TakerFeeBps: 5, MaintMarginBps: 500, MaxLeverage: 10}
}

// TradeRiskUseCase builds trade previews and position snapshots from the risk calculator.
type TradeRiskUseCase struct {
	params RiskParams
}

func NewTradeRiskUseCase(params RiskParams) *TradeRiskUseCase {
	return &TradeRiskUseCase{params: params}
}

func (uc *TradeRiskUseCase) Params() RiskParams { return uc.params }

type PreviewParams struct {
	Margin   decimal.Decimal
	Leverage decimal.Decimal
	Price    decimal.Decimal
	// Zero means use the configured value.
	FeeBps         decimal.Decimal
	MaintMarginBps decimal.Decimal
}

// Preview computes what opening a position would cost and where it would be liquidated.
func (uc *TradeRiskUseCase) Preview(p PreviewParams) (models.TradePreview, error) {
	if !p.Margin.IsPositive() {
		return models.TradePreview{}, fmt.Errorf("margin must be positive")
	}
	if p.Leverage.LessThan(decimal.NewFromInt(1)) {
		return models.TradePreview{}, fmt.Errorf("leverage must be at least 1")
	}
	if uc.params.MaxLeverage > 0 && p.Leverage.GreaterThan(decimal.NewFromInt(uc.params.MaxLeverage)) {
		return models.TradePreview{}, fmt.Errorf("%w: %s > %d", models.ErrLeverageExceeded, p.Leverage, uc.params.MaxLeverage)
	}

	feeBps := p.FeeBps
	if feeBps.IsZero() {
		feeBps = decimal.NewFromInt(uc.params.TakerFeeBps)
	}
	mmBps := p.MaintMarginBps
	if mmBps.IsZero() {
		mmBps = decimal.NewFromInt(uc.params.MaintMarginBps)
	}
	mmr := risk.BpsToRatio(mmBps)

	notional := risk.Notional(p.Margin, p.Leverage)
	fee := risk.EntryFee(notional, feeBps)

	return models.TradePreview{
		Notional:              notional,
		Size:                  risk.PositionSize(p.Margin, p.Leverage, p.Price),
		EntryFee:              fee,
		EntryFeePercent:       risk.BpsToRatio(feeBps).Mul(decimal.NewFromInt(100)),
		PriceImpactPercent:    risk.PriceImpactPercent(fee, notional),
		LiquidationPriceLong:  risk.LiquidationPrice(p.Price, p.Leverage, mmr, models.Long),
		LiquidationPriceShort: risk.LiquidationPrice(p.Price, p.Leverage, mmr, models.Short),
		TotalCost:             risk.TotalCost(p.Margin, fee),
	}, nil
}

// Position decodes raw position data marked at currentPrice. closePercent of 0 skips close sizing.
func (uc *TradeRiskUseCase) Position(signedSize, entry, margin, current decimal.Decimal, closePercent int) (models.PositionSnapshot, decimal.Decimal, error) {
	if signedSize.IsZero() {
		return models.PositionSnapshot{}, decimal.Zero, fmt.Errorf("size must be non-zero")
	}
	switch closePercent {
	case 0, 25, 50, 75, 100:
	default:
		return models.PositionSnapshot{}, decimal.Zero, fmt.Errorf("close percent must be one of 25, 50, 75, 100")
	}

	snap := risk.DecodePosition(signedSize, entry, margin, current)
	closeSize := decimal.Zero
	if closePercent > 0 {
		closeSize = risk.CloseSize(snap.AbsSize, closePercent)
	}
	return snap, closeSize, nil
}
