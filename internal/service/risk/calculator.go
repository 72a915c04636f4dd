// Package risk holds the leveraged-position arithmetic behind trade previews and open positions.
// All functions are pure; rounding for display is left to the caller.
package risk

import (
	"fmt"
	"strings"

	"PerpDash/internal/domain/models"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	bpsScale = decimal.NewFromInt(10000)
)

// Notional is the dollar exposure of margin at leverage.
func Notional(margin, leverage decimal.Decimal) decimal.Decimal {
	return margin.Mul(leverage)
}

// PositionSize is margin*leverage/price, or zero when price is not positive.
func PositionSize(margin, leverage, price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return Notional(margin, leverage).Div(price)
}

// EntryFee is notional*feeBps/10000.
func EntryFee(notional, feeBps decimal.Decimal) decimal.Decimal {
	return notional.Mul(feeBps).Div(bpsScale)
}

// BpsToRatio converts basis points into a plain ratio (500 -> 0.05).
func BpsToRatio(bps decimal.Decimal) decimal.Decimal {
	return bps.Div(bpsScale)
}

// LiquidationPrice approximates the price at which the position is liquidated:
//
//	move = (leverage - mmr*leverage) / leverage
//	long:  entry * (1 - move)
//	short: entry * (1 + move)
//
// Funding and fee accrual are ignored; this is not an exchange margin model.
func LiquidationPrice(entryPrice, leverage, maintMarginRatio decimal.Decimal, side models.Side) decimal.Decimal {
	if !leverage.IsPositive() {
		return decimal.Zero
	}
	move := leverage.Sub(maintMarginRatio.Mul(leverage)).Div(leverage)
	if side == models.Short {
		return entryPrice.Mul(decimal.NewFromInt(1).Add(move))
	}
	return entryPrice.Mul(decimal.NewFromInt(1).Sub(move))
}

// PnL is the unrealized profit of a position marked at currentPrice.
func PnL(side models.Side, size, entryPrice, currentPrice decimal.Decimal) decimal.Decimal {
	if side == models.Short {
		return size.Mul(entryPrice.Sub(currentPrice))
	}
	return size.Mul(currentPrice.Sub(entryPrice))
}

// PriceImpactPercent expresses the entry fee as a percentage of notional.
func PriceImpactPercent(fee, notional decimal.Decimal) decimal.Decimal {
	if notional.IsZero() {
		return decimal.Zero
	}
	return fee.Div(notional).Mul(hundred)
}

// TotalCost is what the trader pays up front.
func TotalCost(margin, fee decimal.Decimal) decimal.Decimal {
	return margin.Add(fee)
}

// CloseSize is the portion of a position closed at pct percent.
func CloseSize(absSize decimal.Decimal, pct int) decimal.Decimal {
	return absSize.Mul(decimal.NewFromInt(int64(pct))).Div(hundred)
}

// DecodePosition turns a signed on-chain size into a snapshot marked at currentPrice.
// Positive size is long. Leverage is notional over margin, zero when margin is not positive.
func DecodePosition(signedSize, entryPrice, margin, currentPrice decimal.Decimal) models.PositionSnapshot {
	side := models.Long
	if signedSize.IsNegative() {
		side = models.Short
	}
	abs := signedSize.Abs()

	lev := decimal.Zero
	if margin.IsPositive() {
		lev = abs.Mul(entryPrice).Div(margin)
	}

	return models.PositionSnapshot{
		Side:       side,
		AbsSize:    abs,
		EntryPrice: entryPrice,
		MarginUSD:  margin,
		Leverage:   lev,
		PnL:        PnL(side, abs, entryPrice, currentPrice),
	}
}

// ParseSide accepts "long" or "short" in any case.
func ParseSide(s string) (models.Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long":
		return models.Long, nil
	case "short":
		return models.Short, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}
