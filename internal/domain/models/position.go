package models

import "github.com/shopspring/decimal"

// Side is the direction of a perpetual position.
type Side string

const (
	Long  Side = "Long"
	Short Side = "Short"
)

// PositionSnapshot is derived from raw on-chain position data and a live price. Never stored.
type PositionSnapshot struct {
	Side       Side
	AbsSize    decimal.Decimal
	EntryPrice decimal.Decimal
	MarginUSD  decimal.Decimal
	Leverage   decimal.Decimal
	PnL        decimal.Decimal
}

// TradePreview is the fee / liquidation breakdown shown before opening a trade.
type TradePreview struct {
	Notional              decimal.Decimal
	Size                  decimal.Decimal
	EntryFee              decimal.Decimal
	EntryFeePercent       decimal.Decimal
	PriceImpactPercent    decimal.Decimal
	LiquidationPriceLong  decimal.Decimal
	LiquidationPriceShort decimal.Decimal
	TotalCost             decimal.Decimal
}
