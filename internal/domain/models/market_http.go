package models

// Requests for market and risk HTTP endpoints. Defined in domain for consistency and reuse.

type SnapshotRequest struct {
	ID string `param:"id" validate:"required,hexadecimal,max=66"`
	TF string `query:"tf" default:"24h"`
}

type PreviewRequest struct {
	Margin         float64 `json:"margin" validate:"gt=0"`
	Leverage       float64 `json:"leverage" validate:"gte=1"`
	Price          float64 `json:"price" validate:"gte=0"`
	FeeBps         float64 `json:"feeBps" validate:"gte=0,lte=10000"`
	MaintMarginBps float64 `json:"maintMarginBps" validate:"gte=0,lte=10000"`
}

type PositionRequest struct {
	Size         float64 `json:"size" validate:"required"`
	EntryPrice   float64 `json:"entryPrice" validate:"gt=0"`
	MarginUSD    float64 `json:"marginUsd" validate:"gte=0"`
	CurrentPrice float64 `json:"currentPrice" validate:"gte=0"`
	ClosePercent int     `json:"closePercent" validate:"omitempty,oneof=25 50 75 100"`
}
