//go:build wireinject
// +build wireinject

package di

import (
	"PerpDash/internal/handler/api"
	"PerpDash/internal/usecase"
	"PerpDash/pkg/config"
	"PerpDash/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Upstreams and cache
		ProvidePriceOracle,
		ProvideCandleProvider,
		ProvideCandleCache,
		ProvideSynthesizer,

		// Use cases
		usecase.NewMarketSnapshotUseCase,
		usecase.NewMarketPricesUseCase,
		ProvideTradeRiskUseCase,

		// HTTP
		ProvideInboundLimiter,
		ProvideMarketEchoHandler,
		api.NewRiskEchoHandler,
		ProvidePricesBroadcaster,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
