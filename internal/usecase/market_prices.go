package usecase

import (
	"context"
	"sync"
	"time"

	"PerpDash/internal/domain/models"
	domrepo "PerpDash/internal/domain/repository"
	"PerpDash/internal/service/feeds"
	"PerpDash/pkg/logger"
)

// PricesResult holds the live price per market key. A market that failed appears in Errors only.
type PricesResult struct {
	Prices map[string]float64 `json:"prices"`
	Errors map[string]string  `json:"errors"`
	TS     int64              `json:"ts"`
}

// MarketPricesUseCase fetches the oracle price of every known market concurrently.
type MarketPricesUseCase struct {
	oracle  domrepo.PriceOracle
	metrics domrepo.Metrics
	log     *logger.Logger
	markets []models.Market
	now     func() time.Time
}

func NewMarketPricesUseCase(oracle domrepo.PriceOracle, metrics domrepo.Metrics, log *logger.Logger) *MarketPricesUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &MarketPricesUseCase{
		oracle:  oracle,
		metrics: metrics,
		log:     log,
		markets: feeds.Markets(),
		now:     time.Now,
	}
}

// Markets returns the static market table.
func (uc *MarketPricesUseCase) Markets() []models.Market {
	out := make([]models.Market, len(uc.markets))
	copy(out, uc.markets)
	return out
}

// All returns prices for every market. Per-market failures never fail the call.
func (uc *MarketPricesUseCase) All(ctx context.Context) *PricesResult {
	res := &PricesResult{
		Prices: make(map[string]float64, len(uc.markets)),
		Errors: make(map[string]string),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, m := range uc.markets {
		wg.Add(1)
		go func(m models.Market) {
			defer wg.Done()
			q, err := uc.oracle.LatestPrice(ctx, m.FeedID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Errors[m.Key] = err.Error()
				uc.log.Warn("price fetch failed", logger.String("market", m.Key), logger.Error(err))
				return
			}
			res.Prices[m.Key] = q.Price
			uc.metrics.RecordLastPrice(m.MarketID, q.Price)
		}(m)
	}
	wg.Wait()

	res.TS = uc.now().Unix()
	return res
}
