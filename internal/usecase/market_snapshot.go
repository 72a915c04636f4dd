package usecase

import (
	"context"
	"errors"
	"fmt"

	"PerpDash/internal/domain/models"
	domrepo "PerpDash/internal/domain/repository"
	"PerpDash/internal/service/fallback"
	"PerpDash/internal/service/feeds"
	"PerpDash/pkg/logger"
)

// placeholderBase is the base price of the chart sent along with error payloads.
const placeholderBase = 100

// MarketSnapshotUseCase combines the oracle price with cached or fetched candles.
type MarketSnapshotUseCase struct {
	oracle  domrepo.PriceOracle
	candles domrepo.CandleProvider
	cache   domrepo.CandleCache
	synth   *fallback.Synthesizer
	metrics domrepo.Metrics
	log     *logger.Logger
}

func NewMarketSnapshotUseCase(
	oracle domrepo.PriceOracle,
	candles domrepo.CandleProvider,
	cache domrepo.CandleCache,
	synth *fallback.Synthesizer,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *MarketSnapshotUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &MarketSnapshotUseCase{
		oracle:  oracle,
		candles: candles,
		cache:   cache,
		synth:   synth,
		metrics: metrics,
		log:     log,
	}
}

// Snapshot returns the live price and a candle series for feedID. Candle failures never fail the
// call; only an unknown feed or a missing price does.
func (uc *MarketSnapshotUseCase) Snapshot(ctx context.Context, feedID string, tf domrepo.Timeframe) (snap *models.MarketSnapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			uc.log.Error("snapshot panic", logger.String("feed_id", feedID), logger.Any("panic", r))
			snap, err = nil, fmt.Errorf("snapshot: panic: %v", r)
		}
	}()

	if !domrepo.IsValidTimeframe(tf) {
		tf = domrepo.DefaultTimeframe()
	}
	feedID = feeds.NormalizeFeedID(feedID)

	marketID, ok := feeds.MapFeedToMarket(feedID)
	if !ok {
		uc.metrics.RecordSnapshot("unknown", "unknown_market")
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownMarket, feedID)
	}

	quote, err := uc.oracle.LatestPrice(ctx, feedID)
	if err != nil {
		if errors.Is(err, models.ErrPriceUnavailable) {
			uc.metrics.RecordSnapshot(marketID, "price_unavailable")
		} else {
			uc.metrics.RecordSnapshot(marketID, "error")
		}
		return nil, fmt.Errorf("latest price for %s: %w", marketID, err)
	}
	uc.metrics.RecordLastPrice(marketID, quote.Price)

	snap = &models.MarketSnapshot{
		MarketID:  marketID,
		Timeframe: string(tf),
		Price:     quote.Price,
	}

	if cs, ok := uc.cache.Fresh(marketID, tf); ok {
		snap.Candles, snap.CacheHit, snap.Source = cs, true, models.SourceCache
		uc.finish(snap)
		return snap, nil
	}

	cs, err := uc.candles.OHLC(ctx, marketID, tf.LookbackDays())
	if err == nil {
		uc.cache.Put(marketID, tf, cs)
		snap.Candles, snap.Source = cs, models.SourceUpstream
		uc.finish(snap)
		return snap, nil
	}

	uc.degrade(snap, err)
	uc.finish(snap)
	return snap, nil
}

// Placeholder is the synthetic chart returned with error payloads.
func (uc *MarketSnapshotUseCase) Placeholder(tf domrepo.Timeframe) []models.Candle {
	return uc.synth.Synthesize(placeholderBase, domrepo.NormalizeTimeframe(string(tf)))
}

func (uc *MarketSnapshotUseCase) degrade(snap *models.MarketSnapshot, cause error) {
	tf := domrepo.Timeframe(snap.Timeframe)
	if cs, ok := uc.cache.Stale(snap.MarketID, tf); ok {
		snap.Candles, snap.Source = cs, models.SourceStaleCache
	} else {
		snap.Candles, snap.Source = uc.synth.Synthesize(snap.Price, tf), models.SourceSynthetic
	}

	fields := []logger.Field{
		logger.String("market", snap.MarketID),
		logger.String("timeframe", snap.Timeframe),
		logger.String("fallback", string(snap.Source)),
		logger.Error(cause),
	}
	switch {
	case errors.Is(cause, models.ErrUpstreamRateLimited):
		uc.log.Warn("candle provider rate limited, serving fallback", append(fields, logger.String("reason", "rate_limited"))...)
	case errors.Is(cause, models.ErrUpstreamFormat):
		uc.log.Error("candle provider returned bad data, serving fallback", append(fields, logger.String("reason", "format"))...)
	default:
		uc.log.Error("candle provider failed, serving fallback", append(fields, logger.String("reason", "transport"))...)
	}
}

func (uc *MarketSnapshotUseCase) finish(snap *models.MarketSnapshot) {
	uc.metrics.RecordCandleSource(snap.MarketID, snap.Source)
	outcome := "ok"
	if snap.Source.Degraded() {
		outcome = "degraded"
	}
	uc.metrics.RecordSnapshot(snap.MarketID, outcome)
	uc.log.Debug("snapshot served",
		logger.String("market", snap.MarketID),
		logger.String("timeframe", snap.Timeframe),
		logger.String("source", string(snap.Source)),
		logger.Int("candles", len(snap.Candles)),
	)
}
