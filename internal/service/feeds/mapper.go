package feeds

import (
	"strings"

	"PerpDash/internal/domain/models"
)

var markets = []models.Market{
	{Key: "BTC", Name: "Bitcoin", FeedID: "0xe62df6c8b4a85fe1a67db44dc12de5db330f7ac66b72dc658afedf0f4a415b43", MarketID: "bitcoin"},
	{Key: "ETH", Name: "Ethereum", FeedID: "0xff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace", MarketID: "ethereum"},
	{Key: "MNT", Name: "Mantle", FeedID: "0x4e3037c822d852d79af3ac80e35eb420ee3b870dca49f9344a38ef4773fb0585", MarketID: "mantle"},
	{Key: "XAUT", Name: "Tether Gold", FeedID: "0x44465e17d2e9d390e70c999d5a11fda4f092847fcd2e3e5aa089d96c98a30e67", MarketID: "tether-gold"},
}

var byFeed = func() map[string]models.Market {
	m := make(map[string]models.Market, len(markets))
	for _, mk := range markets {
		m[mk.FeedID] = mk
	}
	return m
}()

// NormalizeFeedID lowercases the id and makes sure it carries a single 0x prefix.
func NormalizeFeedID(feedID string) string {
	s := strings.ToLower(strings.TrimSpace(feedID))
	s = strings.TrimPrefix(s, "0x")
	return "0x" + s
}

// MapFeedToMarket returns the candle-provider market for a Pyth feed id.
func MapFeedToMarket(feedID string) (string, bool) {
	mk, ok := byFeed[NormalizeFeedID(feedID)]
	if !ok {
		return "", false
	}
	return mk.MarketID, true
}

// Markets returns the market table in display order.
func Markets() []models.Market {
	out := make([]models.Market, len(markets))
	copy(out, markets)
	return out
}

// MarketByKey looks a market up by its ticker key, case-insensitively.
func MarketByKey(key string) (models.Market, bool) {
	for _, mk := range markets {
		if strings.EqualFold(mk.Key, key) {
			return mk, true
		}
	}
	return models.Market{}, false
}
