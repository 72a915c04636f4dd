package feeds

import "testing"

func TestMapFeedToMarketKnown(t *testing.T) {
	cases := map[string]string{
		"0xe62df6c8b4a85fe1a67db44dc12de5db330f7ac66b72dc658afedf0f4a415b43": "bitcoin",
		"0xFF61491A931112DDF1BD8147CD1B641375F79F5825126D665480874634FD0ACE": "ethereum",
		"4e3037c822d852d79af3ac80e35eb420ee3b870dca49f9344a38ef4773fb0585":   "mantle",
		"0X44465E17d2e9d390e70c999d5a11fda4f092847fcd2e3e5aa089d96c98a30e67": "tether-gold",
	}
	for feed, want := range cases {
		got, ok := MapFeedToMarket(feed)
		if !ok {
			t.Fatalf("expected %s to map", feed)
		}
		if got != want {
			t.Fatalf("feed %s: want %s got %s", feed, want, got)
		}
	}
}

func TestMapFeedToMarketUnknown(t *testing.T) {
	for _, feed := range []string{"", "0x", "0xdeadbeef", "bitcoin"} {
		if got, ok := MapFeedToMarket(feed); ok {
			t.Fatalf("expected %q to miss, got %s", feed, got)
		}
	}
}

func TestNormalizeFeedID(t *testing.T) {
	if got := NormalizeFeedID(" 0xABC "); got != "0xabc" {
		t.Fatalf("unexpected %s", got)
	}
	if got := NormalizeFeedID("abc"); got != "0xabc" {
		t.Fatalf("unexpected %s", got)
	}
}

func TestMarketByKey(t *testing.T) {
	mk, ok := MarketByKey("xaut")
	if !ok || mk.MarketID != "tether-gold" {
		t.Fatalf("unexpected %+v %v", mk, ok)
	}
	if _, ok := MarketByKey("DOGE"); ok {
		t.Fatalf("expected miss")
	}
	all := Markets()
	all[0].Key = "changed"
	if Markets()[0].Key != "BTC" {
		t.Fatalf("Markets must return a copy")
	}
}
