package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if c.Cache.TTL != time.Hour || c.Pyth.Timeout != 5*time.Second || c.CoinGecko.Timeout != 10*time.Second {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.Risk.TakerFeeBps != 5 || c.Risk.MaintMarginBps != 500 || c.Risk.MaxLeverage != 10 {
		t.Fatalf("unexpected risk defaults %+v", c.Risk)
	}
	if len(c.Server.CORSOrigins) != 1 || c.Server.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors default %v", c.Server.CORSOrigins)
	}
}

func TestParseKeepsDefaultsForMissingKeys(t *testing.T) {
	c, err := Parse([]byte("environment: production\ncache:\n  ttl: 30m\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Environment != "production" || c.Cache.TTL != 30*time.Minute {
		t.Fatalf("yaml values not applied: %+v", c)
	}
	if c.Server.Port != 8080 || c.CoinGecko.APIKeyHeader != "x-cg-demo-api-key" {
		t.Fatalf("defaults lost: port=%d header=%q", c.Server.Port, c.CoinGecko.APIKeyHeader)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"bad backend":  "ratelimit:\n  backend: memcached\n",
		"zero ttl":     "cache:\n  ttl: 0s\n",
		"low leverage": "risk:\n  max_leverage: 0\n",
		"bad yaml":     "server: [",
	} {
		if _, err := Parse([]byte(body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":              "9090",
		"COINGECKO_API_KEY": "k",
		"CACHE_TTL":         "5m",
		"CORS_ORIGINS":      "http://a,http://b",
	}
	c := Default()
	if err := c.applyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Server.Port != 9090 || c.CoinGecko.APIKey != "k" || c.Cache.TTL != 5*time.Minute {
		t.Fatalf("env not applied: %+v", c)
	}
	if strings.Join(c.Server.CORSOrigins, "|") != "http://a|http://b" {
		t.Fatalf("unexpected origins %v", c.Server.CORSOrigins)
	}

	env["PORT"] = "eighty"
	if err := Default().applyEnv(func(k string) string { return env[k] }); err == nil {
		t.Fatalf("expected error for non-numeric PORT")
	}
}

func TestLoadWithEnvMissingFile(t *testing.T) {
	c, err := LoadWithEnv(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if c.Environment != "development" {
		t.Fatalf("unexpected environment %q", c.Environment)
	}
}

func TestLoadSampleConfig(t *testing.T) {
	path := filepath.Join("..", "..", "config", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("sample config not found")
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("sample config must load: %v", err)
	}
}
