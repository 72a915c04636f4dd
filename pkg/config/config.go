package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Log         struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	Metrics struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		Path          string        `yaml:"path" default:"/metrics"`
		SlowThreshold time.Duration `yaml:"slow_threshold" default:"2s"`
	} `yaml:"metrics"`
	Pyth struct {
		BaseURL string        `yaml:"base_url" default:"https://hermes.pyth.network"`
		Timeout time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"pyth"`
	CoinGecko struct {
		BaseURL      string        `yaml:"base_url" default:"https://api.coingecko.com/api/v3"`
		APIKey       string        `yaml:"api_key"`
		APIKeyHeader string        `yaml:"api_key_header" default:"x-cg-demo-api-key"`
		Timeout      time.Duration `yaml:"timeout" default:"10s"`
		// Outbound budget kept below the public tier limit; 0 disables the guard.
		RequestsPerMinute int `yaml:"requests_per_minute" default:"25"`
	} `yaml:"coingecko"`
	Cache struct {
		TTL time.Duration `yaml:"ttl" default:"1h"`
	} `yaml:"cache"`
	Risk struct {
		TakerFeeBps    int64 `yaml:"taker_fee_bps" default:"5"`
		MaintMarginBps int64 `yaml:"maint_margin_bps" default:"500"`
		MaxLeverage    int64 `yaml:"max_leverage" default:"10"`
	} `yaml:"risk"`
	RateLimit struct {
		Enabled bool          `yaml:"enabled" default:"true"`
		Backend string        `yaml:"backend" default:"memory"` // memory or redis
		Limit   int           `yaml:"limit" default:"120"`
		Window  time.Duration `yaml:"window" default:"1m"`
		Redis   struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"perpdash:rl"`
		} `yaml:"redis"`
	} `yaml:"ratelimit"`
	Stream struct {
		Enabled  bool          `yaml:"enabled" default:"true"`
		Interval time.Duration `yaml:"interval" default:"5s"`
	} `yaml:"stream"`
}

// Default returns a config with every default applied and nothing read from disk.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing file is not an error: defaults plus environment are enough to run.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		c, err = Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		c = Default()
	}

	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := getenv("PYTH_HERMES_URL"); v != "" {
		c.Pyth.BaseURL = v
	}
	if v := getenv("COINGECKO_BASE_URL"); v != "" {
		c.CoinGecko.BaseURL = v
	}
	if v := getenv("COINGECKO_API_KEY"); v != "" {
		c.CoinGecko.APIKey = v
	}
	if v := getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		c.Cache.TTL = d
	}
	if v := getenv("RATELIMIT_BACKEND"); v != "" {
		c.RateLimit.Backend = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.RateLimit.Redis.Addr = v
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.RateLimit.Redis.Password = v
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Pyth.BaseURL == "" {
		return fmt.Errorf("pyth.base_url is required")
	}
	if c.CoinGecko.BaseURL == "" {
		return fmt.Errorf("coingecko.base_url is required")
	}
	if c.Pyth.Timeout <= 0 || c.CoinGecko.Timeout <= 0 {
		return fmt.Errorf("upstream timeouts must be positive")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Risk.MaxLeverage < 1 {
		return fmt.Errorf("risk.max_leverage must be at least 1")
	}
	if c.Risk.TakerFeeBps < 0 || c.Risk.MaintMarginBps < 0 || c.Risk.MaintMarginBps > 10000 {
		return fmt.Errorf("risk bps values out of range")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Backend != "memory" && c.RateLimit.Backend != "redis" {
			return fmt.Errorf("ratelimit.backend must be 'memory' or 'redis', got '%s'", c.RateLimit.Backend)
		}
		if c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0 {
			return fmt.Errorf("ratelimit.limit and ratelimit.window must be positive")
		}
	}
	if c.Stream.Enabled && c.Stream.Interval <= 0 {
		return fmt.Errorf("stream.interval must be positive")
	}
	return nil
}
