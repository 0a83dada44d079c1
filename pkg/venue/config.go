package venue

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the settings needed to poll a single external venue's L2
// depth endpoint and replay it into an instrument's book.
type Config struct {
	// DepthURL is the full REST endpoint returning an L2 depth snapshot,
	// e.g. "https://api.example.com/api/v3/depth?symbol=BTCUSDT&limit=50".
	DepthURL string
	// PollInterval is the target time between successive polls.
	PollInterval time.Duration
	// RateLimitPerSecond bounds how often DepthURL may be hit, independent
	// of PollInterval, so a slow consumer never bursts past the venue's
	// own rate limit after a stall.
	RateLimitPerSecond float64
	// HTTPTimeout bounds a single depth request.
	HTTPTimeout time.Duration
	// MaxRetries is the number of attempts before a poll cycle gives up.
	MaxRetries int
}

// LoadConfig reads venue settings from all-caps VENUE_* environment
// variables, falling back to built-in defaults for any that are unset.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("VENUE_DEPTH_URL", "https://api.binance.com/api/v3/depth?symbol=BTCUSDT&limit=50")
	v.SetDefault("VENUE_POLL_INTERVAL_MS", 500)
	v.SetDefault("VENUE_RATE_LIMIT_PER_SECOND", 5.0)
	v.SetDefault("VENUE_HTTP_TIMEOUT_SECONDS", 5)
	v.SetDefault("VENUE_MAX_RETRIES", 3)

	v.AutomaticEnv()

	cfg := &Config{
		DepthURL:           v.GetString("VENUE_DEPTH_URL"),
		PollInterval:       time.Duration(v.GetInt("VENUE_POLL_INTERVAL_MS")) * time.Millisecond,
		RateLimitPerSecond: v.GetFloat64("VENUE_RATE_LIMIT_PER_SECOND"),
		HTTPTimeout:        time.Duration(v.GetInt("VENUE_HTTP_TIMEOUT_SECONDS")) * time.Second,
		MaxRetries:         v.GetInt("VENUE_MAX_RETRIES"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid venue configuration: %w", err)
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DepthURL == "" {
		return fmt.Errorf("VENUE_DEPTH_URL must not be empty")
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("VENUE_POLL_INTERVAL_MS must be positive")
	}
	if cfg.RateLimitPerSecond <= 0 {
		return fmt.Errorf("VENUE_RATE_LIMIT_PER_SECOND must be positive")
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("VENUE_HTTP_TIMEOUT_SECONDS must be positive")
	}
	if cfg.MaxRetries <= 0 {
		return fmt.Errorf("VENUE_MAX_RETRIES must be positive")
	}
	return nil
}
