// Package config loads the ambient settings for the matching engine
// process: flags plus an optional YAML file override, mirroring the
// flag+yaml.v3 split the teacher's own config package used before it
// grew a gRPC-specific server section.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the full process configuration.
type Config struct {
	Server struct {
		HTTPAddr  string `yaml:"http_addr"`
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`
	} `yaml:"server"`

	Book struct {
		Instrument        string `yaml:"instrument"`
		WorkerPoolSize    int    `yaml:"worker_pool_size"`
		DayCloseHourLocal int    `yaml:"day_close_hour_local"`
		DayCloseGraceMS   int    `yaml:"day_close_grace_ms"`
	} `yaml:"book"`

	SnapshotCache struct {
		Addr string        `yaml:"addr"`
		TTL  time.Duration `yaml:"ttl"`
	} `yaml:"snapshot_cache"`

	Kafka struct {
		BrokerAddr string `yaml:"broker_addr"`
		Topic      string `yaml:"topic"`
	} `yaml:"trade_topic"`

	Venue struct {
		DepthURL     string        `yaml:"depth_url"`
		PollInterval time.Duration `yaml:"poll_interval"`
		Enabled      bool          `yaml:"enabled"`
	} `yaml:"venue"`
}

var (
	configFile     = flag.String("config", "", "Path to config file (YAML)")
	httpPort       = flag.Int("http_port", 8080, "The HTTP server port")
	logLevel       = flag.String("log_level", "info", "Log level: debug, info, warn, error")
	logFormat      = flag.String("log_format", "pretty", "Log format: json, pretty")
	instrument     = flag.String("instrument", "BTC-USD", "Instrument name for this book")
	workerPoolSize = flag.Int("worker_pool_size", 4, "Number of workers backing pooled snapshot strategies")
)

// Load parses flags and, if -config points at a YAML file, overlays it
// on top of the flag-derived defaults.
func Load() (*Config, error) {
	if !flag.Parsed() {
		flag.Parse()
	}

	cfg := &Config{}
	cfg.Server.HTTPAddr = fmt.Sprintf(":%d", *httpPort)
	cfg.Server.LogLevel = *logLevel
	cfg.Server.LogFormat = *logFormat
	cfg.Book.Instrument = *instrument
	cfg.Book.WorkerPoolSize = *workerPoolSize
	cfg.Book.DayCloseHourLocal = 16
	cfg.Book.DayCloseGraceMS = 100
	cfg.SnapshotCache.Addr = "localhost:6379"
	cfg.SnapshotCache.TTL = 5 * time.Second
	cfg.Kafka.BrokerAddr = "localhost:9092"
	cfg.Kafka.Topic = "trades"
	cfg.Venue.DepthURL = "https://api.binance.com/api/v3/depth?symbol=BTCUSDT&limit=50"
	cfg.Venue.PollInterval = 500 * time.Millisecond
	cfg.Venue.Enabled = false

	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return cfg, nil
}
