// Package snapshotcache mirrors the latest depth snapshot for an
// instrument into Redis with a TTL, adapted from the key-namespacing and
// zap logging conventions of the Redis order-book backend it replaces —
// this cache stores only the aggregated read-model, never order state.
package snapshotcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lattice-markets/limitbook/pkg/core"
)

// Options configures a Cache's Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// DefaultOptions returns sane connection defaults.
func DefaultOptions() Options {
	return Options{
		Addr: "localhost:6379",
		TTL:  5 * time.Second,
	}
}

// Cache implements core.SnapshotCache by writing the latest Depth for an
// instrument to Redis under a namespaced key with a TTL. A write failure
// is logged and swallowed: this cache is a convenience for external
// readers, not part of the matching engine's correctness surface.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a Cache backed by a fresh Redis client built from opts.
func New(opts Options, logger *zap.Logger) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewWithClient(client, opts.TTL, logger)
}

// NewWithClient creates a Cache over an already-constructed client,
// letting tests inject a miniredis-backed or otherwise stubbed client.
func NewWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultOptions().TTL
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func depthKey(instrument string) string {
	return fmt.Sprintf("book:%s:depth", instrument)
}

// Store serializes depth as JSON and writes it to Redis under
// instrument's key with the configured TTL.
func (c *Cache) Store(ctx context.Context, instrument string, depth core.Depth) {
	data, err := json.Marshal(depth)
	if err != nil {
		c.logger.Error("failed to marshal depth snapshot",
			zap.String("instrument", instrument),
			zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, depthKey(instrument), data, c.ttl).Err(); err != nil {
		c.logger.Error("failed to store depth snapshot",
			zap.String("instrument", instrument),
			zap.Error(err))
	}
}

// Load fetches the most recently stored Depth for instrument. It returns
// (Depth{}, false) if no snapshot is cached or it has expired.
func (c *Cache) Load(ctx context.Context, instrument string) (core.Depth, bool) {
	data, err := c.client.Get(ctx, depthKey(instrument)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Error("failed to load depth snapshot",
				zap.String("instrument", instrument),
				zap.Error(err))
		}
		return core.Depth{}, false
	}

	var depth core.Depth
	if err := json.Unmarshal(data, &depth); err != nil {
		c.logger.Error("failed to unmarshal depth snapshot",
			zap.String("instrument", instrument),
			zap.Error(err))
		return core.Depth{}, false
	}
	return depth, true
}

// Close closes the underlying Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

var _ core.SnapshotCache = (*Cache)(nil)
