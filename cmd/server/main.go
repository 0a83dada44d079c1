// Command server runs a single-instrument matching engine behind a small
// JSON HTTP surface, wiring together the config, logging, tracing,
// trade-publishing, snapshot-caching and venue-mirroring collaborators
// the way pkg/core.Book expects them.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/zap"

	"github.com/lattice-markets/limitbook/config"
	"github.com/lattice-markets/limitbook/pkg/core"
	"github.com/lattice-markets/limitbook/pkg/logging"
	"github.com/lattice-markets/limitbook/pkg/messaging"
	"github.com/lattice-markets/limitbook/pkg/messaging/kafka"
	otelx "github.com/lattice-markets/limitbook/pkg/otel"
	"github.com/lattice-markets/limitbook/pkg/snapshotcache"
	"github.com/lattice-markets/limitbook/pkg/venue"
	"github.com/lattice-markets/limitbook/pkg/workerpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logging.Setup(logging.Config{
		Level:  cfg.Server.LogLevel,
		Pretty: cfg.Server.LogFormat == "pretty",
	})
	logger := logging.FromContext(context.Background())

	cleanupOtel, err := otelx.Init(otelx.Config{CollectorEnabled: false})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize opentelemetry")
	}
	defer cleanupOtel()

	book, closeBook := buildBook(cfg, logger)
	defer closeBook()

	traced := otelx.NewTracedBook(book)

	var adapter *venue.Adapter
	if cfg.Venue.Enabled {
		venueCfg := &venue.Config{
			DepthURL:           cfg.Venue.DepthURL,
			PollInterval:       cfg.Venue.PollInterval,
			RateLimitPerSecond: 5,
			HTTPTimeout:        5 * time.Second,
			MaxRetries:         3,
		}
		adapter = venue.NewAdapter(venueCfg, book, logger, 1<<32)
		ctx, cancel := context.WithCancel(context.Background())
		adapter.Start(ctx)
		defer cancel()
		defer adapter.Stop()
	}

	mux := newMux(traced, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: mux,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.HTTPAddr).Msg("starting http server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown error")
	}
}

// buildBook constructs the instrument's Book with every collaborator cfg
// asks for wired in, returning a cleanup func that closes the book and
// any collaborators that own background resources.
func buildBook(cfg *config.Config, logger zerolog.Logger) (*core.Book, func()) {
	var publisher core.TradePublisher
	var closers []func() error

	if cfg.Kafka.BrokerAddr != "" {
		kafkaPublisher := kafka.NewPublisher(cfg.Kafka.BrokerAddr, cfg.Kafka.Topic, cfg.Book.Instrument)
		publisher = kafkaPublisher
		closers = append(closers, kafkaPublisher.Close)
	} else {
		publisher = messaging.NewNoopPublisher()
	}

	pool := workerpool.New(cfg.Book.WorkerPoolSize)
	closers = append(closers, func() error { pool.Close(); return nil })

	cache := snapshotcache.New(snapshotcache.Options{
		Addr: cfg.SnapshotCache.Addr,
		TTL:  cfg.SnapshotCache.TTL,
	}, zap.NewNop())
	closers = append(closers, cache.Close)

	book := core.NewBook(
		core.WithInstrument(cfg.Book.Instrument),
		core.WithTradePublisher(publisher),
		core.WithSnapshotCache(cache),
		core.WithDefaultWorkerPool(pool),
		core.WithDayClose(cfg.Book.DayCloseHourLocal, time.Duration(cfg.Book.DayCloseGraceMS)*time.Millisecond),
	)

	return book, func() {
		_ = book.Close()
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn().Err(err).Msg("error during shutdown")
			}
		}
	}
}
