// Package venue mirrors an external venue's L2 order book depth into a
// local core.Book by polling a REST endpoint and replaying each price
// level as a resting synthetic order. It is adapted from the price-fetch
// loop in pkg/marketmaker: same retry/backoff shape, same viper-driven
// config, but pulling full depth instead of a single last-trade price.
package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lattice-markets/limitbook/pkg/core"
)

// depthResponse is the venue's L2 snapshot payload: two arrays of
// [price, quantity] decimal-string pairs plus a monotonic update id.
type depthResponse struct {
	LastUpdateID uint64     `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// syntheticKey identifies one resting synthetic order by the side and
// price it mirrors.
type syntheticKey struct {
	side  core.Side
	price core.Price
}

// Adapter polls a venue's depth endpoint and keeps a core.Book's resting
// state in sync with it via synthetic GoodTillCancel orders, one per
// price level.
type Adapter struct {
	cfg    *Config
	book   *core.Book
	client *http.Client
	logger zerolog.Logger

	limiter *rate.Limiter

	mu           sync.Mutex
	lastUpdateID uint64
	nextID       core.OrderId
	synthetic    map[syntheticKey]core.OrderId

	stop chan struct{}
	done chan struct{}
}

// NewAdapter constructs an Adapter for book, using cfg's HTTP and rate
// limit settings. idFloor sets the first synthetic order id issued, so
// callers can partition the id space away from client-submitted orders.
func NewAdapter(cfg *Config, book *core.Book, logger zerolog.Logger, idFloor core.OrderId) *Adapter {
	return &Adapter{
		cfg:  cfg,
		book: book,
		client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		logger:    logger.With().Str("component", "venue.Adapter").Logger(),
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), 1),
		nextID:    idFloor,
		synthetic: make(map[syntheticKey]core.OrderId),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins polling on a dedicated goroutine. Callers must call Stop
// to shut it down cleanly.
func (a *Adapter) Start(ctx context.Context) {
	go a.run(ctx)
}

// Stop signals shutdown and blocks until the polling goroutine exits.
func (a *Adapter) Stop() {
	close(a.stop)
	<-a.done
}

func (a *Adapter) run(ctx context.Context) {
	defer close(a.done)

	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.pollOnce(ctx); err != nil {
				a.logger.Warn().Err(err).Msg("venue poll failed")
			}
		}
	}
}

// pollOnce fetches one depth snapshot with retry, and — if it is newer
// than the last one applied — replays it into the book.
func (a *Adapter) pollOnce(ctx context.Context) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= a.cfg.MaxRetries; attempt++ {
		depth, err := a.fetchDepth(ctx)
		if err == nil {
			return a.applyDepth(depth)
		}
		lastErr = err
		a.logger.Warn().Err(err).Int("attempt", attempt).Msg("depth fetch failed")
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return fmt.Errorf("fetch depth after %d attempts: %w", a.cfg.MaxRetries, lastErr)
}

func (a *Adapter) fetchDepth(ctx context.Context) (*depthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.DepthURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out depthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode depth response: %w", err)
	}
	return &out, nil
}

// applyDepth replays a fresh depth snapshot into the book: stale
// snapshots (lastUpdateId not strictly increasing) are discarded, bids
// map to Side::Buy and asks to Side::Sell (fixing the historical bug
// where asks were replayed as buys).
func (a *Adapter) applyDepth(depth *depthResponse) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if depth.LastUpdateID <= a.lastUpdateID {
		return nil
	}
	a.lastUpdateID = depth.LastUpdateID

	if err := a.replaySideLocked(core.Buy, depth.Bids); err != nil {
		return err
	}
	if err := a.replaySideLocked(core.Sell, depth.Asks); err != nil {
		return err
	}
	return nil
}

func (a *Adapter) replaySideLocked(side core.Side, levels [][]string) error {
	seen := make(map[core.Price]struct{}, len(levels))

	for _, level := range levels {
		if len(level) != 2 {
			continue
		}
		price, err := scalePrice(level[0])
		if err != nil {
			return fmt.Errorf("side %s: %w", side, err)
		}
		qty, err := scaleQuantity(level[1])
		if err != nil {
			return fmt.Errorf("side %s: %w", side, err)
		}
		seen[price] = struct{}{}

		if qty == 0 {
			a.removeLevelLocked(side, price)
			continue
		}
		a.upsertLevelLocked(side, price, qty)
	}

	for key := range a.synthetic {
		if key.side != side {
			continue
		}
		if _, ok := seen[key.price]; !ok {
			a.removeLevelLocked(side, key.price)
		}
	}
	return nil
}

func (a *Adapter) upsertLevelLocked(side core.Side, price core.Price, qty core.Quantity) {
	key := syntheticKey{side: side, price: price}
	if id, ok := a.synthetic[key]; ok {
		a.book.ModifyOrder(core.NewOrderModify(id, side, price, qty))
		return
	}

	id := a.nextID
	a.nextID++
	order, err := core.NewOrder(id, side, core.GoodTillCancel, price, qty)
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to build synthetic order")
		return
	}
	a.book.AddOrder(order)
	a.synthetic[key] = id
}

func (a *Adapter) removeLevelLocked(side core.Side, price core.Price) {
	key := syntheticKey{side: side, price: price}
	id, ok := a.synthetic[key]
	if !ok {
		return
	}
	a.book.CancelOrder(id)
	delete(a.synthetic, key)
}
