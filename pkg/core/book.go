package core

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// orderHandle is the stable, O(1)-resolvable pointer the id index keeps
// into an order's queue position. It remains valid across unrelated
// insertions and deletions elsewhere in the book.
type orderHandle struct {
	order *Order
	side  Side
	level *priceLevel
	elem  *list.Element
}

// Book is the indexed order book for a single instrument: two
// price-sorted sides, an id index, and an aggregated level-data mirror,
// all guarded by a single mutex. Book is the sole long-lived owner of
// every Order it holds.
type Book struct {
	mu sync.Mutex

	bids *bookSide
	asks *bookSide

	ordersByID map[OrderId]*orderHandle
	levelData  map[Price]*levelData

	publisher TradePublisher
	cache     SnapshotCache
	pool      WorkerPool

	instrument string

	pruner *dayOrderPruner

	dayCloseHour  int
	dayCloseGrace time.Duration
}

// Option configures a Book at construction time.
type Option func(*Book)

// WithTradePublisher attaches a trade-feed collaborator.
func WithTradePublisher(p TradePublisher) Option {
	return func(b *Book) { b.publisher = p }
}

// WithSnapshotCache attaches a depth-snapshot cache collaborator.
func WithSnapshotCache(c SnapshotCache) Option {
	return func(b *Book) { b.cache = c }
}

// WithDefaultWorkerPool attaches the worker pool Snapshot uses for the
// pooled strategies. SnapshotPooled always uses the pool it is given.
func WithDefaultWorkerPool(p WorkerPool) Option {
	return func(b *Book) { b.pool = p }
}

// WithInstrument names the instrument this book trades, used as the
// snapshot-cache key and reported by Instrument.
func WithInstrument(name string) Option {
	return func(b *Book) { b.instrument = name }
}

// WithDayClose overrides the wall-clock local hour and grace period the
// good-for-day pruner wakes at.
func WithDayClose(hour int, grace time.Duration) Option {
	return func(b *Book) {
		b.dayCloseHour = hour
		b.dayCloseGrace = grace
	}
}

// NewBook constructs an empty Book and starts its good-for-day pruner.
// Callers must call Close to stop the pruner cleanly.
func NewBook(opts ...Option) *Book {
	b := &Book{
		bids:          newBookSide(bidBetter),
		asks:          newBookSide(askBetter),
		ordersByID:    make(map[OrderId]*orderHandle),
		levelData:     make(map[Price]*levelData),
		instrument:    "default",
		dayCloseHour:  defaultDayCloseHour,
		dayCloseGrace: defaultDayCloseGrace,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.pruner = newDayOrderPruner(b, b.dayCloseHour, b.dayCloseGrace)
	b.pruner.start()
	return b
}

// Close stops the good-for-day pruner and joins its goroutine. Safe to
// call more than once; the Book must not be used for further mutation
// afterward.
func (b *Book) Close() error {
	b.pruner.stop()
	return nil
}

// Instrument returns the name this book was constructed with via
// WithInstrument.
func (b *Book) Instrument() string {
	return b.instrument
}

// Size returns the number of live orders in the book.
func (b *Book) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ordersByID)
}

// GetOrder returns a snapshot copy of the order with id, or nil if it
// is not currently resting in the book.
func (b *Book) GetOrder(id OrderId) *Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := b.ordersByID[id]
	if !ok {
		return nil
	}
	cp := *h.order
	return &cp
}

// AddOrder admits and, if applicable, matches order against the book.
// It returns the trades executed as a direct or indirect result of this
// call. An order that is rejected at admission, or whose id already
// exists, produces an empty Trades and no state change.
func (b *Book) AddOrder(order *Order) Trades {
	b.mu.Lock()
	trades := b.addOrderLocked(order)
	b.mu.Unlock()

	b.publish(trades)
	return trades
}

// CancelOrder removes the order with id from the book. A missing id is
// a no-op.
func (b *Book) CancelOrder(id OrderId) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelOrderLocked(id)
}

// CancelOrders cancels every id in ids under a single lock acquisition,
// semantically equivalent to a loop of CancelOrder.
func (b *Book) CancelOrders(ids []OrderId) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		b.cancelOrderLocked(id)
	}
}

// ModifyOrder replaces the order named by mod.ID() with a fresh order
// built from mod, inheriting the original's discipline. The whole
// cancel+add sequence runs under one critical section, so a concurrent
// cancel cannot race between reading the discipline and re-adding (see
// the design notes' open question on Modify's atomicity).
func (b *Book) ModifyOrder(mod OrderModify) Trades {
	b.mu.Lock()
	h, ok := b.ordersByID[mod.id]
	if !ok {
		b.mu.Unlock()
		return nil
	}
	discipline := h.order.Type()
	b.cancelOrderLocked(mod.id)

	newOrder, err := mod.ToOrder(discipline)
	if err != nil {
		b.mu.Unlock()
		return nil
	}

	trades := b.addOrderLocked(newOrder)
	b.mu.Unlock()

	b.publish(trades)
	return trades
}

// CalculateMarketPrice reports the total cost of fully filling quantity
// against the opposing side, walking it from the best level: the sum of
// level price times quantity taken at that level. It returns
// ErrInsufficientQuantity if the opposing side cannot absorb quantity.
func (b *Book) CalculateMarketPrice(side Side, quantity Quantity) (Price, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	opposite := b.oppositeSide(side)
	remaining := quantity
	var total uint64

	for level := opposite.best(); level != nil && remaining > 0; level = level.next {
		for e := level.orders.Front(); e != nil && remaining > 0; e = e.Next() {
			order := e.Value.(*Order)
			take := order.RemainingQuantity()
			if take > remaining {
				take = remaining
			}
			total += uint64(level.price) * uint64(take)
			remaining -= take
		}
	}

	if remaining > 0 {
		return 0, ErrInsufficientQuantity
	}
	return Price(total), nil
}

// String dumps both sides' price levels with their aggregate quantity
// and order count, for debugging/logging.
func (b *Book) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("Bids:")
	for level := b.bids.best(); level != nil; level = level.next {
		fmt.Fprintf(&sb, "\n  %d -> quantity: %d, orders: %d", level.price, b.levelData[level.price].remainingQuantity, level.orders.Len())
	}
	sb.WriteString("\nAsks:")
	for level := b.asks.best(); level != nil; level = level.next {
		fmt.Fprintf(&sb, "\n  %d -> quantity: %d, orders: %d", level.price, b.levelData[level.price].remainingQuantity, level.orders.Len())
	}
	return sb.String()
}

// publish hands a non-empty Trades sequence to the trade-feed
// collaborator, if any, after the book's lock has been released.
func (b *Book) publish(trades Trades) {
	if len(trades) == 0 || b.publisher == nil {
		return
	}
	b.publisher.Publish(context.Background(), trades)
}

// --- internal, lock-held operations ---

func (b *Book) sideOf(side Side) *bookSide {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

func (b *Book) oppositeSide(side Side) *bookSide {
	return b.sideOf(side.Opposite())
}

// canMatch is O(1): true iff the opposite side is non-empty and its
// best quote crosses price.
func (b *Book) canMatch(side Side, price Price) bool {
	opposite := b.oppositeSide(side)
	if opposite.isEmpty() {
		return false
	}
	best := opposite.best().price
	if side == Buy {
		return price >= best
	}
	return price <= best
}

// canFullyFill walks level_data in price order from the opposing best,
// accumulating remaining quantity until quantity is reached or the
// marketable range is exhausted.
func (b *Book) canFullyFill(side Side, price Price, quantity Quantity) bool {
	opposite := b.oppositeSide(side)
	remaining := quantity

	for level := opposite.best(); level != nil; level = level.next {
		if side == Buy && level.price > price {
			break
		}
		if side == Sell && level.price < price {
			break
		}

		ld, ok := b.levelData[level.price]
		if !ok {
			continue
		}
		if ld.remainingQuantity >= remaining {
			return true
		}
		remaining -= ld.remainingQuantity
	}

	return remaining == 0
}

func (b *Book) addOrderLocked(order *Order) Trades {
	if order == nil {
		return nil
	}
	if _, exists := b.ordersByID[order.ID()]; exists {
		return nil
	}

	switch order.Type() {
	case FillAndKill:
		if !b.canMatch(order.Side(), order.Price()) {
			return nil
		}
	case Market:
		opposite := b.oppositeSide(order.Side())
		if opposite.isEmpty() {
			return nil
		}
		order.ToGoodTillCancel(opposite.tail.price)
	case FillOrKill:
		if !b.canFullyFill(order.Side(), order.Price(), order.InitialQuantity()) {
			return nil
		}
	}

	b.insertLocked(order)
	return b.matchOrdersLocked()
}

func (b *Book) insertLocked(order *Order) {
	side := b.sideOf(order.Side())
	level := side.levelOrCreate(order.Price())
	elem := level.orders.PushBack(order)

	b.ordersByID[order.ID()] = &orderHandle{
		order: order,
		side:  order.Side(),
		level: level,
		elem:  elem,
	}
	b.levelDataOnAdd(order.Price(), order.RemainingQuantity())
}

// detachLocked removes an order from its queue/level and the id index.
// It does not touch level_data — callers apply the level-data event
// that matches their own semantics (Add/Match/Remove).
func (b *Book) detachLocked(h *orderHandle) {
	delete(b.ordersByID, h.order.ID())
	h.level.orders.Remove(h.elem)
	if h.level.orders.Len() == 0 {
		b.sideOf(h.side).removeLevel(h.level)
	}
}

func (b *Book) cancelOrderLocked(id OrderId) *Order {
	h, ok := b.ordersByID[id]
	if !ok {
		return nil
	}
	b.levelDataOnRemove(h.level.price, h.order.RemainingQuantity())
	b.detachLocked(h)
	return h.order
}

// matchOrdersLocked runs the crossing loop to quiescence: while both
// books are non-empty and the best bid crosses the best ask, the front
// order of each best level trades for min(remaining_bid, remaining_ask).
// After the loop exits, a resting FillAndKill order at the very front of
// either book is cancelled (it is no longer crossing and must not
// rest) — see the FillAndKill tail policy.
func (b *Book) matchOrdersLocked() Trades {
	var trades Trades

	for {
		if b.bids.isEmpty() || b.asks.isEmpty() {
			break
		}
		bidLevel := b.bids.best()
		askLevel := b.asks.best()
		if bidLevel.price < askLevel.price {
			break
		}

		bidHandleOrder := bidLevel.front()
		askHandleOrder := askLevel.front()

		qty := bidHandleOrder.RemainingQuantity()
		if askHandleOrder.RemainingQuantity() < qty {
			qty = askHandleOrder.RemainingQuantity()
		}

		bidHandleOrder.Fill(qty)
		askHandleOrder.Fill(qty)

		trades = append(trades, Trade{
			Buy:  TradeInfo{OrderID: bidHandleOrder.ID(), Price: bidHandleOrder.Price(), Quantity: qty},
			Sell: TradeInfo{OrderID: askHandleOrder.ID(), Price: askHandleOrder.Price(), Quantity: qty},
		})

		bidFilled := bidHandleOrder.IsFilled()
		askFilled := askHandleOrder.IsFilled()
		b.levelDataOnMatch(bidLevel.price, qty, bidFilled)
		b.levelDataOnMatch(askLevel.price, qty, askFilled)

		if bidFilled {
			b.detachLocked(b.ordersByID[bidHandleOrder.ID()])
		}
		if askFilled {
			b.detachLocked(b.ordersByID[askHandleOrder.ID()])
		}
	}

	if !b.bids.isEmpty() {
		if front := b.bids.best().front(); front.Type() == FillAndKill {
			b.cancelOrderLocked(front.ID())
		}
	}
	if !b.asks.isEmpty() {
		if front := b.asks.best().front(); front.Type() == FillAndKill {
			b.cancelOrderLocked(front.ID())
		}
	}

	return trades
}

func (b *Book) levelDataOnAdd(price Price, qty Quantity) {
	ld, ok := b.levelData[price]
	if !ok {
		ld = &levelData{}
		b.levelData[price] = ld
	}
	ld.openCount++
	ld.remainingQuantity += qty
}

func (b *Book) levelDataOnRemove(price Price, qty Quantity) {
	ld, ok := b.levelData[price]
	if !ok {
		return
	}
	ld.openCount--
	ld.remainingQuantity -= qty
	if ld.openCount <= 0 {
		delete(b.levelData, price)
	}
}

func (b *Book) levelDataOnMatch(price Price, qty Quantity, filled bool) {
	ld, ok := b.levelData[price]
	if !ok {
		return
	}
	ld.remainingQuantity -= qty
	if filled {
		ld.openCount--
		if ld.openCount <= 0 {
			delete(b.levelData, price)
		}
	}
}
