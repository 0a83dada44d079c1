package core

import "testing"

func mustOrder(t *testing.T, id OrderId, side Side, ot OrderType, price Price, qty Quantity) *Order {
	t.Helper()
	o, err := NewOrder(id, side, ot, price, qty)
	if err != nil {
		t.Fatalf("NewOrder(%d): %v", id, err)
	}
	return o
}

func newTestBook(t *testing.T) *Book {
	t.Helper()
	b := NewBook()
	t.Cleanup(func() { _ = b.Close() })
	return b
}

// S1 — Simple cross.
func TestSimpleCross(t *testing.T) {
	b := newTestBook(t)

	trades := b.AddOrder(mustOrder(t, 1, Buy, GoodTillCancel, 100, 10))
	if len(trades) != 0 {
		t.Fatalf("expected no trades on first add, got %v", trades)
	}

	trades = b.AddOrder(mustOrder(t, 2, Sell, GoodTillCancel, 100, 10))
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.Buy.OrderID != 1 || tr.Buy.Price != 100 || tr.Buy.Quantity != 10 {
		t.Errorf("unexpected buy side: %+v", tr.Buy)
	}
	if tr.Sell.OrderID != 2 || tr.Sell.Price != 100 || tr.Sell.Quantity != 10 {
		t.Errorf("unexpected sell side: %+v", tr.Sell)
	}

	if b.Size() != 0 {
		t.Errorf("expected empty book, size=%d", b.Size())
	}
}

// S2 — Partial fill + resting.
func TestPartialFillResting(t *testing.T) {
	b := newTestBook(t)
	b.AddOrder(mustOrder(t, 1, Buy, GoodTillCancel, 100, 10))
	trades := b.AddOrder(mustOrder(t, 2, Sell, GoodTillCancel, 99, 4))

	if len(trades) != 1 || trades[0].Buy.Quantity != 4 {
		t.Fatalf("unexpected trades: %+v", trades)
	}
	if trades[0].Buy.Price != 100 || trades[0].Sell.Price != 99 {
		t.Fatalf("unexpected trade prices: %+v", trades[0])
	}

	if b.Size() != 1 {
		t.Fatalf("expected size 1, got %d", b.Size())
	}

	depth, err := b.Snapshot(Sequential)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(depth.Bids) != 1 || depth.Bids[0].Price != 100 || depth.Bids[0].Quantity != 6 {
		t.Fatalf("unexpected bids: %+v", depth.Bids)
	}
	if len(depth.Asks) != 0 {
		t.Fatalf("expected empty asks, got %+v", depth.Asks)
	}
}

// S3 — FIFO within a level.
func TestFIFOWithinLevel(t *testing.T) {
	b := newTestBook(t)
	b.AddOrder(mustOrder(t, 1, Buy, GoodTillCancel, 100, 5))
	b.AddOrder(mustOrder(t, 2, Buy, GoodTillCancel, 100, 5))
	trades := b.AddOrder(mustOrder(t, 3, Sell, GoodTillCancel, 100, 7))

	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d: %+v", len(trades), trades)
	}
	if trades[0].Buy.OrderID != 1 || trades[0].Buy.Quantity != 5 {
		t.Errorf("expected first trade against order 1 qty 5, got %+v", trades[0])
	}
	if trades[1].Buy.OrderID != 2 || trades[1].Buy.Quantity != 2 {
		t.Errorf("expected second trade against order 2 qty 2, got %+v", trades[1])
	}

	if b.Size() != 1 {
		t.Fatalf("expected size 1, got %d", b.Size())
	}
	depth, _ := b.Snapshot(Sequential)
	if len(depth.Bids) != 1 || depth.Bids[0].Quantity != 3 {
		t.Fatalf("unexpected bids: %+v", depth.Bids)
	}
}

// S4 — Fill-or-Kill rejection.
func TestFillOrKillRejection(t *testing.T) {
	b := newTestBook(t)
	b.AddOrder(mustOrder(t, 1, Sell, GoodTillCancel, 100, 5))

	trades := b.AddOrder(mustOrder(t, 3, Buy, FillOrKill, 100, 10))
	if len(trades) != 0 {
		t.Fatalf("expected FOK rejection, got %+v", trades)
	}
	if b.Size() != 1 {
		t.Fatalf("expected size 1, got %d", b.Size())
	}
	depth, _ := b.Snapshot(Sequential)
	if len(depth.Bids) != 0 {
		t.Fatalf("expected empty bids, got %+v", depth.Bids)
	}
	if len(depth.Asks) != 1 || depth.Asks[0].Price != 100 || depth.Asks[0].Quantity != 5 {
		t.Fatalf("unexpected asks: %+v", depth.Asks)
	}
}

// S5 — Market promotion.
func TestMarketPromotion(t *testing.T) {
	b := newTestBook(t)
	b.AddOrder(mustOrder(t, 1, Sell, GoodTillCancel, 100, 3))
	b.AddOrder(mustOrder(t, 2, Sell, GoodTillCancel, 101, 4))

	marketOrder, err := NewOrder(3, Buy, Market, 0, 5)
	if err != nil {
		t.Fatalf("NewOrder market: %v", err)
	}
	trades := b.AddOrder(marketOrder)

	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d: %+v", len(trades), trades)
	}
	if trades[0].Sell.Price != 100 || trades[0].Sell.Quantity != 3 {
		t.Errorf("unexpected first trade: %+v", trades[0])
	}
	if trades[1].Sell.Price != 101 || trades[1].Sell.Quantity != 2 {
		t.Errorf("unexpected second trade: %+v", trades[1])
	}

	if b.Size() != 1 {
		t.Fatalf("expected size 1, got %d", b.Size())
	}
	depth, _ := b.Snapshot(Sequential)
	if len(depth.Asks) != 1 || depth.Asks[0].Price != 101 || depth.Asks[0].Quantity != 2 {
		t.Fatalf("unexpected asks: %+v", depth.Asks)
	}
}

// S6 — Cancel then modify is idempotent.
func TestCancelThenModify(t *testing.T) {
	b := newTestBook(t)
	b.AddOrder(mustOrder(t, 1, Buy, GoodTillCancel, 100, 10))
	b.CancelOrder(1)

	trades := b.ModifyOrder(NewOrderModify(1, Buy, 101, 5))
	if len(trades) != 0 {
		t.Fatalf("expected empty trades for modify of cancelled order, got %+v", trades)
	}
	if b.Size() != 0 {
		t.Fatalf("expected size 0, got %d", b.Size())
	}
}

func TestFillAndKillRejectedWithoutCross(t *testing.T) {
	b := newTestBook(t)
	trades := b.AddOrder(mustOrder(t, 1, Buy, FillAndKill, 100, 5))
	if len(trades) != 0 {
		t.Fatalf("expected FAK rejection, got %+v", trades)
	}
	if b.Size() != 0 {
		t.Fatalf("expected size 0, got %d", b.Size())
	}
}

func TestFillAndKillPartialThenCancelled(t *testing.T) {
	b := newTestBook(t)
	b.AddOrder(mustOrder(t, 1, Sell, GoodTillCancel, 100, 3))
	trades := b.AddOrder(mustOrder(t, 2, Buy, FillAndKill, 100, 10))

	if len(trades) != 1 || trades[0].Buy.Quantity != 3 {
		t.Fatalf("unexpected trades: %+v", trades)
	}
	if b.Size() != 0 {
		t.Fatalf("expected FAK remainder to be cancelled, size=%d", b.Size())
	}
}

func TestDuplicateIDRejected(t *testing.T) {
	b := newTestBook(t)
	b.AddOrder(mustOrder(t, 1, Buy, GoodTillCancel, 100, 10))
	trades := b.AddOrder(mustOrder(t, 1, Buy, GoodTillCancel, 101, 5))
	if len(trades) != 0 {
		t.Fatalf("expected duplicate id rejection, got %+v", trades)
	}
	if b.Size() != 1 {
		t.Fatalf("expected size 1, got %d", b.Size())
	}
}

func TestMarketRejectedWhenOppositeEmpty(t *testing.T) {
	b := newTestBook(t)
	marketOrder, err := NewOrder(1, Buy, Market, 0, 5)
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	trades := b.AddOrder(marketOrder)
	if len(trades) != 0 {
		t.Fatalf("expected rejection, got %+v", trades)
	}
	if b.Size() != 0 {
		t.Fatalf("expected size 0, got %d", b.Size())
	}
}

// P4 — no cross at rest, across a longer randomized-ish sequence of
// crossing and non-crossing adds.
func TestNoCrossAtRest(t *testing.T) {
	b := newTestBook(t)
	orders := []struct {
		id    OrderId
		side  Side
		price Price
		qty   Quantity
	}{
		{1, Buy, 100, 5}, {2, Buy, 99, 5}, {3, Sell, 102, 5},
		{4, Sell, 101, 5}, {5, Buy, 103, 20}, {6, Sell, 98, 3},
	}
	for _, o := range orders {
		b.AddOrder(mustOrder(t, o.id, o.side, GoodTillCancel, o.price, o.qty))
		depth, err := b.Snapshot(Sequential)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if len(depth.Bids) > 0 && len(depth.Asks) > 0 && depth.Bids[0].Price >= depth.Asks[0].Price {
			t.Fatalf("book crossed at rest after adding %+v: bids=%+v asks=%+v", o, depth.Bids, depth.Asks)
		}
	}
}

func TestCancelOrdersBatched(t *testing.T) {
	b := newTestBook(t)
	b.AddOrder(mustOrder(t, 1, Buy, GoodTillCancel, 100, 5))
	b.AddOrder(mustOrder(t, 2, Buy, GoodTillCancel, 99, 5))
	b.AddOrder(mustOrder(t, 3, Sell, GoodTillCancel, 105, 5))

	b.CancelOrders([]OrderId{1, 2, 3, 999})
	if b.Size() != 0 {
		t.Fatalf("expected size 0, got %d", b.Size())
	}
}

func TestModifyLosesTimePriority(t *testing.T) {
	b := newTestBook(t)
	b.AddOrder(mustOrder(t, 1, Buy, GoodTillCancel, 100, 5))
	b.AddOrder(mustOrder(t, 2, Buy, GoodTillCancel, 100, 5))

	// Re-price order 1 at the same price: it should go to the tail,
	// so a subsequent match consumes order 2 first.
	b.ModifyOrder(NewOrderModify(1, Buy, 100, 5))

	trades := b.AddOrder(mustOrder(t, 3, Sell, GoodTillCancel, 100, 5))
	if len(trades) != 1 || trades[0].Buy.OrderID != 2 {
		t.Fatalf("expected modified order to lose priority, trades=%+v", trades)
	}
}

func TestCalculateMarketPrice(t *testing.T) {
	b := newTestBook(t)
	b.AddOrder(mustOrder(t, 1, Sell, GoodTillCancel, 100, 3))
	b.AddOrder(mustOrder(t, 2, Sell, GoodTillCancel, 101, 4))

	price, err := b.CalculateMarketPrice(Buy, 5)
	if err != nil {
		t.Fatalf("CalculateMarketPrice: %v", err)
	}
	want := Price(100*3 + 101*2)
	if price != want {
		t.Fatalf("expected %d, got %d", want, price)
	}

	_, err = b.CalculateMarketPrice(Buy, 100)
	if err != ErrInsufficientQuantity {
		t.Fatalf("expected ErrInsufficientQuantity, got %v", err)
	}
}
