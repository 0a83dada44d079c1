package core

import (
	"testing"
	"time"
)

func TestNextWakeupSameDay(t *testing.T) {
	p := newDayOrderPruner(nil, 16, 0)
	p.now = func() time.Time {
		return time.Date(2026, 8, 6, 9, 0, 0, 0, time.Local)
	}
	want := time.Date(2026, 8, 6, 16, 0, 0, 0, time.Local)
	if got := p.nextWakeup(); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestNextWakeupRollsToNextDay(t *testing.T) {
	p := newDayOrderPruner(nil, 16, 0)
	p.now = func() time.Time {
		return time.Date(2026, 8, 6, 16, 0, 1, 0, time.Local)
	}
	want := time.Date(2026, 8, 7, 16, 0, 0, 0, time.Local)
	if got := p.nextWakeup(); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestNextWakeupIncludesGrace(t *testing.T) {
	p := newDayOrderPruner(nil, 16, 250*time.Millisecond)
	p.now = func() time.Time {
		return time.Date(2026, 8, 6, 9, 0, 0, 0, time.Local)
	}
	want := time.Date(2026, 8, 6, 16, 0, 0, 250*int(time.Millisecond), time.Local)
	if got := p.nextWakeup(); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPruneGoodForDayCancelsOnlyGFDOrders(t *testing.T) {
	b := newTestBook(t)
	b.AddOrder(mustOrder(t, 1, Buy, GoodForDay, 100, 5))
	b.AddOrder(mustOrder(t, 2, Buy, GoodTillCancel, 99, 5))
	b.AddOrder(mustOrder(t, 3, Sell, GoodForDay, 105, 5))

	b.pruner.pruneGoodForDay()

	if b.GetOrder(1) != nil {
		t.Fatalf("expected GoodForDay order 1 to be pruned")
	}
	if b.GetOrder(3) != nil {
		t.Fatalf("expected GoodForDay order 3 to be pruned")
	}
	if b.GetOrder(2) == nil {
		t.Fatalf("expected GoodTillCancel order 2 to survive")
	}
	if b.Size() != 1 {
		t.Fatalf("expected size 1, got %d", b.Size())
	}
}

func TestPrunerStopIsIdempotentAcrossClose(t *testing.T) {
	b := NewBook()
	b.AddOrder(mustOrder(t, 1, Buy, GoodTillCancel, 100, 5))
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
