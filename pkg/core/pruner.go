package core

import (
	"sync"
	"time"
)

const (
	// defaultDayCloseHour is the wall-clock local hour (0-23) at which
	// good-for-day orders are pruned.
	defaultDayCloseHour = 16
	// defaultDayCloseGrace is added to the computed wakeup time so a
	// scheduler that fires slightly early doesn't spin-wait.
	defaultDayCloseGrace = 100 * time.Millisecond
)

// dayOrderPruner is a background task, owned by the Book, that wakes at
// the next day-close local wall-clock boundary (16:00 unless overridden
// with WithDayClose), plus its grace period, and cancels every resting
// GoodForDay order. It is modeled as a dedicated goroutine plus a
// cancellable timed wait gated by a shutdown flag, matching the design
// note on the background pruner: no reliance on signal-based
// interruption.
//
// State machine: Running -> (timeout -> Pruning -> Running) |
// (shutdown -> Exited).
type dayOrderPruner struct {
	book  *Book
	hour  int
	grace time.Duration

	mu       sync.Mutex
	cond     *sync.Cond
	shutdown bool
	done     chan struct{}

	// now is overridable by tests to avoid sleeping until a real
	// wall-clock boundary.
	now func() time.Time
}

func newDayOrderPruner(book *Book, hour int, grace time.Duration) *dayOrderPruner {
	p := &dayOrderPruner{
		book:  book,
		hour:  hour,
		grace: grace,
		done:  make(chan struct{}),
		now:   time.Now,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *dayOrderPruner) start() {
	go p.run()
}

// stop signals shutdown and blocks until the pruner goroutine exits.
func (p *dayOrderPruner) stop() {
	p.mu.Lock()
	p.shutdown = true
	p.cond.Broadcast()
	p.mu.Unlock()
	<-p.done
}

func (p *dayOrderPruner) nextWakeup() time.Time {
	now := p.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), p.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Add(p.grace)
}

func (p *dayOrderPruner) run() {
	defer close(p.done)

	for {
		wakeup := p.nextWakeup()

		p.mu.Lock()
		for !p.shutdown {
			wait := time.Until(wakeup)
			if wait <= 0 {
				break
			}
			timer := time.AfterFunc(wait, func() {
				p.mu.Lock()
				p.cond.Broadcast()
				p.mu.Unlock()
			})
			p.cond.Wait()
			timer.Stop()
		}
		shuttingDown := p.shutdown
		p.mu.Unlock()

		if shuttingDown {
			return
		}

		p.pruneGoodForDay()
	}
}

// pruneGoodForDay enumerates live orders, collects every GoodForDay id,
// and cancels them via the batched path under a single lock acquisition
// — the same lock foreground mutators take.
func (p *dayOrderPruner) pruneGoodForDay() {
	book := p.book

	book.mu.Lock()
	ids := make([]OrderId, 0)
	for id, h := range book.ordersByID {
		if h.order.Type() == GoodForDay {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		book.cancelOrderLocked(id)
	}
	book.mu.Unlock()
}
