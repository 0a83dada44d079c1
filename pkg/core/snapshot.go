package core

import (
	"context"
	"runtime"
)

// SnapshotStrategy selects one of the four interchangeable depth
// aggregation strategies. All four produce the same logical output for
// a quiescent book: bids descending by price, asks ascending, each
// entry the sum of remaining quantities at that price.
type SnapshotStrategy int

const (
	// Sequential folds both sides on the calling goroutine.
	Sequential SnapshotStrategy = iota
	// CoarseParallel runs one goroutine per side.
	CoarseParallel
	// PerLevelPooled submits one task per price level to a worker pool.
	PerLevelPooled
	// BatchedPooled partitions each side into contiguous ranges and
	// submits one task per range.
	BatchedPooled
)

// snapshotLevel is a locked-and-copied mirror of one price level, taken
// while holding the book's mutex so downstream formatting/pooling never
// races a concurrent mutator (design option (b) from the concurrency
// model: locked deep copy of the aggregated data, not the live maps).
type snapshotLevel struct {
	price    Price
	quantity Quantity
}

// snapshotState is the whole book's aggregated depth, copied under lock.
type snapshotState struct {
	bids []snapshotLevel
	asks []snapshotLevel
}

// captureLocked walks both sides' linked price levels and level_data
// mirror while the caller already holds b.mu, producing a fully
// detached copy safe to read after the lock is released.
func (b *Book) captureLocked() snapshotState {
	state := snapshotState{}
	for level := b.bids.best(); level != nil; level = level.next {
		if ld, ok := b.levelData[level.price]; ok {
			state.bids = append(state.bids, snapshotLevel{price: level.price, quantity: ld.remainingQuantity})
		}
	}
	for level := b.asks.best(); level != nil; level = level.next {
		if ld, ok := b.levelData[level.price]; ok {
			state.asks = append(state.asks, snapshotLevel{price: level.price, quantity: ld.remainingQuantity})
		}
	}
	return state
}

// Snapshot computes aggregated depth using strategy. PerLevelPooled and
// BatchedPooled require a worker pool; use SnapshotPooled or configure
// a default pool with WithDefaultWorkerPool.
func (b *Book) Snapshot(strategy SnapshotStrategy) (Depth, error) {
	return b.SnapshotPooled(strategy, b.pool)
}

// SnapshotPooled computes aggregated depth using strategy and pool.
// Strategies that don't use a pool (Sequential, CoarseParallel) ignore a
// non-nil pool rather than erroring — only a pool-requiring strategy
// invoked without one is configuration misuse.
func (b *Book) SnapshotPooled(strategy SnapshotStrategy, pool WorkerPool) (Depth, error) {
	b.mu.Lock()
	state := b.captureLocked()
	b.mu.Unlock()

	var depth Depth
	var err error

	switch strategy {
	case Sequential:
		depth = sequentialSnapshot(state)
	case CoarseParallel:
		depth = coarseParallelSnapshot(state)
	case PerLevelPooled:
		if pool == nil {
			return Depth{}, ErrPoolRequired
		}
		depth = perLevelPooledSnapshot(state, pool)
	case BatchedPooled:
		if pool == nil {
			return Depth{}, ErrPoolRequired
		}
		depth = batchedPooledSnapshot(state, pool)
	default:
		depth = sequentialSnapshot(state)
	}

	if err == nil && b.cache != nil {
		b.cache.Store(context.Background(), b.instrument, depth)
	}
	return depth, err
}

func toLevelInfos(levels []snapshotLevel) LevelInfos {
	out := make(LevelInfos, len(levels))
	for i, l := range levels {
		out[i] = LevelInfo{Price: l.price, Quantity: l.quantity}
	}
	return out
}

func sequentialSnapshot(state snapshotState) Depth {
	return Depth{Bids: toLevelInfos(state.bids), Asks: toLevelInfos(state.asks)}
}

func coarseParallelSnapshot(state snapshotState) Depth {
	var bids, asks LevelInfos
	done := make(chan struct{}, 2)

	go func() {
		bids = toLevelInfos(state.bids)
		done <- struct{}{}
	}()
	go func() {
		asks = toLevelInfos(state.asks)
		done <- struct{}{}
	}()
	<-done
	<-done

	return Depth{Bids: bids, Asks: asks}
}

func perLevelPooledSnapshot(state snapshotState, pool WorkerPool) Depth {
	return Depth{
		Bids: collectPerLevel(state.bids, pool),
		Asks: collectPerLevel(state.asks, pool),
	}
}

func collectPerLevel(levels []snapshotLevel, pool WorkerPool) LevelInfos {
	if len(levels) == 0 {
		return nil
	}
	awaitables := make([]Awaitable, len(levels))
	for i, l := range levels {
		l := l
		awaitables[i] = pool.Submit(func() any {
			return LevelInfo{Price: l.price, Quantity: l.quantity}
		})
	}
	out := make(LevelInfos, len(levels))
	for i, a := range awaitables {
		out[i] = a.Wait().(LevelInfo)
	}
	return out
}

func batchedPooledSnapshot(state snapshotState, pool WorkerPool) Depth {
	return Depth{
		Bids: collectBatched(state.bids, pool),
		Asks: collectBatched(state.asks, pool),
	}
}

// batchRanges partitions n items into P ~= min(hardware_parallelism, n)
// contiguous ranges, preserving order so concatenation stays monotone
// in price.
func batchRanges(n int) [][2]int {
	if n == 0 {
		return nil
	}
	p := runtime.GOMAXPROCS(0)
	if p > n {
		p = n
	}
	if p < 1 {
		p = 1
	}

	ranges := make([][2]int, 0, p)
	base := n / p
	rem := n % p
	start := 0
	for i := 0; i < p; i++ {
		size := base
		if i < rem {
			size++
		}
		if size == 0 {
			continue
		}
		ranges = append(ranges, [2]int{start, start + size})
		start += size
	}
	return ranges
}

func collectBatched(levels []snapshotLevel, pool WorkerPool) LevelInfos {
	if len(levels) == 0 {
		return nil
	}

	ranges := batchRanges(len(levels))
	awaitables := make([]Awaitable, len(ranges))

	for i, r := range ranges {
		r := r
		awaitables[i] = pool.Submit(func() any {
			batch := make([]LevelInfo, 0, r[1]-r[0])
			for _, l := range levels[r[0]:r[1]] {
				batch = append(batch, LevelInfo{Price: l.price, Quantity: l.quantity})
			}
			return batch
		})
	}

	out := make(LevelInfos, 0, len(levels))
	for _, a := range awaitables {
		out = append(out, a.Wait().([]LevelInfo)...)
	}
	return out
}
