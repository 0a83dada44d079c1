package core

import "context"

// WorkerPool is the external submit/await contract described in the
// spec's worker-pool contract: submit a callable, get back an awaitable
// whose Wait blocks until the result is ready. Task execution order is
// unspecified. A concrete implementation lives in pkg/workerpool; the
// core package only depends on this interface; the only goroutines it
// starts itself are the pruner's and the two per-side goroutines of the
// CoarseParallel snapshot strategy.
//
// The callable's return type is left as any, mirroring the contract's
// own genericity (R is the callable's return); snapshot strategies box
// a LevelInfo or a []LevelInfo depending on granularity and type-assert
// on Wait.
type WorkerPool interface {
	Submit(fn func() any) Awaitable
}

// Awaitable is the handle returned by WorkerPool.Submit.
type Awaitable interface {
	Wait() any
}

// TradePublisher is the optional trade-feed collaborator (see
// pkg/messaging): every non-empty Trades sequence produced by AddOrder
// or ModifyOrder is hand off to it. Publish must not block the caller
// for long — a slow or absent publisher must never stall matching.
type TradePublisher interface {
	Publish(ctx context.Context, trades Trades)
}

// SnapshotCache is the optional depth-snapshot cache collaborator (see
// pkg/snapshotcache): the engine pushes the latest Depth to it after a
// successful Snapshot/SnapshotPooled call. A cache failure is logged and
// swallowed; it is a convenience, not a correctness dependency.
type SnapshotCache interface {
	Store(ctx context.Context, instrument string, depth Depth)
}
