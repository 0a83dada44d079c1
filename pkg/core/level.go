package core

// LevelInfo is an aggregated (price, total remaining quantity) entry —
// one price level's worth of resting liquidity on one side.
type LevelInfo struct {
	Price    Price
	Quantity Quantity
}

// LevelInfos is an ordered sequence of LevelInfo entries.
type LevelInfos []LevelInfo

// Depth is a snapshot container: bids in descending price order, asks
// in ascending price order.
type Depth struct {
	Bids LevelInfos
	Asks LevelInfos
}

// levelData mirrors, per price, how many live orders sit there (across
// both sides — a price can only belong to one side at rest, see the
// book's invariants) and their combined remaining quantity. It is
// incrementally maintained; it is never rebuilt from scratch.
type levelData struct {
	openCount         int
	remainingQuantity Quantity
}
