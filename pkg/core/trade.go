package core

// TradeInfo is one party's side of an executed Trade: which order it
// was, at what price that party's own quote was recorded, and how much
// quantity changed hands.
type TradeInfo struct {
	OrderID  OrderId
	Price    Price
	Quantity Quantity
}

// Trade is an executed match. Both sides share the same Quantity; each
// side's Price is that party's own resting/incoming quote at match
// time (they can differ — the resting order's price is the trade
// price the aggressor pays/receives).
type Trade struct {
	Buy  TradeInfo
	Sell TradeInfo
}

// Trades is an append-only sequence of executed matches, the result of
// a single AddOrder/ModifyOrder call.
type Trades []Trade
