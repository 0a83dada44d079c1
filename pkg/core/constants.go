package core

import "errors"

// Errors returned by the book's public API. Admission refusal is never
// reported through these; it is communicated in-band as an empty Trades
// result, per the engine's error handling design.
var (
	// ErrInvalidQuantity is returned when an order is constructed with a
	// zero or negative quantity.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidPrice is returned when a limit order is constructed with
	// a zero price.
	ErrInvalidPrice = errors.New("invalid price")
	// ErrPoolRequired is returned by a snapshot strategy that needs a
	// worker pool when it is invoked without one. This is configuration
	// misuse, distinguishable from admission refusal.
	ErrPoolRequired = errors.New("snapshot strategy requires a worker pool")
	// ErrInsufficientQuantity is returned by CalculateMarketPrice when
	// the opposing side cannot fully absorb the requested quantity.
	ErrInsufficientQuantity = errors.New("insufficient quantity to fill")
)

// ScaleFactor translates between the venue adapter's external decimal
// representation and the engine's internal fixed-point integers. Only
// the venue adapter cares about this; the book only ever sees Price and
// Quantity as opaque uint64 values.
const ScaleFactor = 100_000_000
