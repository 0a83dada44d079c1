package core

import "fmt"

// Order stores the mutable per-order state the book tracks: identity,
// side, discipline, price, and initial/remaining quantity.
//
// Invariants: 0 <= remaining <= initial; a GoodTillCancel order carries
// price > 0 once it has been promoted from Market (see ToGoodTillCancel).
type Order struct {
	id           OrderId
	side         Side
	orderType    OrderType
	price        Price
	initialQty   Quantity
	remainingQty Quantity
}

// NewOrder constructs an Order. Market orders are constructed with
// price 0 (their price is not meaningful until AddOrder promotes them).
func NewOrder(id OrderId, side Side, orderType OrderType, price Price, quantity Quantity) (*Order, error) {
	if quantity == 0 {
		return nil, ErrInvalidQuantity
	}
	if orderType != Market && price == 0 {
		return nil, ErrInvalidPrice
	}

	return &Order{
		id:           id,
		side:         side,
		orderType:    orderType,
		price:        price,
		initialQty:   quantity,
		remainingQty: quantity,
	}, nil
}

// ID returns the order's identity.
func (o *Order) ID() OrderId { return o.id }

// Side returns which side of the book the order rests on.
func (o *Order) Side() Side { return o.side }

// Type returns the order's discipline.
func (o *Order) Type() OrderType { return o.orderType }

// Price returns the order's limit price. For a Market order this is
// zero until ToGoodTillCancel promotes it.
func (o *Order) Price() Price { return o.price }

// InitialQuantity returns the quantity the order was created with.
func (o *Order) InitialQuantity() Quantity { return o.initialQty }

// RemainingQuantity returns the quantity still unfilled.
func (o *Order) RemainingQuantity() Quantity { return o.remainingQty }

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool { return o.remainingQty == 0 }

// Fill reduces the remaining quantity by qty. It panics if qty exceeds
// the remaining quantity — that is an invariant violation, not an
// admission-time condition, so it fails fast rather than clamping.
func (o *Order) Fill(qty Quantity) {
	if qty > o.remainingQty {
		panic(fmt.Sprintf("order %d: cannot fill %d, only %d remaining", o.id, qty, o.remainingQty))
	}
	o.remainingQty -= qty
}

// ToGoodTillCancel rewrites a Market order's discipline to
// GoodTillCancel pinned at price p. Used to promote a Market order to a
// concrete resting price before it is inserted into the book.
func (o *Order) ToGoodTillCancel(p Price) {
	if o.orderType != Market {
		panic(fmt.Sprintf("order %d: ToGoodTillCancel called on non-Market order", o.id))
	}
	o.orderType = GoodTillCancel
	o.price = p
}

// String implements fmt.Stringer for debugging/logging.
func (o *Order) String() string {
	return fmt.Sprintf("Order{id=%d side=%s type=%s price=%d qty=%d/%d}",
		o.id, o.side, o.orderType, o.price, o.remainingQty, o.initialQty)
}

// OrderModify is an immutable replacement descriptor: a target id plus
// the new price/side/quantity to apply. It converts to a fresh Order
// whose discipline is inherited from the order it replaces.
type OrderModify struct {
	id       OrderId
	side     Side
	price    Price
	quantity Quantity
}

// NewOrderModify constructs an OrderModify.
func NewOrderModify(id OrderId, side Side, price Price, quantity Quantity) OrderModify {
	return OrderModify{id: id, side: side, price: price, quantity: quantity}
}

// ID returns the id of the order being replaced.
func (m OrderModify) ID() OrderId { return m.id }

// ToOrder builds a fresh Order from the modify descriptor, inheriting
// discipline from the order it replaces.
func (m OrderModify) ToOrder(discipline OrderType) (*Order, error) {
	return NewOrder(m.id, m.side, discipline, m.price, m.quantity)
}
