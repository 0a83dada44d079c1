// Package messaging defines the wire shape and publisher contract for
// the trade feed. Concrete transports (pkg/messaging/kafka) implement
// Publisher; pkg/core only depends on core.TradePublisher, which
// Publisher satisfies.
package messaging

import (
	"context"

	"github.com/lattice-markets/limitbook/pkg/core"
)

// TradeMessage is the wire representation of one executed trade.
type TradeMessage struct {
	Instrument  string `json:"instrument"`
	BuyOrderID  uint64 `json:"buy_order_id"`
	SellOrderID uint64 `json:"sell_order_id"`
	BuyPrice    uint64 `json:"buy_price"`
	SellPrice   uint64 `json:"sell_price"`
	Quantity    uint64 `json:"quantity"`
}

// FromTrade converts a core.Trade into its wire representation.
func FromTrade(instrument string, t core.Trade) TradeMessage {
	return TradeMessage{
		Instrument:  instrument,
		BuyOrderID:  uint64(t.Buy.OrderID),
		SellOrderID: uint64(t.Sell.OrderID),
		BuyPrice:    uint64(t.Buy.Price),
		SellPrice:   uint64(t.Sell.Price),
		Quantity:    uint64(t.Buy.Quantity),
	}
}

// Publisher publishes executed trades to the trade feed. It satisfies
// core.TradePublisher.
type Publisher interface {
	Publish(ctx context.Context, trades core.Trades)
	Close() error
}
