package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lattice-markets/limitbook/pkg/core"
)

func newTestBook(t *testing.T) *core.Book {
	t.Helper()
	b := core.NewBook(core.WithInstrument("BTC-USD"))
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func mustOrder(t *testing.T, id core.OrderId, side core.Side, ot core.OrderType, price, qty uint64) *core.Order {
	t.Helper()
	o, err := core.NewOrder(id, side, ot, core.Price(price), core.Quantity(qty))
	require.NoError(t, err)
	return o
}

func TestTracedBookAddOrderPassesThroughTrades(t *testing.T) {
	ResetForTesting()
	book := newTestBook(t)
	traced := NewTracedBook(book)
	ctx := context.Background()

	traded := traced.AddOrder(ctx, mustOrder(t, 1, core.Sell, core.GoodTillCancel, 100, 10))
	require.Empty(t, traded)

	trades := traced.AddOrder(ctx, mustOrder(t, 2, core.Buy, core.GoodTillCancel, 100, 10))
	require.Len(t, trades, 1)
	require.Equal(t, core.Quantity(10), trades[0].Buy.Quantity)
}

func TestTracedBookCancelOrderDoesNotPanic(t *testing.T) {
	ResetForTesting()
	book := newTestBook(t)
	traced := NewTracedBook(book)
	ctx := context.Background()

	traced.AddOrder(ctx, mustOrder(t, 1, core.Buy, core.GoodTillCancel, 100, 10))
	traced.CancelOrder(ctx, 1)

	require.Nil(t, book.GetOrder(1))
}

func TestTracedBookModifyOrderRecordsTrades(t *testing.T) {
	ResetForTesting()
	book := newTestBook(t)
	traced := NewTracedBook(book)
	ctx := context.Background()

	traced.AddOrder(ctx, mustOrder(t, 1, core.Sell, core.GoodTillCancel, 100, 10))
	traced.AddOrder(ctx, mustOrder(t, 2, core.Buy, core.GoodTillCancel, 90, 10))

	trades := traced.ModifyOrder(ctx, core.NewOrderModify(2, core.Buy, 100, 10))
	require.Len(t, trades, 1)
}

func TestGetBookMetricsIsSingletonUntilReset(t *testing.T) {
	ResetForTesting()
	m1 := GetBookMetrics()
	m2 := GetBookMetrics()
	require.Same(t, m1, m2)

	ResetForTesting()
	m3 := GetBookMetrics()
	require.NotSame(t, m1, m3)
}
