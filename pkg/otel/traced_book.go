package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/lattice-markets/limitbook/pkg/core"
)

// TracedBook decorates a *core.Book with tracing spans and metrics around
// AddOrder, CancelOrder, ModifyOrder and the matcher critical section they
// trigger. It does not alter Book's matching semantics; every call is a
// direct passthrough wrapped in observability. When no collector is
// configured the underlying tracer/meter providers are no-ops, so a
// TracedBook behaves exactly like the *core.Book it wraps.
type TracedBook struct {
	*core.Book
	metrics *BookMetrics
}

// NewTracedBook wraps book with tracing and metrics instrumentation.
func NewTracedBook(book *core.Book) *TracedBook {
	return &TracedBook{Book: book, metrics: GetBookMetrics()}
}

// AddOrder traces and times core.Book.AddOrder, recording the trade count
// and matcher duration produced by the call.
func (t *TracedBook) AddOrder(ctx context.Context, order *core.Order) core.Trades {
	ctx, span := StartSpan(ctx, SpanAddOrder,
		instrumentAttr(t.Instrument()),
		attribute.Int64(AttributeOrderID, int64(order.ID())),
		attribute.String(AttributeOrderSide, order.Side().String()),
		attribute.String(AttributeOrderType, order.Type().String()),
		attribute.Int64(AttributeOrderPrice, int64(order.Price())),
		attribute.Int64(AttributeOrderQuantity, int64(order.RemainingQuantity())),
	)
	defer span.End()

	_, matchSpan := StartSpan(ctx, SpanMatch, instrumentAttr(t.Instrument()), operationAttr(SpanAddOrder))
	start := time.Now()
	trades := t.Book.AddOrder(order)
	elapsed := time.Since(start)
	matchSpan.End()

	AddAttributes(span, attribute.Int64(AttributeTradeCount, int64(len(trades))))
	span.SetStatus(codes.Ok, "")

	t.metrics.RecordTrades(ctx, t.Instrument(), int64(len(trades)))
	t.metrics.RecordMatchDuration(ctx, t.Instrument(), SpanAddOrder, float64(elapsed.Microseconds())/1000.0)

	return trades
}

// CancelOrder traces core.Book.CancelOrder.
func (t *TracedBook) CancelOrder(ctx context.Context, id core.OrderId) {
	_, span := StartSpan(ctx, SpanCancelOrder,
		instrumentAttr(t.Instrument()),
		attribute.Int64(AttributeOrderID, int64(id)),
	)
	defer span.End()

	t.Book.CancelOrder(id)
}

// ModifyOrder traces and times core.Book.ModifyOrder, recording the trade
// count and matcher duration produced by the call.
func (t *TracedBook) ModifyOrder(ctx context.Context, mod core.OrderModify) core.Trades {
	ctx, span := StartSpan(ctx, SpanModifyOrder,
		instrumentAttr(t.Instrument()),
		attribute.Int64(AttributeOrderID, int64(mod.ID())),
	)
	defer span.End()

	_, matchSpan := StartSpan(ctx, SpanMatch, instrumentAttr(t.Instrument()), operationAttr(SpanModifyOrder))
	start := time.Now()
	trades := t.Book.ModifyOrder(mod)
	elapsed := time.Since(start)
	matchSpan.End()

	AddAttributes(span, attribute.Int64(AttributeTradeCount, int64(len(trades))))
	span.SetStatus(codes.Ok, "")

	t.metrics.RecordTrades(ctx, t.Instrument(), int64(len(trades)))
	t.metrics.RecordMatchDuration(ctx, t.Instrument(), SpanModifyOrder, float64(elapsed.Microseconds())/1000.0)

	return trades
}
