package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Span names, one per book operation traced by TracedBook.
	SpanAddOrder    = "book.add_order"
	SpanCancelOrder = "book.cancel_order"
	SpanModifyOrder = "book.modify_order"
	SpanMatch       = "book.match"

	// Attribute keys.
	AttributeInstrument    = "book.instrument"
	AttributeOrderID       = "order.id"
	AttributeOrderSide     = "order.side"
	AttributeOrderType     = "order.type"
	AttributeOrderQuantity = "order.quantity"
	AttributeOrderPrice    = "order.price"
	AttributeTradeCount    = "trade.count"
	AttributeOperation     = "book.operation"
)

func instrumentAttr(instrument string) attribute.KeyValue {
	return attribute.String(AttributeInstrument, instrument)
}

func operationAttr(operation string) attribute.KeyValue {
	return attribute.String(AttributeOperation, operation)
}

// StartSpan starts a new span named name against the package tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// AddAttributes adds attributes to span, tolerating a nil span so callers
// don't need to guard every call site.
func AddAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	span.SetAttributes(attrs...)
}
