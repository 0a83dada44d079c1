package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/lattice-markets/limitbook/pkg/otel"

var (
	// bookMetrics holds the singleton instance.
	bookMetrics *BookMetrics
	metricsMu   sync.Mutex
)

// BookMetrics holds the instruments recorded around a book's matching
// operations: a counter of trades executed and a histogram of matcher
// critical-section duration.
type BookMetrics struct {
	tradesTotal   metric.Int64Counter
	matchDuration metric.Float64Histogram
}

func resetInstruments() {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	bookMetrics = nil
}

// GetBookMetrics returns the BookMetrics singleton, building it against
// the current meter provider on first use. If instrument creation fails
// the returned BookMetrics silently no-ops on Record calls.
func GetBookMetrics() *BookMetrics {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	if bookMetrics != nil {
		return bookMetrics
	}

	meter := MeterProvider().Meter(instrumentationName)

	tradesTotal, err := meter.Int64Counter(
		"book.trades_total",
		metric.WithDescription("Total number of trades executed by the matching engine"),
		metric.WithUnit("{trade}"),
	)
	if err != nil {
		bookMetrics = &BookMetrics{}
		return bookMetrics
	}

	matchDuration, err := meter.Float64Histogram(
		"book.match_duration_ms",
		metric.WithDescription("Duration of the matcher critical section"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		bookMetrics = &BookMetrics{tradesTotal: tradesTotal}
		return bookMetrics
	}

	bookMetrics = &BookMetrics{tradesTotal: tradesTotal, matchDuration: matchDuration}
	return bookMetrics
}

// RecordTrades adds count to the trades-executed counter for instrument.
func (m *BookMetrics) RecordTrades(ctx context.Context, instrument string, count int64) {
	if m == nil || m.tradesTotal == nil || count == 0 {
		return
	}
	m.tradesTotal.Add(ctx, count, metric.WithAttributes(instrumentAttr(instrument)))
}

// RecordMatchDuration records how long a matcher critical section took, in
// milliseconds, tagged with instrument and the triggering operation.
func (m *BookMetrics) RecordMatchDuration(ctx context.Context, instrument, operation string, ms float64) {
	if m == nil || m.matchDuration == nil {
		return
	}
	m.matchDuration.Record(ctx, ms, metric.WithAttributes(instrumentAttr(instrument), operationAttr(operation)))
}
