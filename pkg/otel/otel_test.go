package otel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTracerFallsBackToNoopWhenUninitialized(t *testing.T) {
	ResetForTesting()
	tr := Tracer()
	require.NotNil(t, tr)
}

func TestInitWithCollectorDisabledStillProducesUsableTracer(t *testing.T) {
	ResetForTesting()
	cleanup, err := Init(Config{CollectorEnabled: false})
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, Tracer())
	require.NotNil(t, MeterProvider())
}

func TestResetForTestingClearsInstruments(t *testing.T) {
	ResetForTesting()
	m1 := GetBookMetrics()
	require.NotNil(t, m1)

	ResetForTesting()
	m2 := GetBookMetrics()
	require.NotSame(t, m1, m2)
}
