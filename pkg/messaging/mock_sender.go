package messaging

import (
	"context"

	"github.com/lattice-markets/limitbook/pkg/core"
)

// NoopPublisher is a no-op Publisher for tests and for running a book
// without a trade feed configured.
type NoopPublisher struct{}

// NewNoopPublisher creates a new NoopPublisher.
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

// Publish does nothing.
func (n *NoopPublisher) Publish(ctx context.Context, trades core.Trades) {}

// Close does nothing.
func (n *NoopPublisher) Close() error { return nil }

// Ensure NoopPublisher implements Publisher.
var _ Publisher = (*NoopPublisher)(nil)
