// Package kafka publishes executed trades to a Kafka topic using
// segmentio/kafka-go. Matching must never stall on a slow broker, so
// Publish only ever enqueues onto a bounded channel; a dedicated
// goroutine drains it and does the actual write.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/lattice-markets/limitbook/pkg/core"
	"github.com/lattice-markets/limitbook/pkg/logging"
	"github.com/lattice-markets/limitbook/pkg/messaging"
)

// queueDepth bounds how many trades can be pending publication before
// the oldest is dropped in favor of the newest.
const queueDepth = 4096

// messageWriter is the subset of *kafkago.Writer that Publisher depends
// on, narrowed so tests can substitute a stub instead of dialing a real
// broker.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher implements messaging.Publisher over a Kafka topic.
type Publisher struct {
	writer     messageWriter
	instrument string

	queue   chan core.Trade
	dropped uint64
	done    chan struct{}
}

// NewPublisher creates a Publisher writing to topic on brokerAddr and
// starts its drain goroutine.
func NewPublisher(brokerAddr, topic, instrument string) *Publisher {
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(brokerAddr),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return newPublisherWithWriter(writer, instrument)
}

func newPublisherWithWriter(writer messageWriter, instrument string) *Publisher {
	p := &Publisher{
		writer:     writer,
		instrument: instrument,
		queue:      make(chan core.Trade, queueDepth),
		done:       make(chan struct{}),
	}
	go p.drain()
	return p
}

// Publish enqueues every trade in trades. If the queue is full the
// oldest pending trade is dropped to make room, so a burst of matches
// never blocks the caller.
func (p *Publisher) Publish(ctx context.Context, trades core.Trades) {
	for _, t := range trades {
		select {
		case p.queue <- t:
		default:
			select {
			case <-p.queue:
				p.dropped++
				log := logging.FromContext(ctx)
				log.Warn().
					Uint64("dropped_total", p.dropped).
					Msg("trade publish queue full, dropped oldest pending trade")
			default:
			}
			select {
			case p.queue <- t:
			default:
			}
		}
	}
}

func (p *Publisher) drain() {
	defer close(p.done)
	for t := range p.queue {
		p.write(t)
	}
}

func (p *Publisher) write(t core.Trade) {
	msg := messaging.FromTrade(p.instrument, t)
	data, err := json.Marshal(msg)
	if err != nil {
		log := logging.FromContext(context.Background())
		log.Error().Err(err).Msg("failed to marshal trade message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	kmsg := kafkago.Message{
		Key:   []byte(fmt.Sprintf("%d-%d", msg.BuyOrderID, msg.SellOrderID)),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, kmsg); err != nil {
		log := logging.FromContext(ctx)
		log.Error().Err(err).Msg("failed to publish trade to kafka")
	}
}

// Close stops accepting new trades, drains what remains, and closes the
// underlying writer.
func (p *Publisher) Close() error {
	close(p.queue)
	<-p.done
	return p.writer.Close()
}

var _ messaging.Publisher = (*Publisher)(nil)
