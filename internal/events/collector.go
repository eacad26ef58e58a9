package events

import (
	"context"
	"log/slog"

	"github.com/veriscan/veriscan/pkg/kafka"
)

// Publisher delivers a single event to the event stream. *kafka.Producer is
// the production implementation.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Collector buffers events in a channel and publishes them from a single
// goroutine, so request handlers never block on the broker.
type Collector struct {
	producer Publisher
	eventCh  chan interface{}
	logger   *slog.Logger
	done     chan struct{}
}

// NewCollector creates a Collector with the given buffer size.
func NewCollector(producer Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 4096
	}
	return &Collector{
		producer: producer,
		eventCh:  make(chan interface{}, bufferSize),
		logger:   slog.Default().With("component", "event-collector"),
		done:     make(chan struct{}),
	}
}

// Start launches the publishing goroutine. It drains buffered events on
// context cancellation before returning.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, event)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("event collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues an event. When the buffer is full the event is dropped
// rather than blocking the request path. Track on a nil Collector is a no-op.
func (c *Collector) Track(event interface{}) {
	if c == nil {
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the publisher to finish.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) publish(ctx context.Context, event interface{}) {
	if err := c.producer.Publish(ctx, kafka.Event{Key: "usage", Value: event}); err != nil {
		c.logger.Error("failed to publish event", "error", err)
	}
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(context.Background(), event)
		default:
			return
		}
	}
}
