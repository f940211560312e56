package events

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// LogPublisher writes events to the log. Used when no NATS URL is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event Event) error {
	log.Info().
		Str("event_id", event.ID.String()).
		Str("event_type", string(event.Type)).
		Str("room_code", event.RoomCode).
		RawJSON("payload", event.Payload).
		Msg("auction event")
	return nil
}

// Dispatcher decouples rooms from the publisher with a bounded buffer.
// Events emitted while the buffer is full are dropped.
type Dispatcher struct {
	publisher Publisher
	queue     chan Event
	timeout   time.Duration
}

func NewDispatcher(publisher Publisher, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Dispatcher{
		publisher: publisher,
		queue:     make(chan Event, buffer),
		timeout:   5 * time.Second,
	}
}

// Emit enqueues an event without blocking.
func (d *Dispatcher) Emit(event Event) {
	select {
	case d.queue <- event:
	default:
		log.Warn().
			Str("event_type", string(event.Type)).
			Str("room_code", event.RoomCode).
			Msg("event buffer full, dropping event")
	}
}

// Run publishes queued events until ctx is cancelled, then flushes what is left.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.flush()
			return nil
		case event := <-d.queue:
			d.publish(context.Background(), event)
		}
	}
}

func (d *Dispatcher) flush() {
	for {
		select {
		case event := <-d.queue:
			d.publish(context.Background(), event)
		default:
			return
		}
	}
}

func (d *Dispatcher) publish(parent context.Context, event Event) {
	ctx, cancel := context.WithTimeout(parent, d.timeout)
	defer cancel()

	if err := d.publisher.Publish(ctx, event); err != nil {
		log.Error().
			Err(err).
			Str("event_type", string(event.Type)).
			Str("room_code", event.RoomCode).
			Msg("failed to publish event")
	}
}

// Discard is a Sink that drops everything.
type Discard struct{}

func (Discard) Emit(Event) {}
