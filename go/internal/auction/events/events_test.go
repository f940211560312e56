package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestNewEvent(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("IST", 19800))
	e, err := NewEvent("ABC123", EventTypeRoomClosed, RoomClosedPayload{Reason: "empty"}, at)
	require.NoError(t, err)

	assert.Equal(t, "ABC123", e.RoomCode)
	assert.Equal(t, time.UTC, e.CreatedAt.Location())
	assert.JSONEq(t, `{"reason":"empty"}`, string(e.Payload))

	wire, err := json.Marshal(envelope(e))
	require.NoError(t, err)
	assert.Contains(t, string(wire), `"eventType":"room_closed"`)
}

func TestDispatcher_PublishesAndFlushes(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats down")}
	d := NewDispatcher(pub, 4)

	for i := 0; i < 3; i++ {
		e, err := NewEvent("ABC123", EventTypePlayerSold, PlayerSoldPayload{LotIndex: i}, time.Now())
		require.NoError(t, err)
		d.Emit(e)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = d.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return pub.count() == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(pub, 1)

	e, err := NewEvent("ABC123", EventTypeAuctionEnded, AuctionEndedPayload{}, time.Now())
	require.NoError(t, err)
	d.Emit(e)
	d.Emit(e)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))
	assert.Equal(t, 1, pub.count())
}
