// Package events carries the auction lifecycle feed out of the room actors.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType names a lifecycle event. It is also the last token of the publish subject.
type EventType string

const (
	EventTypeRoomCreated    EventType = "room_created"
	EventTypeAuctionStarted EventType = "auction_started"
	EventTypePlayerSold     EventType = "player_sold"
	EventTypeAuctionEnded   EventType = "auction_ended"
	EventTypeRoomClosed     EventType = "room_closed"
)

// Event is one entry of the lifecycle feed.
type Event struct {
	ID        uuid.UUID
	RoomCode  string
	Type      EventType
	Payload   json.RawMessage
	CreatedAt time.Time
}

// Publisher delivers events to a feed.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Sink accepts events without blocking the caller.
type Sink interface {
	Emit(event Event)
}

type RoomCreatedPayload struct {
	HostName      string `json:"host_name"`
	Team          string `json:"team"`
	AuctionMode   string `json:"auction_mode"`
	TimerDuration int    `json:"timer_duration"`
}

type AuctionStartedPayload struct {
	Lots         int  `json:"lots"`
	Reauction    bool `json:"is_reauction"`
	Participants int  `json:"participants"`
}

type PlayerSoldPayload struct {
	LotIndex   int             `json:"lot_index"`
	PlayerName string          `json:"player_name"`
	Sold       bool            `json:"sold"`
	WinnerID   string          `json:"winner_id,omitempty"`
	WinnerName string          `json:"winner_name"`
	FinalPrice decimal.Decimal `json:"final_price"`
}

type AuctionEndedPayload struct {
	Sold   int  `json:"sold"`
	Unsold int  `json:"unsold"`
	Early  bool `json:"early"`
}

type RoomClosedPayload struct {
	Reason string `json:"reason"`
}

// NewEvent builds an event with a fresh id and a JSON payload.
func NewEvent(roomCode string, eventType EventType, payload any, at time.Time) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.New(),
		RoomCode:  roomCode,
		Type:      eventType,
		Payload:   data,
		CreatedAt: at.UTC(),
	}, nil
}
