package protocol

import (
	"github.com/shopspring/decimal"

	"github.com/mcdev12/bidroom/go/internal/models"
)

// Type tags an outbound (room to client) event.
type Type string

const (
	TypeRoomCreated    Type = "room_created"
	TypeJoinedRoom     Type = "joined_room"
	TypeReconnected    Type = "reconnected"
	TypePlayerJoined   Type = "player_joined"
	TypePlayerLeft     Type = "player_left"
	TypeHostChanged    Type = "host_changed"
	TypeAuctionStarted Type = "auction_started"
	TypeBidPlaced      Type = "bid_placed"
	TypeAuctionPaused  Type = "auction_paused"
	TypeAuctionResumed Type = "auction_resumed"
	TypePlayerSold     Type = "player_sold"
	TypeTimerChanged   Type = "timer_changed"
	TypeAuctionEnded   Type = "auction_ended"
	TypeTimerUpdate    Type = "timer_update"
	TypeRoomList       Type = "room_list"
	TypeNewMessage     Type = "new_message"
	TypeLeftRoom       Type = "left_room"
	TypeError          Type = "error"
)

// Outbound is the closed set of events a room sends.
type Outbound interface {
	Type() Type
	isOutbound()
}

// Session is the shape shared by room_created, joined_room and reconnected.
type Session struct {
	RoomCode string       `json:"room_code"`
	PlayerID string       `json:"player_id"`
	RoomData *models.Room `json:"room_data"`
}

type RoomCreated struct{ Session }

type JoinedRoom struct{ Session }

type Reconnected struct{ Session }

type PlayerJoined struct {
	PlayerName string       `json:"player_name"`
	RoomData   *models.Room `json:"room_data"`
}

type PlayerLeft struct {
	PlayerName string       `json:"player_name"`
	RoomData   *models.Room `json:"room_data"`
}

// HostChanged announces a host transfer. The new host resumes the countdown from room_data.
type HostChanged struct {
	HostID   string       `json:"host_id"`
	RoomData *models.Room `json:"room_data"`
}

type AuctionStarted struct {
	RoomData *models.Room `json:"room_data"`
}

type BidPlaced struct {
	BidderName string          `json:"bidder_name"`
	BidAmount  decimal.Decimal `json:"bid_amount"`
	RoomData   *models.Room    `json:"room_data"`
}

type AuctionPaused struct {
	PausedBy string       `json:"paused_by"`
	RoomData *models.Room `json:"room_data"`
}

type AuctionResumed struct {
	RoomData *models.Room `json:"room_data"`
}

// PlayerSold reports a settled lot. WinnerName is NoWinner when it went unsold.
type PlayerSold struct {
	PlayerName string          `json:"player_name"`
	WinnerName string          `json:"winner_name"`
	FinalPrice decimal.Decimal `json:"final_price"`
	RoomData   *models.Room    `json:"room_data"`
}

type TimerChanged struct {
	TimerDuration int          `json:"timer_duration"`
	RoomData      *models.Room `json:"room_data"`
}

type AuctionEnded struct {
	RoomData *models.Room `json:"room_data"`
}

type TimerUpdate struct {
	TimeLeft int `json:"time_left"`
}

// RoomSummary is one entry of room_list.
type RoomSummary struct {
	RoomCode      string               `json:"room_code"`
	Host          string               `json:"host"`
	Players       int                  `json:"players"`
	Status        models.AuctionStatus `json:"status"`
	AuctionMode   models.AuctionMode   `json:"auction_mode"`
	TimerDuration int                  `json:"timer_duration"`
}

type RoomList struct {
	Rooms []RoomSummary `json:"rooms"`
}

type NewMessage struct {
	Message models.ChatMessage `json:"message"`
}

type LeftRoom struct{}

type Error struct {
	Message string `json:"message"`
}

func (RoomCreated) Type() Type    { return TypeRoomCreated }
func (JoinedRoom) Type() Type     { return TypeJoinedRoom }
func (Reconnected) Type() Type    { return TypeReconnected }
func (PlayerJoined) Type() Type   { return TypePlayerJoined }
func (PlayerLeft) Type() Type     { return TypePlayerLeft }
func (HostChanged) Type() Type    { return TypeHostChanged }
func (AuctionStarted) Type() Type { return TypeAuctionStarted }
func (BidPlaced) Type() Type      { return TypeBidPlaced }
func (AuctionPaused) Type() Type  { return TypeAuctionPaused }
func (AuctionResumed) Type() Type { return TypeAuctionResumed }
func (PlayerSold) Type() Type     { return TypePlayerSold }
func (TimerChanged) Type() Type   { return TypeTimerChanged }
func (AuctionEnded) Type() Type   { return TypeAuctionEnded }
func (TimerUpdate) Type() Type    { return TypeTimerUpdate }
func (RoomList) Type() Type       { return TypeRoomList }
func (NewMessage) Type() Type     { return TypeNewMessage }
func (LeftRoom) Type() Type       { return TypeLeftRoom }
func (Error) Type() Type          { return TypeError }

func (RoomCreated) isOutbound()    {}
func (JoinedRoom) isOutbound()     {}
func (Reconnected) isOutbound()    {}
func (PlayerJoined) isOutbound()   {}
func (PlayerLeft) isOutbound()     {}
func (HostChanged) isOutbound()    {}
func (AuctionStarted) isOutbound() {}
func (BidPlaced) isOutbound()      {}
func (AuctionPaused) isOutbound()  {}
func (AuctionResumed) isOutbound() {}
func (PlayerSold) isOutbound()     {}
func (TimerChanged) isOutbound()   {}
func (AuctionEnded) isOutbound()   {}
func (TimerUpdate) isOutbound()    {}
func (RoomList) isOutbound()       {}
func (NewMessage) isOutbound()     {}
func (LeftRoom) isOutbound()       {}
func (Error) isOutbound()          {}

// RoomData returns the snapshot carried by an outbound event, if any.
func RoomData(msg Outbound) *models.Room {
	switch m := msg.(type) {
	case RoomCreated:
		return m.RoomData
	case JoinedRoom:
		return m.RoomData
	case Reconnected:
		return m.RoomData
	case PlayerJoined:
		return m.RoomData
	case PlayerLeft:
		return m.RoomData
	case HostChanged:
		return m.RoomData
	case AuctionStarted:
		return m.RoomData
	case BidPlaced:
		return m.RoomData
	case AuctionPaused:
		return m.RoomData
	case AuctionResumed:
		return m.RoomData
	case PlayerSold:
		return m.RoomData
	case TimerChanged:
		return m.RoomData
	case AuctionEnded:
		return m.RoomData
	case TimerUpdate, RoomList, NewMessage, LeftRoom, Error:
		return nil
	default:
		return nil
	}
}
