package protocol

import (
	"github.com/shopspring/decimal"

	"github.com/mcdev12/bidroom/go/internal/models"
)

// Action tags an inbound (client to room) event.
type Action string

const (
	ActionCreateRoom     Action = "create_room"
	ActionJoinRoom       Action = "join_room"
	ActionReconnect      Action = "reconnect"
	ActionLeaveRoom      Action = "leave_room"
	ActionStartAuction   Action = "start_auction"
	ActionStartReauction Action = "start_reauction"
	ActionPlaceBid       Action = "place_bid"
	ActionTimerTick      Action = "timer_tick"
	ActionPauseAuction   Action = "pause_auction"
	ActionResumeAuction  Action = "resume_auction"
	ActionChangeTimer    Action = "change_timer"
	ActionEndAuction     Action = "end_auction"
	ActionPlayerSold     Action = "player_sold"
	ActionListRooms      Action = "list_rooms"
	ActionSendMessage    Action = "send_message"
)

// Inbound is the closed set of events a client may send.
type Inbound interface {
	Action() Action
	isInbound()
}

type CreateRoom struct {
	PlayerName    string `json:"player_name"`
	Team          string `json:"team"`
	AuctionMode   string `json:"auction_mode,omitempty"`
	TimerDuration *int   `json:"timer_duration,omitempty"`
}

type JoinRoom struct {
	RoomCode   string `json:"room_code"`
	PlayerName string `json:"player_name"`
	Team       string `json:"team"`
}

// Reconnect re-attaches a previously issued identity to its live room.
type Reconnect struct {
	RoomCode string `json:"room_code"`
	PlayerID string `json:"player_id"`
}

type LeaveRoom struct{}

// StartAuction may carry a client-built queue; the server catalog wins when configured.
type StartAuction struct {
	Queue []models.Lot `json:"auction_queue,omitempty"`
}

// StartReauction restarts bidding on a subset of the unsold lots, selected by name.
type StartReauction struct {
	SelectedPlayers []string `json:"selected_players"`
}

// PlaceBid offers the next legal amount. PlayerIdx, when set, pins the bid to a lot.
type PlaceBid struct {
	BidAmount decimal.Decimal `json:"bid_amount"`
	PlayerIdx *int            `json:"player_idx,omitempty"`
}

type TimerTick struct {
	TimeLeft int `json:"time_left"`
}

type PauseAuction struct{}

type ResumeAuction struct{}

type ChangeTimer struct {
	TimerDuration int `json:"timer_duration"`
}

type EndAuction struct{}

// SettleLot is the host's expiry report for the lot under the hammer (action player_sold).
type SettleLot struct {
	PlayerData *models.Lot     `json:"player_data,omitempty"`
	FinalPrice decimal.Decimal `json:"final_price"`
	PlayerIdx  *int            `json:"player_idx,omitempty"`
}

type ListRooms struct{}

type SendMessage struct {
	Message string `json:"message"`
}

func (CreateRoom) Action() Action     { return ActionCreateRoom }
func (JoinRoom) Action() Action       { return ActionJoinRoom }
func (Reconnect) Action() Action      { return ActionReconnect }
func (LeaveRoom) Action() Action      { return ActionLeaveRoom }
func (StartAuction) Action() Action   { return ActionStartAuction }
func (StartReauction) Action() Action { return ActionStartReauction }
func (PlaceBid) Action() Action       { return ActionPlaceBid }
func (TimerTick) Action() Action      { return ActionTimerTick }
func (PauseAuction) Action() Action   { return ActionPauseAuction }
func (ResumeAuction) Action() Action  { return ActionResumeAuction }
func (ChangeTimer) Action() Action    { return ActionChangeTimer }
func (EndAuction) Action() Action     { return ActionEndAuction }
func (SettleLot) Action() Action      { return ActionPlayerSold }
func (ListRooms) Action() Action      { return ActionListRooms }
func (SendMessage) Action() Action    { return ActionSendMessage }

func (CreateRoom) isInbound()     {}
func (JoinRoom) isInbound()       {}
func (Reconnect) isInbound()      {}
func (LeaveRoom) isInbound()      {}
func (StartAuction) isInbound()   {}
func (StartReauction) isInbound() {}
func (PlaceBid) isInbound()       {}
func (TimerTick) isInbound()      {}
func (PauseAuction) isInbound()   {}
func (ResumeAuction) isInbound()  {}
func (ChangeTimer) isInbound()    {}
func (EndAuction) isInbound()     {}
func (SettleLot) isInbound()      {}
func (ListRooms) isInbound()      {}
func (SendMessage) isInbound()    {}
