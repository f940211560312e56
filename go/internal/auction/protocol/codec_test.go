package protocol

import (
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/bidroom/go/internal/models"
)

func TestMain(m *testing.M) {
	decimal.MarshalJSONWithoutQuotes = true
	os.Exit(m.Run())
}

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Action
	}{
		{"create", `{"action":"create_room","player_name":"Asha","team":"CSK","auction_mode":"legend","timer_duration":20}`, ActionCreateRoom},
		{"join", `{"action":"join_room","room_code":"A1B2C3","player_name":"Ben","team":"MI"}`, ActionJoinRoom},
		{"reconnect", `{"action":"reconnect","room_code":"A1B2C3","player_id":"p1"}`, ActionReconnect},
		{"leave", `{"action":"leave_room"}`, ActionLeaveRoom},
		{"start", `{"action":"start_auction"}`, ActionStartAuction},
		{"reauction", `{"action":"start_reauction","selected_players":["X"]}`, ActionStartReauction},
		{"bid", `{"action":"place_bid","bid_amount":2.1}`, ActionPlaceBid},
		{"quoted bid", `{"action":"place_bid","bid_amount":"2.1"}`, ActionPlaceBid},
		{"tick", `{"action":"timer_tick","time_left":7}`, ActionTimerTick},
		{"pause", `{"action":"pause_auction"}`, ActionPauseAuction},
		{"resume", `{"action":"resume_auction"}`, ActionResumeAuction},
		{"change timer", `{"action":"change_timer","timer_duration":25}`, ActionChangeTimer},
		{"end", `{"action":"end_auction"}`, ActionEndAuction},
		{"sold", `{"action":"player_sold","final_price":2.1,"player_idx":0}`, ActionPlayerSold},
		{"list", `{"action":"list_rooms"}`, ActionListRooms},
		{"chat", `{"action":"send_message","message":"hi"}`, ActionSendMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeInbound([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg.Action())
		})
	}
}

func TestDecodeInbound_Fields(t *testing.T) {
	msg, err := DecodeInbound([]byte(`{"action":"create_room","player_name":"Asha","team":"CSK","timer_duration":20}`))
	require.NoError(t, err)
	create, ok := msg.(CreateRoom)
	require.True(t, ok)
	assert.Equal(t, "Asha", create.PlayerName)
	require.NotNil(t, create.TimerDuration)
	assert.Equal(t, 20, *create.TimerDuration)

	msg, err = DecodeInbound([]byte(`{"action":"place_bid","bid_amount":4.9,"player_idx":3}`))
	require.NoError(t, err)
	bid := msg.(PlaceBid)
	assert.True(t, bid.BidAmount.Equal(decimal.RequireFromString("4.9")))
	require.NotNil(t, bid.PlayerIdx)
	assert.Equal(t, 3, *bid.PlayerIdx)
}

func TestDecodeInbound_Errors(t *testing.T) {
	_, err := DecodeInbound([]byte(`{"action":"steal_player"}`))
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = DecodeInbound([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeInbound([]byte(`{"action":"timer_tick","time_left":"soon"}`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestEncodeOutbound(t *testing.T) {
	raw, err := EncodeOutbound(TimerUpdate{TimeLeft: 9})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"timer_update","time_left":9}`, string(raw))

	raw, err = EncodeOutbound(LeftRoom{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"left_room"}`, string(raw))

	raw, err = EncodeOutbound(PlayerSold{
		PlayerName: "Lot 1",
		WinnerName: "Ben",
		FinalPrice: decimal.RequireFromString("2.1"),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"player_sold","player_name":"Lot 1","winner_name":"Ben","final_price":2.1,"room_data":null}`, string(raw))
}

func TestOutboundRoundTrip_Session(t *testing.T) {
	room := &models.Room{
		Code:   "A1B2C3",
		HostID: "p1",
		Players: map[string]*models.Participant{
			"p1": {ID: "p1", Name: "Asha", Team: "CSK", Purse: models.DefaultPurse, IsHost: true},
		},
		AuctionState: models.AuctionState{Status: models.AuctionStatusWaiting},
	}

	raw, err := EncodeOutbound(Reconnected{Session{RoomCode: "A1B2C3", PlayerID: "p1", RoomData: room}})
	require.NoError(t, err)

	msg, err := DecodeOutbound(raw)
	require.NoError(t, err)
	rec, ok := msg.(Reconnected)
	require.True(t, ok)
	assert.Equal(t, "p1", rec.PlayerID)
	require.NotNil(t, RoomData(msg))
	assert.Equal(t, "120", RoomData(msg).Players["p1"].Purse.String())
}

func TestEncodeInbound(t *testing.T) {
	idx := 2
	raw, err := EncodeInbound(PlaceBid{BidAmount: decimal.RequireFromString("5.25"), PlayerIdx: &idx})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"place_bid","bid_amount":5.25,"player_idx":2}`, string(raw))

	msg, err := DecodeInbound(raw)
	require.NoError(t, err)
	assert.Equal(t, ActionPlaceBid, msg.Action())
}

func TestDecodeOutbound_Unknown(t *testing.T) {
	_, err := DecodeOutbound([]byte(`{"type":"confetti"}`))
	assert.ErrorIs(t, err, ErrUnknownType)
}
