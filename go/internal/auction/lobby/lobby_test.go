package lobby

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/bidroom/go/internal/auction/protocol"
	"github.com/mcdev12/bidroom/go/internal/auction/room"
)

type fakeClient struct {
	id   string
	mu   sync.Mutex
	msgs []protocol.Outbound
}

func newClient() *fakeClient { return &fakeClient{id: uuid.NewString()} }

func (c *fakeClient) ID() string { return c.id }

func (c *fakeClient) Send(msg protocol.Outbound) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *fakeClient) last() protocol.Outbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.msgs) == 0 {
		return nil
	}
	return c.msgs[len(c.msgs)-1]
}

func newLobby(t *testing.T, opts room.Options) *Lobby {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, opts, Deps{Clock: clockwork.NewFakeClock()})
}

func TestRandomCode(t *testing.T) {
	code, err := RandomCode()
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9A-F]{6}$`, code)
}

func TestCreateAndJoin(t *testing.T) {
	l := newLobby(t, room.DefaultOptions())
	ctx := context.Background()

	host := newClient()
	hs := l.NewSession(host)
	require.NoError(t, l.Dispatch(ctx, hs, protocol.CreateRoom{PlayerName: "Alice", Team: "CSK"}))

	code, hostID, ok := hs.Binding()
	require.True(t, ok)
	created := host.last().(protocol.RoomCreated)
	assert.Equal(t, code, created.RoomCode)
	assert.Equal(t, hostID, created.PlayerID)

	guest := newClient()
	gs := l.NewSession(guest)
	err := l.Dispatch(ctx, gs, protocol.JoinRoom{RoomCode: "ZZZZZZ", PlayerName: "Bob", Team: "MI"})
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
	assert.Equal(t, protocol.Error{Message: "room not found"}, guest.last())

	require.NoError(t, l.Dispatch(ctx, gs, protocol.JoinRoom{RoomCode: " " + code + " ", PlayerName: "Bob", Team: "MI"}))
	assert.Equal(t, protocol.TypeJoinedRoom, guest.last().Type())

	assert.ErrorIs(t, l.Dispatch(ctx, gs, protocol.CreateRoom{PlayerName: "Bob", Team: "MI"}), ErrAlreadyInRoom)

	lister := newClient()
	require.NoError(t, l.Dispatch(ctx, l.NewSession(lister), protocol.ListRooms{}))
	list := lister.last().(protocol.RoomList)
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, protocol.RoomSummary{
		RoomCode:      code,
		Host:          "Alice",
		Players:       2,
		Status:        "waiting",
		AuctionMode:   "mega",
		TimerDuration: 15,
	}, list.Rooms[0])
}

func TestActionsRequireBinding(t *testing.T) {
	l := newLobby(t, room.DefaultOptions())
	c := newClient()

	err := l.Dispatch(context.Background(), l.NewSession(c), protocol.PlaceBid{})
	assert.ErrorIs(t, err, room.ErrNotInRoom)
	assert.Equal(t, protocol.TypeError, c.last().Type())
}

func TestFailedCreateLeavesNoRoom(t *testing.T) {
	l := newLobby(t, room.DefaultOptions())

	err := l.Dispatch(context.Background(), l.NewSession(newClient()), protocol.CreateRoom{PlayerName: "Alice", Team: "???"})
	assert.ErrorIs(t, err, room.ErrInvalidTeam)
	assert.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestCodeCollisionsRetry(t *testing.T) {
	l := newLobby(t, room.DefaultOptions())
	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	l.newCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	ctx := context.Background()
	require.NoError(t, l.Dispatch(ctx, l.NewSession(newClient()), protocol.CreateRoom{PlayerName: "Alice", Team: "CSK"}))
	require.NoError(t, l.Dispatch(ctx, l.NewSession(newClient()), protocol.CreateRoom{PlayerName: "Bob", Team: "MI"}))

	_, ok := l.Get("AAAAAA")
	assert.True(t, ok)
	_, ok = l.Get("bbbbbb")
	assert.True(t, ok)
}

func TestDisconnectAndReconnect(t *testing.T) {
	l := newLobby(t, room.DefaultOptions())
	ctx := context.Background()

	hs := l.NewSession(newClient())
	require.NoError(t, l.Dispatch(ctx, hs, protocol.CreateRoom{PlayerName: "Alice", Team: "CSK"}))
	code, _, _ := hs.Binding()

	gs := l.NewSession(newClient())
	require.NoError(t, l.Dispatch(ctx, gs, protocol.JoinRoom{RoomCode: code, PlayerName: "Bob", Team: "MI"}))
	_, bobID, _ := gs.Binding()

	l.Disconnect(gs)
	_, _, ok := gs.Binding()
	assert.False(t, ok)

	r, ok := l.Get(code)
	require.True(t, ok)
	require.Eventually(t, func() bool { return !r.Snapshot().Players[bobID].Connected }, time.Second, 5*time.Millisecond)

	fresh := newClient()
	rs := l.NewSession(fresh)
	err := l.Dispatch(ctx, rs, protocol.Reconnect{RoomCode: code, PlayerID: "stale"})
	assert.ErrorIs(t, err, room.ErrIdentityNotFound)
	assert.Contains(t, err.Error(), "not found")

	require.NoError(t, l.Dispatch(ctx, rs, protocol.Reconnect{RoomCode: code, PlayerID: bobID}))
	assert.Equal(t, protocol.TypeReconnected, fresh.last().Type())
	_, pid, _ := rs.Binding()
	assert.Equal(t, bobID, pid)
}

func TestRoomRemovedWhenEmpty(t *testing.T) {
	opts := room.DefaultOptions()
	opts.ReconnectGrace = 0
	l := newLobby(t, opts)
	ctx := context.Background()

	s := l.NewSession(newClient())
	require.NoError(t, l.Dispatch(ctx, s, protocol.CreateRoom{PlayerName: "Alice", Team: "CSK"}))
	require.Equal(t, 1, l.Len())

	require.NoError(t, l.Dispatch(ctx, s, protocol.LeaveRoom{}))
	_, _, ok := s.Binding()
	assert.False(t, ok)
	assert.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 5*time.Millisecond)
}
