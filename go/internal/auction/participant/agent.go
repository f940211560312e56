// Package participant is the client side of an auction room. An Agent mirrors the room
// snapshot, persists its identity for reconnection, and runs the countdown while it holds
// host status.
package participant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mcdev12/bidroom/go/internal/auction/bid"
	"github.com/mcdev12/bidroom/go/internal/auction/identity"
	"github.com/mcdev12/bidroom/go/internal/auction/protocol"
	"github.com/mcdev12/bidroom/go/internal/auction/timer"
	"github.com/mcdev12/bidroom/go/internal/models"
)

var ErrNoRoom = errors.New("no room code to join and room creation not requested")

// Config describes who the agent is and what it does in the room.
type Config struct {
	Name     string
	Team     string
	RoomCode string
	// Create makes a new room when RoomCode is empty.
	Create        bool
	AuctionMode   string
	TimerDuration int
	// BidUntil enables automatic bidding while the next legal bid is at most this amount.
	BidUntil   decimal.Decimal
	RetryDelay time.Duration
}

// Agent is one participant.
type Agent struct {
	cfg   Config
	dial  Dialer
	store identity.Store
	clock clockwork.Clock

	countdown *timer.Authority

	mu        sync.Mutex
	conn      Conn
	self      string
	room      *models.Room
	reconnect bool
	left      bool
}

// New creates an agent. The countdown it drives as host ticks on clock.
func New(cfg Config, dial Dialer, store identity.Store, clock clockwork.Clock) *Agent {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	a := &Agent{cfg: cfg, dial: dial, store: store, clock: clock}
	a.countdown = timer.New(clock, hostEmitter{a})
	return a
}

// Room returns a copy of the mirrored room snapshot.
func (a *Agent) Room() *models.Room {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.room == nil {
		return nil
	}
	return a.room.Snapshot()
}

// ParticipantID returns the id the server issued to this agent.
func (a *Agent) ParticipantID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.self
}

// Run connects, enters the room and processes events until ctx is cancelled or the agent
// leaves. A dropped connection is redialed and the stored identity presented again.
func (a *Agent) Run(ctx context.Context) error {
	defer a.countdown.Stop()

	for {
		err := a.session(ctx)
		a.countdown.Stop()

		a.mu.Lock()
		left := a.left
		a.mu.Unlock()

		if left || ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, ErrNoRoom) {
			return err
		}

		log.Warn().Err(err).Dur("retry_in", a.cfg.RetryDelay).Msg("connection lost, retrying")
		select {
		case <-ctx.Done():
			return nil
		case <-a.clock.After(a.cfg.RetryDelay):
		}
	}
}

// Leave asks the server to remove this participant.
func (a *Agent) Leave(ctx context.Context) error {
	return a.send(ctx, protocol.LeaveRoom{})
}

func (a *Agent) session(ctx context.Context) error {
	conn, err := a.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.conn = nil
		a.mu.Unlock()
	}()

	if err := a.announce(ctx); err != nil {
		return err
	}

	for {
		msg, err := conn.Receive(ctx)
		if err != nil {
			return err
		}
		if err := a.handle(ctx, msg); err != nil {
			return err
		}
		a.mu.Lock()
		left := a.left
		a.mu.Unlock()
		if left {
			return nil
		}
	}
}

// announce presents the stored identity, or joins fresh when there is none.
func (a *Agent) announce(ctx context.Context) error {
	id, err := a.store.Load(ctx)
	switch {
	case err == nil:
		a.mu.Lock()
		a.reconnect = true
		a.mu.Unlock()
		log.Info().Str("room_code", id.RoomCode).Str("player_id", id.ParticipantID).Msg("reconnecting with stored identity")
		return a.send(ctx, protocol.Reconnect{RoomCode: id.RoomCode, PlayerID: id.ParticipantID})
	case errors.Is(err, identity.ErrNoIdentity):
		return a.enterFresh(ctx)
	default:
		return fmt.Errorf("failed to load identity: %w", err)
	}
}

func (a *Agent) enterFresh(ctx context.Context) error {
	switch {
	case a.cfg.RoomCode != "":
		return a.send(ctx, protocol.JoinRoom{RoomCode: a.cfg.RoomCode, PlayerName: a.cfg.Name, Team: a.cfg.Team})
	case a.cfg.Create:
		msg := protocol.CreateRoom{PlayerName: a.cfg.Name, Team: a.cfg.Team, AuctionMode: a.cfg.AuctionMode}
		if a.cfg.TimerDuration > 0 {
			d := a.cfg.TimerDuration
			msg.TimerDuration = &d
		}
		return a.send(ctx, msg)
	default:
		return ErrNoRoom
	}
}

func (a *Agent) send(ctx context.Context, msg protocol.Inbound) error {
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("failed to send %s: not connected", msg.Action())
	}
	return conn.Send(ctx, msg)
}

func (a *Agent) handle(ctx context.Context, msg protocol.Outbound) error {
	if snap := protocol.RoomData(msg); snap != nil {
		a.mu.Lock()
		a.room = snap
		a.mu.Unlock()
	}

	switch m := msg.(type) {
	case protocol.RoomCreated:
		return a.entered(ctx, m.Session)
	case protocol.JoinedRoom:
		return a.entered(ctx, m.Session)
	case protocol.Reconnected:
		if err := a.entered(ctx, m.Session); err != nil {
			return err
		}
		a.syncCountdown(false)
	case protocol.HostChanged, protocol.AuctionStarted, protocol.AuctionResumed:
		a.syncCountdown(false)
	case protocol.BidPlaced, protocol.TimerChanged:
		// Every accepted bid and every duration change restarts the clock for the lot. The
		// reset is reported at once so the room's time_left is not a tick behind.
		if from, ok := a.syncCountdown(true); ok {
			if err := a.send(ctx, protocol.TimerTick{TimeLeft: from}); err != nil {
				log.Warn().Err(err).Msg("failed to send timer reset")
			}
		}
	case protocol.PlayerSold:
		a.syncCountdown(false)
		log.Info().Str("player", m.PlayerName).Str("winner", m.WinnerName).Str("price", m.FinalPrice.String()).Msg("lot settled")
	case protocol.AuctionPaused, protocol.AuctionEnded:
		a.countdown.Stop()
	case protocol.TimerUpdate:
		a.mu.Lock()
		if a.room != nil {
			a.room.AuctionState.TimeLeft = m.TimeLeft
		}
		a.mu.Unlock()
	case protocol.LeftRoom:
		a.countdown.Stop()
		a.mu.Lock()
		a.left = true
		a.mu.Unlock()
		return a.store.Clear(ctx)
	case protocol.Error:
		return a.rejected(ctx, m)
	case protocol.PlayerJoined, protocol.PlayerLeft, protocol.RoomList, protocol.NewMessage:
	default:
		log.Debug().Str("type", string(msg.Type())).Msg("unhandled server event")
	}

	return a.maybeBid(ctx)
}

func (a *Agent) entered(ctx context.Context, s protocol.Session) error {
	a.mu.Lock()
	a.self = s.PlayerID
	a.reconnect = false
	a.mu.Unlock()

	log.Info().Str("room_code", s.RoomCode).Str("player_id", s.PlayerID).Msg("in room")

	return a.store.Save(ctx, identity.Identity{
		RoomCode:      s.RoomCode,
		ParticipantID: s.PlayerID,
		PlayerName:    a.cfg.Name,
		Team:          a.cfg.Team,
		SavedAt:       a.clock.Now().UTC(),
	})
}

// rejected handles an error event. A failed reconnect means the stored identity is stale:
// it is discarded and the agent enters the room afresh instead of retrying it.
func (a *Agent) rejected(ctx context.Context, m protocol.Error) error {
	a.mu.Lock()
	reconnecting := a.reconnect
	a.reconnect = false
	a.mu.Unlock()

	if reconnecting && strings.Contains(m.Message, "not found") {
		log.Warn().Str("reason", m.Message).Msg("stored identity is stale, discarding it")
		if err := a.store.Clear(ctx); err != nil {
			return err
		}
		return a.enterFresh(ctx)
	}

	log.Warn().Str("reason", m.Message).Msg("server rejected request")
	return nil
}

// syncCountdown starts or stops the local countdown to match the mirrored room. Only the
// host counts down, and only while the auction is active. It reports the starting value
// when the countdown runs.
func (a *Agent) syncCountdown(restart bool) (int, bool) {
	a.mu.Lock()
	room, self := a.room, a.self
	a.mu.Unlock()

	if room == nil || room.HostID != self || room.AuctionState.Status != models.AuctionStatusActive {
		a.countdown.Stop()
		return 0, false
	}

	from := room.AuctionState.TimeLeft
	if restart || from <= 0 {
		from = room.TimerDuration
	}
	a.countdown.Start(from)
	return from, true
}

// maybeBid places the next legal bid when auto-bidding is enabled and the bid is affordable.
func (a *Agent) maybeBid(ctx context.Context) error {
	if a.cfg.BidUntil.IsZero() {
		return nil
	}

	a.mu.Lock()
	room, self := a.room, a.self
	a.mu.Unlock()
	if room == nil || self == "" {
		return nil
	}

	st := room.AuctionState
	me, ok := room.Players[self]
	if !ok || st.Status != models.AuctionStatusActive || st.CurrentBidderID == self {
		return nil
	}
	if _, ok := st.CurrentLot(); !ok {
		return nil
	}

	next := bid.NextLegalBid(st.CurrentBid)
	if next.GreaterThan(a.cfg.BidUntil) || next.GreaterThan(me.Purse) {
		return nil
	}

	idx := st.CurrentPlayerIdx
	return a.send(ctx, protocol.PlaceBid{BidAmount: next, PlayerIdx: &idx})
}

// hostEmitter turns the countdown's output into timer_tick and player_sold events.
type hostEmitter struct{ a *Agent }

func (e hostEmitter) Tick(timeLeft int) {
	if err := e.a.send(context.Background(), protocol.TimerTick{TimeLeft: timeLeft}); err != nil {
		log.Warn().Err(err).Msg("failed to send timer tick")
	}
}

func (e hostEmitter) Expire() {
	e.a.mu.Lock()
	var msg protocol.SettleLot
	if room := e.a.room; room != nil {
		st := room.AuctionState
		idx := st.CurrentPlayerIdx
		msg.PlayerIdx = &idx
		msg.FinalPrice = st.CurrentBid
		if lot, ok := st.CurrentLot(); ok {
			msg.PlayerData = &lot
		}
		if st.CurrentBidderID == "" {
			msg.FinalPrice = decimal.Zero
		}
	}
	e.a.mu.Unlock()

	if err := e.a.send(context.Background(), msg); err != nil {
		log.Warn().Err(err).Msg("failed to report lot expiry")
	}
}
