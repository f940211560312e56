// Package room implements the auction room actor. Every mutation of a room's state is applied
// by a single goroutine, one request at a time, so bids, ticks, settlements and membership
// changes are totally ordered per room.
package room

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mcdev12/bidroom/go/internal/auction/events"
	"github.com/mcdev12/bidroom/go/internal/auction/protocol"
	"github.com/mcdev12/bidroom/go/internal/models"
)

// Client is the outbound side of one participant connection. Send must not block.
type Client interface {
	ID() string
	Send(msg protocol.Outbound)
}

// QueueSource builds the auction queue for a mode.
type QueueSource interface {
	Queue(ctx context.Context, mode models.AuctionMode) ([]models.Lot, error)
}

// Options are the per-room limits and defaults.
type Options struct {
	DefaultTimer    int
	MaxParticipants int
	MaxSquad        int
	MaxForeign      int
	Purse           decimal.Decimal
	ReconnectGrace  time.Duration
	MaxChatHistory  int
	MaxMessageLen   int
}

// DefaultOptions mirrors the stock auction rules.
func DefaultOptions() Options {
	return Options{
		DefaultTimer:    models.DefaultTimerDuration,
		MaxParticipants: 10,
		MaxSquad:        25,
		MaxForeign:      8,
		Purse:           models.DefaultPurse,
		ReconnectGrace:  30 * time.Second,
		MaxChatHistory:  100,
		MaxMessageLen:   500,
	}
}

// Deps are the collaborators a room calls out to.
type Deps struct {
	Clock clockwork.Clock
	// Queues builds queues server-side. When nil, start_auction must carry the queue.
	Queues QueueSource
	Events events.Sink
	// OnClose is called from the room goroutine after the room shut down.
	OnClose func(code string)
}

// Result is the outcome of one request.
type Result struct {
	ParticipantID string
	Err           error
}

type request interface{ isRequest() }

type inbound struct {
	client        Client
	participantID string
	msg           protocol.Inbound
}

type detach struct {
	participantID string
	client        Client
}

type graceExpired struct {
	participantID string
	seq           uint64
}

type graceTimer struct {
	timer clockwork.Timer
	seq   uint64
}

func (inbound) isRequest()      {}
func (detach) isRequest()       {}
func (graceExpired) isRequest() {}

type command struct {
	req   request
	reply chan Result
}

// Room is one live auction room.
type Room struct {
	code string
	opts Options
	deps Deps

	inbox     chan command
	done      chan struct{}
	cancel    context.CancelFunc
	startOnce sync.Once

	// published after every accepted request for lock-free readers
	snapshot atomic.Pointer[models.Room]

	// owned by the Run goroutine
	state    *models.Room
	clients  map[string]Client
	grace    map[string]graceTimer
	graceSeq uint64
	closing  bool
	reason   string
}

// New creates an empty room. It accepts requests once Start is called.
func New(code string, opts Options, deps Deps) *Room {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Events == nil {
		deps.Events = events.Discard{}
	}

	r := &Room{
		code:    code,
		opts:    opts,
		deps:    deps,
		inbox:   make(chan command, 64),
		done:    make(chan struct{}),
		clients: make(map[string]Client),
		grace:   make(map[string]graceTimer),
		state: &models.Room{
			Code:              code,
			AuctionMode:       models.AuctionModeMega,
			TimerDuration:     models.NormalizeTimerDuration(opts.DefaultTimer),
			MaxParticipants:   opts.MaxParticipants,
			MaxPlayersPerTeam: opts.MaxSquad,
			MaxForeignPlayers: opts.MaxForeign,
			Players:           make(map[string]*models.Participant),
			AuctionState:      models.AuctionState{Status: models.AuctionStatusWaiting},
			CreatedAt:         deps.Clock.Now().UTC(),
		},
	}
	r.snapshot.Store(r.state.Snapshot())
	return r
}

// Code returns the room code.
func (r *Room) Code() string { return r.code }

// Done is closed once the room has shut down.
func (r *Room) Done() <-chan struct{} { return r.done }

// Snapshot returns the last published room state. Callers must not mutate it.
func (r *Room) Snapshot() *models.Room { return r.snapshot.Load() }

// Summary returns the room_list entry for this room.
func (r *Room) Summary() protocol.RoomSummary {
	snap := r.Snapshot()
	host := ""
	if h := snap.Host(); h != nil {
		host = h.Name
	}
	return protocol.RoomSummary{
		RoomCode:      snap.Code,
		Host:          host,
		Players:       len(snap.Players),
		Status:        snap.AuctionState.Status,
		AuctionMode:   snap.AuctionMode,
		TimerDuration: snap.TimerDuration,
	}
}

// Start runs the room actor until ctx is cancelled, Close is called or the room empties.
func (r *Room) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		r.cancel = cancel
		go r.run(ctx)
	})
}

// Close shuts the room down.
func (r *Room) Close() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Handle applies an inbound event on behalf of a connection and waits for the outcome.
// participantID is empty for create_room, join_room and reconnect.
func (r *Room) Handle(ctx context.Context, client Client, participantID string, msg protocol.Inbound) Result {
	return r.submit(ctx, inbound{client: client, participantID: participantID, msg: msg})
}

// Detach reports a transport disconnect of client.
func (r *Room) Detach(participantID string, client Client) {
	r.post(detach{participantID: participantID, client: client})
}

func (r *Room) submit(ctx context.Context, req request) Result {
	reply := make(chan Result, 1)
	select {
	case r.inbox <- command{req: req, reply: reply}:
	case <-r.done:
		return Result{Err: ErrRoomClosed}
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	}

	select {
	case res := <-reply:
		return res
	case <-r.done:
		select {
		case res := <-reply:
			return res
		default:
			return Result{Err: ErrRoomClosed}
		}
	}
}

// post enqueues a request without waiting for its result.
func (r *Room) post(req request) {
	go func() {
		select {
		case r.inbox <- command{req: req}:
		case <-r.done:
		}
	}()
}

func (r *Room) run(ctx context.Context) {
	log.Debug().Str("room_code", r.code).Msg("room actor started")

	for {
		select {
		case <-ctx.Done():
			if !r.closing {
				r.closing, r.reason = true, "shutdown"
			}
		case cmd := <-r.inbox:
			res := r.apply(ctx, cmd.req)
			if res.Err == nil {
				r.snapshot.Store(r.state.Snapshot())
			}
			if cmd.reply != nil {
				cmd.reply <- res
			}
		}

		if r.closing {
			r.shutdown()
			return
		}
	}
}

func (r *Room) shutdown() {
	for pid, g := range r.grace {
		g.timer.Stop()
		delete(r.grace, pid)
	}
	r.snapshot.Store(r.state.Snapshot())
	r.emit(events.EventTypeRoomClosed, events.RoomClosedPayload{Reason: r.reason})

	log.Info().Str("room_code", r.code).Str("reason", r.reason).Msg("room closed")

	if r.deps.OnClose != nil {
		r.deps.OnClose(r.code)
	}
	close(r.done)
}

func (r *Room) apply(ctx context.Context, req request) Result {
	switch req := req.(type) {
	case inbound:
		pid, err := r.dispatch(ctx, req)
		if err != nil {
			log.Debug().
				Err(err).
				Str("room_code", r.code).
				Str("action", string(req.msg.Action())).
				Str("participant_id", req.participantID).
				Msg("rejected event")
		}
		return Result{ParticipantID: pid, Err: err}
	case detach:
		r.handleDetach(req.participantID, req.client)
		return Result{ParticipantID: req.participantID}
	case graceExpired:
		r.handleGraceExpired(req.participantID, req.seq)
		return Result{ParticipantID: req.participantID}
	default:
		return Result{Err: ErrUnsupported}
	}
}

func (r *Room) send(pid string, msg protocol.Outbound) {
	if c, ok := r.clients[pid]; ok {
		c.Send(msg)
	}
}

func (r *Room) broadcast(msg protocol.Outbound, exclude string) {
	for pid, c := range r.clients {
		if pid == exclude {
			continue
		}
		c.Send(msg)
	}
}

func (r *Room) emit(t events.EventType, payload any) {
	e, err := events.NewEvent(r.code, t, payload, r.deps.Clock.Now())
	if err != nil {
		log.Error().Err(err).Str("room_code", r.code).Msg("failed to build event")
		return
	}
	r.deps.Events.Emit(e)
}
