// Package lobby routes connections to rooms: it allocates room codes, keeps the registry of
// live rooms, and holds each connection's session binding.
package lobby

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/bidroom/go/internal/auction/events"
	"github.com/mcdev12/bidroom/go/internal/auction/protocol"
	"github.com/mcdev12/bidroom/go/internal/auction/room"
)

var (
	ErrAlreadyInRoom = errors.New("already in a room")
	ErrCodeExhausted = errors.New("could not allocate a room code")
)

const codeAttempts = 32

// Deps are shared by every room the lobby creates.
type Deps struct {
	Clock  clockwork.Clock
	Queues room.QueueSource
	Events events.Sink
}

// Lobby is the registry of live rooms.
type Lobby struct {
	ctx  context.Context
	opts room.Options
	deps Deps

	mu    sync.RWMutex
	rooms map[string]*room.Room

	newCode func() (string, error)
}

// New creates a lobby. Rooms live until ctx is cancelled or they empty out.
func New(ctx context.Context, opts room.Options, deps Deps) *Lobby {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	return &Lobby{
		ctx:     ctx,
		opts:    opts,
		deps:    deps,
		rooms:   make(map[string]*room.Room),
		newCode: RandomCode,
	}
}

// RandomCode returns six upper-case hex characters.
func RandomCode() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// NormalizeCode canonicalizes a user-typed room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Get returns a live room.
func (l *Lobby) Get(code string) (*room.Room, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.rooms[NormalizeCode(code)]
	return r, ok
}

// List summarizes every live room, ordered by code.
func (l *Lobby) List() []protocol.RoomSummary {
	l.mu.RLock()
	rooms := make([]*room.Room, 0, len(l.rooms))
	for _, r := range l.rooms {
		rooms = append(rooms, r)
	}
	l.mu.RUnlock()

	out := make([]protocol.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomCode < out[j].RoomCode })
	return out
}

// Len returns the number of live rooms.
func (l *Lobby) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rooms)
}

// open allocates a fresh code and starts an empty room under it.
func (l *Lobby) open() (*room.Room, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := 0; i < codeAttempts; i++ {
		code, err := l.newCode()
		if err != nil {
			return nil, err
		}
		if _, taken := l.rooms[code]; taken {
			continue
		}

		var r *room.Room
		r = room.New(code, l.opts, room.Deps{
			Clock:   l.deps.Clock,
			Queues:  l.deps.Queues,
			Events:  l.deps.Events,
			OnClose: func(code string) { l.remove(code, r) },
		})
		l.rooms[code] = r
		r.Start(l.ctx)
		return r, nil
	}
	return nil, ErrCodeExhausted
}

func (l *Lobby) remove(code string, r *room.Room) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rooms[code] == r {
		delete(l.rooms, code)
		log.Debug().Str("room_code", code).Int("rooms", len(l.rooms)).Msg("room removed from lobby")
	}
}
