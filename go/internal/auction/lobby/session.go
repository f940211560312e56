package lobby

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/bidroom/go/internal/auction/protocol"
	"github.com/mcdev12/bidroom/go/internal/auction/room"
)

// Session is the per-connection context: which room the connection is bound to and as whom.
type Session struct {
	client room.Client

	mu            sync.Mutex
	room          *room.Room
	participantID string
}

// NewSession creates an unbound session for a connection.
func (l *Lobby) NewSession(client room.Client) *Session {
	return &Session{client: client}
}

// Binding returns the bound room code and participant id, if any.
func (s *Session) Binding() (code, participantID string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return "", "", false
	}
	return s.room.Code(), s.participantID, true
}

func (s *Session) bound() (*room.Room, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room, s.participantID
}

func (s *Session) bind(r *room.Room, pid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room, s.participantID = r, pid
}

func (s *Session) unbind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room, s.participantID = nil, ""
}

// Dispatch routes one inbound event. Rejections are sent to the session's client as
// error{message} and also returned.
func (l *Lobby) Dispatch(ctx context.Context, s *Session, msg protocol.Inbound) error {
	err := l.route(ctx, s, msg)
	if err != nil {
		s.client.Send(protocol.Error{Message: err.Error()})
	}
	return err
}

func (l *Lobby) route(ctx context.Context, s *Session, msg protocol.Inbound) error {
	switch m := msg.(type) {
	case protocol.ListRooms:
		s.client.Send(protocol.RoomList{Rooms: l.List()})
		return nil
	case protocol.CreateRoom:
		return l.create(ctx, s, m)
	case protocol.JoinRoom:
		return l.enter(ctx, s, m.RoomCode, m)
	case protocol.Reconnect:
		return l.enter(ctx, s, m.RoomCode, m)
	}

	r, pid := s.bound()
	if r == nil {
		return room.ErrNotInRoom
	}
	res := r.Handle(ctx, s.client, pid, msg)
	switch {
	case errors.Is(res.Err, room.ErrRoomClosed):
		s.unbind()
	case res.Err == nil && msg.Action() == protocol.ActionLeaveRoom:
		s.unbind()
	}
	return res.Err
}

func (l *Lobby) create(ctx context.Context, s *Session, msg protocol.CreateRoom) error {
	if r, _ := s.bound(); r != nil {
		return ErrAlreadyInRoom
	}

	r, err := l.open()
	if err != nil {
		return err
	}
	res := r.Handle(ctx, s.client, "", msg)
	if res.Err != nil {
		r.Close()
		return res.Err
	}
	s.bind(r, res.ParticipantID)
	return nil
}

func (l *Lobby) enter(ctx context.Context, s *Session, code string, msg protocol.Inbound) error {
	if r, pid := s.bound(); r != nil {
		// Reconnecting over the same connection to the same identity is a no-op rebind.
		rec, isReconnect := msg.(protocol.Reconnect)
		if !isReconnect || rec.PlayerID != pid || r.Code() != NormalizeCode(code) {
			return ErrAlreadyInRoom
		}
	}

	r, ok := l.Get(code)
	if !ok {
		return room.ErrRoomNotFound
	}
	res := r.Handle(ctx, s.client, "", msg)
	if res.Err != nil {
		return res.Err
	}
	s.bind(r, res.ParticipantID)
	return nil
}

// Disconnect detaches a session whose transport went away.
func (l *Lobby) Disconnect(s *Session) {
	r, pid := s.bound()
	if r == nil {
		return
	}
	s.unbind()
	r.Detach(pid, s.client)

	log.Debug().Str("room_code", r.Code()).Str("participant_id", pid).Msg("session detached")
}
