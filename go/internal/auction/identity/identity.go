// Package identity stores the (room code, participant id) pair a client needs to rejoin
// a live room after its connection drops.
package identity

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoIdentity is returned by Load when nothing is stored.
var ErrNoIdentity = errors.New("no stored identity")

// Identity is what a client presents in a reconnect request.
type Identity struct {
	RoomCode      string    `json:"room_code"`
	ParticipantID string    `json:"player_id"`
	PlayerName    string    `json:"player_name"`
	Team          string    `json:"team"`
	SavedAt       time.Time `json:"saved_at"`
}

// Store persists a single identity.
type Store interface {
	Load(ctx context.Context) (Identity, error)
	Save(ctx context.Context, id Identity) error
	// Clear discards a stale identity. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// MemoryStore keeps the identity for the life of the process.
type MemoryStore struct {
	mu sync.Mutex
	id *Identity
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == nil {
		return Identity{}, ErrNoIdentity
	}
	return *s.id, nil
}

func (s *MemoryStore) Save(_ context.Context, id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = &id
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = nil
	return nil
}
