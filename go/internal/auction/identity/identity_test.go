package identity

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoIdentity)

	want := Identity{
		RoomCode:      "A1B2C3",
		ParticipantID: "p-1",
		PlayerName:    "Asha",
		Team:          "CSK",
		SavedAt:       time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoIdentity)
	require.NoError(t, s.Clear(ctx))
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemoryStore())
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.db")
	s, err := OpenBoltStore(path, "asha")
	require.NoError(t, err)
	exercise(t, s)
	require.NoError(t, s.Close())
}

func TestBoltStore_SurvivesReopenAndScopesProfiles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "identity.db")

	s, err := OpenBoltStore(path, "asha")
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, Identity{RoomCode: "A1B2C3", ParticipantID: "p-1"}))
	require.NoError(t, s.Close())

	s, err = OpenBoltStore(path, "ben")
	require.NoError(t, err)
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoIdentity)
	require.NoError(t, s.Close())

	s, err = OpenBoltStore(path, "asha")
	require.NoError(t, err)
	defer s.Close()
	id, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p-1", id.ParticipantID)
}
