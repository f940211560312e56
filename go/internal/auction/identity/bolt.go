package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucket = "identities"

// BoltStore keeps identities in a bbolt file, one key per profile, so several clients can
// share a file.
type BoltStore struct {
	db  *bolt.DB
	key []byte
}

// OpenBoltStore opens (or creates) the file at path and scopes the store to profile.
func OpenBoltStore(path, profile string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open identity db: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create identity bucket: %w", err)
	}

	return &BoltStore{db: db, key: []byte(profile)}, nil
}

func (s *BoltStore) Load(context.Context) (Identity, error) {
	var id Identity
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucket)).Get(s.key)
		if v == nil {
			return ErrNoIdentity
		}
		if err := json.Unmarshal(v, &id); err != nil {
			return fmt.Errorf("failed to decode identity: %w", err)
		}
		return nil
	})
	if err != nil {
		return Identity{}, err
	}
	return id, nil
}

func (s *BoltStore) Save(_ context.Context, id Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Put(s.key, data)
	}); err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	return nil
}

func (s *BoltStore) Clear(context.Context) error {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Delete(s.key)
	}); err != nil {
		return fmt.Errorf("failed to clear identity: %w", err)
	}
	return nil
}

func (s *BoltStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close identity db: %w", err)
	}
	return nil
}
