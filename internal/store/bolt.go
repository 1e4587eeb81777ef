package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketPositions = []byte("positions")

// BoltStore keeps positions in a local bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketPositions); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketPositions, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(_ context.Context, docID string) (Position, bool, error) {
	var pos Position
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketPositions).Get([]byte(docID))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &pos)
	})
	if err != nil {
		return Position{}, false, fmt.Errorf("get position %s: %w", docID, err)
	}
	return pos, found, nil
}

func (s *BoltStore) Put(_ context.Context, docID string, pos Position) error {
	if pos.UpdatedAt.IsZero() {
		pos.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("marshal position: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPositions).Put([]byte(docID), data)
	})
}

func (s *BoltStore) Delete(_ context.Context, docID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPositions).Delete([]byte(docID))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
