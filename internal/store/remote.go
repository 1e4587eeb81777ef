package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dgallion1/docreader/internal/pathstore"
)

// RemoteStore keeps positions in pathstore under positions/<docID>.
type RemoteStore struct {
	ps     *pathstore.Client
	prefix string
}

func NewRemoteStore(ps *pathstore.Client) *RemoteStore {
	return &RemoteStore{ps: ps, prefix: "positions"}
}

func (s *RemoteStore) key(docID string) string {
	return s.prefix + "/" + docID
}

func (s *RemoteStore) Get(ctx context.Context, docID string) (Position, bool, error) {
	node, err := s.ps.GetNode(ctx, s.key(docID))
	if err != nil {
		return Position{}, false, fmt.Errorf("get position %s: %w", docID, err)
	}
	if node == nil {
		return Position{}, false, nil
	}
	var pos Position
	if err := node.Decode(&pos); err != nil {
		return Position{}, false, err
	}
	return pos, true, nil
}

func (s *RemoteStore) Put(ctx context.Context, docID string, pos Position) error {
	if pos.UpdatedAt.IsZero() {
		pos.UpdatedAt = time.Now().UTC()
	}
	return s.ps.PutNode(ctx, s.key(docID), pathstore.NodeRequest{
		Value:  pos,
		Source: "docreader:position",
	})
}

func (s *RemoteStore) Delete(ctx context.Context, docID string) error {
	return s.ps.DeleteNode(ctx, s.key(docID), false)
}

func (s *RemoteStore) Close() error {
	s.ps.Close()
	return nil
}
