package store

import (
	"context"
	"time"
)

// Position is the last reading position saved for a document.
type Position struct {
	Page      int       `json:"page"`             // 1-based page
	Offset    int       `json:"offset,omitempty"` // character offset of the page start
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists reading positions keyed by document id.
type Store interface {
	// Get returns the saved position; ok is false when none exists.
	Get(ctx context.Context, docID string) (pos Position, ok bool, err error)
	Put(ctx context.Context, docID string, pos Position) error
	Delete(ctx context.Context, docID string) error
	Close() error
}
