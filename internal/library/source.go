package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/docreader/internal/doctree"
)

// ErrNotFound is returned when a source has no document with the given id.
var ErrNotFound = errors.New("document not found")

// Source provides the full text of a document by id. Fetches are idempotent.
type Source interface {
	Fetch(ctx context.Context, id string) (doctree.Document, error)
}

// Lister is implemented by sources that can enumerate their documents.
type Lister interface {
	List(ctx context.Context) ([]Info, error)
}

// Info describes a document without its text.
type Info struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Source string `json:"source"`
}

// Chain tries each source in order. A source reporting ErrNotFound passes
// the request on; any other error stops the chain.
type Chain []Source

func (c Chain) Fetch(ctx context.Context, id string) (doctree.Document, error) {
	for _, src := range c {
		doc, err := src.Fetch(ctx, id)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return doctree.Document{}, err
		}
	}
	return doctree.Document{}, fmt.Errorf("fetch %s: %w", id, ErrNotFound)
}

// List merges the listings of every listable source. Ids already seen from an
// earlier source are skipped since Fetch would never reach the later one.
func (c Chain) List(ctx context.Context) ([]Info, error) {
	seen := make(map[string]bool)
	var out []Info
	for _, src := range c {
		l, ok := src.(Lister)
		if !ok {
			continue
		}
		infos, err := l.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			if seen[info.ID] {
				continue
			}
			seen[info.ID] = true
			out = append(out, info)
		}
	}
	return out, nil
}
