package library

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dgallion1/docreader/internal/chunker"
	"github.com/dgallion1/docreader/internal/doctree"
	"github.com/dgallion1/docreader/internal/resolve"
	"github.com/dgallion1/docreader/internal/stats"
)

// Entry is a fetched and segmented document. It is never mutated after
// construction.
type Entry struct {
	Doc    doctree.Document
	Chunks []doctree.Chunk
	Index  *chunker.OffsetIndex
}

// NewEntry segments doc and builds its offset index.
func NewEntry(doc doctree.Document, cfg chunker.Config) *Entry {
	chunks := chunker.Segment(doc.Text, cfg)
	return &Entry{Doc: doc, Chunks: chunks, Index: chunker.NewOffsetIndex(chunks)}
}

// Source returns the entry as a reference resolution source.
func (e *Entry) Source() resolve.Source {
	return resolve.Source{DocumentID: e.Doc.ID, Text: e.Doc.Text, Chunks: e.Chunks, Index: e.Index}
}

// Load fetches and segments one document as a single unit. When ctx ends
// first, Load returns immediately and the result is discarded.
func Load(ctx context.Context, src Source, id string, cfg chunker.Config, st *stats.Reader) (*Entry, error) {
	fetchStart := time.Now()
	doc, err := src.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if st != nil {
		st.Fetch.Observe(fetchStart)
	}
	if doc.ID == "" {
		doc.ID = id
	}

	done := make(chan *Entry, 1)
	segStart := time.Now()
	go func() { done <- NewEntry(doc, cfg) }()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case e := <-done:
		if st != nil {
			st.Segment.Observe(segStart)
		}
		return e, nil
	}
}

// Cache memoizes segmented documents by id for the lifetime of a session.
// Concurrent requests for the same id share one fetch. Failed fetches are not
// cached, so a later request retries. Nothing is evicted before the cache is
// dropped with its session.
type Cache struct {
	ctx   context.Context // session lifetime; cancels in-flight loads
	src   Source
	cfg   chunker.Config
	stats *stats.Reader
	log   *slog.Logger

	mu      sync.Mutex
	entries map[string]*Entry
	group   singleflight.Group
}

func NewCache(ctx context.Context, src Source, cfg chunker.Config, st *stats.Reader, log *slog.Logger) *Cache {
	return &Cache{
		ctx:     ctx,
		src:     src,
		cfg:     cfg,
		stats:   st,
		log:     log,
		entries: make(map[string]*Entry),
	}
}

// Put stores an entry loaded elsewhere, such as the session's open document.
func (c *Cache) Put(e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[e.Doc.ID] = e
}

// Peek returns a cached entry without fetching.
func (c *Cache) Peek(id string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Get returns the entry for id, fetching and segmenting it on first use.
// The load runs under the session context, so a caller giving up through ctx
// does not abort a load other callers are waiting on.
func (c *Cache) Get(ctx context.Context, id string) (*Entry, error) {
	if e, ok := c.Peek(id); ok {
		return e, nil
	}

	ch := c.group.DoChan(id, func() (any, error) {
		if e, ok := c.Peek(id); ok {
			return e, nil
		}
		c.log.Debug("loading referenced document", "doc_id", id)
		e, err := Load(c.ctx, c.src, id, c.cfg, c.stats)
		if err != nil {
			c.log.Warn("referenced document load failed", "doc_id", id, "error", err)
			return nil, err
		}
		c.Put(e)
		c.log.Info("referenced document loaded", "doc_id", id, "chunks", len(e.Chunks))
		return e, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, fmt.Errorf("load %s: %w", id, r.Err)
		}
		return r.Val.(*Entry), nil
	}
}
