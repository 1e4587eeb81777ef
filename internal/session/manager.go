package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docreader/internal/chunker"
	"github.com/dgallion1/docreader/internal/library"
	"github.com/dgallion1/docreader/internal/stats"
	"github.com/dgallion1/docreader/internal/store"
	"github.com/dgallion1/docreader/internal/window"
)

const (
	defaultTTL                = 2 * time.Hour
	defaultMaxConcurrentFetch = 4
	cleanupInterval           = 5 * time.Minute
	closeTimeout              = 10 * time.Second
)

// Config tunes sessions opened by a Manager.
type Config struct {
	Chunk              chunker.Config
	Window             window.Config
	ScrollInterval     time.Duration
	TTL                time.Duration // idle time before a session is closed
	MaxConcurrentFetch int
}

// Manager opens reading sessions and keeps them in a registry, closing idle
// ones after the TTL and saving their positions.
type Manager struct {
	src       library.Source
	positions store.Store // optional
	stats     *stats.Reader
	log       *slog.Logger
	cfg       Config

	mu       sync.Mutex
	sessions map[string]*Session

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(cfg Config, src library.Source, positions store.Store, st *stats.Reader, log *slog.Logger) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.MaxConcurrentFetch <= 0 {
		cfg.MaxConcurrentFetch = defaultMaxConcurrentFetch
	}
	return &Manager{
		src:       src,
		positions: positions,
		stats:     st,
		log:       log,
		cfg:       cfg,
		sessions:  make(map[string]*Session),
	}
}

// Start launches the idle session cleanup loop.
func (m *Manager) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				m.Cleanup()
			}
		}
	}()
}

// Stop ends the cleanup loop and closes every open session.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()

	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		open = append(open, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range open {
		m.shutdown(s, "stop")
	}
}

// Open fetches and segments a document and starts a session on it. The
// fetch and segmentation are one unit: cancelling ctx abandons both. The
// window is seeded from the saved position, if any.
func (m *Manager) Open(ctx context.Context, docID string) (*Session, error) {
	entry, err := library.Load(ctx, m.src, docID, m.cfg.Chunk, m.stats)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", docID, err)
	}

	id := uuid.NewString()
	log := m.log.With("session_id", id, "doc_id", docID)

	sessCtx, cancel := context.WithCancel(context.Background())
	cache := library.NewCache(sessCtx, m.src, m.cfg.Chunk, m.stats, log)
	cache.Put(entry)

	win := window.NewManager(entry.Chunks, m.cfg.Window)
	anchor := m.savedAnchor(ctx, log, entry)
	win.Initialize(anchor)

	now := time.Now()
	s := &Session{
		ID:                 id,
		DocID:              docID,
		CreatedAt:          now,
		UpdatedAt:          now,
		entry:              entry,
		win:                win,
		scroller:           window.NewScroller(win, window.NewTrigger(m.cfg.ScrollInterval)),
		cache:              cache,
		stats:              m.stats,
		log:                log,
		maxConcurrentFetch: m.cfg.MaxConcurrentFetch,
		cancel:             cancel,
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	log.Info("session opened", "title", entry.Doc.Title, "chunks", len(entry.Chunks), "anchor", anchor)
	return s, nil
}

// savedAnchor maps the stored position to a chunk index. A stored offset
// wins over the page since it survives a change of chunk size. Invalid or
// missing positions start at the first page.
func (m *Manager) savedAnchor(ctx context.Context, log *slog.Logger, entry *library.Entry) int {
	if m.positions == nil {
		return 0
	}
	pos, ok, err := m.positions.Get(ctx, entry.Doc.ID)
	if err != nil {
		log.Warn("read saved position failed", "error", err)
		return 0
	}
	if !ok {
		return 0
	}
	if pos.Offset > 0 {
		if i := entry.Index.Locate(pos.Offset); i >= 0 {
			return i
		}
	}
	if pos.Page < 1 || pos.Page > len(entry.Chunks) {
		return 0
	}
	return pos.Page - 1
}

// Get returns an open session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return s, nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// SavePosition writes the session's current position to the store.
func (m *Manager) SavePosition(ctx context.Context, s *Session) (store.Position, error) {
	pos := s.Position()
	if m.positions == nil {
		return pos, nil
	}
	if err := m.positions.Put(ctx, s.DocID, pos); err != nil {
		return pos, fmt.Errorf("save position %s: %w", s.DocID, err)
	}
	return pos, nil
}

// Close saves the session's position and ends it. The session is removed
// even when the save fails.
func (m *Manager) Close(ctx context.Context, id string) (store.Position, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return store.Position{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}

	pos, err := m.SavePosition(ctx, s)
	s.cancel()
	s.log.Info("session closed", "page", pos.Page)
	return pos, err
}

// Cleanup closes sessions idle for longer than the TTL.
func (m *Manager) Cleanup() {
	m.cleanup(time.Now())
}

func (m *Manager) cleanup(now time.Time) {
	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := now.Sub(s.UpdatedAt)
		s.mu.Unlock()
		if idle > m.cfg.TTL {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.shutdown(s, "idle")
	}
}

func (m *Manager) shutdown(s *Session, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if _, err := m.SavePosition(ctx, s); err != nil {
		s.log.Warn("save position on close failed", "reason", reason, "error", err)
	}
	s.cancel()
	s.log.Info("session closed", "reason", reason)
}
