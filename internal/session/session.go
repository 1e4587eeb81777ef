package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docreader/internal/doctree"
	"github.com/dgallion1/docreader/internal/library"
	"github.com/dgallion1/docreader/internal/resolve"
	"github.com/dgallion1/docreader/internal/stats"
	"github.com/dgallion1/docreader/internal/store"
	"github.com/dgallion1/docreader/internal/window"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrPageOutOfRange  = errors.New("page out of range")
	ErrOffsetOutOfText = errors.New("offset outside document text")
)

// Session is one reader's view of one open document: the segmented document,
// its resident window, and the cache of documents its references point at.
type Session struct {
	mu sync.Mutex

	ID        string
	DocID     string
	CreatedAt time.Time
	UpdatedAt time.Time

	entry    *library.Entry
	win      *window.Manager
	scroller *window.Scroller
	cache    *library.Cache
	stats    *stats.Reader
	log      *slog.Logger

	maxConcurrentFetch int

	// cancel ends loads of referenced documents still in flight.
	cancel context.CancelFunc
}

// WindowState describes the resident window in both index and page terms.
type WindowState struct {
	FirstIndex int  `json:"first_index"`
	LastIndex  int  `json:"last_index"`
	FirstPage  int  `json:"first_page"`
	LastPage   int  `json:"last_page"`
	Loaded     int  `json:"loaded"`
	AtStart    bool `json:"at_start"`
	AtEnd      bool `json:"at_end"`
}

// Snapshot is a read-only, JSON-safe copy of session state.
type Snapshot struct {
	ID              string      `json:"session_id"`
	DocumentID      string      `json:"document_id"`
	Title           string      `json:"title"`
	TotalPages      int         `json:"total_pages"`
	CurrentPage     int         `json:"current_page"`
	Window          WindowState `json:"window"`
	CachedDocuments int         `json:"cached_documents"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// QAContext is the resident text handed to the question answering service.
type QAContext struct {
	Context      string `json:"context"`
	LoadedChunks int    `json:"loaded_chunks"`
	TotalChunks  int    `json:"total_chunks"`
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

func (s *Session) windowLocked() WindowState {
	lo, hi, ok := s.win.Bounds()
	if !ok {
		return WindowState{AtStart: true, AtEnd: true}
	}
	return WindowState{
		FirstIndex: lo,
		LastIndex:  hi,
		FirstPage:  s.entry.Chunks[lo].Page,
		LastPage:   s.entry.Chunks[hi].Page,
		Loaded:     s.win.Len(),
		AtStart:    s.win.AtStart(),
		AtEnd:      s.win.AtEnd(),
	}
}

// Snapshot returns a JSON-safe copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:              s.ID,
		DocumentID:      s.DocID,
		Title:           s.entry.Doc.Title,
		TotalPages:      len(s.entry.Chunks),
		Window:          s.windowLocked(),
		CachedDocuments: s.cache.Len(),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if snap.TotalPages > 0 {
		snap.CurrentPage = s.win.Anchor() + 1
	}
	return snap
}

// Window returns a copy of the resident chunks.
func (s *Session) Window() []doctree.Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]doctree.Chunk(nil), s.win.Resident()...)
}

// Scroll feeds a scroll position (0 top, 1 bottom) through the debounced
// trigger and expands the window when it fires.
func (s *Session) Scroll(fraction float64) (window.Direction, window.Delta, WindowState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	dir, d := s.scroller.Scroll(fraction, time.Now())
	if d.Changed() {
		s.log.Debug("window expanded", "direction", dir, "added", d.Added, "trimmed", d.Trimmed)
	}
	return dir, d, s.windowLocked()
}

// Expand runs an explicit expansion, bypassing the scroll trigger.
func (s *Session) Expand(dir window.Direction) (window.Delta, WindowState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return window.Expand(s.win, dir), s.windowLocked()
}

// Jump re-centres the window on a 1-based page.
func (s *Session) Jump(page int) (WindowState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.win.Jump(page - 1) {
		return s.windowLocked(), ErrPageOutOfRange
	}
	s.touch()
	return s.windowLocked(), nil
}

// Seek re-centres the window on the page holding a character offset.
func (s *Session) Seek(offset int) (WindowState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.entry.Index.Locate(offset)
	if i < 0 {
		return s.windowLocked(), ErrOffsetOutOfText
	}
	s.win.Jump(i)
	s.touch()
	return s.windowLocked(), nil
}

// Position returns the reading position to persist: the anchor page and
// the character offset at which it starts.
func (s *Session) Position() store.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.win.Total() == 0 {
		return store.Position{Page: 1, UpdatedAt: time.Now()}
	}
	anchor := s.win.Anchor()
	return store.Position{
		Page:      anchor + 1,
		Offset:    s.entry.Index.Start(anchor),
		UpdatedAt: time.Now(),
	}
}

// Context joins the resident chunk contents with blank lines.
func (s *Session) Context() QAContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	resident := s.win.Resident()
	parts := make([]string, len(resident))
	for i, c := range resident {
		parts[i] = c.Content
	}
	return QAContext{
		Context:      strings.Join(parts, "\n\n"),
		LoadedChunks: len(resident),
		TotalChunks:  s.win.Total(),
	}
}

// ResolveReferences resolves a batch of references. References without a
// document id, or naming the open document, resolve against it. Distinct
// foreign documents are fetched concurrently, at most maxConcurrentFetch at a
// time, through the session cache. A fetch failure marks only the references
// into that document as unresolved.
func (s *Session) ResolveReferences(ctx context.Context, refs []resolve.Reference) []resolve.Result {
	start := time.Now()
	defer func() {
		if s.stats != nil {
			s.stats.Resolve.Observe(start)
		}
	}()

	s.mu.Lock()
	s.touch()
	s.mu.Unlock()

	normalized := make([]resolve.Reference, len(refs))
	usable := make([]bool, len(refs))
	var foreign []string
	seen := map[string]bool{}
	for i, ref := range refs {
		usable[i] = resolve.NormalizeReference(&ref)
		if ref.DocumentID == "" {
			ref.DocumentID = s.DocID
		}
		normalized[i] = ref
		if usable[i] && ref.DocumentID != s.DocID && !seen[ref.DocumentID] {
			seen[ref.DocumentID] = true
			foreign = append(foreign, ref.DocumentID)
		}
	}

	entries := s.prefetch(ctx, foreign)
	entries[s.DocID] = s.entry

	results := make([]resolve.Result, len(refs))
	for i, ref := range normalized {
		switch e := entries[ref.DocumentID]; {
		case !usable[i]:
			results[i] = resolve.Unresolved(ref, resolve.ReasonNoRange)
		case e == nil:
			results[i] = resolve.Unresolved(ref, resolve.ReasonUnavailable)
		default:
			results[i] = resolve.Resolve(ref, e.Source())
		}
		if !results[i].Matched {
			s.log.Debug("reference unresolved", "reference_id", ref.ID, "ref_doc_id", ref.DocumentID, "reason", results[i].Reason)
		}
	}
	return results
}

// prefetch loads every id through the cache. Failed ids are absent from the
// returned map.
func (s *Session) prefetch(ctx context.Context, ids []string) map[string]*library.Entry {
	var (
		mu  sync.Mutex
		out = make(map[string]*library.Entry, len(ids)+1)
		g   errgroup.Group
	)
	g.SetLimit(s.maxConcurrentFetch)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			e, err := s.cache.Get(ctx, id)
			if err != nil {
				return nil // reported per reference
			}
			mu.Lock()
			out[id] = e
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Entry returns the segmented open document.
func (s *Session) Entry() *library.Entry {
	return s.entry
}

// Excerpt returns the surrounding text of a resolved reference, cut from the
// open document or a document already in the session cache. The highlighted
// range is exactly the one Resolve matched.
func (s *Session) Excerpt(res resolve.Result, radius int) (resolve.Excerpt, bool) {
	if !res.Matched {
		return resolve.Excerpt{}, false
	}
	id := res.DocumentID
	if id == "" {
		id = s.DocID
	}
	e, ok := s.cache.Peek(id)
	if !ok {
		return resolve.Excerpt{}, false
	}
	return resolve.Context(e.Doc.Text, res.Start, res.End, radius)
}
