package window

import "github.com/dgallion1/docreader/internal/doctree"

const (
	defaultRadius      = 5
	defaultMaxResident = 50
)

// Config bounds the resident window.
type Config struct {
	Radius      int // Chunks added on each side per initialize or expansion.
	MaxResident int // Hard cap on resident chunks.
}

// DefaultConfig returns the reader defaults.
func DefaultConfig() Config {
	return Config{Radius: defaultRadius, MaxResident: defaultMaxResident}
}

func (c Config) withDefaults() Config {
	if c.Radius <= 0 {
		c.Radius = defaultRadius
	}
	if c.MaxResident <= 0 {
		c.MaxResident = defaultMaxResident
	}
	return c
}

// Delta describes what an expansion changed. The zero value means nothing
// happened, which is the normal result at a sequence boundary.
type Delta struct {
	Added   int `json:"added"`
	Trimmed int `json:"trimmed"`
}

// Changed reports whether the window moved.
func (d Delta) Changed() bool {
	return d.Added > 0 || d.Trimmed > 0
}

// Manager keeps a bounded, contiguous run of chunks [lo, hi] resident out of
// a document's full chunk sequence. It never alters chunk content.
//
// A Manager is not safe for concurrent use; the owning session serializes
// access.
type Manager struct {
	cfg    Config
	chunks []doctree.Chunk
	lo, hi int // inclusive; hi < lo means empty
	anchor int
}

// NewManager creates a manager over chunks with an empty window.
func NewManager(chunks []doctree.Chunk, cfg Config) *Manager {
	return &Manager{cfg: cfg.withDefaults(), chunks: chunks, lo: 0, hi: -1}
}

// Initialize sets the window to anchor±Radius. When that range holds no
// chunks, the window falls back to the first 2*Radius+1 chunks.
func (m *Manager) Initialize(anchor int) {
	n := len(m.chunks)
	k := m.cfg.Radius
	if n == 0 {
		m.lo, m.hi, m.anchor = 0, -1, 0
		return
	}

	lo := max(0, anchor-k)
	hi := min(n-1, anchor+k)
	if hi < lo {
		lo, hi = 0, min(n-1, 2*k)
		anchor = 0
	}
	anchor = clamp(anchor, lo, hi)

	if hi-lo+1 > m.cfg.MaxResident {
		lo = max(lo, anchor-m.cfg.MaxResident/2)
		hi = min(n-1, lo+m.cfg.MaxResident-1)
		lo = max(0, hi-m.cfg.MaxResident+1)
	}
	m.lo, m.hi, m.anchor = lo, hi, anchor
}

// Jump re-centres the window on index. It reports false and leaves the window
// untouched when index is outside the sequence.
func (m *Manager) Jump(index int) bool {
	if index < 0 || index >= len(m.chunks) {
		return false
	}
	m.Initialize(index)
	return true
}

// ExpandUp prepends up to Radius chunks before the window and trims the tail
// if the cap is exceeded. A no-op at the start of the sequence.
func (m *Manager) ExpandUp() Delta {
	if m.empty() || m.lo == 0 {
		return Delta{}
	}
	newLo := max(0, m.lo-m.cfg.Radius)
	d := Delta{Added: m.lo - newLo}
	m.lo = newLo
	if over := m.Len() - m.cfg.MaxResident; over > 0 {
		m.hi -= over
		d.Trimmed = over
	}
	m.anchor = clamp(m.anchor, m.lo, m.hi)
	return d
}

// ExpandDown appends up to Radius chunks after the window and trims the head
// if the cap is exceeded. A no-op at the end of the sequence.
func (m *Manager) ExpandDown() Delta {
	if m.empty() || m.hi == len(m.chunks)-1 {
		return Delta{}
	}
	newHi := min(len(m.chunks)-1, m.hi+m.cfg.Radius)
	d := Delta{Added: newHi - m.hi}
	m.hi = newHi
	if over := m.Len() - m.cfg.MaxResident; over > 0 {
		m.lo += over
		d.Trimmed = over
	}
	m.anchor = clamp(m.anchor, m.lo, m.hi)
	return d
}

// Focus records the chunk the reader is looking at. Indexes outside the
// resident window are ignored.
func (m *Manager) Focus(index int) bool {
	if m.empty() || index < m.lo || index > m.hi {
		return false
	}
	m.anchor = index
	return true
}

// Resident returns the resident chunks in sequence order. The slice shares
// the manager's backing array and must not be modified.
func (m *Manager) Resident() []doctree.Chunk {
	if m.empty() {
		return nil
	}
	return m.chunks[m.lo : m.hi+1]
}

// Bounds returns the inclusive index range of the window; ok is false when
// the window is empty.
func (m *Manager) Bounds() (lo, hi int, ok bool) {
	if m.empty() {
		return 0, 0, false
	}
	return m.lo, m.hi, true
}

// Anchor returns the focused chunk index.
func (m *Manager) Anchor() int { return m.anchor }

// Len returns the number of resident chunks.
func (m *Manager) Len() int {
	if m.empty() {
		return 0
	}
	return m.hi - m.lo + 1
}

// Total returns the length of the full chunk sequence.
func (m *Manager) Total() int { return len(m.chunks) }

// AtStart and AtEnd report whether the window touches a sequence boundary.
func (m *Manager) AtStart() bool { return m.empty() || m.lo == 0 }
func (m *Manager) AtEnd() bool   { return m.empty() || m.hi == len(m.chunks)-1 }

func (m *Manager) empty() bool { return m.hi < m.lo }

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
