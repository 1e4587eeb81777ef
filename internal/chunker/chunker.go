package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docreader/internal/doctree"
)

// Config controls segmentation. Sizes are measured in characters (Unicode
// code points), the same unit reference offsets use.
type Config struct {
	TargetSize         int     // Target page size for narrative text.
	FrontMatterRatio   float64 // Fraction of TargetSize used for front matter and TOC pages.
	FrontMatterPages   int     // Leading pages that always use the front matter size; zero means the default.
	DisableFrontMatter bool    // Use TargetSize for every page and skip TOC detection.
}

const (
	defaultTargetSize       = 10000
	defaultFrontMatterRatio = 0.3
	defaultFrontMatterPages = 5

	// FallbackChapter labels the single chunk emitted when nothing else was produced.
	FallbackChapter = "Full Content"
)

// DefaultConfig returns the reader defaults.
func DefaultConfig() Config {
	return Config{
		TargetSize:       defaultTargetSize,
		FrontMatterRatio: defaultFrontMatterRatio,
		FrontMatterPages: defaultFrontMatterPages,
	}
}

func (c Config) withDefaults() Config {
	if c.TargetSize <= 0 {
		c.TargetSize = defaultTargetSize
	}
	if c.FrontMatterRatio <= 0 || c.FrontMatterRatio > 1 {
		c.FrontMatterRatio = defaultFrontMatterRatio
	}
	if c.FrontMatterPages <= 0 {
		c.FrontMatterPages = defaultFrontMatterPages
	}
	return c
}

// frontMatterSize is the page size used for TOC content and the first pages.
func (c Config) frontMatterSize() int {
	return max(1, int(float64(c.TargetSize)*c.FrontMatterRatio))
}

// Segment splits text into an ordered sequence of pages. Chunks are exact,
// contiguous substrings of text: concatenating their contents in order
// reproduces text. The result is deterministic for a given text and config.
// Empty or whitespace-only input yields no chunks.
func Segment(text string, cfg Config) []doctree.Chunk {
	cfg = cfg.withDefaults()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s := &segmenter{cfg: cfg, text: []rune(text)}
	s.run()

	if len(s.chunks) == 0 {
		return []doctree.Chunk{{
			ID:      chunkID(0),
			Index:   0,
			Content: text,
			Page:    1,
			Chapter: FallbackChapter,
		}}
	}
	return s.chunks
}

func chunkID(index int) string {
	return fmt.Sprintf("chunk_%d", index)
}

// heading is a chapter-title candidate found at a line start.
type heading struct {
	offset int
	title  string
	carry  bool // accepted outside TOC mode; becomes the running chapter
}

type segmenter struct {
	cfg  Config
	text []rune

	start int // offset of the pending, not yet emitted, text
	inTOC bool

	headings    []heading
	nextHeading int
	chapter     string

	chunks []doctree.Chunk
}

func (s *segmenter) run() {
	end := 0 // pending text is text[start:end], always whole lines
	for lineStart := 0; ; {
		lineEnd := lineEndAt(s.text, lineStart)
		s.observe(s.text[lineStart:lineEnd], lineStart)

		if lineEnd-s.start > s.size() && end > s.start {
			s.cut(end, s.size())
			s.drain(end)
		}
		end = min(lineEnd+1, len(s.text))

		if lineEnd >= len(s.text) {
			break
		}
		lineStart = lineEnd + 1
	}

	s.drain(end)
	s.flush()
}

// drain cuts pending text until what remains fits one page.
func (s *segmenter) drain(end int) {
	for size := s.size(); end-s.start > size; size = s.size() {
		s.cut(end, size)
	}
}

func lineEndAt(text []rune, from int) int {
	for i := from; i < len(text); i++ {
		if text[i] == '\n' {
			return i
		}
	}
	return len(text)
}

// page is the 1-based number the next emitted chunk will get.
func (s *segmenter) page() int {
	return len(s.chunks) + 1
}

func (s *segmenter) size() int {
	if s.cfg.DisableFrontMatter {
		return s.cfg.TargetSize
	}
	if s.inTOC || s.page() <= s.cfg.FrontMatterPages {
		return s.cfg.frontMatterSize()
	}
	return s.cfg.TargetSize
}

// observe updates TOC mode and records heading candidates for one line.
func (s *segmenter) observe(line []rune, offset int) {
	raw := strings.TrimSpace(string(line))
	if !s.cfg.DisableFrontMatter {
		page := s.page()
		lower := strings.ToLower(raw)
		n := utf8.RuneCountInString(raw)
		if page <= s.cfg.FrontMatterPages && looksLikeTOC(lower, n) {
			s.inTOC = true
		}
		if page > s.cfg.FrontMatterPages || endsTOC(lower, n) {
			s.inTOC = false
		}
	}
	if title, ok := ChapterTitle(raw); ok {
		s.headings = append(s.headings, heading{offset: offset, title: title, carry: !s.inTOC})
	}
}

// cut emits one chunk out of the pending text text[start:end].
func (s *segmenter) cut(end, size int) {
	buf := s.text[s.start:end]
	var bp int
	if s.inTOC {
		bp = lineBreak(buf, size)
	} else {
		bp = bestBreak(buf, size)
	}
	s.emit(s.start + bp)
}

func (s *segmenter) emit(stop int) {
	idx := len(s.chunks)
	s.chunks = append(s.chunks, doctree.Chunk{
		ID:      chunkID(idx),
		Index:   idx,
		Content: string(s.text[s.start:stop]),
		Page:    idx + 1,
		Chapter: s.chapterFor(stop),
	})
	s.start = stop
}

// chapterFor picks the chapter of the chunk ending at stop: the first heading
// inside the chunk, or else the running chapter carried from earlier chunks.
func (s *segmenter) chapterFor(stop int) string {
	first := ""
	for s.nextHeading < len(s.headings) && s.headings[s.nextHeading].offset < stop {
		h := s.headings[s.nextHeading]
		if first == "" {
			first = h.title
		}
		if h.carry {
			s.chapter = h.title
		}
		s.nextHeading++
	}
	if first != "" {
		return first
	}
	return s.chapter
}

// flush emits whatever is pending. Trailing whitespace is folded into the
// previous chunk so no characters are lost.
func (s *segmenter) flush() {
	if s.start >= len(s.text) {
		return
	}
	rest := s.text[s.start:]
	if strings.TrimSpace(string(rest)) == "" && len(s.chunks) > 0 {
		last := &s.chunks[len(s.chunks)-1]
		last.Content += string(rest)
		s.start = len(s.text)
		return
	}
	s.emit(len(s.text))
}
