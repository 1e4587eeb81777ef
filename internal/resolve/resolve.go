package resolve

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docreader/internal/chunker"
	"github.com/dgallion1/docreader/internal/doctree"
)

// PointRadius is the half-width of the range synthesized for a reference that
// only carries a start offset.
const PointRadius = 25

// Failure reasons reported in Result.Reason.
const (
	ReasonNoRange     = "Unable to locate reference range"
	ReasonNoChunks    = "Reference range does not overlap any page"
	ReasonUnavailable = "Referenced document is unavailable"
)

// How a range was established.
const (
	MethodOffsets = "offsets"
	MethodPoint   = "point"
	MethodSnippet = "snippet"
)

// Reference is a citation produced by the QA collaborator. Offsets are
// character offsets into the full text of the referenced document.
type Reference struct {
	ID          string `json:"id" yaml:"id"`
	Content     string `json:"content,omitempty" yaml:"content,omitempty"`
	StartOffset *int   `json:"start_offset,omitempty" yaml:"start_offset,omitempty"`
	EndOffset   *int   `json:"end_offset,omitempty" yaml:"end_offset,omitempty"`
	Page        int    `json:"page,omitempty" yaml:"page,omitempty"`
	Chapter     string `json:"chapter,omitempty" yaml:"chapter,omitempty"`
	DocumentID  string `json:"document_id,omitempty" yaml:"document_id,omitempty"`
}

// Source is a segmented document a reference is resolved against.
type Source struct {
	DocumentID string
	Text       string
	Chunks     []doctree.Chunk
	Index      *chunker.OffsetIndex
}

// NewSource bundles an already segmented document, building its offset index
// when idx is nil.
func NewSource(docID, text string, chunks []doctree.Chunk, idx *chunker.OffsetIndex) Source {
	if idx == nil {
		idx = chunker.NewOffsetIndex(chunks)
	}
	return Source{DocumentID: docID, Text: text, Chunks: chunks, Index: idx}
}

// Span is the part of one chunk covered by a reference. Local bounds are
// character offsets into the chunk content.
type Span struct {
	ChunkID    string `json:"chunk_id" yaml:"chunk_id"`
	Index      int    `json:"index" yaml:"index"`
	Page       int    `json:"page" yaml:"page"`
	Chapter    string `json:"chapter,omitempty" yaml:"chapter,omitempty"`
	LocalStart int    `json:"local_start" yaml:"local_start"`
	LocalEnd   int    `json:"local_end" yaml:"local_end"`
	Before     string `json:"-" yaml:"-"`
	Highlight  string `json:"highlight" yaml:"highlight"`
	After      string `json:"-" yaml:"-"`
	HTML       string `json:"html" yaml:"html"`
}

// Result is the outcome of resolving one reference. A miss is a normal
// result with Matched false and a Reason, never an error.
type Result struct {
	ReferenceID string `json:"reference_id" yaml:"reference_id"`
	DocumentID  string `json:"document_id,omitempty" yaml:"document_id,omitempty"`
	Matched     bool   `json:"matched" yaml:"matched"`
	Reason      string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Method      string `json:"method,omitempty" yaml:"method,omitempty"`
	Start       int    `json:"start" yaml:"start"`
	End         int    `json:"end" yaml:"end"`
	Spans       []Span `json:"spans,omitempty" yaml:"spans,omitempty"`
}

// Unresolved builds a failed result for ref.
func Unresolved(ref Reference, reason string) Result {
	return Result{ReferenceID: ref.ID, DocumentID: ref.DocumentID, Reason: reason}
}

// Resolve maps ref onto the chunks of src and renders a highlighted fragment
// for every chunk the range intersects.
func Resolve(ref Reference, src Source) Result {
	res := Unresolved(ref, ReasonNoRange)
	res.DocumentID = src.DocumentID

	idx := src.Index
	if idx == nil {
		idx = chunker.NewOffsetIndex(src.Chunks)
	}

	start, end, method, ok := Range(ref, src.Text, idx.Total())
	if !ok {
		return res
	}
	res.Start, res.End, res.Method = start, end, method

	for i := range src.Chunks {
		cs, ce := idx.Start(i), idx.End(i)
		if cs > end {
			break
		}
		if start >= ce || end <= cs {
			continue
		}
		ls := max(start, cs) - cs
		le := min(end, ce) - cs
		if ls >= le {
			continue
		}
		res.Spans = append(res.Spans, newSpan(src.Chunks[i], ls, le))
	}

	if len(res.Spans) == 0 {
		res.Reason = ReasonNoChunks
		return res
	}
	res.Matched = true
	res.Reason = ""
	return res
}

// Range establishes the absolute [start, end) range of ref against a text of
// total characters. Explicit offsets win, then a point offset, then a search
// for the content snippet in text.
func Range(ref Reference, text string, total int) (start, end int, method string, ok bool) {
	switch {
	case ref.StartOffset != nil && ref.EndOffset != nil:
		s, e := *ref.StartOffset, min(*ref.EndOffset, total)
		if s >= 0 && s < e {
			return s, e, MethodOffsets, true
		}
	case ref.StartOffset != nil:
		s := *ref.StartOffset
		if s >= 0 && s < total {
			return max(0, s-PointRadius), min(total, s+PointRadius), MethodPoint, true
		}
	}
	if s, e, found := findSnippet(text, ref.Content); found {
		return s, e, MethodSnippet, true
	}
	return 0, 0, "", false
}

// findSnippet locates snippet in text and returns character offsets.
func findSnippet(text, snippet string) (int, int, bool) {
	for _, candidate := range []string{snippet, strings.TrimSpace(snippet)} {
		if candidate == "" {
			continue
		}
		if i := strings.Index(text, candidate); i >= 0 {
			s := utf8.RuneCountInString(text[:i])
			return s, s + utf8.RuneCountInString(candidate), true
		}
	}
	return 0, 0, false
}

func newSpan(c doctree.Chunk, ls, le int) Span {
	runes := []rune(c.Content)
	sp := Span{
		ChunkID:    c.ID,
		Index:      c.Index,
		Page:       c.Page,
		Chapter:    c.Chapter,
		LocalStart: ls,
		LocalEnd:   le,
		Before:     string(runes[:ls]),
		Highlight:  string(runes[ls:le]),
		After:      string(runes[le:]),
	}
	sp.HTML = Highlight(sp.Before, sp.Highlight, sp.After)
	return sp
}
