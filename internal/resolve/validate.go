package resolve

import (
	"strings"
	"unicode/utf8"
)

// maxSnippet bounds the snippet used for text search.
const maxSnippet = 2000

// NormalizeReference cleans up a reference in place and reports whether it
// carries anything a range can be built from. Negative offsets are dropped,
// an end without a start is dropped, and the snippet is trimmed.
func NormalizeReference(r *Reference) bool {
	if r == nil {
		return false
	}
	r.ID = strings.TrimSpace(r.ID)
	r.DocumentID = strings.TrimSpace(r.DocumentID)
	r.Chapter = strings.TrimSpace(r.Chapter)
	r.Content = strings.TrimSpace(r.Content)
	if utf8.RuneCountInString(r.Content) > maxSnippet {
		r.Content = string([]rune(r.Content)[:maxSnippet])
	}

	if r.StartOffset != nil && *r.StartOffset < 0 {
		r.StartOffset = nil
	}
	if r.EndOffset != nil && (*r.EndOffset < 0 || r.StartOffset == nil) {
		r.EndOffset = nil
	}
	if r.Page < 0 {
		r.Page = 0
	}
	return r.StartOffset != nil || r.Content != ""
}
