package resolve

import (
	"strings"

	"golang.org/x/net/html"
)

const (
	markOpen  = `<mark class="reference-highlight">`
	markClose = `</mark>`

	// DefaultContextRadius is the number of characters shown on each side of
	// an inline reference preview.
	DefaultContextRadius = 1000
)

// Highlight escapes each part and wraps the middle one in a mark element.
// Escaping happens before markup is added so text that looks like markup
// stays text.
func Highlight(before, mid, after string) string {
	var sb strings.Builder
	sb.Grow(len(before) + len(mid) + len(after) + len(markOpen) + len(markClose))
	sb.WriteString(html.EscapeString(before))
	sb.WriteString(markOpen)
	sb.WriteString(html.EscapeString(mid))
	sb.WriteString(markClose)
	sb.WriteString(html.EscapeString(after))
	return sb.String()
}

// Excerpt is a highlighted range with surrounding context taken directly from
// the full text rather than from pages.
type Excerpt struct {
	Start     int    `json:"start" yaml:"start"` // offset of the excerpt in the full text
	End       int    `json:"end" yaml:"end"`
	Before    string `json:"before" yaml:"before"`
	Highlight string `json:"highlight" yaml:"highlight"`
	After     string `json:"after" yaml:"after"`
	HTML      string `json:"html" yaml:"html"`
}

// Context cuts [start-radius, end+radius) out of text, clamped to its bounds,
// with [start, end) highlighted. It returns false when the range is empty or
// outside the text.
func Context(text string, start, end, radius int) (Excerpt, bool) {
	runes := []rune(text)
	end = min(end, len(runes))
	if start < 0 || start >= end {
		return Excerpt{}, false
	}
	if radius < 0 {
		radius = DefaultContextRadius
	}
	cs := max(0, start-radius)
	ce := min(len(runes), end+radius)

	ex := Excerpt{
		Start:     cs,
		End:       ce,
		Before:    string(runes[cs:start]),
		Highlight: string(runes[start:end]),
		After:     string(runes[end:ce]),
	}
	ex.HTML = Highlight(ex.Before, ex.Highlight, ex.After)
	return ex, true
}

// ContextFor builds the inline preview for ref using the same range rules as
// Resolve.
func ContextFor(ref Reference, text string, radius int) (Excerpt, bool) {
	total := len([]rune(text))
	start, end, _, ok := Range(ref, text, total)
	if !ok {
		return Excerpt{}, false
	}
	return Context(text, start, end, radius)
}
