package chunker

import "unicode"

const (
	// minBreakRatio keeps break points away from the start of the buffer so
	// that a cut never produces a near-empty page.
	minBreakRatio = 0.2
	// tocBreakRatio is where line-boundary breaking starts in TOC mode.
	tocBreakRatio = 0.8
)

// breakPattern finds the end of a match starting at i, or -1. A break lands
// at the match end minus trim.
type breakPattern struct {
	name  string
	match func(s []rune, i int) int
	trim  int
}

// breakPatterns are tried in priority order.
var breakPatterns = []breakPattern{
	{name: "paragraph", match: matchParagraph, trim: 0},
	{name: "sentence", match: matchSentence, trim: 1},
	{name: "clause", match: matchAfter(";:"), trim: 1},
	{name: "comma", match: matchAfter(","), trim: 1},
	{name: "line", match: matchLine, trim: 0},
	{name: "space", match: matchSpace, trim: 1},
}

// bestBreak returns where to cut buf so the first part is at most size
// characters. It prefers the last match of the highest-priority pattern that
// lands past minBreakRatio of size and falls back to a hard cut at size.
func bestBreak(buf []rune, size int) int {
	if len(buf) <= size {
		return len(buf)
	}
	window := buf[:size]
	floor := float64(size) * minBreakRatio
	for _, p := range breakPatterns {
		end, ok := lastMatch(window, p.match)
		if !ok {
			continue
		}
		// Matches are scanned left to right, so the last one is the furthest.
		if pos := end - p.trim; float64(pos) > floor {
			return pos
		}
	}
	return size
}

// lineBreak is the TOC-mode cut: the buffer is made of whole lines, so when it
// fits it is emitted as is; otherwise the first line boundary past
// tocBreakRatio of size is used.
func lineBreak(buf []rune, size int) int {
	if len(buf) <= size {
		return len(buf)
	}
	for i := int(float64(size) * tocBreakRatio); i < size; i++ {
		if buf[i] == '\n' {
			return i + 1
		}
	}
	return bestBreak(buf, size)
}

// lastMatch scans s for non-overlapping matches and returns the end of the last one.
func lastMatch(s []rune, match func(s []rune, i int) int) (int, bool) {
	last := -1
	for i := 0; i < len(s); {
		if end := match(s, i); end > i {
			last = end
			i = end
			continue
		}
		i++
	}
	return last, last >= 0
}

func matchParagraph(s []rune, i int) int {
	if s[i] == '\n' && i+1 < len(s) && s[i+1] == '\n' {
		return i + 2
	}
	return -1
}

// matchSentence matches terminal punctuation followed by whitespace.
func matchSentence(s []rune, i int) int {
	j := i
	for j < len(s) && isTerminal(s[j]) {
		j++
	}
	if j == i {
		return -1
	}
	return spaceRun(s, j)
}

// matchAfter matches one of the given punctuation characters followed by whitespace.
func matchAfter(punct string) func(s []rune, i int) int {
	return func(s []rune, i int) int {
		for _, p := range punct {
			if s[i] == p {
				return spaceRun(s, i+1)
			}
		}
		return -1
	}
}

func matchLine(s []rune, i int) int {
	if s[i] == '\n' {
		return i + 1
	}
	return -1
}

func matchSpace(s []rune, i int) int {
	return spaceRun(s, i)
}

// spaceRun returns the end of a whitespace run starting at i, or -1 when
// there is none.
func spaceRun(s []rune, i int) int {
	j := i
	for j < len(s) && unicode.IsSpace(s[j]) {
		j++
	}
	if j == i {
		return -1
	}
	return j
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
