package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// shortLine is the length under which keyword-bearing lines count as TOC entries.
const shortLine = 100

var numberedLine = regexp.MustCompile(`^\d+\.`)

// Headings containing any of these are front or back matter, not chapters.
var nonChapterWords = []string{
	"table of contents",
	"introduction",
	"preface",
	"acknowledgments",
	"notes",
	"index",
	"bibliography",
	"appendix",
}

// looksLikeTOC reports whether a lowercased, trimmed line of n characters
// resembles table-of-contents content.
func looksLikeTOC(lower string, n int) bool {
	switch {
	case strings.Contains(lower, "contents"):
		return true
	case n < shortLine && containsAny(lower, "chapter", "part", "book"):
		return true
	case strings.HasPrefix(lower, "#") && containsAny(lower, "chapter", "part"):
		return true
	case n < shortLine && numberedLine.MatchString(lower):
		return true
	}
	return false
}

// endsTOC reports whether a line is a long heading that marks the start of
// real content.
func endsTOC(lower string, n int) bool {
	return strings.HasPrefix(lower, "#") && n > 20 && !containsAny(lower, "chapter", "part")
}

// ChapterTitle extracts a chapter title from a level 1-3 markdown heading.
// Titles of five characters or fewer and front/back matter headings are rejected.
func ChapterTitle(line string) (string, bool) {
	t := strings.TrimSpace(line)
	var title string
	switch {
	case strings.HasPrefix(t, "### "):
		title = t[4:]
	case strings.HasPrefix(t, "## "):
		title = t[3:]
	case strings.HasPrefix(t, "# "):
		title = t[2:]
	default:
		return "", false
	}
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) <= 5 {
		return "", false
	}
	if containsAny(strings.ToLower(title), nonChapterWords...) {
		return "", false
	}
	return title, true
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
