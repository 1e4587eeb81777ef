package chunker

import (
	"sort"
	"unicode/utf8"

	"github.com/dgallion1/docreader/internal/doctree"
)

// OffsetIndex maps chunk positions to character offsets in the original text.
// start[i+1] == start[i] + len(content[i]) holds for every i.
type OffsetIndex struct {
	starts []int
	total  int
}

// NewOffsetIndex builds the index once for a segmented document.
func NewOffsetIndex(chunks []doctree.Chunk) *OffsetIndex {
	starts := make([]int, len(chunks))
	acc := 0
	for i, c := range chunks {
		starts[i] = acc
		acc += utf8.RuneCountInString(c.Content)
	}
	return &OffsetIndex{starts: starts, total: acc}
}

// Len returns the number of indexed chunks.
func (x *OffsetIndex) Len() int {
	return len(x.starts)
}

// Total returns the character length of all chunks combined.
func (x *OffsetIndex) Total() int {
	return x.total
}

// Start returns the offset of the first character of chunk i.
func (x *OffsetIndex) Start(i int) int {
	return x.starts[i]
}

// End returns the offset just past the last character of chunk i.
func (x *OffsetIndex) End(i int) int {
	if i+1 < len(x.starts) {
		return x.starts[i+1]
	}
	return x.total
}

// Locate returns the index of the chunk containing offset, or -1 when the
// offset lies outside the text.
func (x *OffsetIndex) Locate(offset int) int {
	if offset < 0 || offset >= x.total {
		return -1
	}
	return sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > offset }) - 1
}
