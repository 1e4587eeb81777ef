package parser

import (
	"strings"

	"github.com/dgallion1/docreader/internal/doctree"
)

// outline builds a DocTree from a flat stream of headings and text blocks.
// Headings nest under the nearest open heading of a lower level; text goes
// to the innermost open section.
type outline struct {
	root    doctree.DocNode
	open    []*doctree.DocNode
	levels  []int
	pending []string
}

func newOutline() *outline {
	o := &outline{}
	o.open = []*doctree.DocNode{&o.root}
	o.levels = []int{0}
	return o
}

// heading opens a new section at level (1-6).
func (o *outline) heading(level int, title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	o.flush()
	for len(o.open) > 1 && o.levels[len(o.levels)-1] >= level {
		o.open = o.open[:len(o.open)-1]
		o.levels = o.levels[:len(o.levels)-1]
	}
	node := &doctree.DocNode{Title: title}
	parent := o.open[len(o.open)-1]
	parent.Children = append(parent.Children, node)
	o.open = append(o.open, node)
	o.levels = append(o.levels, level)
}

// text queues one block for the current section. Blank blocks are dropped.
func (o *outline) text(block string) {
	if t := strings.TrimSpace(block); t != "" {
		o.pending = append(o.pending, t)
	}
}

func (o *outline) flush() {
	if len(o.pending) == 0 {
		return
	}
	top := o.open[len(o.open)-1]
	t := strings.Join(o.pending, "\n\n")
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
	o.pending = o.pending[:0]
}

// tree closes the outline. Text ahead of the first heading is kept as a
// leading untitled node.
func (o *outline) tree(title string) *doctree.DocTree {
	o.flush()
	t := &doctree.DocTree{Title: title, Children: o.root.Children}
	if o.root.Text != "" {
		t.Children = append([]*doctree.DocNode{{Text: o.root.Text}}, t.Children...)
	}
	return t
}
