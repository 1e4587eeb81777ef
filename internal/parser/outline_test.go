package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/docreader/internal/doctree"
)

func TestOutline_NestsByLevel(t *testing.T) {
	o := newOutline()
	o.text("Foreword text.")
	o.heading(1, "Book One")
	o.text("Opening.")
	o.heading(3, "Deep Aside")
	o.text("  ")
	o.text("Aside body.")
	o.heading(2, "Second Part")
	o.heading(1, "Book Two")
	o.heading(2, "   ")
	o.text("Closing.")
	tree := o.tree("book")

	if tree.Title != "book" {
		t.Errorf("expected title %q, got %q", "book", tree.Title)
	}
	if len(tree.Children) != 3 {
		t.Fatalf("expected leading text plus 2 sections, got %d", len(tree.Children))
	}
	if tree.Children[0].Title != "" || tree.Children[0].Text != "Foreword text." {
		t.Errorf("unexpected leading node %+v", tree.Children[0])
	}
	one := tree.Children[1]
	if one.Text != "Opening." || len(one.Children) != 2 {
		t.Fatalf("expected Book One with text and 2 subsections, got %q with %d", one.Text, len(one.Children))
	}
	if one.Children[0].Title != "Deep Aside" || one.Children[0].Text != "Aside body." {
		t.Errorf("unexpected aside %+v", one.Children[0])
	}
	two := tree.Children[2]
	if two.Title != "Book Two" || two.Text != "Closing." || len(two.Children) != 0 {
		t.Errorf("expected blank heading to be ignored, got %+v", two)
	}
}

func TestOutline_RendersLikeMarkdown(t *testing.T) {
	o := newOutline()
	o.heading(1, "The Voyage Out")
	o.text("First.")
	o.text("Second.")
	got := doctree.Render(o.tree("x"))
	want := "# The Voyage Out\n\nFirst.\n\nSecond."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHTMLParser_BreaksAndPreformatted(t *testing.T) {
	input := "<body><h2>Ship's\n  Log</h2><p>Wind from\n   the west.<br>Seas rising.</p>" +
		"<aside>ignored</aside><pre>  indented\n  code</pre></body>"
	tree, err := (&HTMLParser{}).Parse(strings.NewReader(input), "log.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "log" {
		t.Errorf("expected file name title, got %q", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 section, got %d", len(tree.Children))
	}
	sec := tree.Children[0]
	if sec.Title != "Ship's Log" {
		t.Errorf("expected folded heading, got %q", sec.Title)
	}
	want := "Wind from the west.\nSeas rising.\n\nindented\n  code"
	if sec.Text != want {
		t.Errorf("expected %q, got %q", want, sec.Text)
	}
}
