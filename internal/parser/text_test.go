package parser

import (
	"strings"
	"testing"
)

func TestTextParser_ParagraphNodes(t *testing.T) {
	input := "Line one.\r\nLine two.\n\n\n   \nSecond paragraph."
	tree, err := (&TextParser{}).Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", tree.Title)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(tree.Children))
	}
	if tree.Children[0].Text != "Line one.\nLine two." {
		t.Errorf("unexpected first paragraph %q", tree.Children[0].Text)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	tree, err := (&TextParser{}).Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected 0 children, got %d", len(tree.Children))
	}
}

func TestExtract_TextIsVerbatim(t *testing.T) {
	input := "\ufeffTitle Page\r\n\r\n\r\n  Indented line.\r\nEnd"
	doc, err := Extract(strings.NewReader(input), "dir/book.txt", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Title Page\n\n\n  Indented line.\nEnd"
	if doc.Text != want {
		t.Errorf("expected %q, got %q", want, doc.Text)
	}
	if doc.Title != "book" {
		t.Errorf("expected title %q, got %q", "book", doc.Title)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("a\rb\r\nc\x00d"); got != "a\nb\ncd" {
		t.Errorf("expected %q, got %q", "a\nb\ncd", got)
	}
}
