package resolve

import (
	"strings"
	"testing"
)

func TestNormalizeReference_Nil(t *testing.T) {
	if NormalizeReference(nil) {
		t.Error("expected nil reference to be rejected")
	}
}

func TestNormalizeReference_TrimsFields(t *testing.T) {
	r := Reference{ID: " r1 ", DocumentID: " doc ", Content: "  quoted text \n", Chapter: " One "}
	if !NormalizeReference(&r) {
		t.Fatal("expected reference with snippet to be usable")
	}
	if r.ID != "r1" || r.DocumentID != "doc" || r.Content != "quoted text" || r.Chapter != "One" {
		t.Errorf("expected trimmed fields, got %+v", r)
	}
}

func TestNormalizeReference_DropsNegativeOffsets(t *testing.T) {
	r := Reference{StartOffset: intp(-4), EndOffset: intp(10)}
	if NormalizeReference(&r) {
		t.Error("expected reference with no usable range to be rejected")
	}
	if r.StartOffset != nil || r.EndOffset != nil {
		t.Errorf("expected offsets cleared, got %v %v", r.StartOffset, r.EndOffset)
	}
}

func TestNormalizeReference_PointIsUsable(t *testing.T) {
	r := Reference{StartOffset: intp(4), Page: -2}
	if !NormalizeReference(&r) {
		t.Error("expected point reference to be usable")
	}
	if r.Page != 0 {
		t.Errorf("expected page clamped to 0, got %d", r.Page)
	}
}

func TestNormalizeReference_TruncatesSnippet(t *testing.T) {
	r := Reference{Content: strings.Repeat("é", maxSnippet+10)}
	NormalizeReference(&r)
	if n := len([]rune(r.Content)); n != maxSnippet {
		t.Errorf("expected %d characters, got %d", maxSnippet, n)
	}
}
