package doctree

import "strings"

// Document is the full original text of a book plus its stable identifier.
// It is immutable once loaded for a session.
type Document struct {
	ID    string // Stable document identifier
	Title string // Display title (from metadata or filename)
	Text  string // Full extracted text; reference offsets are computed against it
}

// Chunk is one display-sized page of a Document.
type Chunk struct {
	ID      string `json:"id"`                // "chunk_<index>", unique within a document
	Index   int    `json:"index"`             // Dense 0-based position in the chunk sequence
	Content string `json:"content"`           // Exact substring of Document.Text
	Page    int    `json:"page"`              // 1-based display number, always Index+1
	Chapter string `json:"chapter,omitempty"` // Most recent accepted chapter heading, if any
}

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page (0 if N/A)
	Children []*DocNode // Subsections
}

// Render flattens a tree into reading text. Section titles become markdown
// headings (one '#' per nesting level, capped at 6) so that chapter detection
// works the same for every source format. Blocks are separated by blank lines.
func Render(tree *DocTree) string {
	if tree == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(nodes []*DocNode, depth int)
	walk = func(nodes []*DocNode, depth int) {
		for _, n := range nodes {
			if n.Title != "" {
				writeBlock(&sb, strings.Repeat("#", min(depth, 6))+" "+n.Title)
			}
			if t := strings.TrimSpace(n.Text); t != "" {
				writeBlock(&sb, t)
			}
			next := depth
			if n.Title != "" {
				next++
			}
			walk(n.Children, next)
		}
	}
	walk(tree.Children, 1)
	return sb.String()
}

func writeBlock(sb *strings.Builder, block string) {
	if sb.Len() > 0 {
		sb.WriteString("\n\n")
	}
	sb.WriteString(block)
}
