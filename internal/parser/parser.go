package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docreader/internal/doctree"
)

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// TextExtractor is implemented by parsers whose reading text is the source
// itself rather than a rendering of the parsed tree.
type TextExtractor interface {
	ExtractText(r io.Reader, filename string) (title, text string, err error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Options tunes individual parsers.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Extract produces the reading text of a file. The document id is left for
// the caller to assign.
func Extract(r io.Reader, filename string, opts Options) (doctree.Document, error) {
	p, err := ForFile(filename, opts)
	if err != nil {
		return doctree.Document{}, err
	}

	if te, ok := p.(TextExtractor); ok {
		title, text, err := te.ExtractText(r, filename)
		if err != nil {
			return doctree.Document{}, fmt.Errorf("extract %s: %w", filename, err)
		}
		return doctree.Document{Title: title, Text: text}, nil
	}

	tree, err := p.Parse(r, filename)
	if err != nil {
		return doctree.Document{}, fmt.Errorf("parse %s: %w", filename, err)
	}
	return doctree.Document{Title: tree.Title, Text: Normalize(doctree.Render(tree))}, nil
}

// Normalize strips a byte order mark, unifies line endings and drops NUL
// bytes so offsets are stable across platforms.
func Normalize(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\x00", "")
}

// baseTitle is the file name without directory or extension.
func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
