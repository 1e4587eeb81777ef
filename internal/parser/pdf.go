package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/docreader/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// maxPDFBytes caps how much of a PDF is read into memory.
const maxPDFBytes = 256 << 20

var errNoPDFText = errors.New("no extractable text")

// PDFParser handles PDF files. Pages are read with the Go library; when that
// fails or finds no text, pdftotext is tried if enabled.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPDFBytes))
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	pages, err := pdfPages(data)
	if err != nil && p.FallbackPdftotext {
		var fbErr error
		if pages, fbErr = pdftotextPages(data); fbErr == nil {
			err = nil
		} else {
			err = errors.Join(err, fbErr)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	// Pages stay untitled so that running headers like "Page 3" are never
	// mistaken for chapters.
	tree := &doctree.DocTree{Title: baseTitle(filename)}
	for i, page := range pages {
		if page = strings.TrimSpace(page); page == "" {
			continue
		}
		tree.Children = append(tree.Children, &doctree.DocNode{Text: page, Page: i + 1})
	}
	return tree, nil
}

// pdfPages returns the plain text of every page. Unreadable pages are empty.
func pdfPages(data []byte) ([]string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	n := reader.NumPage()
	pages := make([]string, n)
	found := false
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i-1] = text
		found = found || strings.TrimSpace(text) != ""
	}
	if !found {
		return nil, errNoPDFText
	}
	return pages, nil
}

// pdftotextPages runs poppler's pdftotext on a temp copy. It separates pages
// with form feeds.
func pdftotextPages(data []byte) ([]string, error) {
	tmp, err := os.CreateTemp("", "docreader-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmp.Name(), "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return strings.Split(string(out), "\f"), nil
}
