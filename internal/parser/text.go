package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docreader/internal/doctree"
)

// maxTextBytes caps plain text reads.
const maxTextBytes = 256 << 20

// TextParser handles plain text files.
type TextParser struct{}

// ExtractText returns the file content as is, apart from normalization.
func (p *TextParser) ExtractText(r io.Reader, filename string) (string, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxTextBytes))
	if err != nil {
		return "", "", err
	}
	return baseTitle(filename), Normalize(string(data)), nil
}

// Parse splits the text into paragraph nodes.
func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	for _, para := range paragraphs {
		tree.Children = append(tree.Children, &doctree.DocNode{Text: para})
	}
	return tree, nil
}
