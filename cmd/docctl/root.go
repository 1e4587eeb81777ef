package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docreader/internal/chunker"
	"github.com/dgallion1/docreader/internal/doctree"
	"github.com/dgallion1/docreader/internal/library"
	"github.com/dgallion1/docreader/internal/parser"
)

var (
	outputFormat     string
	chunkSize        int
	frontMatterRatio float64
	frontMatterPages int
	noFrontMatter    bool
	pdftotext        bool
)

var rootCmd = &cobra.Command{
	Use:   "docctl",
	Short: "Inspect how docreader pages documents and resolves references",
	Long: `docctl runs the docreader segmenter, window manager and reference resolver
against a local file without starting the server.

Example usage:
  docctl segment book.pdf                      # List pages with chapters and offsets
  docctl window book.txt --anchor 20 -e down   # Show the resident window after expanding
  docctl resolve book.md --start 5000 --end 5200`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat != "yaml" && outputFormat != "json" {
			return fmt.Errorf("unknown output format %q (want yaml or json)", outputFormat)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	defaults := chunker.DefaultConfig()
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "yaml", "output format: yaml or json")
	rootCmd.PersistentFlags().IntVar(&chunkSize, "chunk-size", defaults.TargetSize, "target page size in characters")
	rootCmd.PersistentFlags().Float64Var(&frontMatterRatio, "front-matter-ratio", defaults.FrontMatterRatio, "page size ratio for front matter")
	rootCmd.PersistentFlags().IntVar(&frontMatterPages, "front-matter-pages", defaults.FrontMatterPages, "number of leading pages sized as front matter")
	rootCmd.PersistentFlags().BoolVar(&noFrontMatter, "no-front-matter", false, "size every page at the target size")
	rootCmd.PersistentFlags().BoolVar(&pdftotext, "pdftotext", true, "fall back to pdftotext for PDFs without extractable text")
}

func chunkConfig() chunker.Config {
	return chunker.Config{
		TargetSize:         chunkSize,
		FrontMatterRatio:   frontMatterRatio,
		FrontMatterPages:   frontMatterPages,
		DisableFrontMatter: noFrontMatter,
	}
}

// loadFile extracts and segments one local file.
func loadFile(path string) (*library.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := parser.Extract(f, path, parser.Options{PDFFallbackPdftotext: pdftotext})
	if err != nil {
		return nil, err
	}
	doc.ID = library.Slugify(doc.Title)
	return library.NewEntry(doc, chunkConfig()), nil
}

func write(w io.Writer, v any) error {
	if outputFormat == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

func preview(c doctree.Chunk, n int) string {
	r := []rune(c.Content)
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
