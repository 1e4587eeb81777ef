package main

import (
	"github.com/spf13/cobra"
)

var (
	segmentFull    bool
	segmentPreview int
)

type pageOut struct {
	ID      string `json:"id" yaml:"id"`
	Page    int    `json:"page" yaml:"page"`
	Chapter string `json:"chapter" yaml:"chapter"`
	Start   int    `json:"start" yaml:"start"`
	End     int    `json:"end" yaml:"end"`
	Length  int    `json:"length" yaml:"length"`
	Text    string `json:"text" yaml:"text"`
}

type segmentOut struct {
	Document   string    `json:"document" yaml:"document"`
	Title      string    `json:"title" yaml:"title"`
	Characters int       `json:"characters" yaml:"characters"`
	Pages      int       `json:"pages" yaml:"pages"`
	Chunks     []pageOut `json:"chunks" yaml:"chunks"`
}

var segmentCmd = &cobra.Command{
	Use:   "segment FILE",
	Short: "Split a document into pages",
	Long: `Split a document into display pages and print each page's chapter and
character range.

Examples:
  docctl segment book.txt
  docctl segment book.pdf --chunk-size 4000 --full -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runSegment,
}

func init() {
	rootCmd.AddCommand(segmentCmd)
	segmentCmd.Flags().BoolVar(&segmentFull, "full", false, "print full page text")
	segmentCmd.Flags().IntVar(&segmentPreview, "preview", 80, "characters of page text to print without --full")
}

func runSegment(cmd *cobra.Command, args []string) error {
	e, err := loadFile(args[0])
	if err != nil {
		return err
	}

	out := segmentOut{
		Document:   e.Doc.ID,
		Title:      e.Doc.Title,
		Characters: e.Index.Total(),
		Pages:      len(e.Chunks),
		Chunks:     make([]pageOut, len(e.Chunks)),
	}
	for i, c := range e.Chunks {
		p := pageOut{
			ID:      c.ID,
			Page:    c.Page,
			Chapter: c.Chapter,
			Start:   e.Index.Start(i),
			End:     e.Index.End(i),
		}
		p.Length = p.End - p.Start
		if segmentFull {
			p.Text = c.Content
		} else {
			p.Text = preview(c, segmentPreview)
		}
		out.Chunks[i] = p
	}
	return write(cmd.OutOrStdout(), out)
}
