package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docreader/internal/resolve"
)

var (
	resolveStart   int
	resolveEnd     int
	resolveSnippet string
	resolveRefs    string
	resolveContext int
)

// refFile is the YAML form of a reference list.
type refFile struct {
	References []resolve.Reference `yaml:"references"`
}

type resolveOut struct {
	Result  resolve.Result   `json:"result" yaml:"result"`
	Excerpt *resolve.Excerpt `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
}

var resolveCmd = &cobra.Command{
	Use:   "resolve FILE",
	Short: "Resolve references against a document's pages",
	Long: `Map character ranges or quoted snippets onto the pages of a document and
print the highlighted fragments.

Examples:
  docctl resolve book.txt --start 5000 --end 5200
  docctl resolve book.txt --snippet "Call me Ishmael" --context 200
  docctl resolve book.txt --refs citations.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().IntVar(&resolveStart, "start", -1, "start character offset")
	resolveCmd.Flags().IntVar(&resolveEnd, "end", -1, "end character offset (exclusive)")
	resolveCmd.Flags().StringVar(&resolveSnippet, "snippet", "", "text to search for when offsets are missing or stale")
	resolveCmd.Flags().StringVar(&resolveRefs, "refs", "", "YAML file with a references list")
	resolveCmd.Flags().IntVar(&resolveContext, "context", 0, "characters of surrounding context to include")
}

func runResolve(cmd *cobra.Command, args []string) error {
	refs, err := references()
	if err != nil {
		return err
	}
	e, err := loadFile(args[0])
	if err != nil {
		return err
	}

	src := e.Source()
	out := make([]resolveOut, 0, len(refs))
	for _, ref := range refs {
		if !resolve.NormalizeReference(&ref) {
			out = append(out, resolveOut{Result: resolve.Unresolved(ref, resolve.ReasonNoRange)})
			continue
		}
		o := resolveOut{Result: resolve.Resolve(ref, src)}
		if o.Result.Matched && resolveContext > 0 {
			if ex, ok := resolve.ContextFor(ref, e.Doc.Text, resolveContext); ok {
				o.Excerpt = &ex
			}
		}
		out = append(out, o)
	}
	return write(cmd.OutOrStdout(), out)
}

func references() ([]resolve.Reference, error) {
	if resolveRefs != "" {
		data, err := os.ReadFile(resolveRefs)
		if err != nil {
			return nil, err
		}
		var f refFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", resolveRefs, err)
		}
		if len(f.References) == 0 {
			return nil, fmt.Errorf("%s lists no references", resolveRefs)
		}
		return f.References, nil
	}

	ref := resolve.Reference{ID: "cli", Content: resolveSnippet}
	if resolveStart >= 0 {
		start := resolveStart
		ref.StartOffset = &start
		if resolveEnd >= 0 {
			end := resolveEnd
			ref.EndOffset = &end
		}
	}
	if ref.StartOffset == nil && ref.Content == "" {
		return nil, fmt.Errorf("one of --start, --snippet or --refs is required")
	}
	return []resolve.Reference{ref}, nil
}
