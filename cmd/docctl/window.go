package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docreader/internal/window"
)

var (
	windowAnchor  int
	windowRadius  int
	windowMax     int
	windowExpands []string
)

type windowStep struct {
	Step    string `json:"step" yaml:"step"`
	First   int    `json:"first_page" yaml:"first_page"`
	Last    int    `json:"last_page" yaml:"last_page"`
	Loaded  int    `json:"loaded" yaml:"loaded"`
	Added   int    `json:"added" yaml:"added"`
	Trimmed int    `json:"trimmed" yaml:"trimmed"`
}

var windowCmd = &cobra.Command{
	Use:   "window FILE",
	Short: "Trace the resident window through a series of expansions",
	Long: `Open a document at a page and apply expansions in order, printing the
resident pages after each step.

Examples:
  docctl window book.txt --anchor 21 -e down -e down -e up
  docctl window book.txt --radius 5 --max 11 --anchor 21 -e down`,
	Args: cobra.ExactArgs(1),
	RunE: runWindow,
}

func init() {
	defaults := window.DefaultConfig()
	rootCmd.AddCommand(windowCmd)
	windowCmd.Flags().IntVar(&windowAnchor, "anchor", 1, "1-based page to open at")
	windowCmd.Flags().IntVar(&windowRadius, "radius", defaults.Radius, "pages added per expansion")
	windowCmd.Flags().IntVar(&windowMax, "max", defaults.MaxResident, "maximum resident pages")
	windowCmd.Flags().StringSliceVarP(&windowExpands, "expand", "e", nil, "expansions to apply: up or down")
}

func runWindow(cmd *cobra.Command, args []string) error {
	e, err := loadFile(args[0])
	if err != nil {
		return err
	}

	m := window.NewManager(e.Chunks, window.Config{Radius: windowRadius, MaxResident: windowMax})
	m.Initialize(windowAnchor - 1)

	steps := []windowStep{step(m, "initialize", window.Delta{})}
	for _, name := range windowExpands {
		dir := window.Direction(name)
		if dir != window.Up && dir != window.Down {
			return fmt.Errorf("unknown expansion %q (want up or down)", name)
		}
		steps = append(steps, step(m, "expand_"+name, window.Expand(m, dir)))
	}
	return write(cmd.OutOrStdout(), steps)
}

func step(m *window.Manager, name string, d window.Delta) windowStep {
	s := windowStep{Step: name, Loaded: m.Len(), Added: d.Added, Trimmed: d.Trimmed}
	if lo, hi, ok := m.Bounds(); ok {
		s.First, s.Last = lo+1, hi+1
	}
	return s
}
