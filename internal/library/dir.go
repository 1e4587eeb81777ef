package library

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dgallion1/docreader/internal/doctree"
	"github.com/dgallion1/docreader/internal/parser"
)

// DirSource serves documents from files under a root directory. Document ids
// are slugs of the file path relative to the root, without extension.
type DirSource struct {
	root     string
	patterns []string
	opts     parser.Options

	mu    sync.Mutex
	paths map[string]string // id -> absolute path
}

func NewDirSource(root string, patterns []string, opts parser.Options) *DirSource {
	if len(patterns) == 0 {
		patterns = []string{"**/*"}
	}
	return &DirSource{root: root, patterns: patterns, opts: opts}
}

// List walks the root and returns every supported file matching the patterns.
func (d *DirSource) List(ctx context.Context) ([]Info, error) {
	paths, err := d.scan(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]Info, 0, len(paths))
	for id, path := range paths {
		base := filepath.Base(path)
		infos = append(infos, Info{
			ID:     id,
			Title:  strings.TrimSuffix(base, filepath.Ext(base)),
			Source: "dir",
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// Fetch reads and extracts the file behind id.
func (d *DirSource) Fetch(ctx context.Context, id string) (doctree.Document, error) {
	path, ok := d.lookup(id)
	if !ok {
		// The file may have been added since the last scan.
		if _, err := d.scan(ctx); err != nil {
			return doctree.Document{}, err
		}
		if path, ok = d.lookup(id); !ok {
			return doctree.Document{}, fmt.Errorf("dir source %s: %w", id, ErrNotFound)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return doctree.Document{}, fmt.Errorf("dir source %s: %w", id, ErrNotFound)
		}
		return doctree.Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := parser.Extract(f, path, d.opts)
	if err != nil {
		return doctree.Document{}, err
	}
	doc.ID = id
	return doc, nil
}

func (d *DirSource) lookup(id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.paths[id]
	return p, ok
}

func (d *DirSource) scan(ctx context.Context) (map[string]string, error) {
	root, err := filepath.Abs(d.root)
	if err != nil {
		return nil, err
	}

	paths := make(map[string]string)
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !parser.IsSupportedExtension(rel) || !d.matches(rel) {
			return nil
		}
		id := Slugify(strings.TrimSuffix(rel, filepath.Ext(rel)))
		if id == "" {
			return nil
		}
		if _, dup := paths[id]; !dup {
			paths[id] = path
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", d.root, err)
	}

	d.mu.Lock()
	d.paths = paths
	d.mu.Unlock()
	return paths, nil
}

func (d *DirSource) matches(rel string) bool {
	for _, pattern := range d.patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
