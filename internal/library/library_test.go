package library

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/docreader/internal/chunker"
	"github.com/dgallion1/docreader/internal/doctree"
	"github.com/dgallion1/docreader/internal/parser"
	"github.com/dgallion1/docreader/internal/pathstore"
	"github.com/dgallion1/docreader/internal/stats"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"books/Moby Dick":     "books-moby-dick",
		"  War & Peace!! ":    "war-peace",
		"---":                 "",
		"Already-a-slug-2026": "already-a-slug-2026",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestDirSource_ListAndFetch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "classics", "Moby Dick.txt"), "Call me Ishmael.\r\nSome years ago.")
	writeFile(t, filepath.Join(root, "notes.md"), "# Reading Notes\n\nLoved it.")
	writeFile(t, filepath.Join(root, "data.csv"), "a,b")
	writeFile(t, filepath.Join(root, "drafts", "skip.txt"), "draft")

	src := NewDirSource(root, []string{"classics/**", "*.md"}, parser.Options{})
	infos, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 documents, got %+v", infos)
	}
	if infos[0].ID != "classics-moby-dick" || infos[0].Title != "Moby Dick" {
		t.Errorf("unexpected first info %+v", infos[0])
	}
	if infos[1].ID != "notes" {
		t.Errorf("unexpected second info %+v", infos[1])
	}

	doc, err := src.Fetch(context.Background(), "classics-moby-dick")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if doc.ID != "classics-moby-dick" || doc.Text != "Call me Ishmael.\nSome years ago." {
		t.Errorf("unexpected document %+v", doc)
	}

	if _, err := src.Fetch(context.Background(), "drafts-skip"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for excluded file, got %v", err)
	}
}

func TestDirSource_FetchRescansForNewFiles(t *testing.T) {
	root := t.TempDir()
	src := NewDirSource(root, nil, parser.Options{})
	if _, err := src.List(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	writeFile(t, filepath.Join(root, "late.txt"), "arrived later")
	doc, err := src.Fetch(context.Background(), "late")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if doc.Text != "arrived later" {
		t.Errorf("unexpected text %q", doc.Text)
	}
}

type fakeSource struct {
	docs    map[string]string
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	fail    error
}

func (f *fakeSource) Fetch(ctx context.Context, id string) (doctree.Document, error) {
	if f.calls.Add(1) == 1 && f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return doctree.Document{}, ctx.Err()
		}
	}
	if f.fail != nil {
		return doctree.Document{}, f.fail
	}
	text, ok := f.docs[id]
	if !ok {
		return doctree.Document{}, ErrNotFound
	}
	return doctree.Document{ID: id, Title: id, Text: text}, nil
}

func (f *fakeSource) List(context.Context) ([]Info, error) {
	var out []Info
	for id := range f.docs {
		out = append(out, Info{ID: id, Title: id, Source: "fake"})
	}
	return out, nil
}

func TestChain(t *testing.T) {
	a := &fakeSource{docs: map[string]string{"one": "first"}}
	b := &fakeSource{docs: map[string]string{"one": "shadowed", "two": "second"}}
	chain := Chain{a, b}

	doc, err := chain.Fetch(context.Background(), "two")
	if err != nil || doc.Text != "second" {
		t.Fatalf("expected second source to serve, got %+v %v", doc, err)
	}
	if _, err := chain.Fetch(context.Background(), "three"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	broken := &fakeSource{fail: errors.New("disk on fire")}
	if _, err := (Chain{broken, b}).Fetch(context.Background(), "two"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected hard error to stop the chain, got %v", err)
	}

	infos, err := chain.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Errorf("expected 2 distinct ids, got %+v", infos)
	}
}

func TestRemoteSource_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"key_path":"documents.moby","value":{"title":"Moby Dick","text":"Call me Ishmael."}}`))
	}))
	defer srv.Close()

	src := NewRemoteSource(pathstore.NewClient(srv.URL, ""), 3, time.Millisecond)
	doc, err := src.Fetch(context.Background(), "moby")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if doc.Title != "Moby Dick" || doc.Text != "Call me Ishmael." || doc.ID != "moby" {
		t.Errorf("unexpected document %+v", doc)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestRemoteSource_NotFoundAndClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if strings.HasSuffix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	src := NewRemoteSource(pathstore.NewClient(srv.URL, ""), 3, time.Millisecond)
	if _, err := src.Fetch(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	calls.Store(0)
	if _, err := src.Fetch(context.Background(), "bad"); err == nil {
		t.Error("expected error for bad request")
	}
	if calls.Load() != 1 {
		t.Errorf("expected client error not to be retried, got %d calls", calls.Load())
	}
}

func TestRemoteSource_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"nodes":[{"key_path":"documents.moby","value":{"title":"Moby Dick"}},{"key_path":"documents/untitled","value":{}}]}`))
	}))
	defer srv.Close()

	infos, err := NewRemoteSource(pathstore.NewClient(srv.URL, ""), 1, 0).List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].ID != "moby" || infos[0].Title != "Moby Dick" || infos[1].Title != "untitled" {
		t.Errorf("unexpected listing %+v", infos)
	}
}

func TestCache_DeduplicatesConcurrentLoads(t *testing.T) {
	src := &fakeSource{
		docs:    map[string]string{"far": strings.Repeat("Far away text. ", 200)},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	cache := NewCache(context.Background(), src, chunker.Config{TargetSize: 500}, stats.NewReader(time.Hour), testLogger())

	var wg sync.WaitGroup
	entries := make([]*Entry, 8)
	errs := make([]error, 8)
	for i := range entries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entries[i], errs[i] = cache.Get(context.Background(), "far")
		}(i)
	}
	<-src.started
	close(src.release)
	wg.Wait()

	if n := src.calls.Load(); n != 1 {
		t.Fatalf("expected exactly 1 fetch, got %d", n)
	}
	for i := range entries {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if entries[i] != entries[0] {
			t.Fatalf("caller %d got a different entry", i)
		}
	}
	if len(entries[0].Chunks) < 2 {
		t.Errorf("expected the document to be segmented, got %d chunks", len(entries[0].Chunks))
	}

	// Memoized: no further fetch.
	if _, err := cache.Get(context.Background(), "far"); err != nil {
		t.Fatal(err)
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("expected cached entry, got %d fetches", n)
	}
}

func TestCache_FailuresAreNotCached(t *testing.T) {
	src := &fakeSource{docs: map[string]string{}}
	cache := NewCache(context.Background(), src, chunker.DefaultConfig(), nil, testLogger())

	if _, err := cache.Get(context.Background(), "later"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	src.docs["later"] = "now it exists"
	e, err := cache.Get(context.Background(), "later")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if e.Doc.Text != "now it exists" || cache.Len() != 1 {
		t.Errorf("unexpected entry %+v (cache len %d)", e.Doc, cache.Len())
	}
}

func TestCache_CallerCancellation(t *testing.T) {
	src := &fakeSource{
		docs:    map[string]string{"slow": "slow text"},
		release: make(chan struct{}),
	}
	cache := NewCache(context.Background(), src, chunker.DefaultConfig(), nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := cache.Get(ctx, "slow"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	close(src.release)
}

func TestLoad_CancelledSession(t *testing.T) {
	src := &fakeSource{docs: map[string]string{"x": "text"}, release: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, src, "x", chunker.DefaultConfig(), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
