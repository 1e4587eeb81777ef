package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/docreader/internal/pathstore"
)

func TestBoltStore_PutGet(t *testing.T) {
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "positions.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "moby"); err != nil || ok {
		t.Fatalf("expected no position, got ok=%v err=%v", ok, err)
	}

	if err := s.Put(ctx, "moby", Position{Page: 12, Offset: 45000}); err != nil {
		t.Fatalf("put: %v", err)
	}
	pos, ok, err := s.Get(ctx, "moby")
	if err != nil || !ok {
		t.Fatalf("expected position, got ok=%v err=%v", ok, err)
	}
	if pos.Page != 12 || pos.Offset != 45000 {
		t.Errorf("expected page 12 offset 45000, got %+v", pos)
	}
	if pos.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}

	if err := s.Delete(ctx, "moby"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "moby"); ok {
		t.Error("expected position to be deleted")
	}
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.db")
	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.Put(context.Background(), "doc", Position{Page: 3, UpdatedAt: when}); err != nil {
		t.Fatalf("put: %v", err)
	}
	s.Close()

	s, err = NewBoltStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	pos, ok, err := s.Get(context.Background(), "doc")
	if err != nil || !ok {
		t.Fatalf("expected position after reopen, got ok=%v err=%v", ok, err)
	}
	if pos.Page != 3 || !pos.UpdatedAt.Equal(when) {
		t.Errorf("unexpected position %+v", pos)
	}
}

func TestRemoteStore_RoundTrip(t *testing.T) {
	var mu sync.Mutex
	nodes := map[string]json.RawMessage{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		key := strings.TrimPrefix(r.URL.Path, "/kv/")
		switch r.Method {
		case http.MethodPut:
			var req struct {
				Value json.RawMessage `json:"value"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			nodes[key] = req.Value
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			v, ok := nodes[key]
			if !ok {
				http.NotFound(w, r)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"key_path": key, "value": v})
		case http.MethodDelete:
			delete(nodes, key)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	s := NewRemoteStore(pathstore.NewClient(srv.URL, "k"))
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "doc-9"); err != nil || ok {
		t.Fatalf("expected no position, got ok=%v err=%v", ok, err)
	}
	if err := s.Put(ctx, "doc-9", Position{Page: 7}); err != nil {
		t.Fatalf("put: %v", err)
	}
	mu.Lock()
	_, stored := nodes["positions/doc-9"]
	mu.Unlock()
	if !stored {
		t.Fatal("expected node at positions/doc-9")
	}
	pos, ok, err := s.Get(ctx, "doc-9")
	if err != nil || !ok || pos.Page != 7 {
		t.Fatalf("expected page 7, got %+v ok=%v err=%v", pos, ok, err)
	}
	if err := s.Delete(ctx, "doc-9"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "doc-9"); ok {
		t.Error("expected position to be deleted")
	}
}
