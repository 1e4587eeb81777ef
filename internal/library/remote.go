package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/dgallion1/docreader/internal/doctree"
	"github.com/dgallion1/docreader/internal/pathstore"
)

// RemoteSource reads documents stored in pathstore under
// documents/<id> with a {"title", "text"} value.
type RemoteSource struct {
	ps       *pathstore.Client
	prefix   string
	attempts uint
	delay    time.Duration
}

type remoteDoc struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

func NewRemoteSource(ps *pathstore.Client, attempts int, delay time.Duration) *RemoteSource {
	if attempts <= 0 {
		attempts = 3
	}
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &RemoteSource{ps: ps, prefix: "documents", attempts: uint(attempts), delay: delay}
}

func (s *RemoteSource) Fetch(ctx context.Context, id string) (doctree.Document, error) {
	key := s.prefix + "/" + id
	node, err := retry.DoWithData(
		func() (*pathstore.NodeResponse, error) {
			return s.ps.GetNode(ctx, key)
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.RetryIf(pathstore.IsRetryable),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return doctree.Document{}, fmt.Errorf("remote source %s: %w", id, err)
	}
	if node == nil {
		return doctree.Document{}, fmt.Errorf("remote source %s: %w", id, ErrNotFound)
	}

	var v remoteDoc
	if err := node.Decode(&v); err != nil {
		return doctree.Document{}, err
	}
	title := v.Title
	if title == "" {
		title = id
	}
	return doctree.Document{ID: id, Title: title, Text: v.Text}, nil
}

// List enumerates documents under the prefix.
func (s *RemoteSource) List(ctx context.Context) ([]Info, error) {
	nodes, err := s.ps.ListChildren(ctx, s.prefix, 0)
	if err != nil {
		return nil, fmt.Errorf("list remote documents: %w", err)
	}
	infos := make([]Info, 0, len(nodes))
	for _, n := range nodes {
		id := lastSegment(n.Key)
		if id == "" {
			continue
		}
		var v remoteDoc
		// Titles are best effort; a bad value still lists the id.
		_ = (&pathstore.NodeResponse{Key: n.Key, Value: n.Value}).Decode(&v)
		if v.Title == "" {
			v.Title = id
		}
		infos = append(infos, Info{ID: id, Title: v.Title, Source: "pathstore"})
	}
	return infos, nil
}

// lastSegment returns the final component of a pathstore key, which may use
// either "/" or "." as separator.
func lastSegment(key string) string {
	if i := strings.LastIndexAny(key, "/."); i >= 0 {
		return key[i+1:]
	}
	return key
}
