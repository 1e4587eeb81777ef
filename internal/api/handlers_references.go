package api

import (
	"net/http"

	"github.com/dgallion1/docreader/internal/resolve"
)

type resolvedReference struct {
	resolve.Result
	Excerpt *resolve.Excerpt `json:"excerpt,omitempty"`
}

// handleResolveReferences resolves a batch of citations. Misses are part of
// a successful response; only a malformed request fails.
func (s *Server) handleResolveReferences(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req resolveRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		writeDecodeError(w, err)
		return
	}

	refs := make([]resolve.Reference, len(req.References))
	for i, in := range req.References {
		refs[i] = resolve.Reference{
			ID:          in.ID,
			Content:     in.Content,
			StartOffset: in.StartOffset,
			EndOffset:   in.EndOffset,
			Page:        in.Page,
			Chapter:     in.Chapter,
			DocumentID:  in.DocumentID,
		}
	}

	results := sess.ResolveReferences(r.Context(), refs)
	out := make([]resolvedReference, len(results))
	matched := 0
	for i, res := range results {
		out[i] = resolvedReference{Result: res}
		if !res.Matched {
			continue
		}
		matched++
		if req.ContextRadius > 0 {
			if ex, ok := sess.Excerpt(res, req.ContextRadius); ok {
				out[i].Excerpt = &ex
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results": out,
		"matched": matched,
		"total":   len(out),
	})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Context())
}
