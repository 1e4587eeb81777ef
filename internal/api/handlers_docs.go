package api

import (
	"net/http"

	"github.com/dgallion1/docreader/internal/library"
)

// handleListDocuments lists the documents the configured sources can serve.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		jsonError(w, "document listing unavailable", http.StatusServiceUnavailable)
		return
	}
	infos, err := s.docs.List(r.Context())
	if err != nil {
		s.log.Error("list documents failed", "error", err)
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if infos == nil {
		infos = []library.Info{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": infos})
}
