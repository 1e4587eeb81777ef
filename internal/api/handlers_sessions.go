package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/dgallion1/docreader/internal/library"
	"github.com/dgallion1/docreader/internal/session"
	"github.com/dgallion1/docreader/internal/window"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		writeDecodeError(w, err)
		return
	}

	sess, err := s.sessions.Open(r.Context(), req.DocumentID)
	switch {
	case errors.Is(err, library.ErrNotFound):
		jsonError(w, "document not found: "+req.DocumentID, http.StatusNotFound)
		return
	case errors.Is(err, context.Canceled):
		// The client went away; nothing useful to send.
		return
	case err != nil:
		s.log.Error("open session failed", "doc_id", req.DocumentID, "error", err)
		jsonError(w, "failed to open document: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

// session looks up the session named in the URL, writing a 404 when absent.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	pos, err := s.sessions.Close(r.Context(), chi.URLParam(r, "sessionID"))
	if errors.Is(err, session.ErrNotFound) {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	resp := map[string]any{"closed": true, "position": pos}
	if err != nil {
		// The session is gone either way; report the lost position.
		resp["warning"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	snap := sess.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": snap.ID,
		"window":     snap.Window,
		"chunks":     sess.Window(),
	})
}

func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req scrollRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		writeDecodeError(w, err)
		return
	}
	dir, delta, state := sess.Scroll(*req.Fraction)
	writeJSON(w, http.StatusOK, map[string]any{
		"direction": dir,
		"delta":     delta,
		"window":    state,
	})
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	dir := window.Direction(chi.URLParam(r, "direction"))
	if dir != window.Up && dir != window.Down {
		jsonError(w, "direction must be up or down", http.StatusBadRequest)
		return
	}
	delta, state := sess.Expand(dir)
	writeJSON(w, http.StatusOK, map[string]any{
		"direction": dir,
		"delta":     delta,
		"window":    state,
	})
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req positionRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.Page == 0 && req.Offset == nil {
		jsonError(w, "page or offset is required", http.StatusBadRequest)
		return
	}
	state, err := navigate(sess, req)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"window": state})
}

// handlePutPosition optionally moves the window, then persists the anchor.
func (s *Server) handlePutPosition(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req positionRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.Page != 0 || req.Offset != nil {
		if _, err := navigate(sess, req); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	pos, err := s.sessions.SavePosition(r.Context(), sess)
	if err != nil {
		s.log.Error("save position failed", "session_id", sess.ID, "error", err)
		jsonError(w, "failed to save position", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"position": pos})
}

// navigate prefers the offset, which stays valid across re-segmentation.
func navigate(sess *session.Session, req positionRequest) (session.WindowState, error) {
	if req.Offset != nil {
		return sess.Seek(*req.Offset)
	}
	return sess.Jump(req.Page)
}
