package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/docreader/internal/config"
	"github.com/dgallion1/docreader/internal/library"
	"github.com/dgallion1/docreader/internal/session"
	"github.com/dgallion1/docreader/internal/stats"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for docreader.
type Server struct {
	router   chi.Router
	sessions *session.Manager
	docs     library.Lister // nil when no source can enumerate documents
	stats    *stats.Reader
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(sessions *session.Manager, docs library.Lister, st *stats.Reader, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sessions: sessions,
		docs:     docs,
		stats:    st,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.DocreaderAPIKey != "" {
			r.Use(AuthMiddleware(s.cfg.DocreaderAPIKey, s.log))
		}

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/stats", s.handleStats)

		r.Post("/api/sessions", s.handleOpenSession)
		r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleCloseSession)
			r.Get("/window", s.handleWindow)
			r.Post("/scroll", s.handleScroll)
			r.Post("/expand/{direction}", s.handleExpand)
			r.Post("/jump", s.handleJump)
			r.Put("/position", s.handlePutPosition)
			r.Post("/references/resolve", s.handleResolveReferences)
			r.Get("/context", s.handleContext)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
