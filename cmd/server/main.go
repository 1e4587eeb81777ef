package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/docreader/internal/api"
	"github.com/dgallion1/docreader/internal/chunker"
	"github.com/dgallion1/docreader/internal/config"
	"github.com/dgallion1/docreader/internal/library"
	"github.com/dgallion1/docreader/internal/parser"
	"github.com/dgallion1/docreader/internal/pathstore"
	"github.com/dgallion1/docreader/internal/session"
	"github.com/dgallion1/docreader/internal/stats"
	"github.com/dgallion1/docreader/internal/store"
	"github.com/dgallion1/docreader/internal/window"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		log.Warn("failed to load .env", "error", envErr)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Document sources: the local library first, then pathstore.
	var sources library.Chain
	if cfg.LibraryDir != "" {
		sources = append(sources, library.NewDirSource(cfg.LibraryDir, cfg.LibraryPatterns, parser.Options{
			PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
		}))
	}
	var ps *pathstore.Client
	if cfg.PathstoreURL != "" {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		sources = append(sources, library.NewRemoteSource(ps, cfg.FetchRetries, 500*time.Millisecond))
	}

	// Reading positions.
	var positions store.Store
	switch cfg.PositionsBackend() {
	case config.PositionsBolt:
		bolt, err := store.NewBoltStore(cfg.PositionsDB)
		if err != nil {
			log.Error("failed to open positions db", "path", cfg.PositionsDB, "error", err)
			os.Exit(1)
		}
		positions = bolt
	case config.PositionsPathstore:
		positions = store.NewRemoteStore(ps)
	default:
		log.Warn("reading positions will not be persisted")
	}

	st := stats.NewReader(time.Hour)
	sessions := session.NewManager(session.Config{
		Chunk: chunker.Config{
			TargetSize:       cfg.ChunkSize,
			FrontMatterRatio: cfg.FrontMatterRatio,
			FrontMatterPages: cfg.FrontMatterPages,
		},
		Window: window.Config{
			Radius:      cfg.WindowRadius,
			MaxResident: cfg.MaxResidentChunks,
		},
		ScrollInterval:     cfg.ScrollInterval,
		TTL:                cfg.SessionTTL,
		MaxConcurrentFetch: cfg.MaxConcurrentFetch,
	}, sources, positions, st, log)
	sessions.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(sessions, sources, st, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		// Sessions save their positions on stop, so the store closes last.
		sessions.Stop()
		if positions != nil {
			if err := positions.Close(); err != nil {
				log.Warn("close positions store", "error", err)
			}
		}
		if ps != nil {
			ps.Close()
		}
	}()

	log.Info("starting docreader", "port", cfg.Port, "library", cfg.LibraryDir, "pathstore", cfg.PathstoreURL != "")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
}
