package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth
	DocreaderAPIKey string

	// Document sources
	LibraryDir      string
	LibraryPatterns []string
	PathstoreURL    string
	PathstoreAPIKey string
	FetchRetries    int

	// Reading positions. A bolt file when set, otherwise pathstore when
	// configured, otherwise positions are not saved.
	PositionsDB string

	// Segmentation
	ChunkSize        int
	FrontMatterRatio float64
	FrontMatterPages int

	// Resident window
	WindowRadius      int
	MaxResidentChunks int
	ScrollInterval    time.Duration

	// Sessions
	SessionTTL         time.Duration
	MaxConcurrentFetch int

	LogLevel string

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		DocreaderAPIKey: os.Getenv("DOCREADER_API_KEY"),

		LibraryDir:      envOr("LIBRARY_DIR", "./library"),
		LibraryPatterns: envList("LIBRARY_PATTERNS", []string{"**/*"}),
		PathstoreURL:    os.Getenv("PATHSTORE_URL"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),
		FetchRetries:    envInt("FETCH_RETRIES", 3),

		PositionsDB: os.Getenv("POSITIONS_DB"),

		ChunkSize:        envInt("CHUNK_SIZE", 10000),
		FrontMatterRatio: envFloat("FRONT_MATTER_RATIO", 0.3),
		FrontMatterPages: envInt("FRONT_MATTER_PAGES", 5),

		WindowRadius:      envInt("WINDOW_RADIUS", 5),
		MaxResidentChunks: envInt("MAX_RESIDENT_CHUNKS", 50),
		ScrollInterval:    envDuration("SCROLL_INTERVAL", 500*time.Millisecond),

		SessionTTL:         envDuration("SESSION_TTL", 2*time.Hour),
		MaxConcurrentFetch: envInt("MAX_CONCURRENT_FETCH", 4),

		LogLevel: envOr("LOG_LEVEL", "info"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.FetchRetries <= 0 {
		cfg.FetchRetries = 3
	}
	if cfg.WindowRadius <= 0 {
		cfg.WindowRadius = 5
	}
	if cfg.MaxResidentChunks <= 0 {
		cfg.MaxResidentChunks = 50
	}
	if cfg.ScrollInterval <= 0 {
		cfg.ScrollInterval = 500 * time.Millisecond
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.MaxConcurrentFetch <= 0 {
		cfg.MaxConcurrentFetch = 4
	}

	return cfg
}

func (c Config) Validate() error {
	if c.LibraryDir == "" && c.PathstoreURL == "" {
		return fmt.Errorf("LIBRARY_DIR or PATHSTORE_URL is required")
	}
	if c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required with PATHSTORE_URL")
	}
	if c.ChunkSize < 100 {
		return fmt.Errorf("CHUNK_SIZE must be at least 100, got %d", c.ChunkSize)
	}
	if c.FrontMatterRatio <= 0 || c.FrontMatterRatio > 1 {
		return fmt.Errorf("FRONT_MATTER_RATIO must be in (0, 1], got %g", c.FrontMatterRatio)
	}
	if c.FrontMatterPages < 1 {
		return fmt.Errorf("FRONT_MATTER_PAGES must be at least 1, got %d", c.FrontMatterPages)
	}
	if c.MaxResidentChunks < 2*c.WindowRadius+1 {
		return fmt.Errorf("MAX_RESIDENT_CHUNKS (%d) must hold a full initial window of %d chunks",
			c.MaxResidentChunks, 2*c.WindowRadius+1)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Where reading positions are kept.
const (
	PositionsNone      = ""
	PositionsBolt      = "bolt"
	PositionsPathstore = "pathstore"
)

// PositionsBackend picks the position store: an explicit POSITIONS_DB file
// wins, then pathstore when it is configured.
func (c Config) PositionsBackend() string {
	switch {
	case c.PositionsDB != "":
		return PositionsBolt
	case c.PathstoreURL != "":
		return PositionsPathstore
	}
	return PositionsNone
}

// SlogLevel returns the configured log level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma separated value, dropping empty items.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
