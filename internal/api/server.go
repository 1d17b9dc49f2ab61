// Package api serves generated worlds over HTTP for the renderer.
// All endpoints are GET and read-only; generating a fresh world is rate
// limited per client.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mapforge/internal/engine"
	"github.com/talgya/mapforge/internal/persistence"
	"github.com/talgya/mapforge/internal/world"
)

// Request limits for on-demand generation.
const (
	maxDimension    = 1024
	generateTimeout = 2 * time.Minute
	defaultListSize = 20
	maxListSize     = 100
)

// Server serves generated worlds and the catalog.
type Server struct {
	Config  world.GenConfig      // base config for on-demand generation
	Catalog *persistence.Catalog // nil disables the catalog endpoints
	Port    int

	// GenerateLimit caps on-demand generations per client per hour.
	// Zero means 10.
	GenerateLimit int

	mu        sync.Mutex
	generated int
	lastSeed  int64
	started   time.Time
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	limit := s.GenerateLimit
	if limit <= 0 {
		limit = 10
	}
	generateLimiter := NewRateLimiter(limit, time.Hour)

	s.mu.Lock()
	if s.started.IsZero() {
		s.started = time.Now()
	}
	s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/world", RateLimitMiddleware(generateLimiter, s.handleGenerate))
	mux.HandleFunc("/api/v1/worlds", s.handleWorlds)
	mux.HandleFunc("/api/v1/worlds/", s.handleWorldRoutes)
	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "catalog", s.Catalog != nil)

	handler := s.Handler()
	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed renderer origins.
// WORLDGEN_CORS_ORIGINS adds a comma-separated list to the localhost
// dev servers.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("WORLDGEN_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	generated, lastSeed, started := s.generated, s.lastSeed, s.started
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"name":      "mapforge",
		"generated": generated,
		"last_seed": lastSeed,
		"uptime":    time.Since(started).Round(time.Second).String(),
		"since":     humanize.Time(started),
		"catalog":   s.Catalog != nil,
		"defaults": map[string]int{
			"width":  s.Config.Width,
			"height": s.Config.Height,
		},
	})
}

// handleGenerate runs the pipeline for GET /api/v1/world?seed=&width=&height=.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()
	start := time.Now()
	gen, err := engine.Generate(ctx, cfg)
	if err != nil {
		switch {
		case errors.Is(err, world.ErrInvalidDimensions):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			http.Error(w, "generation cancelled", http.StatusServiceUnavailable)
		default:
			slog.Error("generation failed", "error", err)
			http.Error(w, "generation failed", http.StatusInternalServerError)
		}
		return
	}

	s.mu.Lock()
	s.generated++
	s.lastSeed = gen.Seed
	s.mu.Unlock()

	if s.Catalog != nil {
		id, err := s.Catalog.SaveWorld(gen)
		if err != nil {
			slog.Error("catalog save failed", "error", err)
		} else {
			w.Header().Set("X-World-ID", id)
		}
	}
	slog.Info("world served", "seed", gen.Seed, "settlements", len(gen.Settlements),
		"elapsed", time.Since(start).Round(time.Millisecond))
	writeJSON(w, gen)
}

// requestConfig layers query parameters over the server's base config.
func (s *Server) requestConfig(r *http.Request) (world.GenConfig, error) {
	cfg := s.Config
	q := r.URL.Query()
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid seed %q", v)
		}
		cfg.Seed = seed
	}
	for _, dim := range []struct {
		key string
		dst *int
	}{{"width", &cfg.Width}, {"height", &cfg.Height}} {
		v := q.Get(dim.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxDimension {
			return cfg, fmt.Errorf("%s must be an integer in 1..%d", dim.key, maxDimension)
		}
		*dim.dst = n
	}
	return cfg, nil
}

func (s *Server) handleWorlds(w http.ResponseWriter, r *http.Request) {
	if s.Catalog == nil {
		http.Error(w, "catalog disabled", http.StatusServiceUnavailable)
		return
	}
	limit := defaultListSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListSize)
	}
	worlds, err := s.Catalog.Worlds(limit)
	if err != nil {
		slog.Error("catalog list failed", "error", err)
		http.Error(w, "catalog error", http.StatusInternalServerError)
		return
	}
	if worlds == nil {
		worlds = []persistence.WorldSummary{}
	}
	writeJSON(w, worlds)
}

// handleWorldRoutes dispatches GET /api/v1/worlds/:id and
// GET /api/v1/worlds/:id/elevation.
func (s *Server) handleWorldRoutes(w http.ResponseWriter, r *http.Request) {
	if s.Catalog == nil {
		http.Error(w, "catalog disabled", http.StatusServiceUnavailable)
		return
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/worlds/"), "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		s.handleWorldDetail(w, parts[0])
	case len(parts) == 2 && parts[1] == "elevation":
		s.handleElevation(w, parts[0])
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleWorldDetail(w http.ResponseWriter, id string) {
	summary, err := s.Catalog.World(id)
	if err != nil {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}
	settlements, err := s.Catalog.Settlements(id)
	if err != nil {
		slog.Error("catalog settlements failed", "id", id, "error", err)
		http.Error(w, "catalog error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"world":       summary,
		"settlements": settlements,
	})
}

// handleElevation writes the raw elevation bytes, row-major, one byte per
// cell, with the dimensions in headers.
func (s *Server) handleElevation(w http.ResponseWriter, id string) {
	g, err := s.Catalog.Elevation(id)
	if err != nil {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Width", strconv.Itoa(g.W))
	w.Header().Set("X-Height", strconv.Itoa(g.H))
	w.Write(g.Cells)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
