// Command worldgen generates a fantasy world map, logs a summary, records
// it in the catalog and optionally serves the HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/mapforge/internal/api"
	"github.com/talgya/mapforge/internal/engine"
	"github.com/talgya/mapforge/internal/persistence"
	"github.com/talgya/mapforge/internal/world"
)

func main() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if os.Getenv("WORLDGEN_DEBUG") != "" {
		opts.Level = slog.LevelDebug
	}
	var handler slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	if err := run(); err != nil {
		slog.Error("worldgen failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// ── Config ────────────────────────────────────────────────────────
	cfg := world.DefaultGenConfig()
	if path := os.Getenv("WORLDGEN_CONFIG"); path != "" {
		loaded, err := world.LoadGenConfig(path)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = loaded
		slog.Info("config loaded", "path", path)
	}
	if v := os.Getenv("WORLDGEN_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("WORLDGEN_SEED: %w", err)
		}
		cfg.Seed = seed
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Generation ────────────────────────────────────────────────────
	w, err := engine.Generate(ctx, cfg)
	if err != nil {
		return err
	}
	logSummary(w)

	// ── Catalog ───────────────────────────────────────────────────────
	var catalog *persistence.Catalog
	if dbPath := os.Getenv("WORLDGEN_DB"); dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return fmt.Errorf("catalog dir: %w", err)
		}
		catalog, err = persistence.Open(dbPath)
		if err != nil {
			return err
		}
		defer catalog.Close()
		id, err := catalog.SaveWorld(w)
		if err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		fmt.Printf("World %s catalogued in %s\n", id, dbPath)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	portStr := os.Getenv("WORLDGEN_PORT")
	if portStr == "" {
		return nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("WORLDGEN_PORT: %w", err)
	}
	srv := &api.Server{Config: cfg, Catalog: catalog, Port: port}
	srv.Start()
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", port)

	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

func logSummary(w *world.World) {
	pop := 0
	for _, s := range w.Settlements {
		pop += s.Population
	}
	slog.Info("world ready",
		"seed", w.Seed,
		"cells", humanize.Comma(int64(w.Width*w.Height)),
		"land", fmt.Sprintf("%.2f", w.Elevation.LandFraction()),
		"rivers", len(w.Rivers),
		"settlements", len(w.Settlements),
		"population", humanize.Comma(int64(pop)),
		"regions", w.RegionCount(),
		"countries", len(w.Countries),
		"religions", len(w.Religions),
		"cultures", len(w.Cultures),
		"roads", len(w.Roads),
	)
	for _, c := range w.Countries {
		capital := "fallen"
		if c.Capital != world.NoID {
			capital = w.Settlements[c.Capital].Name
		}
		slog.Info("country", "name", c.Name, "capital", capital, "government", c.Government,
			"regions", len(c.Regions), "population", humanize.Comma(int64(c.Population)))
	}

	fmt.Printf("\nSeed %d: %d settlements in %d countries, %d religions, %d cultures.\n",
		w.Seed, len(w.Settlements), len(w.Countries), len(w.Religions), len(w.Cultures))
}
