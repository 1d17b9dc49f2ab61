// Package engine runs the generation pipeline: terrain, water, settlements,
// regions, politics, belief and roads, one stage after another.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/mapforge/internal/world"
)

// Stage is one step of the pipeline. Stages run strictly in order and
// share the run state.
type Stage struct {
	Name string
	Run  func(ctx context.Context, r *Run) error
}

// Run is the state carried between stages of one generation.
type Run struct {
	Config world.GenConfig
	Seed   int64
	World  *world.World
}

// Engine drives a generation run.
type Engine struct {
	Stages []Stage

	// OnStage is called after every completed stage.
	OnStage func(name string, elapsed time.Duration, r *Run)
}

// NewEngine returns an engine with the default stage list.
func NewEngine() *Engine {
	return &Engine{Stages: DefaultStages()}
}

// Generate runs the default pipeline for cfg.
func Generate(ctx context.Context, cfg world.GenConfig) (*world.World, error) {
	return NewEngine().Generate(ctx, cfg)
}

// Generate validates cfg and runs every stage in order. Cancellation is
// checked between stages and inside the parallel ones; a cancelled run
// returns no world.
func (e *Engine) Generate(ctx context.Context, cfg world.GenConfig) (*world.World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.ResolveSeed()
	r := &Run{
		Config: cfg,
		Seed:   seed,
		World:  &world.World{Width: cfg.Width, Height: cfg.Height, Seed: seed},
	}

	start := time.Now()
	slog.Info("generation started", "seed", seed, "width", cfg.Width, "height", cfg.Height)
	for _, st := range e.Stages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", st.Name, err)
		}
		t := time.Now()
		if err := st.Run(ctx, r); err != nil {
			return nil, fmt.Errorf("%s: %w", st.Name, err)
		}
		if e.OnStage != nil {
			e.OnStage(st.Name, time.Since(t), r)
		}
	}
	slog.Info("generation finished", "seed", seed, "elapsed", time.Since(start).Round(time.Millisecond))
	return r.World, nil
}
