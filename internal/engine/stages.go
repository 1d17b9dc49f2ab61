package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mapforge/internal/culture"
	"github.com/talgya/mapforge/internal/politics"
	"github.com/talgya/mapforge/internal/roads"
	"github.com/talgya/mapforge/internal/voronoi"
	"github.com/talgya/mapforge/internal/world"
)

// Stage names, in pipeline order.
const (
	StageHeightmap   = "heightmap"
	StageErosion     = "erosion"
	StageRivers      = "rivers"
	StageClimate     = "climate"
	StageSettlements = "settlements"
	StageRegions     = "regions"
	StagePolitics    = "politics"
	StageBelief      = "belief"
	StageRoads       = "roads"
	StageRasters     = "rasters"
)

// fillerDensity is the grid area per filler region site.
const fillerDensity = 1300

// DefaultStages returns the full pipeline.
func DefaultStages() []Stage {
	return []Stage{
		{StageHeightmap, heightmapStage},
		{StageErosion, erosionStage},
		{StageRivers, riverStage},
		{StageClimate, climateStage},
		{StageSettlements, settlementStage},
		{StageRegions, regionStage},
		{StagePolitics, politicsStage},
		{StageBelief, beliefStage},
		{StageRoads, roadStage},
		{StageRasters, rasterStage},
	}
}

func heightmapStage(ctx context.Context, r *Run) error {
	t := time.Now()
	elev, err := world.SynthesizeHeightmap(r.Config, r.Seed)
	if err != nil {
		return err
	}
	r.World.Elevation = elev
	slog.Info("heightmap", "cells", humanize.Comma(int64(len(elev.Cells))),
		"land", elev.LandFraction(), "elapsed", time.Since(t).Round(time.Millisecond))
	return nil
}

func erosionStage(ctx context.Context, r *Run) error {
	t := time.Now()
	if err := world.Erode(ctx, r.World.Elevation, r.Config.ErosionPasses, r.Config.Erosion, r.Config.Workers); err != nil {
		return err
	}
	slog.Info("erosion", "passes", r.Config.ErosionPasses,
		"mean", r.World.Elevation.Mean(), "elapsed", time.Since(t).Round(time.Millisecond))
	return nil
}

func riverStage(ctx context.Context, r *Run) error {
	t := time.Now()
	r.World.Rivers = world.TraceRivers(r.World.Elevation, r.Seed, r.Config.RiverWidth)
	cells := 0
	for _, rv := range r.World.Rivers {
		cells += len(rv.Path)
	}
	slog.Info("rivers", "rivers", len(r.World.Rivers), "cells", humanize.Comma(int64(cells)),
		"elapsed", time.Since(t).Round(time.Millisecond))
	return nil
}

func climateStage(ctx context.Context, r *Run) error {
	t := time.Now()
	climate, err := world.GenerateClimate(r.Config.Width, r.Config.Height, r.Seed, r.Config.Workers)
	if err != nil {
		return err
	}
	biomes, err := world.ClassifyBiomes(r.World.Elevation, climate)
	if err != nil {
		return err
	}
	r.World.Climate = climate
	r.World.Biomes = biomes
	slog.Info("climate", "elapsed", time.Since(t).Round(time.Millisecond))
	return nil
}

func settlementStage(ctx context.Context, r *Run) error {
	t := time.Now()
	scores, err := world.ScoreSettlementSites(ctx, r.World.Elevation, r.World.Rivers, r.Seed, r.Config.Workers)
	if err != nil {
		return err
	}
	target := r.Config.SettlementTarget()
	placed := world.PlaceSettlements(scores, target, r.Seed)
	if len(placed) < target {
		slog.Debug("settlement pool short", "placed", len(placed), "target", target)
	}
	if err := world.EnrichSettlements(placed, r.World.Elevation, r.World.Climate, r.Config.BaseYear); err != nil {
		return err
	}
	r.World.Settlements = placed
	pop := 0
	for _, s := range placed {
		pop += s.Population
	}
	slog.Info("settlements", "settlements", len(placed), "population", humanize.Comma(int64(pop)),
		"elapsed", time.Since(t).Round(time.Millisecond))
	return nil
}

func regionStage(ctx context.Context, r *Run) error {
	t := time.Now()
	w := r.World
	sites, fillers := regionSites(w.Settlements, w.Width, w.Height, r.Seed)
	d, err := voronoi.Partition(float64(w.Width), float64(w.Height), sites, r.Config.Strict)
	if err != nil {
		return err
	}
	w.Diagram = d
	w.RegionSettlement = make([]int, len(d.Cells))
	for i := range w.RegionSettlement {
		w.RegionSettlement[i] = world.NoID
	}
	for i := range w.Settlements {
		s := &w.Settlements[i]
		region := d.SiteCell[i]
		if region == world.NoID {
			// Dropped cell: the settlement joins whichever cell contains it.
			region = d.Locate(voronoi.Vec{X: float64(s.Position.X), Y: float64(s.Position.Y)})
			slog.Debug("settlement cell dropped", "settlement", i, "region", region)
		}
		s.Region = region
		if region != world.NoID && w.RegionSettlement[region] == world.NoID {
			w.RegionSettlement[region] = i
		}
	}
	slog.Info("regions", "regions", len(d.Cells), "edges", len(d.Edges), "fillers", fillers,
		"elapsed", time.Since(t).Round(time.Millisecond))
	return nil
}

// regionSites lists settlement positions first, so site i is settlement i,
// followed by random filler sites that do not repeat any earlier site.
func regionSites(settlements []world.Settlement, w, h int, seed int64) ([]voronoi.Vec, int) {
	used := make(map[world.Point]bool, len(settlements))
	sites := make([]voronoi.Vec, 0, len(settlements)+w*h/fillerDensity+1)
	for _, s := range settlements {
		used[s.Position] = true
		sites = append(sites, voronoi.Vec{X: float64(s.Position.X), Y: float64(s.Position.Y)})
	}

	rng := world.NewRNG(seed, world.StageVoronoiFill, 0)
	want := max(1, w*h/fillerDensity)
	fillers := 0
	for i := 0; i < want; i++ {
		p := world.Point{X: rng.Intn(w), Y: rng.Intn(h)}
		if used[p] {
			continue
		}
		used[p] = true
		sites = append(sites, voronoi.Vec{X: float64(p.X), Y: float64(p.Y)})
		fillers++
	}
	return sites, fillers
}

func politicsStage(ctx context.Context, r *Run) error {
	t := time.Now()
	stats, err := politics.FormCountries(r.World, r.Seed)
	if err != nil {
		return err
	}
	politics.Aggregate(r.World, r.Seed)
	slog.Info("politics", "countries", len(r.World.Countries), "steps", humanize.Comma(int64(stats.Steps)),
		"truncated", stats.Truncated, "elapsed", time.Since(t).Round(time.Millisecond))
	return nil
}

func beliefStage(ctx context.Context, r *Run) error {
	t := time.Now()
	mode := culture.SelectMode(r.World)
	rel := culture.SpreadReligions(r.World, r.Seed, r.Config.ReligionRadius, mode)
	if err := ctx.Err(); err != nil {
		return err
	}
	cul := culture.SpreadCultures(r.World, r.Seed, mode)
	politics.Aggregate(r.World, r.Seed)
	slog.Info("belief", "mode", mode.String(),
		"religions", len(r.World.Religions), "cultures", len(r.World.Cultures),
		"steps", humanize.Comma(int64(rel.Steps+cul.Steps)), "elapsed", time.Since(t).Round(time.Millisecond))
	return nil
}

func roadStage(ctx context.Context, r *Run) error {
	t := time.Now()
	w := r.World
	w.Roads = roads.PlanRoutes(w.Elevation, w.Settlements, roads.StraightPlanner{}, r.Config.RoadLinks)
	roads.ScoreTrade(w.Settlements, w.Roads)
	politics.Aggregate(w, r.Seed)
	slog.Info("roads", "roads", len(w.Roads), "elapsed", time.Since(t).Round(time.Millisecond))
	return nil
}

func rasterStage(ctx context.Context, r *Run) error {
	t := time.Now()
	if err := r.World.Rasterize(ctx, r.Config.Workers); err != nil {
		return err
	}
	slog.Info("rasters", "cells", humanize.Comma(int64(len(r.World.RegionGrid))),
		"elapsed", time.Since(t).Round(time.Millisecond))
	return nil
}
