// Heightmap synthesis from layered simplex noise.
// Base terrain, a multiplicative variation layer, then a radial falloff that
// pushes the map edges under the sea. The composed field is rank-normalised
// so every seed gets the same sea share and a full elevation range.
package world

import (
	"math"
	"slices"

	"github.com/talgya/mapforge/internal/noise"
)

// Noise parameters for the two heightmap layers.
const (
	baseOctaves       = 8
	basePersistence   = 0.5
	baseScale         = 0.005
	detailOctaves     = 6
	detailPersistence = 0.5
	detailScale       = 0.01

	// Fraction of cells that end up at or below SeaLevel.
	seaShare = 0.45
	// Highest elevation the normalisation emits.
	peakLevel = 254
)

// SynthesizeHeightmap builds the base elevation grid for the configured
// dimensions. It is a pure function of (seed, width, height).
func SynthesizeHeightmap(cfg GenConfig, seed int64) (*HeightGrid, error) {
	g, err := NewHeightGrid(cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}

	baseField := noise.New(seed)
	baseField.Workers = cfg.Workers
	detailField := noise.New(seed + 1)
	detailField.Workers = cfg.Workers

	base := baseField.SampleGrid(g.W, g.H, baseOctaves, basePersistence, baseScale)
	detail := detailField.SampleGrid(g.W, g.H, detailOctaves, detailPersistence, detailScale)

	cx := float64(g.W) / 2
	cy := float64(g.H) / 2
	maxDist := math.Sqrt(cx*cx + cy*cy)

	raw := make([]float64, len(g.Cells))
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			i := g.Index(x, y)
			h := (base.Values[i] + 1) / 2 * 255

			// Variation factor in [0.5, 1.5].
			h *= 0.5 + (detail.Values[i]+1)/2

			dx := float64(x) - cx
			dy := float64(y) - cy
			h *= 1 - math.Sqrt(dx*dx+dy*dy)/(maxDist*1.5)

			raw[i] = h
		}
	}

	normalizeTerrain(raw, g.Cells)
	g.MedianFilter()
	return g, nil
}

// normalizeTerrain maps raw heights onto elevations with a monotone
// piecewise-linear remap. Cells up to the seaShare quantile land in
// [0, SeaLevel]; the rest span (SeaLevel, peakLevel]. Relative ordering is
// preserved, so the falloff still sinks the map edges.
func normalizeTerrain(raw []float64, out []uint8) {
	if len(raw) == 0 {
		return
	}
	sorted := slices.Clone(raw)
	slices.Sort(sorted)
	lo := sorted[0]
	hi := sorted[len(sorted)-1]
	sea := sorted[int(seaShare*float64(len(sorted)-1))]

	for i, v := range raw {
		var h float64
		switch {
		case v <= sea && sea > lo:
			h = (v - lo) / (sea - lo) * SeaLevel
		case v <= sea:
			h = SeaLevel
		case hi > sea:
			h = SeaLevel + 1 + (v-sea)/(hi-sea)*(peakLevel-SeaLevel-1)
		default:
			h = SeaLevel + 1
		}
		out[i] = uint8(clampFloat(h, 0, 255))
	}
}
