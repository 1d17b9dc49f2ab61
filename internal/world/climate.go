package world

import (
	"fmt"
	"runtime"

	"github.com/aquilax/go-perlin"
	"golang.org/x/sync/errgroup"
)

// Climate noise parameters.
const (
	climateAlpha    = 2.0
	climateBeta     = 2.0
	climateOctaves  = 3
	climateScale    = 0.01
	climateLatitude = 0.4 // share of the climate value driven by latitude
)

// GenerateClimate builds the climate grid (0 cold/wet .. 255 hot/dry) from an
// independent Perlin field blended with latitude. Generation never reads it
// back into terrain; it only feeds biomes and settlement resources.
func GenerateClimate(w, h int, seed int64, workers int) (*HeightGrid, error) {
	g, err := NewHeightGrid(w, h)
	if err != nil {
		return nil, err
	}
	p := perlin.NewPerlin(climateAlpha, climateBeta, climateOctaves, seed+2)
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	half := float64(h) / 2
	var eg errgroup.Group
	eg.SetLimit(workers)
	for y := 0; y < h; y++ {
		eg.Go(func() error {
			lat := 1.0
			if half > 0 {
				lat = 1 - abs64(float64(y)-half)/half
			}
			for x := 0; x < w; x++ {
				n := p.Noise2D(float64(x)*climateScale, float64(y)*climateScale)
				v := (1-climateLatitude)*clampFloat((n+1)/2, 0, 1) + climateLatitude*lat
				g.Cells[y*w+x] = uint8(clampFloat(v*255, 0, 255))
			}
			return nil
		})
	}
	_ = eg.Wait()
	return g, nil
}

// Biome is a terrain classification derived from elevation and climate.
type Biome uint8

const (
	BiomeWater Biome = iota
	BiomeBeach
	BiomeJungle
	BiomeSwamp
	BiomePlain
	BiomeForest
	BiomeDesert
	BiomeHills
	BiomeMountain
)

// String returns the biome name.
func (b Biome) String() string {
	switch b {
	case BiomeWater:
		return "water"
	case BiomeBeach:
		return "beach"
	case BiomeJungle:
		return "jungle"
	case BiomeSwamp:
		return "swamp"
	case BiomePlain:
		return "plain"
	case BiomeForest:
		return "forest"
	case BiomeDesert:
		return "desert"
	case BiomeHills:
		return "hills"
	case BiomeMountain:
		return "mountain"
	default:
		return "unknown"
	}
}

// Theme returns the deity theme of religions born in this biome.
func (b Biome) Theme() string {
	switch b {
	case BiomeWater:
		return "the Primordial Ocean"
	case BiomeBeach:
		return "the Shore"
	case BiomeJungle:
		return "the Jungle"
	case BiomeSwamp:
		return "the Marsh"
	case BiomePlain:
		return "the Prairie"
	case BiomeForest:
		return "the Sacred Forest"
	case BiomeDesert:
		return "the Desert"
	case BiomeHills:
		return "the Hills"
	case BiomeMountain:
		return "the Mountains"
	default:
		return "the Earth"
	}
}

// BiomeAt classifies a single cell. Checks run in a fixed order, so earlier
// bands shadow later overlapping ones.
func BiomeAt(altitude, climate uint8) Biome {
	a, c := int(altitude), int(climate)
	switch {
	case a <= SeaLevel:
		return BiomeWater
	case a <= 135:
		return BiomeBeach
	case a <= 180 && c >= 170:
		return BiomeJungle
	case a <= 140 && c >= 120:
		return BiomeSwamp
	case a <= 160:
		switch {
		case c >= 200:
			return BiomeDesert
		case c >= 120:
			return BiomeForest
		default:
			return BiomePlain
		}
	case a <= 180:
		if c >= 200 {
			return BiomeDesert
		}
		return BiomeHills
	default:
		return BiomeMountain
	}
}

// ClassifyBiomes maps every cell of the elevation and climate grids to a biome.
func ClassifyBiomes(elev, climate *HeightGrid) ([]Biome, error) {
	if elev.W != climate.W || elev.H != climate.H {
		return nil, fmt.Errorf("%w: climate %dx%d does not match elevation %dx%d",
			ErrInvalidDimensions, climate.W, climate.H, elev.W, elev.H)
	}
	out := make([]Biome, len(elev.Cells))
	for i := range out {
		out[i] = BiomeAt(elev.Cells[i], climate.Cells[i])
	}
	return out, nil
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
