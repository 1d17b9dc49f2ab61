// Package noise provides deterministic multi-octave coherent noise.
// Every sampler is a pure function of its seed, so identical seeds
// produce bit-identical grids regardless of how many workers evaluate them.
package noise

import (
	"runtime"

	opensimplex "github.com/ojrac/opensimplex-go"
	"golang.org/x/sync/errgroup"
)

// Field samples 2D coherent noise. The permutation table is built once from
// the seed; sampling never mutates it, so a Field is safe for concurrent use.
type Field struct {
	seed  int64
	noise opensimplex.Noise

	// Workers bounds the goroutines used by SampleGrid (0 = GOMAXPROCS).
	Workers int
}

// New creates a noise field for the given seed.
func New(seed int64) *Field {
	return &Field{
		seed:  seed,
		noise: opensimplex.New(seed),
	}
}

// Seed returns the seed the field was built from.
func (f *Field) Seed() int64 {
	return f.seed
}

// Sample returns continuous noise at (x, y) in [-1, 1].
func (f *Field) Sample(x, y float64) float64 {
	return clampUnit(f.noise.Eval2(x, y))
}

// SampleOctaves sums successive doublings of frequency with amplitude decaying
// by persistence, normalized by the total amplitude. Result is in [-1, 1].
func (f *Field) SampleOctaves(x, y float64, octaves int, persistence, frequency float64) float64 {
	if octaves < 1 {
		octaves = 1
	}
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += f.noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return clampUnit(total / maxVal)
}

// Grid is a dense row-major grid of noise samples.
type Grid struct {
	W, H   int
	Values []float64
}

// At returns the sample at (x, y).
func (g *Grid) At(x, y int) float64 {
	return g.Values[y*g.W+x]
}

// SampleGrid evaluates SampleOctaves for every integer cell of a width×height
// map, with scale as the base frequency. Rows are spread over a bounded pool
// of goroutines; each row writes only its own slice of the output.
func (f *Field) SampleGrid(width, height, octaves int, persistence, scale float64) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	grid := &Grid{W: width, H: height, Values: make([]float64, width*height)}

	var g errgroup.Group
	g.SetLimit(workerCount(f.Workers))
	for y := 0; y < height; y++ {
		row := grid.Values[y*width : (y+1)*width]
		fy := float64(y)
		g.Go(func() error {
			for x := range row {
				row[x] = f.SampleOctaves(float64(x), fy, octaves, persistence, scale)
			}
			return nil
		})
	}
	_ = g.Wait() // rows never fail

	return grid
}

func workerCount(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
