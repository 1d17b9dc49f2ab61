package world

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidDimensions is returned for a non-positive width or height.
	ErrInvalidDimensions = errors.New("invalid map dimensions")
	// ErrOutOfBounds is returned when a position falls outside the grid.
	ErrOutOfBounds = errors.New("position out of bounds")
)

// HeightGrid is a dense W×H grid of 8-bit values in row-major order.
// It stores elevation (0..255, SeaLevel = 127) and, reused, the climate grid.
type HeightGrid struct {
	W     int     `json:"width"`
	H     int     `json:"height"`
	Cells []uint8 `json:"cells"`
}

// NewHeightGrid allocates a zeroed grid.
func NewHeightGrid(w, h int) (*HeightGrid, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, w, h)
	}
	return &HeightGrid{W: w, H: h, Cells: make([]uint8, w*h)}, nil
}

// Index returns the linear index of (x, y).
func (g *HeightGrid) Index(x, y int) int { return y*g.W + x }

// InBounds reports whether p lies on the grid.
func (g *HeightGrid) InBounds(p Point) bool {
	return p.X >= 0 && p.X < g.W && p.Y >= 0 && p.Y < g.H
}

// At returns the value at p. p must be in bounds.
func (g *HeightGrid) At(p Point) uint8 {
	return g.Cells[p.Y*g.W+p.X]
}

// Set stores v at p. p must be in bounds.
func (g *HeightGrid) Set(p Point, v uint8) {
	g.Cells[p.Y*g.W+p.X] = v
}

// IsLand reports whether the cell at p is above sea level.
func (g *HeightGrid) IsLand(p Point) bool {
	return g.At(p) > SeaLevel
}

// Clone returns a deep copy.
func (g *HeightGrid) Clone() *HeightGrid {
	return &HeightGrid{W: g.W, H: g.H, Cells: slices.Clone(g.Cells)}
}

// Mean returns the average cell value.
func (g *HeightGrid) Mean() float64 {
	if len(g.Cells) == 0 {
		return 0
	}
	sum := 0
	for _, v := range g.Cells {
		sum += int(v)
	}
	return float64(sum) / float64(len(g.Cells))
}

// LandFraction returns the share of cells above sea level.
func (g *HeightGrid) LandFraction() float64 {
	if len(g.Cells) == 0 {
		return 0
	}
	land := 0
	for _, v := range g.Cells {
		if v > SeaLevel {
			land++
		}
	}
	return float64(land) / float64(len(g.Cells))
}

// String returns a summary of the grid.
func (g *HeightGrid) String() string {
	return fmt.Sprintf("HeightGrid(%dx%d, mean=%.1f)", g.W, g.H, g.Mean())
}

// MedianFilter replaces every cell with the median of its 3×3 neighborhood.
// Out-of-range neighbors repeat the nearest edge cell.
func (g *HeightGrid) MedianFilter() {
	src := slices.Clone(g.Cells)
	var window [9]uint8
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				yy := clampInt(y+dy, 0, g.H-1)
				for dx := -1; dx <= 1; dx++ {
					xx := clampInt(x+dx, 0, g.W-1)
					window[n] = src[yy*g.W+xx]
					n++
				}
			}
			slices.Sort(window[:])
			g.Cells[y*g.W+x] = window[4]
		}
	}
}
