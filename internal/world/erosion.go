package world

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// erosionState is the transient water and sediment load of one erosion run.
type erosionState struct {
	w, h     int
	terrain  []float64
	water    []float64
	sediment []float64

	// Per-iteration flow decisions, computed from a consistent snapshot.
	target []int32
	flow   []float64
}

// Erode runs the hydraulic erosion automaton for passes iterations, mutating
// elevation in place. Each iteration selects every cell's flow edge from the
// state before the iteration, then applies the moves in row-major order.
// Ties between equally low neighbors go to the first in Directions8 order.
func Erode(ctx context.Context, elev *HeightGrid, passes int, p ErosionParams, workers int) error {
	if passes <= 0 {
		return nil
	}
	n := len(elev.Cells)
	s := &erosionState{
		w:        elev.W,
		h:        elev.H,
		terrain:  make([]float64, n),
		water:    make([]float64, n),
		sediment: make([]float64, n),
		target:   make([]int32, n),
		flow:     make([]float64, n),
	}
	for i, v := range elev.Cells {
		s.terrain[i] = float64(v)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	for iter := 0; iter < passes; iter++ {
		for i := range s.water {
			s.water[i] += p.Rain
		}
		if err := s.selectFlows(ctx, p, workers); err != nil {
			return err
		}
		s.applyFlows(p)
		s.deposit(p)
		for i := range s.water {
			s.water[i] *= 1 - p.Evaporation
		}
	}

	for i, v := range s.terrain {
		elev.Cells[i] = uint8(clampFloat(v, 0, 255))
	}
	elev.MedianFilter()
	return nil
}

// selectFlows records, for every wet cell, its lowest strictly-lower neighbor
// by terrain+water and how much water moves there. Reads only; rows run
// concurrently.
func (s *erosionState) selectFlows(ctx context.Context, p ErosionParams, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	wet := float64(p.WetThreshold)

	for y := 0; y < s.h; y++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for x := 0; x < s.w; x++ {
				i := y*s.w + x
				s.target[i] = -1
				s.flow[i] = 0
				if s.terrain[i] < wet {
					continue
				}
				own := s.terrain[i] + s.water[i]
				best := own
				bestIdx := -1
				for _, d := range Directions8 {
					nx, ny := x+d.X, y+d.Y
					if nx < 0 || nx >= s.w || ny < 0 || ny >= s.h {
						continue
					}
					j := ny*s.w + nx
					if t := s.terrain[j] + s.water[j]; t < best {
						best = t
						bestIdx = j
					}
				}
				if bestIdx < 0 {
					continue
				}
				s.target[i] = int32(bestIdx)
				s.flow[i] = min(s.water[i], (own-best)/2)
			}
			return nil
		})
	}
	return g.Wait()
}

// applyFlows moves water along the selected edges and erodes the source cell
// into its sediment load.
func (s *erosionState) applyFlows(p ErosionParams) {
	for i, t := range s.target {
		if t < 0 {
			continue
		}
		f := min(s.flow[i], s.water[i])
		if f <= 0 {
			continue
		}
		s.water[i] -= f
		s.water[t] += f

		eroded := min(s.terrain[i], f*p.ErosionRate)
		s.terrain[i] -= eroded
		s.sediment[i] += eroded
	}
}

// deposit drops sediment exceeding the water's carrying capacity back onto
// the terrain.
func (s *erosionState) deposit(p ErosionParams) {
	for i := range s.sediment {
		limit := s.water[i] * p.Capacity
		if s.sediment[i] <= limit {
			continue
		}
		d := (s.sediment[i] - limit) * p.Deposition
		s.sediment[i] -= d
		s.terrain[i] = clampFloat(s.terrain[i]+d, 0, 255)
	}
}
