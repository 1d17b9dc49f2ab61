// Settlement placement: score every land cell for suitability, then draw
// non-overlapping sites with score-weighted sampling.
package world

import (
	"context"
	"log/slog"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Site scoring bands.
const (
	siteMaxAltitude = 180
	siteBaseScore   = 50.0
	coastSearch     = 20
	varianceRadius  = 3 // 7×7 window
	confluenceRange = 5 // 11×11 window
	confluenceMin   = 8
)

// SiteScores holds the suitability score of every cell; 0 marks a cell that
// can never host a settlement.
type SiteScores struct {
	W, H   int
	Values []float64
}

// At returns the score at p.
func (s *SiteScores) At(p Point) float64 {
	return s.Values[p.Y*s.W+p.X]
}

// ScoreSettlementSites computes the suitability of every land cell with
// elevation in (SeaLevel, 180]. Rows are scored concurrently; each row owns
// its RNG stream, so the result does not depend on scheduling.
func ScoreSettlementSites(ctx context.Context, elev *HeightGrid, rivers []River, seed int64, workers int) (*SiteScores, error) {
	w, h := elev.W, elev.H
	river := RiverMask(w, h, rivers)
	riverDist := distanceField(w, h, river, -1)
	water := make([]bool, len(elev.Cells))
	for i, v := range elev.Cells {
		water[i] = v <= SeaLevel
	}
	coastDist := distanceField(w, h, water, coastSearch)
	riverSum := prefixSums(w, h, river)

	scores := &SiteScores{W: w, H: h, Values: make([]float64, w*h)}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for y := 0; y < h; y++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := NewRNG(seed, StageSettlementScore, uint64(y))
			for x := 0; x < w; x++ {
				i := y*w + x
				alt := int(elev.Cells[i])
				if alt <= SeaLevel || alt > siteMaxAltitude {
					continue
				}
				s := siteBaseScore
				s += altitudeBonus(alt)
				s += riverBonus(riverDist[i])
				s += coastBonus(coastDist[i])
				s -= varianceMalus(elev, x, y)
				if windowSum(riverSum, w, h, x, y, confluenceRange) > confluenceMin {
					s += 50
				}
				s *= 0.7 + 0.6*rng.Float64()
				if rng.Float64() < 0.05 {
					s += 20 + 40*rng.Float64()
				}
				scores.Values[i] = max(0, s)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

func altitudeBonus(alt int) float64 {
	switch {
	case alt >= 130 && alt <= 160:
		return 40
	case alt > 160 && alt <= 170:
		return 20
	case alt > 170:
		return -float64(alt-160) * 0.3
	}
	return 0
}

func riverBonus(d int) float64 {
	switch {
	case d < 0:
		return 0
	case d <= 2:
		return 80
	case d <= 5:
		return 50
	case d <= 10:
		return 25
	case d <= 20:
		return 10
	}
	return 0
}

// coastBonus scores Manhattan distance to the nearest water cell. Distances
// beyond the search radius count as the radius itself.
func coastBonus(d int) float64 {
	if d < 0 || d > coastSearch {
		d = coastSearch
	}
	switch {
	case d <= 3:
		return 60
	case d <= 10:
		return 30
	}
	return 10
}

func varianceMalus(elev *HeightGrid, x, y int) float64 {
	lo, hi := uint8(255), uint8(0)
	for yy := max(0, y-varianceRadius); yy <= min(elev.H-1, y+varianceRadius); yy++ {
		for xx := max(0, x-varianceRadius); xx <= min(elev.W-1, x+varianceRadius); xx++ {
			v := elev.Cells[yy*elev.W+xx]
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	switch spread := int(hi) - int(lo); {
	case spread > 30:
		return 30
	case spread > 15:
		return 15
	}
	return 0
}

// distanceField returns the Manhattan distance from every cell to the nearest
// source cell, or -1 when no source is reachable within limit (limit < 0
// means unbounded).
func distanceField(w, h int, source []bool, limit int) []int {
	dist := make([]int, w*h)
	queue := make([]int, 0, w*h)
	for i := range dist {
		if source[i] {
			queue = append(queue, i)
		} else {
			dist[i] = -1
		}
	}
	for head := 0; head < len(queue); head++ {
		i := queue[head]
		if limit >= 0 && dist[i] >= limit {
			continue
		}
		x, y := i%w, i/w
		for _, d := range Directions4 {
			nx, ny := x+d.X, y+d.Y
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			j := ny*w + nx
			if dist[j] >= 0 {
				continue
			}
			dist[j] = dist[i] + 1
			queue = append(queue, j)
		}
	}
	return dist
}

// prefixSums builds a summed-area table of mask with one row/column of padding.
func prefixSums(w, h int, mask []bool) []int {
	sum := make([]int, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 0
			if mask[y*w+x] {
				v = 1
			}
			sum[(y+1)*(w+1)+x+1] = v + sum[y*(w+1)+x+1] + sum[(y+1)*(w+1)+x] - sum[y*(w+1)+x]
		}
	}
	return sum
}

// windowSum counts mask cells in the square of radius r around (x, y),
// clipped to the grid.
func windowSum(sum []int, w, h, x, y, r int) int {
	x0, y0 := max(0, x-r), max(0, y-r)
	x1, y1 := min(w, x+r+1), min(h, y+r+1)
	stride := w + 1
	return sum[y1*stride+x1] - sum[y0*stride+x1] - sum[y1*stride+x0] + sum[y0*stride+x0]
}

// MinSettlementDistance returns the minimum spacing between settlements.
func MinSettlementDistance(w, h int) int {
	return max(1, max(w, h)/20)
}

// PlaceSettlements draws up to target sites from the scored candidates.
// Each draw is weighted by score^1.5; a draw closer than the minimum spacing
// to an accepted site is discarded. Acceptance removes every candidate within
// that spacing (Manhattan). The loop is sequential: every acceptance changes
// the pool.
func PlaceSettlements(scores *SiteScores, target int, seed int64) []Settlement {
	type candidate struct {
		p      Point
		weight float64
	}
	var pool []candidate
	for i, s := range scores.Values {
		if s > 0 {
			pool = append(pool, candidate{
				p:      Point{X: i % scores.W, Y: i / scores.W},
				weight: math.Pow(s, 1.5),
			})
		}
	}

	rng := NewRNG(seed, StageSettlementPick, 0)
	minDist := MinSettlementDistance(scores.W, scores.H)
	var placed []Settlement

	for attempts := 0; len(placed) < target && attempts < target*20 && len(pool) > 0; attempts++ {
		total := 0.0
		for _, c := range pool {
			total += c.weight
		}
		if total <= 0 {
			break
		}

		r := rng.Float64() * total
		pick := len(pool) - 1
		cum := 0.0
		for i, c := range pool {
			cum += c.weight
			if cum >= r {
				pick = i
				break
			}
		}
		pos := pool[pick].p

		tooClose := false
		for _, s := range placed {
			if Distance(s.Position, pos) < float64(minDist) {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}

		placed = append(placed, Settlement{
			ID:       len(placed),
			Position: pos,
			Seed:     rng.Int63n(1 << 31),
			Score:    scores.At(pos),
			Country:  NoID,
			Religion: NoID,
			Culture:  NoID,
			Region:   NoID,
		})

		kept := pool[:0]
		for _, c := range pool {
			if Manhattan(c.p, pos) >= minDist {
				kept = append(kept, c)
			}
		}
		pool = kept
	}

	if len(placed) < target {
		slog.Debug("settlement pool exhausted", "placed", len(placed), "target", target)
	}
	return placed
}
