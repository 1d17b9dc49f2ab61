// Package culture spreads religions over the settlement graph and cultures
// over the region graph. Both reuse the bounded-decay propagation from
// package spread; unlike countries, several beliefs and traditions may reach
// the same node and the strongest wins only at the end.
package culture

import (
	"math"
	"sort"

	"github.com/talgya/mapforge/internal/spread"
	"github.com/talgya/mapforge/internal/world"
)

// Mode selects how cradles are chosen.
type Mode uint8

const (
	// ModeFull seeds religions at political capitals and mixes cultures along
	// country borders.
	ModeFull Mode = iota
	// ModeFallback seeds religions at the most populous settlements and skips
	// border mixing. Used when no countries were formed.
	ModeFallback
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeFull {
		return "full"
	}
	return "fallback"
}

// SelectMode picks the mode once from what earlier stages produced.
func SelectMode(w *world.World) Mode {
	if len(w.Countries) > 0 && w.RegionCount() > 0 && len(w.RegionCountry) == w.RegionCount() {
		return ModeFull
	}
	return ModeFallback
}

// Religion propagation tuning.
const (
	religionNeighbors  = 5
	religionStrength   = 100.0
	religionDecay      = 0.9
	theocraticBoost    = 1.5
	religionFloor      = 10.0
	minReligionCradles = 3
	maxReligionCradles = 8
)

// Culture propagation tuning.
const (
	cultureDecay      = 0.85
	cultureFloor      = 1.0
	cultureMixChance  = 0.2
	minCultureCradles = 3
	maxCultureCradles = 8
)

// SettlementGraph links every settlement to at most k nearest others within
// radius. Links are symmetric: a pair is connected if either side selected
// the other.
func SettlementGraph(settlements []world.Settlement, k int, radius float64) spread.Adjacency {
	n := len(settlements)
	linked := make([]map[int]bool, n)
	for i := range linked {
		linked[i] = make(map[int]bool)
	}

	type cand struct {
		id int
		d  float64
	}
	for i := range settlements {
		var near []cand
		for j := range settlements {
			if i == j {
				continue
			}
			d := world.Distance(settlements[i].Position, settlements[j].Position)
			if d <= radius {
				near = append(near, cand{j, d})
			}
		}
		sort.Slice(near, func(a, b int) bool {
			if near[a].d != near[b].d {
				return near[a].d < near[b].d
			}
			return near[a].id < near[b].id
		})
		for _, c := range near[:min(k, len(near))] {
			linked[i][c.id] = true
			linked[c.id][i] = true
		}
	}

	g := make(spread.Adjacency, n)
	for i, set := range linked {
		for j := range set {
			g[i] = append(g[i], j)
		}
		sort.Ints(g[i])
	}
	return g
}

// positionSeed mixes the world seed with a grid position.
func positionSeed(seed int64, p world.Point) int64 {
	return seed ^ int64(p.X)*73856093 ^ int64(p.Y)*19349663
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func nearestOf(from world.Point, candidates []world.Point) int {
	best, bestD := -1, math.Inf(1)
	for i, c := range candidates {
		if d := world.Distance(from, c); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}
