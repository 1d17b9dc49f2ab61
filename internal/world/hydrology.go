package world

import (
	"log/slog"
	"math"
	"math/rand"
	"sort"
)

// Termination records why a river trace stopped.
type Termination uint8

const (
	EndSea        Termination = iota // reached a cell at or below sea level
	EndMerge                         // joined a previously committed river
	EndNoNeighbor                    // every in-bounds neighbor already visited
	EndStuck                         // elevation stopped decreasing
	EndBudget                        // iteration budget exhausted
)

// String returns the termination name.
func (t Termination) String() string {
	switch t {
	case EndSea:
		return "sea"
	case EndMerge:
		return "merge"
	case EndNoNeighbor:
		return "no_neighbor"
	case EndStuck:
		return "stuck"
	case EndBudget:
		return "budget"
	default:
		return "unknown"
	}
}

// Reached reports whether the trace ended at the sea or in another river.
func (t Termination) Reached() bool {
	return t == EndSea || t == EndMerge
}

// River is a committed river path.
type River struct {
	Path Polyline    `json:"path"`
	End  Termination `json:"end"`
}

const (
	riverSourceMin      = 200 // preferred minimum source elevation
	riverSourceAttempts = 50
	riverStuckLimit     = 10
	riverMaxSteps       = 200
)

// RiverCount returns how many river traces a map of this size attempts.
func RiverCount(w, h int) int {
	return 1 + int(math.Round(float64(w+h)/2/100))
}

// TraceRivers traces RiverCount descending rivers over elev, carving their
// channels in place. Each trace draws from its own RNG stream. A trace that
// ends anywhere other than the sea or an existing river, or that is shorter
// than two cells, is dropped and its carving reverted.
func TraceRivers(elev *HeightGrid, seed int64, width int) []River {
	count := RiverCount(elev.W, elev.H)
	onRiver := make([]bool, len(elev.Cells))
	var rivers []River

	for i := 0; i < count; i++ {
		rng := NewRNG(seed, StageRivers, uint64(i))
		start := pickRiverSource(elev, rng)
		if !elev.IsLand(start) {
			slog.Debug("river dropped", "river", i, "reason", "no land source")
			continue
		}

		path, end, undo := traceRiver(elev, start, onRiver, rng)
		if len(path) < 2 || !end.Reached() {
			undo()
			slog.Debug("river dropped", "river", i, "length", len(path), "end", end.String())
			continue
		}

		for _, p := range path {
			onRiver[elev.Index(p.X, p.Y)] = true
		}
		CarveChannel(elev, path, width)
		rivers = append(rivers, River{Path: path, End: end})
	}
	return rivers
}

// pickRiverSource rejection-samples a high cell, falling back to the highest
// cell seen when no attempt clears the threshold.
func pickRiverSource(elev *HeightGrid, rng *rand.Rand) Point {
	var best Point
	bestH := -1
	for a := 0; a < riverSourceAttempts; a++ {
		p := Point{X: rng.Intn(elev.W), Y: rng.Intn(elev.H)}
		h := int(elev.At(p))
		if h >= riverSourceMin {
			return p
		}
		if h > bestH {
			best, bestH = p, h
		}
	}
	return best
}

type riverStep struct {
	p Point
	h uint8
}

// traceRiver walks downhill from start. The returned undo func restores any
// cells the trace carved.
func traceRiver(elev *HeightGrid, start Point, onRiver []bool, rng *rand.Rand) (Polyline, Termination, func()) {
	type carve struct {
		idx int
		old uint8
	}
	var carved []carve
	undo := func() {
		for i := len(carved) - 1; i >= 0; i-- {
			elev.Cells[carved[i].idx] = carved[i].old
		}
	}

	path := Polyline{start}
	visited := map[Point]bool{start: true}
	current := start
	lastH := elev.At(start)
	stuck := 0
	budget := min(riverMaxSteps, (elev.W+elev.H)/2)
	var steps []riverStep

	for iter := 0; iter < budget; iter++ {
		curH := elev.At(current)
		if curH <= SeaLevel {
			return path, EndSea, undo
		}
		if current != start && onRiver[elev.Index(current.X, current.Y)] {
			return path, EndMerge, undo
		}

		steps = steps[:0]
		for _, d := range Directions8 {
			n := current.Add(d)
			if !elev.InBounds(n) || visited[n] {
				continue
			}
			steps = append(steps, riverStep{p: n, h: elev.At(n)})
		}
		if len(steps) == 0 {
			return path, EndNoNeighbor, undo
		}

		if curH >= lastH {
			stuck++
			if stuck > riverStuckLimit {
				return path, EndStuck, undo
			}
		} else {
			stuck = 0
		}
		lastH = curH

		sort.SliceStable(steps, func(a, b int) bool { return steps[a].h < steps[b].h })
		next := steps[0]
		if rng.Float64() >= 0.85 && len(steps) > 1 {
			next = steps[rng.Intn(2)]
		}

		if next.h > curH {
			idx := elev.Index(next.p.X, next.p.Y)
			carved = append(carved, carve{idx: idx, old: next.h})
			elev.Cells[idx] = uint8(max(SeaLevel+1, int(curH)-1))
		}

		current = next.p
		visited[current] = true
		path = append(path, current)
	}

	// The final step may have landed on the sea or another river.
	if elev.At(current) <= SeaLevel {
		return path, EndSea, undo
	}
	if onRiver[elev.Index(current.X, current.Y)] {
		return path, EndMerge, undo
	}
	return path, EndBudget, undo
}

// CarveChannel widens a river bed: every land cell within Manhattan distance
// width/2 of a path cell is lowered by 3, 2 or 1 (centerline outward), never
// below SeaLevel+1.
func CarveChannel(elev *HeightGrid, path Polyline, width int) {
	radius := width / 2
	for _, c := range path {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				dist := abs(dx) + abs(dy)
				if dist > radius {
					continue
				}
				p := Point{X: c.X + dx, Y: c.Y + dy}
				if !elev.InBounds(p) || !elev.IsLand(p) {
					continue
				}
				depth := 1
				switch dist {
				case 0:
					depth = 3
				case 1:
					depth = 2
				}
				elev.Set(p, uint8(max(SeaLevel+1, int(elev.At(p))-depth)))
			}
		}
	}
}

// RiverMask returns a per-cell flag for every committed river cell.
func RiverMask(w, h int, rivers []River) []bool {
	mask := make([]bool, w*h)
	for _, r := range rivers {
		for _, p := range r.Path {
			if p.X >= 0 && p.X < w && p.Y >= 0 && p.Y < h {
				mask[p.Y*w+p.X] = true
			}
		}
	}
	return mask
}
