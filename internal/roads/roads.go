// Package roads links settlements with decorative routes and derives the
// trade resource from how many routes pass near each settlement.
package roads

import (
	"log/slog"
	"sort"

	"github.com/talgya/mapforge/internal/world"
)

// tradeRadius is how close a route must pass to count for a settlement.
const tradeRadius = 15.0

// Planner finds a route between two grid points. It reports false when no
// route exists.
type Planner interface {
	Plan(elev *world.HeightGrid, from, to world.Point) (world.Polyline, bool)
}

// PlannerFunc adapts a function to Planner.
type PlannerFunc func(elev *world.HeightGrid, from, to world.Point) (world.Polyline, bool)

// Plan calls f.
func (f PlannerFunc) Plan(elev *world.HeightGrid, from, to world.Point) (world.Polyline, bool) {
	return f(elev, from, to)
}

// StraightPlanner draws a straight line and refuses routes that cross water.
type StraightPlanner struct{}

// Plan implements Planner.
func (StraightPlanner) Plan(elev *world.HeightGrid, from, to world.Point) (world.Polyline, bool) {
	line := Line(from, to)
	for _, p := range line {
		if !elev.InBounds(p) || !elev.IsLand(p) {
			return nil, false
		}
	}
	return line, true
}

// Line returns the Bresenham line from a to b, both ends included.
func Line(a, b world.Point) world.Polyline {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy

	line := world.Polyline{a}
	for p := a; p != b; {
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			p.X += sx
		}
		if e2 <= dx {
			err += dx
			p.Y += sy
		}
		line = append(line, p)
	}
	return line
}

// Validate reports whether a planned route is usable: at least two points,
// all on the grid.
func Validate(route world.Polyline, elev *world.HeightGrid) bool {
	if len(route) < 2 {
		return false
	}
	for _, p := range route {
		if !elev.InBounds(p) {
			return false
		}
	}
	return true
}

// PlanRoutes links every settlement to its `links` nearest neighbors. Each
// pair is planned once; routes the planner rejects or that fail validation
// are dropped.
func PlanRoutes(elev *world.HeightGrid, settlements []world.Settlement, planner Planner, links int) []world.Polyline {
	if planner == nil || links <= 0 {
		return nil
	}
	planned := make(map[[2]int]bool)
	var routes []world.Polyline
	dropped := 0

	for i := range settlements {
		for _, j := range nearest(settlements, i, links) {
			key := [2]int{min(i, j), max(i, j)}
			if planned[key] {
				continue
			}
			planned[key] = true

			route, ok := planner.Plan(elev, settlements[key[0]].Position, settlements[key[1]].Position)
			if !ok || !Validate(route, elev) {
				dropped++
				continue
			}
			routes = append(routes, route)
		}
	}
	if dropped > 0 {
		slog.Debug("routes dropped", "routes", dropped)
	}
	return routes
}

func nearest(settlements []world.Settlement, i, k int) []int {
	others := make([]int, 0, len(settlements)-1)
	for j := range settlements {
		if j != i {
			others = append(others, j)
		}
	}
	from := settlements[i].Position
	sort.SliceStable(others, func(a, b int) bool {
		return world.Distance(from, settlements[others[a]].Position) < world.Distance(from, settlements[others[b]].Position)
	})
	return others[:min(k, len(others))]
}

// ScoreTrade rescores every settlement's trade resource from the routes
// passing within tradeRadius: 20 with none, otherwise 30 plus 20 per route,
// capped at 100.
func ScoreTrade(settlements []world.Settlement, routes []world.Polyline) {
	for i := range settlements {
		s := &settlements[i]
		connected := 0
		for _, r := range routes {
			for _, p := range r {
				if world.Distance(p, s.Position) < tradeRadius {
					connected++
					break
				}
			}
		}
		trade := 20
		if connected > 0 {
			trade = min(100, 30+20*connected)
		}
		if s.Resources == nil {
			s.Resources = make(map[world.Resource]int)
		}
		s.Resources[world.ResourceTrade] = trade
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
