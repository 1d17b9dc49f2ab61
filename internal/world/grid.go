// Package world provides the generated world's data model and the terrain
// stages that build it: heightmap, erosion, rivers, climate and settlements.
// Entities reference each other by integer id into the World's arenas.
package world

import "math"

// SeaLevel separates water (<= SeaLevel) from land.
const SeaLevel = 127

// NoID marks an absent country, religion, culture or region reference.
const NoID = -1

// Point is an integer grid coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Directions8 lists the eight neighbor offsets in fixed enumeration order.
// Every "pick the lowest neighbor" decision breaks ties by this order.
var Directions8 = [8]Point{
	{X: -1, Y: -1},
	{X: 0, Y: -1},
	{X: 1, Y: -1},
	{X: -1, Y: 0},
	{X: 1, Y: 0},
	{X: -1, Y: 1},
	{X: 0, Y: 1},
	{X: 1, Y: 1},
}

// Directions4 lists the orthogonal neighbor offsets.
var Directions4 = [4]Point{
	{X: -1, Y: 0},
	{X: 1, Y: 0},
	{X: 0, Y: -1},
	{X: 0, Y: 1},
}

// Add returns p offset by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Neighbors returns the eight surrounding coordinates (possibly out of bounds).
func (p Point) Neighbors() [8]Point {
	var result [8]Point
	for i, d := range Directions8 {
		result[i] = p.Add(d)
	}
	return result
}

// Manhattan returns the L1 distance between two points.
func Manhattan(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Polyline is an ordered list of grid points (roads, river paths).
type Polyline []Point

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
