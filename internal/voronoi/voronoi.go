// Package voronoi partitions a rectangle into the Voronoi cells of a set of
// sites and derives the cell adjacency graph.
//
// Cells are built by clipping the bounding rectangle against the perpendicular
// bisector of every other site, nearest first, stopping once no farther site
// can reach the polygon. Two cells are neighbors iff they share an edge, that
// is at least two polygon vertices.
package voronoi

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
)

// Eps is the tolerance for treating two vertices as the same point.
const Eps = 1e-6

// ErrDegenerateCell reports a cell whose polygon has fewer than three vertices.
var ErrDegenerateCell = errors.New("degenerate voronoi cell")

// Vec is a point in the plane.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (a Vec) sub(b Vec) Vec     { return Vec{a.X - b.X, a.Y - b.Y} }
func (a Vec) dot(b Vec) float64 { return a.X*b.X + a.Y*b.Y }

func (a Vec) dist2(b Vec) float64 {
	d := a.sub(b)
	return d.dot(d)
}

func (a Vec) near(b Vec) bool {
	return math.Abs(a.X-b.X) <= Eps && math.Abs(a.Y-b.Y) <= Eps
}

func cross(o, a, b Vec) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func lerp(a, b Vec, t float64) Vec {
	return Vec{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

func mid(a, b Vec) Vec {
	return Vec{(a.X + b.X) / 2, (a.Y + b.Y) / 2}
}

// Cell is one region of the partition.
type Cell struct {
	ID        int     `json:"id"`
	Site      int     `json:"site"` // index into the input site slice
	Origin    Vec     `json:"origin"`
	Polygon   []Vec   `json:"polygon"`
	Area      float64 `json:"area"`
	NormArea  float64 `json:"norm_area"` // sqrt(area) min-max scaled over all cells, in [0,1]
	Neighbors []int   `json:"neighbors"`

	minX, minY, maxX, maxY float64
}

// Edge is a boundary segment shared by two cells.
type Edge struct {
	A     Vec `json:"a"`
	B     Vec `json:"b"`
	Left  int `json:"left"`
	Right int `json:"right"`
}

// Diagram is a clipped Voronoi partition of [0,Width]×[0,Height].
type Diagram struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Cells  []Cell  `json:"cells"`
	Edges  []Edge  `json:"edges"`

	// SiteCell maps every input site to its cell id, or -1 for a site that
	// produced no cell (a duplicate, or a dropped degenerate cell).
	SiteCell []int `json:"-"`
}

// Partition builds the diagram of sites clipped to the rectangle. Duplicate
// sites share the first occurrence's cell. With strict set, a degenerate cell
// is an error; otherwise it is dropped with a warning.
func Partition(width, height float64, sites []Vec, strict bool) (*Diagram, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("voronoi: invalid bounds %gx%g", width, height)
	}
	d := &Diagram{Width: width, Height: height, SiteCell: make([]int, len(sites))}

	unique := make([]int, 0, len(sites))
	firstAt := make(map[Vec]int, len(sites))
	for i, s := range sites {
		if j, ok := firstAt[s]; ok {
			d.SiteCell[i] = -(j + 2) // resolved below
			continue
		}
		firstAt[s] = i
		unique = append(unique, i)
	}

	rect := []Vec{{0, 0}, {width, 0}, {width, height}, {0, height}}
	others := make([]int, 0, len(unique))
	for _, i := range unique {
		site := sites[i]
		others = others[:0]
		for _, j := range unique {
			if j != i {
				others = append(others, j)
			}
		}
		sort.Slice(others, func(a, b int) bool {
			da, db := site.dist2(sites[others[a]]), site.dist2(sites[others[b]])
			if da != db {
				return da < db
			}
			return others[a] < others[b]
		})

		poly := rect
		for _, j := range others {
			other := sites[j]
			if site.dist2(other)/4 > maxDist2(site, poly) {
				break
			}
			poly = clip(poly, site, other)
		}
		poly = dedupe(poly)

		if len(poly) < 3 {
			err := fmt.Errorf("site %d at (%g,%g): %d vertices: %w", i, site.X, site.Y, len(poly), ErrDegenerateCell)
			if strict {
				return nil, err
			}
			slog.Warn("voronoi cell dropped", "err", err)
			d.SiteCell[i] = -1
			continue
		}

		c := Cell{ID: len(d.Cells), Site: i, Origin: site, Polygon: poly, Area: area(poly)}
		c.bounds()
		d.SiteCell[i] = c.ID
		d.Cells = append(d.Cells, c)
	}

	for i, v := range d.SiteCell {
		if v < -1 {
			d.SiteCell[i] = d.SiteCell[-v-2]
		}
	}

	d.normalizeAreas()
	d.link()
	return d, nil
}

// clip keeps the part of the convex polygon closer to site than to other.
func clip(poly []Vec, site, other Vec) []Vec {
	m := mid(site, other)
	n := other.sub(site)
	side := func(p Vec) float64 { return p.sub(m).dot(n) }

	out := make([]Vec, 0, len(poly)+1)
	for k := range poly {
		a := poly[k]
		b := poly[(k+1)%len(poly)]
		sa, sb := side(a), side(b)
		if sa <= 0 {
			out = append(out, a)
		}
		if (sa < 0 && sb > 0) || (sa > 0 && sb < 0) {
			out = append(out, lerp(a, b, sa/(sa-sb)))
		}
	}
	return out
}

func dedupe(poly []Vec) []Vec {
	out := make([]Vec, 0, len(poly))
	for _, p := range poly {
		if len(out) > 0 && out[len(out)-1].near(p) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0].near(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

func maxDist2(site Vec, poly []Vec) float64 {
	m := 0.0
	for _, p := range poly {
		m = math.Max(m, site.dist2(p))
	}
	return m
}

// area returns the absolute shoelace area.
func area(poly []Vec) float64 {
	s := 0.0
	for k := range poly {
		a := poly[k]
		b := poly[(k+1)%len(poly)]
		s += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(s) / 2
}

func (c *Cell) bounds() {
	c.minX, c.minY = math.Inf(1), math.Inf(1)
	c.maxX, c.maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range c.Polygon {
		c.minX = math.Min(c.minX, p.X)
		c.minY = math.Min(c.minY, p.Y)
		c.maxX = math.Max(c.maxX, p.X)
		c.maxY = math.Max(c.maxY, p.Y)
	}
}

func (d *Diagram) normalizeAreas() {
	if len(d.Cells) == 0 {
		return
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range d.Cells {
		r := math.Sqrt(c.Area)
		lo = math.Min(lo, r)
		hi = math.Max(hi, r)
	}
	for i := range d.Cells {
		if hi > lo {
			d.Cells[i].NormArea = (math.Sqrt(d.Cells[i].Area) - lo) / (hi - lo)
		} else {
			d.Cells[i].NormArea = 0
		}
	}
}

// link fills Neighbors and Edges from pairwise shared vertices.
func (d *Diagram) link() {
	for i := range d.Cells {
		a := &d.Cells[i]
		for j := i + 1; j < len(d.Cells); j++ {
			b := &d.Cells[j]
			if a.maxX+Eps < b.minX || b.maxX+Eps < a.minX || a.maxY+Eps < b.minY || b.maxY+Eps < a.minY {
				continue
			}
			shared := sharedVertices(a.Polygon, b.Polygon)
			if len(shared) < 2 {
				continue
			}
			a.Neighbors = append(a.Neighbors, j)
			b.Neighbors = append(b.Neighbors, i)
			p, q := farthestPair(shared)
			d.Edges = append(d.Edges, Edge{A: p, B: q, Left: i, Right: j})
		}
	}
}

func sharedVertices(a, b []Vec) []Vec {
	var out []Vec
	for _, p := range a {
		for _, q := range b {
			if p.near(q) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func farthestPair(pts []Vec) (Vec, Vec) {
	p, q := pts[0], pts[1]
	best := p.dist2(q)
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if d := pts[i].dist2(pts[j]); d > best {
				p, q, best = pts[i], pts[j], d
			}
		}
	}
	return p, q
}

// Contains reports whether p lies inside cell id or on its boundary.
func (d *Diagram) Contains(id int, p Vec) bool {
	poly := d.Cells[id].Polygon
	pos, neg := false, false
	for k := range poly {
		c := cross(poly[k], poly[(k+1)%len(poly)], p)
		if c > Eps {
			pos = true
		} else if c < -Eps {
			neg = true
		}
		if pos && neg {
			return false
		}
	}
	return true
}

// Nearest returns the cell whose origin is closest to p (lowest id on ties),
// or -1 for an empty diagram.
func (d *Diagram) Nearest(p Vec) int {
	best := -1
	bestD := math.Inf(1)
	for i, c := range d.Cells {
		if dd := c.Origin.dist2(p); dd < bestD {
			best, bestD = i, dd
		}
	}
	return best
}

// Locate returns the cell containing p. Points outside every polygon (off the
// rectangle, or in a dropped cell) resolve to the nearest origin.
func (d *Diagram) Locate(p Vec) int {
	n := d.Nearest(p)
	if n < 0 || d.Contains(n, p) {
		return n
	}
	for i := range d.Cells {
		if d.Contains(i, p) {
			return i
		}
	}
	return n
}

// Adjacency returns the neighbor lists indexed by cell id.
func (d *Diagram) Adjacency() [][]int {
	adj := make([][]int, len(d.Cells))
	for i, c := range d.Cells {
		adj[i] = c.Neighbors
	}
	return adj
}
