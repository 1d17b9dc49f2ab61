package roads

import (
	"testing"

	"github.com/talgya/mapforge/internal/world"
)

func landGrid(t *testing.T, w, h int) *world.HeightGrid {
	t.Helper()
	g, err := world.NewHeightGrid(w, h)
	if err != nil {
		t.Fatal(err)
	}
	for i := range g.Cells {
		g.Cells[i] = 150
	}
	return g
}

func TestLineEndpointsAndContinuity(t *testing.T) {
	a, b := world.Point{X: 2, Y: 3}, world.Point{X: 17, Y: -4}
	line := Line(a, b)
	if line[0] != a || line[len(line)-1] != b {
		t.Fatalf("expected line from %v to %v, got %v..%v", a, b, line[0], line[len(line)-1])
	}
	for i := 1; i < len(line); i++ {
		dx := abs(line[i].X - line[i-1].X)
		dy := abs(line[i].Y - line[i-1].Y)
		if dx > 1 || dy > 1 {
			t.Fatalf("gap between %v and %v", line[i-1], line[i])
		}
	}
}

func TestStraightPlannerRefusesWater(t *testing.T) {
	g := landGrid(t, 20, 20)
	for y := 0; y < 20; y++ {
		g.Set(world.Point{X: 10, Y: y}, 100)
	}
	if _, ok := (StraightPlanner{}).Plan(g, world.Point{X: 2, Y: 5}, world.Point{X: 18, Y: 5}); ok {
		t.Fatal("expected route across water to be refused")
	}
	if _, ok := (StraightPlanner{}).Plan(g, world.Point{X: 2, Y: 5}, world.Point{X: 8, Y: 15}); !ok {
		t.Fatal("expected land route to succeed")
	}
}

func TestPlanRoutesDedupesPairs(t *testing.T) {
	g := landGrid(t, 50, 50)
	settlements := []world.Settlement{
		{Position: world.Point{X: 5, Y: 5}},
		{Position: world.Point{X: 10, Y: 5}},
		{Position: world.Point{X: 40, Y: 40}},
	}
	routes := PlanRoutes(g, settlements, StraightPlanner{}, 1)
	// 0<->1 are mutual nearest; 2's nearest is 1.
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
}

func TestPlanRoutesDropsInvalid(t *testing.T) {
	g := landGrid(t, 30, 30)
	settlements := []world.Settlement{
		{Position: world.Point{X: 5, Y: 5}},
		{Position: world.Point{X: 10, Y: 5}},
	}
	bad := PlannerFunc(func(_ *world.HeightGrid, from, _ world.Point) (world.Polyline, bool) {
		return world.Polyline{from}, true
	})
	if routes := PlanRoutes(g, settlements, bad, 1); len(routes) != 0 {
		t.Fatalf("expected single-point route to be rejected, got %d routes", len(routes))
	}
}

func TestScoreTrade(t *testing.T) {
	settlements := []world.Settlement{
		{Position: world.Point{X: 0, Y: 0}, Resources: map[world.Resource]int{world.ResourceTrade: 5}},
		{Position: world.Point{X: 100, Y: 100}},
	}
	routes := []world.Polyline{
		{{X: 1, Y: 1}, {X: 2, Y: 2}},
		{{X: 3, Y: 0}, {X: 4, Y: 0}},
		{{X: 0, Y: 14}, {X: 0, Y: 20}},
		{{X: 0, Y: 15}, {X: 0, Y: 30}},
	}
	ScoreTrade(settlements, routes)
	if got := settlements[0].Resources[world.ResourceTrade]; got != 90 {
		t.Fatalf("expected trade 90 from 3 nearby routes, got %d", got)
	}
	if got := settlements[1].Resources[world.ResourceTrade]; got != 20 {
		t.Fatalf("expected base trade 20, got %d", got)
	}
}
