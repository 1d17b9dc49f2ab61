package world

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func scoredSlope(t *testing.T, workers int) (*HeightGrid, []River, *SiteScores) {
	t.Helper()
	g := slope(80, 60)
	rivers := TraceRivers(g, 21, 3)
	scores, err := ScoreSettlementSites(context.Background(), g, rivers, 21, workers)
	if err != nil {
		t.Fatal(err)
	}
	return g, rivers, scores
}

func TestScoresOnlyOnHabitableLand(t *testing.T) {
	g, _, scores := scoredSlope(t, 4)
	for i, v := range scores.Values {
		alt := g.Cells[i]
		if (alt <= SeaLevel || alt > siteMaxAltitude) && v != 0 {
			t.Fatalf("cell %d at altitude %d scored %f", i, alt, v)
		}
		if v < 0 {
			t.Fatalf("cell %d has negative score %f", i, v)
		}
	}
}

func TestScoresIndependentOfWorkers(t *testing.T) {
	_, _, a := scoredSlope(t, 1)
	_, _, b := scoredSlope(t, 8)
	if !slices.Equal(a.Values, b.Values) {
		t.Fatal("site scores depend on worker count")
	}
}

func TestDistanceField(t *testing.T) {
	src := make([]bool, 5*5)
	src[0] = true
	d := distanceField(5, 5, src, -1)
	if d[24] != 8 {
		t.Fatalf("expected Manhattan distance 8 to the far corner, got %d", d[24])
	}
	limited := distanceField(5, 5, src, 3)
	if limited[24] != -1 || limited[3] != 3 {
		t.Fatalf("expected limit to stop the search at 3, got %d and %d", limited[24], limited[3])
	}
}

func TestWindowSum(t *testing.T) {
	mask := make([]bool, 10*10)
	for i := range mask {
		mask[i] = true
	}
	sum := prefixSums(10, 10, mask)
	if got := windowSum(sum, 10, 10, 5, 5, 2); got != 25 {
		t.Fatalf("expected 25 cells in a 5x5 window, got %d", got)
	}
	if got := windowSum(sum, 10, 10, 0, 0, 2); got != 9 {
		t.Fatalf("expected corner window clipped to 9 cells, got %d", got)
	}
}

func TestPlaceSettlementsSpacing(t *testing.T) {
	_, _, scores := scoredSlope(t, 2)
	placed := PlaceSettlements(scores, 10, 21)
	if len(placed) == 0 || len(placed) > 10 {
		t.Fatalf("expected 1..10 settlements, got %d", len(placed))
	}
	minDist := float64(MinSettlementDistance(80, 60))
	for i := range placed {
		if placed[i].ID != i {
			t.Fatalf("settlement %d has id %d", i, placed[i].ID)
		}
		if scores.At(placed[i].Position) <= 0 {
			t.Fatalf("settlement %d placed on an unscored cell", i)
		}
		for j := i + 1; j < len(placed); j++ {
			if d := Distance(placed[i].Position, placed[j].Position); d < minDist {
				t.Fatalf("settlements %d and %d only %.1f apart", i, j, d)
			}
		}
	}
}

func TestPlaceSettlementsDeterministic(t *testing.T) {
	_, _, scores := scoredSlope(t, 2)
	a := PlaceSettlements(scores, 8, 3)
	b := PlaceSettlements(scores, 8, 3)
	if len(a) != len(b) {
		t.Fatalf("count differs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Position != b[i].Position || a[i].Seed != b[i].Seed {
			t.Fatalf("settlement %d differs", i)
		}
	}
}

func TestPlaceSettlementsEmptyPool(t *testing.T) {
	scores := &SiteScores{W: 10, H: 10, Values: make([]float64, 100)}
	if got := PlaceSettlements(scores, 5, 1); len(got) != 0 {
		t.Fatalf("expected no settlements from an empty pool, got %d", len(got))
	}
}

func TestEnrichSettlements(t *testing.T) {
	g, _, scores := scoredSlope(t, 2)
	climate, err := GenerateClimate(g.W, g.H, 21, 2)
	if err != nil {
		t.Fatal(err)
	}
	placed := PlaceSettlements(scores, 10, 21)
	if err := EnrichSettlements(placed, g, climate, 1000); err != nil {
		t.Fatal(err)
	}

	names := map[string]bool{}
	for _, s := range placed {
		if s.Name == "" || names[s.Name] {
			t.Fatalf("settlement %d has empty or duplicate name %q", s.ID, s.Name)
		}
		names[s.Name] = true
		base := int(s.Score*50) + 500
		if s.Population < base-base/10 || s.Population > base+base/10 {
			t.Fatalf("settlement %d population %d outside %d±10%%", s.ID, s.Population, base)
		}
		if s.Size != SizeFor(s.Population) {
			t.Fatalf("settlement %d size %s for population %d", s.ID, s.Size, s.Population)
		}
		if s.FoundedYear < 0 || s.FoundedYear > 900 {
			t.Fatalf("settlement %d founded in %d", s.ID, s.FoundedYear)
		}
		if !slices.Contains(SettlementGovernments, s.Government) {
			t.Fatalf("settlement %d has government %q", s.ID, s.Government)
		}
		for _, r := range AllResources {
			v, ok := s.Resources[r]
			if !ok || v < 0 || v > 100 {
				t.Fatalf("settlement %d resource %s = %d", s.ID, r, v)
			}
		}
	}
}

func TestEnrichSettlementsOutOfBounds(t *testing.T) {
	g, _ := NewHeightGrid(10, 10)
	s := []Settlement{{Position: Point{X: 12, Y: 3}}}
	if err := EnrichSettlements(s, g, g, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestSizeFor(t *testing.T) {
	cases := map[int]SizeClass{999: SizeVillage, 1000: SizeTown, 4999: SizeTown, 5000: SizeCity, 20000: SizeMetropolis}
	for pop, want := range cases {
		if got := SizeFor(pop); got != want {
			t.Fatalf("SizeFor(%d): expected %s, got %s", pop, want, got)
		}
	}
}

func TestNameBookUnique(t *testing.T) {
	nb := newNameBook()
	seen := map[string]bool{}
	for i := 0; i < 2000; i++ {
		name := nb.settlement(int64(i % 50))
		if seen[name] {
			t.Fatalf("duplicate name %q at %d", name, i)
		}
		seen[name] = true
	}
}

func TestNamesDeterministic(t *testing.T) {
	if CountryName(42) != CountryName(42) || CultureName(42) != CultureName(42) {
		t.Fatal("names must be a pure function of the seed")
	}
	if got := ReligionName(1, "the Hills"); got == "" {
		t.Fatal("expected a religion name")
	}
}
