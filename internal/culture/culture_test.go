package culture

import (
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/talgya/mapforge/internal/politics"
	"github.com/talgya/mapforge/internal/voronoi"
	"github.com/talgya/mapforge/internal/world"
)

// testWorld builds a 120×120 island-free land map with n settlements and
// filler regions, optionally forming countries.
func testWorld(t *testing.T, n int, seed int64, countries bool) *world.World {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	elev, err := world.NewHeightGrid(120, 120)
	if err != nil {
		t.Fatal(err)
	}
	for i := range elev.Cells {
		elev.Cells[i] = uint8(140 + rng.Intn(30))
	}
	w := &world.World{Width: 120, Height: 120, Seed: seed, Elevation: elev}

	govs := world.SettlementGovernments
	used := map[world.Point]bool{}
	var sites []voronoi.Vec
	for len(w.Settlements) < n {
		p := world.Point{X: rng.Intn(120), Y: rng.Intn(120)}
		if used[p] {
			continue
		}
		used[p] = true
		w.Settlements = append(w.Settlements, world.Settlement{
			ID:          len(w.Settlements),
			Name:        world.CountryName(int64(len(w.Settlements))),
			Position:    p,
			Score:       10 + rng.Float64()*100,
			Population:  500 + rng.Intn(20000),
			FoundedYear: rng.Intn(900),
			Government:  govs[rng.Intn(len(govs))],
			Altitude:    elev.At(p),
			Climate:     uint8(rng.Intn(256)),
			Country:     world.NoID,
			Religion:    world.NoID,
			Culture:     world.NoID,
		})
		sites = append(sites, voronoi.Vec{X: float64(p.X), Y: float64(p.Y)})
	}
	for i := 0; i < 20; i++ {
		p := world.Point{X: rng.Intn(120), Y: rng.Intn(120)}
		if !used[p] {
			used[p] = true
			sites = append(sites, voronoi.Vec{X: float64(p.X), Y: float64(p.Y)})
		}
	}
	d, err := voronoi.Partition(120, 120, sites, true)
	if err != nil {
		t.Fatal(err)
	}
	w.Diagram = d
	w.RegionSettlement = make([]int, len(d.Cells))
	for i := range w.RegionSettlement {
		w.RegionSettlement[i] = world.NoID
	}
	for i := range w.Settlements {
		w.Settlements[i].Region = d.SiteCell[i]
		w.RegionSettlement[d.SiteCell[i]] = i
	}
	if countries {
		if _, err := politics.FormCountries(w, seed); err != nil {
			t.Fatal(err)
		}
	}
	return w
}

func TestSelectMode(t *testing.T) {
	if m := SelectMode(testWorld(t, 10, 1, true)); m != ModeFull {
		t.Fatalf("expected full mode with countries, got %s", m)
	}
	if m := SelectMode(testWorld(t, 10, 1, false)); m != ModeFallback {
		t.Fatalf("expected fallback mode without countries, got %s", m)
	}
}

func TestSettlementGraphSymmetricWithinRadius(t *testing.T) {
	w := testWorld(t, 30, 2, false)
	g := SettlementGraph(w.Settlements, 5, 40)
	for i, ns := range g {
		for _, j := range ns {
			if world.Distance(w.Settlements[i].Position, w.Settlements[j].Position) > 40 {
				t.Fatalf("link %d-%d longer than radius", i, j)
			}
			if !slices.Contains(g[j], i) {
				t.Fatalf("link %d-%d is not symmetric", i, j)
			}
		}
	}
}

func TestReligionCradleCounts(t *testing.T) {
	full := testWorld(t, 20, 3, true)
	cradles := ReligionCradles(full, ModeFull)
	capitals := 0
	for _, s := range full.Settlements {
		if s.IsCapital {
			capitals++
		}
	}
	if want := min(8, max(3, capitals)); len(cradles) != want {
		t.Fatalf("expected %d cradles, got %d", want, len(cradles))
	}
	if !full.Settlements[cradles[0]].IsCapital {
		t.Fatal("capitals must come first in full mode")
	}

	small := testWorld(t, 2, 3, false)
	if got := len(ReligionCradles(small, ModeFallback)); got != 2 {
		t.Fatalf("expected cradles capped at settlement count 2, got %d", got)
	}
}

func TestSpreadReligions(t *testing.T) {
	w := testWorld(t, 25, 4, true)
	SpreadReligions(w, 4, 40, ModeFull)

	if len(w.Religions) < 3 || len(w.Religions) > 8 {
		t.Fatalf("expected 3..8 religions, got %d", len(w.Religions))
	}
	for _, r := range w.Religions {
		if r.Followers[r.Cradle] != 100 {
			t.Fatalf("religion %d: expected 100 followers at cradle, got %d", r.ID, r.Followers[r.Cradle])
		}
		if len(r.Events) == 0 || r.Events[0].Kind != world.EventFoundation {
			t.Fatalf("religion %d: missing foundation event", r.ID)
		}
		for _, e := range r.Events[1:] {
			if e.Kind != world.EventConversion {
				t.Fatalf("religion %d: unexpected event %q", r.ID, e.Kind)
			}
		}
	}
	for i, s := range w.Settlements {
		if s.Religion < 0 || s.Religion >= len(w.Religions) {
			t.Fatalf("settlement %d has religion %d", i, s.Religion)
		}
	}
}

func TestSpreadReligionsDeterministic(t *testing.T) {
	a := testWorld(t, 25, 5, true)
	b := testWorld(t, 25, 5, true)
	SpreadReligions(a, 5, 40, ModeFull)
	SpreadReligions(b, 5, 40, ModeFull)
	for i := range a.Settlements {
		if a.Settlements[i].Religion != b.Settlements[i].Religion {
			t.Fatalf("settlement %d religion differs", i)
		}
	}
}

func TestSpreadCultures(t *testing.T) {
	w := testWorld(t, 20, 6, true)
	SpreadCultures(w, 6, ModeFull)

	base := 0
	for _, c := range w.Cultures {
		if c.Variant {
			if !strings.HasSuffix(c.Name, " (Mixed)") || len(c.InfluencedBy) != 2 {
				t.Fatalf("malformed variant %+v", c)
			}
			continue
		}
		base++
		if v := c.Influence[c.OriginRegion]; v < 50 || v > 100 {
			t.Fatalf("culture %d origin influence %f outside [50,100]", c.ID, v)
		}
		for r, v := range c.Influence {
			if r != c.OriginRegion && v <= 1 {
				t.Fatalf("culture %d claimed region %d at influence %f", c.ID, r, v)
			}
		}
	}
	if base != 3 {
		t.Fatalf("expected 3 base cultures for a small map, got %d", base)
	}
	for r, c := range w.RegionCulture {
		if c < 0 || c >= len(w.Cultures) {
			t.Fatalf("region %d has culture %d", r, c)
		}
	}
	for i, s := range w.Settlements {
		if s.Culture != w.RegionCulture[s.Region] {
			t.Fatalf("settlement %d culture %d, region culture %d", i, s.Culture, w.RegionCulture[s.Region])
		}
	}
}

func TestFallbackSkipsBorderMixing(t *testing.T) {
	w := testWorld(t, 20, 7, false)
	SpreadCultures(w, 7, ModeFallback)
	for _, c := range w.Cultures {
		if c.Variant {
			t.Fatalf("fallback mode produced variant %q", c.Name)
		}
	}
}

func TestRegionClimate(t *testing.T) {
	elev, _ := world.NewHeightGrid(10, 10)
	cell := voronoi.Cell{Polygon: []voronoi.Vec{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 5}, {X: 0, Y: 5}}}

	fill := func(v uint8) {
		for i := range elev.Cells {
			elev.Cells[i] = v
		}
	}
	cases := []struct {
		alt  uint8
		want string
	}{
		{100, ClimateCoastal},
		{200, ClimateMountain},
		{135, ClimateForest},
		{175, ClimateDesert},
		{150, ClimatePlains},
	}
	for _, c := range cases {
		fill(c.alt)
		if got := RegionClimate(elev, cell); got != c.want {
			t.Fatalf("altitude %d: expected %s, got %s", c.alt, c.want, got)
		}
	}
}

func TestCultureCradleCount(t *testing.T) {
	cases := map[int]int{0: 3, 50: 3, 100: 4, 200: 6, 1000: 8}
	for land, want := range cases {
		if got := CultureCradleCount(land); got != want {
			t.Fatalf("CultureCradleCount(%d): expected %d, got %d", land, want, got)
		}
	}
}

func TestTraitsForCopies(t *testing.T) {
	a := TraitsFor(ClimateDesert)
	a.Values[0] = "changed"
	if TraitsFor(ClimateDesert).Values[0] == "changed" {
		t.Fatal("TraitsFor must not share slices")
	}
}

func TestMixedVariantOwnsTraits(t *testing.T) {
	checked := 0
	for seed := int64(1); seed <= 10; seed++ {
		w := testWorld(t, 20, seed, true)
		SpreadCultures(w, seed, ModeFull)
		for _, c := range w.Cultures {
			if !c.Variant {
				continue
			}
			parent := w.Cultures[c.InfluencedBy[0]]
			before := parent.Traits.Values[0]
			c.Traits.Values[0] = "changed"
			c.Traits.Symbols[0] = "changed"
			if parent.Traits.Values[0] != before || parent.Traits.Symbols[0] == "changed" {
				t.Fatalf("seed %d: variant %q shares traits with %q", seed, c.Name, parent.Name)
			}
			checked++
		}
	}
	if checked == 0 {
		t.Fatal("expected at least one mixed variant across seeds 1..10")
	}
}
