package culture

import (
	"log/slog"

	"github.com/talgya/mapforge/internal/spread"
	"github.com/talgya/mapforge/internal/voronoi"
	"github.com/talgya/mapforge/internal/world"
)

// Climate types a culture can be born in.
const (
	ClimateCoastal  = "coastal"
	ClimateMountain = "mountain"
	ClimateForest   = "forest"
	ClimateDesert   = "desert"
	ClimatePlains   = "plains"
)

// RegionClimate classifies a region from the altitudes under its polygon
// vertices.
func RegionClimate(elev *world.HeightGrid, cell voronoi.Cell) string {
	alts := vertexAltitudes(elev, cell)
	if len(alts) == 0 {
		return ClimatePlains
	}
	sea, mountain, sum := 0, 0, 0
	for _, a := range alts {
		sum += a
		switch {
		case a <= world.SeaLevel:
			sea++
		case a > 180:
			mountain++
		}
	}
	n := float64(len(alts))
	avg := float64(sum) / n
	switch {
	case float64(sea) > n*0.3:
		return ClimateCoastal
	case float64(mountain) > n*0.3:
		return ClimateMountain
	case avg < 140:
		return ClimateForest
	case avg > 170:
		return ClimateDesert
	default:
		return ClimatePlains
	}
}

func vertexAltitudes(elev *world.HeightGrid, cell voronoi.Cell) []int {
	alts := make([]int, 0, len(cell.Polygon))
	for _, v := range cell.Polygon {
		p := world.Point{X: int(v.X), Y: int(v.Y)}
		if elev.InBounds(p) {
			alts = append(alts, int(elev.At(p)))
		}
	}
	return alts
}

// LandRegions returns the regions whose average vertex altitude is above sea
// level.
func LandRegions(w *world.World) []int {
	var land []int
	for r, c := range w.Diagram.Cells {
		alts := vertexAltitudes(w.Elevation, c)
		if len(alts) == 0 {
			continue
		}
		sum := 0
		for _, a := range alts {
			sum += a
		}
		if float64(sum)/float64(len(alts)) > world.SeaLevel {
			land = append(land, r)
		}
	}
	return land
}

// CultureCradleCount scales the number of cultures with the land area.
func CultureCradleCount(landRegions int) int {
	return clampInt(3+(landRegions-50)/50, minCultureCradles, maxCultureCradles)
}

// SpreadCultures seeds cultures in random land regions, propagates each over
// the region graph and gives every region the culture with the highest
// influence there. In full mode, regions on a country border may turn into a
// mixed variant of their culture and a neighbor's.
func SpreadCultures(w *world.World, seed int64, mode Mode) spread.Stats {
	regions := w.RegionCount()
	w.Cultures = nil
	w.RegionCulture = make([]int, regions)
	for r := range w.RegionCulture {
		w.RegionCulture[r] = world.NoID
	}
	if regions == 0 {
		return spread.Stats{}
	}

	rng := world.NewRNG(seed, world.StageCulture, 0)
	candidates := LandRegions(w)
	if len(candidates) == 0 {
		candidates = make([]int, regions)
		for i := range candidates {
			candidates[i] = i
		}
	}
	n := min(len(candidates), CultureCradleCount(len(candidates)))
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	g := spread.Adjacency(w.Diagram.Adjacency())
	var total spread.Stats
	used := make(map[string]bool)

	for id, origin := range candidates[:n] {
		cseed := rng.Int63n(1 << 31)
		name := world.CultureName(cseed)
		for try := 0; used[name] && try < 50; try++ {
			cseed = rng.Int63n(1 << 31)
			name = world.CultureName(cseed)
		}
		used[name] = true

		climate := RegionClimate(w.Elevation, w.Diagram.Cells[origin])
		initial := float64(50 + rng.Intn(51))
		c := world.Culture{
			ID:           id,
			Name:         name,
			Seed:         cseed,
			OriginRegion: origin,
			ClimateType:  climate,
			Traits:       TraitsFor(climate),
			Influence:    map[int]float64{origin: initial},
		}

		rules := spread.RuleFuncs{
			DecayFunc: func(from spread.Front, _ int) float64 {
				return from.Influence * cultureDecay
			},
			ClaimFunc: func(next spread.Front) bool {
				if next.Influence <= cultureFloor {
					return false
				}
				if cur, ok := c.Influence[next.Node]; ok && next.Influence <= cur {
					return false
				}
				c.Influence[next.Node] = next.Influence
				return true
			},
		}
		st := spread.Run(g, rules, spread.Options{Floor: cultureFloor},
			spread.Front{Node: origin, Owner: id, Influence: initial})
		total.Steps += st.Steps
		total.Claims += st.Claims
		w.Cultures = append(w.Cultures, c)
	}

	resolveCultures(w)
	backfillCultures(w)
	if mode == ModeFull {
		mixBorders(w, seed)
	}
	for i := range w.Settlements {
		s := &w.Settlements[i]
		if s.Region >= 0 && s.Region < regions {
			s.Culture = w.RegionCulture[s.Region]
		}
	}
	return total
}

// resolveCultures gives each region the culture with the highest influence
// there, lowest id on ties.
func resolveCultures(w *world.World) {
	best := make([]float64, len(w.RegionCulture))
	for _, c := range w.Cultures {
		for r, v := range c.Influence {
			if w.RegionCulture[r] == world.NoID || v > best[r] {
				w.RegionCulture[r] = c.ID
				best[r] = v
			}
		}
	}
}

// backfillCultures repeatedly hands unresolved regions the culture of their
// best-influenced resolved neighbor until nothing changes.
func backfillCultures(w *world.World) {
	strength := func(r int) float64 {
		c := w.RegionCulture[r]
		if c == world.NoID {
			return -1
		}
		return w.Cultures[c].Influence[r]
	}

	filled := 0
	for changed := true; changed; {
		changed = false
		next := append([]int(nil), w.RegionCulture...)
		for r, c := range w.RegionCulture {
			if c != world.NoID {
				continue
			}
			bestN, bestS := -1, -1.0
			for _, n := range w.Diagram.Cells[r].Neighbors {
				if s := strength(n); s > bestS {
					bestN, bestS = n, s
				}
			}
			if bestN >= 0 && bestS >= 0 {
				next[r] = w.RegionCulture[bestN]
				changed = true
				filled++
			}
		}
		w.RegionCulture = next
	}
	if filled > 0 {
		slog.Debug("culture regions back-filled", "regions", filled)
	}
}

// mixBorders turns some political border regions into a mixed variant of
// their culture and a neighboring one. Each (culture, neighbor culture) pair
// produces at most one variant.
func mixBorders(w *world.World, seed int64) {
	rng := world.NewRNG(seed, world.StageCulture, 1)
	base := append([]int(nil), w.RegionCulture...)
	variants := make(map[[2]int]int)

	for r, own := range base {
		if own == world.NoID {
			continue
		}
		country := w.RegionCountry[r]
		border := false
		for _, n := range w.Diagram.Cells[r].Neighbors {
			if nc := w.RegionCountry[n]; nc != country && nc != world.NoID {
				border = true
				break
			}
		}
		if !border || rng.Float64() >= cultureMixChance {
			continue
		}

		var neighborCultures []int
		for _, n := range w.Diagram.Cells[r].Neighbors {
			if base[n] != world.NoID {
				neighborCultures = append(neighborCultures, base[n])
			}
		}
		if len(neighborCultures) == 0 {
			continue
		}
		other := neighborCultures[rng.Intn(len(neighborCultures))]
		if other == own || w.Cultures[own].Variant {
			continue
		}

		key := [2]int{own, other}
		id, ok := variants[key]
		if !ok {
			parent := w.Cultures[own]
			id = len(w.Cultures)
			w.Cultures = append(w.Cultures, world.Culture{
				ID:           id,
				Name:         parent.Name + " (Mixed)",
				Seed:         rng.Int63n(1 << 31),
				OriginRegion: r,
				ClimateType:  parent.ClimateType,
				Traits:       cloneTraits(parent.Traits),
				Influence:    map[int]float64{},
				InfluencedBy: []int{own, other},
				Variant:      true,
			})
			variants[key] = id
		}
		w.Cultures[id].Influence[r] = w.Cultures[own].Influence[r]
		w.RegionCulture[r] = id
	}
}
