// Package politics grows countries from capital settlements over the region
// graph and aggregates their attributes from member settlements.
package politics

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"sort"

	"github.com/talgya/mapforge/internal/spread"
	"github.com/talgya/mapforge/internal/voronoi"
	"github.com/talgya/mapforge/internal/world"
)

// Decay bounds: each edge costs a fresh U(minDecay, maxDecay) share of the
// influence carried across it.
const (
	minDecay     = 0.05
	maxDecay     = 0.15
	capitalShare = 0.4

	enemyChance = 0.3
)

// CapitalCount returns how many of n settlements become capitals.
func CapitalCount(n int) int {
	if n <= 0 {
		return 0
	}
	k := int(math.Round(float64(n) * capitalShare))
	return min(n, max(2, k))
}

// FormCountries selects capitals, grows one country per capital over the
// region graph and assigns every region and settlement to a country.
// A settlement without a valid Region is placed in the cell containing it.
func FormCountries(w *world.World, seed int64) (spread.Stats, error) {
	regions := w.RegionCount()
	w.RegionCountry = filled(regions, world.NoID)
	w.RegionInfluence = make([]float64, regions)
	w.Countries = nil
	for i := range w.Settlements {
		w.Settlements[i].Country = world.NoID
		w.Settlements[i].IsCapital = false
	}
	if len(w.Settlements) == 0 || regions == 0 {
		return spread.Stats{}, nil
	}

	if err := resolveRegions(w); err != nil {
		return spread.Stats{}, err
	}
	members := regionMembers(w)

	// Capitals: highest score first, lowest id on ties.
	order := make([]int, len(w.Settlements))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return w.Settlements[order[a]].Score > w.Settlements[order[b]].Score
	})

	var seeds []spread.Front
	for id, s := range order[:CapitalCount(len(order))] {
		capital := &w.Settlements[s]
		cseed := world.NewRNG(seed, world.StageCapitals, uint64(id)).Int63()
		w.Countries = append(w.Countries, world.Country{
			ID:       id,
			Name:     world.CountryName(cseed),
			Seed:     cseed,
			Color:    countryColor(cseed),
			Capital:  s,
			Religion: world.NoID,
			Culture:  world.NoID,
		})
		capital.IsCapital = true

		r := w.Diagram.Nearest(voronoi.Vec{X: float64(capital.Position.X), Y: float64(capital.Position.Y)})
		if w.RegionCountry[r] != world.NoID {
			slog.Debug("capital region already claimed", "country", id, "region", r)
			continue
		}
		claim(w, members, r, id, capital.Score)
		seeds = append(seeds, spread.Front{Node: r, Owner: id, Influence: capital.Score})
	}

	rng := world.NewRNG(seed, world.StagePolitics, 0)
	rules := spread.RuleFuncs{
		DecayFunc: func(from spread.Front, _ int) float64 {
			return from.Influence * (1 - (minDecay + (maxDecay-minDecay)*rng.Float64()))
		},
		ClaimFunc: func(next spread.Front) bool {
			cur := w.RegionCountry[next.Node]
			if cur == next.Owner {
				return false
			}
			if cur != world.NoID && next.Influence <= w.RegionInfluence[next.Node] {
				return false
			}
			claim(w, members, next.Node, next.Owner, next.Influence)
			return true
		},
	}
	opts := spread.Options{Floor: 0, MaxSteps: 64 * regions * len(w.Countries)}
	st := spread.Run(spread.Adjacency(w.Diagram.Adjacency()), rules, opts, seeds...)
	if st.Truncated {
		slog.Warn("country propagation truncated", "steps", st.Steps)
	}

	backfill(w)
	Aggregate(w, seed)
	return st, nil
}

// resolveRegions locates settlements whose Region is unset or out of range,
// such as those whose cell was dropped as degenerate.
func resolveRegions(w *world.World) error {
	regions := w.RegionCount()
	for i := range w.Settlements {
		s := &w.Settlements[i]
		if s.Region >= 0 && s.Region < regions {
			continue
		}
		r := w.Diagram.Locate(voronoi.Vec{X: float64(s.Position.X), Y: float64(s.Position.Y)})
		if r < 0 {
			return fmt.Errorf("settlement %d at %v: no region", i, s.Position)
		}
		slog.Debug("settlement region resolved", "settlement", i, "from", s.Region, "to", r)
		s.Region = r
	}
	return nil
}

// claim hands region r and the settlements inside it to country. A foreign
// capital inside the region falls.
func claim(w *world.World, members [][]int, r, country int, influence float64) {
	w.RegionCountry[r] = country
	w.RegionInfluence[r] = influence
	for _, s := range members[r] {
		st := &w.Settlements[s]
		if st.IsCapital && st.Country != country && st.Country != world.NoID {
			st.IsCapital = false
			w.Countries[st.Country].Capital = world.NoID
		}
		st.Country = country
	}
}

// backfill gives unreachable regions the country of the nearest claimed
// region, and unresolved settlements their region's country.
func backfill(w *world.World) {
	var claimed []int
	for r, c := range w.RegionCountry {
		if c != world.NoID {
			claimed = append(claimed, r)
		}
	}
	if len(claimed) == 0 {
		return
	}

	filled := 0
	for r, c := range w.RegionCountry {
		if c != world.NoID {
			continue
		}
		origin := w.Diagram.Cells[r].Origin
		best, bestD := claimed[0], math.Inf(1)
		for _, o := range claimed {
			if d := dist2(origin, w.Diagram.Cells[o].Origin); d < bestD {
				best, bestD = o, d
			}
		}
		w.RegionCountry[r] = w.RegionCountry[best]
		filled++
	}
	if filled > 0 {
		slog.Debug("regions back-filled", "regions", filled)
	}

	for i := range w.Settlements {
		s := &w.Settlements[i]
		c := w.RegionCountry[s.Region]
		if s.Country != c {
			if s.IsCapital && s.Country != world.NoID {
				s.IsCapital = false
				w.Countries[s.Country].Capital = world.NoID
			}
			s.Country = c
		}
	}
}

// Aggregate recomputes every country's regions, members and derived
// attributes from the current assignment. It depends only on that
// assignment and the seed, so repeated calls give identical results.
func Aggregate(w *world.World, seed int64) {
	for i := range w.Countries {
		c := &w.Countries[i]
		c.Regions = c.Regions[:0]
		c.Members = c.Members[:0]
	}
	for r, owner := range w.RegionCountry {
		if owner != world.NoID {
			w.Countries[owner].Regions = append(w.Countries[owner].Regions, r)
		}
	}
	for i, s := range w.Settlements {
		if s.Country != world.NoID {
			w.Countries[s.Country].Members = append(w.Countries[s.Country].Members, i)
		}
	}

	for i := range w.Countries {
		c := &w.Countries[i]
		rng := world.NewRNG(seed, world.StageGovernment, uint64(c.ID))
		c.Government = world.CountryGovernments[rng.Intn(len(world.CountryGovernments))]
		c.Population = 0
		c.FoundedYear = 0
		c.Religion = world.NoID
		c.Culture = world.NoID
		c.Resources = make(map[world.Resource]int, len(world.AllResources))
		if len(c.Members) == 0 {
			continue
		}

		religions := make([]int, 0, len(c.Members))
		cultures := make([]int, 0, len(c.Members))
		totals := make(map[world.Resource]int, len(world.AllResources))
		c.FoundedYear = math.MaxInt
		for _, m := range c.Members {
			s := &w.Settlements[m]
			c.Population += s.Population
			c.FoundedYear = min(c.FoundedYear, s.FoundedYear)
			religions = append(religions, s.Religion)
			cultures = append(cultures, s.Culture)
			for _, res := range world.AllResources {
				totals[res] += s.Resources[res]
			}
		}
		for _, res := range world.AllResources {
			c.Resources[res] = totals[res] / len(c.Members)
		}
		c.Religion = Majority(religions)
		c.Culture = Majority(cultures)
	}
	relate(w, seed)
}

// relate sets the stance between every pair of bordering countries. Shared
// religion and culture make allies, sharing one of them makes trade partners,
// and the rest are drawn between neutral and enemy.
func relate(w *world.World, seed int64) {
	for i := range w.Countries {
		w.Countries[i].Relations = make(map[int]world.Relation)
	}
	if w.Diagram == nil || len(w.RegionCountry) != len(w.Diagram.Cells) {
		return
	}
	for _, e := range w.Diagram.Edges {
		a, b := w.RegionCountry[e.Left], w.RegionCountry[e.Right]
		if a == b || a == world.NoID || b == world.NoID {
			continue
		}
		a, b = min(a, b), max(a, b)
		if _, ok := w.Countries[a].Relations[b]; ok {
			continue
		}
		ca, cb := &w.Countries[a], &w.Countries[b]
		sameReligion := ca.Religion != world.NoID && ca.Religion == cb.Religion
		sameCulture := ca.Culture != world.NoID && ca.Culture == cb.Culture
		var rel world.Relation
		switch {
		case sameReligion && sameCulture:
			rel = world.RelationAlly
		case sameReligion || sameCulture:
			rel = world.RelationTrade
		default:
			rng := world.NewRNG(seed, world.StageRelations, uint64(a)<<32|uint64(b))
			rel = world.RelationNeutral
			if rng.Float64() < enemyChance {
				rel = world.RelationEnemy
			}
		}
		ca.Relations[b] = rel
		cb.Relations[a] = rel
	}
}

// Majority returns the most frequent non-NoID id, lowest id on ties, or NoID.
func Majority(ids []int) int {
	counts := make(map[int]int, len(ids))
	for _, id := range ids {
		if id != world.NoID {
			counts[id]++
		}
	}
	best, bestN := world.NoID, 0
	keys := make([]int, 0, len(counts))
	for id := range counts {
		keys = append(keys, id)
	}
	slices.Sort(keys)
	for _, id := range keys {
		if counts[id] > bestN {
			best, bestN = id, counts[id]
		}
	}
	return best
}

// countryColor picks a saturated display color, avoiding near-white and
// near-black.
func countryColor(seed int64) world.RGB {
	rng := rand.New(rand.NewSource(seed))
	r := 50 + rng.Intn(181)
	g := 50 + rng.Intn(181)
	b := 50 + rng.Intn(181)
	if (r+g+b)/3 > 200 {
		r, g, b = r*2/3, g*2/3, b*2/3
	}
	return world.RGB{R: uint8(r), G: uint8(g), B: uint8(b)}
}

func regionMembers(w *world.World) [][]int {
	members := make([][]int, w.RegionCount())
	for i, s := range w.Settlements {
		if s.Region >= 0 && s.Region < len(members) {
			members[s.Region] = append(members[s.Region], i)
		}
	}
	return members
}

func filled(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func dist2(a, b voronoi.Vec) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}
