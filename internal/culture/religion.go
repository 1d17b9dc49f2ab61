package culture

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/talgya/mapforge/internal/spread"
	"github.com/talgya/mapforge/internal/world"
)

// ReligionCradles picks the settlements religions are born in. In full mode
// capitals come first (most populous first), padded with the largest other
// settlements; in fallback mode only population counts.
func ReligionCradles(w *world.World, mode Mode) []int {
	byPopulation := func(ids []int) {
		sort.SliceStable(ids, func(a, b int) bool {
			return w.Settlements[ids[a]].Population > w.Settlements[ids[b]].Population
		})
	}

	var capitals, others []int
	for i, s := range w.Settlements {
		if mode == ModeFull && s.IsCapital {
			capitals = append(capitals, i)
		} else {
			others = append(others, i)
		}
	}
	byPopulation(capitals)
	byPopulation(others)

	n := min(len(w.Settlements), min(maxReligionCradles, max(minReligionCradles, len(capitals))))
	cradles := make([]int, 0, len(capitals)+len(others))
	cradles = append(cradles, capitals...)
	cradles = append(cradles, others...)
	return cradles[:n]
}

// SpreadReligions founds one religion per cradle, propagates each over the
// settlement graph and settles every settlement on one religion by a
// follower-weighted draw.
func SpreadReligions(w *world.World, seed int64, radius float64, mode Mode) spread.Stats {
	w.Religions = nil
	for i := range w.Settlements {
		w.Settlements[i].Religion = world.NoID
	}
	if len(w.Settlements) == 0 {
		return spread.Stats{}
	}

	g := SettlementGraph(w.Settlements, religionNeighbors, radius)
	cradles := ReligionCradles(w, mode)
	hops := make([][]int, len(cradles))
	var total spread.Stats

	for id, c := range cradles {
		cradle := &w.Settlements[c]
		rseed := world.NewRNG(seed, world.StageReligion, uint64(id)).Int63()
		theme := cradle.Biome().Theme()
		rel := world.Religion{
			ID:          id,
			Name:        world.ReligionName(rseed, theme),
			Seed:        rseed,
			Cradle:      c,
			Theme:       theme,
			FoundedYear: cradle.FoundedYear,
			Followers:   map[int]int{c: int(religionStrength)},
		}
		rel.Events = append(rel.Events, world.Event{
			Year:        cradle.FoundedYear,
			Kind:        world.EventFoundation,
			Description: fmt.Sprintf("%s founded in %s", rel.Name, cradle.Name),
			Location:    c,
		})

		strength := make([]float64, len(w.Settlements))
		hops[id] = make([]int, len(w.Settlements))
		strength[c] = religionStrength
		rules := spread.RuleFuncs{
			DecayFunc: func(from spread.Front, _ int) float64 {
				v := from.Influence * religionDecay
				if w.Settlements[from.Node].Government == world.GovTheocratic {
					v *= theocraticBoost
				}
				return min(v, religionStrength)
			},
			ClaimFunc: func(next spread.Front) bool {
				if next.Influence <= religionFloor || next.Influence <= strength[next.Node] {
					return false
				}
				strength[next.Node] = next.Influence
				hops[id][next.Node] = next.Hops
				return true
			},
		}
		st := spread.Run(g, rules, spread.Options{Floor: religionFloor},
			spread.Front{Node: c, Owner: id, Influence: religionStrength})
		total.Steps += st.Steps
		total.Claims += st.Claims

		for s, v := range strength {
			if v > 0 {
				rel.Followers[s] = int(v)
			}
		}
		w.Religions = append(w.Religions, rel)
	}

	assignReligions(w, seed, cradles)
	if mode == ModeFull {
		logConversions(w, hops)
	}
	return total
}

// assignReligions draws each settlement's religion weighted by followers.
// The draw is seeded from the world seed and the settlement position.
// Settlements no religion reached follow the nearest cradle.
func assignReligions(w *world.World, seed int64, cradles []int) {
	cradlePos := make([]world.Point, len(cradles))
	for i, c := range cradles {
		cradlePos[i] = w.Settlements[c].Position
	}

	unreached := 0
	for i := range w.Settlements {
		s := &w.Settlements[i]
		total := 0
		for _, r := range w.Religions {
			total += r.Followers[i]
		}
		if total == 0 {
			s.Religion = nearestOf(s.Position, cradlePos)
			unreached++
			continue
		}

		rng := rand.New(rand.NewSource(positionSeed(seed, s.Position)))
		choice := rng.Float64() * float64(total)
		cum := 0
		s.Religion = w.Religions[len(w.Religions)-1].ID
		for _, r := range w.Religions {
			f := r.Followers[i]
			if f == 0 {
				continue
			}
			cum += f
			if choice <= float64(cum) {
				s.Religion = r.ID
				break
			}
		}
	}
	if unreached > 0 {
		slog.Debug("settlements outside every religion's reach", "settlements", unreached)
	}
}

// logConversions records one conversion event per religion and foreign
// country the first time the religion is dominant in one of its settlements.
func logConversions(w *world.World, hops [][]int) {
	for r := range w.Religions {
		rel := &w.Religions[r]
		home := w.Settlements[rel.Cradle].Country
		seen := make(map[int]bool)
		for i, s := range w.Settlements {
			if s.Religion != rel.ID || s.Country == world.NoID || s.Country == home || seen[s.Country] {
				continue
			}
			seen[s.Country] = true
			country := w.Countries[s.Country]
			rel.Events = append(rel.Events, world.Event{
				Year:        max(rel.FoundedYear, s.FoundedYear) + 10*max(1, hops[r][i]),
				Kind:        world.EventConversion,
				Description: fmt.Sprintf("%s spreads to %s in %s", rel.Name, s.Name, country.Name),
				Location:    i,
			})
		}
	}
}
