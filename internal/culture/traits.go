package culture

import "github.com/talgya/mapforge/internal/world"

var traitsByClimate = map[string]world.Traits{
	ClimateDesert: {
		Values:       []string{"Survival", "Honor", "Tradition"},
		Architecture: "Adobe and stone, defensive towers",
		Symbols:      []string{"Sun", "Camel", "Dune"},
	},
	ClimateMountain: {
		Values:       []string{"Strength", "Spirituality", "Independence"},
		Architecture: "Massive stone, fortifications",
		Symbols:      []string{"Peak", "Eagle", "Crystal"},
	},
	ClimateForest: {
		Values:       []string{"Harmony", "Mystery", "Freedom"},
		Architecture: "Carved timber woven into the woods",
		Symbols:      []string{"Tree", "Stag", "Leaf"},
	},
	ClimatePlains: {
		Values:       []string{"Commerce", "Hospitality", "Community"},
		Architecture: "Brick, open structures",
		Symbols:      []string{"Wheat", "Horse", "Horizon"},
	},
	ClimateCoastal: {
		Values:       []string{"Adventure", "Exchange", "Daring"},
		Architecture: "Wood and coral, harbors",
		Symbols:      []string{"Wave", "Shell", "Sail"},
	},
}

// TraitsFor returns the values, architecture and symbols of a culture born
// in the given climate. Unknown climates get a neutral set.
func TraitsFor(climate string) world.Traits {
	t, ok := traitsByClimate[climate]
	if !ok {
		return world.Traits{
			Values:       []string{"Balance", "Wisdom"},
			Architecture: "Mixed styles",
			Symbols:      []string{"Star", "Fate"},
		}
	}
	return cloneTraits(t)
}

// cloneTraits copies t so callers may mutate the slices.
func cloneTraits(t world.Traits) world.Traits {
	return world.Traits{
		Values:       append([]string(nil), t.Values...),
		Architecture: t.Architecture,
		Symbols:      append([]string(nil), t.Symbols...),
	}
}
