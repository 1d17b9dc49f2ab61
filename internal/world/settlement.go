package world

import (
	"fmt"
	"math/rand"
)

// SizeClass categorizes a settlement by population.
type SizeClass string

const (
	SizeVillage    SizeClass = "village"    // < 1,000
	SizeTown       SizeClass = "town"       // < 5,000
	SizeCity       SizeClass = "city"       // < 20,000
	SizeMetropolis SizeClass = "metropolis" // everything larger
)

// SizeFor returns the size class for a population.
func SizeFor(population int) SizeClass {
	switch {
	case population < 1000:
		return SizeVillage
	case population < 5000:
		return SizeTown
	case population < 20000:
		return SizeCity
	default:
		return SizeMetropolis
	}
}

// Government is a settlement's local form of rule.
type Government string

const (
	GovDemocratic   Government = "Democratic"
	GovAristocratic Government = "Aristocratic"
	GovTheocratic   Government = "Theocratic"
	GovMercantile   Government = "Mercantile"
)

// SettlementGovernments lists the local governments in draw order.
var SettlementGovernments = []Government{GovDemocratic, GovAristocratic, GovTheocratic, GovMercantile}

// Resource is one of the five settlement resource channels.
type Resource string

const (
	ResourceAgriculture Resource = "agriculture"
	ResourceMining      Resource = "mining"
	ResourceForestry    Resource = "forestry"
	ResourceFishing     Resource = "fishing"
	ResourceTrade       Resource = "trade"
)

// AllResources lists the resource channels in a fixed order.
var AllResources = []Resource{ResourceAgriculture, ResourceMining, ResourceForestry, ResourceFishing, ResourceTrade}

// Settlement is a placed city. Relations to countries, religions, cultures
// and regions are ids into the World's arenas (NoID when unset).
type Settlement struct {
	ID          int              `json:"id"`
	Name        string           `json:"name"`
	Position    Point            `json:"position"`
	Seed        int64            `json:"seed"`
	Score       float64          `json:"score"`
	Population  int              `json:"population"`
	Size        SizeClass        `json:"size"`
	FoundedYear int              `json:"founded_year"`
	Government  Government       `json:"government"`
	Altitude    uint8            `json:"altitude"`
	Climate     uint8            `json:"climate"`
	Resources   map[Resource]int `json:"resources"`
	Country     int              `json:"country"`
	IsCapital   bool             `json:"is_capital"`
	Religion    int              `json:"religion"`
	Culture     int              `json:"culture"`
	Region      int              `json:"region"`
}

// String returns a one-line summary.
func (s *Settlement) String() string {
	return fmt.Sprintf("%s (%s, pop %d) at %d,%d", s.Name, s.Size, s.Population, s.Position.X, s.Position.Y)
}

// Biome returns the biome of the settlement's cell.
func (s *Settlement) Biome() Biome {
	return BiomeAt(s.Altitude, s.Climate)
}

// EnrichSettlements fills in the derived attributes of freshly placed
// settlements: name, population, size, founding year, government and
// resources. Every draw comes from the settlement's own seed.
func EnrichSettlements(settlements []Settlement, elev, climate *HeightGrid, baseYear int) error {
	names := newNameBook()
	for i := range settlements {
		s := &settlements[i]
		if !elev.InBounds(s.Position) {
			return fmt.Errorf("settlement %d at %d,%d: %w", s.ID, s.Position.X, s.Position.Y, ErrOutOfBounds)
		}
		s.Altitude = elev.At(s.Position)
		s.Climate = climate.At(s.Position)

		rng := rand.New(rand.NewSource(s.Seed))
		s.Name = names.settlement(s.Seed)

		base := int(s.Score*50) + 500
		spread := base / 10
		s.Population = base + rng.Intn(2*spread+1) - spread
		s.Size = SizeFor(s.Population)
		s.FoundedYear = baseYear - (100 + rng.Intn(901))
		s.Government = SettlementGovernments[rng.Intn(len(SettlementGovernments))]
		s.Resources = generateResources(s.Altitude, s.Climate, s.Seed)
	}
	return nil
}

// generateResources rolls the five resource channels from terrain. Trade
// starts low and is rescored once roads exist.
func generateResources(altitude, climate uint8, seed int64) map[Resource]int {
	rng := rand.New(rand.NewSource(seed ^ 0x5eed))
	a, c := int(altitude), int(climate)
	jitter := func(n int) int { return rng.Intn(2*n+1) - n }
	res := make(map[Resource]int, len(AllResources))

	switch {
	case a > 100 && a < 180 && c > 80 && c < 170:
		res[ResourceAgriculture] = 70 + jitter(20)
	case a > 100 && a < 200:
		res[ResourceAgriculture] = 40 + jitter(20)
	default:
		res[ResourceAgriculture] = 20 + jitter(10)
	}

	if a > 160 {
		res[ResourceMining] = 60 + jitter(20)
	} else {
		res[ResourceMining] = 20 + jitter(15)
	}

	if c > 60 && c < 140 {
		res[ResourceForestry] = 65 + jitter(20)
	} else {
		res[ResourceForestry] = 25 + jitter(15)
	}

	if a < 130 {
		res[ResourceFishing] = 55 + jitter(20)
	} else {
		res[ResourceFishing] = 10 + rng.Intn(16) - 5
	}

	res[ResourceTrade] = 20 + jitter(10)

	for k, v := range res {
		res[k] = clampInt(v, 0, 100)
	}
	return res
}
