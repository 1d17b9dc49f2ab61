package world

import (
	"math/rand"
	"strings"
)

var (
	namePrefixes = []string{
		"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
		"Silver", "Red", "White", "Dark", "Bright", "High", "Low",
		"Old", "New", "Far", "Deep", "Long", "Broad", "Gold", "Frost",
		"Storm", "Thorn", "Elm", "Oak", "Pine", "Copper", "River",
	}
	nameSuffixes = []string{
		"haven", "ford", "hollow", "wick", "bridge", "gate", "keep",
		"stead", "wood", "field", "dale", "crest", "vale", "port",
		"town", "bury", "marsh", "well", "brook", "cliff", "moor",
		"ridge", "watch", "fall", "rest", "point", "reach", "helm",
	}

	consonants = []string{"b", "c", "d", "f", "g", "h", "j", "k", "l", "m", "n", "p", "r", "s", "t", "v", "w", "z"}
	vowels     = []string{"a", "e", "i", "o", "u"}
	clusters   = []string{"br", "ch", "dr", "fl", "gr", "sh", "sk", "sl", "sp", "st", "th", "tr", "tw", "wh"}

	countrySuffixes = []string{"ia", "land", "shire", "stan", "ia", "mark"}
	cultureSuffixes = []string{"ian", "folk", "kin", "ic", "ers", "ian"}

	religionTemplates = []string{
		"The Cult of %s", "The Children of %s", "The Order of %s",
		"The Faith of %s", "The Path of %s", "The Keepers of %s",
		"The Blessing of %s", "The Temple of %s", "The Covenant of %s",
		"The Way of %s", "The Disciples of %s", "The Communion of %s",
	}
	deities = []string{
		"the Dawn", "the Moon", "the North Star", "the Earth Mother",
		"the Old Spirit", "the Great Tree", "the Eternal Flame",
		"the Ancients", "the Light", "the Shadow", "the Balance",
		"Death and Rebirth", "the Storm", "the Sky", "the Crystal",
		"the Infinite", "Destiny", "Harmony",
	}
	cultureTemplates = []string{
		"The %s Tradition", "The %s Heritage", "The %s Folk",
		"The %s Dynasty", "The %s People", "The %s School",
		"The %s Lineage", "The %s Masters", "The %s Caste",
		"The %s Brotherhood", "The %s Ascendancy", "The %s Artisans",
	}
	cultureTraits = []string{
		"Forge", "Wind", "Sea", "Mountain", "River", "Forest",
		"Stone", "Steel", "Silver", "Fire", "Sky", "Earth",
		"Wisdom", "Valor", "Honor", "Harvest", "Hearth", "Ancestor",
	}
)

func pick(rng *rand.Rand, from []string) string {
	return from[rng.Intn(len(from))]
}

// syllables builds a pronounceable word of n syllables; the first may open
// with a consonant cluster with probability clusterP.
func syllables(rng *rand.Rand, n int, clusterP float64) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i == 0 && rng.Float64() < clusterP {
			b.WriteString(pick(rng, clusters))
		} else {
			b.WriteString(pick(rng, consonants))
		}
		b.WriteString(pick(rng, vowels))
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// CountryName derives a country name from its seed.
func CountryName(seed int64) string {
	rng := rand.New(rand.NewSource(seed))
	return capitalize(syllables(rng, 2+rng.Intn(2), 0.4) + pick(rng, countrySuffixes))
}

// ReligionName derives a religion name from its seed. An empty theme draws a
// random deity.
func ReligionName(seed int64, theme string) string {
	rng := rand.New(rand.NewSource(seed))
	tmpl := pick(rng, religionTemplates)
	if theme == "" {
		theme = pick(rng, deities)
	}
	return strings.Replace(tmpl, "%s", theme, 1)
}

// CultureName derives a culture name from its seed. Half of all cultures get
// a coined demonym, the rest a descriptive title.
func CultureName(seed int64) string {
	rng := rand.New(rand.NewSource(seed))
	if rng.Float64() < 0.5 {
		return capitalize(syllables(rng, 1+rng.Intn(2), 0.4) + pick(rng, cultureSuffixes))
	}
	tmpl := pick(rng, cultureTemplates)
	return strings.Replace(tmpl, "%s", pick(rng, cultureTraits), 1)
}

// nameBook hands out unique settlement names.
type nameBook struct {
	used map[string]bool
}

func newNameBook() *nameBook {
	return &nameBook{used: make(map[string]bool)}
}

// settlement returns a prefix+suffix name unique within the book. After a
// few collisions it falls back to a coined name.
func (nb *nameBook) settlement(seed int64) string {
	rng := rand.New(rand.NewSource(seed ^ 0x6e616d65))
	for try := 0; try < 8; try++ {
		name := pick(rng, namePrefixes) + pick(rng, nameSuffixes)
		if !nb.used[name] {
			nb.used[name] = true
			return name
		}
	}
	for {
		name := capitalize(syllables(rng, 2+rng.Intn(3), 0.3))
		if !nb.used[name] {
			nb.used[name] = true
			return name
		}
	}
}
