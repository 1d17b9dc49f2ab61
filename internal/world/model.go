package world

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/mapforge/internal/voronoi"
)

// Country governments, distinct from the local settlement ones.
const (
	GovMonarchy    Government = "Monarchy"
	GovDemocracy   Government = "Democracy"
	GovTheocracy   Government = "Theocracy"
	GovOligarchy   Government = "Oligarchy"
	GovFederation  Government = "Federation"
	GovAristocracy Government = "Aristocracy"
)

// CountryGovernments lists the national governments in draw order.
var CountryGovernments = []Government{GovMonarchy, GovDemocracy, GovTheocracy, GovOligarchy, GovFederation, GovAristocracy}

// Relation is a country's stance toward a bordering country.
type Relation string

// Relations between bordering countries.
const (
	RelationAlly    Relation = "ally"
	RelationTrade   Relation = "trade"
	RelationNeutral Relation = "neutral"
	RelationEnemy   Relation = "enemy"
)

// RGB is a display color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Country is a political territory grown from a capital.
type Country struct {
	ID          int              `json:"id"`
	Name        string           `json:"name"`
	Seed        int64            `json:"seed"`
	Color       RGB              `json:"color"`
	Capital     int              `json:"capital"` // settlement id, NoID once fallen
	Regions     []int            `json:"regions"`
	Members     []int            `json:"members"`
	Population  int              `json:"population"`
	Government  Government       `json:"government"`
	Religion    int              `json:"religion"`
	Culture     int              `json:"culture"`
	FoundedYear int              `json:"founded_year"`
	Resources   map[Resource]int `json:"resources"`
	Relations   map[int]Relation `json:"relations"` // bordering country id -> stance
}

// Event kinds in a religion's history.
const (
	EventFoundation = "foundation"
	EventConversion = "conversion"
)

// Event is one entry of a religion's history.
type Event struct {
	Year        int    `json:"year"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Location    int    `json:"location"` // settlement id
}

// Religion is a belief spreading over the settlement graph.
type Religion struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Seed        int64       `json:"seed"`
	Cradle      int         `json:"cradle"` // settlement id
	Theme       string      `json:"theme"`
	FoundedYear int         `json:"founded_year"`
	Followers   map[int]int `json:"followers"` // settlement id -> followers
	Events      []Event     `json:"events"`
}

// Traits describe a culture.
type Traits struct {
	Values       []string `json:"values"`
	Architecture string   `json:"architecture"`
	Symbols      []string `json:"symbols"`
}

// Culture is a tradition spreading over the region graph.
type Culture struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Seed         int64           `json:"seed"`
	OriginRegion int             `json:"origin_region"`
	ClimateType  string          `json:"climate_type"`
	Traits       Traits          `json:"traits"`
	Influence    map[int]float64 `json:"influence"` // region id -> influence
	InfluencedBy []int           `json:"influenced_by,omitempty"`
	Variant      bool            `json:"variant"` // border-mixed offshoot
}

// World is the committed output of a generation run. Entities live in dense
// arenas and reference each other by index.
type World struct {
	Width  int   `json:"width"`
	Height int   `json:"height"`
	Seed   int64 `json:"seed"`

	Elevation   *HeightGrid  `json:"elevation"`
	Climate     *HeightGrid  `json:"climate"`
	Biomes      []Biome      `json:"-"`
	Rivers      []River      `json:"rivers"`
	Settlements []Settlement `json:"settlements"`

	Diagram          *voronoi.Diagram `json:"regions"`
	RegionSettlement []int            `json:"-"` // region -> settlement id, NoID for filler regions
	RegionCountry    []int            `json:"region_country"`
	RegionInfluence  []float64        `json:"-"`
	RegionCulture    []int            `json:"region_culture"`

	Countries []Country  `json:"countries"`
	Religions []Religion `json:"religions"`
	Cultures  []Culture  `json:"cultures"`
	Roads     []Polyline `json:"roads"`

	RegionGrid   []int32 `json:"-"`
	CountryGrid  []int32 `json:"-"`
	ReligionGrid []int32 `json:"-"`
	CultureGrid  []int32 `json:"-"`
}

// RegionCount returns the number of Voronoi regions.
func (w *World) RegionCount() int {
	if w.Diagram == nil {
		return 0
	}
	return len(w.Diagram.Cells)
}

// RegionReligion returns the religion shown for each region: its own
// settlement's, or the nearest settlement's for filler regions.
func (w *World) RegionReligion() []int {
	out := make([]int, w.RegionCount())
	if len(out) == 0 {
		return out
	}
	for r, c := range w.Diagram.Cells {
		out[r] = NoID
		s := NoID
		if r < len(w.RegionSettlement) {
			s = w.RegionSettlement[r]
		}
		if s == NoID {
			s = w.NearestSettlement(Point{X: int(c.Origin.X), Y: int(c.Origin.Y)})
		}
		if s != NoID {
			out[r] = w.Settlements[s].Religion
		}
	}
	return out
}

// NearestSettlement returns the id of the settlement closest to p (lowest id
// on ties), or NoID when there are none.
func (w *World) NearestSettlement(p Point) int {
	best, bestD := NoID, 0
	for i := range w.Settlements {
		dx := w.Settlements[i].Position.X - p.X
		dy := w.Settlements[i].Position.Y - p.Y
		if d := dx*dx + dy*dy; best == NoID || d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// RasterizeRegions assigns every grid cell to the region with the nearest
// origin. Rows run concurrently.
func RasterizeRegions(ctx context.Context, w, h int, d *voronoi.Diagram, workers int) ([]int32, error) {
	out := make([]int32, w*h)
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for y := 0; y < h; y++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for x := 0; x < w; x++ {
				out[y*w+x] = int32(d.Nearest(voronoi.Vec{X: float64(x), Y: float64(y)}))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Rasterize builds the region, country, religion and culture id grids used
// for display.
func (w *World) Rasterize(ctx context.Context, workers int) error {
	regions, err := RasterizeRegions(ctx, w.Width, w.Height, w.Diagram, workers)
	if err != nil {
		return err
	}
	religion := w.RegionReligion()

	w.RegionGrid = regions
	w.CountryGrid = make([]int32, len(regions))
	w.ReligionGrid = make([]int32, len(regions))
	w.CultureGrid = make([]int32, len(regions))
	for i, r := range regions {
		if r < 0 {
			w.CountryGrid[i], w.ReligionGrid[i], w.CultureGrid[i] = NoID, NoID, NoID
			continue
		}
		w.CountryGrid[i] = idAt(w.RegionCountry, int(r))
		w.ReligionGrid[i] = idAt(religion, int(r))
		w.CultureGrid[i] = idAt(w.RegionCulture, int(r))
	}
	return nil
}

func idAt(ids []int, i int) int32 {
	if i < 0 || i >= len(ids) {
		return NoID
	}
	return int32(ids[i])
}
