// Package persistence keeps a SQLite catalog of generated worlds. The
// catalog is write-once per run: worlds are exported after generation and
// listed or inspected later, never loaded back into the pipeline.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/talgya/mapforge/internal/world"
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Catalog wraps a SQLite connection holding generation runs.
type Catalog struct {
	conn *sqlx.DB
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// WorldSummary is one catalogued generation run.
type WorldSummary struct {
	ID          string  `db:"id" json:"id"`
	Seed        int64   `db:"seed" json:"seed"`
	Width       int     `db:"width" json:"width"`
	Height      int     `db:"height" json:"height"`
	CreatedAt   string  `db:"created_at" json:"created_at"`
	Settlements int     `db:"settlements" json:"settlements"`
	Countries   int     `db:"countries" json:"countries"`
	Religions   int     `db:"religions" json:"religions"`
	Cultures    int     `db:"cultures" json:"cultures"`
	Rivers      int     `db:"rivers" json:"rivers"`
	Land        float64 `db:"land" json:"land"`
}

// SettlementRow is a catalogued settlement.
type SettlementRow struct {
	ID          int    `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	X           int    `db:"x" json:"x"`
	Y           int    `db:"y" json:"y"`
	Population  int    `db:"population" json:"population"`
	Size        string `db:"size" json:"size"`
	Government  string `db:"government" json:"government"`
	FoundedYear int    `db:"founded_year" json:"founded_year"`
	Country     int    `db:"country" json:"country"`
	Religion    int    `db:"religion" json:"religion"`
	Culture     int    `db:"culture" json:"culture"`
	IsCapital   bool   `db:"is_capital" json:"is_capital"`
}

// Open opens or creates a catalog at the given path.
func Open(path string) (*Catalog, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	conn.SetMaxOpenConns(1)

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	c := &Catalog{conn: conn, enc: enc, dec: dec}
	if err := c.migrate(); err != nil {
		c.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return c, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	c.enc.Close()
	c.dec.Close()
	return c.conn.Close()
}

func (c *Catalog) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS worlds (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		settlements INTEGER NOT NULL,
		countries INTEGER NOT NULL,
		religions INTEGER NOT NULL,
		cultures INTEGER NOT NULL,
		rivers INTEGER NOT NULL,
		land REAL NOT NULL,
		elevation BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settlements (
		world_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		name TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		population INTEGER NOT NULL,
		size TEXT NOT NULL,
		government TEXT NOT NULL,
		founded_year INTEGER NOT NULL,
		country INTEGER NOT NULL,
		religion INTEGER NOT NULL,
		culture INTEGER NOT NULL,
		is_capital INTEGER NOT NULL,
		resources_json TEXT NOT NULL,
		PRIMARY KEY (world_id, id)
	);

	CREATE TABLE IF NOT EXISTS countries (
		world_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		name TEXT NOT NULL,
		capital INTEGER NOT NULL,
		government TEXT NOT NULL,
		population INTEGER NOT NULL,
		founded_year INTEGER NOT NULL,
		religion INTEGER NOT NULL,
		culture INTEGER NOT NULL,
		color TEXT NOT NULL,
		regions INTEGER NOT NULL,
		PRIMARY KEY (world_id, id)
	);

	CREATE TABLE IF NOT EXISTS religions (
		world_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		name TEXT NOT NULL,
		cradle INTEGER NOT NULL,
		theme TEXT NOT NULL,
		founded_year INTEGER NOT NULL,
		followers INTEGER NOT NULL,
		PRIMARY KEY (world_id, id)
	);

	CREATE TABLE IF NOT EXISTS religion_events (
		world_id TEXT NOT NULL,
		religion_id INTEGER NOT NULL,
		year INTEGER NOT NULL,
		kind TEXT NOT NULL,
		description TEXT NOT NULL,
		location INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cultures (
		world_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		name TEXT NOT NULL,
		origin_region INTEGER NOT NULL,
		climate_type TEXT NOT NULL,
		variant INTEGER NOT NULL,
		traits_json TEXT NOT NULL,
		influenced_by_json TEXT NOT NULL,
		PRIMARY KEY (world_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_worlds_created ON worlds(created_at);
	CREATE INDEX IF NOT EXISTS idx_events_world ON religion_events(world_id, religion_id);
	`
	_, err := c.conn.Exec(schema)
	return err
}

// SaveWorld writes a generated world in one transaction and returns its
// run id.
func (c *Catalog) SaveWorld(w *world.World) (string, error) {
	if w.Elevation == nil {
		return "", fmt.Errorf("save world: %w", world.ErrInvalidDimensions)
	}
	id := uuid.NewString()
	blob := c.enc.EncodeAll(w.Elevation.Cells, nil)

	tx, err := c.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO worlds
		(id, seed, width, height, created_at, settlements, countries,
		 religions, cultures, rivers, land, elevation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, w.Seed, w.Width, w.Height, time.Now().UTC().Format(timeLayout),
		len(w.Settlements), len(w.Countries), len(w.Religions), len(w.Cultures),
		len(w.Rivers), w.Elevation.LandFraction(), blob,
	)
	if err != nil {
		return "", fmt.Errorf("insert world: %w", err)
	}

	for _, s := range w.Settlements {
		resJSON, _ := json.Marshal(s.Resources)
		capital := 0
		if s.IsCapital {
			capital = 1
		}
		_, err := tx.Exec(`INSERT INTO settlements
			(world_id, id, name, x, y, population, size, government, founded_year,
			 country, religion, culture, is_capital, resources_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, s.ID, s.Name, s.Position.X, s.Position.Y, s.Population, string(s.Size),
			string(s.Government), s.FoundedYear, s.Country, s.Religion, s.Culture,
			capital, string(resJSON),
		)
		if err != nil {
			return "", fmt.Errorf("insert settlement %d: %w", s.ID, err)
		}
	}

	for _, co := range w.Countries {
		_, err := tx.Exec(`INSERT INTO countries
			(world_id, id, name, capital, government, population, founded_year,
			 religion, culture, color, regions)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, co.ID, co.Name, co.Capital, string(co.Government), co.Population,
			co.FoundedYear, co.Religion, co.Culture,
			fmt.Sprintf("#%02x%02x%02x", co.Color.R, co.Color.G, co.Color.B), len(co.Regions),
		)
		if err != nil {
			return "", fmt.Errorf("insert country %d: %w", co.ID, err)
		}
	}

	for _, r := range w.Religions {
		followers := 0
		for _, n := range r.Followers {
			followers += n
		}
		_, err := tx.Exec(`INSERT INTO religions
			(world_id, id, name, cradle, theme, founded_year, followers)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, r.ID, r.Name, r.Cradle, r.Theme, r.FoundedYear, followers,
		)
		if err != nil {
			return "", fmt.Errorf("insert religion %d: %w", r.ID, err)
		}
		for _, e := range r.Events {
			_, err := tx.Exec(`INSERT INTO religion_events
				(world_id, religion_id, year, kind, description, location)
				VALUES (?, ?, ?, ?, ?, ?)`,
				id, r.ID, e.Year, e.Kind, e.Description, e.Location,
			)
			if err != nil {
				return "", fmt.Errorf("insert religion %d event: %w", r.ID, err)
			}
		}
	}

	for _, cu := range w.Cultures {
		traitsJSON, _ := json.Marshal(cu.Traits)
		influencedJSON, _ := json.Marshal(cu.InfluencedBy)
		variant := 0
		if cu.Variant {
			variant = 1
		}
		_, err := tx.Exec(`INSERT INTO cultures
			(world_id, id, name, origin_region, climate_type, variant,
			 traits_json, influenced_by_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, cu.ID, cu.Name, cu.OriginRegion, cu.ClimateType, variant,
			string(traitsJSON), string(influencedJSON),
		)
		if err != nil {
			return "", fmt.Errorf("insert culture %d: %w", cu.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	slog.Info("world catalogued", "id", id, "seed", w.Seed,
		"elevation_bytes", len(blob), "raw_bytes", len(w.Elevation.Cells))
	return id, nil
}

// Worlds returns the most recent catalogued runs, newest first.
func (c *Catalog) Worlds(limit int) ([]WorldSummary, error) {
	var out []WorldSummary
	err := c.conn.Select(&out, `SELECT id, seed, width, height, created_at, settlements,
		countries, religions, cultures, rivers, land
		FROM worlds ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	return out, err
}

// World returns one run's summary.
func (c *Catalog) World(id string) (WorldSummary, error) {
	var out WorldSummary
	err := c.conn.Get(&out, `SELECT id, seed, width, height, created_at, settlements,
		countries, religions, cultures, rivers, land
		FROM worlds WHERE id = ?`, id)
	return out, err
}

// Settlements returns one run's settlements ordered by id.
func (c *Catalog) Settlements(id string) ([]SettlementRow, error) {
	var out []SettlementRow
	err := c.conn.Select(&out, `SELECT id, name, x, y, population, size, government,
		founded_year, country, religion, culture, is_capital
		FROM settlements WHERE world_id = ? ORDER BY id`, id)
	return out, err
}

// Elevation decompresses one run's elevation raster.
func (c *Catalog) Elevation(id string) (*world.HeightGrid, error) {
	var row struct {
		Width  int    `db:"width"`
		Height int    `db:"height"`
		Blob   []byte `db:"elevation"`
	}
	if err := c.conn.Get(&row, "SELECT width, height, elevation FROM worlds WHERE id = ?", id); err != nil {
		return nil, err
	}
	cells, err := c.dec.DecodeAll(row.Blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress elevation: %w", err)
	}
	g, err := world.NewHeightGrid(row.Width, row.Height)
	if err != nil {
		return nil, err
	}
	if len(cells) != len(g.Cells) {
		return nil, fmt.Errorf("elevation for %s: %d cells, want %d", id, len(cells), len(g.Cells))
	}
	copy(g.Cells, cells)
	return g, nil
}
