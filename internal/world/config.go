package world

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// GenConfig holds world generation parameters.
// Render-only settings never live here: generation output depends on these
// fields alone.
type GenConfig struct {
	Width  int   `yaml:"width" json:"width"`
	Height int   `yaml:"height" json:"height"`
	Seed   int64 `yaml:"seed" json:"seed"` // 0 = time-derived, not reproducible

	ErosionPasses int           `yaml:"erosion_passes" json:"erosion_passes"`
	Erosion       ErosionParams `yaml:"erosion" json:"erosion"`

	SettlementCount int `yaml:"settlement_count" json:"settlement_count"` // 0 = one per 10,000 cells
	RiverWidth      int `yaml:"river_width" json:"river_width"`

	ReligionRadius float64 `yaml:"religion_radius" json:"religion_radius"` // settlement graph link radius
	BaseYear       int     `yaml:"base_year" json:"base_year"`             // "present" year for founding dates
	RoadLinks      int     `yaml:"road_links" json:"road_links"`           // nearest neighbors linked by roads

	// Strict turns structural invariant violations into errors instead of
	// skipping the offending item.
	Strict  bool `yaml:"strict" json:"strict"`
	Workers int  `yaml:"workers" json:"workers"` // 0 = GOMAXPROCS
}

// ErosionParams tunes the hydraulic erosion automaton.
type ErosionParams struct {
	Rain         float64 `yaml:"rain" json:"rain"`
	Evaporation  float64 `yaml:"evaporation" json:"evaporation"`
	Capacity     float64 `yaml:"capacity" json:"capacity"`
	ErosionRate  float64 `yaml:"erosion_rate" json:"erosion_rate"`
	Deposition   float64 `yaml:"deposition_rate" json:"deposition_rate"`
	WetThreshold uint8   `yaml:"wet_threshold" json:"wet_threshold"`
}

// DefaultErosionParams returns the standard automaton constants.
func DefaultErosionParams() ErosionParams {
	return ErosionParams{
		Rain:         0.01,
		Evaporation:  0.02,
		Capacity:     2.0,
		ErosionRate:  0.3,
		Deposition:   0.1,
		WetThreshold: 128,
	}
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:          400,
		Height:         400,
		Seed:           0,
		ErosionPasses:  200,
		Erosion:        DefaultErosionParams(),
		RiverWidth:     3,
		ReligionRadius: 40,
		BaseYear:       1000,
		RoadLinks:      2,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Width = 80
	cfg.Height = 80
	cfg.Seed = 12345
	cfg.ErosionPasses = 50
	cfg.SettlementCount = 10
	cfg.Strict = true
	return cfg
}

// Validate checks the configuration for fatal problems.
func (c GenConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, c.Width, c.Height)
	}
	if c.ErosionPasses < 0 {
		return fmt.Errorf("erosion_passes must be >= 0, got %d", c.ErosionPasses)
	}
	if c.SettlementCount < 0 {
		return fmt.Errorf("settlement_count must be >= 0, got %d", c.SettlementCount)
	}
	e := c.Erosion
	for name, v := range map[string]float64{
		"rain":            e.Rain,
		"evaporation":     e.Evaporation,
		"erosion_rate":    e.ErosionRate,
		"deposition_rate": e.Deposition,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("erosion.%s must be within [0,1], got %g", name, v)
		}
	}
	if e.Capacity < 0 {
		return fmt.Errorf("erosion.capacity must be >= 0, got %g", e.Capacity)
	}
	return nil
}

// ResolveSeed returns the configured seed, or a time-derived one when it is 0.
func (c GenConfig) ResolveSeed() int64 {
	if c.Seed != 0 {
		return c.Seed
	}
	seed := time.Now().UnixNano()
	if seed == 0 {
		seed = 1
	}
	return seed
}

// SettlementTarget returns how many settlements placement should aim for.
func (c GenConfig) SettlementTarget() int {
	if c.SettlementCount > 0 {
		return c.SettlementCount
	}
	n := c.Width * c.Height / 10000
	if n < 1 {
		n = 1
	}
	return n
}

//go:embed config.schema.json
var configSchema string

var compiledSchema = jsonschema.MustCompileString("config.schema.json", configSchema)

// LoadGenConfig reads a YAML config file layered over DefaultGenConfig.
// The raw document is checked against the embedded schema before decoding.
func LoadGenConfig(path string) (GenConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return GenConfig{}, err
	}
	return ParseGenConfig(raw)
}

// ParseGenConfig decodes YAML config bytes layered over DefaultGenConfig.
func ParseGenConfig(raw []byte) (GenConfig, error) {
	cfg := DefaultGenConfig()

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return cfg, fmt.Errorf("config yaml: %w", err)
	}
	if doc != nil {
		if err := validateSchema(doc); err != nil {
			return cfg, err
		}
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// validateSchema round-trips the YAML document through JSON so the
// validator sees the same value types it would for a JSON document.
func validateSchema(doc any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	if err := compiledSchema.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("config schema: %s", ve.Error())
		}
		return fmt.Errorf("config schema: %w", err)
	}
	return nil
}
