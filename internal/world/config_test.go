package world

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	for _, cfg := range []GenConfig{DefaultGenConfig(), SmallTestConfig()} {
		if err := cfg.Validate(); err != nil {
			t.Fatalf("expected valid config, got %v", err)
		}
	}
}

func TestParseGenConfigLayersOverDefaults(t *testing.T) {
	cfg, err := ParseGenConfig([]byte("width: 120\nseed: 9\nerosion:\n  rain: 0.05\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 120 || cfg.Seed != 9 {
		t.Fatalf("expected width 120 seed 9, got %d %d", cfg.Width, cfg.Seed)
	}
	if cfg.Height != DefaultGenConfig().Height {
		t.Fatalf("expected default height, got %d", cfg.Height)
	}
	if cfg.Erosion.Rain != 0.05 || cfg.Erosion.Capacity != 2.0 {
		t.Fatalf("expected merged erosion params, got %+v", cfg.Erosion)
	}
}

func TestParseGenConfigSchemaErrors(t *testing.T) {
	cases := []string{
		"width: -5\n",
		"colour: blue\n",
		"erosion:\n  rain: 2\n",
		"strict: maybe\n",
	}
	for _, doc := range cases {
		if _, err := ParseGenConfig([]byte(doc)); err == nil || !strings.Contains(err.Error(), "config") {
			t.Fatalf("expected config error for %q, got %v", doc, err)
		}
	}
}

func TestParseGenConfigEmpty(t *testing.T) {
	cfg, err := ParseGenConfig(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != DefaultGenConfig().Width {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadGenConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	if err := os.WriteFile(path, []byte("width: 64\nheight: 48\nsettlement_count: 6\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadGenConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SettlementTarget() != 6 {
		t.Fatalf("expected 6 settlements, got %d", cfg.SettlementTarget())
	}

	if _, err := LoadGenConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestValidateDimensions(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Height = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("expected ErrInvalidDimensions, got %v", err)
	}
}

func TestSettlementTargetDefault(t *testing.T) {
	cfg := DefaultGenConfig()
	if got := cfg.SettlementTarget(); got != 16 {
		t.Fatalf("expected 16 settlements for 400x400, got %d", got)
	}
	cfg.Width, cfg.Height = 20, 20
	if got := cfg.SettlementTarget(); got != 1 {
		t.Fatalf("expected at least 1 settlement, got %d", got)
	}
}

func TestResolveSeed(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 77
	if cfg.ResolveSeed() != 77 {
		t.Fatal("explicit seed must be kept")
	}
	cfg.Seed = 0
	if cfg.ResolveSeed() == 0 {
		t.Fatal("zero seed must resolve to a time-derived one")
	}
}
