package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quadmap/quadmap/pkg/errors"
	"github.com/quadmap/quadmap/pkg/normalize"
	"github.com/quadmap/quadmap/pkg/plane"
	"github.com/quadmap/quadmap/pkg/solver"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quadmap.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scoring.DefaultPreset != "base" {
		t.Errorf("default preset = %q", cfg.Scoring.DefaultPreset)
	}
	if cfg.DefaultMode() != normalize.ModePercentile {
		t.Errorf("default mode = %v", cfg.DefaultMode())
	}

	sc, err := cfg.SolverOptions()
	if err != nil {
		t.Fatalf("SolverOptions: %v", err)
	}
	if sc.Stiffness != solver.DefaultStiffness || !sc.CollisionEnabled {
		t.Errorf("solver defaults not applied: %+v", sc)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[solver]
stiffness = 0.2
collision_policy = "per-pair"
collision_enabled = false
seed = 42

[scoring]
default_preset = "state-emphasis"

[normalize]
default_mode = "zscore"

[radii]
large = 0.12

[server]
addr = ":9000"
tick_interval = "100ms"

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "1h"

[store]
backend = "mongo"
mongo_uri = "mongodb://localhost:27017"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	sc, err := cfg.SolverOptions()
	if err != nil {
		t.Fatalf("SolverOptions: %v", err)
	}
	if sc.Stiffness != 0.2 || sc.CollisionPolicy != solver.CollisionPerPair || sc.Seed != 42 {
		t.Errorf("solver overrides lost: %+v", sc)
	}
	if sc.CollisionEnabled {
		t.Error("collision_enabled = false not honored")
	}
	// Untouched fields keep their defaults.
	if sc.MaxTicks != solver.DefaultMaxTicks {
		t.Errorf("max_ticks = %d, want default", sc.MaxTicks)
	}

	if cfg.Scoring.DefaultPreset != "state-emphasis" || cfg.DefaultMode() != normalize.ModeZScore {
		t.Errorf("scoring/normalize overrides lost: %+v", cfg)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.TickInterval.Std() != 100*time.Millisecond {
		t.Errorf("server overrides lost: %+v", cfg.Server)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.TTL.Std() != time.Hour {
		t.Errorf("cache overrides lost: %+v", cfg.Cache)
	}
	if cfg.Store.Backend != "mongo" {
		t.Errorf("store overrides lost: %+v", cfg.Store)
	}

	radii := cfg.RadiusTable()
	if radii.Radius(plane.SizeLarge) != 0.12 {
		t.Errorf("large radius = %v, want 0.12", radii.Radius(plane.SizeLarge))
	}
	if radii.Radius(plane.SizeSmall) != plane.DefaultRadii[plane.SizeSmall] {
		t.Error("unlisted radii must keep defaults")
	}
}

func TestLoadRejections(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"bad toml", `[solver`},
		{"bad mode", "[normalize]\ndefault_mode = \"quantile\""},
		{"bad cache backend", "[cache]\nbackend = \"memcached\""},
		{"bad store backend", "[store]\nbackend = \"dynamo\""},
		{"bad size category", "[radii]\nhuge = 0.5"},
		{"bad duration", "[server]\ntick_interval = \"fast\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.in))
			if err == nil {
				t.Fatal("expected error")
			}
			if code := errors.GetCode(err); code != errors.ErrCodeInvalidConfig && code != errors.ErrCodeInvalidNormalization {
				t.Errorf("code = %v", code)
			}
		})
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want INVALID_CONFIG", err)
	}
}
