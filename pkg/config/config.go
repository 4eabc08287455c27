// Package config loads the optional TOML configuration file and translates
// it into the typed options the engine packages expect. Every setting has an
// in-code default; a missing file is not an error unless a path was given
// explicitly.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/quadmap/quadmap/pkg/errors"
	"github.com/quadmap/quadmap/pkg/normalize"
	"github.com/quadmap/quadmap/pkg/plane"
	"github.com/quadmap/quadmap/pkg/scoring"
	"github.com/quadmap/quadmap/pkg/solver"
)

// Config is the root of the TOML file.
type Config struct {
	Solver    SolverConfig       `toml:"solver"`
	Scoring   ScoringConfig      `toml:"scoring"`
	Normalize NormalizeConfig    `toml:"normalize"`
	Radii     map[string]float64 `toml:"radii"`
	Server    ServerConfig       `toml:"server"`
	Cache     CacheConfig        `toml:"cache"`
	Store     StoreConfig        `toml:"store"`
}

// SolverConfig mirrors solver.Config for the TOML surface.
type SolverConfig struct {
	Stiffness           float64 `toml:"stiffness"`
	Damping             float64 `toml:"damping"`
	CollisionEnabled    *bool   `toml:"collision_enabled"`
	CollisionPolicy     string  `toml:"collision_policy"`
	CollisionStrength   float64 `toml:"collision_strength"`
	CollisionIterations int     `toml:"collision_iterations"`
	CollisionMargin     float64 `toml:"collision_margin"`
	BoundaryStrength    float64 `toml:"boundary_strength"`
	BoundaryBand        float64 `toml:"boundary_band"`
	MaxForce            float64 `toml:"max_force"`
	MaxTicks            int     `toml:"max_ticks"`
	EnergyEpsilon       float64 `toml:"energy_epsilon"`
	Seed                uint64  `toml:"seed"`
}

// ScoringConfig selects the default weighting.
type ScoringConfig struct {
	DefaultPreset string `toml:"default_preset"`
}

// NormalizeConfig selects the default calibration mode.
type NormalizeConfig struct {
	DefaultMode string `toml:"default_mode"`
}

// ServerConfig tunes the HTTP snapshot server.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	TickInterval duration `toml:"tick_interval"`
}

// CacheConfig selects the variant cache backend.
type CacheConfig struct {
	Backend   string   `toml:"backend"` // file, redis, or none
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       duration `toml:"ttl"`
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Backend    string `toml:"backend"` // memory or mongo
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// duration lets TOML carry values like "250ms" or "1h".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// Std returns the duration as a time.Duration.
func (d duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Scoring:   ScoringConfig{DefaultPreset: scoring.PresetBase},
		Normalize: NormalizeConfig{DefaultMode: string(normalize.ModePercentile)},
		Server: ServerConfig{
			Addr:         ":8623",
			TickInterval: duration(50 * time.Millisecond),
		},
		Cache: CacheConfig{
			Backend: "file",
			TTL:     duration(24 * time.Hour),
		},
		Store: StoreConfig{
			Backend:    "memory",
			Database:   "quadmap",
			Collection: "variants",
		},
	}
}

// Load reads a TOML file over the defaults. An empty path returns the
// defaults; a named path must exist and parse.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the cross-cutting settings. Solver tuning is validated by
// SolverOptions when it is materialized.
func (c Config) Validate() error {
	if err := errors.ValidatePresetName(c.Scoring.DefaultPreset); err != nil {
		return err
	}
	if _, err := normalize.ParseMode(c.Normalize.DefaultMode); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case "memory", "mongo":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", c.Store.Backend)
	}
	for name := range c.Radii {
		switch plane.SizeCategory(name) {
		case plane.SizeSmall, plane.SizeMedium, plane.SizeLarge:
		default:
			return errors.New(errors.ErrCodeInvalidConfig, "unknown size category %q in [radii]", name)
		}
	}
	if c.Server.TickInterval < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server tick_interval must be positive")
	}
	return nil
}

// SolverOptions materializes the solver tuning, filling unset fields with
// the engine defaults.
func (c Config) SolverOptions() (solver.Config, error) {
	out := solver.Config{
		Stiffness:           c.Solver.Stiffness,
		Damping:             c.Solver.Damping,
		CollisionEnabled:    true,
		CollisionPolicy:     solver.CollisionPolicy(c.Solver.CollisionPolicy),
		CollisionStrength:   c.Solver.CollisionStrength,
		CollisionIterations: c.Solver.CollisionIterations,
		CollisionMargin:     c.Solver.CollisionMargin,
		BoundaryStrength:    c.Solver.BoundaryStrength,
		BoundaryBand:        c.Solver.BoundaryBand,
		MaxForce:            c.Solver.MaxForce,
		MaxTicks:            c.Solver.MaxTicks,
		EnergyEpsilon:       c.Solver.EnergyEpsilon,
		Seed:                c.Solver.Seed,
		Radii:               c.RadiusTable(),
	}
	if c.Solver.CollisionEnabled != nil {
		out.CollisionEnabled = *c.Solver.CollisionEnabled
	}
	if err := out.ValidateAndSetDefaults(); err != nil {
		return solver.Config{}, err
	}
	return out, nil
}

// RadiusTable builds the size→radius mapping, overlaying any [radii]
// entries on the defaults.
func (c Config) RadiusTable() plane.RadiusTable {
	table := plane.RadiusTable{}
	for k, v := range plane.DefaultRadii {
		table[k] = v
	}
	for k, v := range c.Radii {
		table[plane.SizeCategory(k)] = v
	}
	return table
}

// DefaultMode returns the configured normalization mode. Validate has
// already guaranteed it parses.
func (c Config) DefaultMode() normalize.Mode {
	m, _ := normalize.ParseMode(c.Normalize.DefaultMode)
	return m
}
