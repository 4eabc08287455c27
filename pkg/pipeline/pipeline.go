// Package pipeline provides the core layout pipeline for quadmap.
//
// This package implements the complete load → score → normalize → settle
// sequence that both the CLI and the HTTP server run. Centralizing it keeps
// caching, hashing, and provenance behavior identical across entry points.
//
// # Architecture
//
// One Execute call produces one settled variant document:
//
//  1. Load: read and validate the item dataset
//  2. Score: descriptors × weight preset → raw coordinates
//  3. Normalize: per-axis calibration across the item set
//  4. Settle: run the layout solver to resolve overlaps
//
// The settled result is a plane.Document, cacheable by dataset content plus
// every layout-determining parameter. Variants computes a whole grid of
// preset × normalization combinations in one call.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    DatasetPath: "schools.json",
//	    Preset:      "base",
//	    Mode:        normalize.ModePercentile,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	doc := result.Document
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/quadmap/quadmap/pkg/dataset"
	"github.com/quadmap/quadmap/pkg/errors"
	"github.com/quadmap/quadmap/pkg/normalize"
	"github.com/quadmap/quadmap/pkg/plane"
	"github.com/quadmap/quadmap/pkg/scoring"
	"github.com/quadmap/quadmap/pkg/solver"
)

// DefaultCacheTTL is how long cached variant documents stay valid. The
// computation is deterministic, so the TTL mostly bounds disk growth.
const DefaultCacheTTL = 24 * time.Hour

// Options configures one pipeline execution.
type Options struct {
	// DatasetPath is the JSON dataset file. Ignored when Dataset is set.
	DatasetPath string

	// Dataset supplies an already-loaded dataset, e.g. from the server.
	Dataset *dataset.Dataset

	// Preset is the weight preset name.
	Preset string

	// Mode is the normalization mode.
	Mode normalize.Mode

	// Solver carries the simulation tuning. Zero fields get defaults.
	Solver solver.Config

	// Table and Presets override the built-in scoring configuration.
	Table   scoring.Table
	Presets map[string]scoring.WeightPreset

	// SkipCache bypasses the variant cache for this run.
	SkipCache bool

	// CacheTTL overrides DefaultCacheTTL when positive.
	CacheTTL time.Duration

	// Generator is recorded in document provenance, usually the binary
	// version.
	Generator string

	// Logger receives progress output. Defaults to a discarding logger.
	Logger *log.Logger
}

// ValidateAndSetDefaults checks the options and fills defaults.
// Safe to call multiple times.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Dataset == nil && o.DatasetPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "either Dataset or DatasetPath is required")
	}
	if o.Preset == "" {
		o.Preset = scoring.PresetBase
	}
	if err := errors.ValidatePresetName(o.Preset); err != nil {
		return err
	}
	if o.Mode == "" {
		o.Mode = normalize.ModePercentile
	}
	if _, err := normalize.ParseMode(string(o.Mode)); err != nil {
		return err
	}
	if err := o.Solver.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.Logger == nil {
		o.Logger = discardLogger()
	}
	return nil
}

// Result is the outcome of one pipeline execution.
type Result struct {
	Document *plane.Document

	// Report carries the dataset validation findings.
	Report dataset.Report

	// Degradations lists descriptor values the score table did not know.
	Degradations []scoring.Degradation

	// Overlaps lists pairs still below the safety radius after settling.
	// Empty in healthy layouts.
	Overlaps []solver.Overlap

	// DatasetHash fingerprints the dataset content used.
	DatasetHash string

	// CacheHit reports whether the document came from the variant cache.
	CacheHit bool

	Stats Stats
}

// Stats captures per-stage timing.
type Stats struct {
	LoadTime   time.Duration
	ScoreTime  time.Duration
	SettleTime time.Duration
	Ticks      int
}
