package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/quadmap/quadmap/pkg/cache"
	"github.com/quadmap/quadmap/pkg/dataset"
	"github.com/quadmap/quadmap/pkg/errors"
	"github.com/quadmap/quadmap/pkg/normalize"
	"github.com/quadmap/quadmap/pkg/observability"
	"github.com/quadmap/quadmap/pkg/plane"
	"github.com/quadmap/quadmap/pkg/scoring"
	"github.com/quadmap/quadmap/pkg/solver"
	"github.com/quadmap/quadmap/pkg/store"
	"github.com/quadmap/quadmap/pkg/transition"
)

// Runner executes the layout pipeline with caching and optional publishing.
//
// The Runner is stateless except for its collaborators - it doesn't hold
// pipeline results. Multiple goroutines can safely share one Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  store.Store // optional: settled documents are published here
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// Execute runs the complete load → score → normalize → settle pipeline for
// one preset/normalization combination.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	ds, report, raw, err := r.loadDataset(opts)
	if err != nil {
		return nil, err
	}
	result.Report = report
	result.DatasetHash = cache.Hash(raw)
	result.Stats.LoadTime = time.Since(loadStart)
	if !report.Clean() {
		logger.Warn("dataset has findings", "count", len(report.Findings))
	}
	logger.Info("loaded dataset",
		"items", len(ds.Items),
		"links", len(ds.Links),
		"duration", result.Stats.LoadTime)

	// Cache check: the variant key covers everything that determines the
	// settled layout.
	key := r.variantKey(result.DatasetHash, opts)
	if !opts.SkipCache {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if doc, err := plane.UnmarshalDocument(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "variant")
				logger.Info("variant cache hit", "variant", doc.VariantID())
				result.Document = &doc
				result.CacheHit = true
				result.Overlaps = solver.Overlaps(doc.Items, opts.Solver.Radii)
				return result, nil
			}
			// Corrupt entry: drop it and recompute.
			_ = r.Cache.Delete(ctx, key)
		}
		observability.Cache().OnCacheMiss(ctx, "variant")
	}

	// Stage 2+3: Score and normalize into targets.
	scoreStart := time.Now()
	eng := scoring.NewEngine(opts.Table, opts.Presets)
	observability.Pipeline().OnScoreStart(ctx, opts.Preset, len(ds.Items))
	targets, degraded, err := transition.ComputeTargets(eng, ds.Items, opts.Preset, opts.Mode, opts.Solver.Seed)
	observability.Pipeline().OnScoreComplete(ctx, opts.Preset, len(degraded), time.Since(scoreStart), err)
	if err != nil {
		return nil, err
	}
	observability.Pipeline().OnNormalize(ctx, string(opts.Mode))
	result.Degradations = degraded
	result.Stats.ScoreTime = time.Since(scoreStart)
	if len(degraded) > 0 {
		logger.Warn("descriptors degraded to zero contribution", "count", len(degraded))
	}

	// Stage 4: Settle.
	settleStart := time.Now()
	observability.Pipeline().OnSettleStart(ctx, opts.Preset, string(opts.Mode), len(ds.Items))
	items := make([]plane.Item, len(ds.Items))
	copy(items, ds.Items)
	for i := range items {
		items[i].Target = targets[i]
	}
	state := solver.Settle(solver.NewState(items), opts.Solver)
	result.Stats.SettleTime = time.Since(settleStart)
	result.Stats.Ticks = state.Tick
	result.Overlaps = solver.Overlaps(state.Items, opts.Solver.Radii)
	observability.Pipeline().OnSettleComplete(ctx, opts.Preset, string(opts.Mode),
		state.Tick, len(result.Overlaps), result.Stats.SettleTime, nil)

	logger.Info("settled layout",
		"preset", opts.Preset,
		"mode", opts.Mode,
		"ticks", state.Tick,
		"overlaps", len(result.Overlaps),
		"duration", result.Stats.SettleTime)

	doc := plane.Document{
		Preset:        opts.Preset,
		Normalization: string(opts.Mode),
		Seed:          opts.Solver.Seed,
		Items:         state.Items,
		Links:         ds.Links,
		GeneratedAt:   time.Now().UTC(),
		Generator:     opts.Generator,
	}
	result.Document = &doc

	if !opts.SkipCache {
		if data, err := plane.MarshalDocument(doc); err == nil {
			if err := r.Cache.Set(ctx, key, data, opts.CacheTTL); err != nil {
				logger.Warn("variant cache write failed", "err", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "variant", len(data))
			}
		}
	}

	if r.Store != nil {
		err := cache.RetryWithBackoff(ctx, func() error {
			return r.Store.Put(ctx, &doc)
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "publish variant %s", doc.VariantID())
		}
		logger.Info("published variant", "variant", doc.VariantID())
	}

	return result, nil
}

// VariantResult pairs a computed variant with where it was written.
type VariantResult struct {
	Result *Result
	Path   string
}

// Variants computes the full preset × mode grid and writes one document file
// per combination into outDir (<preset>-<mode>.json). A configuration error
// on any combination fails the whole run; data findings do not.
func (r *Runner) Variants(ctx context.Context, base Options, presets []string, modes []normalize.Mode, outDir string) ([]VariantResult, error) {
	if len(presets) == 0 || len(modes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "variants need at least one preset and one mode")
	}
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "create output dir %s", outDir)
		}
	}

	var out []VariantResult
	for _, preset := range presets {
		for _, mode := range modes {
			opts := base
			opts.Preset = preset
			opts.Mode = mode

			res, err := r.Execute(ctx, opts)
			if err != nil {
				return nil, err
			}

			vr := VariantResult{Result: res}
			if outDir != "" {
				vr.Path = filepath.Join(outDir, fmt.Sprintf("%s-%s.json", preset, mode))
				if err := plane.WriteDocumentFile(*res.Document, vr.Path); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInternal, err, "write variant %s", vr.Path)
				}
			}
			out = append(out, vr)
		}
	}
	return out, nil
}

// loadDataset resolves the dataset from the options and returns it together
// with the canonical bytes used for content hashing.
func (r *Runner) loadDataset(opts Options) (*dataset.Dataset, dataset.Report, []byte, error) {
	if opts.Dataset != nil {
		raw, err := json.Marshal(opts.Dataset)
		if err != nil {
			return nil, dataset.Report{}, nil, errors.Wrap(errors.ErrCodeInternal, err, "hash dataset")
		}
		return opts.Dataset, opts.Dataset.Validate(opts.Table), raw, nil
	}

	raw, err := os.ReadFile(opts.DatasetPath)
	if err != nil {
		return nil, dataset.Report{}, nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "read dataset %s", opts.DatasetPath)
	}
	ds, report, err := dataset.Parse(raw)
	if err != nil {
		return nil, dataset.Report{}, nil, err
	}
	return ds, report, raw, nil
}

// variantKey builds the cache key for the current options.
func (r *Runner) variantKey(datasetHash string, opts Options) string {
	tuning, _ := json.Marshal(opts.Solver)
	return r.Keyer.VariantKey(datasetHash, cache.VariantKeyOpts{
		Preset:        opts.Preset,
		Normalization: string(opts.Mode),
		Seed:          opts.Solver.Seed,
		SolverHash:    cache.Hash(tuning),
	})
}
