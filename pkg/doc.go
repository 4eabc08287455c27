// Package pkg provides the core libraries for the quadmap layout engine.
//
// # Overview
//
// Quadmap places qualitatively described items on a two-axis plane. Items
// carry categorical descriptors; a weight preset turns those descriptors
// into coordinates, a normalization mode calibrates the axes across the
// set, and a physics solver nudges overlapping items apart until every
// pair clears its safety radius.
//
// # Architecture
//
// The typical data flow:
//
//	JSON dataset (items + links)
//	         ↓
//	    [dataset] package (parse + validate)
//	         ↓
//	    [scoring] package (descriptors × preset → raw coordinates)
//	         ↓
//	    [normalize] package (per-axis calibration)
//	         ↓
//	    [solver] package (overlap resolution)
//	         ↓
//	    settled plane.Document
//
// # Main Packages
//
// [plane] - Shared geometry: points, items, links, and the settled variant
// document that every entry point produces.
//
// [scoring] - The descriptor score table, the weight presets, and the
// engine that maps items onto the plane.
//
// [normalize] - Axis calibration modes (none, zscore, percentile, minmax).
//
// [solver] - The force-based layout simulation: spring positioning,
// boundary containment, and pairwise collision separation.
//
// [transition] - Generation-guarded preset and mode switches over a live
// simulation, plus whole-tick snapshots for renderers.
//
// [pipeline] - The complete load → score → normalize → settle sequence
// used by both the CLI and the HTTP server, with variant caching.
//
// [api] - The HTTP server exposing live layout snapshots and transitions.
//
// [cache] / [store] - Variant caching (file, Redis) and document
// persistence (memory, MongoDB).
//
// [config] - The optional TOML configuration file.
//
// [observability] - Hook interfaces for instrumenting pipeline stages and
// solver ticks.
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    DatasetPath: "schools.json",
//	    Preset:      "base",
//	    Mode:        normalize.ModePercentile,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Document.VariantID())
//
// [plane]: https://pkg.go.dev/github.com/quadmap/quadmap/pkg/plane
// [scoring]: https://pkg.go.dev/github.com/quadmap/quadmap/pkg/scoring
// [normalize]: https://pkg.go.dev/github.com/quadmap/quadmap/pkg/normalize
// [solver]: https://pkg.go.dev/github.com/quadmap/quadmap/pkg/solver
// [transition]: https://pkg.go.dev/github.com/quadmap/quadmap/pkg/transition
// [pipeline]: https://pkg.go.dev/github.com/quadmap/quadmap/pkg/pipeline
// [api]: https://pkg.go.dev/github.com/quadmap/quadmap/pkg/api
// [cache]: https://pkg.go.dev/github.com/quadmap/quadmap/pkg/cache
// [store]: https://pkg.go.dev/github.com/quadmap/quadmap/pkg/store
// [config]: https://pkg.go.dev/github.com/quadmap/quadmap/pkg/config
// [observability]: https://pkg.go.dev/github.com/quadmap/quadmap/pkg/observability
package pkg
