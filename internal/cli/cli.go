// Package cli implements the quadmap command-line interface.
//
// This package provides commands for scoring item datasets onto the plane,
// settling layouts, generating variant grids, serving live layouts over
// HTTP, and managing the variant cache. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - score: Compute target coordinates for a dataset without settling
//   - settle: Run the full pipeline and write a settled variant document
//   - variants: Compute the whole preset × normalization grid
//   - overlaps: Report residual overlaps in a settled document
//   - serve: Run the live layout HTTP server
//   - watch: Interactive terminal view of a settling layout
//   - cache: Manage the variant cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/quadmap/quadmap/pkg/buildinfo"
	"github.com/quadmap/quadmap/pkg/cache"
	"github.com/quadmap/quadmap/pkg/config"
	"github.com/quadmap/quadmap/pkg/pipeline"
	"github.com/quadmap/quadmap/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "quadmap"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "quadmap",
		Short:        "Quadmap places labeled items on a 2D plane",
		Long:         `Quadmap is a layout engine for qualitative datasets: items described by categorical descriptors are scored onto a two-axis plane, calibrated across the set, and settled by a physics solver until no two items overlap.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.scoreCommand())
	root.AddCommand(c.settleCommand())
	root.AddCommand(c.variantsCommand())
	root.AddCommand(c.overlapsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner wired to the configured cache and
// store backends.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool) (*pipeline.Runner, func(), error) {
	cc, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, nil, err
	}

	runner := pipeline.NewRunner(cc, nil, c.Logger)

	var st store.Store
	if cfg.Store.Backend == "mongo" {
		st, err = store.NewMongoStore(ctx, store.MongoOptions{
			URI:        cfg.Store.MongoURI,
			Database:   cfg.Store.Database,
			Collection: cfg.Store.Collection,
		})
		if err != nil {
			_ = cc.Close()
			return nil, nil, err
		}
		runner.Store = st
	}

	cleanup := func() {
		_ = cc.Close()
		if st != nil {
			_ = st.Close(context.Background())
		}
	}
	return runner, cleanup, nil
}

func newCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Backend == "none" {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == "redis" {
		return cache.NewRedisCache(ctx, cfg.RedisAddr)
	}
	dir := cfg.Dir
	if dir == "" {
		var err error
		dir, err = cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/quadmap/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
