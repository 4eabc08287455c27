package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quadmap/quadmap/pkg/buildinfo"
	"github.com/quadmap/quadmap/pkg/config"
	"github.com/quadmap/quadmap/pkg/normalize"
	"github.com/quadmap/quadmap/pkg/pipeline"
	"github.com/quadmap/quadmap/pkg/plane"
)

// settleCommand creates the settle command: run the full pipeline and write
// the settled variant document.
func (c *CLI) settleCommand() *cobra.Command {
	var (
		configPath string
		preset     string
		mode       string
		seed       uint64
		output     string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "settle <dataset.json>",
		Short: "Settle a dataset into an overlap-free layout",
		Long:  `Settle runs the full pipeline: score the dataset with a weight preset, calibrate the axes, and run the layout solver until every pair of items clears its safety radius. The settled variant document is printed and optionally written to a file.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			opts, err := settleOptions(cfg, args[0], preset, mode, seed, noCache)
			if err != nil {
				return err
			}
			opts.Logger = c.Logger

			runner, cleanup, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer cleanup()

			spinner := newSpinnerWithContext(ctx, "Settling layout...")
			spinner.Start()
			result, err := runner.Execute(ctx, opts)
			if err != nil {
				spinner.StopWithError("Settle failed")
				return err
			}
			spinner.Stop()

			printFindings(result.Report)
			doc := result.Document
			printSuccess("Settled variant %s", StyleHighlight.Render(doc.VariantID()))
			printStats(len(doc.Items), len(doc.Links), len(result.Overlaps), result.CacheHit)
			if !result.CacheHit {
				printDetail("ticks: %d  score: %s  settle: %s",
					result.Stats.Ticks, result.Stats.ScoreTime, result.Stats.SettleTime)
			}
			for _, ov := range result.Overlaps {
				printWarning("residual overlap %s / %s (%.4f < %.4f)", ov.A, ov.B, ov.Distance, ov.Threshold)
			}

			if output != "" {
				if err := plane.WriteDocumentFile(*doc, output); err != nil {
					return err
				}
				printFile(output)
			}
			printNextStep("Inspect overlaps", fmt.Sprintf("quadmap overlaps %s", outputOrDash(output)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().StringVarP(&preset, "preset", "p", "", "weight preset name")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "normalization mode (none, zscore, percentile, minmax)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "solver seed for deterministic jitter")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the settled document to this file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the variant cache")

	return cmd
}

// settleOptions builds pipeline options from the config file overlaid with
// command-line flags.
func settleOptions(cfg config.Config, datasetPath, preset, mode string, seed uint64, noCache bool) (pipeline.Options, error) {
	solverCfg, err := cfg.SolverOptions()
	if err != nil {
		return pipeline.Options{}, err
	}
	if seed != 0 {
		solverCfg.Seed = seed
	}
	if preset == "" {
		preset = cfg.Scoring.DefaultPreset
	}
	if mode == "" {
		mode = cfg.Normalize.DefaultMode
	}
	m, err := normalize.ParseMode(mode)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		DatasetPath: datasetPath,
		Preset:      preset,
		Mode:        m,
		Solver:      solverCfg,
		SkipCache:   noCache,
		CacheTTL:    cfg.Cache.TTL.Std(),
		Generator:   appName + " " + buildinfo.Version,
	}, nil
}

func outputOrDash(output string) string {
	if output == "" {
		return "<document.json>"
	}
	return output
}
