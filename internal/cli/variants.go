package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/quadmap/quadmap/pkg/config"
	"github.com/quadmap/quadmap/pkg/normalize"
	"github.com/quadmap/quadmap/pkg/scoring"
)

// variantsCommand creates the variants command: compute the whole
// preset × normalization grid in one run.
func (c *CLI) variantsCommand() *cobra.Command {
	var (
		configPath string
		presets    string
		modes      string
		outDir     string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "variants <dataset.json>",
		Short: "Settle every preset and normalization combination",
		Long:  `Variants settles the dataset once per preset × normalization combination and writes one document file per variant. By default all built-in presets and modes are computed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			base, err := settleOptions(cfg, args[0], cfg.Scoring.DefaultPreset, cfg.Normalize.DefaultMode, 0, noCache)
			if err != nil {
				return err
			}
			base.Logger = c.Logger

			presetList := splitList(presets)
			if len(presetList) == 0 {
				presetList = scoring.PresetNames(scoring.DefaultPresets)
			}
			modeList, err := parseModes(modes)
			if err != nil {
				return err
			}

			runner, cleanup, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer cleanup()

			track := newProgress(c.Logger)
			results, err := runner.Variants(ctx, base, presetList, modeList, outDir)
			if err != nil {
				return err
			}
			track.done("Computed variant grid")

			cached := 0
			for _, vr := range results {
				if vr.Result.CacheHit {
					cached++
				}
				if vr.Path != "" {
					printFile(vr.Path)
				}
			}
			printSuccess("Settled %d variants (%d from cache)", len(results), cached)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().StringVar(&presets, "presets", "", "comma-separated preset names (default: all)")
	cmd.Flags().StringVar(&modes, "modes", "", "comma-separated normalization modes (default: all)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "variants", "output directory for variant documents")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the variant cache")

	return cmd
}

// splitList parses a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseModes resolves a comma-separated mode list, defaulting to all modes.
func parseModes(s string) ([]normalize.Mode, error) {
	names := splitList(s)
	if len(names) == 0 {
		return normalize.Modes, nil
	}
	out := make([]normalize.Mode, 0, len(names))
	for _, name := range names {
		m, err := normalize.ParseMode(name)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
