package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/quadmap/quadmap/pkg/config"
	"github.com/quadmap/quadmap/pkg/dataset"
	"github.com/quadmap/quadmap/pkg/normalize"
	"github.com/quadmap/quadmap/pkg/scoring"
	"github.com/quadmap/quadmap/pkg/transition"
)

// scoreCommand creates the score command: compute target coordinates without
// running the solver.
func (c *CLI) scoreCommand() *cobra.Command {
	var (
		configPath string
		preset     string
		mode       string
		seed       uint64
	)

	cmd := &cobra.Command{
		Use:   "score <dataset.json>",
		Short: "Compute target coordinates for a dataset",
		Long:  `Score reads an item dataset, applies a weight preset and normalization mode, and prints the resulting target coordinates. No overlap resolution happens; use settle for a full layout.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if preset == "" {
				preset = cfg.Scoring.DefaultPreset
			}
			if mode == "" {
				mode = cfg.Normalize.DefaultMode
			}
			m, err := normalize.ParseMode(mode)
			if err != nil {
				return err
			}

			ds, report, err := dataset.Load(args[0])
			if err != nil {
				return err
			}
			printFindings(report)

			eng := scoring.NewEngine(nil, nil)
			targets, degraded, err := transition.ComputeTargets(eng, ds.Items, preset, m, seed)
			if err != nil {
				return err
			}
			for _, d := range degraded {
				printWarning("item %s: unknown %s value %q scored as neutral", d.ItemID, d.Dimension, d.Value)
			}

			printInfo("Scored %d items with preset %s (%s)", len(ds.Items), StyleHighlight.Render(preset), m)
			for i, item := range ds.Items {
				fmt.Printf("  %-24s %s\n", item.ID,
					StyleNumber.Render(fmt.Sprintf("(%+.4f, %+.4f)", targets[i].X, targets[i].Y)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().StringVarP(&preset, "preset", "p", "", "weight preset name")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "normalization mode (none, zscore, percentile, minmax)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for deterministic tie separation")

	return cmd
}

// printFindings surfaces dataset validation findings without failing the run.
func printFindings(report dataset.Report) {
	if report.Clean() {
		return
	}
	findings := make([]dataset.Finding, len(report.Findings))
	copy(findings, report.Findings)
	sort.Slice(findings, func(i, j int) bool { return findings[i].ItemID < findings[j].ItemID })
	for _, f := range findings {
		if f.Dimension != "" {
			printDetail("%s: %s (%s)", f.ItemID, f.Problem, f.Dimension)
		} else {
			printDetail("%s: %s", f.ItemID, f.Problem)
		}
	}
	printWarning("%d dataset findings; affected descriptors score as neutral", len(report.Findings))
}
