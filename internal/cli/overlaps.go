package cli

import (
	"github.com/spf13/cobra"

	"github.com/quadmap/quadmap/pkg/config"
	"github.com/quadmap/quadmap/pkg/plane"
	"github.com/quadmap/quadmap/pkg/solver"
)

// overlapsCommand creates the overlaps command: diagnostics over a settled
// variant document.
func (c *CLI) overlapsCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "overlaps <document.json>",
		Short: "Report pairs below the safety radius in a settled document",
		Long:  `Overlaps reads a settled variant document and reports every pair of items whose distance is below the sum of their radii. A healthy settled layout reports nothing.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			doc, err := plane.ReadDocumentFile(args[0])
			if err != nil {
				return err
			}

			overlaps := solver.Overlaps(doc.Items, cfg.RadiusTable())
			if len(overlaps) == 0 {
				printSuccess("No overlaps in %s (%d items)", doc.VariantID(), len(doc.Items))
				return nil
			}

			printWarning("%d overlapping pairs in %s", len(overlaps), doc.VariantID())
			for _, ov := range overlaps {
				printDetail("%s / %s: distance %.4f, safety %.4f, %d shared descriptors",
					ov.A, ov.B, ov.Distance, ov.Threshold, ov.SharedDescriptors)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")

	return cmd
}
