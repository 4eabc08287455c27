package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quadmap/quadmap/pkg/api"
	"github.com/quadmap/quadmap/pkg/config"
	"github.com/quadmap/quadmap/pkg/dataset"
	"github.com/quadmap/quadmap/pkg/normalize"
	"github.com/quadmap/quadmap/pkg/scoring"
	"github.com/quadmap/quadmap/pkg/transition"
)

// serveCommand creates the serve command: run the live layout HTTP server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
		preset     string
		mode       string
	)

	cmd := &cobra.Command{
		Use:   "serve <dataset.json>",
		Short: "Serve live layout snapshots over HTTP",
		Long:  `Serve loads a dataset, settles it, and exposes the layout over HTTP. Clients can apply preset and normalization transitions and watch the layout re-settle tick by tick.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
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
			solverCfg, err := cfg.SolverOptions()
			if err != nil {
				return err
			}

			ds, report, err := dataset.Load(args[0])
			if err != nil {
				return err
			}
			printFindings(report)

			coord, err := transition.New(scoring.NewEngine(nil, nil), solverCfg, ds.Items, ds.Links, preset, m)
			if err != nil {
				return err
			}
			server := api.NewServer(coord, api.Options{
				TickInterval: cfg.Server.TickInterval.Std(),
				Logger:       c.Logger,
			})

			httpServer := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           server.Router(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			c.Logger.Info("serving layout",
				"addr", cfg.Server.Addr,
				"items", len(ds.Items),
				"preset", preset,
				"mode", m)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				server.Run(gctx)
				return nil
			})
			g.Go(func() error {
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			})
			if err := g.Wait(); err != nil {
				return err
			}
			return ctx.Err()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides config)")
	cmd.Flags().StringVarP(&preset, "preset", "p", "", "initial weight preset")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "initial normalization mode")

	return cmd
}
