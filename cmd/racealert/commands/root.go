package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shanehull/racealert/internal/config"
)

var configFile *string

func init() {
	configFile = rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file (overrides "+config.FileEnv+").")
}

var rootCmd = &cobra.Command{
	Use:   "racealert",
	Short: "racealert polls race listings and alerts when tracked horses appear.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}

		g, ctx := errgroup.WithContext(cmd.Context())
		if a.cfg.MetricsAddr != "" {
			g.Go(func() error {
				return a.metrics.Serve(ctx, a.cfg.MetricsAddr)
			})
		}
		g.Go(func() error {
			err := a.poller.Run(ctx)
			if ctx.Err() != nil {
				return nil
			}
			return err
		})
		return g.Wait()
	},
}

func ExecuteContext(ctx context.Context) {
	rootCmd.SilenceUsage = true
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
