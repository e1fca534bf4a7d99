package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shanehull/racealert/internal/history"
)

func init() {
	rootCmd.AddCommand(compactCmd)
}

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Rewrites the seen-keys file without duplicate or blank lines.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := history.Load(cfg.CacheFile)
		if err != nil {
			return fmt.Errorf("failed to load seen set: %w", err)
		}
		dropped, err := store.Compact()
		if err != nil {
			return err
		}
		slog.Info("seen set compacted", "path", store.Path(), "keys", store.Len(), "dropped", dropped)
		return nil
	},
}
