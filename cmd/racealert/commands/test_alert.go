package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shanehull/racealert/internal/notify"
)

func init() {
	rootCmd.AddCommand(testAlertCmd)
}

var testAlertCmd = &cobra.Command{
	Use:   "test-alert",
	Short: "Sends the sample alert through the configured channels.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		d := newDispatcher(cfg, nil)
		if err := d.Deliver(cmd.Context(), notify.SampleMessageRendered()); err != nil {
			return fmt.Errorf("test alert failed: %w", err)
		}
		slog.Info("test alert sent", "mode", d.Mode())
		return nil
	},
}
