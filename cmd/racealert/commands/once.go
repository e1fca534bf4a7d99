package commands

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shanehull/racealert/internal/poller"
)

var errNothingScanned = errors.New("no page could be fetched")

func init() {
	rootCmd.AddCommand(onceCmd)
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Runs a single poll cycle and exits.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		return checkCycle(a.poller.RunCycle(cmd.Context()))
	},
}

// checkCycle logs the cycle counts and fails when every fetch failed.
func checkCycle(res poller.CycleResult) error {
	slog.Info("single cycle complete",
		"cycle_id", res.ID,
		"alerts", len(res.Alerts),
		"pages", res.PagesScanned,
		"fetch_failures", res.FetchFailures,
		"notify_errors", res.NotifyErrors,
		"persist_errors", res.PersistErrors,
	)
	if res.PagesScanned == 0 {
		return errNothingScanned
	}
	return nil
}
