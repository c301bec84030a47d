package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/me/romecli/internal/api"
	"github.com/me/romecli/pkg/model"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-page visit statistics (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Session.Hydrate(cmd.Context()); err != nil {
				return fmt.Errorf("restore session: %w", err)
			}
			app.Session.WaitProfile()

			entries, err := app.Client.KPI(cmd.Context())
			if err != nil {
				switch {
				case errors.Is(err, api.ErrForbidden):
					return fmt.Errorf("stats are restricted to admin accounts")
				case errors.Is(err, api.ErrSessionInvalid):
					return fmt.Errorf("not logged in (run `romecli login`)")
				}
				return fmt.Errorf("fetch stats: %w", err)
			}

			printStats(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}

func printStats(w io.Writer, entries []model.KPIEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No statistics recorded.")
		return
	}
	fmt.Fprintf(w, "%-16s  %8s  %s\n", "PAGE", "VISITS", "TIME")
	fmt.Fprintf(w, "%-16s  %8s  %s\n", "----", "------", "----")
	for _, e := range entries {
		fmt.Fprintf(w, "%-16s  %8d  %s\n", e.PageName, e.Visits, formatDuration(e.TotalTimeSeconds))
	}
}

// formatDuration renders accumulated seconds the way the stats page shows
// them, e.g. 125 -> "2 мин 5 сек".
func formatDuration(seconds int) string {
	return fmt.Sprintf("%d мин %d сек", seconds/60, seconds%60)
}
