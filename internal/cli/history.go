package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"btc-timing-bot/internal/notify"
	"btc-timing-bot/internal/store"
	"btc-timing-bot/pkg/utils"
)

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored price samples",
		Long: `Show the price samples kept for warm starts. Only prices are stored;
decisions are never persisted.`,
		Example: `  btcbot history
  btcbot history --prune-days 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			pruneDays, _ := cmd.Flags().GetInt("prune-days")

			if !app.Config.Store.Enabled {
				output.Warning("Price store is disabled (store.enabled = false)")
				return nil
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			s, err := store.NewSQLiteStore(app.Config.Store.Path, asset(app.Config))
			if err != nil {
				return err
			}
			defer s.Close()

			var removed int64
			if pruneDays > 0 {
				if removed, err = s.PruneBefore(ctx, time.Now().AddDate(0, 0, -pruneDays)); err != nil {
					return err
				}
			}

			count, err := s.CountPriceSamples(ctx)
			if err != nil {
				return err
			}
			latest, err := s.LatestPriceSample(ctx)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				data := map[string]interface{}{
					"path":       app.Config.Store.Path,
					"samples":    count,
					"min_needed": app.Config.Engine.MinHistory,
					"pruned":     removed,
				}
				if latest != nil {
					data["latest_price"] = latest.Price
					data["latest_at"] = latest.Timestamp
				}
				return output.JSON(data)
			}

			output.Bold("Price store")
			output.Printf("  Path:    %s\n", app.Config.Store.Path)
			output.Printf("  Samples: %d (window needs %d)\n", count, app.Config.Engine.MinHistory)
			if latest != nil {
				output.Printf("  Latest:  %s, %s ago\n", notify.FormatUSD(latest.Price, 2), utils.FormatDuration(time.Since(latest.Timestamp)))
			}
			if pruneDays > 0 {
				output.Success("✓ Pruned %d samples older than %d days", removed, pruneDays)
			}
			return nil
		},
	}

	cmd.Flags().Int("prune-days", 0, "delete samples older than this many days")

	return cmd
}
