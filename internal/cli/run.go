package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"btc-timing-bot/pkg/utils"
)

// sampleRetention is how long stored price samples are kept.
const sampleRetention = 7 * 24 * time.Hour

func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Monitor the market and send alerts",
		Long: `Run the analysis loop: fetch the price every check interval, score it and
notify configured channels when the signal changes significantly.

Telegram commands (/start, /status, /pause, /resume) are served when a bot
token and chat id are configured.`,
		Example: `  btcbot run
  btcbot run --once --json
  btcbot run --config ./deploy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			once, _ := cmd.Flags().GetBool("once")
			noCommands, _ := cmd.Flags().GetBool("no-commands")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := buildComponents(app)
			if err != nil {
				return err
			}
			defer c.close()

			if c.store != nil {
				if removed, err := c.store.PruneBefore(ctx, time.Now().Add(-sampleRetention)); err != nil {
					app.Logger.Warn().Err(err).Msg("Failed to prune old price samples")
				} else if removed > 0 {
					app.Logger.Info().Int64("removed", removed).Msg("Pruned old price samples")
				}
			}
			if _, err := c.runner.WarmStart(ctx); err != nil {
				app.Logger.Warn().Err(err).Msg("Warm start failed, collecting from scratch")
			}

			if once {
				report, err := c.runner.RunCycle(ctx)
				if err != nil {
					output.Error("Cycle failed: %v", err)
					return err
				}
				return printResult(output, report.Result, report.Price, report.MarketCap)
			}

			if !noCommands {
				if err := c.startBot(app); err != nil {
					app.Logger.Warn().Err(err).Msg("Telegram commands unavailable")
				}
			}
			interval := app.Config.CheckIntervalDuration()
			announceStartup(ctx, app, c, interval)

			if !output.IsJSON() {
				output.Info("Monitoring %s/%s every %s (channels: %v)",
					app.Config.Feeds.Asset, app.Config.Feeds.Currency, utils.FormatDuration(interval), c.channels)
			}

			err = c.runner.Run(ctx, interval)
			for _, s := range c.client.Breakers().AllStats() {
				app.Logger.Info().
					Str("feed", s.Name).
					Str("state", string(s.State)).
					Int64("calls", s.TotalCalls).
					Int64("failures", s.TotalFailures).
					Int64("rejected", s.TotalRejected).
					Msg("Feed stats")
			}
			if errors.Is(err, context.Canceled) {
				app.Logger.Info().Msg("Shutting down")
				return nil
			}
			return err
		},
	}

	cmd.Flags().Bool("once", false, "run a single cycle and print the result")
	cmd.Flags().Bool("no-commands", false, "do not serve Telegram commands")

	return cmd
}

func announceStartup(ctx context.Context, app *App, c *components, interval time.Duration) {
	if c.bot != nil {
		if err := c.bot.SendStartup(); err != nil {
			app.Logger.Warn().Err(err).Msg("Startup message failed")
		}
		return
	}
	msg := fmt.Sprintf("Monitoring 24/7\n📊 Check every %s", utils.FormatDuration(interval))
	if err := c.notifier.SendInfo(ctx, "🚀 Bot started!", msg); err != nil {
		app.Logger.Warn().Err(err).Msg("Startup message failed")
	}
}
