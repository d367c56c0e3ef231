package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"btc-timing-bot/internal/config"
	"btc-timing-bot/internal/security"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the bot configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:         "show",
		Short:       "Show current configuration with secrets masked",
		Annotations: map[string]string{annotationLenientConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			masked := security.MaskFields(configMap(app.Config))
			if output.IsJSON() {
				return output.JSON(masked)
			}
			output.Dim("# %s", config.Path(app.ConfigDir))
			printSections(output, masked)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:         "path",
		Short:       "Show configuration file path",
		Annotations: map[string]string{annotationSkipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path := config.Path(app.ConfigDir)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Println(path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:         "validate",
		Short:       "Validate the configuration",
		Annotations: map[string]string{annotationLenientConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.ConfigErr != nil {
				if output.IsJSON() {
					_ = output.JSON(map[string]interface{}{"valid": false, "error": app.ConfigErr.Error()})
				} else {
					output.Error("Configuration validation failed: %v", app.ConfigErr)
				}
				return app.ConfigErr
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

// configMap flattens the config into TOML-shaped sections.
func configMap(cfg *config.Config) map[string]interface{} {
	tg := cfg.Notifications.Telegram
	return map[string]interface{}{
		"engine": map[string]interface{}{
			"risk_profile":      cfg.Engine.RiskProfile,
			"check_interval":    cfg.Engine.CheckInterval,
			"min_history":       cfg.Engine.MinHistory,
			"history_capacity":  cfg.Engine.HistoryCapacity,
			"near_band_bonus":   cfg.Engine.NearBandBonus,
			"rolling_low_bonus": cfg.Engine.RollingLowBonus,
		},
		"notifications": map[string]interface{}{
			"buy_threshold":       cfg.Notifications.BuyThreshold,
			"sell_threshold":      cfg.Notifications.SellThreshold,
			"only_strong_signals": cfg.Notifications.OnlyStrongSignals,
			"level":               cfg.Notifications.Level,
			"webhook": map[string]interface{}{
				"enabled": cfg.Notifications.Webhook.Enabled,
				"url":     cfg.Notifications.Webhook.URL,
			},
			"telegram": map[string]interface{}{
				"enabled":   tg.Enabled,
				"bot_token": tg.BotToken,
				"chat_id":   tg.ChatID,
				"api_url":   tg.APIURL,
				"commands":  tg.Commands,
			},
		},
		"feeds": map[string]interface{}{
			"asset":              cfg.Feeds.Asset,
			"currency":           cfg.Feeds.Currency,
			"coingecko_url":      cfg.Feeds.CoinGeckoURL,
			"fear_greed_enabled": cfg.Feeds.FearGreedEnabled,
			"fear_greed_url":     cfg.Feeds.FearGreedURL,
			"news_enabled":       cfg.Feeds.NewsEnabled,
			"news_urls":          strings.Join(cfg.Feeds.NewsURLs, ", "),
			"news_limit":         cfg.Feeds.NewsLimit,
			"timeout":            cfg.Feeds.Timeout,
			"max_retries":        cfg.Feeds.MaxRetries,
			"breaker_failures":   cfg.Feeds.BreakerFailures,
			"breaker_cooldown":   cfg.Feeds.BreakerCooldown,
		},
		"sentiment": map[string]interface{}{
			"classifier":     cfg.Sentiment.Classifier,
			"model":          cfg.Sentiment.Model,
			"openai_api_key": cfg.Sentiment.OpenAIAPIKey,
			"base_url":       cfg.Sentiment.BaseURL,
		},
		"store": map[string]interface{}{
			"enabled": cfg.Store.Enabled,
			"path":    cfg.Store.Path,
		},
		"logging": map[string]interface{}{
			"level":     cfg.Logging.Level,
			"file":      cfg.Logging.File,
			"file_path": cfg.Logging.FilePath,
		},
	}
}

func printSections(output *Output, data map[string]interface{}) {
	printSection(output, "", data)
}

func printSection(output *Output, prefix string, data map[string]interface{}) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var nested []string
	for _, k := range keys {
		if _, ok := data[k].(map[string]interface{}); ok {
			nested = append(nested, k)
			continue
		}
		output.Printf("%s = %v\n", k, formatValue(data[k]))
	}
	for _, k := range nested {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		output.Println()
		output.Bold("[%s]", name)
		printSection(output, name, data[k].(map[string]interface{}))
	}
}

func formatValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v)
}
