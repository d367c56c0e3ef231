package cli

import (
	"strconv"

	"github.com/rs/zerolog"

	"btc-timing-bot/internal/agents"
	"btc-timing-bot/internal/analysis/indicators"
	"btc-timing-bot/internal/analysis/scoring"
	"btc-timing-bot/internal/analysis/sentiment"
	"btc-timing-bot/internal/config"
	"btc-timing-bot/internal/engine"
	"btc-timing-bot/internal/feeds"
	"btc-timing-bot/internal/logging"
	"btc-timing-bot/internal/models"
	"btc-timing-bot/internal/notify"
	"btc-timing-bot/internal/resilience"
	"btc-timing-bot/internal/store"
	"btc-timing-bot/internal/telegram"
	"btc-timing-bot/pkg/utils"
)

// runnerConfig maps the engine and notification settings onto a RunnerConfig.
func runnerConfig(cfg *config.Config) (engine.RunnerConfig, error) {
	profile, err := cfg.Profile()
	if err != nil {
		return engine.RunnerConfig{}, err
	}
	return engine.RunnerConfig{
		Profile: profile,
		Gate: notify.Gate{
			BuyThreshold:      cfg.Notifications.BuyThreshold,
			SellThreshold:     cfg.Notifications.SellThreshold,
			OnlyStrongSignals: cfg.Notifications.OnlyStrongSignals,
		},
		Scoring:         scoringOptions(cfg),
		Indicators:      indicators.DefaultSnapshotConfig(),
		MinHistory:      cfg.Engine.MinHistory,
		HistoryCapacity: cfg.Engine.HistoryCapacity,
	}, nil
}

func scoringOptions(cfg *config.Config) scoring.Options {
	opts := scoring.DefaultOptions()
	opts.NearBandBonus = cfg.Engine.NearBandBonus
	opts.RollingLowBonus = cfg.Engine.RollingLowBonus
	return opts
}

// newClassifier returns the OpenAI classifier when selected and keyed,
// otherwise the keyword classifier.
func newClassifier(cfg *config.Config, logger zerolog.Logger) sentiment.Classifier {
	if cfg.UseOpenAI() {
		logger.Debug().Str("model", cfg.Sentiment.Model).Msg("OpenAI sentiment classifier initialized")
		return agents.NewOpenAIClassifier(cfg.Sentiment.OpenAIAPIKey, cfg.Sentiment.Model, cfg.Sentiment.BaseURL)
	}
	if cfg.Sentiment.Classifier == "openai" {
		logger.Warn().Msg("OpenAI classifier selected without an API key, using keywords")
	}
	return sentiment.NewKeywordClassifier()
}

func asset(cfg *config.Config) models.Asset {
	return models.Asset{ID: cfg.Feeds.Asset, Currency: cfg.Feeds.Currency}
}

func newFeedClient(cfg *config.Config, logger zerolog.Logger) *feeds.Client {
	retry := utils.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Feeds.MaxRetries + 1

	return feeds.NewClient(feeds.ClientConfig{
		Timeout: cfg.FeedTimeout(),
		Retry:   retry,
		Breakers: resilience.NewRegistry(resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.Feeds.BreakerFailures,
			SuccessThreshold: 1,
			Cooldown:         cfg.BreakerCooldownDuration(),
		}),
		Logger: logger,
	})
}

// components is everything `run` needs, built from config.
type components struct {
	runner   *engine.Runner
	client   *feeds.Client
	store    *store.SQLiteStore
	notifier notify.Notifier
	channels []string
	bot      *telegram.Bot
}

func buildComponents(app *App) (*components, error) {
	cfg := app.Config
	logger := app.Logger

	rc, err := runnerConfig(cfg)
	if err != nil {
		return nil, err
	}

	c := &components{client: newFeedClient(cfg, logger)}

	opts := []engine.Option{
		engine.WithLogger(logging.WithComponent(logger, "engine")),
		engine.WithClassifier(newClassifier(cfg, logger)),
	}
	if cfg.Feeds.FearGreedEnabled {
		opts = append(opts, engine.WithFearGreed(feeds.NewFearGreedIndex(c.client, cfg.Feeds.FearGreedURL)))
	}
	if cfg.Feeds.NewsEnabled && len(cfg.Feeds.NewsURLs) > 0 {
		opts = append(opts, engine.WithNews(feeds.NewRSSNews(c.client, cfg.Feeds.NewsURLs, cfg.Feeds.NewsLimit)))
	}

	if cfg.Store.Enabled {
		s, err := store.NewSQLiteStore(cfg.Store.Path, asset(cfg))
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to open price store, starting without warm start")
		} else {
			c.store = s
			opts = append(opts, engine.WithStore(s))
		}
	}

	c.notifier, c.channels, err = newNotifier(cfg)
	if err != nil {
		c.close()
		return nil, err
	}
	opts = append(opts, engine.WithSender(c.notifier))

	price := feeds.NewCoinGecko(c.client, cfg.Feeds.CoinGeckoURL, asset(cfg))
	c.runner = engine.NewRunner(rc, price, opts...)
	return c, nil
}

// newNotifier returns the configured channels, or a no-op notifier when
// none are enabled.
func newNotifier(cfg *config.Config) (notify.Notifier, []string, error) {
	mn, err := notify.NewMultiNotifier(cfg.Notifications)
	if err != nil {
		return nil, nil, err
	}
	channels := mn.Channels()
	if len(channels) == 0 {
		return notify.NewNoOpNotifier(), nil, nil
	}
	return mn, channels, nil
}

// startBot creates the command bot when Telegram commands are enabled.
func (c *components) startBot(app *App) error {
	tg := app.Config.Notifications.Telegram
	if !tg.Enabled || !tg.Commands || tg.BotToken == "" || tg.ChatID == "" {
		return nil
	}
	chatID, err := strconv.ParseInt(tg.ChatID, 10, 64)
	if err != nil {
		return err
	}
	bot, err := telegram.NewBot(telegram.Settings{
		Token:    tg.BotToken,
		ChatID:   chatID,
		APIURL:   tg.APIURL,
		Interval: app.Config.CheckIntervalDuration(),
		Logger:   app.Logger,
	}, c.runner)
	if err != nil {
		return err
	}
	c.bot = bot
	go bot.Start()
	return nil
}

func (c *components) close() {
	if c.bot != nil {
		c.bot.Stop()
	}
	if c.store != nil {
		c.store.Close()
	}
}
