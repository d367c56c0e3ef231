// Package config provides configuration management for the timing bot.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"btc-timing-bot/internal/analysis/decision"
	apperrors "btc-timing-bot/internal/errors"
)

// ConfigFileName is the name of the main config file inside the config dir.
const ConfigFileName = "config.toml"

// Config holds all application configuration.
type Config struct {
	Engine        EngineConfig       `mapstructure:"engine"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Feeds         FeedsConfig        `mapstructure:"feeds"`
	Sentiment     SentimentConfig    `mapstructure:"sentiment"`
	Store         StoreConfig        `mapstructure:"store"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// EngineConfig holds the analysis settings.
type EngineConfig struct {
	RiskProfile     string `mapstructure:"risk_profile"`
	CheckInterval   int    `mapstructure:"check_interval"` // minutes
	MinHistory      int    `mapstructure:"min_history"`
	HistoryCapacity int    `mapstructure:"history_capacity"`
	NearBandBonus   bool   `mapstructure:"near_band_bonus"`
	RollingLowBonus int    `mapstructure:"rolling_low_bonus"`
}

// NotificationConfig holds the gate thresholds and delivery channels.
type NotificationConfig struct {
	BuyThreshold      int            `mapstructure:"buy_threshold"`
	SellThreshold     int            `mapstructure:"sell_threshold"`
	OnlyStrongSignals bool           `mapstructure:"only_strong_signals"`
	Level             string         `mapstructure:"level"` // all, alerts_only, errors_only
	Webhook           WebhookConfig  `mapstructure:"webhook"`
	Telegram          TelegramConfig `mapstructure:"telegram"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIURL   string `mapstructure:"api_url"` // empty uses the public Bot API
	Commands bool   `mapstructure:"commands"`
}

// FeedsConfig holds the upstream data sources.
type FeedsConfig struct {
	Asset            string   `mapstructure:"asset"`
	Currency         string   `mapstructure:"currency"`
	CoinGeckoURL     string   `mapstructure:"coingecko_url"`
	FearGreedEnabled bool     `mapstructure:"fear_greed_enabled"`
	FearGreedURL     string   `mapstructure:"fear_greed_url"`
	NewsEnabled      bool     `mapstructure:"news_enabled"`
	NewsURLs         []string `mapstructure:"news_urls"`
	NewsLimit        int      `mapstructure:"news_limit"`
	Timeout          int      `mapstructure:"timeout"` // seconds
	MaxRetries       int      `mapstructure:"max_retries"`
	BreakerFailures  int      `mapstructure:"breaker_failures"`
	BreakerCooldown  int      `mapstructure:"breaker_cooldown"` // seconds
}

// SentimentConfig selects the news classifier.
type SentimentConfig struct {
	Classifier   string `mapstructure:"classifier"` // keyword, openai
	Model        string `mapstructure:"model"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	BaseURL      string `mapstructure:"base_url"`
}

// StoreConfig holds the price sample store settings.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	File     bool   `mapstructure:"file"`
	FilePath string `mapstructure:"file_path"`
}

// CheckIntervalDuration returns the scheduler interval.
func (c *Config) CheckIntervalDuration() time.Duration {
	return time.Duration(c.Engine.CheckInterval) * time.Minute
}

// FeedTimeout returns the per-request feed timeout.
func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.Feeds.Timeout) * time.Second
}

// BreakerCooldownDuration returns how long an open breaker rejects calls.
func (c *Config) BreakerCooldownDuration() time.Duration {
	return time.Duration(c.Feeds.BreakerCooldown) * time.Second
}

// Profile returns the configured risk profile.
func (c *Config) Profile() (decision.RiskProfile, error) {
	return decision.ParseRiskProfile(c.Engine.RiskProfile)
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/btc-timing-bot"
	}
	return filepath.Join(home, ".config", "btc-timing-bot")
}

// Path returns the config file path inside configDir.
func Path(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, ConfigFileName)
}

// Default returns the configuration used when no file or env overrides exist.
func Default() *Config {
	cfg := &Config{}
	v := viper.New()
	setDefaults(v, DefaultConfigDir())
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("engine.risk_profile", string(decision.Moderate))
	v.SetDefault("engine.check_interval", 15)
	v.SetDefault("engine.min_history", 50)
	v.SetDefault("engine.history_capacity", 200)
	v.SetDefault("engine.near_band_bonus", false)
	v.SetDefault("engine.rolling_low_bonus", 5)

	v.SetDefault("notifications.buy_threshold", 70)
	v.SetDefault("notifications.sell_threshold", 70)
	v.SetDefault("notifications.only_strong_signals", false)
	v.SetDefault("notifications.level", "all")
	v.SetDefault("notifications.telegram.enabled", false)
	v.SetDefault("notifications.telegram.commands", true)
	v.SetDefault("notifications.webhook.enabled", false)

	v.SetDefault("feeds.asset", "bitcoin")
	v.SetDefault("feeds.currency", "usd")
	v.SetDefault("feeds.coingecko_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("feeds.fear_greed_enabled", true)
	v.SetDefault("feeds.fear_greed_url", "https://api.alternative.me/fng/")
	v.SetDefault("feeds.news_enabled", true)
	v.SetDefault("feeds.news_urls", []string{
		"https://www.coindesk.com/arc/outboundfeeds/rss/",
		"https://cointelegraph.com/rss",
	})
	v.SetDefault("feeds.news_limit", 20)
	v.SetDefault("feeds.timeout", 10)
	v.SetDefault("feeds.max_retries", 3)
	v.SetDefault("feeds.breaker_failures", 5)
	v.SetDefault("feeds.breaker_cooldown", 300)

	v.SetDefault("sentiment.classifier", "keyword")
	v.SetDefault("sentiment.model", "gpt-4o-mini")

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", filepath.Join(configDir, "prices.db"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "bot.log"))
}

// Load loads configuration from configDir. A missing config file is
// replaced by a commented template and defaults are used. A .env file in
// the working directory or configDir is loaded before environment
// overrides are applied.
func Load(configDir string) (*Config, error) {
	cfg, err := Read(configDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Read is Load without validation.
func Read(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}
	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading %s: %w", ConfigFileName, err)
	}

	loadDotEnv(configDir)

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName(strings.TrimSuffix(ConfigFileName, filepath.Ext(ConfigFileName)))
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		if err := createTemplateConfig(configDir); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

// loadDotEnv loads .env files without overriding variables already set.
func loadDotEnv(configDir string) {
	for _, path := range []string{".env", filepath.Join(configDir, ".env")} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notifications.Telegram.BotToken = v
		cfg.Notifications.Telegram.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notifications.Telegram.ChatID = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Sentiment.OpenAIAPIKey = v
	}
	if v := os.Getenv("RISK_PROFILE"); v != "" {
		cfg.Engine.RiskProfile = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	intVars := []struct {
		name   string
		target *int
	}{
		{"CHECK_INTERVAL", &cfg.Engine.CheckInterval},
		{"BUY_THRESHOLD", &cfg.Notifications.BuyThreshold},
		{"SELL_THRESHOLD", &cfg.Notifications.SellThreshold},
	}
	for _, iv := range intVars {
		raw := os.Getenv(iv.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return apperrors.NewConfigError(iv.name, fmt.Sprintf("not an integer: %q", raw))
		}
		*iv.target = n
	}

	if raw := os.Getenv("ONLY_STRONG_SIGNALS"); raw != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return apperrors.NewConfigError("ONLY_STRONG_SIGNALS", fmt.Sprintf("not a boolean: %q", raw))
		}
		cfg.Notifications.OnlyStrongSignals = b
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := c.Profile(); err != nil {
		return apperrors.NewConfigError("engine.risk_profile", err.Error())
	}
	if c.Engine.CheckInterval < 1 {
		return apperrors.NewConfigError("engine.check_interval", "must be at least 1 minute")
	}
	if c.Engine.MinHistory < 1 {
		return apperrors.NewConfigError("engine.min_history", "must be positive")
	}
	if c.Engine.HistoryCapacity < c.Engine.MinHistory {
		return apperrors.NewConfigError("engine.history_capacity", "must be at least min_history")
	}
	if c.Engine.RollingLowBonus < 0 {
		return apperrors.NewConfigError("engine.rolling_low_bonus", "must be non-negative")
	}

	if !inRange(c.Notifications.BuyThreshold) {
		return apperrors.NewConfigError("notifications.buy_threshold", "must be between 0 and 100")
	}
	if !inRange(c.Notifications.SellThreshold) {
		return apperrors.NewConfigError("notifications.sell_threshold", "must be between 0 and 100")
	}
	switch c.Notifications.Level {
	case "", "all", "alerts_only", "errors_only":
	default:
		return apperrors.NewConfigError("notifications.level", fmt.Sprintf("unknown level %q", c.Notifications.Level))
	}
	if tg := c.Notifications.Telegram; tg.Enabled && tg.ChatID != "" {
		if _, err := strconv.ParseInt(tg.ChatID, 10, 64); err != nil {
			return apperrors.NewConfigError("notifications.telegram.chat_id", "must be a numeric chat id")
		}
	}
	if wh := c.Notifications.Webhook; wh.Enabled && wh.URL == "" {
		return apperrors.NewConfigError("notifications.webhook.url", "required when the webhook is enabled")
	}

	if c.Feeds.Asset == "" || c.Feeds.Currency == "" {
		return apperrors.NewConfigError("feeds.asset", "asset and currency are required")
	}
	if c.Feeds.Timeout < 1 {
		return apperrors.NewConfigError("feeds.timeout", "must be at least 1 second")
	}
	if c.Feeds.MaxRetries < 0 {
		return apperrors.NewConfigError("feeds.max_retries", "must be non-negative")
	}

	switch c.Sentiment.Classifier {
	case "", "keyword", "openai":
	default:
		return apperrors.NewConfigError("sentiment.classifier", fmt.Sprintf("unknown classifier %q", c.Sentiment.Classifier))
	}

	if c.Store.Enabled && c.Store.Path == "" {
		return apperrors.NewConfigError("store.path", "required when the store is enabled")
	}

	return nil
}

func inRange(v int) bool {
	return v >= 0 && v <= 100
}

// UseOpenAI reports whether the LLM classifier is selected and usable.
func (c *Config) UseOpenAI() bool {
	return c.Sentiment.Classifier == "openai" && c.Sentiment.OpenAIAPIKey != ""
}
