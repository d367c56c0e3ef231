package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# BTC Timing Bot Configuration
# Environment variables override these values:
# TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID, CHECK_INTERVAL, BUY_THRESHOLD,
# SELL_THRESHOLD, RISK_PROFILE, ONLY_STRONG_SIGNALS, OPENAI_API_KEY, LOG_LEVEL

[engine]
# Risk profile: Conservative, Moderate, Aggressive
risk_profile = "Moderate"
# Minutes between analysis cycles
check_interval = 15
# Prices required before the first decision
min_history = 50
# Prices kept in the rolling window
history_capacity = 200
# Add a +10 bonus when price is within 1% of a Bollinger band
near_band_bonus = false
# Buy bonus when price is within 3% of the rolling low
rolling_low_bonus = 5

[notifications]
# Gate thresholds (0-100)
buy_threshold = 70
sell_threshold = 70
# Only notify BUY_STRONG and SELL_STRONG
only_strong_signals = false
# Notification level: all, alerts_only, errors_only
level = "all"

[notifications.telegram]
enabled = false
bot_token = ""
chat_id = ""
# Answer /start, /status, /pause, /resume
commands = true

[notifications.webhook]
enabled = false
url = ""

[feeds]
asset = "bitcoin"
currency = "usd"
coingecko_url = "https://api.coingecko.com/api/v3"
fear_greed_enabled = true
fear_greed_url = "https://api.alternative.me/fng/"
news_enabled = true
news_urls = [
  "https://www.coindesk.com/arc/outboundfeeds/rss/",
  "https://cointelegraph.com/rss",
]
news_limit = 20
# Seconds per request
timeout = 10
max_retries = 3
# Consecutive failures before a feed is skipped, and for how many seconds
breaker_failures = 5
breaker_cooldown = 300

[sentiment]
# News classifier: keyword, openai
classifier = "keyword"
model = "gpt-4o-mini"
openai_api_key = ""

[store]
# Keep fetched prices so the window survives restarts
enabled = true
# path = "~/.config/btc-timing-bot/prices.db"

[logging]
# Log level: debug, info, warn, error
level = "info"
file = true
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, ConfigFileName)
	// The file may carry a bot token.
	if err := os.WriteFile(path, []byte(configTemplate), 0600); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
