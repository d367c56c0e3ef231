// Package telegram serves the chat commands that control a running bot.
package telegram

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"

	"btc-timing-bot/internal/engine"
	apperrors "btc-timing-bot/internal/errors"
	"btc-timing-bot/internal/logging"
	"btc-timing-bot/internal/notify"
)

// statusTimeout bounds a cycle started from /status.
const statusTimeout = 90 * time.Second

// Controller is the part of the runner the commands drive.
type Controller interface {
	RunCycle(ctx context.Context) (*engine.Report, error)
	Pause()
	Resume()
	Paused() bool
	Config() engine.RunnerConfig
}

// Settings configures the command bot.
type Settings struct {
	Token    string
	ChatID   int64
	APIURL   string
	Interval time.Duration
	Logger   zerolog.Logger
}

// Bot answers /start, /status, /pause and /resume from the authorized chat.
type Bot struct {
	bot      *tele.Bot
	runner   Controller
	chatID   int64
	interval time.Duration
	logger   zerolog.Logger
}

// NewBot creates a long-polling bot.
func NewBot(s Settings, runner Controller) (*Bot, error) {
	pref := tele.Settings{
		Token:  s.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		Client: &http.Client{Timeout: 30 * time.Second},
	}
	if s.APIURL != "" {
		pref.URL = s.APIURL
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return New(b, s.ChatID, runner, s.Interval, s.Logger), nil
}

// New wires the command handlers onto an existing bot client.
func New(b *tele.Bot, chatID int64, runner Controller, interval time.Duration, logger zerolog.Logger) *Bot {
	bot := &Bot{
		bot:      b,
		runner:   runner,
		chatID:   chatID,
		interval: interval,
		logger:   logging.WithComponent(logger, "telegram"),
	}
	bot.setupHandlers()
	return bot
}

// Client returns the underlying telebot client so notifiers can share it.
func (b *Bot) Client() *tele.Bot {
	return b.bot
}

// Start polls for updates until Stop is called.
func (b *Bot) Start() {
	b.logger.Info().Msg("Telegram bot started")
	b.bot.Start()
}

// Stop stops polling.
func (b *Bot) Stop() {
	b.bot.Stop()
}

// SendStartup announces the bot in the authorized chat.
func (b *Bot) SendStartup() error {
	_, err := b.bot.Send(tele.ChatID(b.chatID), b.startupMessage(), tele.ModeHTML)
	if err != nil {
		return fmt.Errorf("sending startup message: %w", err)
	}
	return nil
}

func (b *Bot) setupHandlers() {
	b.bot.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if !b.authorized(c) {
				b.logger.Warn().Int64("chat_id", chatOf(c)).Msg("Rejected command from unauthorized chat")
				return c.Send("⛔ Unauthorized")
			}
			return next(c)
		}
	})

	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle("/help", b.handleStart)
	b.bot.Handle("/status", b.handleStatus)
	b.bot.Handle("/pause", b.handlePause)
	b.bot.Handle("/resume", b.handleResume)
}

func (b *Bot) authorized(c tele.Context) bool {
	if sender := c.Sender(); sender != nil && sender.ID == b.chatID {
		return true
	}
	return chatOf(c) == b.chatID
}

func chatOf(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	return 0
}

func (b *Bot) handleStart(c tele.Context) error {
	return c.Send(b.startMessage(), tele.ModeHTML)
}

func (b *Bot) handleStatus(c tele.Context) error {
	if err := c.Send("🔍 Analyzing..."); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()
	report, err := b.runner.RunCycle(ctx)
	return c.Send(statusMessage(report, err), tele.ModeHTML)
}

func (b *Bot) handlePause(c tele.Context) error {
	b.runner.Pause()
	b.logger.Info().Msg("Monitoring paused")
	return c.Send("⏸️ PAUSED\n\nScheduled checks are off. /resume to restart.")
}

func (b *Bot) handleResume(c tele.Context) error {
	b.runner.Resume()
	b.logger.Info().Msg("Monitoring resumed")
	return c.Send("▶️ ACTIVE\n\nScheduled checks are back on.")
}

func (b *Bot) startMessage() string {
	cfg := b.runner.Config()
	state := "▶️ active"
	if b.runner.Paused() {
		state = "⏸️ paused"
	}
	return fmt.Sprintf(`🤖 <b>Bitcoin Bot</b>

⚙️ Check every %s
⚡ %s profile
%s

/status - Analyze now
/pause - Pause checks
/resume - Resume checks`,
		formatInterval(b.interval), html.EscapeString(string(cfg.Profile)), state)
}

func (b *Bot) startupMessage() string {
	return fmt.Sprintf(`🚀 <b>Bot started!</b>

Monitoring 24/7
📊 Check every %s

/start for commands`, formatInterval(b.interval))
}

// statusMessage renders the reply to /status for a finished cycle.
func statusMessage(report *engine.Report, err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrCycleInFlight):
		return "⏳ An analysis is already running, try again shortly."
	case err != nil:
		return "❌ Analysis failed: " + html.EscapeString(err.Error())
	case report == nil:
		return "❌ Analysis produced no result."
	case report.Status == engine.StatusInsufficientHistory:
		return fmt.Sprintf("📊 Collecting data %d/%d\n\nSignals start once the price window is full.",
			report.History, report.MinHistory)
	case report.Notify:
		return "📨 Signal changed, alert sent."
	default:
		return notify.FormatAlert(report.Alert()) + "\n\n<i>No significant change since the last alert.</i>"
	}
}

func formatInterval(d time.Duration) string {
	if d <= 0 {
		return "n/a"
	}
	if d%time.Minute == 0 {
		return fmt.Sprintf("%d min", int(d/time.Minute))
	}
	return d.String()
}
