package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"btc-timing-bot/internal/analysis/decision"
	"btc-timing-bot/internal/analysis/indicators"
	"btc-timing-bot/internal/analysis/scoring"
	"btc-timing-bot/internal/analysis/sentiment"
	apperrors "btc-timing-bot/internal/errors"
	"btc-timing-bot/internal/logging"
	"btc-timing-bot/internal/models"
	"btc-timing-bot/internal/notify"
)

// PriceFeed returns the current spot quote.
type PriceFeed interface {
	Quote(ctx context.Context) (*models.Quote, error)
}

// FearGreedFeed returns the latest Fear & Greed reading.
type FearGreedFeed interface {
	FearGreed(ctx context.Context) (*models.FearGreed, error)
}

// NewsFeed returns recent headlines.
type NewsFeed interface {
	News(ctx context.Context) ([]models.NewsItem, error)
}

// SampleStore persists price samples so the window survives restarts.
type SampleStore interface {
	SavePriceSample(ctx context.Context, s models.PriceSample) error
	RecentPriceSamples(ctx context.Context, limit int) ([]models.PriceSample, error)
}

// RunnerConfig holds the evaluation settings of a Runner.
type RunnerConfig struct {
	Profile         decision.RiskProfile
	Gate            notify.Gate
	Scoring         scoring.Options
	Indicators      indicators.SnapshotConfig
	MinHistory      int
	HistoryCapacity int
}

// DefaultRunnerConfig returns the moderate profile with default gate and rules.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Profile:         decision.Moderate,
		Gate:            notify.DefaultGate(),
		Scoring:         scoring.DefaultOptions(),
		Indicators:      indicators.DefaultSnapshotConfig(),
		MinHistory:      DefaultMinHistory,
		HistoryCapacity: indicators.DefaultSeriesCapacity,
	}
}

// Report is a Result stamped with its cycle identity.
type Report struct {
	*Result
	CycleID   string
	Timestamp time.Time
	Price     float64
	MarketCap float64
}

// Alert converts an OK report into a deliverable alert.
func (r *Report) Alert() notify.Alert {
	a := notify.Alert{
		CycleID:           r.CycleID,
		Timestamp:         r.Timestamp,
		Snapshot:          r.Snapshot,
		Sentiment:         r.Sentiment,
		FearGreed:         r.FearGreed,
		PriceChangePct24h: r.PriceChangePct24h,
	}
	if r.Decision != nil {
		a.Decision = *r.Decision
	}
	if r.Scores != nil {
		a.Scores = *r.Scores
	}
	return a
}

// Runner drives analysis cycles. It owns the price window and the gate
// state; at most one cycle runs at a time.
type Runner struct {
	cfg        RunnerConfig
	prices     PriceFeed
	fearGreed  FearGreedFeed
	news       NewsFeed
	classifier sentiment.Classifier
	store      SampleStore
	sender     notify.Notifier
	logger     zerolog.Logger

	inFlight atomic.Bool
	paused   atomic.Bool

	mu     sync.RWMutex
	series *indicators.PriceSeries
	state  State
	last   *Report

	now func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithFearGreed sets the optional Fear & Greed feed.
func WithFearGreed(f FearGreedFeed) Option {
	return func(r *Runner) { r.fearGreed = f }
}

// WithNews sets the optional news feed.
func WithNews(f NewsFeed) Option {
	return func(r *Runner) { r.news = f }
}

// WithClassifier overrides the keyword sentiment classifier.
func WithClassifier(c sentiment.Classifier) Option {
	return func(r *Runner) { r.classifier = c }
}

// WithStore persists every fetched price.
func WithStore(s SampleStore) Option {
	return func(r *Runner) { r.store = s }
}

// WithSender delivers gated decisions and cycle failures.
func WithSender(s notify.Notifier) Option {
	return func(r *Runner) { r.sender = s }
}

// WithLogger sets the runner logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner reading prices from feed.
func NewRunner(cfg RunnerConfig, feed PriceFeed, opts ...Option) *Runner {
	if cfg.HistoryCapacity <= 0 {
		cfg.HistoryCapacity = indicators.DefaultSeriesCapacity
	}
	if cfg.MinHistory <= 0 {
		cfg.MinHistory = DefaultMinHistory
	}
	r := &Runner{
		cfg:        cfg,
		prices:     feed,
		classifier: sentiment.NewKeywordClassifier(),
		sender:     notify.NewNoOpNotifier(),
		logger:     zerolog.Nop(),
		series:     indicators.NewPriceSeries(cfg.HistoryCapacity),
		state:      InitialState(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WarmStart loads stored samples into the price window. Invalid samples
// are skipped.
func (r *Runner) WarmStart(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, nil
	}
	samples, err := r.store.RecentPriceSamples(ctx, r.cfg.HistoryCapacity)
	if err != nil {
		return 0, apperrors.Wrap(err, "loading price samples")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	loaded := 0
	for _, s := range samples {
		if err := r.series.Append(s.Price); err != nil {
			r.logger.Warn().Err(err).Time("sample_time", s.Timestamp).Msg("Skipping invalid stored sample")
			continue
		}
		loaded++
	}
	r.logger.Info().Int("samples", loaded).Int("window", r.series.Len()).Msg("Price window warmed")
	return loaded, nil
}

// Pause stops scheduled cycles. Manual cycles still run.
func (r *Runner) Pause() { r.paused.Store(true) }

// Resume restarts scheduled cycles.
func (r *Runner) Resume() { r.paused.Store(false) }

// Paused reports whether scheduled cycles are paused.
func (r *Runner) Paused() bool { return r.paused.Load() }

// Config returns the runner configuration.
func (r *Runner) Config() RunnerConfig { return r.cfg }

// History returns the number of prices in the window.
func (r *Runner) History() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.series.Len()
}

// State returns the current gate state.
func (r *Runner) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// LastReport returns the most recent cycle report, or nil before the first
// completed cycle.
func (r *Runner) LastReport() *Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// LastDecision returns the most recent decision, if any.
func (r *Runner) LastDecision() (decision.Decision, bool) {
	last := r.LastReport()
	if last == nil || last.Decision == nil {
		return decision.Decision{}, false
	}
	return *last.Decision, true
}

// RunCycle fetches inputs, evaluates them and delivers the decision when the
// gate allows. It fails with ErrCycleInFlight if another cycle is running.
func (r *Runner) RunCycle(ctx context.Context) (*Report, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return nil, apperrors.ErrCycleInFlight
	}
	defer r.inFlight.Store(false)

	cycleID := logging.NewCycleID()
	logger := logging.WithCycle(r.logger, cycleID)
	ctx = logging.WithLogger(logging.WithCycleID(ctx, cycleID), logger)

	quote, err := r.prices.Quote(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Price fetch failed, aborting cycle")
		return nil, apperrors.Wrap(err, "fetching price")
	}

	now := r.now()
	if err := r.appendPrice(ctx, logger, quote.Price, now); err != nil {
		return nil, err
	}

	in := Input{
		PriceChangePct24h: quote.ChangePercent,
		Profile:           r.cfg.Profile,
		Gate:              r.cfg.Gate,
		Scoring:           r.cfg.Scoring,
		Indicators:        r.cfg.Indicators,
		MinHistory:        r.cfg.MinHistory,
		Classifier:        r.classifier,
	}

	r.mu.RLock()
	in.Prices = r.series.Clone()
	prev := r.state
	r.mu.RUnlock()

	if in.Prices.Len() >= r.cfg.MinHistory {
		in.FearGreed = r.fetchFearGreed(ctx, logger)
		in.News = r.fetchNews(ctx, logger)
	}

	res, next, err := Evaluate(ctx, in, prev)
	if err != nil {
		logger.Error().Err(err).Msg("Evaluation failed")
		return nil, err
	}

	report := &Report{Result: res, CycleID: cycleID, Timestamp: now, Price: quote.Price, MarketCap: quote.MarketCap}

	r.mu.Lock()
	r.state = next
	r.last = report
	r.mu.Unlock()

	if res.Status == StatusInsufficientHistory {
		logging.LogCollecting(logger, res.History, res.MinHistory)
		return report, nil
	}

	logging.LogDecision(logger, string(res.Decision.Action), res.Decision.Confidence,
		res.Scores.BuyScore, res.Scores.SellScore, quote.Price, res.Notify)

	if res.Notify {
		if err := r.sender.SendAlert(ctx, report.Alert()); err != nil {
			logger.Error().Err(err).Msg("Alert delivery failed")
		}
	}

	return report, nil
}

func (r *Runner) appendPrice(ctx context.Context, logger zerolog.Logger, price float64, at time.Time) error {
	r.mu.Lock()
	err := r.series.Append(price)
	r.mu.Unlock()
	if err != nil {
		logger.Error().Err(err).Float64("price", price).Msg("Rejected price")
		return err
	}

	if r.store != nil {
		if err := r.store.SavePriceSample(ctx, models.PriceSample{Timestamp: at, Price: price}); err != nil {
			logger.Warn().Err(err).Msg("Failed to persist price sample")
		}
	}
	return nil
}

func (r *Runner) fetchFearGreed(ctx context.Context, logger zerolog.Logger) *int {
	if r.fearGreed == nil {
		return nil
	}
	fg, err := r.fearGreed.FearGreed(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Fear & Greed unavailable, skipping")
		return nil
	}
	v := fg.Value
	return &v
}

func (r *Runner) fetchNews(ctx context.Context, logger zerolog.Logger) []models.NewsItem {
	if r.news == nil {
		return nil
	}
	items, err := r.news.News(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("News unavailable, skipping")
		return nil
	}
	if items == nil {
		items = []models.NewsItem{}
	}
	return items
}

// Run executes a cycle immediately and then every interval until ctx is
// done. Paused ticks are skipped; failed cycles are logged and never stop
// the loop.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	r.tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	if r.Paused() {
		logging.LogCycleSkipped(r.logger, "paused")
		return
	}
	if _, err := r.RunCycle(ctx); err != nil {
		if apperrors.Is(err, apperrors.ErrCycleInFlight) {
			logging.LogCycleSkipped(r.logger, "cycle in flight")
			return
		}
		r.logger.Error().Err(err).Msg("Cycle failed")
		if ctx.Err() != nil {
			return
		}
		if err := r.sender.SendError(ctx, err, "analysis cycle"); err != nil {
			r.logger.Warn().Err(err).Msg("Error notification failed")
		}
	}
}
