// Package engine wires the indicator, sentiment, scoring, decision and gate
// stages into a single evaluation and drives them one cycle at a time.
package engine

import (
	"context"

	"btc-timing-bot/internal/analysis/decision"
	"btc-timing-bot/internal/analysis/indicators"
	"btc-timing-bot/internal/analysis/scoring"
	"btc-timing-bot/internal/analysis/sentiment"
	apperrors "btc-timing-bot/internal/errors"
	"btc-timing-bot/internal/logging"
	"btc-timing-bot/internal/models"
	"btc-timing-bot/internal/notify"
)

// DefaultMinHistory is the number of prices required before scoring.
const DefaultMinHistory = 50

// State is the last emitted decision, owned by the caller and threaded
// through Evaluate.
type State = notify.State

// InitialState returns the zero state (0, 0, HOLD).
func InitialState() State {
	return notify.InitialState()
}

// Status reports whether a cycle produced a decision.
type Status string

const (
	StatusOK                  Status = "OK"
	StatusInsufficientHistory Status = "INSUFFICIENT_HISTORY"
)

// Input is everything one evaluation consumes. FearGreed and News are
// optional; nil skips their rules.
type Input struct {
	Prices            *indicators.PriceSeries
	PriceChangePct24h float64
	FearGreed         *int
	News              []models.NewsItem

	Profile    decision.RiskProfile
	Gate       notify.Gate
	Scoring    scoring.Options
	Indicators indicators.SnapshotConfig
	MinHistory int
	Classifier sentiment.Classifier
}

// Result is the outcome of one evaluation. Only Status, History and
// MinHistory are set when history is insufficient.
type Result struct {
	Status     Status
	History    int
	MinHistory int

	Decision   *decision.Decision
	Scores     *scoring.ScorePair
	Snapshot   *indicators.Snapshot
	Sentiment  *sentiment.Verdict
	Notify     bool
	GateReason notify.GateReason

	FearGreed         *int
	PriceChangePct24h float64
}

// Evaluate runs one full analysis over in and returns the result with the
// next state. It performs no I/O besides the classifier call. Invalid input
// fails with an error matching ErrInputValidation; short history returns
// StatusInsufficientHistory with prev unchanged.
func Evaluate(ctx context.Context, in Input, prev State) (*Result, State, error) {
	if err := validate(in); err != nil {
		return nil, prev, err
	}

	minHistory := in.MinHistory
	if minHistory <= 0 {
		minHistory = DefaultMinHistory
	}
	res := &Result{
		History:           in.Prices.Len(),
		MinHistory:        minHistory,
		FearGreed:         in.FearGreed,
		PriceChangePct24h: in.PriceChangePct24h,
	}
	if res.History < minHistory {
		res.Status = StatusInsufficientHistory
		return res, prev, nil
	}

	cfg := in.Indicators
	if cfg == (indicators.SnapshotConfig{}) {
		cfg = indicators.DefaultSnapshotConfig()
	}
	snap, err := indicators.NewSnapshot(in.Prices, cfg)
	if err != nil {
		return nil, prev, apperrors.Wrap(err, "building indicator snapshot")
	}

	opts := in.Scoring
	if opts == (scoring.Options{}) {
		opts = scoring.DefaultOptions()
	}

	verdict := classify(ctx, in)

	pair := scoring.Score(snap, verdict, in.FearGreed, opts)
	d := decision.Resolve(pair, in.Profile, snap.Price)
	emit, reason, next := in.Gate.Evaluate(prev, d, pair)

	res.Status = StatusOK
	res.Decision = &d
	res.Scores = &pair
	res.Snapshot = snap
	res.Sentiment = verdict
	res.Notify = emit
	res.GateReason = reason
	return res, next, nil
}

func validate(in Input) error {
	if in.Prices == nil || in.Prices.Len() == 0 {
		return apperrors.NewValidationError("prices", 0, "price series is empty")
	}
	for _, p := range in.Prices.Values() {
		if err := indicators.ValidatePrice(p); err != nil {
			return err
		}
	}
	if err := in.Profile.Validate(); err != nil {
		return err
	}
	if in.FearGreed != nil && (*in.FearGreed < 0 || *in.FearGreed > 100) {
		return apperrors.NewValidationError("fear_greed", *in.FearGreed, "must be within [0, 100]")
	}
	return nil
}

// classify returns nil when no news was supplied or the classifier failed.
func classify(ctx context.Context, in Input) *sentiment.Verdict {
	if in.News == nil {
		return nil
	}
	classifier := in.Classifier
	if classifier == nil {
		classifier = sentiment.NewKeywordClassifier()
	}

	verdict, err := classifier.Classify(ctx, in.News, in.PriceChangePct24h)
	if err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().Err(err).Str("classifier", classifier.Name()).Msg("Sentiment classification failed, skipping")
		return nil
	}
	return verdict
}
