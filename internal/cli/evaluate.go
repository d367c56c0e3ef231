package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"btc-timing-bot/internal/analysis/decision"
	"btc-timing-bot/internal/analysis/indicators"
	"btc-timing-bot/internal/engine"
	apperrors "btc-timing-bot/internal/errors"
	"btc-timing-bot/internal/logging"
	"btc-timing-bot/internal/models"
)

// evaluateInput is the offline input file read by `evaluate`.
type evaluateInput struct {
	Prices            []float64   `json:"prices"`
	PriceChangePct24h float64     `json:"price_change_24h"`
	FearGreed         *int        `json:"fear_greed"`
	News              []newsInput `json:"news"`
	RiskProfile       string      `json:"risk_profile"`
	Previous          *stateInput `json:"previous"`
}

type newsInput struct {
	Title  string `json:"title"`
	Source string `json:"source"`
	URL    string `json:"url"`
}

type stateInput struct {
	BuyScore  int    `json:"buy_score"`
	SellScore int    `json:"sell_score"`
	Action    string `json:"action"`
}

func newEvaluateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <file.json>",
		Short: "Score a saved price window offline",
		Long: `Evaluate runs one analysis over a JSON file instead of live feeds:

  {
    "prices": [64000, 64120.5, ...],
    "price_change_24h": -3.4,
    "fear_greed": 22,
    "news": [{"title": "ETF inflows hit record", "source": "wire"}],
    "risk_profile": "Moderate",
    "previous": {"buy_score": 40, "sell_score": 10, "action": "HOLD"}
  }

"fear_greed" and "news" are optional; omit them to score without those signals.
"previous" is the last notified state and decides whether the result would notify.`,
		Example: `  btcbot evaluate window.json
  btcbot evaluate window.json --profile Aggressive --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			profileFlag, _ := cmd.Flags().GetString("profile")

			in, err := readEvaluateInput(args[0])
			if err != nil {
				return err
			}

			engineIn, prev, err := buildEvaluateInput(app, in, profileFlag)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			ctx = logging.WithLogger(ctx, app.Logger)

			res, _, err := engine.Evaluate(ctx, engineIn, prev)
			if err != nil {
				output.Error("Evaluation failed: %v", err)
				return err
			}

			var price float64
			if n := len(in.Prices); n > 0 {
				price = in.Prices[n-1]
			}
			return printResult(output, res, price, 0)
		},
	}

	cmd.Flags().String("profile", "", "risk profile override (Conservative, Moderate, Aggressive)")

	return cmd
}

func readEvaluateInput(path string) (*evaluateInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	var in evaluateInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, apperrors.NewValidationError("input", path, "invalid JSON: "+err.Error())
	}
	return &in, nil
}

// buildEvaluateInput resolves the profile (flag, then file, then config)
// and converts the file into engine input.
func buildEvaluateInput(app *App, in *evaluateInput, profileFlag string) (engine.Input, engine.State, error) {
	rc, err := runnerConfig(app.Config)
	if err != nil {
		return engine.Input{}, engine.State{}, err
	}

	profile := rc.Profile
	for _, name := range []string{profileFlag, in.RiskProfile} {
		if name == "" {
			continue
		}
		if profile, err = decision.ParseRiskProfile(name); err != nil {
			return engine.Input{}, engine.State{}, err
		}
		break
	}

	capacity := rc.HistoryCapacity
	if len(in.Prices) > capacity {
		capacity = len(in.Prices)
	}
	series, err := indicators.NewPriceSeriesFrom(in.Prices, capacity)
	if err != nil {
		return engine.Input{}, engine.State{}, err
	}

	var news []models.NewsItem
	if in.News != nil {
		news = make([]models.NewsItem, 0, len(in.News))
		for _, n := range in.News {
			news = append(news, models.NewsItem{Title: n.Title, Source: n.Source, URL: n.URL})
		}
	}

	prev := engine.InitialState()
	if p := in.Previous; p != nil {
		prev = engine.State{BuyScore: p.BuyScore, SellScore: p.SellScore, Action: decision.ActionHold}
		if p.Action != "" {
			if prev.Action, err = decision.ParseAction(p.Action); err != nil {
				return engine.Input{}, engine.State{}, err
			}
		}
	}

	return engine.Input{
		Prices:            series,
		PriceChangePct24h: in.PriceChangePct24h,
		FearGreed:         in.FearGreed,
		News:              news,
		Profile:           profile,
		Gate:              rc.Gate,
		Scoring:           rc.Scoring,
		Indicators:        rc.Indicators,
		MinHistory:        rc.MinHistory,
		Classifier:        newClassifier(app.Config, app.Logger),
	}, prev, nil
}
