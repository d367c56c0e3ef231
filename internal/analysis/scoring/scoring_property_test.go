package scoring

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"btc-timing-bot/internal/analysis/indicators"
	"btc-timing-bot/internal/analysis/sentiment"
)

// Property: for any combination of indicator values, fear & greed and
// sentiment, both scores stay within [0, 100].

var allImpacts = []sentiment.Impact{
	sentiment.ImpactNeutral,
	sentiment.ImpactPositive,
	sentiment.ImpactNegative,
	sentiment.ImpactCriticalNegative,
	sentiment.ImpactDivergencePositive,
	sentiment.ImpactDivergenceNegative,
}

var allPositions = []indicators.BandPosition{
	indicators.BelowLower,
	indicators.BelowMiddle,
	indicators.AboveMiddle,
	indicators.AboveUpper,
}

func TestProperty_ScoresWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())
	parameters.MaxShrinkCount = 0

	properties := gopter.NewProperties(parameters)

	properties.Property("buy and sell scores are within [0, 100]", prop.ForAll(
		func(rsi float64, fg int, impactIdx int, posIdx int, drawdown float64, price float64, nearBand bool) bool {
			sma50 := price * 0.9
			sma200 := price * 0.8
			low := price * 0.99
			snap := &indicators.Snapshot{
				Price: price,
				RSI:   &rsi,
				Bollinger: &indicators.Bands{
					Upper:    price * 1.05,
					Middle:   price,
					Lower:    price * 0.95,
					Current:  price,
					Position: allPositions[posIdx%len(allPositions)],
				},
				SMA50:        &sma50,
				SMA200:       &sma200,
				RollingLow90: &low,
				DrawdownPct:  drawdown,
			}
			verdict := &sentiment.Verdict{Impact: allImpacts[impactIdx%len(allImpacts)]}
			opts := DefaultOptions()
			opts.NearBandBonus = nearBand

			pair := Score(snap, verdict, &fg, opts)
			return pair.BuyScore >= MinScore && pair.BuyScore <= MaxScore &&
				pair.SellScore >= MinScore && pair.SellScore <= MaxScore
		},
		gen.Float64Range(0, 100),
		gen.IntRange(0, 100),
		gen.IntRange(0, 5),
		gen.IntRange(0, 3),
		gen.Float64Range(-99, 0),
		gen.Float64Range(1, 200000),
		gen.Bool(),
	))

	properties.Property("scoring is pure", prop.ForAll(
		func(rsi float64, fg int) bool {
			snap := &indicators.Snapshot{Price: 100, RSI: &rsi, DrawdownPct: -20}
			a := Score(snap, nil, &fg, DefaultOptions())
			b := Score(snap, nil, &fg, DefaultOptions())
			return a.BuyScore == b.BuyScore && a.SellScore == b.SellScore &&
				len(a.BuyReasons) == len(b.BuyReasons) && len(a.SellReasons) == len(b.SellReasons)
		},
		gen.Float64Range(0, 100),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
