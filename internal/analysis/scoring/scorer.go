// Package scoring converts indicator snapshots and market sentiment into
// buy and sell conviction scores.
package scoring

import (
	"fmt"
	"math"

	"btc-timing-bot/internal/analysis/indicators"
	"btc-timing-bot/internal/analysis/sentiment"
)

const (
	MinScore = 0
	MaxScore = 100
)

// Options tunes the optional rule variants.
type Options struct {
	// NearBandBonus enables the weaker +10 bonus for prices within
	// NearBandPct of a Bollinger band without crossing it.
	NearBandBonus bool
	NearBandPct   float64
	// SMASupportPct is the distance from the long SMA counted as support.
	SMASupportPct float64
	// RollingLowPct is the distance from the rolling low counted as support.
	RollingLowPct   float64
	RollingLowBonus int
	// DistributionDrawdownPct bounds the drawdown of the "near highs" sell rule.
	DistributionDrawdownPct float64
}

// DefaultOptions returns the canonical rule set.
func DefaultOptions() Options {
	return Options{
		NearBandBonus:           false,
		NearBandPct:             1,
		SMASupportPct:           2,
		RollingLowPct:           3,
		RollingLowBonus:         5,
		DistributionDrawdownPct: -10,
	}
}

// ScorePair holds the buy and sell conviction scores with their reasons,
// in the order the rules contributed.
type ScorePair struct {
	BuyScore    int
	SellScore   int
	BuyReasons  []string
	SellReasons []string
}

// TopBuyReasons returns at most n buy reasons.
func (p ScorePair) TopBuyReasons(n int) []string {
	return topReasons(p.BuyReasons, n)
}

// TopSellReasons returns at most n sell reasons.
func (p ScorePair) TopSellReasons(n int) []string {
	return topReasons(p.SellReasons, n)
}

func topReasons(reasons []string, n int) []string {
	if n < 0 || n >= len(reasons) {
		return reasons
	}
	return reasons[:n]
}

// tally accumulates one side of the score. Rules worth no points leave no reason.
type tally struct {
	score   int
	reasons []string
}

func (t *tally) add(points int, reason string) {
	if points == 0 {
		return
	}
	t.score += points
	if reason != "" {
		t.reasons = append(t.reasons, reason)
	}
}

// Score evaluates every rule independently and clamps both sides to [0, 100].
// verdict and fearGreed are optional; their rules are skipped when nil.
func Score(snap *indicators.Snapshot, verdict *sentiment.Verdict, fearGreed *int, opts Options) ScorePair {
	buy := &tally{}
	sell := &tally{}

	scoreRSI(snap, buy, sell)
	scoreBollinger(snap, opts, buy, sell)
	if fearGreed != nil {
		scoreFearGreed(*fearGreed, buy, sell)
	}
	scoreSupport(snap, opts, buy)
	scoreDrawdown(snap, buy)
	scoreTrend(snap, opts, sell)
	if verdict != nil {
		scoreSentiment(verdict, buy, sell)
	}

	return ScorePair{
		BuyScore:    clamp(buy.score, MinScore, MaxScore),
		SellScore:   clamp(sell.score, MinScore, MaxScore),
		BuyReasons:  buy.reasons,
		SellReasons: sell.reasons,
	}
}

// scoreRSI: RSI < 30 oversold (bullish), RSI > 70 overbought (bearish).
func scoreRSI(snap *indicators.Snapshot, buy, sell *tally) {
	if snap.RSI == nil {
		return
	}
	rsi := *snap.RSI

	switch {
	case rsi < 25:
		buy.add(30, fmt.Sprintf("RSI deeply oversold (%.1f)", rsi))
	case rsi < 30:
		buy.add(20, fmt.Sprintf("RSI oversold (%.1f)", rsi))
	case rsi < 40:
		buy.add(5, fmt.Sprintf("RSI leaning oversold (%.1f)", rsi))
	}

	switch {
	case rsi > 80:
		sell.add(30, fmt.Sprintf("RSI deeply overbought (%.1f)", rsi))
	case rsi > 75:
		sell.add(20, fmt.Sprintf("RSI overbought (%.1f)", rsi))
	case rsi > 70:
		sell.add(10, fmt.Sprintf("RSI leaning overbought (%.1f)", rsi))
	}
}

func scoreBollinger(snap *indicators.Snapshot, opts Options, buy, sell *tally) {
	b := snap.Bollinger
	if b == nil {
		return
	}

	switch {
	case b.Position == indicators.BelowLower:
		buy.add(20, "Price below lower Bollinger band")
	case opts.NearBandBonus && b.Width() > 0 && b.Current <= b.Lower*(1+opts.NearBandPct/100):
		buy.add(10, "Price near lower Bollinger band")
	}

	switch {
	case b.Position == indicators.AboveUpper:
		sell.add(20, "Price above upper Bollinger band")
	case opts.NearBandBonus && b.Width() > 0 && b.Current >= b.Upper*(1-opts.NearBandPct/100):
		sell.add(10, "Price near upper Bollinger band")
	}
}

// scoreFearGreed: low readings are fear (bullish), high readings are greed (bearish).
func scoreFearGreed(fg int, buy, sell *tally) {
	switch {
	case fg < 20:
		buy.add(25, fmt.Sprintf("Extreme fear (%d)", fg))
	case fg < 30:
		buy.add(15, fmt.Sprintf("Fear (%d)", fg))
	case fg < 50:
		buy.add(5, fmt.Sprintf("Mild fear (%d)", fg))
	}

	switch {
	case fg > 85:
		sell.add(25, fmt.Sprintf("Extreme greed (%d)", fg))
	case fg > 75:
		sell.add(15, fmt.Sprintf("Greed (%d)", fg))
	case fg > 60:
		sell.add(5, fmt.Sprintf("Mild greed (%d)", fg))
	}
}

func scoreSupport(snap *indicators.Snapshot, opts Options, buy *tally) {
	if snap.SMA200 != nil && *snap.SMA200 > 0 {
		if math.Abs(snap.Price-*snap.SMA200) / *snap.SMA200 < opts.SMASupportPct/100 {
			buy.add(10, fmt.Sprintf("Support at long-term SMA (%.0f)", *snap.SMA200))
		}
	}
	if snap.RollingLow90 != nil && *snap.RollingLow90 > 0 {
		if (snap.Price-*snap.RollingLow90) / *snap.RollingLow90 <= opts.RollingLowPct/100 {
			buy.add(opts.RollingLowBonus, fmt.Sprintf("Near rolling low (%.0f)", *snap.RollingLow90))
		}
	}
}

func scoreDrawdown(snap *indicators.Snapshot, buy *tally) {
	switch {
	case snap.DrawdownPct <= -60:
		buy.add(10, fmt.Sprintf("Severe drawdown (%.1f%%)", snap.DrawdownPct))
	case snap.DrawdownPct <= -40:
		buy.add(5, fmt.Sprintf("Deep drawdown (%.1f%%)", snap.DrawdownPct))
	}
}

// scoreTrend flags the distribution zone: an established uptrend close to its highs.
func scoreTrend(snap *indicators.Snapshot, opts Options, sell *tally) {
	if snap.SMA50 == nil || snap.SMA200 == nil {
		return
	}
	uptrend := snap.Price > *snap.SMA50 && *snap.SMA50 > *snap.SMA200
	if !uptrend {
		return
	}
	if snap.DrawdownPct >= opts.DistributionDrawdownPct {
		sell.add(15, "Uptrend near highs (distribution zone)")
	} else {
		sell.add(10, "Price above 50 and 200 SMA")
	}
}

func scoreSentiment(v *sentiment.Verdict, buy, sell *tally) {
	switch v.Impact {
	case sentiment.ImpactPositive:
		buy.add(10, "Positive news sentiment")
	case sentiment.ImpactCriticalNegative:
		buy.add(-20, "Critical negative news")
	case sentiment.ImpactDivergencePositive:
		buy.add(15, "Positive news while price falls")
	}

	switch v.Impact {
	case sentiment.ImpactNegative:
		sell.add(15, "Negative news sentiment")
	case sentiment.ImpactCriticalNegative:
		sell.add(15, "Critical negative news")
	case sentiment.ImpactDivergenceNegative:
		sell.add(10, "Negative news while price rises")
	}
}

// clamp restricts a value to a range.
func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
