// Package sentiment classifies batches of news headlines into a market-sentiment verdict.
package sentiment

import (
	"context"
	"fmt"
	"math"

	"btc-timing-bot/internal/models"
)

// Impact is the overall sentiment verdict for a batch of news.
type Impact string

const (
	ImpactNeutral            Impact = "NEUTRAL"
	ImpactPositive           Impact = "POSITIVE"
	ImpactNegative           Impact = "NEGATIVE"
	ImpactCriticalNegative   Impact = "CRITICAL_NEGATIVE"
	ImpactDivergencePositive Impact = "DIVERGENCE_POSITIVE"
	ImpactDivergenceNegative Impact = "DIVERGENCE_NEGATIVE"
)

// Label classifies a single news item.
type Label string

const (
	LabelNone     Label = ""
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelCritical Label = "critical"
)

const (
	// MaxKeyEvents is the number of highlighted items kept in a verdict.
	MaxKeyEvents = 3
	// DivergenceThresholdPct is the 24h move beyond which sentiment is compared with price.
	DivergenceThresholdPct = 5.0

	scoreThreshold = 3
)

// KeyEvent is a highlighted news item.
type KeyEvent struct {
	Title  string
	Source string
	Type   Label
}

// Verdict is the sentiment reading for one batch of news.
type Verdict struct {
	Impact        Impact
	Score         int
	PositiveCount int
	NegativeCount int
	CriticalCount int
	KeyEvents     []KeyEvent
	Summary       string
}

// Classifier turns news items into a verdict. Implementations may be
// keyword based or model backed; the scoring model only sees the Verdict.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, items []models.NewsItem, priceChangePct24h float64) (*Verdict, error)
}

// Match records which vocabularies a single item matched.
// An item can match more than one set.
type Match struct {
	Item     models.NewsItem
	Positive bool
	Negative bool
	Critical bool
}

// Label returns the highest-priority label of the match.
func (m Match) Label() Label {
	switch {
	case m.Critical:
		return LabelCritical
	case m.Negative:
		return LabelNegative
	case m.Positive:
		return LabelPositive
	default:
		return LabelNone
	}
}

// Aggregate folds per-item matches into a verdict and applies the
// price-divergence override.
func Aggregate(matches []Match, priceChangePct24h float64) *Verdict {
	if len(matches) == 0 {
		return &Verdict{
			Impact:  ImpactNeutral,
			Summary: "no news items to analyze",
		}
	}

	v := &Verdict{}
	seen := make(map[string]bool)
	for _, m := range matches {
		if m.Positive {
			v.PositiveCount++
			v.Score++
		}
		if m.Negative {
			v.NegativeCount++
			v.Score--
		}
		if m.Critical {
			v.CriticalCount++
			v.Score -= 2
		}

		label := m.Label()
		if label == LabelNone || len(v.KeyEvents) >= MaxKeyEvents || seen[m.Item.Title] {
			continue
		}
		seen[m.Item.Title] = true
		v.KeyEvents = append(v.KeyEvents, KeyEvent{
			Title:  m.Item.Title,
			Source: m.Item.Source,
			Type:   label,
		})
	}

	switch {
	case v.CriticalCount > 0:
		v.Impact = ImpactCriticalNegative
	case v.Score >= scoreThreshold:
		v.Impact = ImpactPositive
	case v.Score <= -scoreThreshold:
		v.Impact = ImpactNegative
	default:
		v.Impact = ImpactNeutral
	}

	if math.Abs(priceChangePct24h) > DivergenceThresholdPct {
		if v.Impact == ImpactPositive && priceChangePct24h < 0 {
			v.Impact = ImpactDivergencePositive
		} else if v.Impact == ImpactNegative && priceChangePct24h > 0 {
			v.Impact = ImpactDivergenceNegative
		}
	}

	v.Summary = fmt.Sprintf("%d items: %d positive, %d negative, %d critical (score %+d)",
		len(matches), v.PositiveCount, v.NegativeCount, v.CriticalCount, v.Score)
	return v
}
