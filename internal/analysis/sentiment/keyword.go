package sentiment

import (
	"context"
	"strings"

	"btc-timing-bot/internal/models"
)

// Closed vocabularies of market-jargon substrings, matched against lower-cased titles.
var (
	positiveKeywords = []string{
		"surge", "rally", "soar", "bullish", "breakout", "all-time high", "record high",
		"adoption", "approval", "approved", "etf inflow", "inflows", "accumulat",
		"institutional buying", "upgrade", "partnership", "halving",
	}

	negativeKeywords = []string{
		"crash", "plunge", "bearish", "sell-off", "selloff", "dump", "decline", "slump",
		"outflow", "liquidation", "lawsuit", "crackdown", "ban", "regulation", "fud",
		"tumble", "drop",
	}

	criticalKeywords = []string{
		"hack", "exploit", "bankrupt", "insolven", "fraud", "sec charges", "collapse",
		"rug pull", "halts withdrawals", "halted withdrawals", "delist", "seized",
	}
)

// KeywordClassifier matches titles against fixed keyword sets.
type KeywordClassifier struct {
	positive []string
	negative []string
	critical []string
}

// NewKeywordClassifier creates a classifier with the built-in vocabularies.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		positive: positiveKeywords,
		negative: negativeKeywords,
		critical: criticalKeywords,
	}
}

func (k *KeywordClassifier) Name() string {
	return "keyword"
}

// Classify never fails; an empty batch yields a neutral verdict.
func (k *KeywordClassifier) Classify(_ context.Context, items []models.NewsItem, priceChangePct24h float64) (*Verdict, error) {
	return Aggregate(k.Match(items), priceChangePct24h), nil
}

// Match tests each item against the three vocabularies.
func (k *KeywordClassifier) Match(items []models.NewsItem) []Match {
	matches := make([]Match, 0, len(items))
	for _, item := range items {
		title := strings.ToLower(item.Title)
		matches = append(matches, Match{
			Item:     item,
			Positive: containsAny(title, k.positive),
			Negative: containsAny(title, k.negative),
			Critical: containsAny(title, k.critical),
		})
	}
	return matches
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
