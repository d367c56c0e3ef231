package cli

import (
	"fmt"
	"strings"

	"btc-timing-bot/internal/analysis/sentiment"
)

const scoreBarWidth = 20

// ScoreBar renders a 0-100 score as a fixed-width bar followed by the value.
func ScoreBar(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	filled := score * scoreBarWidth / 100
	return fmt.Sprintf("%s%s %3d", strings.Repeat("█", filled), strings.Repeat("░", scoreBarWidth-filled), score)
}

// FormatOptionalFloat formats v with the given decimals, or N/A when nil.
func FormatOptionalFloat(v *float64, decimals int) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.*f", decimals, *v)
}

// FormatImpact describes a sentiment verdict on one line.
func FormatImpact(v *sentiment.Verdict) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%s (score %+d)", v.Impact, v.Score)
}
