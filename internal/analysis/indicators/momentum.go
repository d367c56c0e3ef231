package indicators

import (
	"fmt"
)

// RSI calculates the Relative Strength Index over the last period transitions.
// The gains and losses are plain sums over the window, not Wilder-smoothed.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Name() string {
	return fmt.Sprintf("RSI_%d", r.period)
}

func (r *RSI) Period() int {
	return r.period
}

// Calculate returns the RSI of the most recent price.
// Requires at least period+1 prices.
func (r *RSI) Calculate(prices []float64) (float64, error) {
	if r.period <= 0 {
		return 0, ErrInvalidPeriod
	}
	if len(prices) < r.period+1 {
		return 0, ErrInsufficientData
	}

	var gains, losses float64
	for i := len(prices) - r.period; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(r.period)
	avgLoss := losses / float64(r.period)

	if avgLoss == 0 {
		// A window with no movement at all carries no momentum, so it reads
		// neutral rather than the textbook 100 for a zero average loss.
		if avgGain == 0 {
			return 50, nil
		}
		return 100, nil
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), nil
}
