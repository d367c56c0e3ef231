package indicators

import (
	"fmt"
)

// SMA calculates the Simple Moving Average of the last period prices.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

func (s *SMA) Name() string {
	return fmt.Sprintf("SMA_%d", s.period)
}

func (s *SMA) Period() int {
	return s.period
}

func (s *SMA) Calculate(prices []float64) (float64, error) {
	if s.period <= 0 {
		return 0, ErrInvalidPeriod
	}
	if len(prices) < s.period {
		return 0, ErrInsufficientData
	}
	return mean(tail(prices, s.period)), nil
}

// RollingLow returns the lowest price of the last period prices.
type RollingLow struct {
	period int
}

// NewRollingLow creates a new rolling-low indicator.
func NewRollingLow(period int) *RollingLow {
	return &RollingLow{period: period}
}

func (r *RollingLow) Name() string {
	return fmt.Sprintf("Low_%d", r.period)
}

func (r *RollingLow) Period() int {
	return r.period
}

func (r *RollingLow) Calculate(prices []float64) (float64, error) {
	if r.period <= 0 {
		return 0, ErrInvalidPeriod
	}
	if len(prices) < r.period {
		return 0, ErrInsufficientData
	}
	return lowest(tail(prices, r.period)), nil
}

// Drawdown returns the percentage decline of current from the highest price.
// current takes part in the maximum, so the result is never positive.
func Drawdown(prices []float64, current float64) float64 {
	peak := current
	if h := highest(prices); len(prices) > 0 && h > peak {
		peak = h
	}
	if peak <= 0 {
		return 0
	}
	return (current - peak) / peak * 100
}
