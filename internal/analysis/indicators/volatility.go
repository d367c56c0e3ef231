package indicators

import (
	"fmt"
)

// BandPosition classifies the current price relative to the Bollinger Bands.
type BandPosition string

const (
	BelowLower  BandPosition = "below_lower"
	BelowMiddle BandPosition = "below_middle"
	AboveMiddle BandPosition = "above_middle"
	AboveUpper  BandPosition = "above_upper"
)

// WithinBands reports whether the price sits between the lower and upper band.
func (p BandPosition) WithinBands() bool {
	return p == BelowMiddle || p == AboveMiddle
}

// Bands holds a Bollinger Bands reading for the most recent price.
type Bands struct {
	Upper    float64
	Middle   float64
	Lower    float64
	Current  float64
	Position BandPosition
}

// Width returns Upper - Lower.
func (b *Bands) Width() float64 {
	return b.Upper - b.Lower
}

// BollingerBands calculates Bollinger Bands.
type BollingerBands struct {
	period    int
	stdDevMul float64
}

// NewBollingerBands creates a new Bollinger Bands indicator.
func NewBollingerBands(period int, stdDevMul float64) *BollingerBands {
	return &BollingerBands{
		period:    period,
		stdDevMul: stdDevMul,
	}
}

func (b *BollingerBands) Name() string {
	return fmt.Sprintf("BollingerBands_%d_%.1f", b.period, b.stdDevMul)
}

func (b *BollingerBands) Period() int {
	return b.period
}

// Calculate returns the bands over the last period prices and classifies
// the most recent price. Uses the population standard deviation.
func (b *BollingerBands) Calculate(prices []float64) (*Bands, error) {
	if b.period <= 0 || b.stdDevMul <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(prices) < b.period {
		return nil, ErrInsufficientData
	}

	window := tail(prices, b.period)
	sma := mean(window)
	sd := stdDev(window)

	bands := &Bands{
		Middle:  sma,
		Upper:   sma + b.stdDevMul*sd,
		Lower:   sma - b.stdDevMul*sd,
		Current: prices[len(prices)-1],
	}
	bands.Position = classify(bands)
	return bands, nil
}

func classify(b *Bands) BandPosition {
	switch {
	case b.Current < b.Lower:
		return BelowLower
	case b.Current > b.Upper:
		return AboveUpper
	case b.Current < b.Middle:
		return BelowMiddle
	default:
		return AboveMiddle
	}
}
