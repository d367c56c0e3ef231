// Package indicators provides technical indicator calculations over a price series.
package indicators

import (
	"math"

	apperrors "btc-timing-bot/internal/errors"
)

// DefaultSeriesCapacity is the number of prices retained by default.
const DefaultSeriesCapacity = 200

// Indicator defines the interface for single-value technical indicators.
type Indicator interface {
	Name() string
	Calculate(prices []float64) (float64, error)
	Period() int
}

// PriceSeries is a bounded, append-only window of positive prices, oldest first.
// It is not safe for concurrent use; the engine owns it for the life of a cycle.
type PriceSeries struct {
	values   []float64
	capacity int
}

// NewPriceSeries creates an empty series that keeps at most capacity prices.
func NewPriceSeries(capacity int) *PriceSeries {
	if capacity <= 0 {
		capacity = DefaultSeriesCapacity
	}
	return &PriceSeries{
		values:   make([]float64, 0, capacity),
		capacity: capacity,
	}
}

// NewPriceSeriesFrom creates a series from existing prices, keeping the most recent capacity.
func NewPriceSeriesFrom(prices []float64, capacity int) (*PriceSeries, error) {
	s := NewPriceSeries(capacity)
	for _, p := range prices {
		if err := s.Append(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Append adds a price, evicting the oldest one when the series is full.
func (s *PriceSeries) Append(price float64) error {
	if err := ValidatePrice(price); err != nil {
		return err
	}
	if len(s.values) == s.capacity {
		copy(s.values, s.values[1:])
		s.values = s.values[:len(s.values)-1]
	}
	s.values = append(s.values, price)
	return nil
}

// Len returns the number of retained prices.
func (s *PriceSeries) Len() int {
	return len(s.values)
}

// Capacity returns the maximum number of retained prices.
func (s *PriceSeries) Capacity() int {
	return s.capacity
}

// Last returns the most recent price, or 0 for an empty series.
func (s *PriceSeries) Last() float64 {
	if len(s.values) == 0 {
		return 0
	}
	return s.values[len(s.values)-1]
}

// Values returns a copy of the retained prices.
func (s *PriceSeries) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// Clone returns an independent copy of the series.
func (s *PriceSeries) Clone() *PriceSeries {
	return &PriceSeries{values: s.Values(), capacity: s.capacity}
}

// ValidatePrice rejects prices that can't appear in a series.
func ValidatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return apperrors.NewValidationError("price", price, "must be a finite number")
	}
	if price <= 0 {
		return apperrors.NewValidationError("price", price, "must be positive")
	}
	return nil
}
