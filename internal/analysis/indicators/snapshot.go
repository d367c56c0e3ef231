package indicators

import (
	apperrors "btc-timing-bot/internal/errors"
)

// SnapshotConfig holds the lookback periods used to build a Snapshot.
type SnapshotConfig struct {
	RSIPeriod        int
	BollingerPeriod  int
	BollingerStdDev  float64
	ShortSMAPeriod   int
	LongSMAPeriod    int
	RollingLowPeriod int
}

// DefaultSnapshotConfig returns the standard lookbacks.
func DefaultSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		RSIPeriod:        14,
		BollingerPeriod:  20,
		BollingerStdDev:  2,
		ShortSMAPeriod:   50,
		LongSMAPeriod:    200,
		RollingLowPeriod: 90,
	}
}

// Snapshot holds every indicator value derived for one analysis cycle.
// Nil fields are undefined for the available history.
type Snapshot struct {
	Price        float64
	RSI          *float64
	Bollinger    *Bands
	SMA50        *float64
	SMA200       *float64
	RollingLow90 *float64
	DrawdownPct  float64
}

// NewSnapshot computes the indicator snapshot for the most recent price of series.
// The SMA and rolling-low lookbacks shrink to the available history, so a
// partially filled window still yields a long-term average.
func NewSnapshot(series *PriceSeries, cfg SnapshotConfig) (*Snapshot, error) {
	if series == nil || series.Len() == 0 {
		return nil, apperrors.NewValidationError("series", 0, "price series is empty")
	}

	prices := series.Values()
	n := len(prices)
	snap := &Snapshot{
		Price:       prices[n-1],
		DrawdownPct: Drawdown(prices, prices[n-1]),
	}

	snap.RSI = value(NewRSI(cfg.RSIPeriod), prices)
	if b, err := NewBollingerBands(cfg.BollingerPeriod, cfg.BollingerStdDev).Calculate(prices); err == nil {
		snap.Bollinger = b
	}
	snap.SMA50 = value(NewSMA(clampPeriod(cfg.ShortSMAPeriod, n)), prices)
	snap.SMA200 = value(NewSMA(clampPeriod(cfg.LongSMAPeriod, n)), prices)
	snap.RollingLow90 = value(NewRollingLow(clampPeriod(cfg.RollingLowPeriod, n)), prices)

	return snap, nil
}

// value returns the indicator's reading, or nil when it is undefined for prices.
func value(ind Indicator, prices []float64) *float64 {
	v, err := ind.Calculate(prices)
	if err != nil {
		return nil
	}
	return &v
}
