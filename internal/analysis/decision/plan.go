package decision

const (
	entryBandLow  = 0.985
	entryBandHigh = 1.015
)

// TradingPlan holds the entry band, exits and size derived from a price.
type TradingPlan struct {
	EntryLow        float64 `json:"entry_low"`
	EntryHigh       float64 `json:"entry_high"`
	StopLoss        float64 `json:"stop_loss"`
	TP1             float64 `json:"tp1"`
	TP2             float64 `json:"tp2"`
	PositionSizePct float64 `json:"position_size_pct"`
	StopLossPct     float64 `json:"stop_loss_pct"` // negative percent from price
	TP1Pct          float64 `json:"tp1_pct"`
	TP2Pct          float64 `json:"tp2_pct"`
}

// NewTradingPlan derives a plan from the price and the profile multipliers.
func NewTradingPlan(price float64, m MultiplierSet) *TradingPlan {
	return &TradingPlan{
		EntryLow:        price * entryBandLow,
		EntryHigh:       price * entryBandHigh,
		StopLoss:        price * (1 - m.StopLoss),
		TP1:             price * m.TP1,
		TP2:             price * m.TP2,
		PositionSizePct: m.Position * 100,
		StopLossPct:     -m.StopLoss * 100,
		TP1Pct:          (m.TP1 - 1) * 100,
		TP2Pct:          (m.TP2 - 1) * 100,
	}
}
