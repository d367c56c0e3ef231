package decision

import (
	"strings"

	"btc-timing-bot/internal/analysis/scoring"
	apperrors "btc-timing-bot/internal/errors"
)

// Action is the discrete trading action for a cycle.
type Action string

const (
	ActionHold       Action = "HOLD"
	ActionBuyStrong  Action = "BUY_STRONG"
	ActionBuyWeak    Action = "BUY_WEAK"
	ActionSellStrong Action = "SELL_STRONG"
	ActionSellWeak   Action = "SELL_WEAK"
	ActionConflict   Action = "CONFLICT"
)

// Actions returns every action in resolution order.
func Actions() []Action {
	return []Action{ActionHold, ActionBuyStrong, ActionBuyWeak, ActionSellStrong, ActionSellWeak, ActionConflict}
}

// ParseAction resolves an action name, ignoring case.
func ParseAction(name string) (Action, error) {
	for _, a := range Actions() {
		if strings.EqualFold(string(a), strings.TrimSpace(name)) {
			return a, nil
		}
	}
	return "", apperrors.NewValidationError("action", name, "must be one of HOLD, BUY_STRONG, BUY_WEAK, SELL_STRONG, SELL_WEAK, CONFLICT")
}

// IsBuy reports whether the action is a buy tier.
func (a Action) IsBuy() bool {
	return a == ActionBuyStrong || a == ActionBuyWeak
}

// IsSell reports whether the action is a sell tier.
func (a Action) IsSell() bool {
	return a == ActionSellStrong || a == ActionSellWeak
}

// IsStrong reports whether the action is a strong tier.
func (a Action) IsStrong() bool {
	return a == ActionBuyStrong || a == ActionSellStrong
}

// Label returns a short human-readable instruction.
func (a Action) Label() string {
	switch a {
	case ActionBuyStrong:
		return "BUY NOW"
	case ActionBuyWeak:
		return "ACCUMULATE (DCA)"
	case ActionSellStrong:
		return "SELL"
	case ActionSellWeak:
		return "TAKE PARTIAL PROFIT"
	case ActionConflict:
		return "CAUTION"
	default:
		return "HOLD"
	}
}

const (
	// conflictLevel is the score both sides must reach for CONFLICT, and the
	// opposite-side ceiling for every directional action.
	conflictLevel = 50

	conflictConfidence = 45
	holdConfidence     = 50
)

// Decision is the resolved action for a cycle.
type Decision struct {
	Action     Action
	Confidence int
	Profile    RiskProfile
	Price      float64
	Plan       *TradingPlan // nil for HOLD and CONFLICT
}

// Resolve maps a score pair onto an action. Rules are checked in a fixed
// order and the first match wins; no previous state is consulted.
func Resolve(pair scoring.ScorePair, profile RiskProfile, price float64) Decision {
	action, confidence := resolveAction(pair.BuyScore, pair.SellScore, profile.Thresholds())

	d := Decision{
		Action:     action,
		Confidence: confidence,
		Profile:    profile,
		Price:      price,
	}
	if action.IsBuy() || action.IsSell() {
		d.Plan = NewTradingPlan(price, profile.Multipliers())
	}
	return d
}

func resolveAction(buy, sell int, t ThresholdSet) (Action, int) {
	switch {
	case buy >= t.BuyStrong && sell < conflictLevel:
		return ActionBuyStrong, min(95, 60+(buy-t.BuyStrong))
	case buy >= t.BuyWeak && sell < conflictLevel:
		return ActionBuyWeak, min(75, 50+(buy-t.BuyWeak))
	case sell >= t.SellStrong && buy < conflictLevel:
		return ActionSellStrong, min(90, 55+(sell-t.SellStrong))
	case sell >= t.SellWeak && buy < conflictLevel:
		return ActionSellWeak, min(70, 50+(sell-t.SellWeak))
	case buy >= conflictLevel && sell >= conflictLevel:
		return ActionConflict, conflictConfidence
	default:
		return ActionHold, holdConfidence
	}
}
