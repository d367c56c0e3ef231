package notify

import (
	"btc-timing-bot/internal/analysis/decision"
	"btc-timing-bot/internal/analysis/scoring"
)

// MinScoreDelta is the score movement that counts as a change on its own.
const MinScoreDelta = 10

// State is the last emitted decision the gate compares against.
type State struct {
	BuyScore  int
	SellScore int
	Action    decision.Action
}

// InitialState is the state at process start.
func InitialState() State {
	return State{Action: decision.ActionHold}
}

// GateReason explains a gate outcome.
type GateReason string

const (
	ReasonUnchanged     GateReason = "unchanged"
	ReasonStrongOnly    GateReason = "strong_only"
	ReasonNotStrong     GateReason = "not_strong"
	ReasonThreshold     GateReason = "threshold"
	ReasonActionChanged GateReason = "action_changed"
	ReasonNoTrigger     GateReason = "no_trigger"
)

// Gate decides whether a freshly resolved decision is worth sending.
type Gate struct {
	BuyThreshold      int
	SellThreshold     int
	OnlyStrongSignals bool
}

// DefaultGate returns the gate with the standard thresholds.
func DefaultGate() Gate {
	return Gate{BuyThreshold: 70, SellThreshold: 70}
}

// Evaluate applies the gate rules in order. The returned state always
// carries the new scores and action, whether or not the decision is emitted.
func (g Gate) Evaluate(prev State, d decision.Decision, pair scoring.ScorePair) (bool, GateReason, State) {
	next := State{
		BuyScore:  pair.BuyScore,
		SellScore: pair.SellScore,
		Action:    d.Action,
	}
	emit, reason := g.check(prev, next)
	return emit, reason, next
}

func (g Gate) check(prev, next State) (bool, GateReason) {
	actionChanged := next.Action != prev.Action

	if !actionChanged && abs(next.BuyScore-prev.BuyScore) < MinScoreDelta && abs(next.SellScore-prev.SellScore) < MinScoreDelta {
		return false, ReasonUnchanged
	}

	if g.OnlyStrongSignals {
		if next.Action.IsStrong() {
			return true, ReasonStrongOnly
		}
		return false, ReasonNotStrong
	}

	if next.BuyScore >= g.BuyThreshold || next.SellScore >= g.SellThreshold {
		return true, ReasonThreshold
	}

	if actionChanged && next.Action != decision.ActionHold {
		return true, ReasonActionChanged
	}

	return false, ReasonNoTrigger
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
