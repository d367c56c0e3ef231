// Package decision maps conviction scores onto trading actions and plans.
package decision

import (
	"strings"

	apperrors "btc-timing-bot/internal/errors"
)

// RiskProfile is a named preset of action thresholds and sizing multipliers.
type RiskProfile string

const (
	Conservative RiskProfile = "Conservative"
	Moderate     RiskProfile = "Moderate"
	Aggressive   RiskProfile = "Aggressive"
)

// ThresholdSet holds the score thresholds for each action tier.
type ThresholdSet struct {
	BuyStrong  int
	BuyWeak    int
	SellStrong int
	SellWeak   int
}

// MultiplierSet holds position sizing and exit multipliers.
type MultiplierSet struct {
	Position float64 // fraction of capital
	StopLoss float64 // fraction below price
	TP1      float64 // price multiplier
	TP2      float64 // price multiplier
}

var thresholds = map[RiskProfile]ThresholdSet{
	Conservative: {BuyStrong: 75, BuyWeak: 60, SellStrong: 75, SellWeak: 60},
	Moderate:     {BuyStrong: 70, BuyWeak: 50, SellStrong: 70, SellWeak: 50},
	Aggressive:   {BuyStrong: 65, BuyWeak: 45, SellStrong: 65, SellWeak: 45},
}

var multipliers = map[RiskProfile]MultiplierSet{
	Conservative: {Position: 0.2, StopLoss: 0.03, TP1: 1.05, TP2: 1.12},
	Moderate:     {Position: 0.3, StopLoss: 0.04, TP1: 1.08, TP2: 1.18},
	Aggressive:   {Position: 0.5, StopLoss: 0.05, TP1: 1.12, TP2: 1.25},
}

// Profiles lists the known risk profiles.
func Profiles() []RiskProfile {
	return []RiskProfile{Conservative, Moderate, Aggressive}
}

// ParseRiskProfile resolves a profile name, ignoring case.
func ParseRiskProfile(name string) (RiskProfile, error) {
	for _, p := range Profiles() {
		if strings.EqualFold(string(p), strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return "", apperrors.NewValidationError("risk_profile", name, "must be Conservative, Moderate or Aggressive")
}

// Validate checks that the profile has table entries.
func (p RiskProfile) Validate() error {
	if _, ok := thresholds[p]; !ok {
		return apperrors.NewValidationError("risk_profile", string(p), "unknown risk profile")
	}
	return nil
}

// Thresholds returns the profile's action thresholds.
func (p RiskProfile) Thresholds() ThresholdSet {
	return thresholds[p]
}

// Multipliers returns the profile's sizing multipliers.
func (p RiskProfile) Multipliers() MultiplierSet {
	return multipliers[p]
}
