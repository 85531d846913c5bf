package usecase

import (
	"GoldPulse/internal/domain/models"
	"GoldPulse/pkg/prob"
)

// Policy actions.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// ThresholdPolicy maps a confidence reading onto BUY/SELL/HOLD with
// thresholds that widen under volatility and detected drift. The sell
// threshold mirrors the buy threshold around 0.5 so a confidence of p
// for one side reads as 1-p for the other.
type ThresholdPolicy struct {
	BaseBuy        float64 // resting buy threshold
	VolSensitivity float64 // widening per unit of volatility
	DriftPenalty   float64 // extra widening while drift is flagged
}

// NewThresholdPolicy applies defaults for zero fields.
func NewThresholdPolicy(baseBuy, volSensitivity, driftPenalty float64) *ThresholdPolicy {
	if baseBuy <= 0.5 || baseBuy >= 1 {
		baseBuy = 0.65
	}
	if volSensitivity <= 0 {
		volSensitivity = 0.08
	}
	if driftPenalty <= 0 {
		driftPenalty = 0.05
	}
	return &ThresholdPolicy{BaseBuy: baseBuy, VolSensitivity: volSensitivity, DriftPenalty: driftPenalty}
}

// Thresholds returns the adjusted (buy, sell) cut points.
func (p *ThresholdPolicy) Thresholds(vol float64, drift bool) (buy, sell float64) {
	buy = p.BaseBuy
	sell = 1 - p.BaseBuy
	buy += vol * p.VolSensitivity
	sell -= vol * p.VolSensitivity
	if drift {
		buy += p.DriftPenalty
		sell -= p.DriftPenalty
	}
	buy = prob.Clamp(buy, 0.5, 1)
	sell = prob.Clamp(sell, 0, 0.5)
	return buy, sell
}

// Decide maps one confidence reading onto an action.
func (p *ThresholdPolicy) Decide(conf, vol float64, drift bool) models.PolicyDecision {
	buy, sell := p.Thresholds(vol, drift)
	action := ActionHold
	switch {
	case conf >= buy:
		action = ActionBuy
	case conf <= sell:
		action = ActionSell
	}
	return models.PolicyDecision{
		Confidence:    conf,
		Volatility:    vol,
		Drift:         drift,
		BuyThreshold:  buy,
		SellThreshold: sell,
		Action:        action,
	}
}
