package service

import "GoldPulse/internal/domain/models"

// ConfidenceScorer fuses per-signal evidence into a trade confidence
// score and learns online from realized outcomes.
type ConfidenceScorer interface {
	ComputeConfidence(symbol string, direction models.Direction, ev models.Evidence) models.ConfidenceResult
	RegisterDecision(dec *models.Decision)
	// UpdateOutcome applies a realized PnL to the pending bundle for
	// tradeID. Returns false when the trade id is unknown (no-op).
	UpdateOutcome(tradeID string, pnl float64) (*models.OutcomeRecord, bool)
	PendingCount() int
}

// WeightProvider maintains per-signal track records and produces the
// normalized blend weights used by the fused decision.
type WeightProvider interface {
	RegisterOutcome(symbol, signal string, correct bool)
	Compute(symbol string, signals []string, regime string, vol float64) map[string]float64
}
