package models

import "time"

// Direction is a proposed trade side.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// Valid reports whether d is one of the two recognized sides.
func (d Direction) Valid() bool { return d == Buy || d == Sell }

// SignalEvidence is one signal's read on a proposed trade.
// Present nil means the signal had no opinion and is skipped entirely.
// Present true supports the direction, false contradicts it.
// Strength in [0,1] scales how much this reading moves log-odds and,
// later, how much the outcome moves the signal's Beta posterior.
type SignalEvidence struct {
	Present  *bool   `json:"present"`
	Strength float64 `json:"strength"`
}

// Supports builds supporting evidence with the given strength.
func Supports(strength float64) SignalEvidence {
	v := true
	return SignalEvidence{Present: &v, Strength: strength}
}

// Contradicts builds contradicting evidence with the given strength.
func Contradicts(strength float64) SignalEvidence {
	v := false
	return SignalEvidence{Present: &v, Strength: strength}
}

// NoOpinion builds evidence that is ignored by fusion and feedback.
func NoOpinion() SignalEvidence {
	return SignalEvidence{Present: nil, Strength: 0}
}

// Evidence maps signal name to its per-decision reading.
type Evidence map[string]SignalEvidence

// ConfidenceResult is the fused output of the confidence engine.
type ConfidenceResult struct {
	Confidence float64 `json:"confidence"`
	LogOdds    float64 `json:"log_odds"`
	Prior      float64 `json:"prior"`
}

// Decision is the evidence bundle recorded at order placement time.
// It is held until the trade closes and consumed exactly once.
type Decision struct {
	TradeID      string    `json:"trade_id"`
	Symbol       string    `json:"symbol"`
	Direction    Direction `json:"direction"`
	Evidence     Evidence  `json:"evidence"`
	Confidence   float64   `json:"confidence"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Outcome is a realized trade close reported by the execution layer.
type Outcome struct {
	TradeID  string    `json:"trade_id"`
	PnL      float64   `json:"pnl"`
	ClosedAt time.Time `json:"closed_at"`
	Source   string    `json:"source,omitempty"`
}

// OutcomeRecord is the audit row written after an outcome is applied.
type OutcomeRecord struct {
	Ts         time.Time `json:"ts"`
	TradeID    string    `json:"trade_id"`
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	PnL        float64   `json:"pnl"`
	Success    bool      `json:"success"`
	Confidence float64   `json:"confidence"`
	PriorMean  float64   `json:"prior_mean"`
	Source     string    `json:"source,omitempty"`
}

// FusedDecision is the weighted-logit blend of all signal posteriors.
type FusedDecision struct {
	Symbol     string             `json:"symbol"`
	Action     string             `json:"action"`
	Confidence float64            `json:"combined_conf"`
	Regime     string             `json:"regime"`
	Vol        float64            `json:"vol"`
	Weights    map[string]float64 `json:"weights"`
	Components map[string]float64 `json:"components"`
}

// PolicyDecision maps a confidence reading onto an action via
// volatility- and drift-adjusted thresholds.
type PolicyDecision struct {
	Confidence    float64 `json:"confidence"`
	Volatility    float64 `json:"volatility"`
	Drift         bool    `json:"drift"`
	BuyThreshold  float64 `json:"buy_threshold"`
	SellThreshold float64 `json:"sell_threshold"`
	Action        string  `json:"action"`
}
