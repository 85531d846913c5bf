package models

// ConfidenceRequest carries raw model readings (converted to evidence
// server-side) or a pre-built evidence map. Pre-built evidence wins.
type ConfidenceRequest struct {
	Symbol    string  `json:"symbol" query:"symbol" validate:"required"`
	Direction string  `json:"direction" query:"direction" validate:"required,oneof=buy sell"`
	Evidence  Evidence `json:"evidence,omitempty"`

	KalmanSlope *float64 `json:"kalman_slope,omitempty"`
	OUZScore    *float64 `json:"ou_zscore,omitempty"`
	StochFast   *float64 `json:"stoch_fast,omitempty"`
	StochSlow   *float64 `json:"stoch_slow,omitempty"`
}

// DecisionRequest is a ConfidenceRequest that also registers the
// evidence bundle under a trade id for later outcome feedback.
type DecisionRequest struct {
	TradeID string `json:"trade_id" validate:"required"`
	ConfidenceRequest
}

// OutcomeRequest reports a realized trade close over HTTP.
type OutcomeRequest struct {
	TradeID string  `json:"trade_id" validate:"required"`
	PnL     float64 `json:"pnl"`
	Source  string  `json:"source,omitempty" default:"http"`
}

// WeightsRequest asks for the current normalized blend weights.
type WeightsRequest struct {
	Symbol  string   `json:"symbol" query:"symbol" validate:"required"`
	Signals []string `json:"signals,omitempty"`
	Regime  string   `json:"regime,omitempty" query:"regime" validate:"omitempty,oneof=trend range"`
	Vol     float64  `json:"vol,omitempty" query:"vol" validate:"gte=0"`
}

// FusedRequest asks for the weighted-logit fused decision.
type FusedRequest struct {
	Symbol string `json:"symbol" query:"symbol" validate:"required"`
}
