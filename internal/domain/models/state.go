package models

// BetaShape holds the two shape parameters of a Beta posterior.
// Invariant: A > 0 and B > 0; mean reliability = A/(A+B).
type BetaShape struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Mean returns the posterior mean A/(A+B).
func (s BetaShape) Mean() float64 {
	denom := s.A + s.B
	if denom <= 0 {
		return 0.5
	}
	return s.A / denom
}

// SymbolState is the persistent reliability state for one instrument:
// a base prior (win rate independent of any signal) plus one posterior
// per named signal. New signal names may be added at any time.
type SymbolState struct {
	Prior   BetaShape             `json:"prior"`
	Signals map[string]*BetaShape `json:"signals"`
}

// WeightState is the persistent EWMA track record of one signal on one
// symbol, read by the dynamic weighting blend.
type WeightState struct {
	EmaAcc     float64 `json:"ema_acc"`
	EmaVar     float64 `json:"ema_var"`
	Count      int64   `json:"count"`
	LastUpdate int64   `json:"last_update"`
	Base       float64 `json:"base"`
}

// SymbolWeights maps signal name to its weight state for one symbol.
type SymbolWeights map[string]*WeightState
