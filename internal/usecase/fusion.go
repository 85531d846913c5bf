package usecase

import (
	"GoldPulse/internal/domain/models"
	domsvc "GoldPulse/internal/domain/service"
	"GoldPulse/internal/services/regime"
	"GoldPulse/pkg/prob"
)

// fusionOrder fixes the blend order so weight vectors and component
// maps line up tick to tick.
var fusionOrder = []string{"kf_trend", "ou_revert", "stoch_momo", "kf_slope", "ou_zscore"}

// PosteriorSource exposes the per-signal reliability means the fusion
// blend consumes.
type PosteriorSource interface {
	PosteriorMean(symbol, signal string) float64
}

// FusionEngine blends all signal posteriors into one directional
// confidence, weighted by each signal's track record in the current
// regime and volatility. Unlike the evidence-driven confidence path,
// fusion needs no fresh indicator readings beyond the filter slope and
// recent closes.
type FusionEngine struct {
	posteriors   PosteriorSource
	weights      domsvc.WeightProvider
	volWindow    int
	minTradeConf float64
}

// NewFusionEngine wires the blend. A zero minTradeConf falls back to
// 0.56 and a zero volWindow to 50 bars.
func NewFusionEngine(posteriors PosteriorSource, weights domsvc.WeightProvider, volWindow int, minTradeConf float64) *FusionEngine {
	if minTradeConf <= 0.5 || minTradeConf >= 1 {
		minTradeConf = 0.56
	}
	if volWindow <= 0 {
		volWindow = 50
	}
	return &FusionEngine{
		posteriors:   posteriors,
		weights:      weights,
		volWindow:    volWindow,
		minTradeConf: minTradeConf,
	}
}

// SignalOrder returns the blend order.
func (f *FusionEngine) SignalOrder() []string {
	out := make([]string, len(fusionOrder))
	copy(out, fusionOrder)
	return out
}

// FusedDecision computes the weighted-logit blend for symbol. kfSlope
// feeds the regime classifier; closes feed both the classifier and the
// rolling volatility estimate.
func (f *FusionEngine) FusedDecision(symbol string, kfSlope float64, closes []float64) models.FusedDecision {
	vol := regime.RollingVolatility(closes, f.volWindow)
	reg := regime.Detect(closes, kfSlope)
	w := f.weights.Compute(symbol, fusionOrder, reg, vol)

	components := make(map[string]float64, len(fusionOrder))
	fusedLogit := 0.0
	for _, sig := range fusionOrder {
		p := f.posteriors.PosteriorMean(symbol, sig)
		components[sig] = p
		fusedLogit += w[sig] * prob.Logit(p)
	}
	fusedP := prob.Sigmoid(fusedLogit)

	action := ActionHold
	switch {
	case fusedP >= f.minTradeConf:
		action = ActionBuy
	case fusedP <= 1-f.minTradeConf:
		action = ActionSell
	}

	return models.FusedDecision{
		Symbol:     symbol,
		Action:     action,
		Confidence: fusedP,
		Regime:     reg,
		Vol:        vol,
		Weights:    w,
		Components: components,
	}
}
