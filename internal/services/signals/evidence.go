package signals

import (
	"math"

	"GoldPulse/internal/domain/models"
)

// Signal names as registered in the reliability store.
const (
	SignalKalmanTrend = "kf_trend"
	SignalOURevert    = "ou_revert"
	SignalStochMomo   = "stoch_momo"
)

// Names lists the signals the evidence builder can emit, in blend order.
func Names() []string {
	return []string{SignalKalmanTrend, SignalOURevert, SignalStochMomo}
}

const (
	DefaultKalmanSlopeScale = 5.0
	DefaultOUEntryZ         = 1.0
)

// EvidenceInputs carries the raw indicator readings for one decision.
// Nil fields mean the indicator produced no reading this cycle.
type EvidenceInputs struct {
	KalmanSlope *float64
	OUZScore    *float64
	StochFast   *float64
	StochSlow   *float64

	// Zero values fall back to the defaults above.
	KalmanSlopeScale float64
	OUEntryZ         float64
}

// BuildEvidence converts raw indicator readings into the per-signal
// evidence map consumed by the confidence engine.
//
// Kalman trend supports buy on a positive slope and sell on a negative
// one, with strength tanh(|slope|/scale). The OU z-score supports buy
// below -entryZ and sell above +entryZ; sitting at the opposite extreme
// counts as a contradiction, anywhere in between is no opinion. The
// stochastic crossover supports buy when %K leads %D, strength scaled
// by the gap.
func BuildEvidence(direction models.Direction, in EvidenceInputs) models.Evidence {
	scale := in.KalmanSlopeScale
	if scale <= 0 {
		scale = DefaultKalmanSlopeScale
	}
	entryZ := math.Abs(in.OUEntryZ)
	if entryZ == 0 {
		entryZ = DefaultOUEntryZ
	}

	ev := make(models.Evidence, 3)

	if in.KalmanSlope == nil {
		ev[SignalKalmanTrend] = models.NoOpinion()
	} else {
		s := *in.KalmanSlope
		agree := (s > 0 && direction == models.Buy) || (s < 0 && direction == models.Sell)
		strength := math.Tanh(math.Abs(s) / scale)
		if agree {
			ev[SignalKalmanTrend] = models.Supports(strength)
		} else {
			ev[SignalKalmanTrend] = models.Contradicts(strength)
		}
	}

	if in.OUZScore == nil {
		ev[SignalOURevert] = models.NoOpinion()
	} else {
		z := *in.OUZScore
		supportBuy := z <= -entryZ
		supportSell := z >= entryZ
		strength := math.Min(math.Abs(z)/3.0, 1.0)
		switch {
		case direction == models.Buy && supportBuy,
			direction == models.Sell && supportSell:
			ev[SignalOURevert] = models.Supports(strength)
		case direction == models.Buy && supportSell,
			direction == models.Sell && supportBuy:
			ev[SignalOURevert] = models.Contradicts(strength)
		default:
			ev[SignalOURevert] = models.NoOpinion()
		}
	}

	if in.StochFast == nil || in.StochSlow == nil {
		ev[SignalStochMomo] = models.NoOpinion()
	} else {
		fast, slow := *in.StochFast, *in.StochSlow
		agree := (fast > slow && direction == models.Buy) || (fast < slow && direction == models.Sell)
		strength := math.Min(math.Abs(fast-slow)/20.0, 1.0)
		if agree {
			ev[SignalStochMomo] = models.Supports(strength)
		} else {
			ev[SignalStochMomo] = models.Contradicts(strength)
		}
	}

	return ev
}
