package regime

import (
	"math"
	"sync"

	"GoldPulse/internal/services/features"
)

// Market regime labels.
const (
	Trend = "trend"
	Range = "range"
)

const (
	slopeEps       = 1e-6
	minHistory     = 30
	directionSpan  = 20
	directionVotes = 8
	minVolPoints   = 20
)

// Detect classifies the market as trending or ranging. A decisive
// filter slope wins outright; otherwise recent price direction votes
// decide, and short histories default to ranging.
func Detect(prices []float64, kfSlope float64) string {
	if math.Abs(kfSlope) > slopeEps {
		return Trend
	}
	if len(prices) < minHistory {
		return Range
	}
	recent := features.Tail(prices, directionSpan)
	up, down := 0, 0
	for i := 1; i < len(recent); i++ {
		switch {
		case recent[i] > recent[i-1]:
			up++
		case recent[i] < recent[i-1]:
			down++
		}
	}
	if abs(up-down) >= directionVotes {
		return Trend
	}
	return Range
}

// RollingVolatility returns the sample standard deviation of percent
// returns over the trailing window. Histories shorter than
// max(minVolPoints, window) read as zero.
func RollingVolatility(prices []float64, window int) float64 {
	need := minVolPoints
	if window > need {
		need = window
	}
	if len(prices) < need {
		return 0
	}
	rets := features.PctReturns(features.Tail(prices, window))
	return features.SampleStd(rets)
}

// DriftDetector watches the volatility series for a sustained shift of
// the recent mean away from the long-run mean. It is used to widen the
// trade thresholds when conditions no longer resemble the past.
type DriftDetector struct {
	mu         sync.Mutex
	vols       []float64
	Threshold  float64 // relative deviation that counts as drift
	Window     int     // recent-mean span
	LongWindow int     // trailing samples retained for the baseline mean
	MinSample  int     // observations required before drift can fire
}

// NewDriftDetector builds a detector with the given relative threshold.
// Non-positive values fall back to 0.15.
func NewDriftDetector(threshold float64) *DriftDetector {
	if threshold <= 0 {
		threshold = 0.15
	}
	return &DriftDetector{Threshold: threshold, Window: 10, LongWindow: 300, MinSample: 20}
}

// Observe records one volatility reading and reports whether the
// recent mean has drifted from the trailing baseline mean by more than
// the relative threshold. Only the last LongWindow samples are kept,
// so a long-gone regime ages out of the baseline.
func (d *DriftDetector) Observe(vol float64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.vols = append(d.vols, vol)
	if len(d.vols) > d.LongWindow {
		n := copy(d.vols, d.vols[len(d.vols)-d.LongWindow:])
		d.vols = d.vols[:n]
	}
	if len(d.vols) < d.MinSample {
		return false
	}
	baseline := mean(d.vols)
	recent := mean(features.Tail(d.vols, d.Window))
	if baseline == 0 {
		return recent != 0
	}
	return math.Abs(recent-baseline)/math.Abs(baseline) > d.Threshold
}

// Reset clears the detector history.
func (d *DriftDetector) Reset() {
	d.mu.Lock()
	d.vols = nil
	d.mu.Unlock()
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
