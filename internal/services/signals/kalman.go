package signals

// Local level plus local trend Kalman filter over a scalar price
// stream. State is [level, trend] with transition
//
//	level_t = level_{t-1} + trend_{t-1}
//	trend_t = trend_{t-1}
//
// and scalar observation of the level. Run online: feed each price
// through Observe and read Level/Slope between ticks.

// KalmanParams carries the process and observation noise variances.
type KalmanParams struct {
	QLevel float64 // process noise for the level component
	QTrend float64 // process noise for the trend component
	RObs   float64 // observation noise
}

// DefaultKalmanParams returns the tuning used for gold price series.
func DefaultKalmanParams() KalmanParams {
	return KalmanParams{QLevel: 1e-3, QTrend: 1e-5, RObs: 1e-2}
}

// KalmanTrend is the online filter state. Not safe for concurrent use.
type KalmanTrend struct {
	params KalmanParams

	level float64
	trend float64
	// covariance matrix entries, symmetric 2x2
	p00, p01, p11 float64

	initialized bool
}

// NewKalmanTrend builds an uninitialized filter. The first observation
// seeds the level with zero trend and identity covariance.
func NewKalmanTrend(params KalmanParams) *KalmanTrend {
	if params.QLevel <= 0 || params.QTrend <= 0 || params.RObs <= 0 {
		params = DefaultKalmanParams()
	}
	return &KalmanTrend{params: params}
}

// Observe folds one price into the filter.
func (k *KalmanTrend) Observe(price float64) {
	if !k.initialized {
		k.level = price
		k.trend = 0
		k.p00, k.p01, k.p11 = 1, 0, 1
		k.initialized = true
		return
	}

	// Predict. With F = [[1,1],[0,1]]:
	// x_pred = [level+trend, trend]
	// P_pred = F P F' + Q
	lev := k.level + k.trend
	tr := k.trend
	p00 := k.p00 + 2*k.p01 + k.p11 + k.params.QLevel
	p01 := k.p01 + k.p11
	p11 := k.p11 + k.params.QTrend

	// Innovation on the observed level.
	innov := price - lev
	s := p00 + k.params.RObs

	// Gain K = P_pred H' / S with H = [1, 0].
	k0 := p00 / s
	k1 := p01 / s

	k.level = lev + k0*innov
	k.trend = tr + k1*innov

	// P = (I - K H) P_pred
	k.p00 = (1 - k0) * p00
	k.p01 = (1 - k0) * p01
	k.p11 = p11 - k1*p01
}

// ObserveSeries runs the filter over a whole price history.
func (k *KalmanTrend) ObserveSeries(prices []float64) {
	for _, p := range prices {
		k.Observe(p)
	}
}

// Level returns the de-noised price estimate.
func (k *KalmanTrend) Level() float64 { return k.level }

// Slope returns the estimated trend per step.
func (k *KalmanTrend) Slope() float64 { return k.trend }

// Forecast returns the one step ahead level prediction.
func (k *KalmanTrend) Forecast() float64 { return k.level + k.trend }

// Initialized reports whether the filter has seen at least one price.
func (k *KalmanTrend) Initialized() bool { return k.initialized }

// Reset drops all filter state.
func (k *KalmanTrend) Reset() {
	k.level, k.trend = 0, 0
	k.p00, k.p01, k.p11 = 0, 0, 0
	k.initialized = false
}
