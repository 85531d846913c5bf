package signals

import (
	"fmt"
	"math"

	"GoldPulse/internal/services/features"
)

// Ornstein-Uhlenbeck mean reversion model
//
//	dX_t = theta*(mu - X_t)dt + sigma dW_t
//
// fitted from the discrete regression dX = a + b*X_lag. The z-score of
// the current price against the trailing window is the trade signal.

// OUParams holds the fitted process parameters.
type OUParams struct {
	Theta float64 // speed of reversion
	Mu    float64 // long-run mean
	Sigma float64 // diffusion volatility
}

const minOUPoints = 10

// FitOU estimates theta, mu and sigma from a price history sampled at
// one bar per step. At least ten points are required.
func FitOU(prices []float64) (OUParams, error) {
	n := len(prices) - 1
	if n < minOUPoints-1 {
		return OUParams{}, fmt.Errorf("fit ou: need at least %d prices, have %d", minOUPoints, len(prices))
	}

	// Least squares for dx = a + b*x_lag over the 2-column design
	// [1, x_lag], solved via the normal equations.
	var sumX, sumY, sumXX, sumXY float64
	for i := 0; i < n; i++ {
		x := prices[i]
		y := prices[i+1] - prices[i]
		sumX += x
		sumY += y
		sumXX += x * x
		sumXY += x * y
	}
	fn := float64(n)
	det := fn*sumXX - sumX*sumX
	if det == 0 {
		return OUParams{}, fmt.Errorf("fit ou: degenerate price series")
	}
	a := (sumY*sumXX - sumX*sumXY) / det
	b := (fn*sumXY - sumX*sumY) / det

	if b >= 0 || 1+b <= 0 {
		return OUParams{}, fmt.Errorf("fit ou: no mean reversion detected (b=%v)", b)
	}
	theta := -math.Log(1 + b)
	mu := a / (1 - math.Exp(-theta))

	// Residual volatility, rescaled to the continuous-time sigma.
	var ss float64
	for i := 0; i < n; i++ {
		r := (prices[i+1] - prices[i]) - (a + b*prices[i])
		ss += r * r
	}
	stdResid := math.Sqrt(ss / fn)
	sigma := stdResid * math.Sqrt(2*theta/(1-math.Exp(-2*theta)))

	return OUParams{Theta: theta, Mu: mu, Sigma: sigma}, nil
}

// OUZScore measures how far the current price sits from the mean of
// the trailing window, in sample standard deviations. A flat window
// reads as zero.
func OUZScore(prices []float64, current float64, window int) float64 {
	subset := features.Tail(prices, window)
	if len(subset) < 2 {
		return 0
	}
	sum := 0.0
	for _, p := range subset {
		sum += p
	}
	mean := sum / float64(len(subset))
	std := features.SampleStd(subset)
	if std == 0 {
		return 0
	}
	return (current - mean) / std
}
