package signals

import "GoldPulse/internal/services/features"

// Stochastic oscillator over a close-price series. %K locates the
// latest price inside the trailing high-low band on a 0..100 scale,
// %D smooths %K with a simple moving average.

const (
	DefaultKPeriod = 14
	DefaultDPeriod = 3

	stochNeutral = 50
)

// Stochastic computes the latest %K and %D. Histories shorter than the
// %K period read as neutral (50, 50); a flat band reads %K as neutral.
func Stochastic(prices []float64, kPeriod, dPeriod int) (fast, slow float64) {
	if kPeriod <= 0 {
		kPeriod = DefaultKPeriod
	}
	if dPeriod <= 0 {
		dPeriod = DefaultDPeriod
	}
	if len(prices) < kPeriod {
		return stochNeutral, stochNeutral
	}

	// %D needs one %K value per trailing bar.
	ks := make([]float64, 0, dPeriod)
	for off := dPeriod - 1; off >= 0; off-- {
		upto := prices[:len(prices)-off]
		if len(upto) < kPeriod {
			continue
		}
		ks = append(ks, percentK(upto, kPeriod))
	}
	fast = ks[len(ks)-1]
	sum := 0.0
	for _, k := range ks {
		sum += k
	}
	slow = sum / float64(len(ks))
	return fast, slow
}

func percentK(prices []float64, kPeriod int) float64 {
	window := features.Tail(prices, kPeriod)
	hi, lo := window[0], window[0]
	for _, p := range window {
		if p > hi {
			hi = p
		}
		if p < lo {
			lo = p
		}
	}
	if hi == lo {
		return stochNeutral
	}
	cur := window[len(window)-1]
	return (cur - lo) / (hi - lo) * 100
}
