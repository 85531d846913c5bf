package signals

import (
	"math"
	"testing"
)

func TestStochasticShortHistoryIsNeutral(t *testing.T) {
	fast, slow := Stochastic([]float64{2000, 2001}, 14, 3)
	if fast != 50 || slow != 50 {
		t.Fatalf("short history = (%v, %v), want (50, 50)", fast, slow)
	}
}

func TestStochasticAtBandTop(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 2000 + float64(i)
	}
	fast, slow := Stochastic(prices, 14, 3)
	if fast != 100 {
		t.Fatalf("rising close at band top, fast = %v, want 100", fast)
	}
	if slow != 100 {
		t.Fatalf("steady climb keeps every %%K at 100, slow = %v", slow)
	}
}

func TestStochasticAtBandBottom(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 2100 - float64(i)
	}
	fast, _ := Stochastic(prices, 14, 3)
	if fast != 0 {
		t.Fatalf("falling close at band bottom, fast = %v, want 0", fast)
	}
}

func TestStochasticFlatBandIsNeutral(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 2000
	}
	fast, slow := Stochastic(prices, 14, 3)
	if fast != 50 || slow != 50 {
		t.Fatalf("flat band = (%v, %v), want (50, 50)", fast, slow)
	}
}

func TestStochasticMidBand(t *testing.T) {
	prices := []float64{0, 100, 0, 100, 0, 100, 0, 100, 0, 100, 0, 100, 0, 50}
	fast, _ := Stochastic(prices, 14, 1)
	if math.Abs(fast-50) > 1e-12 {
		t.Fatalf("mid-band close, fast = %v, want 50", fast)
	}
}

func TestStochasticSlowLagsAfterReversal(t *testing.T) {
	// A climb followed by a sharp drop: %K collapses while %D,
	// averaging prior readings, stays above it.
	prices := make([]float64, 0, 22)
	for i := 0; i < 20; i++ {
		prices = append(prices, 2000+float64(i))
	}
	prices = append(prices, 2005, 2003)
	fast, slow := Stochastic(prices, 14, 3)
	if fast >= slow {
		t.Fatalf("after a reversal fast should lag slow: fast %v, slow %v", fast, slow)
	}
}

func TestStochasticDefaultsApplied(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 2000 + float64(i)
	}
	f1, s1 := Stochastic(prices, 0, 0)
	f2, s2 := Stochastic(prices, DefaultKPeriod, DefaultDPeriod)
	if f1 != f2 || s1 != s2 {
		t.Fatalf("zero periods must fall back to defaults")
	}
}
