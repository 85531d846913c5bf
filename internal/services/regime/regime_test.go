package regime

import "testing"

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestDetectSlopeDominates(t *testing.T) {
	if got := Detect(nil, 0.001); got != Trend {
		t.Fatalf("positive slope must classify as trend, got %q", got)
	}
	if got := Detect(nil, -0.001); got != Trend {
		t.Fatalf("negative slope must classify as trend, got %q", got)
	}
}

func TestDetectShortHistoryIsRange(t *testing.T) {
	if got := Detect(ramp(10, 2000, 1), 0); got != Range {
		t.Fatalf("short history must classify as range, got %q", got)
	}
}

func TestDetectDirectionalVotes(t *testing.T) {
	// 19 consecutive up moves in the last 20 points.
	if got := Detect(ramp(40, 2000, 0.5), 0); got != Trend {
		t.Fatalf("steady climb must classify as trend, got %q", got)
	}
}

func TestDetectChoppyIsRange(t *testing.T) {
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 2000
		if i%2 == 0 {
			prices[i] = 2001
		}
	}
	if got := Detect(prices, 0); got != Range {
		t.Fatalf("alternating prices must classify as range, got %q", got)
	}
}

func TestRollingVolatilityShortHistoryIsZero(t *testing.T) {
	if got := RollingVolatility(ramp(10, 2000, 1), 30); got != 0 {
		t.Fatalf("short history volatility = %v, want 0", got)
	}
	// Window below the floor still needs minVolPoints observations.
	if got := RollingVolatility(ramp(10, 2000, 1), 5); got != 0 {
		t.Fatalf("below-floor history volatility = %v, want 0", got)
	}
}

func TestRollingVolatilityConstantPricesIsZero(t *testing.T) {
	if got := RollingVolatility(ramp(50, 2000, 0), 30); got != 0 {
		t.Fatalf("constant prices volatility = %v, want 0", got)
	}
}

func TestRollingVolatilityPositiveForNoisyPrices(t *testing.T) {
	prices := make([]float64, 50)
	for i := range prices {
		prices[i] = 2000
		if i%2 == 0 {
			prices[i] = 2010
		}
	}
	if got := RollingVolatility(prices, 30); got <= 0 {
		t.Fatalf("noisy prices volatility = %v, want > 0", got)
	}
}

func TestDriftNeedsMinimumSamples(t *testing.T) {
	d := NewDriftDetector(0.15)
	for i := 0; i < 19; i++ {
		if d.Observe(100) {
			t.Fatalf("drift must not fire before %d samples", d.MinSample)
		}
	}
}

func TestDriftFiresOnShift(t *testing.T) {
	d := NewDriftDetector(0.15)
	for i := 0; i < 30; i++ {
		d.Observe(0.01)
	}
	fired := false
	for i := 0; i < 10; i++ {
		if d.Observe(0.05) {
			fired = true
		}
	}
	if !fired {
		t.Fatalf("sustained volatility jump should register as drift")
	}
}

func TestDriftStableSeriesQuiet(t *testing.T) {
	d := NewDriftDetector(0.15)
	for i := 0; i < 100; i++ {
		if d.Observe(0.01) {
			t.Fatalf("stable series must not register drift")
		}
	}
}

func TestDriftHistoryStaysBounded(t *testing.T) {
	d := NewDriftDetector(0.15)
	for i := 0; i < 5000; i++ {
		d.Observe(0.01)
	}
	if len(d.vols) != d.LongWindow {
		t.Fatalf("retained samples = %d, want %d", len(d.vols), d.LongWindow)
	}
}

func TestDriftOldRegimeAgesOut(t *testing.T) {
	d := NewDriftDetector(0.15)
	for i := 0; i < 300; i++ {
		d.Observe(0.05)
	}
	// A full LongWindow of the new regime must displace the old one.
	for i := 0; i < d.LongWindow; i++ {
		d.Observe(0.01)
	}
	if d.Observe(0.01) {
		t.Fatalf("baseline must forget the old regime once it leaves the window")
	}
}

func TestDriftReset(t *testing.T) {
	d := NewDriftDetector(0.15)
	for i := 0; i < 30; i++ {
		d.Observe(0.01)
	}
	d.Reset()
	if d.Observe(0.05) {
		t.Fatalf("reset detector must need fresh samples before firing")
	}
}
