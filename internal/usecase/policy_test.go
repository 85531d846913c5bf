package usecase

import (
	"math"
	"testing"
)

func TestPolicyDefaults(t *testing.T) {
	p := NewThresholdPolicy(0, 0, 0)
	if p.BaseBuy != 0.65 || p.VolSensitivity != 0.08 || p.DriftPenalty != 0.05 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}

func TestPolicyThresholdsSymmetric(t *testing.T) {
	p := NewThresholdPolicy(0.65, 0.08, 0.05)
	buy, sell := p.Thresholds(0, false)
	if buy != 0.65 {
		t.Fatalf("buy = %v, want 0.65", buy)
	}
	if math.Abs(sell-0.35) > 1e-12 {
		t.Fatalf("sell = %v, want 0.35", sell)
	}
	if math.Abs((buy+sell)-1.0) > 1e-12 {
		t.Fatalf("thresholds must mirror around 0.5")
	}
}

func TestPolicyVolatilityWidens(t *testing.T) {
	p := NewThresholdPolicy(0.65, 0.08, 0.05)
	buy, sell := p.Thresholds(0.5, false)
	if math.Abs(buy-0.69) > 1e-12 {
		t.Fatalf("buy = %v, want 0.69", buy)
	}
	if math.Abs(sell-0.31) > 1e-12 {
		t.Fatalf("sell = %v, want 0.31", sell)
	}
}

func TestPolicyDriftWidensFurther(t *testing.T) {
	p := NewThresholdPolicy(0.65, 0.08, 0.05)
	calmBuy, calmSell := p.Thresholds(0.2, false)
	driftBuy, driftSell := p.Thresholds(0.2, true)
	if math.Abs(driftBuy-(calmBuy+0.05)) > 1e-12 {
		t.Fatalf("drift must add the penalty to buy: %v vs %v", driftBuy, calmBuy)
	}
	if math.Abs(driftSell-(calmSell-0.05)) > 1e-12 {
		t.Fatalf("drift must subtract the penalty from sell: %v vs %v", driftSell, calmSell)
	}
}

func TestPolicyThresholdsClamped(t *testing.T) {
	p := NewThresholdPolicy(0.9, 0.08, 0.05)
	buy, sell := p.Thresholds(5.0, true)
	if buy > 1 || sell < 0 {
		t.Fatalf("thresholds out of range: buy %v, sell %v", buy, sell)
	}
}

func TestPolicyDecide(t *testing.T) {
	p := NewThresholdPolicy(0.65, 0.08, 0.05)

	if d := p.Decide(0.70, 0, false); d.Action != ActionBuy {
		t.Fatalf("conf 0.70 should BUY, got %s", d.Action)
	}
	if d := p.Decide(0.30, 0, false); d.Action != ActionSell {
		t.Fatalf("conf 0.30 should SELL, got %s", d.Action)
	}
	if d := p.Decide(0.50, 0, false); d.Action != ActionHold {
		t.Fatalf("conf 0.50 should HOLD, got %s", d.Action)
	}
	// At the threshold exactly, the trade fires.
	if d := p.Decide(0.65, 0, false); d.Action != ActionBuy {
		t.Fatalf("conf at buy threshold should BUY, got %s", d.Action)
	}
}

func TestPolicyVolatilityBlocksMarginalTrade(t *testing.T) {
	p := NewThresholdPolicy(0.65, 0.08, 0.05)
	if d := p.Decide(0.66, 0, false); d.Action != ActionBuy {
		t.Fatalf("calm market should BUY at 0.66")
	}
	if d := p.Decide(0.66, 0.5, false); d.Action != ActionHold {
		t.Fatalf("volatile market should HOLD at 0.66, got %s", d.Action)
	}
}

func TestPolicyDecisionCarriesContext(t *testing.T) {
	p := NewThresholdPolicy(0.65, 0.08, 0.05)
	d := p.Decide(0.52, 0.2, true)
	if d.Confidence != 0.52 || d.Volatility != 0.2 || !d.Drift {
		t.Fatalf("decision must echo its inputs: %+v", d)
	}
	if d.BuyThreshold <= d.SellThreshold {
		t.Fatalf("buy threshold must sit above sell threshold: %+v", d)
	}
}
