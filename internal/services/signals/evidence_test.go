package signals

import (
	"math"
	"testing"

	"GoldPulse/internal/domain/models"
)

func f(v float64) *float64 { return &v }

func TestBuildEvidenceAllNilInputs(t *testing.T) {
	ev := BuildEvidence(models.Buy, EvidenceInputs{})
	for _, name := range Names() {
		e, ok := ev[name]
		if !ok {
			t.Fatalf("missing evidence entry for %s", name)
		}
		if e.Present != nil || e.Strength != 0 {
			t.Fatalf("%s should have no opinion, got %+v", name, e)
		}
	}
}

func TestBuildEvidenceKalmanAgreement(t *testing.T) {
	ev := BuildEvidence(models.Buy, EvidenceInputs{KalmanSlope: f(2.5)})
	e := ev[SignalKalmanTrend]
	if e.Present == nil || !*e.Present {
		t.Fatalf("positive slope must support buy, got %+v", e)
	}
	want := math.Tanh(2.5 / DefaultKalmanSlopeScale)
	if math.Abs(e.Strength-want) > 1e-12 {
		t.Fatalf("strength = %v, want %v", e.Strength, want)
	}

	ev = BuildEvidence(models.Sell, EvidenceInputs{KalmanSlope: f(2.5)})
	e = ev[SignalKalmanTrend]
	if e.Present == nil || *e.Present {
		t.Fatalf("positive slope must contradict sell, got %+v", e)
	}
}

func TestBuildEvidenceKalmanZeroSlope(t *testing.T) {
	ev := BuildEvidence(models.Buy, EvidenceInputs{KalmanSlope: f(0)})
	e := ev[SignalKalmanTrend]
	// Zero slope counts as a contradiction but with zero strength, so
	// it cannot move the fused score.
	if e.Present == nil || *e.Present {
		t.Fatalf("zero slope should not support, got %+v", e)
	}
	if e.Strength != 0 {
		t.Fatalf("zero slope strength = %v, want 0", e.Strength)
	}
}

func TestBuildEvidenceOUExtremes(t *testing.T) {
	// Deep negative z: oversold, supports buy, contradicts sell.
	ev := BuildEvidence(models.Buy, EvidenceInputs{OUZScore: f(-2.0)})
	e := ev[SignalOURevert]
	if e.Present == nil || !*e.Present {
		t.Fatalf("z=-2 must support buy, got %+v", e)
	}
	want := math.Min(2.0/3.0, 1.0)
	if math.Abs(e.Strength-want) > 1e-12 {
		t.Fatalf("strength = %v, want %v", e.Strength, want)
	}

	ev = BuildEvidence(models.Sell, EvidenceInputs{OUZScore: f(-2.0)})
	e = ev[SignalOURevert]
	if e.Present == nil || *e.Present {
		t.Fatalf("z=-2 must contradict sell, got %+v", e)
	}
}

func TestBuildEvidenceOUMidZoneNoOpinion(t *testing.T) {
	ev := BuildEvidence(models.Buy, EvidenceInputs{OUZScore: f(0.5)})
	if ev[SignalOURevert].Present != nil {
		t.Fatalf("|z| below entry threshold must yield no opinion")
	}
}

func TestBuildEvidenceOUStrengthCapped(t *testing.T) {
	ev := BuildEvidence(models.Buy, EvidenceInputs{OUZScore: f(-9.0)})
	if ev[SignalOURevert].Strength != 1.0 {
		t.Fatalf("strength must cap at 1, got %v", ev[SignalOURevert].Strength)
	}
}

func TestBuildEvidenceStochCrossover(t *testing.T) {
	ev := BuildEvidence(models.Buy, EvidenceInputs{StochFast: f(80), StochSlow: f(60)})
	e := ev[SignalStochMomo]
	if e.Present == nil || !*e.Present {
		t.Fatalf("fast above slow must support buy, got %+v", e)
	}
	if e.Strength != 1.0 {
		t.Fatalf("gap of 20 must saturate strength, got %v", e.Strength)
	}

	ev = BuildEvidence(models.Buy, EvidenceInputs{StochFast: f(40), StochSlow: f(50)})
	e = ev[SignalStochMomo]
	if e.Present == nil || *e.Present {
		t.Fatalf("fast below slow must contradict buy, got %+v", e)
	}
	if math.Abs(e.Strength-0.5) > 1e-12 {
		t.Fatalf("gap of 10 strength = %v, want 0.5", e.Strength)
	}
}

func TestBuildEvidenceStochNeedsBothReadings(t *testing.T) {
	ev := BuildEvidence(models.Buy, EvidenceInputs{StochFast: f(80)})
	if ev[SignalStochMomo].Present != nil {
		t.Fatalf("missing slow reading must yield no opinion")
	}
}

func TestBuildEvidenceCustomEntryZ(t *testing.T) {
	ev := BuildEvidence(models.Buy, EvidenceInputs{OUZScore: f(-1.2), OUEntryZ: 1.5})
	if ev[SignalOURevert].Present != nil {
		t.Fatalf("z inside widened entry band must yield no opinion")
	}
	ev = BuildEvidence(models.Buy, EvidenceInputs{OUZScore: f(-1.2)})
	if ev[SignalOURevert].Present == nil {
		t.Fatalf("z beyond default entry band must support")
	}
}
