package features

import (
	"math"
	"testing"
)

func TestPctReturns(t *testing.T) {
	got := PctReturns([]float64{100, 110, 99})
	want := []float64{0.1, -0.1}
	if len(got) != len(want) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("return[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPctReturnsInsufficientData(t *testing.T) {
	if PctReturns([]float64{100}) != nil {
		t.Fatalf("expected nil for a single price")
	}
	if PctReturns(nil) != nil {
		t.Fatalf("expected nil for no prices")
	}
}

func TestPctReturnsSkipsNonPositivePrices(t *testing.T) {
	got := PctReturns([]float64{100, 0, 100})
	if got[0] != 0 || got[1] != 0 {
		t.Fatalf("non-positive price should yield zero returns, got %v", got)
	}
}

func TestLogReturns(t *testing.T) {
	got := LogReturns([]float64{100, 100 * math.E})
	if math.Abs(got[0]-1.0) > 1e-12 {
		t.Fatalf("log return = %v, want 1", got[0])
	}
}

func TestSampleStd(t *testing.T) {
	got := SampleStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	want := math.Sqrt(32.0 / 7.0)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("std = %v, want %v", got, want)
	}
	if SampleStd([]float64{1}) != 0 {
		t.Fatalf("std of single observation must be 0")
	}
}

func TestTail(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	got := Tail(xs, 2)
	if len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Fatalf("unexpected tail %v", got)
	}
	if len(Tail(xs, 10)) != 4 {
		t.Fatalf("tail longer than slice should return whole slice")
	}
	if Tail(xs, 0) != nil {
		t.Fatalf("tail of zero must be nil")
	}
}
