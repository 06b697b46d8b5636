package indicator

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEMASeedIsSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	e := EMA(values, 3)
	if len(e) != 3 {
		t.Fatalf("expected 3 EMA points, got %d", len(e))
	}
	if !almostEqual(e[0], 2.0) {
		t.Fatalf("seed should be SMA(1,2,3)=2, got %v", e[0])
	}
	// e[1] = 4*0.5 + 2*0.5 = 3
	if !almostEqual(e[1], 3.0) {
		t.Fatalf("expected 3.0, got %v", e[1])
	}
	if !almostEqual(e[2], 4.0) {
		t.Fatalf("expected 4.0, got %v", e[2])
	}
}

func TestEMATooShort(t *testing.T) {
	if e := EMA([]float64{1, 2}, 3); e != nil {
		t.Fatalf("expected nil, got %v", e)
	}
}

func TestEMADeterministic(t *testing.T) {
	values := []float64{100, 100.5, 101, 100.75, 101.5, 102, 101.25, 102.5}
	a := EMA(values, 5)
	b := EMA(values, 5)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("EMA not deterministic at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestEMASlope(t *testing.T) {
	up := []float64{1, 2, 3, 4, 5, 6}
	slope, ok := EMASlope(up, 3)
	if !ok || slope <= 0 {
		t.Fatalf("expected positive slope, got %v ok=%v", slope, ok)
	}
	if _, ok := EMASlope([]float64{1, 2, 3}, 3); ok {
		t.Fatal("single EMA point must not yield a slope")
	}
}

func TestATRWilderSmoothing(t *testing.T) {
	highs := []float64{10, 11, 12, 11.5, 12.5}
	lows := []float64{9, 10, 11, 10.5, 11.5}
	closes := []float64{9.5, 10.5, 11.5, 11, 12}
	a := ATR(highs, lows, closes, 3)
	if len(a) != 2 {
		t.Fatalf("expected 2 ATR points, got %d", len(a))
	}
	// TRs: bar1..bar4 each max(range, gaps) = 1.5, 1.5, 1.0, 1.5
	seed := (1.5 + 1.5 + 1.0) / 3
	if !almostEqual(a[0], seed) {
		t.Fatalf("expected seed %v, got %v", seed, a[0])
	}
	next := (seed*2 + 1.5) / 3
	if !almostEqual(a[1], next) {
		t.Fatalf("expected %v, got %v", next, a[1])
	}
}

func TestATRMismatchedLengths(t *testing.T) {
	if a := ATR([]float64{1, 2, 3}, []float64{1, 2}, []float64{1, 2, 3}, 2); a != nil {
		t.Fatalf("expected nil for mismatched inputs, got %v", a)
	}
}

func TestATRTooShort(t *testing.T) {
	highs := []float64{10, 11, 12}
	lows := []float64{9, 10, 11}
	closes := []float64{9.5, 10.5, 11.5}
	if a := ATR(highs, lows, closes, 5); a != nil {
		t.Fatalf("expected nil for short input, got %v", a)
	}
}

func TestFibZone(t *testing.T) {
	// Swing 100 -> 110, zone [110-0.618*10, 110-0.382*10] = [103.82, 106.18]
	if !IsInFibZone(105, 100, 110, 0.382, 0.618) {
		t.Fatal("105 should be inside the zone")
	}
	if IsInFibZone(108, 100, 110, 0.382, 0.618) {
		t.Fatal("108 should be outside the zone")
	}
	// Inclusive bounds, exact binary fractions.
	if !IsInFibZone(102.5, 100, 110, 0.25, 0.75) {
		t.Fatal("lower bound should be inside")
	}
	if !IsInFibZone(107.5, 100, 110, 0.25, 0.75) {
		t.Fatal("upper bound should be inside")
	}
}

func TestFibZoneDegenerateSwing(t *testing.T) {
	if IsInFibZone(100, 110, 110, 0.382, 0.618) {
		t.Fatal("H == L must never be in the zone")
	}
	if IsInFibZone(100, 120, 110, 0.382, 0.618) {
		t.Fatal("H < L must never be in the zone")
	}
}

func TestSwingChecks(t *testing.T) {
	if !HigherHighs([]float64{1, 2, 3}, 2) {
		t.Fatal("1,2,3 has two higher highs")
	}
	if HigherHighs([]float64{1, 3, 3}, 2) {
		t.Fatal("equal values are not strictly higher")
	}
	if HigherHighs([]float64{2, 3}, 2) {
		t.Fatal("needs count+1 samples")
	}
	if !LowerLows([]float64{3, 2, 1}, 2) {
		t.Fatal("3,2,1 has two lower lows")
	}
	if LowerLows([]float64{3, 2, 2}, 2) {
		t.Fatal("equal values are not strictly lower")
	}
	if !HigherLows([]float64{5, 6, 7}, 2) || !LowerHighs([]float64{7, 6, 5}, 2) {
		t.Fatal("symmetric variants disagree")
	}
}

func TestVolumeAboveAverage(t *testing.T) {
	if !VolumeAboveAverage([]int64{1000, 1000, 1000, 1000, 2000}, 5) {
		t.Fatal("2000 exceeds the 5-bar mean")
	}
	if VolumeAboveAverage([]int64{1000, 1000}, 5) {
		t.Fatal("too few samples must be false")
	}
	if VolumeAboveAverage([]int64{1000, 1000, 1000, 1000, 1000}, 5) {
		t.Fatal("equal to mean is not above")
	}
}
