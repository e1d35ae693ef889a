package rawcore

import "testing"

func TestCalibrationLinearForwardInverseRoundTrip(t *testing.T) {
	cal := Calibration{Kind: CalibrationLinear, A: 100, B: 0.5}
	for _, bin := range []float64{0, 10, 500} {
		mz := cal.Forward(bin)
		got := cal.Inverse(mz)
		if got != bin {
			t.Fatalf("bin %v: round trip got %v", bin, got)
		}
	}
}

func TestCalibrationReciprocalForwardInverseRoundTrip(t *testing.T) {
	cal := Calibration{Kind: CalibrationReciprocal, A: 1000, B: 0.01, C: 500}
	for _, bin := range []float64{0, 10, 100} {
		mz := cal.Forward(bin)
		got := cal.Inverse(mz)
		if diff := got - bin; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("bin %v: round trip got %v", bin, got)
		}
	}
}

func TestCalibrationQuadraticInverseBisectsToNearestBin(t *testing.T) {
	cal := Calibration{Kind: CalibrationQuadratic, A: 0, B: 1, C: 0.0001}
	for _, bin := range []float64{0, 50, 900} {
		mz := cal.Forward(bin)
		got := cal.Inverse(mz)
		if diff := got - bin; diff > 1 || diff < -1 {
			t.Fatalf("bin %v: bisection got %v, want within 1 bin", bin, got)
		}
	}
}

func TestCalibrationForwardMonotonic(t *testing.T) {
	cal := Calibration{Kind: CalibrationQuadratic, A: 0, B: 1, C: 0.0001}
	prev := cal.Forward(0)
	for bin := 1.0; bin < 1000; bin++ {
		cur := cal.Forward(bin)
		if cur < prev {
			t.Fatalf("Forward not monotonic at bin %v: %v < %v", bin, cur, prev)
		}
		prev = cur
	}
}
