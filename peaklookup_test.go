package rawcore

import "testing"

// Scenario 5 (spec.md §8): MS2 scan with precursor m/z = 110.0; parent MS1
// has a centroid at 110.02 intensity 5000 and none within +/-0.1 ->
// returned precursor intensity = 5000.
func TestFindPeakIntensityNearestCentroidWithinTolerance(t *testing.T) {
	parent := &Scan{
		Centroids: &Centroids{Peaks_: []Peak{
			{Mz: 95.0, Intensity: 100},
			{Mz: 110.02, Intensity: 5000},
			{Mz: 130.0, Intensity: 200},
		}},
	}

	got := FindPeakIntensity(parent, 110.0, 0.1)
	if got != 5000 {
		t.Fatalf("expected intensity 5000, got %v", got)
	}
}

func TestFindPeakIntensityReturnsZeroOutsideTolerance(t *testing.T) {
	parent := &Scan{
		Centroids: &Centroids{Peaks_: []Peak{
			{Mz: 95.0, Intensity: 100},
		}},
	}

	got := FindPeakIntensity(parent, 110.0, 0.1)
	if got != 0.0 {
		t.Fatalf("expected 0.0 outside tolerance, got %v", got)
	}
}

// Invariant (spec.md §8): find_peak_intensity(converter(k)) >=
// intensity_at_bin(k) for any k within a parent scan's rendered profile.
func TestFindPeakIntensityProfileMatchesIntensityAtBin(t *testing.T) {
	cal := Calibration{Kind: CalibrationLinear, A: 0, B: 1, C: 0}
	profile := &Profile{
		FirstValue: 0,
		NBins:      5,
		Chunks: []ProfileChunk{
			{FirstBin: 0, Fudge: 0, Bins: []float32{1, 2, 3, 4, 5}},
		},
		Calibration: cal,
	}
	parent := &Scan{Profile: profile}

	for k := int32(0); k < 5; k++ {
		mz := cal.Forward(float64(k))
		got := FindPeakIntensity(parent, mz, 0.5)
		want := profile.IntensityAtBin(k)
		if got < want {
			t.Fatalf("bin %d: find_peak_intensity %v < intensity_at_bin %v", k, got, want)
		}
	}
}
