package rawcore

import "math"

// DefaultPeakTolerance is the nominal m/z neighborhood half-width used by
// FindPeakIntensity when the caller does not supply one (spec.md §4.6:
// "small m/z neighborhood of the precursor").
const DefaultPeakTolerance = 0.5

// FindPeakIntensity implements spec.md §4.6: given a parent MS1 scan's
// rendered data and a target m/z, return the intensity of the nearest
// peak within tolerance, or 0.0 if none qualifies. Profile data is
// searched via the attached calibration's Inverse (closed-form, or
// bin-space bisection for the quadratic kind);
// centroid data is searched directly over the flat peak list. Grounded on
// the teacher's qa.go/nulls.go use of samber/lo for scanning small slices
// for a best match, and record.go's scale/unscale helpers for translating
// between stored and physical units.
func FindPeakIntensity(parent *Scan, targetMz float64, tolerance float64) float32 {
	if parent == nil {
		return 0.0
	}
	if tolerance <= 0 {
		tolerance = DefaultPeakTolerance
	}

	if parent.Centroids != nil {
		return nearestCentroidIntensity(parent.Centroids.Peaks_, targetMz, tolerance)
	}
	if parent.Profile != nil {
		return nearestProfileIntensity(parent.Profile, targetMz, tolerance)
	}
	return 0.0
}

// nearestCentroidIntensity scans the flat centroid list for the peak
// closest in m/z to targetMz, bounded by tolerance.
func nearestCentroidIntensity(peaks []Peak, targetMz, tolerance float64) float32 {
	best := -1
	bestDelta := math.MaxFloat64

	for i, p := range peaks {
		delta := math.Abs(p.Mz - targetMz)
		if delta < bestDelta {
			bestDelta = delta
			best = i
		}
	}

	if best < 0 || bestDelta > tolerance {
		return 0.0
	}
	return peaks[best].Intensity
}

// nearestProfileIntensity uses the profile's calibration to invert
// targetMz to the nearest bin index, then reports that bin's intensity if
// it falls within tolerance in m/z space.
func nearestProfileIntensity(profile *Profile, targetMz, tolerance float64) float32 {
	bin := profile.Calibration.Inverse(targetMz)
	nearestBin := int32(math.Round(bin))

	mz := profile.Calibration.Forward(float64(nearestBin))
	if math.Abs(mz-targetMz) > tolerance {
		return 0.0
	}

	return profile.IntensityAtBin(nearestBin)
}
