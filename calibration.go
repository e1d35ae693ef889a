package rawcore

import "sort"

// CalibrationKind selects one of the handful of polynomial/reciprocal
// calibration forms the instrument firmware emits for a given ScanEvent.
// Modeled as a tagged variant of data plus pure functions rather than
// embedding closures in a decoded record, per spec.md §9 — grounded in the
// teacher's GeoCoefficients pattern (geo.go): coefficients live in a plain
// struct, and the transform is a pure method hung off it.
type CalibrationKind uint16

const (
	CalibrationLinear CalibrationKind = iota
	CalibrationQuadratic
	CalibrationReciprocal
)

// Calibration carries the coefficients for one ScanEvent's bin-to-m/z
// transform. It holds no lookup table: where no closed-form inverse exists,
// Inverse bisects over Forward.
type Calibration struct {
	Kind CalibrationKind
	A    float64
	B    float64
	C    float64
}

// Forward maps a (possibly fractional) bin index to an m/z value. Per
// spec.md §3/§4.5 this function must be monotonically non-decreasing in
// bin.
func (c Calibration) Forward(bin float64) float64 {
	switch c.Kind {
	case CalibrationLinear:
		return c.A + c.B*bin
	case CalibrationQuadratic:
		return c.A + c.B*bin + c.C*bin*bin
	case CalibrationReciprocal:
		// classic Thermo-style reciprocal mass calibration: m/z grows
		// without bound as bin approaches A/B from below.
		denom := c.A - c.B*bin
		if denom <= 0 {
			denom = 1e-9
		}
		return c.C / denom
	default:
		return c.A + c.B*bin
	}
}

// Inverse maps a target m/z back to the nearest bin index. Closed-form for
// the linear/reciprocal cases; for the quadratic case (no closed-form
// inverse is assumed reliable across all coefficient ranges) a binary
// search over Forward is used instead, relying on Forward's monotonicity
// (spec.md §4.5).
func (c Calibration) Inverse(mz float64) float64 {
	switch c.Kind {
	case CalibrationLinear:
		if c.B == 0 {
			return 0
		}
		return (mz - c.A) / c.B
	case CalibrationReciprocal:
		if c.C == 0 || c.B == 0 {
			return 0
		}
		return (c.A - c.C/mz) / c.B
	default:
		return c.bisectInverse(mz)
	}
}

// bisectInverse performs a binary search for the bin index whose Forward
// value is nearest to mz, over a generously wide bin range. Used whenever
// the calibration kind has no closed-form inverse.
func (c Calibration) bisectInverse(mz float64) float64 {
	const lo, hi = 0.0, 1 << 20

	i := sort.Search(1<<20, func(i int) bool {
		return c.Forward(float64(i)) >= mz
	})

	if i <= 0 {
		return lo
	}
	if i >= 1<<20 {
		return hi
	}

	below := c.Forward(float64(i - 1))
	above := c.Forward(float64(i))
	if mz-below < above-mz {
		return float64(i - 1)
	}
	return float64(i)
}
