package rawcore

// Null sentinels for fields that may be legitimately absent from a scan or
// the parameter stream. Named the way the teacher's nulls.go names its
// per-field constants, rather than leaving bare literals scattered through
// the decoders.
const (
	NullChargeState       int32   = 0
	NullPrecursorMz       float64 = 0.0
	NullPrecursorIntensity float32 = 0.0
	NullCollisionEnergy   float32 = 0.0
	NullBasePeakMz        float64 = 0.0
	NullBasePeakIntensity float32 = 0.0
)

// NBINS is the default bookend width (in bin-index units) applied either
// side of a profile chunk's stored span when rendering a multi-chunk
// profile (spec.md §4.5).
const NBINS = 4
