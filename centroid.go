package rawcore

import "fmt"

// Centroids is the flat (m/z, intensity) peak list produced by the
// instrument's own peak-picking firmware (spec.md §3). Grounded on the
// teacher's record.go array-decode family (DecodeFourByteArray and
// friends): a leading count followed by a flat run of fixed-width values,
// here a pair of float64/float32 values rather than a single scaled
// integer array.
type Centroids struct {
	Peaks_ []Peak
}

var centroidHeaderTemplate = []FieldTemplate{
	{Name: "npeaks", Type: TUInt32, Label: "number of centroided peaks"},
}

var centroidPointTemplate = []FieldTemplate{
	{Name: "mz", Type: TFloat64, Label: "centroided m/z"},
	{Name: "intensity", Type: TFloat32, Label: "centroided peak intensity"},
}

// decodeCentroids decodes a Centroids section at the stream's current
// position.
func decodeCentroids(stream Stream) (Centroids, error) {
	hdrRec, err := Decode(stream, centroidHeaderTemplate)
	if err != nil {
		return Centroids{}, fmt.Errorf("centroid header: %w", err)
	}

	npeaks := hdrRec.Get("npeaks").(uint32)
	peaks := make([]Peak, npeaks)

	for i := uint32(0); i < npeaks; i++ {
		rec, err := Decode(stream, centroidPointTemplate)
		if err != nil {
			return Centroids{}, fmt.Errorf("centroid point %d: %w", i, err)
		}
		peaks[i] = Peak{
			Mz:        rec.Get("mz").(float64),
			Intensity: rec.Get("intensity").(float32),
		}
	}

	return Centroids{Peaks_: peaks}, nil
}

// Peaks returns the decoded centroid list verbatim (spec.md §4.4: centroid
// data requires no further rendering, unlike chunked profile data).
func (c *Centroids) Peaks() []Peak {
	return c.Peaks_
}
