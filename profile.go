package rawcore

import (
	"fmt"
)

// ProfileChunk is one gap-compressed run of intensity bins (spec.md §3/
// §4.5): first_bin is the bin index of Bins[0], and Fudge is a per-chunk
// baseline the instrument subtracts before encoding (folded back in at
// render time). Chunked storage mirrors the teacher's BrbIntensity
// handling of variable-length per-beam sample runs (intensity.go), except
// here the run is a contiguous bin span rather than a per-beam time
// series.
type ProfileChunk struct {
	FirstBin int32
	Fudge    float32
	Bins     []float32
}

// Profile is the full reconstructed spectrum for one scan (spec.md §3/
// §4.5): first_value/nbins describe the overall valid bin range, and
// Calibration (its Forward/Inverse methods) is the transform attached by
// ScanReader.
type Profile struct {
	FirstValue  int32
	NBins       int32
	Chunks      []ProfileChunk
	Calibration Calibration
}

var profileHeaderTemplate = []FieldTemplate{
	{Name: "first_value", Type: TInt32, Label: "first valid bin index across the whole profile"},
	{Name: "nbins", Type: TInt32, Label: "total valid bin range width"},
	{Name: "nchunks", Type: TUInt32, Label: "number of gap-compressed chunks"},
}

var profileChunkHeaderTemplate = []FieldTemplate{
	{Name: "first_bin", Type: TInt32, Label: "bin index of this chunk's first stored bin"},
	{Name: "fudge", Type: TFloat32, Label: "per-chunk intensity baseline"},
	{Name: "nvals", Type: TUInt32, Label: "number of stored intensity bins in this chunk"},
}

// decodeProfile decodes a Profile at the stream's current position,
// attaching cal as its calibration transform (spec.md §4.4: "Attach the
// corresponding ScanEvent.converter ... to the Profile").
func decodeProfile(stream Stream, cal Calibration) (Profile, error) {
	hdrRec, err := Decode(stream, profileHeaderTemplate)
	if err != nil {
		return Profile{}, fmt.Errorf("profile header: %w", err)
	}

	nchunks := hdrRec.Get("nchunks").(uint32)
	profile := Profile{
		FirstValue:  hdrRec.Get("first_value").(int32),
		NBins:       hdrRec.Get("nbins").(int32),
		Chunks:      make([]ProfileChunk, 0, nchunks),
		Calibration: cal,
	}

	for c := uint32(0); c < nchunks; c++ {
		chunkHdr, err := Decode(stream, profileChunkHeaderTemplate)
		if err != nil {
			return Profile{}, fmt.Errorf("profile chunk %d header: %w", c, err)
		}

		nvals := chunkHdr.Get("nvals").(uint32)
		bins := make([]float32, nvals)
		for i := uint32(0); i < nvals; i++ {
			v, _, err := readPrimitive(stream, "profile.bin", TFloat32)
			if err != nil {
				return Profile{}, fmt.Errorf("profile chunk %d bin %d: %w", c, i, err)
			}
			bins[i] = v.(float32)
		}

		profile.Chunks = append(profile.Chunks, ProfileChunk{
			FirstBin: chunkHdr.Get("first_bin").(int32),
			Fudge:    chunkHdr.Get("fudge").(float32),
			Bins:     bins,
		})
	}

	return profile, nil
}

// Render reconstructs the (m/z, intensity) sequence for the whole profile
// (spec.md §4.5). A single-chunk profile yields one pair per stored bin;
// a multi-chunk profile is bookended with NBINS zero-intensity bins either
// side of each chunk's span, clipped against neighboring chunks and the
// profile's own valid bin range (spec.md §4.5, §8 scenario 4).
func (p *Profile) Render() []Peak {
	if len(p.Chunks) == 0 {
		return nil
	}
	if len(p.Chunks) == 1 {
		return p.renderChunk(p.Chunks[0], 0, 0)
	}

	lastValid := p.FirstValue + p.NBins - 1

	out := make([]Peak, 0)
	for i, chunk := range p.Chunks {
		leadClip, trailClip := NBINS, NBINS

		if i > 0 {
			prevEnd := p.Chunks[i-1].FirstBin + int32(len(p.Chunks[i-1].Bins)) - 1
			gap := int(chunk.FirstBin - prevEnd - 1)
			if gap < leadClip {
				leadClip = gap
			}
		} else {
			fromStart := int(chunk.FirstBin - p.FirstValue)
			if fromStart < leadClip {
				leadClip = fromStart
			}
		}

		if i < len(p.Chunks)-1 {
			next := p.Chunks[i+1]
			chunkEnd := chunk.FirstBin + int32(len(chunk.Bins)) - 1
			gap := int(next.FirstBin - chunkEnd - 1)
			if gap < trailClip {
				trailClip = gap
			}
		} else {
			chunkEnd := chunk.FirstBin + int32(len(chunk.Bins)) - 1
			toEnd := int(lastValid - chunkEnd)
			if toEnd < trailClip {
				trailClip = toEnd
			}
		}

		if leadClip < 0 {
			leadClip = 0
		}
		if trailClip < 0 {
			trailClip = 0
		}

		out = append(out, p.renderChunk(chunk, leadClip, trailClip)...)
	}

	return out
}

// renderChunk renders one chunk's stored bins plus `lead`/`trail` synthetic
// zero-intensity bookend bins on either side.
func (p *Profile) renderChunk(chunk ProfileChunk, lead, trail int) []Peak {
	out := make([]Peak, 0, lead+len(chunk.Bins)+trail)

	for k := 1; k <= lead; k++ {
		bin := chunk.FirstBin - int32(lead-k+1)
		out = append(out, Peak{Mz: p.Calibration.Forward(float64(bin)), Intensity: 0})
	}

	for k, intensity := range chunk.Bins {
		bin := chunk.FirstBin + int32(k)
		out = append(out, Peak{Mz: p.Calibration.Forward(float64(bin)), Intensity: intensity + chunk.Fudge})
	}

	for k := 0; k < trail; k++ {
		bin := chunk.FirstBin + int32(len(chunk.Bins)) + int32(k)
		out = append(out, Peak{Mz: p.Calibration.Forward(float64(bin)), Intensity: 0})
	}

	return out
}

// IntensityAtBin returns the intensity at a raw bin index k, 0 if k falls
// outside every stored chunk's span (used by PeakLookup's invariant checks,
// spec.md §8).
func (p *Profile) IntensityAtBin(k int32) float32 {
	for _, chunk := range p.Chunks {
		if k >= chunk.FirstBin && int(k-chunk.FirstBin) < len(chunk.Bins) {
			return chunk.Bins[k-chunk.FirstBin] + chunk.Fudge
		}
	}
	return 0
}
