package rawcore

import (
	"bytes"
	"testing"
)

// Scenario 3 (spec.md §8): single-chunk profile with 10 bins, identity
// converter f(k)=100+k, yields pairs (100,.), (101,.), ..., (109,.) with the
// stored intensities in order.
func TestProfileRenderSingleChunkIdentityConverter(t *testing.T) {
	var b byteBuilder
	b.i32(0)   // first_value
	b.i32(10)  // nbins
	b.u32(1)   // nchunks
	b.i32(0)   // chunk.first_bin
	b.f32(0)   // chunk.fudge
	b.u32(10)  // chunk.nvals
	for i := 0; i < 10; i++ {
		b.f32(float32(i) * 10)
	}

	cal := Calibration{Kind: CalibrationLinear, A: 100, B: 1, C: 0}
	profile, err := decodeProfile(bytes.NewReader(b.bytes()), cal)
	if err != nil {
		t.Fatalf("decodeProfile: %v", err)
	}

	peaks := profile.Render()
	if len(peaks) != 10 {
		t.Fatalf("expected 10 peaks, got %d", len(peaks))
	}
	for i, p := range peaks {
		wantMz := 100.0 + float64(i)
		if p.Mz != wantMz {
			t.Fatalf("peak %d: want mz %v, got %v", i, wantMz, p.Mz)
		}
		if p.Intensity != float32(i)*10 {
			t.Fatalf("peak %d: want intensity %v, got %v", i, float32(i)*10, p.Intensity)
		}
	}
}

// Scenario 4 (spec.md §8): two-chunk profile, bookend width 4, chunk 1 at
// bins [20..23], chunk 2 at bins [30..32]; rendered sequence contains bins
// [16..27] (chunk 1, bookends clipped against chunk 2's 6-bin gap being
// wider than the bookend width) and [26..36] (chunk 2).
func TestProfileRenderTwoChunkBookendClipping(t *testing.T) {
	var b byteBuilder
	b.i32(16) // first_value
	b.i32(25) // nbins, covers [16, 40]
	b.u32(2)  // nchunks

	b.i32(20) // chunk 1 first_bin
	b.f32(0)
	b.u32(4) // 20..23
	for i := 0; i < 4; i++ {
		b.f32(1)
	}

	b.i32(30) // chunk 2 first_bin
	b.f32(0)
	b.u32(3) // 30..32
	for i := 0; i < 3; i++ {
		b.f32(2)
	}

	cal := Calibration{Kind: CalibrationLinear, A: 0, B: 1, C: 0} // identity: mz == bin
	profile, err := decodeProfile(bytes.NewReader(b.bytes()), cal)
	if err != nil {
		t.Fatalf("decodeProfile: %v", err)
	}

	peaks := profile.Render()

	// Render appends whole-chunk contributions in chunk order: chunk 1's
	// bookended span (12 points, bins 16..27) followed by chunk 2's (11
	// points, bins 26..36) — the two overlap at bins 26/27 since each
	// chunk's bookend is computed independently against the gap between
	// them (spec.md §8 scenario 4).
	if len(peaks) != 23 {
		t.Fatalf("expected 23 rendered points, got %d", len(peaks))
	}
	chunk1Mz := make([]float64, 12)
	for i := 0; i < 12; i++ {
		chunk1Mz[i] = peaks[i].Mz
	}
	chunk2Mz := make([]float64, 11)
	for i := 0; i < 11; i++ {
		chunk2Mz[i] = peaks[12+i].Mz
	}

	if got, want := chunk1Mz[0], 16.0; got != want {
		t.Fatalf("chunk 1 should start at bin 16, got %v", got)
	}
	if got, want := chunk1Mz[len(chunk1Mz)-1], 27.0; got != want {
		t.Fatalf("chunk 1 should end at bin 27, got %v", got)
	}
	if got, want := chunk2Mz[0], 26.0; got != want {
		t.Fatalf("chunk 2 should start at bin 26, got %v", got)
	}
	if got, want := chunk2Mz[len(chunk2Mz)-1], 36.0; got != want {
		t.Fatalf("chunk 2 should end at bin 36, got %v", got)
	}
}
