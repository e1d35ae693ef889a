package rawcore

import (
	"bytes"
	"errors"
	"testing"
)

func writeScanEventV1(b *byteBuilder, msPower, polarity uint16, dependent bool, calKind CalibrationKind, a, b2, c float64) {
	depVal := uint16(0)
	if dependent {
		depVal = 1
	}
	b.u16(msPower)
	b.u16(polarity)
	b.u16(depVal)
	b.u16(0) // ionization
	b.u16(0) // analyzer
	b.u16(0) // detector
	b.u16(0) // scan_type
	b.u16(uint16(calKind))
	b.f64(a)
	b.f64(b2)
	b.f64(c)
	if msPower >= 2 {
		b.f64(110.0) // precursor_mz
		b.f32(35.0)  // energy
	}
}

// Scenario 2 (spec.md §8): range [3, 5] where scan 3 is dependent ->
// RangeError.
func TestReadTrailerRejectsDependentFirstScan(t *testing.T) {
	var b byteBuilder
	b.u32(5) // trailer count: scans 1..5
	writeScanEventV1(&b, 1, 0, false, CalibrationLinear, 0, 1, 0) // scan 1
	writeScanEventV1(&b, 1, 0, false, CalibrationLinear, 0, 1, 0) // scan 2
	writeScanEventV1(&b, 2, 0, true, CalibrationLinear, 0, 1, 0)  // scan 3, dependent
	writeScanEventV1(&b, 1, 0, false, CalibrationLinear, 0, 1, 0) // scan 4
	writeScanEventV1(&b, 1, 0, false, CalibrationLinear, 0, 1, 0) // scan 5

	rh := RunHeader{TrailerAddr: 0, Sample: SampleInfo{FirstScan: 1, LastScan: 5}}
	stream := bytes.NewReader(b.bytes())

	_, err := ReadTrailer(stream, rh, 1, 3, 5)
	if !errors.Is(err, ErrRangeDependent) {
		t.Fatalf("expected ErrRangeDependent, got %v", err)
	}
}

func TestReadTrailerAcceptsIndependentFirstScan(t *testing.T) {
	var b byteBuilder
	b.u32(5)
	writeScanEventV1(&b, 1, 0, false, CalibrationLinear, 0, 1, 0)
	writeScanEventV1(&b, 1, 0, false, CalibrationLinear, 0, 1, 0)
	writeScanEventV1(&b, 1, 0, false, CalibrationLinear, 0, 1, 0)
	writeScanEventV1(&b, 2, 0, true, CalibrationLinear, 0, 1, 0)
	writeScanEventV1(&b, 1, 0, false, CalibrationLinear, 0, 1, 0)

	rh := RunHeader{TrailerAddr: 0, Sample: SampleInfo{FirstScan: 1, LastScan: 5}}
	stream := bytes.NewReader(b.bytes())

	events, err := ReadTrailer(stream, rh, 1, 3, 5)
	if err != nil {
		t.Fatalf("ReadTrailer: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if !events[4].Preamble.Dependent {
		t.Fatalf("expected scan 4 to be dependent")
	}
}

// Scenario 6 (spec.md §8): one error-log entry, suppression callback
// returns false -> callback invoked exactly once, decode continues.
func TestReadErrorLogInvokesCallbackOncePerEntry(t *testing.T) {
	var b byteBuilder
	b.u32(1) // count
	b.f64(1.23)
	b.ascii("foo")

	stream := bytes.NewReader(b.bytes())

	calls := 0
	var got ErrorLogEntry
	entries, err := ReadErrorLog(stream, func(entry ErrorLogEntry) bool {
		calls++
		got = entry
		return false
	})
	if err != nil {
		t.Fatalf("ReadErrorLog: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected callback invoked exactly once, got %d", calls)
	}
	if len(entries) != 1 || entries[0].Message != "foo" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if got.Time != 1.23 || got.Message != "foo" {
		t.Fatalf("unexpected callback entry: %+v", got)
	}
}
