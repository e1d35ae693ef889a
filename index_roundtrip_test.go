package rawcore

import (
	"bytes"
	"io"
	"testing"
)

// Invariant (spec.md §8): decoding RunHeader, then seeking again to
// run_header_addr and decoding, yields byte-identical field values.
func TestRunHeaderDecodeIsIdempotentAtSameOffset(t *testing.T) {
	var b byteBuilder
	writeRunHeaderV1(&b, 10, 1, 100)
	data := b.bytes()
	stream := bytes.NewReader(data)

	first, err := decodeRunHeader(stream, 1)
	if err != nil {
		t.Fatalf("decodeRunHeader (first): %v", err)
	}

	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("seek: %v", err)
	}

	second, err := decodeRunHeader(stream, 1)
	if err != nil {
		t.Fatalf("decodeRunHeader (second): %v", err)
	}

	if first != second {
		t.Fatalf("RunHeader decode not idempotent: %+v != %+v", first, second)
	}
}

func TestReadScanIndexRejectsInvertedRange(t *testing.T) {
	rh := RunHeader{Sample: SampleInfo{FirstScan: 1, LastScan: 10}}
	_, err := ReadScanIndex(bytes.NewReader(nil), rh, 5, 3)
	if err != ErrRangeInverted {
		t.Fatalf("expected ErrRangeInverted, got %v", err)
	}
}

func TestReadScanIndexRejectsOutOfBoundsRange(t *testing.T) {
	rh := RunHeader{Sample: SampleInfo{FirstScan: 1, LastScan: 10}}
	_, err := ReadScanIndex(bytes.NewReader(nil), rh, 1, 20)
	if err != ErrRangeBounds {
		t.Fatalf("expected ErrRangeBounds, got %v", err)
	}
}
