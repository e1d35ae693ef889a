package rawcore

import (
	"bytes"
	"errors"
	"testing"
)

// buildRunHeaderFile assembles a minimal front-matter stream with two
// RunHeader slots whose ntrailer values are given by trailerA/trailerB, and
// an InstID immediately following whichever RunHeader is authoritative.
func buildRunHeaderFile(t *testing.T, trailerA, trailerB uint32) []byte {
	t.Helper()

	var b byteBuilder
	b.u32(1)      // FileHeader.version
	b.u32(7)      // SeqRow.injection_number
	b.ascii("AS") // ASInfo.name

	// RawFileInfoPreamble: addr0/addr1 are patched in below once known, so
	// reserve the space now and patch the underlying buffer afterwards.
	addrFieldOffset := b.len()
	b.u32(0) // run_header_addr_0 placeholder
	b.u32(0) // run_header_addr_1 placeholder
	b.f64(0) // creation_ole_date

	addrA := b.len()
	writeRunHeaderV1(&b, trailerA, 1, 1)

	addrB := b.len()
	writeRunHeaderV1(&b, trailerB, 1, trailerB)

	// InstID follows immediately after whichever RunHeader is authoritative;
	// since both candidates are the same fixed size, placing one copy right
	// after B covers the common case where B is selected, and the
	// ambiguous/missing cases never read past the RunHeaders at all.
	b.utf16("Orbitrap")
	b.utf16("SN123")

	out := b.bytes()
	patchUint32(out, addrFieldOffset, addrA)
	patchUint32(out, addrFieldOffset+4, addrB)

	return out
}

func writeRunHeaderV1(b *byteBuilder, ntrailer, firstScan, lastScan uint32) {
	b.u32(1000) // data_addr
	b.u32(2000) // scan_index_addr
	b.u32(3000) // trailer_addr
	b.u32(4000) // params_addr
	b.u32(5000) // error_log_addr
	b.u32(firstScan)
	b.u32(lastScan)
	b.u32(ntrailer)
}

func patchUint32(buf []byte, offset uint32, value uint32) {
	buf[offset+0] = byte(value)
	buf[offset+1] = byte(value >> 8)
	buf[offset+2] = byte(value >> 16)
	buf[offset+3] = byte(value >> 24)
}

// Scenario 1 (spec.md §8): two RunHeaders with ntrailer = (0, 42) -> the
// decoder selects the second.
func TestReadHeaderChainSelectsNonZeroTrailerRunHeader(t *testing.T) {
	data := buildRunHeaderFile(t, 0, 42)
	stream := bytes.NewReader(data)

	info, err := ReadHeaderChain(stream)
	if err != nil {
		t.Fatalf("ReadHeaderChain: %v", err)
	}

	if info.RunHeader.NTrailer != 42 {
		t.Fatalf("expected NTrailer 42, got %d", info.RunHeader.NTrailer)
	}
	if got := info.RunHeader.Sample.LastScan - info.RunHeader.Sample.FirstScan + 1; got != 42 {
		t.Fatalf("expected 42 scans, got %d", got)
	}
	if info.Instrument.Model != "Orbitrap" {
		t.Fatalf("InstID not decoded at the authoritative RunHeader's offset: got %q", info.Instrument.Model)
	}
}

func TestReadHeaderChainAmbiguousWhenBothNonZero(t *testing.T) {
	data := buildRunHeaderFile(t, 10, 42)
	stream := bytes.NewReader(data)

	_, err := ReadHeaderChain(stream)
	if !errors.Is(err, ErrAmbiguousRunHeader) {
		t.Fatalf("expected ErrAmbiguousRunHeader, got %v", err)
	}
}

func TestReadHeaderChainMissingWhenBothZero(t *testing.T) {
	data := buildRunHeaderFile(t, 0, 0)
	stream := bytes.NewReader(data)

	_, err := ReadHeaderChain(stream)
	if !errors.Is(err, ErrMissingRunHeader) {
		t.Fatalf("expected ErrMissingRunHeader, got %v", err)
	}
}
