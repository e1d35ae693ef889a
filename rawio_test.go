package rawcore

import (
	"bytes"
	"encoding/binary"
)

// Small little-endian byte-builder helpers shared across this package's
// tests, mirroring the teacher's own synthetic-buffer test fixtures
// (record_test.go) rather than constructing real sample files on disk.

type byteBuilder struct {
	buf bytes.Buffer
}

func (b *byteBuilder) u16(v uint16) *byteBuilder {
	binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

func (b *byteBuilder) u32(v uint32) *byteBuilder {
	binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

func (b *byteBuilder) i32(v int32) *byteBuilder {
	binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

func (b *byteBuilder) f32(v float32) *byteBuilder {
	binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

func (b *byteBuilder) f64(v float64) *byteBuilder {
	binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

func (b *byteBuilder) ascii(s string) *byteBuilder {
	b.u32(uint32(len(s)))
	b.buf.WriteString(s)
	return b
}

func (b *byteBuilder) utf16(s string) *byteBuilder {
	runes := []rune(s)
	b.u32(uint32(len(runes)))
	for _, r := range runes {
		b.u16(uint16(r))
	}
	return b
}

func (b *byteBuilder) bytes() []byte {
	return b.buf.Bytes()
}

func (b *byteBuilder) len() uint32 {
	return uint32(b.buf.Len())
}
