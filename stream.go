package rawcore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Stream caters for a generic reader type so the decoders can be driven by
// either an *os.File or an in-memory *bytes.Reader, mirroring the teacher's
// own Stream interface (reader.go in the GSF decoder): all the decode code
// cares about is Read/Seek.
type Stream interface {
	io.Reader
	io.Seeker
}

// Tell reports the current byte offset within the stream.
func Tell(stream Stream) (int64, error) {
	return stream.Seek(0, io.SeekCurrent)
}

// TypeCode identifies the wire representation of a primitive field read by
// the StreamDecoder. Every code is little-endian, per spec.md §6.
type TypeCode int

const (
	TUInt32 TypeCode = iota
	TUInt16
	TInt32
	TInt16
	TFloat32
	TFloat64
	TASCIIString // uint32 byte count, then that many ASCII bytes
	TUTF16String // uint32 character count, then 2*n bytes, NUL-stripped
)

// FieldTemplate declares one field to decode in sequence: its name (used as
// the record's map key and in error paths), its wire type, and a
// human-readable label (spec.md §4.1's "(field-name, type-code, label)").
type FieldTemplate struct {
	Name  string
	Type  TypeCode
	Label string
}

// Field carries a decoded value together with where in the stream it came
// from, so callers can inspect byte-exact provenance without re-decoding.
type Field struct {
	Name     string
	Offset   int64
	Size     int64
	Value    any
}

// Record is the decoded result of running a template list against a stream:
// an ordered field list, a name-indexed lookup, and the total byte count
// consumed.
type Record struct {
	Fields      []Field
	ByName      map[string]any
	BytesRead   int64
}

// Get retrieves a decoded field value by name, or nil if absent.
func (r *Record) Get(name string) any {
	if r.ByName == nil {
		return nil
	}
	return r.ByName[name]
}

func fieldSize(t TypeCode, value any) int64 {
	switch t {
	case TUInt32, TInt32, TFloat32:
		return 4
	case TUInt16, TInt16:
		return 2
	case TFloat64:
		return 8
	case TASCIIString:
		if s, ok := value.(string); ok {
			return int64(4 + len(s))
		}
		return 4
	case TUTF16String:
		if s, ok := value.(string); ok {
			return int64(4 + 2*len([]rune(s)))
		}
		return 4
	default:
		return 0
	}
}

// readPrimitive reads a single primitive field at the current stream
// position according to its type code. Short reads are turned into a fatal
// ErrShortRead identifying the field name and offset (spec.md §4.1).
func readPrimitive(stream Stream, name string, t TypeCode) (any, int64, error) {
	offset, err := Tell(stream)
	if err != nil {
		return nil, 0, errors.Join(ErrSeek, err)
	}

	switch t {
	case TUInt32:
		var v uint32
		if err := binary.Read(stream, binary.LittleEndian, &v); err != nil {
			return nil, 0, shortRead(name, offset, err)
		}
		return v, 4, nil
	case TUInt16:
		var v uint16
		if err := binary.Read(stream, binary.LittleEndian, &v); err != nil {
			return nil, 0, shortRead(name, offset, err)
		}
		return v, 2, nil
	case TInt32:
		var v int32
		if err := binary.Read(stream, binary.LittleEndian, &v); err != nil {
			return nil, 0, shortRead(name, offset, err)
		}
		return v, 4, nil
	case TInt16:
		var v int16
		if err := binary.Read(stream, binary.LittleEndian, &v); err != nil {
			return nil, 0, shortRead(name, offset, err)
		}
		return v, 2, nil
	case TFloat32:
		var v float32
		if err := binary.Read(stream, binary.LittleEndian, &v); err != nil {
			return nil, 0, shortRead(name, offset, err)
		}
		return v, 4, nil
	case TFloat64:
		var v float64
		if err := binary.Read(stream, binary.LittleEndian, &v); err != nil {
			return nil, 0, shortRead(name, offset, err)
		}
		return v, 8, nil
	case TASCIIString:
		var n uint32
		if err := binary.Read(stream, binary.LittleEndian, &n); err != nil {
			return nil, 0, shortRead(name, offset, err)
		}
		buf := make([]byte, n)
		if n > 0 {
			if _, err := io.ReadFull(stream, buf); err != nil {
				return nil, 0, shortRead(name, offset, err)
			}
		}
		return string(buf), int64(4 + n), nil
	case TUTF16String:
		var n uint32
		if err := binary.Read(stream, binary.LittleEndian, &n); err != nil {
			return nil, 0, shortRead(name, offset, err)
		}
		raw := make([]uint16, n)
		if n > 0 {
			if err := binary.Read(stream, binary.LittleEndian, &raw); err != nil {
				return nil, 0, shortRead(name, offset, err)
			}
		}
		runes := make([]rune, 0, n)
		for _, u := range raw {
			if u == 0 {
				continue
			}
			runes = append(runes, rune(u))
		}
		return string(runes), int64(4 + 2*n), nil
	default:
		return nil, 0, errors.Join(ErrBadTypeCode, fmt.Errorf("field %q: code %d", name, t))
	}
}

func shortRead(name string, offset int64, cause error) error {
	return errors.Join(ErrShortRead, fmt.Errorf("field %q at offset %d: %w", name, offset, cause))
}

// Decode performs a positional read (spec.md §4.1): it consumes the
// template list sequentially from the stream's current position and
// returns a Record with byte-exact provenance for every field.
func Decode(stream Stream, templates []FieldTemplate) (Record, error) {
	rec := Record{
		Fields: make([]Field, 0, len(templates)),
		ByName: make(map[string]any, len(templates)),
	}

	for _, tmpl := range templates {
		offset, err := Tell(stream)
		if err != nil {
			return rec, errors.Join(ErrSeek, err)
		}

		value, size, err := readPrimitive(stream, tmpl.Name, tmpl.Type)
		if err != nil {
			return rec, err
		}

		rec.Fields = append(rec.Fields, Field{Name: tmpl.Name, Offset: offset, Size: size, Value: value})
		rec.ByName[tmpl.Name] = value
		rec.BytesRead += size
	}

	return rec, nil
}

// IterateObjects implements spec.md §4.1's "iterate-object" mode: having
// just read a count, decode that many instances of a named sub-record
// template in sequence, returning one Record per instance.
func IterateObjects(stream Stream, count uint32, templates []FieldTemplate) ([]Record, error) {
	out := make([]Record, 0, count)
	for i := uint32(0); i < count; i++ {
		rec, err := Decode(stream, templates)
		if err != nil {
			return out, fmt.Errorf("instance %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
