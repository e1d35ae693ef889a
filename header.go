package rawcore

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// FileHeader carries the schema version that parameterizes every
// downstream decoder (spec.md §3). Mirrors the shape of the teacher's
// Header{Version string} (decode/header.go), but the wire value here is a
// small unsigned integer rather than an ASCII tag.
type FileHeader struct {
	Version uint32
}

var fileHeaderTemplate = []FieldTemplate{
	{Name: "version", Type: TUInt32, Label: "schema version of the RAW file"},
}

func decodeFileHeader(stream Stream) (FileHeader, error) {
	rec, err := Decode(stream, fileHeaderTemplate)
	if err != nil {
		return FileHeader{}, err
	}
	return FileHeader{Version: rec.Get("version").(uint32)}, nil
}

// SeqRow and ASInfo are thin version-gated front-matter records that
// precede RawFileInfo. Neither carries anything the core acts on beyond
// advancing the stream to the right position, but both are decoded (rather
// than blind-skipped) so their byte offsets remain inspectable.
type SeqRow struct {
	InjectionNumber uint32
}

var seqRowTemplate = []FieldTemplate{
	{Name: "injection_number", Type: TUInt32, Label: "autosampler injection/row number"},
}

type ASInfo struct {
	Name string
}

var asInfoTemplate = []FieldTemplate{
	{Name: "name", Type: TASCIIString, Label: "autosampler name"},
}

// RawFileInfoPreamble carries the absolute addresses of up to two
// RunHeaders (spec.md §3: "a file may contain two RunHeaders"), plus the
// acquisition date stored as an OLE Automation date (days since
// 1899-12-30).
type RawFileInfoPreamble struct {
	RunHeaderAddr0 uint32
	RunHeaderAddr1 uint32
	CreationOleDate float64
}

var rawFileInfoPreambleTemplate = []FieldTemplate{
	{Name: "run_header_addr_0", Type: TUInt32, Label: "absolute offset of the first RunHeader"},
	{Name: "run_header_addr_1", Type: TUInt32, Label: "absolute offset of the second RunHeader, 0 if absent"},
	{Name: "creation_ole_date", Type: TFloat64, Label: "acquisition date, OLE Automation days since 1899-12-30"},
}

type RawFileInfo struct {
	Preamble     RawFileInfoPreamble
	CreationDate time.Time
}

// oleToTime converts an OLE Automation date (days since 1899-12-30,
// fractional part is time-of-day) to a calendar time.Time. Grounded on the
// teacher's decode/params.go, which reaches for
// github.com/soniakeys/meeus/v3/julian to turn a day-of-year count into a
// calendar date rather than hand-rolling calendar arithmetic; here the same
// library converts via a Julian day number instead.
func oleToTime(oleDays float64) time.Time {
	// OLE day 0 (1899-12-30) is Julian day number 2415018.5.
	const oleEpochJD = 2415018.5
	jd := oleEpochJD + oleDays
	y, m, d := julian.JDToCalendar(jd)

	dayFrac := d - float64(int(d))
	totalSeconds := int(dayFrac*86400 + 0.5)
	hh := totalSeconds / 3600
	mm := (totalSeconds % 3600) / 60
	ss := totalSeconds % 60

	return time.Date(y, time.Month(m), int(d), hh, mm, ss, 0, time.UTC)
}

func decodeRawFileInfo(stream Stream) (RawFileInfo, error) {
	rec, err := Decode(stream, rawFileInfoPreambleTemplate)
	if err != nil {
		return RawFileInfo{}, err
	}

	preamble := RawFileInfoPreamble{
		RunHeaderAddr0:  rec.Get("run_header_addr_0").(uint32),
		RunHeaderAddr1:  rec.Get("run_header_addr_1").(uint32),
		CreationOleDate: rec.Get("creation_ole_date").(float64),
	}

	return RawFileInfo{
		Preamble:     preamble,
		CreationDate: oleToTime(preamble.CreationOleDate),
	}, nil
}

// SampleInfo carries the inclusive 1-based scan range for a RunHeader.
type SampleInfo struct {
	FirstScan uint32
	LastScan  uint32
}

// RunHeader carries the absolute addresses of every downstream data region
// plus which trailer count it reports (spec.md §3).
type RunHeader struct {
	DataAddr      uint32
	ScanIndexAddr uint32
	TrailerAddr   uint32
	ParamsAddr    uint32
	ErrorLogAddr  uint32
	Sample        SampleInfo
	NTrailer      uint32
}

func decodeRunHeader(stream Stream, version uint32) (RunHeader, error) {
	templates, err := templatesFor(kindRunHeader, version)
	if err != nil {
		return RunHeader{}, err
	}

	rec, err := Decode(stream, templates)
	if err != nil {
		return RunHeader{}, err
	}

	return RunHeader{
		DataAddr:      rec.Get("data_addr").(uint32),
		ScanIndexAddr: rec.Get("scan_index_addr").(uint32),
		TrailerAddr:   rec.Get("trailer_addr").(uint32),
		ParamsAddr:    rec.Get("params_addr").(uint32),
		ErrorLogAddr:  rec.Get("error_log_addr").(uint32),
		Sample: SampleInfo{
			FirstScan: rec.Get("first_scan").(uint32),
			LastScan:  rec.Get("last_scan").(uint32),
		},
		NTrailer: rec.Get("ntrailer").(uint32),
	}, nil
}

// InstID identifies the instrument that acquired the file.
type InstID struct {
	Model  string
	Serial string
}

var instIDTemplate = []FieldTemplate{
	{Name: "model", Type: TUTF16String, Label: "instrument model name"},
	{Name: "serial", Type: TUTF16String, Label: "instrument serial number"},
}

func decodeInstID(stream Stream) (InstID, error) {
	rec, err := Decode(stream, instIDTemplate)
	if err != nil {
		return InstID{}, err
	}
	return InstID{
		Model:  rec.Get("model").(string),
		Serial: rec.Get("serial").(string),
	}, nil
}

// HeaderInfo is everything the front-matter traversal yields: the schema
// version, the authoritative RunHeader, and the instrument identity.
type HeaderInfo struct {
	File       FileHeader
	Seq        SeqRow
	AS         ASInfo
	RawFile    RawFileInfo
	RunHeader  RunHeader
	Instrument InstID
}

// ReadHeaderChain traverses FileHeader -> SeqRow -> ASInfo -> RawFileInfo ->
// RunHeader(s) -> InstID (spec.md §4.2), resolving which RunHeader is
// authoritative and decoding InstID immediately after it.
func ReadHeaderChain(stream Stream) (HeaderInfo, error) {
	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		return HeaderInfo{}, errors.Join(ErrSeek, err)
	}

	fh, err := decodeFileHeader(stream)
	if err != nil {
		return HeaderInfo{}, fmt.Errorf("FileHeader: %w", err)
	}

	seqRec, err := Decode(stream, seqRowTemplate)
	if err != nil {
		return HeaderInfo{}, fmt.Errorf("SeqRow: %w", err)
	}
	seq := SeqRow{InjectionNumber: seqRec.Get("injection_number").(uint32)}

	asRec, err := Decode(stream, asInfoTemplate)
	if err != nil {
		return HeaderInfo{}, fmt.Errorf("ASInfo: %w", err)
	}
	as := ASInfo{Name: asRec.Get("name").(string)}

	rawInfo, err := decodeRawFileInfo(stream)
	if err != nil {
		return HeaderInfo{}, fmt.Errorf("RawFileInfo: %w", err)
	}

	candidates := make([]uint32, 0, 2)
	if rawInfo.Preamble.RunHeaderAddr0 != 0 {
		candidates = append(candidates, rawInfo.Preamble.RunHeaderAddr0)
	}
	if rawInfo.Preamble.RunHeaderAddr1 != 0 {
		candidates = append(candidates, rawInfo.Preamble.RunHeaderAddr1)
	}

	var (
		chosen     RunHeader
		chosenAddr uint32
		nonZero    int
	)

	for _, addr := range candidates {
		if _, err := stream.Seek(int64(addr), io.SeekStart); err != nil {
			return HeaderInfo{}, errors.Join(ErrSeek, err)
		}
		rh, err := decodeRunHeader(stream, fh.Version)
		if err != nil {
			return HeaderInfo{}, fmt.Errorf("RunHeader at %d: %w", addr, err)
		}
		if rh.NTrailer > 0 {
			nonZero++
			chosen = rh
			chosenAddr = addr
		}
	}

	switch {
	case len(candidates) == 2 && nonZero == 2:
		return HeaderInfo{}, ErrAmbiguousRunHeader
	case nonZero == 0:
		return HeaderInfo{}, ErrMissingRunHeader
	}

	// InstID immediately follows the authoritative RunHeader's own fixed
	// fields; re-seek there so a consumer who only read one RunHeader
	// candidate still lands correctly.
	templates, err := templatesFor(kindRunHeader, fh.Version)
	if err != nil {
		return HeaderInfo{}, err
	}
	var runHeaderSize int64
	for _, t := range templates {
		runHeaderSize += fieldSize(t.Type, nil)
	}
	if _, err := stream.Seek(int64(chosenAddr)+runHeaderSize, io.SeekStart); err != nil {
		return HeaderInfo{}, errors.Join(ErrSeek, err)
	}

	inst, err := decodeInstID(stream)
	if err != nil {
		return HeaderInfo{}, fmt.Errorf("InstID: %w", err)
	}

	return HeaderInfo{
		File:       fh,
		Seq:        seq,
		AS:         as,
		RawFile:    rawInfo,
		RunHeader:  chosen,
		Instrument: inst,
	}, nil
}
