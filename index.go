package rawcore

import (
	"errors"
	"fmt"
	"io"
)

// ScanIndexEntry is one fixed-size record from the ScanIndex table
// (spec.md §3/§4.3). Offset is relative to RunHeader.DataAddr.
type ScanIndexEntry struct {
	Offset          uint32
	StartTime       float64
	LowMz           float64
	HighMz          float64
	BaseMz          float64
	BaseIntensity   float32
	TotalCurrent    float32
}

var scanIndexEntryTemplate = []FieldTemplate{
	{Name: "offset", Type: TUInt32, Label: "byte offset of the scan, relative to data_addr"},
	{Name: "start_time", Type: TFloat64, Label: "retention time, minutes"},
	{Name: "low_mz", Type: TFloat64, Label: "low m/z bound of the scan"},
	{Name: "high_mz", Type: TFloat64, Label: "high m/z bound of the scan"},
	{Name: "base_mz", Type: TFloat64, Label: "base peak m/z"},
	{Name: "base_intensity", Type: TFloat32, Label: "base peak intensity"},
	{Name: "total_current", Type: TFloat32, Label: "total ion current"},
}

func scanIndexEntrySize() int64 {
	var n int64
	for _, t := range scanIndexEntryTemplate {
		n += fieldSize(t.Type, nil)
	}
	return n
}

func decodeScanIndexEntry(stream Stream) (ScanIndexEntry, error) {
	rec, err := Decode(stream, scanIndexEntryTemplate)
	if err != nil {
		return ScanIndexEntry{}, err
	}
	return ScanIndexEntry{
		Offset:        rec.Get("offset").(uint32),
		StartTime:     rec.Get("start_time").(float64),
		LowMz:         rec.Get("low_mz").(float64),
		HighMz:        rec.Get("high_mz").(float64),
		BaseMz:        rec.Get("base_mz").(float64),
		BaseIntensity: rec.Get("base_intensity").(float32),
		TotalCurrent:  rec.Get("total_current").(float32),
	}, nil
}

// ReadScanIndex implements spec.md §4.3's ScanIndex decode: probe the
// first entry to learn the record size (always constant in practice, but
// probed rather than assumed, since the spec only promises "fixed size"),
// then seek to the entry for `from` and decode through `to` inclusive.
// Keys in the returned map are zero-based (0 == scan number first_scan), per
// spec.md §9's stance on 0- vs 1-based indexing: user-facing numbering is
// 1-based, the in-memory index is 0-based, and neither relies on stored
// link fields — the ScanIndex is assumed physically sequential.
func ReadScanIndex(stream Stream, rh RunHeader, from, to uint32) (map[int]ScanIndexEntry, error) {
	if from > to {
		return nil, ErrRangeInverted
	}
	if from < rh.Sample.FirstScan || to > rh.Sample.LastScan {
		return nil, ErrRangeBounds
	}

	if _, err := stream.Seek(int64(rh.ScanIndexAddr), io.SeekStart); err != nil {
		return nil, errors.Join(ErrSeek, err)
	}
	// Probe the first entry purely to learn the record size; semantics
	// don't depend on its decoded value here.
	if _, err := decodeScanIndexEntry(stream); err != nil {
		return nil, fmt.Errorf("probing ScanIndexEntry size: %w", err)
	}
	probeEnd, err := Tell(stream)
	if err != nil {
		return nil, errors.Join(ErrSeek, err)
	}
	recSize := probeEnd - int64(rh.ScanIndexAddr)

	startOffset := int64(rh.ScanIndexAddr) + int64(from-rh.Sample.FirstScan)*recSize
	if _, err := stream.Seek(startOffset, io.SeekStart); err != nil {
		return nil, errors.Join(ErrSeek, err)
	}

	out := make(map[int]ScanIndexEntry, to-from+1)
	for n := from; n <= to; n++ {
		entry, err := decodeScanIndexEntry(stream)
		if err != nil {
			return out, fmt.Errorf("ScanIndexEntry for scan %d: %w", n, err)
		}
		out[int(n-rh.Sample.FirstScan)] = entry
	}

	return out, nil
}

// Reaction carries the precursor selection for an MS2 ScanEvent.
type Reaction struct {
	PrecursorMz float64
	Energy      float32
}

// ScanEventPreamble is the fixed-size prefix of a ScanEvent (spec.md §3).
type ScanEventPreamble struct {
	MsPower          uint16
	Polarity         uint16
	Dependent        bool
	Ionization       uint16
	Analyzer         uint16
	Detector         uint16
	ScanType         uint16
	CalibrationKind  CalibrationKind
	ActivationMethod uint16
	// HasActivationMethod reports whether this scan's version actually
	// carried an activation_method field (absent in version-1 preambles;
	// see template.go's versionedTemplates).
	HasActivationMethod bool
}

// ScanEvent is the variable-length per-scan trailer record (spec.md §3/
// §4.3): the preamble, an optional reaction for MS2 scans, and the
// calibration coefficients plus their derived forward/inverse converters.
type ScanEvent struct {
	Num         uint32
	Preamble    ScanEventPreamble
	Reaction    *Reaction
	Calibration Calibration
}

var reactionTemplate = []FieldTemplate{
	{Name: "precursor_mz", Type: TFloat64, Label: "selected precursor m/z"},
	{Name: "energy", Type: TFloat32, Label: "collision/activation energy"},
}

var calibrationTemplate = []FieldTemplate{
	{Name: "a", Type: TFloat64, Label: "calibration coefficient A"},
	{Name: "b", Type: TFloat64, Label: "calibration coefficient B"},
	{Name: "c", Type: TFloat64, Label: "calibration coefficient C"},
}

// decodeScanEvent reads one variable-length ScanEvent starting at the
// stream's current position. The "purge_unused_data" step spec.md §3
// mentions (discarding large transient buffers) needs no explicit
// implementation here: decodeScanEvent never retains anything beyond the
// preamble/reaction/calibration it returns.
func decodeScanEvent(stream Stream, scanNum uint32, version uint32) (ScanEvent, error) {
	templates, err := templatesFor(kindScanEventPreamble, version)
	if err != nil {
		return ScanEvent{}, err
	}

	rec, err := Decode(stream, templates)
	if err != nil {
		return ScanEvent{}, fmt.Errorf("ScanEvent %d preamble: %w", scanNum, err)
	}

	preamble := ScanEventPreamble{
		MsPower:         rec.Get("ms_power").(uint16),
		Polarity:        rec.Get("polarity").(uint16),
		Dependent:       rec.Get("dependent").(uint16) != 0,
		Ionization:      rec.Get("ionization").(uint16),
		Analyzer:        rec.Get("analyzer").(uint16),
		Detector:        rec.Get("detector").(uint16),
		ScanType:        rec.Get("scan_type").(uint16),
		CalibrationKind: CalibrationKind(rec.Get("calibration_kind").(uint16)),
	}
	if v, ok := rec.ByName["activation_method"]; ok {
		preamble.ActivationMethod = v.(uint16)
		preamble.HasActivationMethod = true
	}

	calRec, err := Decode(stream, calibrationTemplate)
	if err != nil {
		return ScanEvent{}, fmt.Errorf("ScanEvent %d calibration: %w", scanNum, err)
	}
	calibration := Calibration{
		Kind: preamble.CalibrationKind,
		A:    calRec.Get("a").(float64),
		B:    calRec.Get("b").(float64),
		C:    calRec.Get("c").(float64),
	}

	event := ScanEvent{Num: scanNum, Preamble: preamble, Calibration: calibration}

	if preamble.MsPower >= 2 {
		reactRec, err := Decode(stream, reactionTemplate)
		if err != nil {
			return ScanEvent{}, fmt.Errorf("ScanEvent %d reaction: %w", scanNum, err)
		}
		event.Reaction = &Reaction{
			PrecursorMz: reactRec.Get("precursor_mz").(float64),
			Energy:      reactRec.Get("energy").(float32),
		}
	}

	return event, nil
}

// ReadTrailer implements spec.md §4.3's Trailer decode: read the leading
// count, then that many ScanEvents sequentially, retaining only scan
// numbers in [from, to]. Must be read in order — ScanEvents are not
// random-accessible (spec.md §5).
func ReadTrailer(stream Stream, rh RunHeader, version uint32, from, to uint32) (map[uint32]ScanEvent, error) {
	if from > to {
		return nil, ErrRangeInverted
	}

	if _, err := stream.Seek(int64(rh.TrailerAddr), io.SeekStart); err != nil {
		return nil, errors.Join(ErrSeek, err)
	}

	countVal, _, err := readPrimitive(stream, "trailer.count", TUInt32)
	if err != nil {
		return nil, err
	}
	count := countVal.(uint32)

	out := make(map[uint32]ScanEvent, to-from+1)
	firstRetained := true

	for n := rh.Sample.FirstScan; n < rh.Sample.FirstScan+count; n++ {
		event, err := decodeScanEvent(stream, n, version)
		if err != nil {
			return out, fmt.Errorf("ScanEvent %d: %w", n, err)
		}

		if n < from {
			continue
		}

		if firstRetained {
			if event.Preamble.Dependent {
				return out, fmt.Errorf("%w: scan %d", ErrRangeDependent, n)
			}
			firstRetained = false
		}

		out[n] = event

		if n >= to {
			break
		}
	}

	return out, nil
}

// ErrorLogEntry is one entry from the file's own error log (spec.md §3/
// §4.3), surfaced to the caller via a logging callback rather than as a
// fatal error (spec.md §7's InstrumentError).
type ErrorLogEntry struct {
	Time    float64
	Message string
}

var errorLogEntryTemplate = []FieldTemplate{
	{Name: "time", Type: TFloat64, Label: "instrument time of the error"},
	{Name: "message", Type: TASCIIString, Label: "error message text"},
}

// ErrorLogCallback is invoked once per error-log entry. Returning true
// suppresses the entry from any further surfacing by the caller; the core
// itself never suppresses and ignores the callback's return value.
type ErrorLogCallback func(entry ErrorLogEntry) (suppress bool)

// ReadErrorLog decodes the count-prefixed error-log list and invokes cb for
// each entry, exactly once, in file order (spec.md §8 scenario 6).
func ReadErrorLog(stream Stream, cb ErrorLogCallback) ([]ErrorLogEntry, error) {
	countVal, _, err := readPrimitive(stream, "error_log.count", TUInt32)
	if err != nil {
		return nil, err
	}
	count := countVal.(uint32)

	entries := make([]ErrorLogEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		rec, err := Decode(stream, errorLogEntryTemplate)
		if err != nil {
			return entries, fmt.Errorf("ErrorLogEntry %d: %w", i, err)
		}
		entry := ErrorLogEntry{
			Time:    rec.Get("time").(float64),
			Message: rec.Get("message").(string),
		}
		entries = append(entries, entry)
		if cb != nil {
			cb(entry)
		}
	}

	return entries, nil
}

// skipHierarchy advances the stream past the scan-event hierarchy segments
// (spec.md §4.3): nsegs segments, each a count-prefixed list of
// ScanEventTemplate records. The hierarchy is consumed only to reach the
// parameter-stream header; nothing from it is retained.
var scanEventTemplateRecord = []FieldTemplate{
	{Name: "ms_power", Type: TUInt16, Label: "MS level this template applies to"},
	{Name: "repeat_count", Type: TUInt16, Label: "how many consecutive scans use this template"},
}

func skipHierarchy(stream Stream) error {
	nsegsVal, _, err := readPrimitive(stream, "hierarchy.nsegs", TUInt32)
	if err != nil {
		return err
	}
	nsegs := nsegsVal.(uint32)

	for s := uint32(0); s < nsegs; s++ {
		ntVal, _, err := readPrimitive(stream, "hierarchy.segment.count", TUInt32)
		if err != nil {
			return err
		}
		nt := ntVal.(uint32)
		if _, err := IterateObjects(stream, nt, scanEventTemplateRecord); err != nil {
			return fmt.Errorf("hierarchy segment %d: %w", s, err)
		}
	}

	return nil
}

// ScanParameters is the per-scan record decoded against the
// GenericDataHeader's field templates (spec.md §3/§4.3). Only charge_state
// is pulled out explicitly; everything else decoded is kept in Raw for
// completeness.
type ScanParameters struct {
	Num         uint32
	ChargeState int32
	Raw         map[string]any
}

// ReadParameters implements spec.md §4.3's Parameters decode: a
// GenericDataHeader immediately follows the error log and hierarchy
// segments, then one ScanParameters record per scan in
// [first_scan-1, last_scan-1], from which charge_state is extracted for
// scans in [from, to].
func ReadParameters(stream Stream, rh RunHeader, from, to uint32) (map[uint32]ScanParameters, GenericDataHeader, error) {
	if err := skipHierarchy(stream); err != nil {
		return nil, GenericDataHeader{}, fmt.Errorf("scan-event hierarchy: %w", err)
	}

	header, err := DecodeGenericDataHeader(stream)
	if err != nil {
		return nil, GenericDataHeader{}, fmt.Errorf("GenericDataHeader: %w", err)
	}

	if _, err := stream.Seek(int64(rh.ParamsAddr), io.SeekStart); err != nil {
		return nil, header, errors.Join(ErrSeek, err)
	}

	out := make(map[uint32]ScanParameters)

	for i := rh.Sample.FirstScan - 1; i <= rh.Sample.LastScan-1; i++ {
		n := i + 1

		rec, err := Decode(stream, header.Fields)
		if err != nil {
			return out, header, fmt.Errorf("ScanParameters for scan %d: %w", n, err)
		}

		if n >= from {
			charge := NullChargeState
			if v, ok := rec.ByName["charge_state"]; ok {
				if cv, ok := v.(int32); ok {
					charge = cv
				} else if uv, ok := v.(uint16); ok {
					charge = int32(uv)
				}
			}
			out[n] = ScanParameters{Num: n, ChargeState: charge, Raw: rec.ByName}
		}

		if n >= to {
			break
		}
	}

	return out, header, nil
}
