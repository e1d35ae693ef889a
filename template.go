package rawcore

// GenericDataHeader is the self-describing schema that precedes the
// ScanParameters stream (spec.md §3, §4.3): a list of field templates that
// governs how each per-scan ScanParameters record is decoded. It is read at
// runtime from the file itself, unlike every other record in this module
// whose layout is known at compile time.
type GenericDataHeader struct {
	Fields []FieldTemplate
}

// DecodeGenericDataHeader reads a count-prefixed list of (name, type-code,
// label) triples (spec.md §3's GenericDataHeader) from the current stream
// position.
func DecodeGenericDataHeader(stream Stream) (GenericDataHeader, error) {
	count, _, err := readPrimitive(stream, "generic_header.count", TUInt32)
	if err != nil {
		return GenericDataHeader{}, err
	}

	n := count.(uint32)
	fields := make([]FieldTemplate, 0, n)

	for i := uint32(0); i < n; i++ {
		nameV, _, err := readPrimitive(stream, "generic_header.name", TASCIIString)
		if err != nil {
			return GenericDataHeader{}, err
		}
		typeV, _, err := readPrimitive(stream, "generic_header.type", TUInt16)
		if err != nil {
			return GenericDataHeader{}, err
		}
		labelV, _, err := readPrimitive(stream, "generic_header.label", TASCIIString)
		if err != nil {
			return GenericDataHeader{}, err
		}

		fields = append(fields, FieldTemplate{
			Name:  nameV.(string),
			Type:  TypeCode(typeV.(uint16)),
			Label: labelV.(string),
		})
	}

	return GenericDataHeader{Fields: fields}, nil
}

// recordKind names a versioned record whose layout varies by schema version,
// per spec.md §9: "represent as a small table keyed by (record, version)
// yielding the template list, not as conditional code paths scattered
// through decoders." Grounded on the teacher's own (RecordID, version)/
// (SensorID) dispatch tables in schema.go's mdSchemaAttrs.
type recordKind int

const (
	kindRunHeader recordKind = iota
	kindScanEventPreamble
)

// versionedTemplates holds, for each (recordKind, version) pair, the field
// template list to use. Versions not present fall back to the highest
// version below the requested one (the format is additive: newer schema
// versions only append fields).
var versionedTemplates = map[recordKind]map[uint32][]FieldTemplate{
	kindRunHeader: {
		1: {
			{Name: "data_addr", Type: TUInt32, Label: "absolute offset of the scan data region"},
			{Name: "scan_index_addr", Type: TUInt32, Label: "absolute offset of the scan index table"},
			{Name: "trailer_addr", Type: TUInt32, Label: "absolute offset of the scan-event trailer"},
			{Name: "params_addr", Type: TUInt32, Label: "absolute offset of the parameters stream"},
			{Name: "error_log_addr", Type: TUInt32, Label: "absolute offset of the error log"},
			{Name: "first_scan", Type: TUInt32, Label: "first scan number (1-based, inclusive)"},
			{Name: "last_scan", Type: TUInt32, Label: "last scan number (1-based, inclusive)"},
			{Name: "ntrailer", Type: TUInt32, Label: "count of scan-event trailer records"},
		},
		// version 2 appends a digest field the core never needs to interpret
		// (SHA-1 digesting of the input is an external collaborator's job,
		// per spec.md §1) but must still skip past.
		2: {
			{Name: "data_addr", Type: TUInt32, Label: "absolute offset of the scan data region"},
			{Name: "scan_index_addr", Type: TUInt32, Label: "absolute offset of the scan index table"},
			{Name: "trailer_addr", Type: TUInt32, Label: "absolute offset of the scan-event trailer"},
			{Name: "params_addr", Type: TUInt32, Label: "absolute offset of the parameters stream"},
			{Name: "error_log_addr", Type: TUInt32, Label: "absolute offset of the error log"},
			{Name: "first_scan", Type: TUInt32, Label: "first scan number (1-based, inclusive)"},
			{Name: "last_scan", Type: TUInt32, Label: "last scan number (1-based, inclusive)"},
			{Name: "ntrailer", Type: TUInt32, Label: "count of scan-event trailer records"},
			{Name: "digest_reserved", Type: TUInt32, Label: "reserved digest placeholder, unused by the core"},
		},
	},
	kindScanEventPreamble: {
		1: {
			{Name: "ms_power", Type: TUInt16, Label: "MS level, 1 or 2"},
			{Name: "polarity", Type: TUInt16, Label: "0 positive, 1 negative, 2 any"},
			{Name: "dependent", Type: TUInt16, Label: "non-zero if this scan depends on a preceding MS1"},
			{Name: "ionization", Type: TUInt16, Label: "ionization source code"},
			{Name: "analyzer", Type: TUInt16, Label: "mass analyzer code"},
			{Name: "detector", Type: TUInt16, Label: "detector code"},
			{Name: "scan_type", Type: TUInt16, Label: "scan type code (full, zoom, SIM, ...)"},
			{Name: "calibration_kind", Type: TUInt16, Label: "calibration variant selector, see calibration.go"},
		},
		// version 2 appends an activation_method field; the reaction block
		// (precursor/energy) still follows the calibration coefficients for
		// MS2 scans in every version (see decodeScanEvent).
		2: {
			{Name: "ms_power", Type: TUInt16, Label: "MS level, 1 or 2"},
			{Name: "polarity", Type: TUInt16, Label: "0 positive, 1 negative, 2 any"},
			{Name: "dependent", Type: TUInt16, Label: "non-zero if this scan depends on a preceding MS1"},
			{Name: "ionization", Type: TUInt16, Label: "ionization source code"},
			{Name: "analyzer", Type: TUInt16, Label: "mass analyzer code"},
			{Name: "detector", Type: TUInt16, Label: "detector code"},
			{Name: "scan_type", Type: TUInt16, Label: "scan type code (full, zoom, SIM, ...)"},
			{Name: "calibration_kind", Type: TUInt16, Label: "calibration variant selector, see calibration.go"},
			{Name: "activation_method", Type: TUInt16, Label: "CID, HCD, ETD, ..."},
		},
	},
}

// templatesFor resolves the field template list for a versioned record,
// falling back to the closest version at or below the requested one since
// the format only ever appends fields across versions.
func templatesFor(kind recordKind, version uint32) ([]FieldTemplate, error) {
	byVersion, ok := versionedTemplates[kind]
	if !ok {
		return nil, ErrUnknownVersion
	}

	best, found := uint32(0), false
	for v := range byVersion {
		if v <= version && (!found || v > best) {
			best, found = v, true
		}
	}
	if !found {
		return nil, ErrUnknownVersion
	}

	return byVersion[best], nil
}
