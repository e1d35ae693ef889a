package rawcore

import (
	"errors"
	"fmt"
	"io"
)

// ScanHeader precedes the optional profile and centroid sections of a scan
// (spec.md §3/§4.4).
type ScanHeader struct {
	ProfileSize  uint32
	PeakListSize uint32
}

var scanHeaderTemplate = []FieldTemplate{
	{Name: "profile_size", Type: TUInt32, Label: "byte size of the profile section, 0 if absent"},
	{Name: "peak_list_size", Type: TUInt32, Label: "byte size of the centroid section, 0 if absent"},
}

func decodeScanHeader(stream Stream) (ScanHeader, error) {
	rec, err := Decode(stream, scanHeaderTemplate)
	if err != nil {
		return ScanHeader{}, err
	}
	return ScanHeader{
		ProfileSize:  rec.Get("profile_size").(uint32),
		PeakListSize: rec.Get("peak_list_size").(uint32),
	}, nil
}

// Scan is the fully decoded result of a single random-access scan read
// (spec.md §4.4): its header, optional profile, optional centroid list, and
// the ScanEvent it was read against (for metadata and calibration).
type Scan struct {
	Num       uint32
	Header    ScanHeader
	Profile   *Profile
	Centroids *Centroids
	Event     ScanEvent
	Index     ScanIndexEntry
	Params    ScanParameters
}

// ReadScan implements spec.md §4.4's ScanReader: seek to
// data_addr + scan_index[n-1].offset, decode the ScanHeader, then decode
// whichever of profile/centroids are present. The matching ScanEvent's
// converter/inverse_converter is attached to the returned Profile.
func ReadScan(stream Stream, rh RunHeader, n uint32, idx map[int]ScanIndexEntry, events map[uint32]ScanEvent, params map[uint32]ScanParameters) (*Scan, error) {
	entry, ok := idx[int(n-rh.Sample.FirstScan)]
	if !ok {
		return nil, fmt.Errorf("scan %d not present in scan index", n)
	}
	event, ok := events[n]
	if !ok {
		return nil, fmt.Errorf("scan %d not present in trailer", n)
	}

	offset := int64(rh.DataAddr) + int64(entry.Offset)
	if _, err := stream.Seek(offset, io.SeekStart); err != nil {
		return nil, errors.Join(ErrSeek, err)
	}

	header, err := decodeScanHeader(stream)
	if err != nil {
		return nil, fmt.Errorf("scan %d ScanHeader: %w", n, err)
	}

	scan := &Scan{
		Num:    n,
		Header: header,
		Event:  event,
		Index:  entry,
		Params: params[n],
	}

	if header.ProfileSize > 0 {
		profile, err := decodeProfile(stream, event.Calibration)
		if err != nil {
			return nil, fmt.Errorf("scan %d Profile: %w", n, err)
		}
		scan.Profile = &profile
	}

	if header.PeakListSize > 0 {
		centroids, err := decodeCentroids(stream)
		if err != nil {
			return nil, fmt.Errorf("scan %d Centroids: %w", n, err)
		}
		scan.Centroids = &centroids
	}

	return scan, nil
}

// PeakMode selects how Scan.Peaks renders a scan's data (spec.md §4.4).
type PeakMode int

const (
	// PeakModeAuto prefers centroids, falling back to profile bins.
	PeakModeAuto PeakMode = iota
	// PeakModeCentroidOnly requires centroids; ErrNoCentroids otherwise.
	PeakModeCentroidOnly
	// PeakModeProfileOnly requires profile bins; ErrNoProfile otherwise
	// (spec.md §4.4's "profile-only mode requested but scan has none").
	PeakModeProfileOnly
)

// Peak is one rendered (m/z, intensity) measurement.
type Peak struct {
	Mz        float64
	Intensity float32
}

// Peaks renders the scan's chosen representation into a flat peak
// sequence, per spec.md §4.4 and §6 (Scan.peaks()).
func (s *Scan) Peaks(mode PeakMode) ([]Peak, error) {
	switch mode {
	case PeakModeCentroidOnly:
		if s.Centroids == nil {
			return nil, fmt.Errorf("%w: scan %d", ErrNoCentroids, s.Num)
		}
		return s.Centroids.Peaks(), nil
	case PeakModeProfileOnly:
		if s.Profile == nil {
			return nil, fmt.Errorf("%w: scan %d", ErrNoProfile, s.Num)
		}
		return s.Profile.Render(), nil
	default: // PeakModeAuto
		if s.Centroids != nil {
			return s.Centroids.Peaks(), nil
		}
		if s.Profile != nil {
			return s.Profile.Render(), nil
		}
		return nil, nil
	}
}

// Metadata shapes the consumer-facing scan metadata (spec.md §6).
type Metadata struct {
	Num                   uint32
	MsLevel               uint16
	Polarity              string
	ScanType              uint16
	FilterLine            string
	RetentionTimeSeconds  float64
	LowMz                 float64
	HighMz                float64
	BasePeakMz            float64
	BasePeakIntensity     float32
	TotalIonCurrent       float32
	ChargeState           *int32
	CollisionEnergy       *float32
	PrecursorMz           *float64
	PrecursorIntensity    *float32
	ActivationMethod      *uint16
}

// Metadata assembles the spec.md §6 metadata struct for this scan.
func (s *Scan) Metadata() Metadata {
	md := Metadata{
		Num:                  s.Num,
		MsLevel:              s.Event.Preamble.MsPower,
		Polarity:             polarityString(s.Event.Preamble.Polarity),
		ScanType:             s.Event.Preamble.ScanType,
		FilterLine:           filterLine(s.Event.Preamble),
		RetentionTimeSeconds: s.Index.StartTime * 60.0,
		LowMz:                s.Index.LowMz,
		HighMz:               s.Index.HighMz,
		BasePeakMz:           s.Index.BaseMz,
		BasePeakIntensity:    s.Index.BaseIntensity,
		TotalIonCurrent:      s.Index.TotalCurrent,
	}

	if s.Params.Num != 0 && s.Params.ChargeState != NullChargeState {
		cs := s.Params.ChargeState
		md.ChargeState = &cs
	}

	if s.Event.Reaction != nil {
		pmz := s.Event.Reaction.PrecursorMz
		energy := s.Event.Reaction.Energy
		md.PrecursorMz = &pmz
		md.CollisionEnergy = &energy
	}

	if s.Event.Preamble.HasActivationMethod {
		am := s.Event.Preamble.ActivationMethod
		md.ActivationMethod = &am
	}

	return md
}

// filterLine renders the scan's instrument filter settings into the short
// human-readable summary instrument vendors conventionally call a "filter
// line" (e.g. "ms1 + full"), derived entirely from already-decoded
// ScanEvent fields rather than stored separately on the wire.
func filterLine(p ScanEventPreamble) string {
	return fmt.Sprintf("ms%d %s %s", p.MsPower, polarityString(p.Polarity), scanTypeLabel(p.ScanType))
}

func scanTypeLabel(t uint16) string {
	switch t {
	case 0:
		return "full"
	case 1:
		return "zoom"
	case 2:
		return "sim"
	default:
		return fmt.Sprintf("type%d", t)
	}
}

func polarityString(p uint16) string {
	switch p {
	case 0:
		return "+"
	case 1:
		return "-"
	default:
		return "any"
	}
}
