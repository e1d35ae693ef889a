package rawcore

import (
	"fmt"
	"os"
)

// Decoder is the top-level entry point (spec.md §6): it owns the open file
// handle, the eagerly-decoded header chain, and the single mutable
// "parent MS1 scan" slot PeakLookup reads against (spec.md §4.6). Grounded
// on the teacher's GsfFile (file.go): a struct wrapping *os.File plus the
// decoded front matter, opened once via OpenGSF and released via Close.
type Decoder struct {
	path   string
	stream *os.File

	Header HeaderInfo

	scanIndex map[int]ScanIndexEntry
	trailer   map[uint32]ScanEvent
	params    map[uint32]ScanParameters
	paramsHdr GenericDataHeader

	parent *Scan
}

// Open performs §4.2 (header chain) and §4.3 (index tables) eagerly, over
// the full [first_scan, last_scan] range reported by the authoritative
// RunHeader, and returns a ready-to-use Decoder.
func Open(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	header, err := ReadHeaderChain(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: header chain: %w", path, err)
	}

	rh := header.RunHeader
	from, to := rh.Sample.FirstScan, rh.Sample.LastScan

	scanIndex, err := ReadScanIndex(f, rh, from, to)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: scan index: %w", path, err)
	}

	trailer, err := ReadTrailer(f, rh, header.File.Version, from, to)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: trailer: %w", path, err)
	}

	if _, err := f.Seek(int64(rh.ErrorLogAddr), 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: seeking error log: %w", path, err)
	}
	if _, err := ReadErrorLog(f, nil); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: error log: %w", path, err)
	}

	params, paramsHdr, err := ReadParameters(f, rh, from, to)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: parameters: %w", path, err)
	}

	return &Decoder{
		path:      path,
		stream:    f,
		Header:    header,
		scanIndex: scanIndex,
		trailer:   trailer,
		params:    params,
		paramsHdr: paramsHdr,
	}, nil
}

// Close releases the underlying file handle deterministically, mirroring
// GsfFile.Close().
func (d *Decoder) Close() error {
	return d.stream.Close()
}

// Scan decodes a single scan by number, updating the parent-MS1 slot when
// the scan is independent (spec.md §4.6: "Reading a new MS1 replaces it;
// MS2 reads never replace it").
func (d *Decoder) Scan(num uint32) (*Scan, error) {
	scan, err := ReadScan(d.stream, d.Header.RunHeader, num, d.scanIndex, d.trailer, d.params)
	if err != nil {
		return nil, err
	}

	if !scan.Event.Preamble.Dependent {
		d.parent = scan
	}

	return scan, nil
}

// Parent returns the most recently read independent (MS1) scan, or nil if
// none has been read yet. Used by callers driving FindPeakIntensity.
func (d *Decoder) Parent() *Scan {
	return d.parent
}

// ScanIterator produces scans in ascending order within a bounded range
// (spec.md §6's "scans(range) -> iterator<Scan>").
type ScanIterator struct {
	decoder *Decoder
	next    uint32
	to      uint32
}

// Scans implements spec.md §6's scans(range) -> iterator<Scan>. Scans must
// be drained in order since the trailer/parameter tables backing them are
// themselves sequential (spec.md §5).
func (d *Decoder) Scans(from, to uint32) (*ScanIterator, error) {
	rh := d.Header.RunHeader
	if from > to {
		return nil, ErrRangeInverted
	}
	if from < rh.Sample.FirstScan || to > rh.Sample.LastScan {
		return nil, ErrRangeBounds
	}
	return &ScanIterator{decoder: d, next: from, to: to}, nil
}

// Next returns the next scan in the range, or (nil, nil) once exhausted.
func (it *ScanIterator) Next() (*Scan, error) {
	if it.next > it.to {
		return nil, nil
	}
	scan, err := it.decoder.Scan(it.next)
	if err != nil {
		return nil, err
	}
	it.next++
	return scan, nil
}
