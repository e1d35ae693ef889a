package rawcore

import "errors"

// Sentinel errors for the decode paths. Call sites that have byte offset /
// field name / scan number context wrap them with errors.Join or
// fmt.Errorf's %w; the range and run-header errors are returned bare.
var (
	ErrShortRead          = errors.New("short read decoding primitive field")
	ErrSeek               = errors.New("seek failed")
	ErrBadTypeCode        = errors.New("unrecognised field type code")
	ErrBadCount           = errors.New("out-of-range count")
	ErrAmbiguousRunHeader = errors.New("both run headers report a non-zero trailer count")
	ErrMissingRunHeader   = errors.New("neither run header reports a non-zero trailer count")
	ErrNotHeaderRecord    = errors.New("first record in stream is not a FileHeader")
	ErrRangeDependent     = errors.New("requested range begins on a dependent scan")
	ErrRangeInverted      = errors.New("requested range has from > to")
	ErrRangeBounds        = errors.New("requested range exceeds [first_scan, last_scan]")
	ErrNoProfile          = errors.New("scan has no profile data")
	ErrNoCentroids        = errors.New("scan has no centroid data")
	ErrUnknownVersion     = errors.New("no field template registered for this schema version")
	ErrCreateCacheSchema  = errors.New("error creating tiledb schema for scan-peak cache")
	ErrCreateCacheArray   = errors.New("error creating tiledb array for scan-peak cache")
	ErrWriteCache         = errors.New("error writing to tiledb scan-peak cache")
)
