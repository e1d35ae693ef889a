package rawcore

import (
	"errors"
	"fmt"
	"reflect"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	stgpsr "github.com/yuin/stagparser"
)

// CacheConfig points the optional scan-peak cache at a TileDB context; a
// zero-value CacheConfig uses TileDB's own default config resolution,
// mirroring the teacher's "empty config URI means a generic config" rule
// (schema.go/tiledb.go).
type CacheConfig struct {
	ConfigURI string
}

// peakRecord is the schema source-of-truth for the scan-peak cache: a
// sparse array keyed by (scan_num, point_index), the spectrometry analogue
// of the teacher's beamSparseSchema (beam data keyed by lon/lat).
// Attribute shape is declared once here via struct tags and read back at
// schema-construction time with stagparser, exactly the way the teacher's
// schema.go turns struct tags into TileDB attribute/filter lists instead of
// repeating the same boilerplate per array. Fields tagged ftype=dim are
// skipped by schemaAttrs; the scan_num/point_index dimensions are built
// directly in CachePeaks.
type peakRecord struct {
	ScanNum    int32   `tiledb:"dtype=int32,ftype=dim"`
	PointIndex int32   `tiledb:"dtype=int32,ftype=dim"`
	Mz         float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	Intensity  float32 `tiledb:"dtype=float32,ftype=attr" filters:"zstd(level=16)"`
}

// ZstdFilter builds a zstandard compression filter at the given level,
// grounded on the teacher's ZstdFilter (tiledb.go).
func ZstdFilter(ctx *tiledb.Context, level int32) (*tiledb.Filter, error) {
	filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_ZSTD)
	if err != nil {
		return nil, err
	}
	if err := filt.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, level); err != nil {
		filt.Free()
		return nil, err
	}
	return filt, nil
}

// CreateAttr builds one tiledb.Attribute from its dtype/ftype tag
// definitions and filter-pipeline definitions, grounded on the teacher's
// CreateAttr (tiledb.go): dtype is always read explicitly off the
// "tiledb" tag rather than inferred from the Go field's reflect.Kind, and
// filters are attached in the order they appear in the "filters" tag.
func CreateAttr(fieldName string, filterDefs []stgpsr.Definition, tdbDefs map[string]stgpsr.Definition, schema *tiledb.ArraySchema, ctx *tiledb.Context) error {
	def, ok := tdbDefs["dtype"]
	if !ok {
		return errors.Join(ErrCreateCacheSchema, errors.New("dtype tag not found"))
	}
	dtype, _ := def.Attribute("dtype")

	var tdbDtype tiledb.Datatype
	switch dtype {
	case "int8":
		tdbDtype = tiledb.TILEDB_INT8
	case "uint8":
		tdbDtype = tiledb.TILEDB_UINT8
	case "int16":
		tdbDtype = tiledb.TILEDB_INT16
	case "uint16":
		tdbDtype = tiledb.TILEDB_UINT16
	case "int32":
		tdbDtype = tiledb.TILEDB_INT32
	case "uint32":
		tdbDtype = tiledb.TILEDB_UINT32
	case "int64":
		tdbDtype = tiledb.TILEDB_INT64
	case "uint64":
		tdbDtype = tiledb.TILEDB_UINT64
	case "float32":
		tdbDtype = tiledb.TILEDB_FLOAT32
	case "float64":
		tdbDtype = tiledb.TILEDB_FLOAT64
	case "datetime_ns":
		tdbDtype = tiledb.TILEDB_DATETIME_NS
	case "string":
		tdbDtype = tiledb.TILEDB_STRING_UTF8
	default:
		return errors.Join(ErrCreateCacheSchema, fmt.Errorf("unsupported dtype %q", dtype))
	}

	filts, err := tiledb.NewFilterList(ctx)
	if err != nil {
		return errors.Join(ErrCreateCacheSchema, err)
	}
	defer filts.Free()

	for _, filter := range filterDefs {
		switch filter.Name() {
		case "zstd":
			level, ok := filter.Attribute("level")
			if !ok {
				return errors.Join(ErrCreateCacheSchema, errors.New("zstd level not defined"))
			}
			filt, err := ZstdFilter(ctx, int32(level.(int64)))
			if err != nil {
				return errors.Join(ErrCreateCacheSchema, err)
			}
			defer filt.Free()
			if err := filts.AddFilter(filt); err != nil {
				return errors.Join(ErrCreateCacheSchema, err)
			}
		}
	}

	attr, err := tiledb.NewAttribute(ctx, fieldName, tdbDtype)
	if err != nil {
		return errors.Join(ErrCreateCacheSchema, err)
	}
	defer attr.Free()

	if err := attr.SetFilterList(filts); err != nil {
		return errors.Join(ErrCreateCacheSchema, err)
	}

	return schema.AddAttributes(attr)
}

// schemaAttrs parses peakRecord's struct tags into TileDB attribute
// declarations and adds them to schema, grounded on the teacher's
// schemaAttrs/mdSchemaAttrs (schema.go): stagparser.ParseStruct turns a
// struct's "tiledb"/"filters" tags into per-field Definitions, keyed by Go
// field name, so each new cached array only needs a struct, not
// hand-written attribute code.
func schemaAttrs(t any, schema *tiledb.ArraySchema, ctx *tiledb.Context) error {
	values := reflect.ValueOf(t).Elem()
	types := values.Type()

	filtDefs, _ := stgpsr.ParseStruct(t, "filters")
	tdbDefs, _ := stgpsr.ParseStruct(t, "tiledb")

	for i := 0; i < values.NumField(); i++ {
		name := types.Field(i).Name
		fieldFiltDefs := filtDefs[name]

		fieldTdbDefs := make(map[string]stgpsr.Definition)
		for _, v := range tdbDefs[name] {
			fieldTdbDefs[v.Name()] = v
		}

		def, ok := fieldTdbDefs["ftype"]
		if !ok {
			return errors.Join(ErrCreateCacheSchema, errors.New("ftype tag not found"))
		}
		ftype, _ := def.Attribute("ftype")
		if ftype == "dim" {
			continue
		}

		if err := CreateAttr(name, fieldFiltDefs, fieldTdbDefs, schema, ctx); err != nil {
			return errors.Join(ErrCreateCacheSchema, err)
		}
	}

	return nil
}

// CachePeaks persists every rendered (m/z, intensity) pair across the whole
// [first_scan, last_scan] range to a TileDB sparse array at uri, keyed by (scan_num,
// point_index). Entirely additive: decoding and FindPeakIntensity never
// require it (spec.md §6).
func (d *Decoder) CachePeaks(uri string, cfg CacheConfig) error {
	var (
		config *tiledb.Config
		err    error
	)

	if cfg.ConfigURI == "" {
		config, err = tiledb.NewConfig()
	} else {
		config, err = tiledb.LoadConfig(cfg.ConfigURI)
	}
	if err != nil {
		return errors.Join(ErrCreateCacheSchema, err)
	}
	defer config.Free()

	ctx, err := tiledb.NewContext(config)
	if err != nil {
		return errors.Join(ErrCreateCacheSchema, err)
	}
	defer ctx.Free()

	dom, err := tiledb.NewDomain(ctx)
	if err != nil {
		return errors.Join(ErrCreateCacheSchema, err)
	}
	defer dom.Free()

	scanDim, err := tiledb.NewDimension(ctx, "scan_num", tiledb.TILEDB_INT32, []int32{0, 1 << 24}, int32(1))
	if err != nil {
		return errors.Join(ErrCreateCacheSchema, err)
	}
	pointDim, err := tiledb.NewDimension(ctx, "point_index", tiledb.TILEDB_INT32, []int32{0, 1 << 24}, int32(1))
	if err != nil {
		return errors.Join(ErrCreateCacheSchema, err)
	}
	if err := dom.AddDimensions(scanDim, pointDim); err != nil {
		return errors.Join(ErrCreateCacheSchema, err)
	}

	schema, err := tiledb.NewArraySchema(ctx, tiledb.TILEDB_SPARSE)
	if err != nil {
		return errors.Join(ErrCreateCacheSchema, err)
	}
	defer schema.Free()

	if err := schema.SetDomain(dom); err != nil {
		return errors.Join(ErrCreateCacheSchema, err)
	}

	if err := schemaAttrs(&peakRecord{}, schema, ctx); err != nil {
		return errors.Join(ErrCreateCacheSchema, err)
	}

	if err := tiledb.CreateArray(ctx, uri, schema); err != nil {
		return errors.Join(ErrCreateCacheArray, err)
	}

	arr, err := tiledb.NewArray(ctx, uri)
	if err != nil {
		return errors.Join(ErrCreateCacheArray, err)
	}
	defer arr.Free()

	if err := arr.Open(tiledb.TILEDB_WRITE); err != nil {
		return errors.Join(ErrCreateCacheArray, err)
	}
	defer arr.Close()

	query, err := tiledb.NewQuery(ctx, arr)
	if err != nil {
		return errors.Join(ErrWriteCache, err)
	}
	defer query.Free()

	var scanNums, pointIdxs []int32
	var mzs []float64
	var intensities []float32

	rh := d.Header.RunHeader
	it, err := d.Scans(rh.Sample.FirstScan, rh.Sample.LastScan)
	if err != nil {
		return fmt.Errorf("CachePeaks: %w", err)
	}

	for {
		scan, err := it.Next()
		if err != nil {
			return fmt.Errorf("CachePeaks: %w", err)
		}
		if scan == nil {
			break
		}

		peaks, err := scan.Peaks(PeakModeAuto)
		if err != nil {
			return fmt.Errorf("CachePeaks: scan %d: %w", scan.Num, err)
		}

		for i, p := range peaks {
			scanNums = append(scanNums, int32(scan.Num))
			pointIdxs = append(pointIdxs, int32(i))
			mzs = append(mzs, p.Mz)
			intensities = append(intensities, p.Intensity)
		}
	}

	if err := query.SetLayout(tiledb.TILEDB_UNORDERED); err != nil {
		return errors.Join(ErrWriteCache, err)
	}
	if _, err := query.SetDataBuffer("scan_num", scanNums); err != nil {
		return errors.Join(ErrWriteCache, err)
	}
	if _, err := query.SetDataBuffer("point_index", pointIdxs); err != nil {
		return errors.Join(ErrWriteCache, err)
	}
	if _, err := query.SetDataBuffer("Mz", mzs); err != nil {
		return errors.Join(ErrWriteCache, err)
	}
	if _, err := query.SetDataBuffer("Intensity", intensities); err != nil {
		return errors.Join(ErrWriteCache, err)
	}

	if err := query.Submit(); err != nil {
		return errors.Join(ErrWriteCache, err)
	}

	return nil
}
