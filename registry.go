package eodatasets

import (
	"fmt"

	"github.com/GeoscienceAustralia/eodatasets/log"

	godal "github.com/airbusgeo/godal"
	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

type measurement struct {
	name    string
	path    string
	layer   string
	gridIdx int
}

type gridEntry struct {
	grid    Grid
	members []int // arena indices, insertion order
	mask    *Mask
}

// MeasurementRegistry accumulates named raster measurements grouped by grid
// for one packaging run. Measurements live in a flat arena with a global
// name index, so duplicate detection is O(1) regardless of grid count.
type MeasurementRegistry struct {
	g        *GdalToolbox
	arena    []measurement
	nameIdx  map[string]int
	grids    []*gridEntry
	gridIdx  map[string]int
	consumed bool
}

// RecordOpts are the optional parts of a Record call.
type RecordOpts struct {
	Layer  string
	Nodata *float64
	// Image is the band's pixel data in row-major order; one of the slice
	// types []float64, []float32, []uint8, []int16, []uint16, []int32,
	// []uint32, []int64 or []int. Leave nil to skip mask aggregation.
	Image any
	// SkipValidData suppresses coverage mask aggregation even when Image
	// is supplied.
	SkipValidData bool
}

func NewMeasurementRegistry(g *GdalToolbox) *MeasurementRegistry {
	return &MeasurementRegistry{
		g:       g,
		nameIdx: map[string]int{},
		gridIdx: map[string]int{},
	}
}

func (r *MeasurementRegistry) recordEntry(name string, grid Grid, path, layer string) (entry *gridEntry, err error) {
	if prev, ok := r.nameIdx[name]; ok {
		err = fmt.Errorf("%w: %q recorded at %s and again at %s",
			ErrDuplicateMeasurement, name, r.arena[prev].path, path)
		return
	}
	grid = r.g.normalizeGrid(grid)
	key := grid.key()
	gi, ok := r.gridIdx[key]
	if !ok {
		gi = len(r.grids)
		r.grids = append(r.grids, &gridEntry{grid: grid})
		r.gridIdx[key] = gi
	}
	entry = r.grids[gi]
	r.nameIdx[name] = len(r.arena)
	entry.members = append(entry.members, len(r.arena))
	r.arena = append(r.arena, measurement{name: name, path: path, layer: layer, gridIdx: gi})
	return
}

// Record registers one measurement under its grid. The name must be unique
// across the whole registry, not just its grid.
func (r *MeasurementRegistry) Record(name string, grid Grid, path string, opts *RecordOpts) (err error) {
	var o RecordOpts
	if opts != nil {
		o = *opts
	}
	entry, err := r.recordEntry(name, grid, path, o.Layer)
	if err != nil {
		return
	}
	if o.Image == nil || o.SkipValidData {
		return
	}
	if entry.mask == nil {
		entry.mask = NewMask(entry.grid.Shape)
	}
	if imageLen(o.Image) != entry.grid.pixels() {
		err = ErrWrongImageSize
		return
	}
	err = entry.mask.orImage(o.Image, o.Nodata, 0)
	return
}

// RecordFile registers a file-backed measurement, deriving the grid from the
// file and folding its validity into the coverage mask one row-tile at a
// time, so peak memory stays at a single tile.
func (r *MeasurementRegistry) RecordFile(name, path string, opts *RecordOpts) (err error) {
	var o RecordOpts
	if opts != nil {
		o = *opts
	}
	ds, err := openRaster(path)
	if err != nil {
		log.Error(r.g.logTag+"open measurement failed", zap.String("path", path), zap.Error(err))
		err = ErrInvalidTif
		return
	}
	defer ds.Close()
	grid, err := r.g.gridFromDataset(ds)
	if err != nil {
		return
	}
	bands := ds.Bands()
	if len(bands) != 1 {
		log.Error(r.g.logTag+"wrong band layout", zap.String("path", path), zap.Int("bands", len(bands)))
		err = ErrUnsupportedBandLayout
		return
	}
	entry, err := r.recordEntry(name, grid, path, o.Layer)
	if err != nil {
		return
	}
	if o.SkipValidData {
		return
	}
	band := bands[0]
	nodata := o.Nodata
	if nodata == nil {
		if nd, ok := band.NoData(); ok {
			nodata = &nd
		}
	}
	if entry.mask == nil {
		entry.mask = NewMask(grid.Shape)
	}
	log.Info(r.g.logTag+"stream measurement mask",
		zap.String("name", name), zap.Int("rows", grid.Shape.Rows), zap.Int("cols", grid.Shape.Cols))
	for _, t := range generateTiles(grid.Shape.Cols, grid.Shape.Rows, 0, 0) {
		y0, y1 := t[0], t[1]
		buf := make([]float64, (y1-y0)*grid.Shape.Cols)
		if err = band.IO(godal.IORead, 0, y0, buf, grid.Shape.Cols, y1-y0); err != nil {
			log.Error(r.g.logTag+"read measurement tile failed", zap.Int("row", y0), zap.Error(err))
			err = ErrTifReadFailed
			return
		}
		if err = entry.mask.orImage(buf, nodata, y0); err != nil {
			return
		}
	}
	return
}

// Names lists every recorded measurement name, in record order.
func (r *MeasurementRegistry) Names() (names []string) {
	names = make([]string, 0, len(r.arena))
	for i := range r.arena {
		names = append(names, r.arena[i].name)
	}
	return
}

// Paths lists every measurement's source path with its grid, in record order.
func (r *MeasurementRegistry) Paths() (paths []MeasurementPath) {
	paths = make([]MeasurementPath, 0, len(r.arena))
	for i := range r.arena {
		m := &r.arena[i]
		paths = append(paths, MeasurementPath{Name: m.name, Path: m.path, Grid: r.grids[m.gridIdx].grid})
	}
	return
}

// MaskFor exposes the current coverage mask of a grid, while it still exists.
func (r *MeasurementRegistry) MaskFor(grid Grid) *Mask {
	grid = r.g.normalizeGrid(grid)
	if gi, ok := r.gridIdx[grid.key()]; ok {
		return r.grids[gi].mask
	}
	return nil
}

// AsGeoDocs names the grids and assembles the doc mappings for the metadata
// serializer. All grids must agree on a single CRS.
func (r *MeasurementRegistry) AsGeoDocs() (crs string, grids map[string]GridDoc, measurements map[string]MeasurementDoc, err error) {
	if len(r.arena) == 0 {
		err = ErrEmptyRegistry
		return
	}
	named, err := r.assignNames()
	if err != nil {
		return
	}
	grids = make(map[string]GridDoc, len(named))
	measurements = make(map[string]MeasurementDoc, len(r.arena))
	for _, ng := range named {
		if ng.entry.grid.Crs != "" {
			if crs == "" {
				crs = ng.entry.grid.Crs
			} else if ng.entry.grid.Crs != crs {
				err = fmt.Errorf("%w: %q vs %q", ErrInconsistentCrs, crs, ng.entry.grid.Crs)
				return
			}
		}
		grids[ng.name] = GridDoc{Shape: ng.entry.grid.Shape, Transform: ng.entry.grid.Transform}
		for _, mi := range ng.entry.members {
			m := &r.arena[mi]
			doc := MeasurementDoc{Path: m.path, Layer: m.layer}
			if ng.name != DEFAULT_GRID_NAME {
				doc.Grid = ng.name
			}
			// Layer-qualified names use ':', doc keys use '_'.
			measurements[docName(m.name)] = doc
		}
	}
	return
}

// ConsumeValidData destructively folds every grid's coverage mask into one
// CRS-space polygon (WKB). Masks are evicted as they are processed, so peak
// memory tracks the largest single grid. Single-shot: a second call fails.
func (r *MeasurementRegistry) ConsumeValidData(method ValidDataMethod) (ret GdalGeo, err error) {
	if r.consumed {
		err = ErrRegistryConsumed
		return
	}
	r.consumed = true
	var (
		geo   gdal.Geometry
		union = gdal.Create(gdal.GT_Polygon)
		gc    = []destroyable{union}
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for _, entry := range r.grids {
		if entry.mask == nil {
			continue
		}
		mask := entry.mask
		entry.mask = nil
		if geo, err = r.g.maskPolygon(entry.grid, mask, method); err != nil {
			return
		}
		gc = append(gc, geo)
		union = union.Union(geo)
		gc = append(gc, union)
	}
	ret, err = union.ToWKB()
	log.Info(r.g.logTag+"consumed valid data", zap.Int("grids", len(r.grids)), zap.Bool("succeed", err == nil))
	return
}

func docName(name string) string {
	out := []byte(name)
	for i := range out {
		if out[i] == ':' {
			out[i] = '_'
		}
	}
	return string(out)
}
