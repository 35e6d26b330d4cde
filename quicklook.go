package eodatasets

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/GeoscienceAustralia/eodatasets/log"
	"github.com/GeoscienceAustralia/eodatasets/utils"

	godal "github.com/airbusgeo/godal"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// ThumbnailOptions tune the stretch and output encoding; the zero value
// (or nil) means a dynamic 2%..98% stretch, 1/10 scale, quality 85.
type ThumbnailOptions struct {
	OutScale          int
	Resampling        Resampling
	StaticStretch     *StretchRange
	PercentileStretch StretchRange
	Quality           int
	// InputGrid overrides the grid read from the first band; required for
	// in-memory inputs.
	InputGrid *Grid
	// Nodata applies to in-memory bands (files carry their own).
	Nodata *float64
}

func (o *ThumbnailOptions) withDefaults() (out ThumbnailOptions) {
	if o != nil {
		out = *o
	}
	if out.OutScale <= 0 {
		out.OutScale = DEFAULT_OUT_SCALE
	}
	if out.Quality <= 0 {
		out.Quality = DEFAULT_JPEG_QUALITY
	}
	if out.PercentileStretch == (StretchRange{}) {
		out.PercentileStretch = StretchRange{StretchLowPercentile, StretchHighPercentile}
	}
	return
}

// fileBands lazily reads single-band rasters, closing each dataset before
// moving to the next.
type fileBands struct {
	paths []string
	idx   int
}

func (it *fileBands) next() (data []float64, nodata float64, ok bool, err error) {
	nodata = math.NaN()
	if it.idx >= len(it.paths) {
		return
	}
	path := it.paths[it.idx]
	it.idx++
	ds, err := openRaster(path)
	if err != nil {
		log.Error("open thumbnail band failed", zap.String("path", path), zap.Error(err))
		err = ErrInvalidTif
		return
	}
	defer ds.Close()
	bands := ds.Bands()
	if len(bands) != 1 {
		log.Error("thumbnail band file must be single band", zap.String("path", path), zap.Int("bands", len(bands)))
		err = ErrUnsupportedBandLayout
		return
	}
	st := bands[0].Structure()
	data = make([]float64, st.SizeX*st.SizeY)
	if err = bands[0].IO(godal.IORead, 0, 0, data, st.SizeX, st.SizeY); err != nil {
		log.Error("read thumbnail band failed", zap.String("path", path), zap.Error(err))
		data = nil
		err = ErrTifReadFailed
		return
	}
	if nd, has := bands[0].NoData(); has {
		nodata = nd
	}
	ok = true
	return
}

func (it *fileBands) close() { it.idx = len(it.paths) }

type arrayBands struct {
	arrs   [][]float64
	nodata float64
	idx    int
}

func (it *arrayBands) next() (data []float64, nodata float64, ok bool, err error) {
	nodata = it.nodata
	if it.idx >= len(it.arrs) {
		return
	}
	data = it.arrs[it.idx]
	it.idx++
	ok = true
	return
}

func (it *arrayBands) close() { it.idx = len(it.arrs) }

// renderThumbnail runs the shared stretch + reproject + downsample + JPEG
// pipeline. File and in-memory callers both end here, so their pixel
// content is identical for identical inputs.
func (g *GdalToolbox) renderThumbnail(mkIter func() bandIter, srcGrid Grid, opt ThumbnailOptions) (jpg []byte, dstGrid Grid, err error) {
	dstGrid, err = g.reprojectGrid(srcGrid, THUMBNAIL_SRID)
	if err != nil {
		return
	}
	it := mkIter()
	valid, rng, err := computeStretch(it, srcGrid.pixels(), opt.PercentileStretch)
	it.close()
	if err != nil {
		return
	}
	if opt.StaticStretch != nil {
		rng = *opt.StaticStretch
	}
	log.Info(g.logTag+"render thumbnail",
		zap.Float64s("stretch", rng[:]),
		zap.Int("dstRows", dstGrid.Shape.Rows), zap.Int("dstCols", dstGrid.Shape.Cols))

	var planes [3][]uint8
	it = mkIter()
	defer it.close()
	for band := 0; band < 3; band++ {
		data, _, ok, e := it.next()
		if e != nil {
			err = e
			return
		}
		if !ok {
			err = fmt.Errorf("%w: got %d of 3 bands", ErrUnsupportedBandLayout, band)
			return
		}
		if len(data) != srcGrid.pixels() {
			err = ErrWrongImageSize
			return
		}
		scaled, e := rescaleIntensity(data, rng, StretchRange{QuicklookLow, QuicklookHigh}, valid, ThumbnailNodata)
		if e != nil {
			err = e
			return
		}
		if planes[band], err = g.reprojectBand(scaled, srcGrid, dstGrid); err != nil {
			return
		}
	}
	jpg, err = encodeJpeg(planes, dstGrid, opt)
	return
}

func encodeJpeg(planes [3][]uint8, dstGrid Grid, opt ThumbnailOptions) (jpg []byte, err error) {
	w, h := dstGrid.Shape.Cols, dstGrid.Shape.Rows
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		img.Pix[i*4+0] = planes[0][i]
		img.Pix[i*4+1] = planes[1][i]
		img.Pix[i*4+2] = planes[2][i]
		img.Pix[i*4+3] = 255
	}
	outW, outH := w/opt.OutScale, h/opt.OutScale
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	filter := imaging.Box
	if opt.Resampling == ResampleNearest {
		filter = imaging.NearestNeighbor
	}
	small := imaging.Resize(img, outW, outH, filter)
	var buf bytes.Buffer
	if err = imaging.Encode(&buf, small, imaging.JPEG, imaging.JPEGQuality(opt.Quality)); err != nil {
		return
	}
	jpg = buf.Bytes()
	return
}

// CreateThumbnail writes a stretched RGB JPEG built from the given
// single-band files (red, green, blue).
func (g *GdalToolbox) CreateThumbnail(rgb [3]string, out string, opts *ThumbnailOptions) (err error) {
	opt := opts.withDefaults()
	jpg, err := g.thumbnailFromFiles(rgb, opt)
	if err != nil {
		return
	}
	if err = os.WriteFile(out, jpg, os.ModePerm); err != nil {
		log.Error(g.logTag+"write thumbnail failed", zap.String("out", out), zap.Error(err))
		return
	}
	log.Info(g.logTag+"thumbnail written", zap.String("out", out), zap.Int("bytes", len(jpg)))
	return
}

// ThumbnailBytesFromFiles is CreateThumbnail without the filesystem output:
// the compressed image comes back as bytes.
func (g *GdalToolbox) ThumbnailBytesFromFiles(rgb [3]string, opts *ThumbnailOptions) (jpg []byte, err error) {
	return g.thumbnailFromFiles(rgb, opts.withDefaults())
}

func (g *GdalToolbox) thumbnailFromFiles(rgb [3]string, opt ThumbnailOptions) (jpg []byte, err error) {
	var srcGrid Grid
	if opt.InputGrid != nil {
		srcGrid = g.normalizeGrid(*opt.InputGrid)
	} else if srcGrid, err = g.GridFromRaster(rgb[0]); err != nil {
		return
	}
	jpg, _, err = g.renderThumbnail(func() bandIter {
		return &fileBands{paths: rgb[:]}
	}, srcGrid, opt)
	return
}

// ThumbnailBytes renders fully in memory from three row-major bands; an
// input grid is mandatory since raw arrays carry no georeferencing.
func (g *GdalToolbox) ThumbnailBytes(rgb [3][]float64, opts *ThumbnailOptions) (jpg []byte, err error) {
	opt := opts.withDefaults()
	if opt.InputGrid == nil {
		err = ErrMissingGeobox
		return
	}
	srcGrid := g.normalizeGrid(*opt.InputGrid)
	nodata := math.NaN()
	if opt.Nodata != nil {
		nodata = *opt.Nodata
	}
	jpg, _, err = g.renderThumbnail(func() bandIter {
		return &arrayBands{arrs: rgb[:], nodata: nodata}
	}, srcGrid, opt)
	return
}

// CreateThumbnailSingleband renders a JPEG from one classified band, keeping
// either a single bit value or an explicit value->RGB lookup. Intermediate
// single-band rasters are staged in a scoped temp dir removed on all paths.
func (g *GdalToolbox) CreateThumbnailSingleband(in, out string, bit *int, lut map[int][3]uint8, opts *ThumbnailOptions) (err error) {
	if (bit == nil) == (lut == nil) {
		return ErrInvalidFilterArgs
	}
	opt := opts.withDefaults()
	ds, err := openRaster(in)
	if err != nil {
		log.Error(g.logTag+"open singleband failed", zap.String("path", in), zap.Error(err))
		return ErrInvalidTif
	}
	grid, err := g.gridFromDataset(ds)
	if err != nil {
		ds.Close()
		return
	}
	bands := ds.Bands()
	if len(bands) != 1 {
		ds.Close()
		return ErrUnsupportedBandLayout
	}
	data := make([]float64, grid.pixels())
	err = bands[0].IO(godal.IORead, 0, 0, data, grid.Shape.Cols, grid.Shape.Rows)
	ds.Close()
	if err != nil {
		log.Error(g.logTag+"read singleband failed", zap.String("path", in), zap.Error(err))
		return ErrTifReadFailed
	}
	rgb, stretch, err := filterSingleband(data, bit, lut)
	if err != nil {
		return
	}
	tmpDir, err := utils.GetUniqSubDir(g.tmpDir)
	if err != nil {
		return
	}
	defer os.RemoveAll(tmpDir)
	var paths [3]string
	if bit != nil {
		// One staged file, used three times.
		paths[0] = filepath.Join(tmpDir, fmt.Sprintf(TMP_SINGLEBAND_TIF, 0))
		paths[1], paths[2] = paths[0], paths[0]
		if err = g.writeBandTif(paths[0], rgb[0], grid); err != nil {
			return
		}
	} else {
		for i := range rgb {
			paths[i] = filepath.Join(tmpDir, fmt.Sprintf(TMP_SINGLEBAND_TIF, i))
			if err = g.writeBandTif(paths[i], rgb[i], grid); err != nil {
				return
			}
		}
	}
	opt.StaticStretch = &stretch
	opt.InputGrid = &grid
	return g.CreateThumbnail(paths, out, &opt)
}

// ThumbnailBytesSingleband is the in-memory variant of
// CreateThumbnailSingleband; requires an input grid.
func (g *GdalToolbox) ThumbnailBytesSingleband(data []float64, bit *int, lut map[int][3]uint8, opts *ThumbnailOptions) (jpg []byte, err error) {
	if (bit == nil) == (lut == nil) {
		err = ErrInvalidFilterArgs
		return
	}
	opt := opts.withDefaults()
	if opt.InputGrid == nil {
		err = ErrMissingGeobox
		return
	}
	rgb, stretch, err := filterSingleband(data, bit, lut)
	if err != nil {
		return
	}
	opt.StaticStretch = &stretch
	return g.ThumbnailBytes(rgb, &opt)
}

// writeBandTif stages one band as a georeferenced GTiff.
func (g *GdalToolbox) writeBandTif(path string, data []float64, grid Grid) (err error) {
	registerDrivers.Do(godal.RegisterAll)
	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float64, grid.Shape.Cols, grid.Shape.Rows)
	if err != nil {
		log.Error(g.logTag+"create tif failed", zap.String("path", path), zap.Error(err))
		return ErrTifWriteFailed
	}
	defer ds.Close()
	if err = ds.SetGeoTransform(grid.Transform); err != nil {
		return
	}
	if grid.Crs != "" {
		sr, e := g.spatialRefOf(grid.Crs)
		if e == nil {
			err = ds.SetSpatialRef(sr)
			sr.Close()
			if err != nil {
				return
			}
		}
	}
	if err = ds.Bands()[0].IO(godal.IOWrite, 0, 0, data, grid.Shape.Cols, grid.Shape.Rows); err != nil {
		log.Error(g.logTag+"write tif band failed", zap.String("path", path), zap.Error(err))
		err = ErrTifWriteFailed
	}
	return
}
