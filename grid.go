package eodatasets

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/GeoscienceAustralia/eodatasets/log"

	godal "github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

var registerDrivers sync.Once

func openRaster(path string) (ds *godal.Dataset, err error) {
	registerDrivers.Do(godal.RegisterAll)
	ds, err = godal.Open(path, godal.RasterOnly())
	return
}

// NewGrid builds a grid descriptor; crs may be an "EPSG:<code>" string or WKT.
func NewGrid(rows, cols int, transform Affine, crs string) Grid {
	return Grid{
		Shape:     Shape{Rows: rows, Cols: cols},
		Transform: transform,
		Crs:       crs,
	}
}

// Srid returns the EPSG code of the grid CRS, when it is expressed as one.
func (gd Grid) Srid() (srid int, ok bool) {
	if !strings.HasPrefix(gd.Crs, EPSG_PREFIX) {
		return
	}
	srid, err := strconv.Atoi(gd.Crs[len(EPSG_PREFIX):])
	ok = err == nil
	return
}

// Apply maps pixel coordinates (col,row) into CRS coordinates.
func (gd Grid) Apply(col, row float64) (x, y float64) {
	gt := gd.Transform
	x = gt[0] + col*gt[1] + row*gt[2]
	y = gt[3] + col*gt[4] + row*gt[5]
	return
}

// invert maps CRS coordinates back into fractional pixel coordinates.
func (gd Grid) invert(x, y float64) (col, row float64) {
	gt := gd.Transform
	det := gt[1]*gt[5] - gt[2]*gt[4]
	if det == 0 {
		return
	}
	dx, dy := x-gt[0], y-gt[3]
	col = (dx*gt[5] - dy*gt[2]) / det
	row = (dy*gt[1] - dx*gt[4]) / det
	return
}

// Resolution returns the absolute pixel size along x and y.
func (gd Grid) Resolution() (resX, resY float64) {
	resX = math.Abs(gd.Transform[1])
	resY = math.Abs(gd.Transform[5])
	return
}

// Bounds returns the CRS-space span [minX, maxX, minY, maxY] of the grid.
func (gd Grid) Bounds() (span [4]float64) {
	corners := [4][2]float64{
		{0, 0},
		{float64(gd.Shape.Cols), 0},
		{0, float64(gd.Shape.Rows)},
		{float64(gd.Shape.Cols), float64(gd.Shape.Rows)},
	}
	for i, c := range corners {
		x, y := gd.Apply(c[0], c[1])
		if i == 0 || x < span[0] {
			span[0] = x
		}
		if i == 0 || x > span[1] {
			span[1] = x
		}
		if i == 0 || y < span[2] {
			span[2] = y
		}
		if i == 0 || y > span[3] {
			span[3] = y
		}
	}
	return
}

func (gd Grid) pixels() int {
	return gd.Shape.Rows * gd.Shape.Cols
}

// key is the grouping identity of the grid within a registry.
func (gd Grid) key() string {
	return fmt.Sprintf("%dx%d|%g,%g,%g,%g,%g,%g|%s",
		gd.Shape.Rows, gd.Shape.Cols,
		gd.Transform[0], gd.Transform[1], gd.Transform[2],
		gd.Transform[3], gd.Transform[4], gd.Transform[5],
		gd.Crs)
}

// normalizeGrid canonicalizes the CRS so equal grids compare equal.
func (g *GdalToolbox) normalizeGrid(grid Grid) Grid {
	grid.Crs = g.normalizeCrs(grid.Crs)
	return grid
}

// GridFromRaster reads the grid spec of any GDAL-readable raster file.
func (g *GdalToolbox) GridFromRaster(path string) (grid Grid, err error) {
	ds, err := openRaster(path)
	if err != nil {
		log.Error(g.logTag+"open raster failed", zap.String("path", path), zap.Error(err))
		err = ErrInvalidTif
		return
	}
	defer ds.Close()
	return g.gridFromDataset(ds)
}

func (g *GdalToolbox) gridFromDataset(ds *godal.Dataset) (grid Grid, err error) {
	gt, err := ds.GeoTransform()
	if err != nil {
		log.Error(g.logTag+"raster has no geotransform", zap.Error(err))
		err = ErrInvalidTif
		return
	}
	st := ds.Structure()
	grid = Grid{
		Shape:     Shape{Rows: st.SizeY, Cols: st.SizeX},
		Transform: gt,
	}
	if sr := ds.SpatialRef(); sr != nil {
		wkt, e := sr.WKT()
		if e == nil {
			grid.Crs = g.normalizeCrs(wkt)
		}
	}
	return
}
