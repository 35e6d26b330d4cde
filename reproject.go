package eodatasets

import (
	"math"
	"runtime"
	"strconv"
	"sync"

	"github.com/GeoscienceAustralia/eodatasets/log"

	godal "github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

func (g *GdalToolbox) spatialRefOf(crs string) (sr *godal.SpatialRef, err error) {
	if srid, ok := (Grid{Crs: crs}).Srid(); ok {
		return godal.NewSpatialRefFromEPSG(srid)
	}
	return godal.NewSpatialRefFromWKT(crs)
}

// reprojectGrid computes the destination grid of src reprojected into the
// target CRS, keeping roughly the full input resolution: the source bbox
// edges are densified, transformed, and a square pixel size is picked so the
// longest axis keeps its pixel count.
func (g *GdalToolbox) reprojectGrid(src Grid, dstSrid int) (dst Grid, err error) {
	srcRef, err := g.spatialRefOf(src.Crs)
	if err != nil {
		log.Error(g.logTag+"bad source crs", zap.String("crs", src.Crs), zap.Error(err))
		return
	}
	defer srcRef.Close()
	dstRef, err := godal.NewSpatialRefFromEPSG(dstSrid)
	if err != nil {
		return
	}
	defer dstRef.Close()
	trans, err := godal.NewTransform(srcRef, dstRef)
	if err != nil {
		log.Error(g.logTag+"crs transform failed", zap.Error(err))
		return
	}
	defer trans.Close()

	// Densified boundary of the source grid, in pixel space.
	n := ReprojectEdgeSamples
	xs := make([]float64, 0, 4*n)
	ys := make([]float64, 0, 4*n)
	addEdge := func(c0, r0, c1, r1 float64) {
		for i := 0; i < n; i++ {
			t := float64(i) / float64(n-1)
			x, y := src.Apply(c0+(c1-c0)*t, r0+(r1-r0)*t)
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	cols, rows := float64(src.Shape.Cols), float64(src.Shape.Rows)
	addEdge(0, 0, cols, 0)
	addEdge(cols, 0, cols, rows)
	addEdge(cols, rows, 0, rows)
	addEdge(0, rows, 0, 0)
	if err = trans.TransformEx(xs, ys, nil, nil); err != nil {
		log.Error(g.logTag+"boundary transform failed", zap.Error(err))
		return
	}
	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 1; i < len(xs); i++ {
		minX = math.Min(minX, xs[i])
		maxX = math.Max(maxX, xs[i])
		minY = math.Min(minY, ys[i])
		maxY = math.Max(maxY, ys[i])
	}
	res := math.Max((maxX-minX)/cols, (maxY-minY)/rows)
	dst = Grid{
		Shape: Shape{
			Rows: int(math.Ceil((maxY - minY) / res)),
			Cols: int(math.Ceil((maxX - minX) / res)),
		},
		Transform: Affine{minX, res, 0, maxY, 0, -res},
		Crs:       EPSG_PREFIX + strconv.Itoa(dstSrid),
	}
	return
}

// reprojectBand resamples one stretched band into the destination grid.
// Rows are split across a small fixed worker pool; each worker owns its own
// coordinate transform since GDAL transforms aren't shareable.
func (g *GdalToolbox) reprojectBand(src []uint8, srcGrid, dstGrid Grid) (dst []uint8, err error) {
	dst = make([]uint8, dstGrid.pixels())
	workers := ReprojectWorkers
	if nc := runtime.NumCPU(); nc < workers {
		workers = nc
	}
	if workers < 1 {
		workers = 1
	}
	rowsPer := (dstGrid.Shape.Rows + workers - 1) / workers
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for w := 0; w < workers; w++ {
		r0 := w * rowsPer
		r1 := r0 + rowsPer
		if r1 > dstGrid.Shape.Rows {
			r1 = dstGrid.Shape.Rows
		}
		if r0 >= r1 {
			break
		}
		wg.Add(1)
		go func(r0, r1 int) {
			defer wg.Done()
			if e := g.reprojectRows(src, srcGrid, dstGrid, dst, r0, r1); e != nil {
				errOnce.Do(func() { firstErr = e })
			}
		}(r0, r1)
	}
	wg.Wait()
	err = firstErr
	return
}

func (g *GdalToolbox) reprojectRows(src []uint8, srcGrid, dstGrid Grid, dst []uint8, r0, r1 int) (err error) {
	dstRef, err := g.spatialRefOf(dstGrid.Crs)
	if err != nil {
		return
	}
	defer dstRef.Close()
	srcRef, err := g.spatialRefOf(srcGrid.Crs)
	if err != nil {
		return
	}
	defer srcRef.Close()
	// Inverse direction: destination pixel centres back into source CRS.
	trans, err := godal.NewTransform(dstRef, srcRef)
	if err != nil {
		return
	}
	defer trans.Close()

	cols := dstGrid.Shape.Cols
	xs := make([]float64, cols)
	ys := make([]float64, cols)
	for row := r0; row < r1; row++ {
		for c := 0; c < cols; c++ {
			xs[c], ys[c] = dstGrid.Apply(float64(c)+0.5, float64(row)+0.5)
		}
		if err = trans.TransformEx(xs, ys, nil, nil); err != nil {
			return
		}
		base := row * cols
		for c := 0; c < cols; c++ {
			col, srow := srcGrid.invert(xs[c], ys[c])
			sc, sr := int(math.Floor(col)), int(math.Floor(srow))
			if sr < 0 || sr >= srcGrid.Shape.Rows || sc < 0 || sc >= srcGrid.Shape.Cols {
				continue
			}
			dst[base+c] = src[sr*srcGrid.Shape.Cols+sc]
		}
	}
	return
}
