package eodatasets

import (
	"github.com/GeoscienceAustralia/eodatasets/log"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// maskPolygon converts one grid's coverage mask into a CRS-space polygon.
// All non-bounds methods share the same vectorize pipeline: union of valid
// pixel runs, convex hull, 1px outward buffer, 1px simplify, clip to the
// image box, then affine into CRS coordinates.
func (g *GdalToolbox) maskPolygon(grid Grid, mask *Mask, method ValidDataMethod) (out gdal.Geometry, err error) {
	switch method {
	case ValidDataBounds:
		return g.pixelBoxPolygon(grid)
	case ValidDataFilled:
		mask.fillHoles()
	case ValidDataConvexHull:
		// The hull itself is taken in the shared pipeline; this method is a
		// gated alias kept for callers that relied on it being optional.
		if g.noHull {
			err = ErrConvexHullDisabled
			return
		}
	case ValidDataThorough:
	default:
		err = ErrUnknownMethod
		return
	}
	log.Info(g.logTag+"vectorize mask", zap.Int("valid", mask.Count()),
		zap.Int("rows", mask.Rows), zap.Int("cols", mask.Cols))

	multi := gdal.Create(gdal.GT_MultiPolygon)
	gc := []destroyable{multi}
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for row := 0; row < mask.Rows; row++ {
		for _, run := range mask.rowRuns(row) {
			rect, e := pixelRect(float64(run[0]), float64(row), float64(run[1]), float64(row+1))
			if e != nil {
				err = e
				return
			}
			if err = multi.AddGeometryDirectly(rect); err != nil {
				rect.Destroy()
				return
			}
		}
	}
	if multi.GeometryCount() == 0 {
		out = gdal.Create(gdal.GT_Polygon)
		return
	}
	shape := multi.UnionCascaded()
	gc = append(gc, shape)
	if !shape.IsValid() {
		// Zero-width buffer repairs self-intersections from vectorization.
		shape = shape.Buffer(0, 1)
		gc = append(gc, shape)
	}
	geo := shape.ConvexHull()
	gc = append(gc, geo)
	geo = geo.Buffer(MaskBufferPixels, MaskBufferSegs)
	gc = append(gc, geo)
	geo = geo.SimplifyPreservingTopology(MaskSimplifyT)
	gc = append(gc, geo)
	box, err := pixelRect(0, 0, float64(mask.Cols), float64(mask.Rows))
	if err != nil {
		return
	}
	gc = append(gc, box)
	geo = geo.Intersection(box)
	gc = append(gc, geo)
	out, err = g.pixelsToCrs(geo, grid)
	return
}

// pixelBoxPolygon returns the grid's full bounding rectangle in CRS space.
func (g *GdalToolbox) pixelBoxPolygon(grid Grid) (out gdal.Geometry, err error) {
	box, err := pixelRect(0, 0, float64(grid.Shape.Cols), float64(grid.Shape.Rows))
	if err != nil {
		return
	}
	defer box.Destroy()
	out, err = g.pixelsToCrs(box, grid)
	return
}

// pixelRect builds an axis-aligned pixel-space rectangle polygon.
func pixelRect(x1, y1, x2, y2 float64) (ret gdal.Geometry, err error) {
	ring := gdal.Create(gdal.GT_LinearRing)
	ring.AddPoint2D(x1, y1)
	ring.AddPoint2D(x2, y1)
	ring.AddPoint2D(x2, y2)
	ring.AddPoint2D(x1, y2)
	ring.AddPoint2D(x1, y1)
	ret = gdal.Create(gdal.GT_Polygon)
	if err = ret.AddGeometryDirectly(ring); err != nil {
		ring.Destroy()
		ret.Destroy()
	}
	return
}

// pixelsToCrs rebuilds a pixel-space polygon with every vertex mapped
// through the grid transform into CRS coordinates.
func (g *GdalToolbox) pixelsToCrs(geo gdal.Geometry, grid Grid) (out gdal.Geometry, err error) {
	switch geo.Type() {
	case gdal.GT_Polygon:
		return transformPolygon(geo, grid)
	case gdal.GT_MultiPolygon:
		out = gdal.Create(gdal.GT_MultiPolygon)
		var sub gdal.Geometry
		for i, n := 0, geo.GeometryCount(); i < n; i++ {
			if sub, err = transformPolygon(geo.Geometry(i), grid); err != nil {
				out.Destroy()
				out = emptyGeometry
				return
			}
			if err = out.AddGeometryDirectly(sub); err != nil {
				sub.Destroy()
				out.Destroy()
				out = emptyGeometry
				return
			}
		}
		return
	case gdal.GT_Point, gdal.GT_LineString:
		// Degenerate masks (a pixel-wide sliver clipped away) collapse below
		// polygon rank; callers treat this as empty coverage.
		out = gdal.Create(gdal.GT_Polygon)
		return
	default:
		log.Error(g.logTag+"unexpected geometry in pixel transform", zap.Uint("type", uint(geo.Type())))
		out = gdal.Create(gdal.GT_Polygon)
		return
	}
}

func transformPolygon(geo gdal.Geometry, grid Grid) (out gdal.Geometry, err error) {
	out = gdal.Create(gdal.GT_Polygon)
	var (
		x, y float64
		ring gdal.Geometry
	)
	for i, n := 0, geo.GeometryCount(); i < n; i++ {
		src := geo.Geometry(i)
		ring = gdal.Create(gdal.GT_LinearRing)
		for p, np := 0, src.PointCount(); p < np; p++ {
			x, y, _ = src.Point(p)
			cx, cy := grid.Apply(x, y)
			ring.AddPoint2D(cx, cy)
		}
		if err = out.AddGeometryDirectly(ring); err != nil {
			ring.Destroy()
			out.Destroy()
			out = emptyGeometry
			return
		}
	}
	return
}
