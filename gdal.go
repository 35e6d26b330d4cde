package eodatasets

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/GeoscienceAustralia/eodatasets/log"
	"github.com/GeoscienceAustralia/eodatasets/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

type GdalToolbox struct {
	refMap map[int]gdal.SpatialReference
	rLock  sync.Mutex
	tmpDir string
	logTag string
	noHull bool
}

// GDAL geometries are C allocations; every one must be manually destroyed.
type destroyable interface {
	Destroy()
}

var (
	emptyGeometry = gdal.Geometry{}
)

// NewGdalToolbox builds the shared toolbox; tmpDir is an optional scratch
// directory for intermediates (defaults to the working directory).
func NewGdalToolbox(tmpDir ...string) *GdalToolbox {
	g := &GdalToolbox{
		refMap: map[int]gdal.SpatialReference{},
		logTag: "GdalToolbox:",
	}
	if len(tmpDir) > 0 && tmpDir[0] != "" {
		g.tmpDir = tmpDir[0]
	}
	return g
}

// DisableConvexHull turns off the ValidDataConvexHull method; requesting it
// afterwards is surfaced as a configuration error instead of a crash.
func (g *GdalToolbox) DisableConvexHull() {
	g.noHull = true
}

// getSridRef returns the cached spatial ref for an srid; cached refs are
// reused and never destroyed.
func (g *GdalToolbox) getSridRef(srid int) (ref gdal.SpatialReference, err error) {
	g.rLock.Lock()
	defer g.rLock.Unlock()
	ref, ok := g.refMap[srid]
	if ok {
		return
	}
	ref = gdal.CreateSpatialReference("")
	if err = ref.FromEPSG(srid); err != nil {
		log.Error(g.logTag+"set ref srid failed", zap.Int("srid", srid), zap.Error(err))
		ref.Destroy()
		return
	}
	// Keep data axes in traditional GIS (lon,lat) order regardless of the CRS
	// authority definition, so transforms and GeoJSON output stay consistent.
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	g.refMap[srid] = ref
	return
}

func (g *GdalToolbox) getSrid(sp gdal.SpatialReference) (srid int, err error) {
	rawId, ok := sp.AttrValue("AUTHORITY", 1)
	if !ok {
		err = ErrVoidSrid
		return
	}
	srid, err = strconv.Atoi(rawId)
	return
}

func (g *GdalToolbox) parseWKB(wkb GdalGeo, ref gdal.SpatialReference) (ret gdal.Geometry, err error) {
	ret, err = gdal.CreateFromWKB(wkb, ref, len(wkb))
	if err != nil {
		log.Error(g.logTag+"parse wkb failed", zap.Error(err))
	}
	return
}

func (g *GdalToolbox) parseWKT(wkt string, ref gdal.SpatialReference) (ret gdal.Geometry, err error) {
	ret, err = gdal.CreateFromWKT(wkt, ref)
	if err != nil {
		log.Error(g.logTag+"parse wkt failed", zap.Error(err))
		err = ErrInvalidWKT
	}
	return
}

// WktToWkb converts WKT text to WKB in the given srid.
func (g *GdalToolbox) WktToWkb(wkt string, srid int) (wkb GdalGeo, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	geo, err := g.parseWKT(wkt, ref)
	if err != nil {
		return
	}
	wkb, err = geo.ToWKB()
	geo.Destroy()
	return
}

// WkbToWkt converts WKB back to WKT text.
func (g *GdalToolbox) WkbToWkt(wkb GdalGeo, srid int) (wkt string, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	geo, err := g.parseWKB(wkb, ref)
	if err != nil {
		return
	}
	wkt, err = geo.ToWKT()
	geo.Destroy()
	return
}

// WkbToGeoJSON serializes WKB as a GeoJSON geometry.
func (g *GdalToolbox) WkbToGeoJSON(wkb GdalGeo, srid int) (ret AnyJson, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	geo, err := g.parseWKB(wkb, ref)
	if err != nil {
		return
	}
	ret = utils.S2B(geo.ToJSON())
	geo.Destroy()
	return
}

// GetWktSpan returns the [minX, maxX, minY, maxY] envelope of a WKT geometry.
func (g *GdalToolbox) GetWktSpan(wkt string, srid int) (span [4]float64, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	geo, err := g.parseWKT(wkt, ref)
	if err != nil {
		return
	}
	defer geo.Destroy()
	envelop := geo.Envelope()
	span[0] = envelop.MinX()
	span[1] = envelop.MaxX()
	span[2] = envelop.MinY()
	span[3] = envelop.MaxY()
	return
}

func PointsToWkt(x1, x2, y1, y2 float64) string {
	return fmt.Sprintf("POLYGON((%[1]f %[3]f, %[1]f %[4]f, %[2]f %[4]f, %[2]f %[3]f, %[1]f %[3]f))", x1, x2, y1, y2)
}

func SpanToWkt(span [4]float64) string {
	return PointsToWkt(span[0], span[1], span[2], span[3])
}

// normalizeCrs keeps only the authority code when one is resolvable, so
// semantically identical grids sourced from different CRS texts still group.
func (g *GdalToolbox) normalizeCrs(crs string) string {
	if crs == "" || strings.HasPrefix(crs, EPSG_PREFIX) {
		return crs
	}
	sp := gdal.CreateSpatialReference(crs)
	defer sp.Destroy()
	srid, err := g.getSrid(sp)
	if err != nil {
		// No authority; the raw text stays as the grouping key.
		return crs
	}
	return EPSG_PREFIX + strconv.Itoa(srid)
}
