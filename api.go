package eodatasets

import "encoding/json"

type AnyJson = json.RawMessage

type GdalGeo = []byte

// Affine is a GDAL-order geotransform: [xoff, xres, xrot, yoff, yrot, yres].
type Affine = [6]float64

type Shape struct {
	Rows int
	Cols int
}

// Grid is the spatial footprint of a raster: pixel shape, affine transform
// and coordinate reference. Two measurements share a grid iff all three match.
type Grid struct {
	Shape     Shape
	Transform Affine
	Crs       string // "EPSG:<code>" or WKT
}

// GridDoc describes one named grid for the metadata serializer.
type GridDoc struct {
	Shape     Shape  `json:"shape"`
	Transform Affine `json:"transform"`
}

// MeasurementDoc describes one measurement for the metadata serializer.
// Grid is empty for measurements on the default grid.
type MeasurementDoc struct {
	Path  string `json:"path"`
	Layer string `json:"layer,omitempty"`
	Grid  string `json:"grid,omitempty"`
}

// MeasurementPath ties a recorded measurement back to its source on disk.
type MeasurementPath struct {
	Name string
	Path string
	Grid Grid
}

type ValidDataMethod int

const (
	// Vectorize the full valid pixel mask as-is.
	ValidDataThorough ValidDataMethod = iota
	// Fill interior holes in the mask before vectorizing.
	ValidDataFilled
	// Collapse the mask to its convex hull before vectorizing.
	ValidDataConvexHull
	// Use the image bounds, ignoring pixel values.
	ValidDataBounds
)

type Resampling int

const (
	// Averaging is the default for downsampled quicklooks.
	ResampleAverage Resampling = iota
	ResampleNearest
)
