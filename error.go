package eodatasets

import "errors"

var (
	ErrVoidSrid       = errors.New("no authority code for spatial ref")
	ErrInvalidWKT     = errors.New("invalid WKT")
	ErrInvalidTif     = errors.New("invalid tif")
	ErrTifReadFailed  = errors.New("tif read failed")
	ErrTifWriteFailed = errors.New("tif write failed")

	ErrDuplicateMeasurement  = errors.New("duplicate measurement name")
	ErrInconsistentCrs       = errors.New("measurements have different CRSes in the same dataset")
	ErrTooManyGrids          = errors.New("too many grids that cannot be named")
	ErrRegistryConsumed      = errors.New("valid data already consumed")
	ErrEmptyRegistry         = errors.New("no measurements recorded")
	ErrWrongImageSize        = errors.New("image does not match grid shape")
	ErrUnsupportedImageType  = errors.New("unsupported pixel type")
	ErrConvexHullDisabled    = errors.New("convex hull method disabled in this toolbox")
	ErrUnknownMethod         = errors.New("unexpected valid data method")
	ErrInvalidFilterArgs     = errors.New("exactly one of bit or lookup table must be set")
	ErrMissingGeobox         = errors.New("in-memory raster needs an explicit grid")
	ErrUnsupportedBandLayout = errors.New("measurement file must have exactly one band")
	ErrEmptyStretchRange     = errors.New("stretch range is empty")
)
