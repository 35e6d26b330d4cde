package eodatasets

const (
	UNIVERSAL_SRID = 4326
	GEOJSON_SRID   = 4326
	// Thumbnails are normalized to plain lat/lon.
	THUMBNAIL_SRID = 4326

	EPSG_PREFIX = "EPSG:"

	DEFAULT_GRID_NAME = "default"

	GridNameLetters = "abcdefghijklmnopqrstuvwxyz"

	// Valid-data polygon post-processing, all in pixel units.
	MaskBufferPixels = 1.0
	MaskBufferSegs   = 1
	MaskSimplifyT    = 1.0

	// Default percentile stretch for thumbnails.
	StretchLowPercentile  = 2
	StretchHighPercentile = 98

	// Stretched quicklook pixel range; 0 is reserved for nodata.
	QuicklookLow  = 1
	QuicklookHigh = 255

	ThumbnailNodata      = 0
	DEFAULT_OUT_SCALE    = 10
	DEFAULT_JPEG_QUALITY = 85

	// Row-tile height for streaming file-backed masks.
	DEFAULT_TILE_LINES = 100

	ReprojectWorkers     = 4
	ReprojectEdgeSamples = 21

	TMP_SINGLEBAND_TIF = "band_%d.tif"
)
