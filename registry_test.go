package eodatasets

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRejectsDuplicateNames(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Record("blue", gridA, "one.tif", nil))
	err := r.Record("blue", gridB, "two.tif", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateMeasurement))
	assert.Contains(t, err.Error(), "one.tif")
	assert.Contains(t, err.Error(), "two.tif")
	// The failed record must not leave partial state behind.
	assert.Equal(t, []string{"blue"}, r.Names())
}

func TestRecordGroupsByGridIdentity(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Record("blue", gridA, "blue.tif", nil))
	// Same shape and transform but a different CRS is a different grid.
	other := NewGrid(gridA.Shape.Rows, gridA.Shape.Cols, gridA.Transform, "EPSG:32656")
	require.NoError(t, r.Record("red", other, "red.tif", nil))
	assert.Len(t, r.grids, 2)

	paths := r.Paths()
	require.Len(t, paths, 2)
	assert.Equal(t, "blue", paths[0].Name)
	assert.Equal(t, gridA, paths[0].Grid)
	assert.Equal(t, "red", paths[1].Name)
	assert.Equal(t, other, paths[1].Grid)
}

func TestRecordAggregatesMask(t *testing.T) {
	g := NewGrid(2, 3, Affine{0, 10, 0, 0, 0, -10}, "EPSG:32655")
	r := newTestRegistry(t)
	require.NoError(t, r.Record("a", g, "a.tif", &RecordOpts{
		Image: []uint8{0, 1, 0, 0, 0, 0},
	}))
	mask := r.MaskFor(g)
	require.NotNil(t, mask)
	assert.Equal(t, 1, mask.Count())
	assert.True(t, mask.At(0, 1))

	// A second measurement widens, never shrinks, the coverage.
	require.NoError(t, r.Record("b", g, "b.tif", &RecordOpts{
		Image: []uint8{0, 0, 0, 0, 5, 0},
	}))
	assert.Equal(t, 2, mask.Count())
	assert.True(t, mask.At(0, 1))
	assert.True(t, mask.At(1, 1))
}

func TestRecordCustomAndFloatNodata(t *testing.T) {
	g := NewGrid(1, 4, Affine{0, 10, 0, 0, 0, -10}, "EPSG:32655")
	r := newTestRegistry(t)
	nd := 255.0
	require.NoError(t, r.Record("a", g, "a.tif", &RecordOpts{
		Image:  []uint8{255, 3, 0, 255},
		Nodata: &nd,
	}))
	mask := r.MaskFor(g)
	assert.Equal(t, 2, mask.Count()) // 3 and the literal 0 both count

	r2 := newTestRegistry(t)
	require.NoError(t, r2.Record("a", g, "a.tif", &RecordOpts{
		Image: []float64{math.NaN(), 0, 7, math.Inf(1)},
	}))
	mask = r2.MaskFor(g)
	assert.Equal(t, 2, mask.Count()) // NaN and Inf invalid; 0 is data for floats
	assert.True(t, mask.At(0, 1))
	assert.True(t, mask.At(0, 2))
}

func TestRecordSkipValidData(t *testing.T) {
	g := NewGrid(1, 2, Affine{0, 10, 0, 0, 0, -10}, "EPSG:32655")
	r := newTestRegistry(t)
	require.NoError(t, r.Record("a", g, "a.tif", &RecordOpts{
		Image:         []uint8{1, 1},
		SkipValidData: true,
	}))
	assert.Nil(t, r.MaskFor(g))
}

func TestRecordWrongImageSize(t *testing.T) {
	g := NewGrid(2, 2, Affine{0, 10, 0, 0, 0, -10}, "EPSG:32655")
	r := newTestRegistry(t)
	err := r.Record("a", g, "a.tif", &RecordOpts{Image: []uint8{1, 2, 3}})
	assert.True(t, errors.Is(err, ErrWrongImageSize))
}

func TestRecordLayerInDoc(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Record("qa:fmask", gridA, "pack.nc", &RecordOpts{Layer: "fmask"}))
	_, _, measurements, err := r.AsGeoDocs()
	require.NoError(t, err)
	doc, ok := measurements["qa_fmask"] // colons normalized for doc keys
	require.True(t, ok)
	assert.Equal(t, MeasurementDoc{Path: "pack.nc", Layer: "fmask"}, doc)
}

func TestAsGeoDocsEmptyRegistry(t *testing.T) {
	r := newTestRegistry(t)
	_, _, _, err := r.AsGeoDocs()
	assert.True(t, errors.Is(err, ErrEmptyRegistry))
}

func TestAsGeoDocsInconsistentCrs(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Record("a", gridA, "a.tif", nil))
	other := NewGrid(50, 50, Affine{0, 20, 0, 0, 0, -20}, "EPSG:4326")
	require.NoError(t, r.Record("b", other, "b.tif", nil))
	_, _, _, err := r.AsGeoDocs()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInconsistentCrs))
}

func TestConsumeValidDataOnlyOnce(t *testing.T) {
	g := NewGrid(4, 4, Affine{0, 10, 0, 0, 0, -10}, "EPSG:32655")
	r := newTestRegistry(t)
	require.NoError(t, r.Record("a", g, "a.tif", &RecordOpts{
		Image: []uint8{
			1, 1, 0, 0,
			1, 1, 0, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
		},
	}))
	wkb, err := r.ConsumeValidData(ValidDataThorough)
	require.NoError(t, err)
	assert.NotEmpty(t, wkb)

	_, err = r.ConsumeValidData(ValidDataThorough)
	assert.True(t, errors.Is(err, ErrRegistryConsumed))
	// The mask was surrendered to the geometry pipeline.
	assert.Nil(t, r.MaskFor(g))
}
