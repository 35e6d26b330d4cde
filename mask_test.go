package eodatasets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maskFrom(rows, cols int, bits []uint8) *Mask {
	m := NewMask(Shape{Rows: rows, Cols: cols})
	for i, b := range bits {
		if b != 0 {
			m.bits[i] = true
		}
	}
	return m
}

func TestMaskOrImageUnsupportedType(t *testing.T) {
	m := NewMask(Shape{Rows: 1, Cols: 2})
	err := m.orImage([]string{"x", "y"}, nil, 0)
	assert.True(t, errors.Is(err, ErrUnsupportedImageType))
}

func TestMaskOrImageRowOffset(t *testing.T) {
	m := NewMask(Shape{Rows: 3, Cols: 2})
	require.NoError(t, m.orImage([]uint8{9, 0}, nil, 1))
	assert.False(t, m.At(0, 0))
	assert.True(t, m.At(1, 0))
	assert.False(t, m.At(1, 1))
	assert.False(t, m.At(2, 0))
}

func TestFillHoles(t *testing.T) {
	m := maskFrom(5, 5, []uint8{
		1, 1, 1, 1, 0,
		1, 0, 0, 1, 0,
		1, 0, 1, 1, 0,
		1, 1, 1, 0, 0,
		0, 0, 0, 0, 0,
	})
	m.fillHoles()
	// The interior hole is filled.
	assert.True(t, m.At(1, 1))
	assert.True(t, m.At(1, 2))
	assert.True(t, m.At(2, 1))
	// Border-connected nodata stays.
	assert.False(t, m.At(0, 4))
	assert.False(t, m.At(3, 3))
	assert.False(t, m.At(4, 0))
	assert.Equal(t, 15, m.Count())
}

func TestFillHolesNoInterior(t *testing.T) {
	m := maskFrom(3, 3, []uint8{
		0, 1, 0,
		1, 1, 1,
		0, 1, 0,
	})
	before := m.Count()
	m.fillHoles()
	assert.Equal(t, before, m.Count())
}

func TestRowRuns(t *testing.T) {
	m := maskFrom(2, 8, []uint8{
		0, 1, 1, 0, 1, 0, 0, 1,
		0, 0, 0, 0, 0, 0, 0, 0,
	})
	assert.Equal(t, [][2]int{{1, 3}, {4, 5}, {7, 8}}, m.rowRuns(0))
	assert.Nil(t, m.rowRuns(1))
}

func TestGenerateTiles(t *testing.T) {
	tiles := generateTiles(1624, 1567, 1000, 400)
	require.Len(t, tiles, 8)
	assert.Equal(t, [4]int{0, 400, 0, 1000}, tiles[0])
	assert.Equal(t, [4]int{0, 400, 1000, 1624}, tiles[1])
	assert.Equal(t, [4]int{1200, 1567, 1000, 1624}, tiles[7])
}

func TestGenerateTilesDefaults(t *testing.T) {
	tiles := generateTiles(30, 250, 0, 0)
	require.Len(t, tiles, 3)
	// Full-width strips of the default line count.
	assert.Equal(t, [4]int{0, 100, 0, 30}, tiles[0])
	assert.Equal(t, [4]int{200, 250, 0, 30}, tiles[2])

	// Short rasters collapse to a single strip.
	tiles = generateTiles(30, 40, 0, 0)
	require.Len(t, tiles, 1)
	assert.Equal(t, [4]int{0, 40, 0, 30}, tiles[0])
}
