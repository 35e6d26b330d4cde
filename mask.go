package eodatasets

import (
	"math"
)

// Mask is a per-grid boolean coverage raster in row-major pixel order. A
// pixel flips to true once any measurement on the grid reports data there,
// and never flips back.
type Mask struct {
	Rows int
	Cols int
	bits []bool
}

func NewMask(shape Shape) *Mask {
	return &Mask{
		Rows: shape.Rows,
		Cols: shape.Cols,
		bits: make([]bool, shape.Rows*shape.Cols),
	}
}

func (m *Mask) At(row, col int) bool {
	return m.bits[row*m.Cols+col]
}

func (m *Mask) set(row, col int, v bool) {
	m.bits[row*m.Cols+col] = v
}

// Count returns the number of valid pixels.
func (m *Mask) Count() (n int) {
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return
}

type pixelValue interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~float32 | ~float64
}

func orValid[T pixelValue](bits []bool, data []T, nodata float64, nanSentinel bool) {
	for i, v := range data {
		if bits[i] {
			continue
		}
		f := float64(v)
		if nanSentinel {
			bits[i] = !math.IsNaN(f) && !math.IsInf(f, 0)
		} else {
			bits[i] = f != nodata
		}
	}
}

// orImage folds the validity of an image (or image window starting at
// rowOff) into the mask. Nodata defaults to NaN for floating point pixels
// and 0 for integer pixels.
func (m *Mask) orImage(img any, nodata *float64, rowOff int) (err error) {
	off := rowOff * m.Cols
	var (
		nd       float64
		floating bool
	)
	switch img.(type) {
	case []float32, []float64:
		floating = true
	}
	if nodata != nil {
		nd = *nodata
	} else if floating {
		nd = math.NaN()
	}
	nan := math.IsNaN(nd)
	switch data := img.(type) {
	case []float64:
		orValid(m.bits[off:off+len(data)], data, nd, nan)
	case []float32:
		orValid(m.bits[off:off+len(data)], data, nd, nan)
	case []uint8:
		orValid(m.bits[off:off+len(data)], data, nd, nan)
	case []int16:
		orValid(m.bits[off:off+len(data)], data, nd, nan)
	case []uint16:
		orValid(m.bits[off:off+len(data)], data, nd, nan)
	case []int32:
		orValid(m.bits[off:off+len(data)], data, nd, nan)
	case []uint32:
		orValid(m.bits[off:off+len(data)], data, nd, nan)
	case []int64:
		orValid(m.bits[off:off+len(data)], data, nd, nan)
	case []int:
		orValid(m.bits[off:off+len(data)], data, nd, nan)
	default:
		err = ErrUnsupportedImageType
	}
	return
}

func imageLen(img any) int {
	switch data := img.(type) {
	case []float64:
		return len(data)
	case []float32:
		return len(data)
	case []uint8:
		return len(data)
	case []int16:
		return len(data)
	case []uint16:
		return len(data)
	case []int32:
		return len(data)
	case []uint32:
		return len(data)
	case []int64:
		return len(data)
	case []int:
		return len(data)
	}
	return -1
}

// fillHoles flips every false region not connected to the border, leaving
// only the outer nodata collar. 4-connected flood fill from the edges.
func (m *Mask) fillHoles() {
	if len(m.bits) == 0 {
		return
	}
	outside := make([]bool, len(m.bits))
	stack := make([]int, 0, 2*(m.Rows+m.Cols))
	push := func(i int) {
		if !m.bits[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, i)
		}
	}
	for c := 0; c < m.Cols; c++ {
		push(c)
		push((m.Rows-1)*m.Cols + c)
	}
	for r := 0; r < m.Rows; r++ {
		push(r * m.Cols)
		push(r*m.Cols + m.Cols - 1)
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		r, c := i/m.Cols, i%m.Cols
		if r > 0 {
			push(i - m.Cols)
		}
		if r < m.Rows-1 {
			push(i + m.Cols)
		}
		if c > 0 {
			push(i - 1)
		}
		if c < m.Cols-1 {
			push(i + 1)
		}
	}
	for i := range m.bits {
		if !m.bits[i] && !outside[i] {
			m.bits[i] = true
		}
	}
}

// rowRuns yields [start,end) column runs of valid pixels on one row.
func (m *Mask) rowRuns(row int) (runs [][2]int) {
	base := row * m.Cols
	start := -1
	for c := 0; c < m.Cols; c++ {
		if m.bits[base+c] {
			if start < 0 {
				start = c
			}
			continue
		}
		if start >= 0 {
			runs = append(runs, [2]int{start, c})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, [2]int{start, m.Cols})
	}
	return
}

// generateTiles splits a samples x lines raster into ((y0,y1),(x0,x1))
// windows, returned as [y0, y1, x0, x1]. Zero or negative xtile means the
// full width; zero or negative ytile defaults to min(100, lines).
func generateTiles(samples, lines, xtile, ytile int) (tiles [][4]int) {
	if xtile <= 0 {
		xtile = samples
	}
	if ytile <= 0 {
		ytile = DEFAULT_TILE_LINES
		if lines < ytile {
			ytile = lines
		}
	}
	for y := 0; y < lines; y += ytile {
		yend := y + ytile
		if yend > lines {
			yend = lines
		}
		for x := 0; x < samples; x += xtile {
			xend := x + xtile
			if xend > samples {
				xend = samples
			}
			tiles = append(tiles, [4]int{y, yend, x, xend})
		}
	}
	return
}
