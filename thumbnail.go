package eodatasets

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// StretchRange is an inclusive low/high pixel intensity window.
type StretchRange = [2]float64

// bandIter is a lazy, single-pass sequence of single-band images. Underlying
// handles are released as iteration proceeds; restarting means building a
// fresh iterator.
type bandIter interface {
	// next returns the band pixels (row-major) and the band's nodata value
	// (NaN when the source declares none on floating data).
	next() (data []float64, nodata float64, ok bool, err error)
	close()
}

// computeStretch reads every band once, narrowing the shared validity mask
// (a pixel counts only while valid in all bands seen so far) and taking the
// running max of low percentiles and min of high percentiles.
func computeStretch(bands bandIter, pixels int, percentiles StretchRange) (valid []bool, rng StretchRange, err error) {
	valid = make([]bool, pixels)
	for i := range valid {
		valid[i] = true
	}
	rng = StretchRange{-math.MaxFloat64, math.MaxFloat64}
	vals := make([]float64, 0, pixels)
	for {
		data, nodata, ok, e := bands.next()
		if e != nil {
			err = e
			return
		}
		if !ok {
			break
		}
		if len(data) != pixels {
			err = ErrWrongImageSize
			return
		}
		narrowValid(valid, data, nodata)
		vals = vals[:0]
		for i, v := range data {
			if valid[i] {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			continue
		}
		low, high := percentileRange(vals, percentiles)
		if low > rng[0] {
			rng[0] = low
		}
		if high < rng[1] {
			rng[1] = high
		}
	}
	return
}

func narrowValid(valid []bool, data []float64, nodata float64) {
	if math.IsNaN(nodata) {
		for i, v := range data {
			valid[i] = valid[i] && !math.IsNaN(v) && !math.IsInf(v, 0)
		}
		return
	}
	for i, v := range data {
		valid[i] = valid[i] && v != nodata
	}
}

// percentileRange returns the nearest-rank percentiles of vals; vals is
// sorted in place.
func percentileRange(vals []float64, percentiles StretchRange) (low, high float64) {
	sort.Float64s(vals)
	low = stat.Quantile(percentiles[0]/100, stat.Empirical, vals, nil)
	high = stat.Quantile(percentiles[1]/100, stat.Empirical, vals, nil)
	return
}

// rescaleIntensity clips img to inRange, maps it linearly onto outRange and
// casts to uint8, forcing every pixel outside validMask to outNodata. The
// input slice is never mutated. A nil validMask keeps every pixel.
func rescaleIntensity(img []float64, inRange, outRange StretchRange, validMask []bool, outNodata uint8) (out []uint8, err error) {
	imin, imax := inRange[0], inRange[1]
	if imax <= imin {
		err = ErrEmptyStretchRange
		return
	}
	if outRange == (StretchRange{}) {
		// Default to the full output pixel type.
		outRange = StretchRange{0, 255}
	}
	omin, omax := outRange[0], outRange[1]
	scale := (omax - omin) / (imax - imin)
	out = make([]uint8, len(img))
	for i, v := range img {
		if validMask != nil && !validMask[i] {
			out[i] = outNodata
			continue
		}
		if v < imin {
			v = imin
		} else if v > imax {
			v = imax
		}
		out[i] = uint8((v-imin)*scale + omin)
	}
	return
}

// filterSingleband turns one band into an RGB triple plus the stretch to
// render it with. Exactly one of bit / lut must be given: bit keeps only
// pixels equal to bit (duplicated across channels, stretch 0..bit); lut maps
// listed values to explicit colours (unmapped pixels stay black, stretch
// 0..255).
func filterSingleband(data []float64, bit *int, lut map[int][3]uint8) (rgb [3][]float64, stretch StretchRange, err error) {
	if (bit == nil) == (lut == nil) {
		err = ErrInvalidFilterArgs
		return
	}
	if bit != nil {
		b := float64(*bit)
		out := make([]float64, len(data))
		for i, v := range data {
			if v == b {
				out[i] = v
			}
		}
		rgb = [3][]float64{out, out, out}
		stretch = StretchRange{0, b}
		return
	}
	for c := range rgb {
		rgb[c] = make([]float64, len(data))
	}
	for value, colour := range lut {
		fv := float64(value)
		for i, v := range data {
			if v == fv {
				rgb[0][i] = float64(colour[0])
				rgb[1][i] = float64(colour[1])
				rgb[2][i] = float64(colour[2])
			}
		}
	}
	stretch = StretchRange{0, 255}
	return
}
