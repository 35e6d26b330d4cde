package eodatasets

import (
	"math"
	"testing"
)

func TestGridApplyInvertRoundtrip(t *testing.T) {
	// Includes rotation terms so the 2x2 inversion is actually exercised.
	g := NewGrid(100, 100, Affine{500000, 10, 0.5, 6000000, -0.25, -10}, "EPSG:32655")
	for _, px := range [][2]float64{{0, 0}, {13.5, 77.25}, {100, 100}} {
		x, y := g.Apply(px[0], px[1])
		col, row := g.invert(x, y)
		if math.Abs(col-px[0]) > 1e-9 || math.Abs(row-px[1]) > 1e-9 {
			t.Fatalf("roundtrip of %v gave (%g, %g)", px, col, row)
		}
	}
}

func TestGridSrid(t *testing.T) {
	g := NewGrid(1, 1, Affine{}, "EPSG:32655")
	srid, ok := g.Srid()
	if !ok || srid != 32655 {
		t.Fatalf("srid %d ok %v", srid, ok)
	}
	g.Crs = `PROJCS["WGS 84 / UTM zone 55N",...]`
	if _, ok = g.Srid(); ok {
		t.Fatal("WKT CRS should not parse as srid")
	}
}

func TestGridResolutionAndBounds(t *testing.T) {
	g := NewGrid(10, 8, Affine{100, 10, 0, 200, 0, -10}, "EPSG:32655")
	resX, resY := g.Resolution()
	if resX != 10 || resY != 10 {
		t.Fatalf("resolution (%g, %g)", resX, resY)
	}
	span := g.Bounds()
	want := [4]float64{100, 180, 100, 200}
	if span != want {
		t.Fatalf("bounds %v, want %v", span, want)
	}
}

func TestGridKeyDistinguishes(t *testing.T) {
	a := NewGrid(10, 8, Affine{100, 10, 0, 200, 0, -10}, "EPSG:32655")
	b := a
	if a.key() != b.key() {
		t.Fatal("identical grids must share a key")
	}
	b.Transform[0] += 5
	if a.key() == b.key() {
		t.Fatal("shifted grid must not share a key")
	}
	c := a
	c.Crs = "EPSG:32656"
	if a.key() == c.key() {
		t.Fatal("reprojected grid must not share a key")
	}
}
