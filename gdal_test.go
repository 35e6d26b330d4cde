package eodatasets

import (
	"bytes"
	"math"
	"testing"
)

func TestSpanWktWkbRoundtrip(t *testing.T) {
	g := NewGdalToolbox()
	span := [4]float64{100, 180, 100, 200}
	wkt := SpanToWkt(span)
	wkb, err := g.WktToWkb(wkt, 32655)
	if err != nil {
		t.Fatal(err)
	}
	back, err := g.WkbToWkt(wkb, 32655)
	if err != nil {
		t.Fatal(err)
	}
	got, err := g.GetWktSpan(back, 32655)
	if err != nil {
		t.Fatal(err)
	}
	for i := range got {
		if math.Abs(got[i]-span[i]) > 1e-9 {
			t.Fatalf("span %v, want %v", got, span)
		}
	}
}

func TestWkbToGeoJSON(t *testing.T) {
	g := NewGdalToolbox()
	wkb, err := g.WktToWkb(PointsToWkt(100, 180, 100, 200), 4326)
	if err != nil {
		t.Fatal(err)
	}
	geoJson, err := g.WkbToGeoJSON(wkb, 4326)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(geoJson, []byte("Polygon")) {
		t.Fatalf("unexpected geojson: %s", geoJson)
	}
}
