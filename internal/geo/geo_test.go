package geo

import (
	"math"
	"testing"

	"toll-engine/internal/model"
)

var square = []model.LatLng{
	{Lat: 0, Lng: 0},
	{Lat: 0, Lng: 1},
	{Lat: 1, Lng: 1},
	{Lat: 1, Lng: 0},
}

func TestPointInPolygon(t *testing.T) {
	tests := []struct {
		name string
		p    model.LatLng
		want bool
	}{
		{"center", model.LatLng{Lat: 0.5, Lng: 0.5}, true},
		{"outside", model.LatLng{Lat: 2, Lng: 2}, false},
		{"on edge", model.LatLng{Lat: 0, Lng: 0.5}, true},
		{"on vertex", model.LatLng{Lat: 1, Lng: 1}, true},
		{"just outside edge", model.LatLng{Lat: -0.001, Lng: 0.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointInPolygon(tt.p, square); got != tt.want {
				t.Errorf("PointInPolygon(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestPointInPolygonDegenerate(t *testing.T) {
	line := []model.LatLng{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}
	if PointInPolygon(model.LatLng{Lat: 0.5, Lng: 0.5}, line) {
		t.Error("polygon with fewer than 3 vertices should contain nothing")
	}
}

func TestHaversine(t *testing.T) {
	// One degree of latitude is roughly 111.2 km.
	a := model.LatLng{Lat: 12.0, Lng: 77.0}
	b := model.LatLng{Lat: 13.0, Lng: 77.0}

	d := Haversine(a, b)
	if math.Abs(d-111195) > 500 {
		t.Errorf("Haversine = %.0f m, want ~111195 m", d)
	}

	if Haversine(a, a) != 0 {
		t.Error("distance to self should be zero")
	}
}

func TestCentroid(t *testing.T) {
	c := Centroid(square)
	if c.Lat != 0.5 || c.Lng != 0.5 {
		t.Errorf("Centroid = %v, want {0.5 0.5}", c)
	}
	if got := Centroid(nil); got != (model.LatLng{}) {
		t.Errorf("Centroid(nil) = %v, want zero", got)
	}
}
