package geo

import (
	"math"

	"toll-engine/internal/model"
)

const earthRadiusM = 6371000.0

// Haversine returns the great-circle distance in meters between two
// points.
func Haversine(a, b model.LatLng) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(latA)*math.Cos(latB)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusM * c
}

// Centroid returns the vertex average of the polygon, matching how the
// zone registration tool derives a zone center when none is supplied.
func Centroid(vertices []model.LatLng) model.LatLng {
	if len(vertices) == 0 {
		return model.LatLng{}
	}
	var latSum, lngSum float64
	for _, v := range vertices {
		latSum += v.Lat
		lngSum += v.Lng
	}
	n := float64(len(vertices))
	return model.LatLng{Lat: latSum / n, Lng: lngSum / n}
}

// PointInPolygon reports whether p lies inside the polygon using ray
// casting. Points on a boundary edge count as inside, so a camera placed
// exactly on the zone border is a valid placement.
func PointInPolygon(p model.LatLng, vertices []model.LatLng) bool {
	n := len(vertices)
	if n < 3 {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := vertices[j], vertices[i]

		if onSegment(p, a, b) {
			return true
		}

		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			x := (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lng
			if p.Lng < x {
				inside = !inside
			}
		}
	}
	return inside
}

const segmentEps = 1e-12

func onSegment(p, a, b model.LatLng) bool {
	cross := (b.Lng-a.Lng)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lng-a.Lng)
	if math.Abs(cross) > segmentEps {
		return false
	}
	if p.Lat < math.Min(a.Lat, b.Lat)-segmentEps || p.Lat > math.Max(a.Lat, b.Lat)+segmentEps {
		return false
	}
	if p.Lng < math.Min(a.Lng, b.Lng)-segmentEps || p.Lng > math.Max(a.Lng, b.Lng)+segmentEps {
		return false
	}
	return true
}
