package types

import "math"

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

const earthRadiusKm = 6371.0

// Average urban walking pace used to convert distance into travel minutes.
const walkingMinutesPerKm = 12.0

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(a, b GeoPoint) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// TravelMinutes estimates walking time between two points.
func TravelMinutes(a, b GeoPoint) int {
	return int(math.Round(HaversineKm(a, b) * walkingMinutesPerKm))
}

// Centroid returns the arithmetic mean of the given points. The zero value is
// returned for an empty slice; callers are expected to guard against that.
func Centroid(points []GeoPoint) GeoPoint {
	if len(points) == 0 {
		return GeoPoint{}
	}
	var sumLat, sumLng float64
	for _, p := range points {
		sumLat += p.Lat
		sumLng += p.Lng
	}
	n := float64(len(points))
	return GeoPoint{Lat: sumLat / n, Lng: sumLng / n}
}
