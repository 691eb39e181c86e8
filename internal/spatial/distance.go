package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// HaversineDistance calculates the great-circle distance between two points in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// PlanarDistance is the Euclidean distance between two points measured in raw
// degrees, treating latitude and longitude as plane coordinates.
// It is not a geodesic distance; clustering thresholds are expressed in it.
func PlanarDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := lat1 - lat2
	dLon := lon1 - lon2
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

// CellToken returns the token of the S2 cell at the given level containing the point
func CellToken(lat, lon float64, level int) string {
	if level < 0 {
		level = 0
	}
	if level > s2.MaxLevel {
		level = s2.MaxLevel
	}
	ll := s2.LatLngFromDegrees(lat, lon)
	return s2.CellIDFromLatLng(ll).Parent(level).ToToken()
}

// CellLevelForZoom maps a web map zoom level to a comparable S2 cell level
func CellLevelForZoom(zoom int) int {
	level := zoom + 2
	if level < 1 {
		level = 1
	}
	if level > s2.MaxLevel {
		level = s2.MaxLevel
	}
	return level
}

// EarthRadiusMeters is the Earth's mean radius
const EarthRadiusMeters = 6371000.0
