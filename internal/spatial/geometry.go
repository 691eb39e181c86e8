package spatial

import (
	"math"

	"github.com/skainet/concentration-map/internal/models"
)

// Centroid calculates the arithmetic mean of a set of locations in degrees
func Centroid(locs []models.Location) models.Location {
	if len(locs) == 0 {
		return models.Location{}
	}

	var sumLat, sumLon float64
	for _, p := range locs {
		sumLat += p.Lat
		sumLon += p.Lon
	}

	return models.Location{
		Lat: sumLat / float64(len(locs)),
		Lon: sumLon / float64(len(locs)),
	}
}

// MaxRadius returns the largest great-circle distance in meters from center to any location
func MaxRadius(center models.Location, locs []models.Location) float64 {
	var radius float64
	for _, p := range locs {
		d := HaversineDistance(center.Lat, center.Lon, p.Lat, p.Lon)
		radius = math.Max(radius, d)
	}
	return radius
}

// BoundingBox returns the bounding box of a set of locations as
// [minLon, minLat, maxLon, maxLat], the GeoJSON bbox order.
// It returns nil for an empty set.
func BoundingBox(locs []models.Location) []float64 {
	if len(locs) == 0 {
		return nil
	}

	minLat, minLon := locs[0].Lat, locs[0].Lon
	maxLat, maxLon := minLat, minLon

	for _, p := range locs[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLon = math.Min(minLon, p.Lon)
		maxLon = math.Max(maxLon, p.Lon)
	}

	return []float64{minLon, minLat, maxLon, maxLat}
}
