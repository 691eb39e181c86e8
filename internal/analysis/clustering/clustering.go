// Package clustering groups incident points for display at low zoom levels.
package clustering

import (
	"github.com/skainet/concentration-map/internal/models"
	"github.com/skainet/concentration-map/internal/spatial"
)

// IndividualZoom is the first zoom level at which points are drawn one by one
const IndividualZoom = 14

// thresholdStep is one row of the zoom to distance table
type thresholdStep struct {
	belowZoom int     // row applies to zoom levels below this value
	degrees   float64 // grouping distance in raw degrees
}

var thresholdTable = []thresholdStep{
	{belowZoom: 10, degrees: 0.1},
	{belowZoom: 12, degrees: 0.03},
	{belowZoom: 14, degrees: 0.005},
	{belowZoom: 16, degrees: 0.002},
}

// finestThreshold applies from zoom 16 upwards
const finestThreshold = 0.0005

// ThresholdForZoom returns the grouping distance in degrees for a zoom level.
// Finer zoom levels get smaller thresholds.
func ThresholdForZoom(zoom int) float64 {
	for _, step := range thresholdTable {
		if zoom < step.belowZoom {
			return step.degrees
		}
	}
	return finestThreshold
}

// Engine groups points with a greedy fixed-seed pass.
//
// Points are visited in input order. Each unassigned point seeds a new
// cluster and absorbs every still-unassigned point closer to the seed than
// the zoom threshold. Membership is measured against the seed only, so it
// is not transitive: a point near an absorbed member but far from the seed
// stays out and may seed its own cluster later. Cost is O(n²).
type Engine struct {
	// Distance measures point separation; PlanarDistance when nil
	Distance func(lat1, lon1, lat2, lon2 float64) float64
}

// NewEngine creates an engine using planar degree distance
func NewEngine() *Engine {
	return &Engine{Distance: spatial.PlanarDistance}
}

// Cluster partitions points into clusters for the given zoom level.
// Every input point ends up in exactly one cluster; cluster order follows
// the order of their seeds and member order follows input order.
func (e *Engine) Cluster(points []models.IncidentPoint, zoom int) []models.Cluster {
	clusters := make([]models.Cluster, 0)
	if len(points) == 0 {
		return clusters
	}

	dist := e.Distance
	if dist == nil {
		dist = spatial.PlanarDistance
	}
	threshold := ThresholdForZoom(zoom)
	level := spatial.CellLevelForZoom(zoom)
	assigned := make([]bool, len(points))

	for i, seed := range points {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		members := []models.IncidentPoint{seed}

		for j := i + 1; j < len(points); j++ {
			if assigned[j] {
				continue
			}
			other := points[j]
			d := dist(seed.Location.Lat, seed.Location.Lon, other.Location.Lat, other.Location.Lon)
			if d < threshold {
				assigned[j] = true
				members = append(members, other)
			}
		}

		clusters = append(clusters, newCluster(members, level))
	}

	return clusters
}

func newCluster(members []models.IncidentPoint, level int) models.Cluster {
	locs := make([]models.Location, len(members))
	var counts models.UrgencyCounts
	for i, m := range members {
		locs[i] = m.Location
		counts.Add(m.Urgency)
	}

	centroid := spatial.Centroid(locs)
	return models.Cluster{
		CellID:        spatial.CellToken(centroid.Lat, centroid.Lon, level),
		Centroid:      centroid,
		Members:       members,
		UrgencyCounts: counts,
		RadiusMeters:  spatial.MaxRadius(centroid, locs),
	}
}
