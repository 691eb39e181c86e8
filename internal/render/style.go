package render

import (
	"strconv"

	"github.com/skainet/concentration-map/internal/analysis/clustering"
	"github.com/skainet/concentration-map/internal/models"
)

// Marker dimensions in pixels
const (
	IncidentSize        = 24
	IncidentBorder      = 3
	ClusterBorder       = 4
	MinClusterSize      = 20
	MaxClusterSize      = 60
	clusterSizePerPoint = 2
	minClusterFont      = 12
)

// Individual markers use a grey scale; darker means more urgent
var incidentColors = map[models.Urgency]string{
	models.UrgencyHigh:   "#000000",
	models.UrgencyMedium: "#404040",
	models.UrgencyLow:    "#737373",
}

const defaultIncidentColor = "#525252"

// ModeForZoom returns the view mode used at a zoom level
func ModeForZoom(zoom int) models.ViewMode {
	if zoom >= clustering.IndividualZoom {
		return models.ViewIndividual
	}
	return models.ViewCluster
}

// IncidentColor returns the marker color of a single incident
func IncidentColor(u models.Urgency) string {
	if c, ok := incidentColors[u]; ok {
		return c
	}
	return defaultIncidentColor
}

// IncidentStyle returns the style of an individual incident marker
func IncidentStyle(p models.IncidentPoint) MarkerStyle {
	return MarkerStyle{
		Kind:        KindIncident,
		Color:       IncidentColor(p.Urgency),
		Size:        IncidentSize,
		BorderWidth: IncidentBorder,
	}
}

// ClusterSize grows with the member count, bounded to [MinClusterSize, MaxClusterSize]
func ClusterSize(members int) int {
	size := MinClusterSize + members*clusterSizePerPoint
	if size < MinClusterSize {
		return MinClusterSize
	}
	if size > MaxClusterSize {
		return MaxClusterSize
	}
	return size
}

// ClusterStyle returns the style of a cluster marker in category cat
func ClusterStyle(c models.Cluster, cat models.Category) MarkerStyle {
	size := ClusterSize(c.Size())
	font := size / 4
	if font < minClusterFont {
		font = minClusterFont
	}
	return MarkerStyle{
		Kind:        KindCluster,
		Color:       cat.Color,
		Size:        size,
		BorderWidth: ClusterBorder,
		FontSize:    font,
		Label:       strconv.Itoa(c.Size()),
	}
}
