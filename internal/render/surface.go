// Package render keeps a map surface in sync with the latest incident points.
package render

import (
	"errors"

	"github.com/skainet/concentration-map/internal/models"
)

// ErrSurfaceUnavailable is returned while the map surface is not initialized
var ErrSurfaceUnavailable = errors.New("map surface unavailable")

// Handle is an opaque reference to a marker drawn on a surface
type Handle string

// MarkerKind distinguishes individual incident markers from cluster markers
type MarkerKind string

const (
	KindIncident MarkerKind = "incident"
	KindCluster  MarkerKind = "cluster"
)

// MarkerStyle describes how a marker is drawn
type MarkerStyle struct {
	Kind        MarkerKind `json:"kind"`
	Color       string     `json:"color"`
	Size        int        `json:"size"`               // diameter in pixels
	BorderWidth int        `json:"borderWidth"`        // white ring in pixels
	FontSize    int        `json:"fontSize,omitempty"` // label font in pixels
	Label       string     `json:"label,omitempty"`    // text drawn inside the marker
}

// Surface is the map the reconciler draws on.
// The reconciler is the only owner of the markers it creates and removes
// all of them before the surface is discarded.
type Surface interface {
	// CreateMarker draws a marker and returns its handle
	CreateMarker(pos models.Location, style MarkerStyle, popup Popup) Handle
	// RemoveMarker erases a previously drawn marker; unknown handles are ignored
	RemoveMarker(h Handle)
	// CurrentZoom returns the zoom level, or ErrSurfaceUnavailable
	CurrentZoom() (int, error)
	// OnZoomChange registers a callback fired after the zoom level changes
	OnZoomChange(fn func(zoom int))
}

// MarkerSpec is a marker waiting to be drawn
type MarkerSpec struct {
	Position models.Location
	Style    MarkerStyle
	Popup    Popup
}

// Replacer is implemented by surfaces that can swap one marker set for
// another in a single step, so readers never observe a partial redraw.
type Replacer interface {
	// ReplaceMarkers removes the given handles, draws specs and returns
	// the new handles in spec order
	ReplaceMarkers(remove []Handle, specs []MarkerSpec) []Handle
}
