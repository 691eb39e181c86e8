package service

import (
	geojson "github.com/paulmach/go.geojson"

	"github.com/skainet/concentration-map/internal/models"
	"github.com/skainet/concentration-map/internal/refresh"
	"github.com/skainet/concentration-map/internal/render"
)

// MapService exposes the rendered map to HTTP clients
type MapService struct {
	surface *render.MemorySurface
	loop    *refresh.Loop
}

// NewMapService creates a new map service
func NewMapService(surface *render.MemorySurface, loop *refresh.Loop) *MapService {
	return &MapService{
		surface: surface,
		loop:    loop,
	}
}

// Markers returns the drawn markers as GeoJSON
func (s *MapService) Markers() *geojson.FeatureCollection {
	return s.surface.FeatureCollection()
}

// SetViewport applies a client's zoom level and returns the clamped value.
// The refresh loop redraws asynchronously.
func (s *MapService) SetViewport(zoom int) int {
	return s.surface.SetZoom(zoom)
}

// Status returns the latest refresh status
func (s *MapService) Status() models.RefreshStatus {
	return s.loop.Status()
}

// Refresh requests an immediate fetch and redraw
func (s *MapService) Refresh() {
	s.loop.Trigger()
}
