package render

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	geojson "github.com/paulmach/go.geojson"

	"github.com/skainet/concentration-map/internal/models"
	"github.com/skainet/concentration-map/internal/spatial"
)

// Zoom bounds accepted by the surface
const (
	MinZoom = 0
	MaxZoom = 19
)

// Marker is a marker currently drawn on a MemorySurface
type Marker struct {
	Handle    Handle          `json:"handle"`
	Position  models.Location `json:"position"`
	Style     MarkerStyle     `json:"style"`
	Popup     Popup           `json:"popup"`
	CreatedAt time.Time       `json:"createdAt"`

	seq uint64
}

// MemorySurface is an in-process map surface.
// Browser clients read its markers as GeoJSON and push their zoom level back.
// It is safe for concurrent use.
type MemorySurface struct {
	mu        sync.RWMutex
	attached  bool
	zoom      int
	seq       uint64
	markers   map[Handle]Marker
	listeners []func(int)
}

// NewMemorySurface creates a detached surface; CurrentZoom fails until Attach
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{markers: make(map[Handle]Marker)}
}

// Attach marks the surface as initialized at the given zoom
func (s *MemorySurface) Attach(zoom int) {
	s.SetZoom(zoom)
}

// Detach marks the surface as unavailable; drawn markers are kept
func (s *MemorySurface) Detach() {
	s.mu.Lock()
	s.attached = false
	s.mu.Unlock()
}

// Attached reports whether the surface is initialized
func (s *MemorySurface) Attached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attached
}

// SetZoom updates the zoom level, attaching the surface if needed.
// Zoom listeners fire when the level changes or the surface becomes attached.
func (s *MemorySurface) SetZoom(zoom int) int {
	zoom = ClampZoom(zoom)

	s.mu.Lock()
	changed := !s.attached || s.zoom != zoom
	s.attached = true
	s.zoom = zoom
	listeners := append([]func(int){}, s.listeners...)
	s.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(zoom)
		}
	}
	return zoom
}

// CurrentZoom implements Surface
func (s *MemorySurface) CurrentZoom() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return 0, ErrSurfaceUnavailable
	}
	return s.zoom, nil
}

// OnZoomChange implements Surface
func (s *MemorySurface) OnZoomChange(fn func(zoom int)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// CreateMarker implements Surface
func (s *MemorySurface) CreateMarker(pos models.Location, style MarkerStyle, popup Popup) Handle {
	h := Handle(uuid.NewString())

	s.mu.Lock()
	s.put(h, MarkerSpec{Position: pos, Style: style, Popup: popup}, time.Now())
	s.mu.Unlock()

	return h
}

// ReplaceMarkers implements Replacer under a single write lock
func (s *MemorySurface) ReplaceMarkers(remove []Handle, specs []MarkerSpec) []Handle {
	handles := make([]Handle, len(specs))
	for i := range specs {
		handles[i] = Handle(uuid.NewString())
	}
	now := time.Now()

	s.mu.Lock()
	for _, h := range remove {
		delete(s.markers, h)
	}
	for i, spec := range specs {
		s.put(handles[i], spec, now)
	}
	s.mu.Unlock()

	return handles
}

// put stores a marker; callers hold s.mu
func (s *MemorySurface) put(h Handle, spec MarkerSpec, at time.Time) {
	s.seq++
	s.markers[h] = Marker{
		Handle:    h,
		Position:  spec.Position,
		Style:     spec.Style,
		Popup:     spec.Popup,
		CreatedAt: at,
		seq:       s.seq,
	}
}

// RemoveMarker implements Surface
func (s *MemorySurface) RemoveMarker(h Handle) {
	s.mu.Lock()
	delete(s.markers, h)
	s.mu.Unlock()
}

// Len returns the number of drawn markers
func (s *MemorySurface) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.markers)
}

// Markers returns the drawn markers in drawing order
func (s *MemorySurface) Markers() []Marker {
	s.mu.RLock()
	out := make([]Marker, 0, len(s.markers))
	for _, m := range s.markers {
		out = append(out, m)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// FeatureCollection exports the drawn markers as GeoJSON points
func (s *MemorySurface) FeatureCollection() *geojson.FeatureCollection {
	markers := s.Markers()
	fc := geojson.NewFeatureCollection()

	locs := make([]models.Location, 0, len(markers))
	for _, m := range markers {
		f := geojson.NewPointFeature([]float64{m.Position.Lon, m.Position.Lat})
		f.ID = string(m.Handle)
		f.SetProperty("kind", string(m.Style.Kind))
		f.SetProperty("color", m.Style.Color)
		f.SetProperty("size", m.Style.Size)
		f.SetProperty("borderWidth", m.Style.BorderWidth)
		if m.Style.Kind == KindCluster {
			f.SetProperty("fontSize", m.Style.FontSize)
			f.SetProperty("label", m.Style.Label)
		}
		f.SetProperty("title", m.Popup.Title)
		f.SetProperty("popupHtml", m.Popup.HTML())
		fc.AddFeature(f)
		locs = append(locs, m.Position)
	}
	fc.BoundingBox = spatial.BoundingBox(locs)

	return fc
}

// ClampZoom bounds a zoom level to [MinZoom, MaxZoom]
func ClampZoom(zoom int) int {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}
