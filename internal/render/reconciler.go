package render

import (
	"fmt"

	"github.com/skainet/concentration-map/internal/analysis/clustering"
	"github.com/skainet/concentration-map/internal/analysis/majority"
	"github.com/skainet/concentration-map/internal/models"
)

// Result summarizes one reconciliation pass
type Result struct {
	Mode     models.ViewMode
	Zoom     int
	Points   int
	Clusters int
	Markers  int
	Removed  int
}

// Reconciler owns the markers drawn on one surface.
// Each pass removes every marker of the previous pass and draws a fresh set;
// markers are never diffed by identity. It is not safe for concurrent use:
// a single refresh loop drives it.
type Reconciler struct {
	surface Surface
	engine  *clustering.Engine
	handles []Handle
}

// NewReconciler creates a reconciler for surface.
// A nil engine uses clustering.NewEngine().
func NewReconciler(surface Surface, engine *clustering.Engine) *Reconciler {
	if engine == nil {
		engine = clustering.NewEngine()
	}
	return &Reconciler{
		surface: surface,
		engine:  engine,
	}
}

// Reconcile redraws the surface for points at the surface's current zoom.
// Markers are planned before anything is removed; surfaces implementing
// Replacer swap the whole set at once. If the surface is unavailable nothing
// is touched and the error wraps ErrSurfaceUnavailable.
func (r *Reconciler) Reconcile(points []models.IncidentPoint) (Result, error) {
	zoom, err := r.surface.CurrentZoom()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read zoom: %w", err)
	}

	res := Result{
		Mode:   ModeForZoom(zoom),
		Zoom:   zoom,
		Points: len(points),
	}

	var specs []MarkerSpec
	if res.Mode == models.ViewIndividual {
		specs = make([]MarkerSpec, 0, len(points))
		for _, p := range points {
			specs = append(specs, MarkerSpec{Position: p.Location, Style: IncidentStyle(p), Popup: IncidentPopup(p)})
		}
	} else {
		clusters := r.engine.Cluster(points, zoom)
		specs = make([]MarkerSpec, 0, len(clusters))
		for _, c := range clusters {
			cat := majority.Classify(c.UrgencyCounts)
			specs = append(specs, MarkerSpec{Position: c.Centroid, Style: ClusterStyle(c, cat), Popup: ClusterPopup(c, cat)})
		}
		res.Clusters = len(clusters)
	}

	res.Removed = len(r.handles)
	if rep, ok := r.surface.(Replacer); ok {
		r.handles = rep.ReplaceMarkers(r.handles, specs)
	} else {
		r.Clear()
		for _, spec := range specs {
			r.handles = append(r.handles, r.surface.CreateMarker(spec.Position, spec.Style, spec.Popup))
		}
	}

	res.Markers = len(r.handles)
	return res, nil
}

// Clear removes every marker drawn by the reconciler and returns how many were removed
func (r *Reconciler) Clear() int {
	n := len(r.handles)
	for _, h := range r.handles {
		r.surface.RemoveMarker(h)
	}
	r.handles = nil
	return n
}

// Handles returns a copy of the handles currently held
func (r *Reconciler) Handles() []Handle {
	out := make([]Handle, len(r.handles))
	copy(out, r.handles)
	return out
}
