// Package refresh drives periodic recomputation of the incident map.
//
// A single goroutine owns the reconciler: it fetches snapshots on a ticker,
// reacts to zoom changes and manual triggers, and publishes a read-only
// status after every pass.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/skainet/concentration-map/internal/analysis/normalize"
	"github.com/skainet/concentration-map/internal/metrics"
	"github.com/skainet/concentration-map/internal/models"
	"github.com/skainet/concentration-map/internal/render"
)

// DefaultInterval is the poll period used when none is configured
const DefaultInterval = 2 * time.Second

// Pass triggers
const (
	TriggerStart  = "start"
	TriggerPoll   = "poll"
	TriggerZoom   = "zoom"
	TriggerManual = "manual"
)

// Source returns the full current set of raw message logs
type Source interface {
	Snapshot(ctx context.Context) ([]models.RawMessage, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) ([]models.RawMessage, error)

// Snapshot implements Source
func (f SourceFunc) Snapshot(ctx context.Context) ([]models.RawMessage, error) { return f(ctx) }

// Loop recomputes the map whenever data or zoom changes
type Loop struct {
	source     Source
	reconciler *render.Reconciler
	interval   time.Duration
	log        *slog.Logger

	zoomCh    chan struct{}
	triggerCh chan struct{}
	running   atomic.Bool
	status    atomic.Pointer[models.RefreshStatus]

	// owned by the Run goroutine
	points     []models.IncidentPoint
	stats      models.SnapshotStats
	dropped    models.DropStats
	lastFetch  time.Time
	fetchErr   error
	generation uint64
}

// NewLoop creates a loop that draws on surface.
// It subscribes to the surface's zoom changes immediately; notifications
// arriving before Run are kept and processed once Run starts.
func NewLoop(source Source, surface render.Surface, interval time.Duration, log *slog.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = slog.Default()
	}

	l := &Loop{
		source:     source,
		reconciler: render.NewReconciler(surface, nil),
		interval:   interval,
		log:        log.With("component", "refresh"),
		zoomCh:     make(chan struct{}, 1),
		triggerCh:  make(chan struct{}, 1),
	}
	l.status.Store(&models.RefreshStatus{})
	surface.OnZoomChange(func(int) { signal(l.zoomCh) })
	return l
}

// signal performs a non-blocking send; a pending signal absorbs newer ones
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Trigger requests a fetch and redraw outside the poll schedule
func (l *Loop) Trigger() {
	signal(l.triggerCh)
}

// Status returns the result of the latest pass
func (l *Loop) Status() models.RefreshStatus {
	return *l.status.Load()
}

// Running reports whether Run is active
func (l *Loop) Running() bool {
	return l.running.Load()
}

// Run processes events until ctx is done, then removes every marker it drew.
// It must not be called more than once at a time.
func (l *Loop) Run(ctx context.Context) {
	if !l.running.CompareAndSwap(false, true) {
		l.log.Warn("refresh_already_running")
		return
	}
	defer l.running.Store(false)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	defer func() {
		removed := l.reconciler.Clear()
		metrics.MarkersRemovedTotal.Add(float64(removed))
		metrics.MarkersCurrent.Set(0)
		l.log.Info("refresh_stopped", "removed", removed)
	}()

	l.log.Info("refresh_started", "interval", l.interval)
	l.fetch(ctx)
	l.recompute(TriggerStart)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.fetch(ctx)
			l.recompute(TriggerPoll)
		case <-l.triggerCh:
			l.fetch(ctx)
			l.recompute(TriggerManual)
		case <-l.zoomCh:
			l.recompute(TriggerZoom)
		}
	}
}

// fetch replaces the current snapshot; on failure the previous one is kept
func (l *Loop) fetch(ctx context.Context) {
	metrics.FetchTotal.Inc()

	raw, err := l.source.Snapshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.FetchErrorsTotal.Inc()
		l.fetchErr = err
		l.log.Warn("fetch_error", "error", err)
		return
	}

	res := normalize.Normalize(raw)
	l.points = res.Points
	l.stats = normalize.Stats(raw, res.Points)
	l.dropped = res.Dropped
	l.lastFetch = time.Now()
	l.fetchErr = nil

	metrics.DroppedRecordsTotal.WithLabelValues("malformed").Add(float64(res.Dropped.Malformed))
	metrics.DroppedRecordsTotal.WithLabelValues("resolved").Add(float64(res.Dropped.Resolved))
	metrics.DroppedRecordsTotal.WithLabelValues("duplicate").Add(float64(res.Dropped.Duplicate))
	l.log.Debug("fetch_done",
		"records", len(raw),
		"points", len(res.Points),
		"malformed", res.Dropped.Malformed,
		"resolved", res.Dropped.Resolved,
		"duplicate", res.Dropped.Duplicate,
	)
}

// recompute redraws the surface from the current snapshot
func (l *Loop) recompute(trigger string) {
	start := time.Now()

	res, err := l.reconciler.Reconcile(l.points)
	if err != nil {
		prev := *l.status.Load()
		prev.LastError = err.Error()

		reason := "error"
		if errors.Is(err, render.ErrSurfaceUnavailable) {
			reason = "surface_unavailable"
			prev.SurfaceDown = true
			l.log.Debug("refresh_skipped", "trigger", trigger, "reason", reason)
		} else {
			prev.SurfaceDown = false
			l.log.Error("refresh_failed", "trigger", trigger, "error", err)
		}
		metrics.RefreshSkippedTotal.WithLabelValues(reason).Inc()

		l.publish(prev)
		return
	}

	elapsed := time.Since(start)
	metrics.RefreshTotal.WithLabelValues(trigger).Inc()
	metrics.RefreshDurationMs.Observe(float64(elapsed.Microseconds()) / 1000)
	metrics.MarkersRemovedTotal.Add(float64(res.Removed))
	metrics.MarkersDrawnTotal.WithLabelValues(string(res.Mode)).Add(float64(res.Markers))
	metrics.MarkersCurrent.Set(float64(res.Markers))

	l.generation++
	now := time.Now()
	st := models.RefreshStatus{
		Generation: l.generation,
		Trigger:    trigger,
		Mode:       res.Mode,
		Zoom:       res.Zoom,
		Points:     res.Points,
		Clusters:   res.Clusters,
		Markers:    res.Markers,
		Stats:      l.stats,
		Dropped:    l.dropped,
		LastRender: &now,
	}
	if !l.lastFetch.IsZero() {
		fetched := l.lastFetch
		st.LastFetch = &fetched
	}
	if l.fetchErr != nil {
		st.LastError = l.fetchErr.Error()
	}
	l.publish(st)

	l.log.Debug("refresh_done",
		"trigger", trigger,
		"generation", l.generation,
		"mode", res.Mode,
		"zoom", res.Zoom,
		"points", res.Points,
		"markers", res.Markers,
		"removed", res.Removed,
		"elapsed", elapsed,
	)
}

func (l *Loop) publish(st models.RefreshStatus) {
	l.status.Store(&st)
}
