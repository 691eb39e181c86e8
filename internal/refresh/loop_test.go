package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skainet/concentration-map/internal/models"
	"github.com/skainet/concentration-map/internal/render"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func sampleLogs() []models.RawMessage {
	return []models.RawMessage{
		{
			"source_node": 1, "current_node": 2, "message_id": "a",
			"sender_name": "Asha", "message": "trapped", "urgency": "HIGH",
			"gps": map[string]any{"latitude": 31.78, "longitude": 77.00},
		},
		{
			"source_node": 1, "current_node": 2, "message_id": "b",
			"urgency": "LOW",
			"gps": map[string]any{"latitude": 31.7801, "longitude": 77.0001},
		},
		{
			"source_node": 3, "message_id": "c", "rescued": true,
			"gps": map[string]any{"latitude": 31.79, "longitude": 77.01},
		},
	}
}

type countingSource struct {
	mu    sync.Mutex
	calls int
	logs  []models.RawMessage
	err   error
}

func (s *countingSource) Snapshot(ctx context.Context) ([]models.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.logs, nil
}

func (s *countingSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *countingSource) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startLoop(t *testing.T, l *Loop) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("loop did not stop")
		}
	}
}

func TestLoopDrawsImmediately(t *testing.T) {
	surface := render.NewMemorySurface()
	surface.Attach(15)
	src := &countingSource{logs: sampleLogs()}

	l := NewLoop(src, surface, time.Hour, quiet)
	stop := startLoop(t, l)
	defer stop()

	waitFor(t, "first pass", func() bool { return l.Status().Generation >= 1 })

	st := l.Status()
	if st.Mode != models.ViewIndividual || st.Markers != 2 || st.Points != 2 {
		t.Fatalf("status = %+v, want 2 individual markers", st)
	}
	if st.Stats.Live != 2 || st.Stats.Rescued != 1 || st.Stats.High != 1 || st.Stats.Low != 1 {
		t.Errorf("stats = %+v", st.Stats)
	}
	if st.Dropped.Resolved != 1 {
		t.Errorf("dropped = %+v, want one resolved", st.Dropped)
	}
	if st.LastFetch == nil || st.LastRender == nil {
		t.Error("timestamps not set")
	}
	if surface.Len() != 2 {
		t.Errorf("surface markers = %d, want 2", surface.Len())
	}
}

func TestLoopZoomChangeRedrawsWithoutFetching(t *testing.T) {
	surface := render.NewMemorySurface()
	surface.Attach(15)
	src := &countingSource{logs: sampleLogs()}

	l := NewLoop(src, surface, time.Hour, quiet)
	stop := startLoop(t, l)
	defer stop()

	waitFor(t, "first pass", func() bool { return l.Status().Generation >= 1 })

	surface.SetZoom(9)
	waitFor(t, "cluster pass", func() bool { return l.Status().Mode == models.ViewCluster })

	st := l.Status()
	if st.Trigger != TriggerZoom || st.Zoom != 9 || st.Clusters != 1 || st.Markers != 1 {
		t.Fatalf("status = %+v, want one cluster at zoom 9", st)
	}
	if surface.Len() != 1 {
		t.Errorf("surface markers = %d, want 1", surface.Len())
	}
	if src.Calls() != 1 {
		t.Errorf("source called %d times, want 1", src.Calls())
	}
}

func TestLoopWaitsForSurface(t *testing.T) {
	surface := render.NewMemorySurface()
	src := &countingSource{logs: sampleLogs()}

	l := NewLoop(src, surface, time.Hour, quiet)
	stop := startLoop(t, l)
	defer stop()

	waitFor(t, "skipped pass", func() bool { return l.Status().SurfaceDown })
	if l.Status().Generation != 0 || surface.Len() != 0 {
		t.Fatalf("drew on an unavailable surface: %+v", l.Status())
	}

	surface.Attach(12)
	waitFor(t, "pass after attach", func() bool { return l.Status().Generation >= 1 })

	st := l.Status()
	if st.SurfaceDown || st.Mode != models.ViewCluster {
		t.Errorf("status = %+v", st)
	}
}

func TestLoopKeepsSnapshotOnFetchError(t *testing.T) {
	surface := render.NewMemorySurface()
	surface.Attach(15)
	src := &countingSource{logs: sampleLogs()}

	l := NewLoop(src, surface, 5*time.Millisecond, quiet)
	stop := startLoop(t, l)
	defer stop()

	waitFor(t, "first pass", func() bool { return l.Status().Generation >= 1 })
	src.Fail(errors.New("upstream down"))

	waitFor(t, "fetch error", func() bool { return l.Status().LastError != "" })
	st := l.Status()
	if st.Markers != 2 || surface.Len() != 2 {
		t.Errorf("markers = %d (surface %d), want previous 2 kept", st.Markers, surface.Len())
	}
}

func TestLoopManualTriggerFetches(t *testing.T) {
	surface := render.NewMemorySurface()
	surface.Attach(15)
	src := &countingSource{logs: sampleLogs()}

	l := NewLoop(src, surface, time.Hour, quiet)
	stop := startLoop(t, l)
	defer stop()

	waitFor(t, "first pass", func() bool { return l.Status().Generation >= 1 })
	l.Trigger()
	waitFor(t, "manual pass", func() bool { return l.Status().Trigger == TriggerManual })

	if src.Calls() != 2 {
		t.Errorf("source called %d times, want 2", src.Calls())
	}
}

func TestLoopClearsOnExit(t *testing.T) {
	surface := render.NewMemorySurface()
	surface.Attach(15)
	src := &countingSource{logs: sampleLogs()}

	l := NewLoop(src, surface, time.Hour, quiet)
	stop := startLoop(t, l)

	waitFor(t, "first pass", func() bool { return surface.Len() == 2 })
	stop()

	if surface.Len() != 0 {
		t.Errorf("markers left after shutdown: %d", surface.Len())
	}
	if l.Running() {
		t.Error("loop still reports running")
	}
}

// guardSurface fails the test if two passes touch the surface at once
type guardSurface struct {
	*render.MemorySurface
	active     atomic.Int32
	overlapped atomic.Bool
}

func (s *guardSurface) CreateMarker(pos models.Location, style render.MarkerStyle, popup render.Popup) render.Handle {
	if s.active.Add(1) > 1 {
		s.overlapped.Store(true)
	}
	time.Sleep(100 * time.Microsecond)
	defer s.active.Add(-1)
	return s.MemorySurface.CreateMarker(pos, style, popup)
}

func (s *guardSurface) ReplaceMarkers(remove []render.Handle, specs []render.MarkerSpec) []render.Handle {
	if s.active.Add(1) > 1 {
		s.overlapped.Store(true)
	}
	time.Sleep(100 * time.Microsecond)
	defer s.active.Add(-1)
	return s.MemorySurface.ReplaceMarkers(remove, specs)
}

func TestLoopNeverOverlapsPasses(t *testing.T) {
	surface := &guardSurface{MemorySurface: render.NewMemorySurface()}
	surface.Attach(15)
	src := &countingSource{logs: sampleLogs()}

	l := NewLoop(src, surface, time.Millisecond, quiet)
	stop := startLoop(t, l)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Trigger()
				surface.SetZoom(8 + (i+j)%10)
			}
		}(i)
	}
	wg.Wait()
	waitFor(t, "several passes", func() bool { return l.Status().Generation >= 5 })
	stop()

	if surface.overlapped.Load() {
		t.Fatal("recomputations overlapped")
	}
}

func TestRunTwiceReturns(t *testing.T) {
	surface := render.NewMemorySurface()
	surface.Attach(15)
	l := NewLoop(SourceFunc(func(context.Context) ([]models.RawMessage, error) {
		return nil, nil
	}), surface, time.Hour, quiet)

	stop := startLoop(t, l)
	defer stop()
	waitFor(t, "running", l.Running)

	done := make(chan struct{})
	go func() {
		l.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Run did not return")
	}
}

// brokenSurface reports a zoom failure unrelated to availability
type brokenSurface struct {
	*render.MemorySurface
}

func (s *brokenSurface) CurrentZoom() (int, error) {
	return 0, errors.New("zoom sensor offline")
}

func TestLoopReconcileErrorIsNotSurfaceDown(t *testing.T) {
	surface := &brokenSurface{MemorySurface: render.NewMemorySurface()}
	src := &countingSource{logs: sampleLogs()}

	l := NewLoop(src, surface, time.Hour, quiet)
	stop := startLoop(t, l)
	defer stop()

	waitFor(t, "failed pass", func() bool { return l.Status().LastError != "" })
	st := l.Status()
	if st.SurfaceDown {
		t.Errorf("status = %+v, want surfaceDown false for a non-availability error", st)
	}
	if st.Generation != 0 {
		t.Errorf("generation = %d, want no completed pass", st.Generation)
	}
}
