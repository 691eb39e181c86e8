package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	geojson "github.com/paulmach/go.geojson"

	"github.com/skainet/concentration-map/internal/config"
	"github.com/skainet/concentration-map/internal/database"
	"github.com/skainet/concentration-map/internal/handler"
	"github.com/skainet/concentration-map/internal/middleware"
	"github.com/skainet/concentration-map/internal/models"
	"github.com/skainet/concentration-map/internal/refresh"
	"github.com/skainet/concentration-map/internal/render"
	"github.com/skainet/concentration-map/internal/repository"
	"github.com/skainet/concentration-map/internal/service"
	"github.com/skainet/concentration-map/pkg/response"
)

const testSecret = "test-secret"

type testServer struct {
	router  *gin.Engine
	loop    *refresh.Loop
	surface *render.MemorySurface
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	conn, err := database.Open(database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "messages.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	cfg := &config.Config{JWTSecret: testSecret, NetworkName: "skAiNet", RateLimit: 1000}

	messages := service.NewMessageService(repository.NewMessageRepository(conn), cfg.NetworkName)
	surface := render.NewMemorySurface()
	loop := refresh.NewLoop(messages, surface, time.Hour, quiet)
	messages.OnChange(loop.Trigger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	router := SetupRouter(ctx, cfg, Handlers{
		Message: handler.NewMessageHandler(messages),
		Map:     handler.NewMapHandler(service.NewMapService(surface, loop)),
	}, quiet)

	return &testServer{router: router, loop: loop, surface: surface}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
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

func uplinkBatch() map[string]any {
	return map[string]any{"logs": []map[string]any{
		{
			"source_node": 1, "current_node": 4, "message_id": "m1", "log_id": "l1",
			"sender_name": "Asha", "message": "water rising", "urgency": "HIGH",
			"gps": map[string]any{"latitude": 31.78, "longitude": 77.00},
		},
		{
			"source_node": 2, "current_node": 4, "message_id": "m2", "log_id": "l2",
			"urgency": "LOW",
			"gps": map[string]any{"latitude": 31.7801, "longitude": 77.0001},
		},
	}}
}

func TestIngestAndRenderFlow(t *testing.T) {
	s := newTestServer(t)

	if w := s.do(t, http.MethodPost, "/api/v1/messages", map[string]any{"logs": []any{}}, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("empty batch status = %d", w.Code)
	}

	w := s.do(t, http.MethodPost, "/api/v1/messages", uplinkBatch(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("ingest status = %d: %s", w.Code, w.Body)
	}

	// nothing is drawn until a client reports its viewport
	waitFor(t, "skipped pass", func() bool { return s.loop.Status().SurfaceDown })

	if w := s.do(t, http.MethodPut, "/api/v1/map/viewport", map[string]any{"zoom": 9}, ""); w.Code != http.StatusAccepted {
		t.Fatalf("viewport status = %d", w.Code)
	}
	waitFor(t, "cluster marker", func() bool {
		st := s.loop.Status()
		return st.Mode == models.ViewCluster && st.Markers == 1 && st.Points == 2
	})

	w = s.do(t, http.MethodGet, "/api/v1/map/markers", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("markers status = %d", w.Code)
	}
	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	if err != nil {
		t.Fatalf("markers not GeoJSON: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("features = %d, want 1", len(fc.Features))
	}
	if color, _ := fc.Features[0].PropertyString("color"); color != "#ef4444" {
		t.Errorf("cluster color = %q, want critical red", color)
	}

	s.do(t, http.MethodPut, "/api/v1/map/viewport", map[string]any{"zoom": 15}, "")
	waitFor(t, "individual markers", func() bool { return s.surface.Len() == 2 })

	w = s.do(t, http.MethodGet, "/api/v1/map/status", nil, "")
	var env struct {
		Data models.RefreshStatus `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Data.Mode != models.ViewIndividual || env.Data.Stats.High != 1 || env.Data.Stats.Low != 1 {
		t.Errorf("status = %+v", env.Data)
	}
}

func TestViewportRejectsBadInput(t *testing.T) {
	s := newTestServer(t)
	for _, body := range []any{map[string]any{}, map[string]any{"zoom": "far"}} {
		if w := s.do(t, http.MethodPut, "/api/v1/map/viewport", body, ""); w.Code != http.StatusBadRequest {
			t.Errorf("body %v: status = %d, want 400", body, w.Code)
		}
	}
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.surface.Attach(15)
	s.do(t, http.MethodPost, "/api/v1/messages", uplinkBatch(), "")
	waitFor(t, "markers", func() bool { return s.surface.Len() == 2 })

	token, err := middleware.IssueToken(testSecret, "ops", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if w := s.do(t, http.MethodPost, "/api/v1/messages/rescued", map[string]any{"log_id": "l1"}, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/v1/messages/rescued", map[string]any{}, token); w.Code != http.StatusBadRequest {
		t.Errorf("missing log_id status = %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/v1/messages/rescued", map[string]any{"log_id": "zzz"}, token); w.Code != http.StatusNotFound {
		t.Errorf("unknown log_id status = %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/v1/messages/rescued", map[string]any{"log_id": "l1"}, token); w.Code != http.StatusOK {
		t.Fatalf("rescue status = %d", w.Code)
	}

	// the rescued incident disappears on the next pass
	waitFor(t, "rescued marker removed", func() bool { return s.surface.Len() == 1 })

	w := s.do(t, http.MethodGet, "/api/health", nil, "")
	var health models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health.TotalMessages != 2 || health.RescuedCount != 1 || health.Server != "skAiNet Cloud Backend" {
		t.Errorf("health = %+v", health)
	}

	if w := s.do(t, http.MethodPost, "/api/v1/messages/clear", nil, token); w.Code != http.StatusOK {
		t.Fatalf("clear status = %d", w.Code)
	}
	waitFor(t, "all markers removed", func() bool { return s.surface.Len() == 0 })
}

func TestLegacyEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/GetMessages", uplinkBatch(), "")
	var batch models.MessageBatchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &batch); err != nil || batch.Stored != 2 {
		t.Fatalf("legacy ingest = %s (%v)", w.Body, err)
	}

	w = s.do(t, http.MethodGet, "/api/messages", nil, "")
	var list models.MessageListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.NetworkName != "skAiNet" || list.UrgencyLevel != "HIGH" || list.TotalMessages != 2 || len(list.Logs) != 2 {
		t.Errorf("legacy list = %+v", list)
	}

	if w := s.do(t, http.MethodPost, "/api/clearMessages", nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("legacy clear without token = %d", w.Code)
	}
}

func TestMiscRoutes(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/messages", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight = %d %v", w.Code, w.Header())
	}

	if w := s.do(t, http.MethodGet, "/metrics", nil, ""); w.Code != http.StatusOK {
		t.Errorf("/metrics status = %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/v1/map/refresh", nil, "")
	var env response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil || w.Code != http.StatusAccepted {
		t.Errorf("refresh = %d %s", w.Code, w.Body)
	}
}
