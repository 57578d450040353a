package api_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/pathfinder/internal/api"
	"github.com/UnknownOlympus/pathfinder/internal/export"
	"github.com/UnknownOlympus/pathfinder/internal/geometry"
	"github.com/UnknownOlympus/pathfinder/internal/locsource"
	"github.com/UnknownOlympus/pathfinder/internal/metrics"
	"github.com/UnknownOlympus/pathfinder/internal/render"
	"github.com/UnknownOlympus/pathfinder/internal/service"
	"github.com/UnknownOlympus/pathfinder/internal/stream"
	"github.com/UnknownOlympus/pathfinder/internal/tracking"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionBody struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Points    []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"points"`
	Distance  string `json:"distance"`
	Area      string `json:"area"`
	Warning   string `json:"warning"`
	LastError *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
}

type testServer struct {
	router *gin.Engine
	feed   *locsource.Feed
	hub    *stream.Hub
	dir    string
}

func setupServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	feed := locsource.NewFeed()
	surface := render.NewMapSurface(nil, "640x640", logger)
	hub := stream.NewHub(logger)
	dir := filet.TmpDir(t, "")

	recorder := service.NewRecorder(
		logger,
		tracking.NewSession(geometry.NewSphericalProvider()),
		feed,
		render.NewMulti(surface, hub),
		export.NewExporter(func() time.Time { return time.UnixMilli(1718000000000) }),
		metrics.NewMetrics(prometheus.NewRegistry()),
		locsource.Options{HighAccuracy: true},
	)
	handler := api.NewSessionHandler(logger, recorder, feed, surface, export.NewDirSink(dir), hub)

	return testServer{router: api.NewRouter(logger, handler), feed: feed, hub: hub, dir: dir}
}

func (s testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	s.router.ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) sessionBody {
	t.Helper()

	var body sessionBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	return body
}

func (s testServer) record(t *testing.T) {
	t.Helper()

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/session/start", "").Code)
	for _, fix := range []string{
		`{"latitude":10,"longitude":20}`,
		`{"latitude":10,"longitude":21}`,
		`{"latitude":11,"longitude":21}`,
	} {
		require.Equal(t, http.StatusAccepted, s.do(t, http.MethodPost, "/api/session/fixes", fix).Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	defer filet.CleanUp(t)
	s := setupServer(t)

	w := s.do(t, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "idle", body.State)
	assert.Equal(t, "0.00 km", body.Distance)
	assert.Equal(t, "N/A", body.Area)

	w = s.do(t, http.MethodPost, "/api/session/start", "")
	require.Equal(t, http.StatusOK, w.Code)
	started := decode(t, w)
	assert.Equal(t, "tracking", started.State)
	assert.NotEmpty(t, started.SessionID)

	w = s.do(t, http.MethodPost, "/api/session/start", "")
	require.Equal(t, http.StatusConflict, w.Code)

	for _, fix := range []string{
		`{"latitude":10,"longitude":20}`,
		`{"latitude":10,"longitude":21}`,
		`{"latitude":11,"longitude":21}`,
	} {
		require.Equal(t, http.StatusAccepted, s.do(t, http.MethodPost, "/api/session/fixes", fix).Code)
	}

	w = s.do(t, http.MethodPost, "/api/session/stop", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "stopped", body.State)
	assert.Len(t, body.Points, 3)
	assert.Equal(t, started.SessionID, body.SessionID)
	assert.True(t, strings.HasSuffix(body.Area, " acres"))
	assert.True(t, strings.HasSuffix(body.Distance, " km"))
	assert.Empty(t, body.Warning)

	w = s.do(t, http.MethodPost, "/api/session/stop", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tracking.ErrAlreadyStopped.Error(), decode(t, w).Warning)

	w = s.do(t, http.MethodPost, "/api/session/fixes", `{"latitude":12,"longitude":22}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestStopSession(t *testing.T) {
	defer filet.CleanUp(t)

	t.Run("idle", func(t *testing.T) {
		s := setupServer(t)

		w := s.do(t, http.MethodPost, "/api/session/stop", "")

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("too few points", func(t *testing.T) {
		s := setupServer(t)
		require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/session/start", "").Code)
		s.do(t, http.MethodPost, "/api/session/fixes", `{"latitude":10,"longitude":20}`)

		w := s.do(t, http.MethodPost, "/api/session/stop", "")

		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "stopped", body.State)
		assert.Equal(t, "N/A (Need at least 3 points)", body.Area)
		assert.Equal(t, tracking.ErrInsufficientPoints.Error(), body.Warning)
	})
}

func TestPushFix(t *testing.T) {
	defer filet.CleanUp(t)
	s := setupServer(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/session/start", "").Code)

	t.Run("malformed body", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/session/fixes", `{"latitude":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("out of range surfaces as location error", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/session/fixes", `{"latitude":91,"longitude":0}`)
		require.Equal(t, http.StatusAccepted, w.Code)

		body := decode(t, s.do(t, http.MethodGet, "/api/session", ""))
		assert.Empty(t, body.Points)
		require.NotNil(t, body.LastError)
		assert.Equal(t, int(locsource.PositionUnavailable), body.LastError.Code)
	})

	t.Run("permission denied stops", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/session/fixes", `{"error":{"code":1,"message":"User denied Geolocation"}}`)
		require.Equal(t, http.StatusAccepted, w.Code)

		body := decode(t, s.do(t, http.MethodGet, "/api/session", ""))
		assert.Equal(t, "stopped", body.State)
		require.NotNil(t, body.LastError)
		assert.Equal(t, 1, body.LastError.Code)
	})
}

func TestExportSession(t *testing.T) {
	defer filet.CleanUp(t)

	t.Run("empty session", func(t *testing.T) {
		s := setupServer(t)

		w := s.do(t, http.MethodGet, "/api/session/export?format=csv", "")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("invalid format", func(t *testing.T) {
		s := setupServer(t)
		s.record(t)

		w := s.do(t, http.MethodGet, "/api/session/export?format=XML", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid export format")
		assert.Equal(t, "tracking", decode(t, s.do(t, http.MethodGet, "/api/session", "")).State)
	})

	t.Run("defaults to json", func(t *testing.T) {
		s := setupServer(t)
		s.record(t)

		w := s.do(t, http.MethodGet, "/api/session/export", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/json", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="gps_data_1718000000000.json"`, w.Header().Get("Content-Disposition"))
		assert.Contains(t, w.Body.String(), `"coordinates"`)
	})

	t.Run("csv saved to disk", func(t *testing.T) {
		s := setupServer(t)
		s.record(t)

		w := s.do(t, http.MethodGet, "/api/session/export?format=CSV&save=true", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(w.Body.String(), "Latitude,Longitude\n"))
		path := filepath.Join(s.dir, "gps_data_1718000000000.csv")
		assert.True(t, filet.Exists(t, path))
		assert.True(t, filet.FileSays(t, path, w.Body.Bytes()))
	})
}

func TestRenderMapDisabled(t *testing.T) {
	defer filet.CleanUp(t)
	s := setupServer(t)

	w := s.do(t, http.MethodGet, "/api/session/map.png", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLiveStream(t *testing.T) {
	defer filet.CleanUp(t)
	s := setupServer(t)
	server := httptest.NewServer(s.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/session/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/session/start", "").Code)
	require.Equal(t, http.StatusAccepted, s.do(t, http.MethodPost, "/api/session/fixes", `{"latitude":10,"longitude":20}`).Code)

	// start clears the path, then the fix draws it and recenters
	want := []string{stream.EventPath, stream.EventPath, stream.EventCenter}
	for _, eventType := range want {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var event stream.Event
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, eventType, event.Type)
	}
}

func TestOptionalRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	recorder := service.NewRecorder(
		logger,
		tracking.NewSession(geometry.NewSphericalProvider()),
		locsource.NewFeed(),
		render.NewMulti(),
		export.NewExporter(nil),
		metrics.NewMetrics(prometheus.NewRegistry()),
		locsource.Options{},
	)
	router := api.NewRouter(logger, api.NewSessionHandler(logger, recorder, nil, nil, nil, nil))

	for _, path := range []string{"/api/session/fixes", "/api/session/map.png", "/api/session/live"} {
		w := httptest.NewRecorder()
		req, err := http.NewRequest(http.MethodPost, path, nil)
		require.NoError(t, err)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}
