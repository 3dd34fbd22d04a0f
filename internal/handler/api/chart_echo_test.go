package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NatalChart/internal/domain/models"
	domrepo "NatalChart/internal/domain/repository"
	"NatalChart/internal/repository"
	"NatalChart/internal/services/aspects"
	"NatalChart/internal/services/ephemeris"
	"NatalChart/internal/services/houses"
	"NatalChart/internal/usecase"
	"NatalChart/pkg/cache"
	xlogger "NatalChart/pkg/logger"
	"NatalChart/pkg/metrics"
)

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })

	calc := usecase.NewChartCalculator(ephemeris.NewEvaluator(), houses.NewCalculator(), aspects.NewDetector(), 4)
	svc := usecase.NewChartService(
		calc,
		repository.NewCacheChartArchive(mem, time.Hour),
		repository.NoopChartPublisher{},
		nil,
		metrics.New(prometheus.NewRegistry()),
		xlogger.NewNop(),
		usecase.ChartServiceConfig{Timeout: 5 * time.Second},
	)

	e := echo.New()
	NewChartEchoHandler(xlogger.NewNop(), svc, NewChartWSHandler(xlogger.NewNop(), svc, time.Second)).RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeChart(t *testing.T, rec *httptest.ResponseRecorder) ChartView {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var v ChartView
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func planet(t *testing.T, v ChartView, name string) PlanetView {
	t.Helper()
	for _, p := range v.Planets {
		if p.Planet == name {
			return p
		}
	}
	t.Fatalf("planet %s missing", name)
	return PlanetView{}
}

const zaragozaRequest = `{
	"name": "Test",
	"location": "Zaragoza",
	"date": "05/02/1993",
	"time": "15:30",
	"timezone": "Europe/Madrid",
	"latitude": 41.6561,
	"longitude": -0.8773,
	"house_system": "equal"
}`

func TestCreateChart(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/chart", zaragozaRequest)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	v := decodeChart(t, rec)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "Test", v.Name)
	assert.Equal(t, "Zaragoza", v.Location)
	assert.Equal(t, "05/02/1993", v.Date)
	assert.Equal(t, "15:30", v.Time)
	assert.Equal(t, "1993-02-05T14:30:00Z", v.Instant)
	assert.Equal(t, "equal", v.HouseSystem)
	assert.Len(t, v.Planets, 10)
	assert.Len(t, v.Houses, 12)

	sun := planet(t, v, "Sun")
	assert.Equal(t, "Aquarius", sun.Sign)
	assert.Equal(t, 8, sun.House)
	assert.Equal(t, "Direct", sun.Retrograde)

	mars := planet(t, v, "Mars")
	assert.Equal(t, "Cancer", mars.Sign)
	assert.Equal(t, "Retrograde", mars.Retrograde)

	assert.Equal(t, "Cancer", v.Ascendant.Sign)
	for _, p := range v.Planets {
		assert.GreaterOrEqual(t, p.SignDegrees, 0.0)
		assert.Less(t, p.SignDegrees, 30.0)
	}
}

func TestCreateChartFillsMissingLabels(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/chart", `{"instant":"1993-02-05T14:30:00Z","latitude":41.6561,"longitude":-0.8773}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	v := decodeChart(t, rec)
	assert.Empty(t, v.Name)
	assert.Equal(t, "41.6561, -0.8773", v.Location)
	assert.Equal(t, "05/02/1993", v.Date)
	assert.Equal(t, "14:30", v.Time)
}

func TestCreateChartSpanishNames(t *testing.T) {
	e := newTestServer(t)
	body := strings.Replace(zaragozaRequest, `"house_system": "equal"`, `"house_system": "equal", "lang": "es"`, 1)

	rec := do(e, http.MethodPost, "/api/chart", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	v := decodeChart(t, rec)
	sun := planet(t, v, "Sol")
	assert.Equal(t, "Acuario", sun.Sign)
	assert.Equal(t, "Retrógrado", planet(t, v, "Marte").Retrograde)
}

func TestCreateChartValidation(t *testing.T) {
	e := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing latitude", `{"instant":"1993-02-05T14:30:00Z","longitude":1}`},
		{"latitude out of range", `{"instant":"1993-02-05T14:30:00Z","latitude":91,"longitude":1}`},
		{"unknown house system", `{"instant":"1993-02-05T14:30:00Z","latitude":1,"longitude":1,"house_system":"koch"}`},
		{"date without time", `{"date":"05/02/1993","latitude":1,"longitude":1}`},
		{"bad timezone", `{"date":"05/02/1993","time":"10:00","timezone":"Mars/Olympus","latitude":1,"longitude":1}`},
		{"malformed json", `{"latitude":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/api/chart", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateChartOutOfRange(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/chart", `{"instant":"1850-01-01T00:00:00Z","latitude":10,"longitude":10}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "ERR_OUT_OF_RANGE_EPOCH")
}

func TestGetChart(t *testing.T) {
	e := newTestServer(t)

	created := decodeChart(t, do(e, http.MethodPost, "/api/chart", zaragozaRequest))

	rec := do(e, http.MethodGet, "/api/chart/"+created.ID+"?lang=es", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v := decodeChart(t, rec)
	assert.Equal(t, created.ID, v.ID)
	assert.Equal(t, "Acuario", planet(t, v, "Sol").Sign)

	rec = do(e, http.MethodGet, "/api/chart/6f1c7bde-6a53-4f0e-9f8d-7d3a3b1e2c10", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodGet, "/api/chart/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodGet, "/api/house-systems", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var hs houseSystemsView
	require.NoError(t, json.Unmarshal(env.Data, &hs))
	assert.ElementsMatch(t, []string{"placidus", "equal", "whole_sign", "porphyry"}, hs.Systems)
	assert.Equal(t, "placidus", hs.Default)

	rec = do(e, http.MethodGet, "/api/aspects", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var as []aspectView
	require.NoError(t, json.Unmarshal(env.Data, &as))
	require.Len(t, as, len(models.AspectDefs))
	assert.Equal(t, "conjunction", as[0].Type)
	assert.True(t, as[0].Enabled)
	assert.Equal(t, "opposition", as[len(as)-1].Type)

	rec = do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", domrepo.ErrChartNotFound, http.StatusNotFound, "ERR_NOT_FOUND"},
		{"undefined houses", models.NewChartError(models.ErrHouseSystemUndefined, models.StageHouses, "", "polar"), http.StatusUnprocessableEntity, "ERR_HOUSE_SYSTEM_UNDEFINED"},
		{"geometry", models.NewChartError(models.ErrInvalidHouseGeometry, models.StageAssign, "", "bad cusps"), http.StatusInternalServerError, "ERR_INTERNAL"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "ERR_INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := toAppError(tt.err)
			assert.Equal(t, tt.status, appErr.Status)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestChartWebSocket(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chart"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(zaragozaRequest)))
	var frame struct {
		Type string    `json:"type"`
		Data ChartView `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "chart", frame.Type)
	assert.Equal(t, "Aquarius", planet(t, frame.Data, "Sun").Sign)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"latitude":100}`)))
	var errFrame struct {
		Type   string            `json:"type"`
		Errors []json.RawMessage `json:"errors"`
	}
	require.NoError(t, conn.ReadJSON(&errFrame))
	assert.Equal(t, "error", errFrame.Type)
	assert.NotEmpty(t, errFrame.Errors)
}
