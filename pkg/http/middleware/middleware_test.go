package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	applogger "NatalChart/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLimiter struct {
	allow bool
	wait  time.Duration
	keys  []string
}

func (s *stubLimiter) Allow(key string) bool {
	s.keys = append(s.keys, key)
	return s.allow
}

func (s *stubLimiter) RetryAfter(string) time.Duration { return s.wait }

func newEcho(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.Use(mw...)
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/api/chart/:id", func(c echo.Context) error { return c.String(http.StatusOK, c.Param("id")) })
	e.GET("/boom", func(c echo.Context) error { panic("boom") })
	return e
}

func serve(e *echo.Echo, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitRejectsWithRetryAfter(t *testing.T) {
	l := &stubLimiter{allow: false, wait: 1500 * time.Millisecond}
	e := newEcho(RateLimit(l))

	rec := serve(e, http.MethodGet, "/api/chart/x", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	require.Len(t, l.keys, 1)
}

func TestRateLimitExemptsListedRoutes(t *testing.T) {
	l := &stubLimiter{allow: false}
	e := newEcho(RateLimit(l, "/health", "/api/chart/:id"))

	rec := serve(e, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = serve(e, http.MethodGet, "/api/chart/x", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, l.keys)
}

func TestRateLimitAllows(t *testing.T) {
	e := newEcho(RateLimit(&stubLimiter{allow: true}))
	rec := serve(e, http.MethodGet, "/api/chart/abc", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", rec.Body.String())
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	e := newEcho(Recover(applogger.NewNop()))
	rec := serve(e, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
}

func TestCORSPreflight(t *testing.T) {
	e := newEcho(CORS(CORSConfig{
		AllowOrigins: []string{"https://app.example"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))
	e.OPTIONS("/api/chart/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := serve(e, http.MethodOptions, "/api/chart/x", map[string]string{"Origin": "https://app.example"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))

	rec = serve(e, http.MethodGet, "/api/chart/x", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := newEcho(Metrics(reg, applogger.NewNop(), 0))

	serve(e, http.MethodGet, "/api/chart/a", nil)
	serve(e, http.MethodGet, "/api/chart/b", nil)

	m := metricsFor(reg)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/chart/:id", http.MethodGet, "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight.WithLabelValues("/api/chart/:id", http.MethodGet)))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "4xx", statusClass(422))
	assert.Equal(t, "5xx", statusClass(503))
}
