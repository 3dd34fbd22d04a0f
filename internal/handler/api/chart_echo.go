package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"NatalChart/internal/domain/models"
	"NatalChart/internal/service/metrics"
	"NatalChart/internal/services/houses"
	"NatalChart/internal/usecase"
	xhttp "NatalChart/pkg/http"
	pkgkafka "NatalChart/pkg/kafka"
	xlogger "NatalChart/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ChartEchoHandler serves the chart API.
type ChartEchoHandler struct {
	logger *xlogger.Logger
	svc    *usecase.ChartService
	ws     *ChartWSHandler
}

func NewChartEchoHandler(logger *xlogger.Logger, svc *usecase.ChartService, ws *ChartWSHandler) *ChartEchoHandler {
	metrics.Register()
	return &ChartEchoHandler{logger: logger, svc: svc, ws: ws}
}

func (h *ChartEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/chart", h.CreateChart)
	g.GET("/chart/:id", h.GetChart)
	g.GET("/house-systems", h.HouseSystems)
	g.GET("/aspects", h.Aspects)
	e.GET("/health", h.Health)
	if h.ws != nil {
		e.GET("/ws/chart", h.ws.Serve)
	}
}

// CreateChart computes a chart from date, time and place.
func (h *ChartEchoHandler) CreateChart(c echo.Context) error {
	const endpoint = "create_chart"
	defer observe(endpoint, time.Now())

	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues(endpoint, "validation").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	in, opts, err := usecase.ResolveRequest(req, h.svc.Defaults())
	if err != nil {
		return h.fail(c, endpoint, err)
	}

	ctx := withRequestTrace(c)
	chart, err := h.svc.Compute(ctx, in, opts)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return xhttp.CreatedResponse(c, PresentChart(chart, models.Locale(req.Lang), LabelsFor(*req)))
}

// GetChart returns an archived chart.
func (h *ChartEchoHandler) GetChart(c echo.Context) error {
	const endpoint = "get_chart"
	defer observe(endpoint, time.Now())

	req := &models.ChartIDRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues(endpoint, "validation").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	chart, err := h.svc.Get(c.Request().Context(), req.ID)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=3600")
	return xhttp.SuccessResponse(c, PresentChart(chart, models.Locale(req.Lang), Labels{}))
}

type houseSystemsView struct {
	Systems  []string `json:"systems"`
	Default  string   `json:"default"`
	Fallback string   `json:"fallback,omitempty"`
}

// HouseSystems lists the supported house systems.
func (h *ChartEchoHandler) HouseSystems(c echo.Context) error {
	d := h.svc.Defaults()
	names := houses.Names()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return xhttp.SuccessResponse(c, houseSystemsView{
		Systems:  out,
		Default:  string(d.HouseSystem),
		Fallback: string(d.FallbackHouseSystem),
	})
}

type aspectView struct {
	Type    string  `json:"type"`
	Angle   float64 `json:"angle"`
	Orb     float64 `json:"orb"`
	Enabled bool    `json:"enabled"`
}

// Aspects lists every aspect type with the active orb table.
func (h *ChartEchoHandler) Aspects(c echo.Context) error {
	orbs := h.svc.Defaults().Orbs
	out := make([]aspectView, 0, len(models.AspectDefs))
	for _, d := range models.AspectDefs {
		orb, enabled := orbs[d.Type]
		if !enabled {
			orb = d.DefaultOrb
		}
		out = append(out, aspectView{Type: string(d.Type), Angle: d.Angle, Orb: orb, Enabled: enabled})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Angle < out[j].Angle })
	return xhttp.SuccessResponse(c, out)
}

// Health reports service and archive status.
func (h *ChartEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.svc.Health(ctx); err != nil {
		h.logger.Warn("health check failed", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "archive": err.Error()})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *ChartEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	metrics.APIErrors.WithLabelValues(endpoint, models.ErrorKind(err)).Inc()
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("chart request failed", xlogger.String("endpoint", endpoint), xlogger.Error(err))
	} else if !errors.Is(err, context.Canceled) {
		h.logger.Debug("chart request rejected", xlogger.String("endpoint", endpoint), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func observe(endpoint string, start time.Time) {
	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// withRequestTrace carries the echo request id into published events.
func withRequestTrace(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return pkgkafka.WithTraceID(ctx, id)
	}
	return ctx
}
