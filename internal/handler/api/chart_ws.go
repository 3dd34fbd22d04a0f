package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"NatalChart/internal/domain/models"
	"NatalChart/internal/service/metrics"
	"NatalChart/internal/usecase"
	xhttp "NatalChart/pkg/http"
	xlogger "NatalChart/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// wsFrame is the envelope of every server frame.
type wsFrame struct {
	Type   string      `json:"type"`
	Data   interface{} `json:"data,omitempty"`
	Errors interface{} `json:"errors,omitempty"`
}

// ChartWSHandler runs chart sessions over WebSocket: each text frame holding
// a chart request is answered with a chart or error frame.
type ChartWSHandler struct {
	logger       *xlogger.Logger
	svc          *usecase.ChartService
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	readLimit    int64
}

func NewChartWSHandler(logger *xlogger.Logger, svc *usecase.ChartService, pingInterval time.Duration) *ChartWSHandler {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &ChartWSHandler{
		logger:       logger,
		svc:          svc,
		pingInterval: pingInterval,
		readLimit:    64 << 10,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) write(f wsFrame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.conn.WriteJSON(f)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

// Serve upgrades the request and runs the session until the client leaves.
func (h *ChartWSHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	metrics.WSSessions.Inc()
	defer metrics.WSSessions.Dec()

	ws := &wsConn{conn: conn}
	ctx := c.Request().Context()
	done := make(chan struct{})
	defer close(done)

	conn.SetReadLimit(h.readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})

	// ping loop
	go func() {
		ticker := time.NewTicker(h.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := ws.ping(); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket closed", xlogger.Error(err))
			}
			return nil
		}
		_ = conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))

		if err := ws.write(h.handleFrame(c, b)); err != nil {
			h.logger.Debug("websocket write failed", xlogger.Error(err))
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (h *ChartWSHandler) handleFrame(c echo.Context, b []byte) wsFrame {
	const endpoint = "ws_chart"
	defer observe(endpoint, time.Now())

	req := &models.ChartRequest{}
	if err := json.Unmarshal(b, req); err != nil {
		metrics.APIErrors.WithLabelValues(endpoint, "decode").Inc()
		return wsFrame{Type: "error", Errors: []xhttp.ValidationError{{Code: "ERR_DECODE", Message: err.Error()}}}
	}
	if verr := xhttp.ValidateStruct(c.Request().Context(), req); verr != nil {
		metrics.APIErrors.WithLabelValues(endpoint, "validation").Inc()
		return wsFrame{Type: "error", Errors: verr}
	}

	in, opts, err := usecase.ResolveRequest(req, h.svc.Defaults())
	if err == nil {
		var chart *models.Chart
		chart, err = h.svc.Compute(withRequestTrace(c), in, opts)
		if err == nil {
			return wsFrame{Type: "chart", Data: PresentChart(chart, models.Locale(req.Lang), LabelsFor(*req))}
		}
	}
	metrics.APIErrors.WithLabelValues(endpoint, models.ErrorKind(err)).Inc()
	return wsFrame{Type: "error", Errors: []*xhttp.AppError{toAppError(err)}}
}
