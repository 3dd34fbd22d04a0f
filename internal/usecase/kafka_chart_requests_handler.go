package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"NatalChart/internal/domain/models"
	domrepo "NatalChart/internal/domain/repository"
	pkgkafka "NatalChart/pkg/kafka"
	applogger "NatalChart/pkg/logger"
)

// chartComputer is the part of ChartService the consumer needs.
type chartComputer interface {
	Compute(ctx context.Context, in models.ChartInput, opts models.ChartOptions) (*models.Chart, error)
}

// KafkaChartRequestsHandler computes charts requested over Kafka. The result
// leaves through the service's ChartComputed event, traced by request_id.
type KafkaChartRequestsHandler struct {
	topic   string
	svc     chartComputer
	metrics domrepo.Metrics
	log     *applogger.Logger
}

func NewKafkaChartRequestsHandler(topic string, svc *ChartService, metrics domrepo.Metrics, l *applogger.Logger) *KafkaChartRequestsHandler {
	return &KafkaChartRequestsHandler{topic: topic, svc: svc, metrics: metrics, log: l}
}

func (h *KafkaChartRequestsHandler) Topic() string { return h.topic }

// Handle returns errors wrapping pkgkafka.ErrPermanent for requests that can
// never succeed, so the consumer skips retries and dead-letters them.
func (h *KafkaChartRequestsHandler) Handle(ctx context.Context, b []byte) error {
	var m models.ChartRequestMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode chart request: %w: %w", pkgkafka.ErrPermanent, err)
	}
	if pkgkafka.TraceIDFrom(ctx) == "" {
		ctx = pkgkafka.WithTraceID(ctx, m.RequestID)
	}

	in, opts, err := ResolveMessage(&m)
	if err != nil {
		return fmt.Errorf("request %s: %w: %w", m.RequestID, pkgkafka.ErrPermanent, err)
	}

	start := time.Now()
	chart, err := h.svc.Compute(ctx, in, opts)
	h.metrics.RecordLatency("consumer_compute", time.Since(start).Seconds())
	if err != nil {
		var ce *models.ChartError
		if errors.As(err, &ce) {
			return fmt.Errorf("request %s: %w: %w", m.RequestID, pkgkafka.ErrPermanent, err)
		}
		return fmt.Errorf("request %s: %w", m.RequestID, err)
	}

	if h.log != nil {
		h.log.Debug("chart request handled",
			applogger.String("request_id", m.RequestID),
			applogger.String("chart_id", chart.ID),
		)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaChartRequestsHandler)(nil)
