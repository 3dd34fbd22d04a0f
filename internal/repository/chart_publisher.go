package repository

import (
	"context"

	"NatalChart/internal/domain/models"
	domrepo "NatalChart/internal/domain/repository"
	pkgkafka "NatalChart/pkg/kafka"
)

type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaChartPublisher emits chart events keyed by chart id.
type KafkaChartPublisher struct {
	producer batchProducer
	topic    string
}

// NewKafkaChartPublisher creates Kafka publisher.
func NewKafkaChartPublisher(producer *pkgkafka.Producer, topic string) *KafkaChartPublisher {
	return &KafkaChartPublisher{producer: producer, topic: topic}
}

func (p *KafkaChartPublisher) PublishComputed(ctx context.Context, evt models.ChartComputed) error {
	headers := map[string]string{"event": "chart.computed"}
	if id := pkgkafka.TraceIDFrom(ctx); id != "" {
		headers["trace_id"] = id
	}
	return p.producer.PublishBatch(ctx, p.topic, []pkgkafka.Message{{
		Key:     []byte(evt.ChartID),
		Value:   evt,
		Headers: headers,
	}})
}

func (p *KafkaChartPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopChartPublisher drops events when Kafka is disabled.
type NoopChartPublisher struct{}

func (NoopChartPublisher) PublishComputed(context.Context, models.ChartComputed) error { return nil }

func (NoopChartPublisher) Close() error { return nil }

var (
	_ domrepo.ChartPublisher = (*KafkaChartPublisher)(nil)
	_ domrepo.ChartPublisher = NoopChartPublisher{}
)
