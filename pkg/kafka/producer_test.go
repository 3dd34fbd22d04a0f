package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "NatalChart/pkg/logger"
)

var _ applogger.Publisher = (*Producer)(nil)

func TestPublishEncodesJSONWithHeaders(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "gzip", prometheus.NewRegistry())

	err := p.PublishBatch(context.Background(), "natal.chart.events", []Message{{
		Key:     []byte("chart-1"),
		Value:   map[string]int{"body_count": 10},
		Headers: map[string]string{"trace_id": "t-9"},
	}})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	got := w.msgs[0]
	assert.Equal(t, "natal.chart.events", got.Topic)
	assert.Equal(t, "chart-1", string(got.Key))
	assert.Equal(t, "t-9", ExtractTraceID(got))
	var decoded map[string]int
	require.NoError(t, json.Unmarshal(got.Value, &decoded))
	assert.Equal(t, 10, decoded["body_count"])
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.messages.WithLabelValues("natal.chart.events", "gzip", "ok")))
}

func TestPublishMessagePassesRawBytes(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "none", prometheus.NewRegistry())

	require.NoError(t, p.PublishMessage(context.Background(), "natal.logs", []byte(`[{"level":"error"}]`)))
	assert.Equal(t, `[{"level":"error"}]`, string(w.msgs[0].Value))
	assert.Nil(t, w.msgs[0].Key)

	require.NoError(t, p.PublishMessage(context.Background(), "natal.logs", []map[string]int{{"count": 2}}))
	assert.JSONEq(t, `[{"count":2}]`, string(w.msgs[1].Value))
}

func TestPublishCountsErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newProducer(w, "gzip", prometheus.NewRegistry())

	err := p.Publish(context.Background(), "natal.chart.events", nil, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "natal.chart.events")
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.errors.WithLabelValues("natal.chart.events")))
}

func TestPublishBatchEmptyIsNoop(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "gzip", nil)
	require.NoError(t, p.PublishBatch(context.Background(), "t", nil))
	assert.Empty(t, w.msgs)
}

func TestMetricsReuseRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := newProducerMetrics(reg)
	b := newProducerMetrics(reg)
	assert.Same(t, a.messages, b.messages)
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
}
