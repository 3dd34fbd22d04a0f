package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func (p *capturePublisher) all() []AggregatedLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []AggregatedLogEntry
	for _, b := range p.batches {
		out = append(out, b...)
	}
	return out
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.DebugLevel)

	l.With(String("component", "chart")).Info("computed",
		Float64("ascendant", 103.18),
		Int("bodies", 10),
		Bool("cached", false),
		Duration("took", 1500*time.Millisecond),
	)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "computed", entry["message"])
	assert.Equal(t, "chart", entry["component"])
	assert.Equal(t, 103.18, entry["ascendant"])
	assert.Equal(t, float64(10), entry["bodies"])
	assert.Equal(t, false, entry["cached"])
	assert.Equal(t, float64(1500), entry["took"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.WarnLevel)
	l.Info("hidden")
	assert.Zero(t, buf.Len())
	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}

func TestCollectorAggregatesErrors(t *testing.T) {
	pub := &capturePublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "natal.logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Error("archive failed", Error(errors.New("connection refused")))
	}
	l.Error("publish failed", String("topic", "natal.chart.events"))
	l.Warn("not collected")
	l.RemoveCollector()

	got := pub.all()
	require.Len(t, got, 2)
	assert.Equal(t, "natal.logs", pub.topic)
	assert.Equal(t, "archive failed", got[0].Message)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, "connection refused", got[0].Fields["error"])
	assert.Equal(t, 1, got[1].Count)
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub})
	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "b", nil, "x.go:2")
	c.Close()

	assert.Len(t, pub.all(), 2)
}
