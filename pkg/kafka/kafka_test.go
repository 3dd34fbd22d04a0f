package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	mu        sync.Mutex
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

type fakeHandler struct {
	topic string
	errs  []error
	calls int
	ctxs  []context.Context
}

func (h *fakeHandler) Topic() string { return h.topic }

func (h *fakeHandler) Handle(ctx context.Context, _ []byte) error {
	h.ctxs = append(h.ctxs, ctx)
	h.calls++
	if len(h.errs) == 0 {
		return nil
	}
	err := h.errs[0]
	h.errs = h.errs[1:]
	return err
}

func testConsumer(t *testing.T, dlq bool) (*Consumer, *fakeReader, *fakeWriter) {
	t.Helper()
	cfg := &ConsumerConfig{
		RetryMax:   2,
		BackoffMin: time.Millisecond,
		BackoffMax: 2 * time.Millisecond,
		BufferSize: 4,
		Registerer: prometheus.NewRegistry(),
	}
	c := newConsumer(cfg)
	r := &fakeReader{}
	c.readers["natal.chart.requests"] = r
	w := &fakeWriter{}
	if dlq {
		cfg.DLQTopic = "natal.chart.requests.dlq"
		c.dlq = w
	}
	return c, r, w
}

func TestProcessRetriesThenCommits(t *testing.T) {
	c, r, _ := testConsumer(t, false)
	h := &fakeHandler{topic: "natal.chart.requests", errs: []error{errors.New("transient")}}

	c.process(h, &message{topic: h.topic, data: []byte(`{}`), km: kafka.Message{Offset: 7}})

	assert.Equal(t, 2, h.calls)
	require.Len(t, r.committed, 1)
	assert.Equal(t, int64(7), r.committed[0].Offset)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.results.WithLabelValues(h.topic, "ok")))
}

func TestProcessPermanentErrorGoesToDLQ(t *testing.T) {
	c, r, w := testConsumer(t, true)
	h := &fakeHandler{topic: "natal.chart.requests", errs: []error{
		&HookError{Code: "ERR_DECODE", Err: ErrPermanent},
	}}
	km := kafka.Message{Key: []byte("k"), Headers: []kafka.Header{{Key: "trace_id", Value: []byte("t-1")}}}

	c.process(h, &message{topic: h.topic, data: []byte(`bad`), km: km})

	assert.Equal(t, 1, h.calls)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "natal.chart.requests.dlq", w.msgs[0].Topic)
	assert.Equal(t, []byte(`bad`), w.msgs[0].Value)
	assert.Equal(t, "t-1", ExtractTraceID(w.msgs[0]))
	assert.Len(t, r.committed, 1)
}

func TestProcessWithoutDLQLeavesOffsetUncommitted(t *testing.T) {
	c, r, _ := testConsumer(t, false)
	fail := errors.New("down")
	h := &fakeHandler{topic: "natal.chart.requests", errs: []error{fail, fail, fail, fail}}

	c.process(h, &message{topic: h.topic})

	assert.Equal(t, 3, h.calls)
	assert.Empty(t, r.committed)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.results.WithLabelValues(h.topic, "failed")))
}

func TestProcessRecoversHandlerPanic(t *testing.T) {
	c, _, _ := testConsumer(t, false)
	h := panicHandler{topic: "natal.chart.requests"}
	assert.NotPanics(t, func() { c.process(h, &message{topic: h.topic}) })
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.results.WithLabelValues(h.topic, "panic")))
}

type panicHandler struct{ topic string }

func (h panicHandler) Topic() string                        { return h.topic }
func (h panicHandler) Handle(context.Context, []byte) error { panic("boom") }

func TestTraceHookPropagatesTraceID(t *testing.T) {
	c, _, _ := testConsumer(t, false)
	c.WithConsumerHook(NewHookChain(TraceHook(), nil))
	h := &fakeHandler{topic: "natal.chart.requests"}
	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}

	c.process(h, &message{topic: h.topic, km: km})

	require.Len(t, h.ctxs, 1)
	assert.Equal(t, "abc", TraceIDFrom(h.ctxs[0]))
}

func TestStopDrainsQueuedMessages(t *testing.T) {
	c, r, _ := testConsumer(t, false)
	h := &fakeHandler{topic: "natal.chart.requests"}
	c.handlers[h.topic] = h
	c.cfg.WorkerCount = 1

	c.msgChan <- &message{topic: h.topic, km: kafka.Message{Offset: 1}}
	c.msgChan <- &message{topic: h.topic, km: kafka.Message{Offset: 2}}
	c.startWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))
	assert.Equal(t, 2, h.calls)
	assert.Len(t, r.committed, 2)
}

func TestHookChainOrderAndPanicSafety(t *testing.T) {
	var order []string
	mk := func(name string) ConsumerHook {
		return HookFuncs{
			Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
				order = append(order, "before:"+name)
				return ctx, km, append(data, name...), nil
			},
			After: func(context.Context, string, kafka.Message, []byte, error) {
				order = append(order, "after:"+name)
			},
		}
	}
	chain := NewHookChain(mk("a"), mk("b"))

	_, _, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(data))
	chain.AfterHandle(context.Background(), "t", kafka.Message{}, data, nil)
	assert.Equal(t, []string{"before:a", "before:b", "after:b", "after:a"}, order)

	var seen error
	panicky := HookFuncs{Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
		panic("nope")
	}}
	recorder := HookFuncs{Err: func(_ context.Context, _ string, _ kafka.Message, _ []byte, err error) { seen = err }}
	_, _, _, err = NewHookChain(panicky, recorder).BeforeHandle(context.Background(), "t", kafka.Message{}, nil)

	var he *HookError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "ERR_PANIC", he.Code)
	assert.Equal(t, err, seen)
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 200*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 200*time.Millisecond)
	}
	d := backoffWithJitter(100*time.Millisecond, 50*time.Millisecond, 1)
	assert.GreaterOrEqual(t, d, 50*time.Millisecond)
	assert.LessOrEqual(t, d, 100*time.Millisecond)
}
