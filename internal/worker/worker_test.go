package worker

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"careerai/internal/ai"
	"careerai/internal/config"
	"careerai/internal/errors"
	"careerai/internal/flows"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvoker struct {
	result  *flows.Result
	err     error
	flows   []string
	ctxErrs []error
}

func (f *fakeInvoker) Invoke(ctx context.Context, name string, _ map[string]any) (*flows.Result, error) {
	f.flows = append(f.flows, name)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.result, f.err
}

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange, key, msg})
	return nil
}

type fakeAck struct {
	acked    int
	nacked   int
	requeued bool
}

func (f *fakeAck) Ack(uint64, bool) error { f.acked++; return nil }

func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked++
	f.requeued = requeue
	return nil
}

func (f *fakeAck) Reject(uint64, bool) error { return nil }

func newTestWorker(inv Invoker) *Worker {
	w := New(config.QueueConfig{Queue: "q", Exchange: "careerai.results", Workers: 2, ConsumerID: "w-1"}, inv, errors.NewNop())
	w.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return w
}

func decodeResponse(t *testing.T, body []byte) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func TestHandleSuccess(t *testing.T) {
	inv := &fakeInvoker{result: &flows.Result{
		Value: []any{map[string]any{"title": "Go dev"}},
		Usage: &ai.TokenUsage{TotalTokens: 9},
	}}
	pub := &fakePublisher{}
	ack := &fakeAck{}
	w := newTestWorker(inv)

	w.handle(context.Background(), pub, amqp.Delivery{
		Acknowledger: ack,
		Body:         []byte(`{"id": "req-1", "flow": "searchJobs", "input": {"query": "go"}}`),
	})

	assert.Equal(t, []string{"searchJobs"}, inv.flows)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, "careerai.results", pub.sent[0].exchange)
	assert.Equal(t, "invocation.req-1", pub.sent[0].key)
	assert.Equal(t, "application/json", pub.sent[0].msg.ContentType)
	assert.Equal(t, "req-1", pub.sent[0].msg.CorrelationId)

	resp := decodeResponse(t, pub.sent[0].msg.Body)
	assert.Equal(t, StatusSucceeded, resp.Status)
	assert.Equal(t, []any{map[string]any{"title": "Go dev"}}, resp.Result)
	assert.Equal(t, 1, ack.acked)
}

func TestHandleFlowFailure(t *testing.T) {
	inv := &fakeInvoker{err: errors.NewInvalidInputError("searchJobs", stderrors.New("query missing"))}
	pub := &fakePublisher{}
	ack := &fakeAck{}

	newTestWorker(inv).handle(context.Background(), pub, amqp.Delivery{
		Acknowledger: ack,
		Body:         []byte(`{"id": "req-2", "flow": "searchJobs", "input": {}}`),
	})

	resp := decodeResponse(t, pub.sent[0].msg.Body)
	assert.Equal(t, StatusFailed, resp.Status)
	assert.Equal(t, errors.ErrCodeInvalidInput, resp.Error.Code)
	assert.Equal(t, 1, ack.acked)
}

func TestHandleMalformedRequest(t *testing.T) {
	inv := &fakeInvoker{}
	pub := &fakePublisher{}
	ack := &fakeAck{}

	newTestWorker(inv).handle(context.Background(), pub, amqp.Delivery{Acknowledger: ack, Body: []byte(`not json`)})

	assert.Empty(t, inv.flows)
	resp := decodeResponse(t, pub.sent[0].msg.Body)
	assert.Equal(t, StatusFailed, resp.Status)
	assert.Equal(t, errors.ErrCodeInvalidRequest, resp.Error.Code)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, RoutingKey(resp.ID), pub.sent[0].key)
	assert.Equal(t, 1, ack.acked)
}

func TestHandleRepliesWhenAsked(t *testing.T) {
	inv := &fakeInvoker{result: &flows.Result{Value: "posting"}}
	pub := &fakePublisher{}

	newTestWorker(inv).handle(context.Background(), pub, amqp.Delivery{
		Acknowledger:  &fakeAck{},
		ReplyTo:       "amq.rabbitmq.reply-to",
		CorrelationId: "corr-9",
		Body:          []byte(`{"flow": "generateJobPosting", "input": {}}`),
	})

	require.Len(t, pub.sent, 2)
	assert.Equal(t, "", pub.sent[1].exchange)
	assert.Equal(t, "amq.rabbitmq.reply-to", pub.sent[1].key)
	assert.Equal(t, "corr-9", pub.sent[1].msg.CorrelationId)
}

func TestHandlePublishFailureRequeues(t *testing.T) {
	inv := &fakeInvoker{result: &flows.Result{Value: "x"}}
	ack := &fakeAck{}

	newTestWorker(inv).handle(context.Background(), &fakePublisher{err: stderrors.New("channel closed")}, amqp.Delivery{
		Acknowledger: ack,
		Body:         []byte(`{"id": "req-3", "flow": "searchJobs"}`),
	})

	assert.Zero(t, ack.acked)
	assert.Equal(t, 1, ack.nacked)
	assert.True(t, ack.requeued)
}

func TestConsumeDrainsDeliveries(t *testing.T) {
	inv := &fakeInvoker{result: &flows.Result{Value: "x"}}
	pub := &fakePublisher{}
	deliveries := make(chan amqp.Delivery, 3)
	for range 3 {
		deliveries <- amqp.Delivery{Acknowledger: &fakeAck{}, Body: []byte(`{"flow": "searchJobs"}`)}
	}
	close(deliveries)

	newTestWorker(inv).consume(context.Background(), 1, pub, deliveries)
	assert.Len(t, pub.sent, 3)
}

func TestConsumeFinishesInflightRequestsAfterShutdown(t *testing.T) {
	inv := &fakeInvoker{result: &flows.Result{Value: "x"}}
	pub := &fakePublisher{}
	ack := &fakeAck{}
	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- amqp.Delivery{Acknowledger: ack, Body: []byte(`{"id": "r1", "flow": "searchJobs"}`)}
	close(deliveries)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	newTestWorker(inv).consume(ctx, 1, pub, deliveries)

	require.Len(t, inv.ctxErrs, 1)
	assert.NoError(t, inv.ctxErrs[0])
	require.Len(t, pub.sent, 1)
	assert.Equal(t, StatusSucceeded, decodeResponse(t, pub.sent[0].msg.Body).Status)
	assert.Equal(t, 1, ack.acked)
}

func TestSuperviseShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	finished := make(chan struct{})
	cancelled := false

	err := newTestWorker(&fakeInvoker{}).supervise(ctx, make(chan *amqp.Error), finished, func() {
		cancelled = true
		close(finished)
	})
	assert.NoError(t, err)
	assert.True(t, cancelled)
}

func TestSuperviseReportsDroppedConnection(t *testing.T) {
	closed := make(chan *amqp.Error, 1)
	closed <- &amqp.Error{Code: amqp.ConnectionForced, Reason: "broker shutdown"}
	finished := make(chan struct{})
	time.AfterFunc(10*time.Millisecond, func() { close(finished) })

	err := newTestWorker(&fakeInvoker{}).supervise(context.Background(), closed, finished, func() {
		t.Fatal("consumer must not be cancelled on a dropped connection")
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeBackendUnavailable))
	assert.ErrorContains(t, err, "broker shutdown")
}

func TestSuperviseReportsStoppedDeliveries(t *testing.T) {
	finished := make(chan struct{})
	close(finished)

	err := newTestWorker(&fakeInvoker{}).supervise(context.Background(), make(chan *amqp.Error), finished, func() {})
	assert.ErrorContains(t, err, "stopped delivering")
}

func TestNewDefaults(t *testing.T) {
	w := New(config.QueueConfig{}, &fakeInvoker{}, errors.NewNop())
	assert.Equal(t, 1, w.cfg.Workers)
	assert.NotEmpty(t, w.cfg.ConsumerID)
}
