// Package worker runs flow invocations delivered over AMQP and publishes
// their results to a topic exchange.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"careerai/internal/ai"
	"careerai/internal/config"
	"careerai/internal/errors"
	"careerai/internal/flows"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Request is one queued invocation.
type Request struct {
	ID    string         `json:"id"`
	Flow  string         `json:"flow"`
	Input map[string]any `json:"input"`
}

// Invocation statuses
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Response is published once per request.
type Response struct {
	ID         string           `json:"id"`
	Flow       string           `json:"flow"`
	Status     string           `json:"status"`
	Result     any              `json:"result,omitempty"`
	Error      *errors.AppError `json:"error,omitempty"`
	Usage      *ai.TokenUsage   `json:"usage,omitempty"`
	WorkerID   string           `json:"workerId"`
	FinishedAt time.Time        `json:"finishedAt"`
}

// Invoker runs a named flow.
type Invoker interface {
	Invoke(ctx context.Context, name string, input map[string]any) (*flows.Result, error)
}

// Publisher is the part of *amqp.Channel used to send responses.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Worker consumes invocation requests with a fixed pool of goroutines.
type Worker struct {
	cfg     config.QueueConfig
	invoker Invoker
	logger  *errors.Logger
	now     func() time.Time
}

func New(cfg config.QueueConfig, invoker Invoker, logger *errors.Logger) *Worker {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.ConsumerID == "" {
		cfg.ConsumerID = "careerai-" + uuid.NewString()[:8]
	}
	return &Worker{cfg: cfg, invoker: invoker, logger: logger, now: time.Now}
}

// RoutingKey is the key a response for id is published under.
func RoutingKey(id string) string {
	return "invocation." + id
}

// Run connects to the broker and processes deliveries until ctx is done or
// the connection drops.
func (w *Worker) Run(ctx context.Context) error {
	conn, err := amqp.Dial(w.cfg.URL)
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeBackendUnavailable, "failed to connect to RabbitMQ", err)
	}
	defer conn.Close()
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := w.declare(ch); err != nil {
		return err
	}
	if err := ch.Qos(w.cfg.Workers, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	deliveries, err := ch.Consume(
		w.cfg.Queue,      // queue name
		w.cfg.ConsumerID, // consumer tag
		false,            // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", w.cfg.Queue, err)
	}

	w.logger.Info("Worker pool started",
		"queue", w.cfg.Queue,
		"exchange", w.cfg.Exchange,
		"workers", w.cfg.Workers,
		"consumer", w.cfg.ConsumerID)

	var wg sync.WaitGroup
	for i := range w.cfg.Workers {
		pub, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("open publish channel: %w", err)
		}
		wg.Add(1)
		go func(id int, pub *amqp.Channel) {
			defer wg.Done()
			defer pub.Close()
			w.consume(ctx, id, pub, deliveries)
		}(i+1, pub)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	return w.supervise(ctx, closed, finished, func() {
		if err := ch.Cancel(w.cfg.ConsumerID, false); err != nil {
			w.logger.Warn("Failed to cancel consumer", "error", err.Error())
		}
	})
}

// supervise blocks until shutdown or until the broker stops delivering.
// On shutdown it cancels the consumer and waits for in-flight requests. A
// dropped connection or consumer is returned as an error so the process
// can be restarted.
func (w *Worker) supervise(ctx context.Context, closed <-chan *amqp.Error, finished <-chan struct{}, cancel func()) error {
	select {
	case <-ctx.Done():
		cancel()
		<-finished
		w.logger.Info("Worker pool stopped")
		return nil
	case amqpErr, ok := <-closed:
		<-finished
		return connectionClosed(amqpErr, ok)
	case <-finished:
		select {
		case amqpErr, ok := <-closed:
			return connectionClosed(amqpErr, ok)
		default:
		}
		return errors.NewNetworkError(errors.ErrCodeBackendUnavailable, "RabbitMQ stopped delivering to consumer "+w.cfg.ConsumerID, nil)
	}
}

func connectionClosed(amqpErr *amqp.Error, ok bool) error {
	var cause error
	if ok && amqpErr != nil {
		cause = amqpErr
	}
	return errors.NewNetworkError(errors.ErrCodeBackendUnavailable, "RabbitMQ connection closed", cause)
}

func (w *Worker) declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		w.cfg.Exchange, // name
		"topic",        // kind
		true,           // durable
		false,          // auto-delete
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	); err != nil {
		return fmt.Errorf("declare exchange %s: %w", w.cfg.Exchange, err)
	}
	if _, err := ch.QueueDeclare(
		w.cfg.Queue, // queue name
		true,        // durable
		false,       // auto-delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	); err != nil {
		return fmt.Errorf("declare queue %s: %w", w.cfg.Queue, err)
	}
	return nil
}

// consume handles deliveries until the channel closes. A request already
// received runs to completion even when ctx is cancelled, so shutdown does
// not turn it into a failed response.
func (w *Worker) consume(ctx context.Context, id int, pub Publisher, deliveries <-chan amqp.Delivery) {
	logger := w.logger.With("worker", id)
	logger.Debug("Worker started")
	inflight := context.WithoutCancel(ctx)
	for d := range deliveries {
		w.handle(inflight, pub, d)
	}
	logger.Debug("Worker finished")
}

// handle processes one delivery and always acknowledges it: a request that
// failed produced a failed response, and redelivering it would fail again.
func (w *Worker) handle(ctx context.Context, pub Publisher, d amqp.Delivery) {
	resp := w.process(ctx, d.Body)

	body, err := json.Marshal(resp)
	if err != nil {
		w.logger.LogError(err, "Failed to encode response", "id", resp.ID)
		_ = d.Nack(false, false)
		return
	}

	msg := amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: resp.ID,
		Timestamp:     resp.FinishedAt,
		Body:          body,
	}
	if err := pub.Publish(w.cfg.Exchange, RoutingKey(resp.ID), false, false, msg); err != nil {
		w.logger.LogError(err, "Failed to publish response", "id", resp.ID)
		_ = d.Nack(false, true)
		return
	}
	if d.ReplyTo != "" {
		if d.CorrelationId != "" {
			msg.CorrelationId = d.CorrelationId
		}
		if err := pub.Publish("", d.ReplyTo, false, false, msg); err != nil {
			w.logger.Warn("Failed to publish reply", "id", resp.ID, "reply_to", d.ReplyTo, "error", err.Error())
		}
	}
	if err := d.Ack(false); err != nil {
		w.logger.Warn("Failed to ack delivery", "id", resp.ID, "error", err.Error())
	}
}

// process decodes and runs one request.
func (w *Worker) process(ctx context.Context, body []byte) Response {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return w.response(req, nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"invocation request is not valid JSON", err))
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Flow == "" {
		return w.response(req, nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"invocation request has no flow", nil))
	}

	result, err := w.invoker.Invoke(ctx, req.Flow, req.Input)
	return w.response(req, result, err)
}

func (w *Worker) response(req Request, result *flows.Result, err error) Response {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	resp := Response{
		ID:         req.ID,
		Flow:       req.Flow,
		WorkerID:   w.cfg.ConsumerID,
		FinishedAt: w.now().UTC(),
	}
	if err != nil {
		resp.Status = StatusFailed
		appErr, ok := errors.AsAppError(err)
		if !ok {
			appErr = errors.NewInternalError(errors.ErrCodeInternal, err.Error(), err)
		}
		resp.Error = appErr
		return resp
	}
	resp.Status = StatusSucceeded
	resp.Result = result.Value
	resp.Usage = result.Usage
	return resp
}
