package gojob

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-etims/core"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
)

const defaultBaseDelay = 5 * time.Second

// RetryPolicy defines queue retry bounds to avoid unbounded retry loops.
type RetryPolicy struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// NormalizeAttempt enforces bounded retry behavior for a nack operation.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}

// Backoff doubles BaseDelay per attempt, starting at attempt 1.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return delay
}

type Invoker interface {
	Invoke(ctx context.Context, name string, payload core.Payload) (core.Result, error)
}

// Processor runs queued submissions through the operation facade and settles
// each delivery: ack on success, requeue on transient failures, dead letter
// on failures a retry cannot fix.
type Processor struct {
	invoker Invoker
	policy  RetryPolicy
	logger  glog.Logger
}

type ProcessorOption func(*Processor)

func WithLogger(logger glog.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewProcessor(invoker Invoker, policy RetryPolicy, opts ...ProcessorOption) *Processor {
	p := &Processor{invoker: invoker, policy: policy, logger: glog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *Processor) Process(ctx context.Context, delivery queue.Delivery, attempt int) (core.Result, error) {
	if p == nil || p.invoker == nil {
		return core.Result{}, core.NewConfigurationError(core.TextCodeConfigurationInvalid, "gojob: processor is not configured", nil)
	}
	if delivery == nil {
		return core.Result{}, fmt.Errorf("gojob: delivery is required")
	}
	submission, err := FromExecutionMessage(delivery.Message())
	if err != nil {
		p.logger.Error("etims queued submission unreadable", "error", err)
		nackErr := delivery.Nack(ctx, p.policy.NormalizeAttempt(queue.NackOptions{
			DeadLetter: true,
			Reason:     err.Error(),
		}, attempt))
		if nackErr != nil {
			return core.Result{}, nackErr
		}
		return core.Result{}, err
	}

	result, err := p.invoker.Invoke(ctx, submission.Operation, submission.Payload)
	if err == nil {
		if ackErr := delivery.Ack(ctx); ackErr != nil {
			return result, ackErr
		}
		return result, nil
	}

	opts := queue.NackOptions{Reason: core.Outcome(err) + ": " + err.Error()}
	if Retryable(err) {
		opts.Requeue = true
		opts.Delay = p.policy.Backoff(attempt)
	} else {
		opts.DeadLetter = true
	}
	opts = p.policy.NormalizeAttempt(opts, attempt)
	p.logger.Warn("etims queued submission failed",
		"operation", submission.Operation,
		"idempotency_key", submission.IdempotencyKey,
		"attempt", attempt,
		"requeue", opts.Requeue,
		"dead_letter", opts.DeadLetter,
		"error", err,
	)
	if nackErr := delivery.Nack(ctx, opts); nackErr != nil {
		return result, nackErr
	}
	return result, err
}

// Retryable reports whether a failed submission may succeed later. Transport
// failures, token failures and gateway side HTTP errors qualify; validation,
// configuration and business rejections do not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if core.IsValidationError(err) || core.IsConfigurationError(err) {
		return false
	}
	if core.IsTransportError(err) || core.IsAuthError(err) {
		return true
	}
	if apiErr, ok := core.AsAPIError(err); ok {
		if apiErr.IsBusiness() {
			return false
		}
		return apiErr.HTTPStatus >= http.StatusInternalServerError || apiErr.HTTPStatus == http.StatusTooManyRequests
	}
	return false
}

// WorkerHook logs go-job worker lifecycle events for queued submissions.
type WorkerHook struct {
	logger glog.Logger
}

func NewWorkerHook(logger glog.Logger) *WorkerHook {
	if logger == nil {
		logger = glog.Nop()
	}
	return &WorkerHook{logger: logger}
}

func (h *WorkerHook) OnStart(_ context.Context, event worker.Event) {
	h.logger.Debug("etims queued submission started", eventFields(event)...)
}

func (h *WorkerHook) OnSuccess(_ context.Context, event worker.Event) {
	h.logger.Info("etims queued submission succeeded", eventFields(event)...)
}

func (h *WorkerHook) OnFailure(_ context.Context, event worker.Event) {
	h.logger.Error("etims queued submission failed", eventFields(event)...)
}

func (h *WorkerHook) OnRetry(_ context.Context, event worker.Event) {
	h.logger.Warn("etims queued submission retrying", eventFields(event)...)
}

func eventFields(event worker.Event) []any {
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	fields := []any{"attempt", event.Attempt}
	if message != nil {
		fields = append(fields,
			"job_id", message.JobID,
			"script_path", message.ScriptPath,
			"idempotency_key", message.IdempotencyKey,
		)
	}
	if event.Delay > 0 {
		fields = append(fields, "delay_ms", event.Delay.Milliseconds())
	}
	if event.Duration > 0 {
		fields = append(fields, "duration_ms", event.Duration.Milliseconds())
	}
	if event.Err != nil {
		fields = append(fields, "error", event.Err.Error())
	}
	return fields
}

var _ worker.Hook = (*WorkerHook)(nil)
