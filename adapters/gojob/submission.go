package gojob

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-etims/core"
	"github.com/goliatone/go-etims/operations"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

const (
	JobIDSubmit = "etims.operation.submit"

	ParamOperation = "operation"
	ParamPayload   = "payload"

	DedupPolicyDrop = "drop"
)

// Submission is one deferred state changing operation.
type Submission struct {
	Operation      string
	Payload        core.Payload
	IdempotencyKey string
}

// ToExecutionMessage maps a submission onto a go-job message. The script path
// carries the operation name so queue registries can route on it.
func ToExecutionMessage(s Submission) *job.ExecutionMessage {
	operation := strings.TrimSpace(s.Operation)
	return &job.ExecutionMessage{
		JobID:      JobIDSubmit,
		ScriptPath: "etims." + operation,
		Parameters: map[string]any{
			ParamOperation: operation,
			ParamPayload:   copyPayload(s.Payload),
		},
		IdempotencyKey: strings.TrimSpace(s.IdempotencyKey),
		DedupPolicy:    job.DeduplicationPolicy(DedupPolicyDrop),
	}
}

func FromExecutionMessage(msg *job.ExecutionMessage) (Submission, error) {
	if msg == nil {
		return Submission{}, fmt.Errorf("gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDSubmit {
		return Submission{}, fmt.Errorf("gojob: unexpected job id %q", msg.JobID)
	}
	operation, _ := msg.Parameters[ParamOperation].(string)
	if strings.TrimSpace(operation) == "" {
		return Submission{}, fmt.Errorf("gojob: message carries no operation")
	}
	var payload core.Payload
	switch typed := msg.Parameters[ParamPayload].(type) {
	case nil:
		payload = core.Payload{}
	case map[string]any:
		payload = copyPayload(typed)
	default:
		return Submission{}, fmt.Errorf("gojob: payload must be an object, got %T", typed)
	}
	return Submission{
		Operation:      strings.TrimSpace(operation),
		Payload:        payload,
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
	}, nil
}

// Enqueuer checks a submission against the operation table and its schema
// before it reaches the queue, so only well formed work is deferred.
type Enqueuer struct {
	enqueuer  queue.Enqueuer
	validator core.SchemaValidator
	table     operations.Table
}

func NewEnqueuer(enqueuer queue.Enqueuer, validator core.SchemaValidator) *Enqueuer {
	return &Enqueuer{enqueuer: enqueuer, validator: validator, table: operations.DefaultTable()}
}

func (e *Enqueuer) Submit(ctx context.Context, s Submission) error {
	if e == nil || e.enqueuer == nil {
		return core.NewConfigurationError(core.TextCodeConfigurationInvalid, "gojob: enqueuer is not configured", nil)
	}
	def, ok := e.table.Lookup(s.Operation)
	if !ok {
		return core.NewConfigurationError(
			core.TextCodeEndpointNotConfigured,
			"gojob: operation ["+strings.TrimSpace(s.Operation)+"] not registered",
			map[string]any{"operation": strings.TrimSpace(s.Operation)},
		)
	}
	if def.Kind != operations.KindCommand {
		return core.NewValidationError("gojob: only commands can be queued", nil)
	}
	if e.validator != nil {
		validated, err := e.validator.Validate(s.Payload, def.Schema)
		if err != nil {
			return err
		}
		s.Payload = validated
	}
	return e.enqueuer.Enqueue(ctx, ToExecutionMessage(s))
}

// SubmitRecord flattens a typed record the same way the facade does.
func (e *Enqueuer) SubmitRecord(ctx context.Context, operation string, record any, idempotencyKey string) error {
	payload, err := operations.ToPayload(record)
	if err != nil {
		return core.NewValidationError(err.Error(), nil)
	}
	return e.Submit(ctx, Submission{Operation: operation, Payload: payload, IdempotencyKey: idempotencyKey})
}

// SalesIdempotencyKey keys a sales submission on branch and invoice number.
func SalesIdempotencyKey(ids core.BusinessIdentifiers, invoiceNo int64) string {
	return fmt.Sprintf("etims:%s:%s:sale:%d", strings.TrimSpace(ids.TIN), strings.TrimSpace(ids.BranchID), invoiceNo)
}

func copyPayload(in map[string]any) core.Payload {
	out := make(core.Payload, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
