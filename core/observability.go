package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	OutcomeSuccess          = "success"
	OutcomeValidationFailed = "validation_failed"
	OutcomeBusinessError    = "business_error"
	OutcomeAPIError         = "api_error"
	OutcomeAuthFailed       = "auth_failed"
	OutcomeTransportFailed  = "transport_failed"
	OutcomeConfiguration    = "configuration_error"
	OutcomeFailure          = "failure"
)

// Observer records one counter and one duration histogram per observed call
// and logs the terminal outcome.
type Observer struct {
	logger  Logger
	metrics MetricsRecorder
}

func NewObserver(logger Logger, metrics MetricsRecorder) *Observer {
	if logger == nil {
		logger = glog.Nop()
	}
	if metrics == nil {
		metrics = NopMetricsRecorder{}
	}
	return &Observer{logger: logger, metrics: metrics}
}

func (o *Observer) Logger() Logger {
	if o == nil || o.logger == nil {
		return glog.Nop()
	}
	return o.logger
}

func (o *Observer) ObserveRequest(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if o == nil {
		return
	}
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	outcome := Outcome(err)
	duration := time.Since(startedAt)

	contextFields := cloneFields(fields)
	contextFields["operation"] = operation
	contextFields["outcome"] = outcome
	contextFields["duration_ms"] = duration.Milliseconds()
	if err != nil {
		contextFields["error"] = err.Error()
	}

	tags := map[string]string{
		"operation": operation,
		"status":    outcome,
	}
	if env := strings.TrimSpace(fmt.Sprint(contextFields["environment"])); env != "" && env != "<nil>" {
		tags["environment"] = env
	}

	o.metrics.IncCounter(ctx, MetricRequestTotal, 1, cloneTags(tags))
	o.metrics.ObserveHistogram(ctx, MetricRequestDurationMS, float64(duration.Milliseconds()), cloneTags(tags))

	if err != nil {
		o.Log(ctx, "error", operation+" failed", contextFields)
		return
	}
	o.Log(ctx, "info", operation+" succeeded", contextFields)
}

func (o *Observer) Count(ctx context.Context, name string, tags map[string]string) {
	if o == nil || o.metrics == nil {
		return
	}
	o.metrics.IncCounter(ctx, strings.TrimSpace(name), 1, cloneTags(tags))
}

func (o *Observer) Log(ctx context.Context, level string, message string, fields map[string]any) {
	if o == nil || o.logger == nil {
		return
	}
	logger := o.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	args := flattenFields(RedactSensitiveMap(fields))
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		logger.Debug(message, args...)
	case "warn":
		logger.Warn(message, args...)
	case "error":
		logger.Error(message, args...)
	default:
		logger.Info(message, args...)
	}
}

// Outcome maps an error onto the status tag used by metrics and logs.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if apiErr, ok := AsAPIError(err); ok {
		if apiErr.IsBusiness() {
			return OutcomeBusinessError
		}
		return OutcomeAPIError
	}
	if IsAuthError(err) {
		return OutcomeAuthFailed
	}
	if IsTransportError(err) {
		return OutcomeTransportFailed
	}
	if IsValidationError(err) {
		return OutcomeValidationFailed
	}
	if IsConfigurationError(err) || goerrors.IsCategory(err, goerrors.CategoryInternal) {
		return OutcomeConfiguration
	}
	return OutcomeFailure
}

// TokenFingerprint returns a short, non-reversible hint of a bearer token that
// is safe to log.
func TokenFingerprint(token string) string {
	token = strings.TrimSpace(token)
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	operation = strings.TrimSpace(operation)
	operation = strings.ReplaceAll(operation, " ", "_")
	operation = strings.ReplaceAll(operation, "-", "_")
	return operation
}
