package core

import "strings"

const RedactedValue = "[REDACTED]"

// sensitiveKeyParts match credential material in log fields and payloads,
// including the device context key header and the consumer secret.
var sensitiveKeyParts = []string{
	"secret",
	"token",
	"authorization",
	"password",
	"cmckey",
	"device_key",
	"consumer_key",
}

// RedactSensitiveMap returns a copy of fields with credential values
// replaced. Nested maps and slices are walked.
func RedactSensitiveMap(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	target := make(map[string]any, len(fields))
	for key, value := range fields {
		if shouldRedactKey(key) {
			target[key] = RedactedValue
			continue
		}
		target[key] = redactSensitiveValue(value)
	}
	return target
}

func redactSensitiveValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return RedactSensitiveMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = redactSensitiveValue(typed[i])
		}
		return out
	default:
		return value
	}
}

func shouldRedactKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" || isTraceabilityKey(key) {
		return false
	}
	for _, part := range sensitiveKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}

// isTraceabilityKey keeps correlation fields readable even when their names
// overlap a sensitive part.
func isTraceabilityKey(key string) bool {
	switch key {
	case "call_id", "endpoint", "environment", "operation", "idempotency_key", "token_fingerprint", "token_url":
		return true
	default:
		return false
	}
}
