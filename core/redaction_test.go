package core

import (
	"context"
	"testing"

	glog "github.com/goliatone/go-logger/glog"
)

func TestRedactSensitiveMap(t *testing.T) {
	redacted := RedactSensitiveMap(map[string]any{
		"call_id":           "call-1",
		"token_fingerprint": "eyJh...9xQ",
		"access_token":      "secret-token",
		"cmcKey":            "device-key",
		"consumer_secret":   "s3cr3t",
		"nested":            map[string]any{"Authorization": "Bearer x", "tin": "P000000002"},
		"items":             []any{map[string]any{"device_key": "k"}},
	})

	for _, key := range []string{"access_token", "cmcKey", "consumer_secret"} {
		if redacted[key] != RedactedValue {
			t.Fatalf("expected %s to be redacted, got %#v", key, redacted[key])
		}
	}
	if redacted["call_id"] != "call-1" || redacted["token_fingerprint"] != "eyJh...9xQ" {
		t.Fatalf("expected correlation fields to stay visible, got %#v", redacted)
	}
	nested := redacted["nested"].(map[string]any)
	if nested["Authorization"] != RedactedValue || nested["tin"] != "P000000002" {
		t.Fatalf("unexpected nested redaction %#v", nested)
	}
	item := redacted["items"].([]any)[0].(map[string]any)
	if item["device_key"] != RedactedValue {
		t.Fatalf("expected slice entries to be walked, got %#v", item)
	}
}

func TestObserverLogRedactsFields(t *testing.T) {
	logger := &fieldLogger{}
	NewObserver(logger, nil).Log(context.Background(), "info", "sent", map[string]any{"cmcKey": "device-key", "endpoint": "/selectCodeList"})

	fields := map[string]any{}
	for i := 0; i+1 < len(logger.args); i += 2 {
		fields[logger.args[i].(string)] = logger.args[i+1]
	}
	if fields["cmcKey"] != RedactedValue || fields["endpoint"] != "/selectCodeList" {
		t.Fatalf("unexpected logged fields %#v", fields)
	}
}

type fieldLogger struct {
	args []any
}

func (l *fieldLogger) Trace(string, ...any)                    {}
func (l *fieldLogger) Debug(string, ...any)                    {}
func (l *fieldLogger) Info(_ string, args ...any)              { l.args = args }
func (l *fieldLogger) Warn(string, ...any)                     {}
func (l *fieldLogger) Error(string, ...any)                    {}
func (l *fieldLogger) Fatal(string, ...any)                    {}
func (l *fieldLogger) WithContext(context.Context) glog.Logger { return l }
