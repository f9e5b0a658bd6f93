package gologger

import (
	"context"
	"testing"

	glog "github.com/goliatone/go-logger/glog"
)

func TestResolveDeterministicFallback(t *testing.T) {
	loggerOnly := &capturingLogger{id: "logger"}
	provider := &capturingProvider{logger: &capturingLogger{id: "provider"}}

	_, resolved := Resolve(RootName, provider, loggerOnly)
	if got := resolved.(*capturingLogger); got.id != "provider" {
		t.Fatalf("expected provider logger precedence, got %q", got.id)
	}

	resolvedProvider, resolved := Resolve(RootName, nil, loggerOnly)
	if got := resolved.(*capturingLogger); got.id != "logger" {
		t.Fatalf("expected direct logger when provider is nil, got %q", got.id)
	}
	if resolvedProvider == nil {
		t.Fatalf("expected provider wrapper from logger")
	}

	if _, resolved = Resolve(RootName, nil, nil); resolved == nil {
		t.Fatalf("expected nop logger fallback")
	}
}

func TestComponentNames(t *testing.T) {
	cases := map[string]string{
		"":          "etims",
		"auth":      "etims.auth",
		" .cache. ": "etims.cache",
	}
	for component, want := range cases {
		if got := ComponentName(component); got != want {
			t.Fatalf("component %q: expected %q, got %q", component, want, got)
		}
	}
}

func TestComponentAsksProviderByName(t *testing.T) {
	provider := &capturingProvider{logger: &capturingLogger{id: "provider"}}
	fallback := &capturingLogger{id: "fallback"}

	if got := Component(provider, fallback, "pipeline").(*capturingLogger); got.id != "provider" {
		t.Fatalf("expected provider logger, got %q", got.id)
	}
	if provider.lastName != "etims.pipeline" {
		t.Fatalf("expected component name request, got %q", provider.lastName)
	}
	if got := Component(nil, fallback, "pipeline").(*capturingLogger); got.id != "fallback" {
		t.Fatalf("expected fallback logger, got %q", got.id)
	}
	if Component(nil, nil, "pipeline") == nil {
		t.Fatalf("expected nop logger")
	}
}

func TestGoJobBridgeCompatibility(t *testing.T) {
	providerLogger := &capturingLogger{id: "provider"}
	provider := &capturingProvider{logger: providerLogger}

	_, _, jobProvider, jobLogger := ResolveForJob(provider, nil)
	if jobProvider == nil || jobLogger == nil {
		t.Fatalf("expected go-job bridges")
	}

	jobProvider.GetLogger(ComponentName("worker")).Info("hello", "k", "v")
	captured := providerLogger.lastInfo
	if captured.msg != "hello" {
		t.Fatalf("expected bridged message, got %q", captured.msg)
	}
	if captured.args[0] != "k" || captured.args[1] != "v" {
		t.Fatalf("expected bridged args, got %#v", captured.args)
	}
}

var (
	_ glog.Logger         = (*capturingLogger)(nil)
	_ glog.LoggerProvider = (*capturingProvider)(nil)
)

type capturingProvider struct {
	logger   *capturingLogger
	lastName string
}

func (p *capturingProvider) GetLogger(name string) glog.Logger {
	if p == nil || p.logger == nil {
		return glog.Nop()
	}
	p.lastName = name
	return p.logger
}

type infoCall struct {
	msg  string
	args []any
}

type capturingLogger struct {
	id       string
	lastInfo infoCall
}

func (l *capturingLogger) Trace(string, ...any) {}
func (l *capturingLogger) Debug(string, ...any) {}
func (l *capturingLogger) Warn(string, ...any)  {}
func (l *capturingLogger) Error(string, ...any) {}
func (l *capturingLogger) Fatal(string, ...any) {}

func (l *capturingLogger) Info(msg string, args ...any) {
	l.lastInfo = infoCall{
		msg:  msg,
		args: append([]any(nil), args...),
	}
}

func (l *capturingLogger) WithContext(context.Context) glog.Logger {
	return l
}
