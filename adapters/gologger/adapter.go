package gologger

import (
	"strings"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// RootName prefixes every logger the SDK asks a provider for.
const RootName = "etims"

// Resolve uses the precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

// ComponentName returns "etims.<component>", or RootName for a blank component.
func ComponentName(component string) string {
	component = strings.Trim(strings.TrimSpace(component), ".")
	if component == "" {
		return RootName
	}
	return RootName + "." + component
}

// Component resolves a named logger for one SDK component such as "auth" or
// "pipeline". A provider is asked for the component name; otherwise the
// fallback logger is shared.
func Component(provider glog.LoggerProvider, fallback glog.Logger, component string) glog.Logger {
	if provider != nil {
		return glog.Ensure(provider.GetLogger(ComponentName(component)))
	}
	return glog.Ensure(fallback)
}

// ToJobProvider bridges a glog provider to go-job workers.
func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// ResolveForJob resolves the SDK logger for the queued submission worker and
// returns both the glog values and their go-job bridges.
func ResolveForJob(
	provider glog.LoggerProvider,
	logger glog.Logger,
) (glog.LoggerProvider, glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(ComponentName("worker"), provider, logger)
	return resolvedProvider, resolvedLogger, ToJobProvider(resolvedProvider), ToJobLogger(resolvedLogger)
}
