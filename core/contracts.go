package core

import (
	"context"
	"errors"

	glog "github.com/goliatone/go-logger/glog"
)

var ErrTokenNotFound = errors.New("core: cached token not found")

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// TokenCache stores at most one bearer token per environment. Get returns
// ErrTokenNotFound when nothing usable is stored.
type TokenCache interface {
	Get(ctx context.Context, env Environment) (CachedToken, error)
	Set(ctx context.Context, env Environment, token CachedToken) error
	Invalidate(ctx context.Context, env Environment) error
}

// TokenSource is what the request pipeline needs from the auth client.
type TokenSource interface {
	Token(ctx context.Context, forceRefresh bool) (string, error)
	ForgetToken(ctx context.Context) error
}

type SchemaValidator interface {
	Validate(payload Payload, schemaName string) (Payload, error)
}

type Operation struct {
	EndpointKey string
	Method      string
}

type Sender interface {
	Send(ctx context.Context, op Operation, payload Payload) (Result, error)
}
