package gojob

import (
	"context"

	"github.com/goliatone/go-etims/core"
	glog "github.com/goliatone/go-logger/glog"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

type stubQueueEnqueuer struct {
	last *job.ExecutionMessage
}

func (s *stubQueueEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	s.last = msg
	return nil
}

type stubQueueDelivery struct {
	msg      *job.ExecutionMessage
	acked    bool
	nacked   bool
	nackOpts queue.NackOptions
}

func (s *stubQueueDelivery) Message() *job.ExecutionMessage {
	return s.msg
}

func (s *stubQueueDelivery) Ack(context.Context) error {
	s.acked = true
	return nil
}

func (s *stubQueueDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	s.nacked = true
	s.nackOpts = opts
	return nil
}

type stubInvoker struct {
	name    string
	payload core.Payload
	result  core.Result
	err     error
}

func (s *stubInvoker) Invoke(_ context.Context, name string, payload core.Payload) (core.Result, error) {
	s.name = name
	s.payload = payload
	return s.result, s.err
}

type recordingLogger struct {
	lastMsg  string
	lastArgs []any
}

func (l *recordingLogger) record(msg string, args ...any) {
	l.lastMsg = msg
	l.lastArgs = append([]any(nil), args...)
}

func (l *recordingLogger) Trace(msg string, args ...any)           { l.record(msg, args...) }
func (l *recordingLogger) Debug(msg string, args ...any)           { l.record(msg, args...) }
func (l *recordingLogger) Info(msg string, args ...any)            { l.record(msg, args...) }
func (l *recordingLogger) Warn(msg string, args ...any)            { l.record(msg, args...) }
func (l *recordingLogger) Error(msg string, args ...any)           { l.record(msg, args...) }
func (l *recordingLogger) Fatal(msg string, args ...any)           { l.record(msg, args...) }
func (l *recordingLogger) WithContext(context.Context) glog.Logger { return l }

var (
	_ queue.Enqueuer = (*stubQueueEnqueuer)(nil)
	_ queue.Delivery = (*stubQueueDelivery)(nil)
	_ glog.Logger    = (*recordingLogger)(nil)
)
