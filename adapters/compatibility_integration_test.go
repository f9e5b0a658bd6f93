package adapters_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-command"
	etims "github.com/goliatone/go-etims"
	"github.com/goliatone/go-etims/adapters/gocommand"
	"github.com/goliatone/go-etims/adapters/gojob"
	"github.com/goliatone/go-etims/adapters/gologger"
	etimscommand "github.com/goliatone/go-etims/command"
	"github.com/goliatone/go-etims/core"
	"github.com/goliatone/go-etims/operations"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	glog "github.com/goliatone/go-logger/glog"
)

func newCompatClient(t *testing.T, apiHits *atomic.Int32) *etims.Client {
	t.Helper()
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/token/generate" {
			_, _ = io.WriteString(w, `{"access_token":"compat-token","expires_in":3599}`)
			return
		}
		apiHits.Add(1)
		_, _ = io.WriteString(w, `{"resultCd":"0000","resultMsg":"It is succeeded"}`)
	}))
	t.Cleanup(server.Close)

	cfg := etims.Config{
		Environment: string(core.EnvironmentSandbox),
		Cache:       core.CacheConfig{Driver: core.CacheDriverMemory},
		Business:    core.BusinessConfig{TIN: "P000000002", BranchID: "00", DeviceKey: "cmc-1"},
	}
	cfg.Auth.Sandbox = core.EnvironmentCredentials{
		TokenURL:       server.URL + "/v1/token/generate",
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
	}
	cfg.API.Sandbox.BaseURL = server.URL

	logger := &compatLogger{}
	client, err := etims.New(cfg,
		etims.WithHTTPClient(server.Client()),
		etims.WithLoggerProvider(&compatProvider{logger: logger}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func stockMasterPayload() core.Payload {
	return core.Payload{
		"itemCd": "KE2NTBA00000001",
		"rsdQty": 12,
		"regrId": "Admin",
		"regrNm": "Admin",
		"modrId": "Admin",
		"modrNm": "Admin",
	}
}

func TestRuntimeCompatibility_GoJobGoCommandGoLogger(t *testing.T) {
	_, _, jobProvider, jobLogger := gologger.ResolveForJob(&compatProvider{logger: &compatLogger{}}, nil)
	if jobProvider == nil || jobLogger == nil {
		t.Fatalf("expected go-job logger bridges")
	}

	var apiHits atomic.Int32
	client := newCompatClient(t, &apiHits)

	queueRegistry := jobqueuecommand.NewRegistry()
	commandAdapter := gocommand.NewRegistryAdapter(command.NewRegistry())
	if err := commandAdapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	subs, err := gocommand.Mount(commandAdapter, client.Facade())
	if err != nil {
		t.Fatalf("mount facade: %v", err)
	}
	defer subs.Unsubscribe()
	if err := commandAdapter.Initialize(); err != nil {
		t.Fatalf("initialize command registry: %v", err)
	}
	if _, ok := queueRegistry.Get(etimscommand.TypeSubmit); !ok {
		t.Fatalf("expected submit command mirrored into go-job queue registry")
	}

	result, err := gocommand.Submit(context.Background(), operations.SaveStockMaster, stockMasterPayload())
	if err != nil {
		t.Fatalf("dispatch submit: %v", err)
	}
	if result.ResultCode() != core.ResultSuccessCode || apiHits.Load() != 1 {
		t.Fatalf("expected one successful remote call, got %+v after %d hits", result, apiHits.Load())
	}
}

func TestRuntimeCompatibility_QueuedSubmissionReachesRemote(t *testing.T) {
	var apiHits atomic.Int32
	client := newCompatClient(t, &apiHits)
	ctx := context.Background()

	memoryQueue := &compatQueue{}
	enqueuer := gojob.NewEnqueuer(memoryQueue, nil)
	if err := enqueuer.Submit(ctx, gojob.Submission{
		Operation:      operations.SaveStockMaster,
		Payload:        stockMasterPayload(),
		IdempotencyKey: "stock-1",
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(memoryQueue.messages) != 1 || memoryQueue.messages[0].JobID != gojob.JobIDSubmit {
		t.Fatalf("expected one queued submission, got %+v", memoryQueue.messages)
	}

	delivery := &compatDelivery{msg: memoryQueue.messages[0]}
	processor := gojob.NewProcessor(client.Operations(), gojob.RetryPolicy{MaxAttempts: 3})
	result, err := processor.Process(ctx, delivery, 1)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !delivery.acked || delivery.nacked {
		t.Fatalf("expected ack after successful remote call")
	}
	if result.ResultCode() != core.ResultSuccessCode || apiHits.Load() != 1 {
		t.Fatalf("unexpected result %+v after %d hits", result, apiHits.Load())
	}
}

type compatQueue struct {
	messages []*job.ExecutionMessage
}

func (q *compatQueue) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	q.messages = append(q.messages, msg)
	return nil
}

type compatDelivery struct {
	msg    *job.ExecutionMessage
	acked  bool
	nacked bool
}

func (d *compatDelivery) Message() *job.ExecutionMessage {
	return d.msg
}

func (d *compatDelivery) Ack(context.Context) error {
	d.acked = true
	return nil
}

func (d *compatDelivery) Nack(context.Context, queue.NackOptions) error {
	d.nacked = true
	return nil
}

type compatProvider struct {
	logger glog.Logger
}

func (p *compatProvider) GetLogger(string) glog.Logger {
	if p == nil || p.logger == nil {
		return glog.Nop()
	}
	return p.logger
}

type compatLogger struct{}

func (compatLogger) Trace(string, ...any)                    {}
func (compatLogger) Debug(string, ...any)                    {}
func (compatLogger) Info(string, ...any)                     {}
func (compatLogger) Warn(string, ...any)                     {}
func (compatLogger) Error(string, ...any)                    {}
func (compatLogger) Fatal(string, ...any)                    {}
func (compatLogger) WithContext(context.Context) glog.Logger { return compatLogger{} }
