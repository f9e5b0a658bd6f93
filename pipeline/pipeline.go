package pipeline

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-etims/core"
	"github.com/goliatone/go-etims/transport"
)

const (
	HeaderTIN       = "tin"
	HeaderBranchID  = "bhfId"
	HeaderDeviceKey = "cmcKey"

	contentTypeJSON = "application/json"
)

// Limiter throttles outbound calls. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Pipeline sends authenticated requests to the business API. It is immutable;
// WithBusinessIdentifiers derives a copy bound to new identifiers.
type Pipeline struct {
	requestContext   core.RequestContext
	endpoints        core.EndpointTable
	tokens           core.TokenSource
	transport        transport.Adapter
	limiter          Limiter
	expiry           ExpiryDetector
	observer         *core.Observer
	maxResponseBytes int64
	newCallID        func() string
}

type Option func(*Pipeline)

func WithLimiter(limiter Limiter) Option {
	return func(p *Pipeline) {
		p.limiter = limiter
	}
}

func WithObserver(observer *core.Observer) Option {
	return func(p *Pipeline) {
		if observer != nil {
			p.observer = observer
		}
	}
}

// WithExpiryMarkers adds fault messages that are treated as expired-token
// signals on top of DefaultExpiryMarkers.
func WithExpiryMarkers(markers ...string) Option {
	return func(p *Pipeline) {
		p.expiry = NewExpiryDetector(append(p.expiry.Markers(), markers...)...)
	}
}

func WithMaxResponseBytes(limit int64) Option {
	return func(p *Pipeline) {
		if limit > 0 {
			p.maxResponseBytes = limit
		}
	}
}

func WithCallIDGenerator(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newCallID = fn
		}
	}
}

func New(
	requestContext core.RequestContext,
	endpoints core.EndpointTable,
	tokens core.TokenSource,
	adapter transport.Adapter,
	opts ...Option,
) *Pipeline {
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	p := &Pipeline{
		requestContext: requestContext,
		endpoints:      endpoints,
		tokens:         tokens,
		transport:      adapter,
		expiry:         NewExpiryDetector(),
		observer:       core.NewObserver(nil, nil),
		newCallID:      uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *Pipeline) RequestContext() core.RequestContext {
	return p.requestContext
}

func (p *Pipeline) WithBusinessIdentifiers(identifiers core.BusinessIdentifiers) *Pipeline {
	next := *p
	next.requestContext = p.requestContext.WithBusinessIdentifiers(identifiers)
	return &next
}

// Send resolves the endpoint, dispatches the request and classifies the
// response. An expired-token signal triggers exactly one forget, reacquire and
// resend cycle.
func (p *Pipeline) Send(ctx context.Context, op core.Operation, payload core.Payload) (result core.Result, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	fields := map[string]any{
		"endpoint_key": op.EndpointKey,
		"environment":  p.requestContext.Environment().String(),
		"call_id":      p.newCallID(),
	}
	defer func() {
		if result.StatusCode > 0 {
			fields["http_status"] = result.StatusCode
		}
		p.observer.ObserveRequest(ctx, startedAt, op.EndpointKey, err, fields)
	}()

	if p.tokens == nil {
		return core.Result{}, core.NewConfigurationError(core.TextCodeConfigurationInvalid, "pipeline requires a token source", nil)
	}
	endpoint, err := p.endpoints.Resolve(op.EndpointKey, op.Method)
	if err != nil {
		return core.Result{}, err
	}
	fields["method"] = endpoint.Method
	fields["path"] = endpoint.Path

	req, err := p.buildRequest(endpoint, payload)
	if err != nil {
		return core.Result{}, err
	}

	token, err := p.tokens.Token(ctx, false)
	if err != nil {
		return core.Result{}, err
	}
	res, err := p.dispatch(ctx, req, token)
	if err != nil {
		return core.Result{}, err
	}

	body, _ := transport.DecodeObject(res.Body)
	if p.expiry.Expired(res.StatusCode, body) {
		fields["token_refreshed"] = true
		p.observer.Log(ctx, "info", "etims access token rejected, refreshing", map[string]any{
			"endpoint_key": endpoint.Key,
			"http_status":  res.StatusCode,
			"call_id":      fields["call_id"],
		})
		if forgetErr := p.tokens.ForgetToken(ctx); forgetErr != nil {
			p.observer.Log(ctx, "warn", "etims token invalidation failed", map[string]any{
				"endpoint_key": endpoint.Key,
				"error":        forgetErr.Error(),
			})
		}
		token, err = p.tokens.Token(ctx, true)
		if err != nil {
			return core.Result{}, err
		}
		res, err = p.dispatch(ctx, req, token)
		if err != nil {
			return core.Result{}, err
		}
		body, _ = transport.DecodeObject(res.Body)
		if p.expiry.Expired(res.StatusCode, body) {
			return core.Result{}, core.NewAuthError(
				res.StatusCode,
				"access token rejected after refresh: "+diagnostic(body, res.Body),
				nil,
			)
		}
	}

	return unwrap(endpoint, res)
}

func (p *Pipeline) buildRequest(endpoint core.EndpointDescriptor, payload core.Payload) (transport.Request, error) {
	req := transport.Request{
		Method:               endpoint.Method,
		URL:                  p.requestContext.BaseURL() + endpoint.Path,
		Headers:              p.headers(endpoint),
		Timeout:              p.requestContext.Timeout(),
		MaxResponseBodyBytes: p.maxResponseBytes,
	}
	if endpoint.Method == http.MethodGet {
		req.Query = transport.EncodeQuery(payload)
		return req, nil
	}
	body, err := transport.EncodeJSON(payload)
	if err != nil {
		return transport.Request{}, core.NewValidationError("payload cannot be encoded as json", nil)
	}
	req.Body = body
	return req, nil
}

// headers returns everything but Authorization. The initialization endpoint
// must not carry business identifiers; every other endpoint carries all three.
func (p *Pipeline) headers(endpoint core.EndpointDescriptor) map[string]string {
	headers := map[string]string{
		"Content-Type": contentTypeJSON,
		"Accept":       contentTypeJSON,
	}
	if core.IsInitializationPath(endpoint.Path) {
		return headers
	}
	ids := p.requestContext.BusinessIdentifiers()
	headers[HeaderTIN] = ids.TIN
	headers[HeaderBranchID] = ids.BranchID
	headers[HeaderDeviceKey] = ids.DeviceKey
	return headers
}

func (p *Pipeline) dispatch(ctx context.Context, req transport.Request, token string) (transport.Response, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return transport.Response{}, core.NewTransportError(req.Method, stripQuery(req.URL), false, err)
		}
	}
	headers := make(map[string]string, len(req.Headers)+1)
	for key, value := range req.Headers {
		headers[key] = value
	}
	headers["Authorization"] = "Bearer " + token
	req.Headers = headers
	return p.transport.Do(ctx, req)
}

func stripQuery(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return strings.SplitN(raw, "?", 2)[0]
	}
	parsed.RawQuery = ""
	return parsed.String()
}

var _ core.Sender = (*Pipeline)(nil)
