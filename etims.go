package etims

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-etims/adapters/gologger"
	"github.com/goliatone/go-etims/auth"
	"github.com/goliatone/go-etims/core"
	"github.com/goliatone/go-etims/operations"
	"github.com/goliatone/go-etims/pipeline"
	"github.com/goliatone/go-etims/schema"
	"github.com/goliatone/go-etims/security"
	filestore "github.com/goliatone/go-etims/store/file"
	sqlstore "github.com/goliatone/go-etims/store/sql"
	"github.com/goliatone/go-etims/transport"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"golang.org/x/time/rate"
)

type Config = core.Config

func DefaultConfig() Config {
	return core.DefaultConfig()
}

type Option func(*builder)

type builder struct {
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metrics         core.MetricsRecorder
	configProvider  core.ConfigProvider
	optionsResolver core.OptionsResolver
	tokenCache      core.TokenCache
	httpClient      transport.HTTPDoer
	adapter         transport.Adapter
	limiter         pipeline.Limiter
	validator       core.SchemaValidator
	expiryMarkers   []string
}

func WithLogger(logger core.Logger) Option {
	return func(b *builder) { b.logger = logger }
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(b *builder) { b.loggerProvider = provider }
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(b *builder) { b.metrics = recorder }
}

func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(b *builder) { b.configProvider = provider }
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(b *builder) { b.optionsResolver = resolver }
}

// WithTokenCache replaces the cache selected by cache.driver.
func WithTokenCache(cache core.TokenCache) Option {
	return func(b *builder) { b.tokenCache = cache }
}

// WithHTTPClient sets the client used by the default REST transport. It must
// verify server certificates.
func WithHTTPClient(client transport.HTTPDoer) Option {
	return func(b *builder) { b.httpClient = client }
}

func WithTransport(adapter transport.Adapter) Option {
	return func(b *builder) { b.adapter = adapter }
}

// WithLimiter replaces the limiter built from http.rate_limit.
func WithLimiter(limiter pipeline.Limiter) Option {
	return func(b *builder) { b.limiter = limiter }
}

func WithSchemaValidator(validator core.SchemaValidator) Option {
	return func(b *builder) { b.validator = validator }
}

func WithExpiryMarkers(markers ...string) Option {
	return func(b *builder) { b.expiryMarkers = append(b.expiryMarkers, markers...) }
}

// Client is the assembled SDK: one auth client and token cache shared by an
// immutable request pipeline and the operation facade built on top of it.
type Client struct {
	config     Config
	logger     core.Logger
	observer   *core.Observer
	cache      core.TokenCache
	auth       *auth.Client
	pipeline   *pipeline.Pipeline
	operations *operations.Facade
	facade     *Facade
	validator  core.SchemaValidator
}

// New resolves configuration as defaults < provider < cfg and wires every
// component. It performs no network activity.
func New(cfg Config, opts ...Option) (*Client, error) {
	b := builder{}
	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}

	_, logger := gologger.Resolve(gologger.RootName, b.loggerProvider, b.logger)
	logger = glog.Ensure(logger)
	component := func(name string) core.Logger {
		return gologger.Component(b.loggerProvider, logger, name)
	}
	if b.metrics == nil {
		b.metrics = core.NopMetricsRecorder{}
	}
	if b.configProvider == nil {
		b.configProvider = core.NewCfgxConfigProvider(nil)
	}
	if b.optionsResolver == nil {
		b.optionsResolver = core.GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := b.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, configurationError(err, "etims: load configuration")
	}
	resolved, err := b.optionsResolver.Resolve(defaults, loaded, cfg)
	if err != nil {
		return nil, configurationError(err, "etims: resolve configuration")
	}

	observer := core.NewObserver(component("pipeline"), b.metrics)

	cache, err := resolveTokenCache(resolved, b.tokenCache, component("cache"))
	if err != nil {
		return nil, err
	}

	adapter := b.adapter
	if adapter == nil {
		client := b.httpClient
		if client == nil {
			httpClient, clientErr := transport.NewHTTPClient(transport.ClientOptions{Timeout: resolved.HTTP.Timeout})
			if clientErr != nil {
				return nil, clientErr
			}
			client = httpClient
		}
		rest := transport.NewRESTAdapter(client)
		if resolved.HTTP.MaxResponseBytes > 0 {
			rest.MaxResponseBodyBytes = resolved.HTTP.MaxResponseBytes
		}
		adapter = rest
	}

	authClient := auth.NewClient(auth.ClientConfig{
		Environment: resolved.ActiveEnvironment(),
		Credentials: resolved.ActiveCredentials(),
		Timeout:     resolved.HTTP.Timeout,
		RenewBefore: resolved.Token.RenewBefore,
	}, cache, adapter,
		auth.WithObserver(core.NewObserver(component("auth"), b.metrics)),
	)

	pipelineOpts := []pipeline.Option{
		pipeline.WithObserver(observer),
		pipeline.WithMaxResponseBytes(resolved.HTTP.MaxResponseBytes),
	}
	if limiter := resolveLimiter(resolved, b.limiter); limiter != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithLimiter(limiter))
	}
	if len(b.expiryMarkers) > 0 {
		pipelineOpts = append(pipelineOpts, pipeline.WithExpiryMarkers(b.expiryMarkers...))
	}
	p := pipeline.New(resolved.RequestContext(), resolved.EndpointTable(), authClient, adapter, pipelineOpts...)

	validator := b.validator
	if validator == nil {
		validator = schema.DefaultRegistry()
	}

	client := &Client{
		config:    resolved,
		logger:    logger,
		observer:  observer,
		cache:     cache,
		auth:      authClient,
		validator: validator,
	}
	if err := client.bind(p); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) bind(p *pipeline.Pipeline) error {
	c.pipeline = p
	c.operations = operations.NewFacade(c.validator, p)
	facade, err := NewFacade(c.operations)
	if err != nil {
		return err
	}
	c.facade = facade
	return nil
}

func (c *Client) Config() Config {
	return c.config
}

func (c *Client) RequestContext() core.RequestContext {
	return c.pipeline.RequestContext()
}

func (c *Client) TokenCache() core.TokenCache {
	return c.cache
}

func (c *Client) Auth() *auth.Client {
	return c.auth
}

func (c *Client) Operations() *operations.Facade {
	return c.operations
}

// Facade exposes the go-command handlers bound to this client.
func (c *Client) Facade() *Facade {
	return c.facade
}

func (c *Client) Commands() Commands {
	return c.facade.Commands()
}

func (c *Client) Queries() Queries {
	return c.facade.Queries()
}

// WithBusinessIdentifiers returns a client bound to ids. The receiver is not
// changed; the token cache and auth client are shared.
func (c *Client) WithBusinessIdentifiers(ids core.BusinessIdentifiers) *Client {
	next := *c
	if err := next.bind(c.pipeline.WithBusinessIdentifiers(ids)); err != nil {
		return c
	}
	return &next
}

// WithDeviceKey is WithBusinessIdentifiers with only the device key replaced.
func (c *Client) WithDeviceKey(key string) *Client {
	ids := c.RequestContext().BusinessIdentifiers()
	ids.DeviceKey = strings.TrimSpace(key)
	return c.WithBusinessIdentifiers(ids)
}

// Initialize registers the device. Apply the returned key with WithDeviceKey.
func (c *Client) Initialize(ctx context.Context, req operations.InitializeRequest) (operations.InitializeResult, error) {
	return c.operations.Initialize(ctx, req)
}

func (c *Client) Invoke(ctx context.Context, name string, payload core.Payload) (core.Result, error) {
	return c.operations.Invoke(ctx, name, payload)
}

func (c *Client) InvokeRecord(ctx context.Context, name string, record any) (core.Result, error) {
	return c.operations.InvokeRecord(ctx, name, record)
}

func (c *Client) Token(ctx context.Context, forceRefresh bool) (string, error) {
	return c.auth.Token(ctx, forceRefresh)
}

func (c *Client) ForgetToken(ctx context.Context) error {
	return c.auth.ForgetToken(ctx)
}

func resolveTokenCache(cfg Config, injected core.TokenCache, logger core.Logger) (core.TokenCache, error) {
	var cache core.TokenCache
	switch {
	case injected != nil:
		cache = injected
	case cfg.Cache.Driver == core.CacheDriverMemory:
		return core.NewMemoryTokenCache(), nil
	case cfg.Cache.Driver == core.CacheDriverFile:
		opts := []filestore.Option{filestore.WithLogger(logger)}
		if key := strings.TrimSpace(cfg.Cache.SealKey); key != "" {
			sealer, err := security.NewAppKeySealerFromString(key, security.WithKeyID(cfg.ServiceName))
			if err != nil {
				return nil, configurationError(err, "etims: cache seal key")
			}
			opts = append(opts, filestore.WithSealer(sealer))
		}
		fileCache, err := filestore.NewTokenCache(cfg.Cache.Path, opts...)
		if err != nil {
			return nil, err
		}
		return fileCache, nil
	default:
		return nil, core.NewConfigurationError(
			core.TextCodeConfigurationInvalid,
			"etims: cache driver "+cfg.Cache.Driver+" requires WithTokenCache",
			map[string]any{"driver": cfg.Cache.Driver},
		)
	}
	ttl := readThroughTTL(cfg)
	if ttl <= 0 {
		return cache, nil
	}
	cacheConfig := repositorycache.DefaultConfig()
	cacheConfig.TTL = ttl
	service, err := repositorycache.NewCacheService(cacheConfig)
	if err != nil {
		return nil, err
	}
	return sqlstore.NewCachedTokenStore(cache, service)
}

// readThroughTTL caps the local read-through TTL at the renew window, so a
// token replaced by another process is picked up before this one treats its
// copy as fresh.
func readThroughTTL(cfg Config) time.Duration {
	ttl := cfg.Cache.TTL
	if renew := cfg.Token.RenewBefore; renew > 0 && ttl > renew {
		return renew
	}
	return ttl
}

func configurationError(err error, message string) error {
	if core.IsConfigurationError(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryBadInput, message).
		WithTextCode(core.TextCodeConfigurationInvalid)
}

func resolveLimiter(cfg Config, injected pipeline.Limiter) pipeline.Limiter {
	if injected != nil {
		return injected
	}
	if cfg.HTTP.RateLimit <= 0 {
		return nil
	}
	burst := cfg.HTTP.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.HTTP.RateLimit), burst)
}
