package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-etims/core"
	"github.com/goliatone/go-etims/transport"
)

const (
	defaultExchangeTimeout = 30 * time.Second
	defaultRenewBefore     = time.Minute
)

type ClientConfig struct {
	Environment core.Environment
	Credentials core.Credentials
	Timeout     time.Duration
	RenewBefore time.Duration
	Now         func() time.Time
}

// Client acquires bearer tokens through the client credentials exchange and
// keeps the latest one in a TokenCache. It never retries an exchange.
type Client struct {
	config    ClientConfig
	cache     core.TokenCache
	transport transport.Adapter
	observer  *core.Observer
}

type Option func(*Client)

func WithObserver(observer *core.Observer) Option {
	return func(c *Client) {
		if observer != nil {
			c.observer = observer
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.observer = core.NewObserver(logger, nil)
		}
	}
}

func NewClient(cfg ClientConfig, cache core.TokenCache, adapter transport.Adapter, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultExchangeTimeout
	}
	if cfg.RenewBefore < 0 {
		cfg.RenewBefore = 0
	} else if cfg.RenewBefore == 0 {
		cfg.RenewBefore = defaultRenewBefore
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if !cfg.Environment.Valid() {
		cfg.Environment = core.EnvironmentSandbox
	}
	cfg.Credentials = core.Credentials{
		ConsumerKey:    strings.TrimSpace(cfg.Credentials.ConsumerKey),
		ConsumerSecret: strings.TrimSpace(cfg.Credentials.ConsumerSecret),
		TokenURL:       strings.TrimSpace(cfg.Credentials.TokenURL),
	}
	if cache == nil {
		cache = core.NewMemoryTokenCache()
	}
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	client := &Client{
		config:    cfg,
		cache:     cache,
		transport: adapter,
		observer:  core.NewObserver(glog.Nop(), nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

func (c *Client) Environment() core.Environment {
	return c.config.Environment
}

// Token returns the cached token unless forceRefresh is set or the cached
// value is missing, unreadable or inside the renew window.
func (c *Client) Token(ctx context.Context, forceRefresh bool) (string, error) {
	if c == nil {
		return "", core.NewAuthError(0, "auth client is not configured", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	env := c.config.Environment

	if !forceRefresh {
		if token, ok := c.cachedToken(ctx, env); ok {
			return token.Value, nil
		}
	}

	token, err := c.exchange(ctx)
	if err != nil {
		c.observer.Count(ctx, core.MetricTokenExchangeTotal, map[string]string{
			"environment": env.String(),
			"status":      core.OutcomeAuthFailed,
		})
		c.observer.Log(ctx, "error", "etims token exchange failed", map[string]any{
			"environment": env.String(),
			"error":       err.Error(),
		})
		return "", err
	}
	c.observer.Count(ctx, core.MetricTokenExchangeTotal, map[string]string{
		"environment": env.String(),
		"status":      core.OutcomeSuccess,
	})

	if err := c.cache.Set(ctx, env, token); err != nil {
		c.observer.Log(ctx, "warn", "etims token cache write failed", map[string]any{
			"environment": env.String(),
			"error":       err.Error(),
		})
	}
	fields := map[string]any{
		"environment":       env.String(),
		"forced":            forceRefresh,
		"token_fingerprint": core.TokenFingerprint(token.Value),
	}
	if token.ExpiresAt != nil {
		fields["expires_at"] = token.ExpiresAt.Format(time.RFC3339)
	}
	c.observer.Log(ctx, "info", "etims token acquired", fields)
	return token.Value, nil
}

// ForgetToken drops the cached token for the client environment. Calling it
// when nothing is cached is a no-op.
func (c *Client) ForgetToken(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.cache.Invalidate(ctx, c.config.Environment); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "auth: invalidate cached token").
			WithCode(http.StatusInternalServerError).
			WithTextCode(core.TextCodeInternal).
			WithMetadata(map[string]any{"environment": c.config.Environment.String()})
	}
	c.observer.Log(ctx, "debug", "etims token forgotten", map[string]any{
		"environment": c.config.Environment.String(),
	})
	return nil
}

func (c *Client) cachedToken(ctx context.Context, env core.Environment) (core.CachedToken, bool) {
	token, err := c.cache.Get(ctx, env)
	if err != nil {
		if !errors.Is(err, core.ErrTokenNotFound) {
			c.observer.Log(ctx, "warn", "etims token cache read failed", map[string]any{
				"environment": env.String(),
				"error":       err.Error(),
			})
		}
		return core.CachedToken{}, false
	}
	if !token.FreshAt(c.config.Now(), c.config.RenewBefore) {
		c.observer.Log(ctx, "debug", "etims cached token is stale", map[string]any{
			"environment": env.String(),
		})
		return core.CachedToken{}, false
	}
	return token, true
}

var _ core.TokenSource = (*Client)(nil)
