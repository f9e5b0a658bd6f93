package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

// StaticRawConfigLoader serves an in-memory map, typically decoded by the
// caller from JSON, YAML or environment variables.
type StaticRawConfigLoader struct {
	Values map[string]any
}

func (l StaticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = StaticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GoOptionsResolver layers defaults < loaded < runtime. Zero values in the
// loaded and runtime layers never override a lower layer.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	setString := func(target map[string]any, key string, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			target[key] = value
		}
	}
	setNested := func(key string, values map[string]any) {
		if len(values) > 0 {
			layer[key] = values
		}
	}

	setString(layer, "service_name", cfg.ServiceName)
	setString(layer, "env", cfg.Environment)

	auth := map[string]any{}
	for envKey, creds := range map[string]EnvironmentCredentials{
		"sandbox":    cfg.Auth.Sandbox,
		"production": cfg.Auth.Production,
	} {
		entry := map[string]any{}
		setString(entry, "token_url", creds.TokenURL)
		setString(entry, "consumer_key", creds.ConsumerKey)
		setString(entry, "consumer_secret", creds.ConsumerSecret)
		if len(entry) > 0 {
			auth[envKey] = entry
		}
	}
	setNested("auth", auth)

	api := map[string]any{}
	for envKey, env := range map[string]APIEnvironmentConfig{
		"sandbox":    cfg.API.Sandbox,
		"production": cfg.API.Production,
	} {
		entry := map[string]any{}
		setString(entry, "base_url", env.BaseURL)
		if len(entry) > 0 {
			api[envKey] = entry
		}
	}
	setNested("api", api)

	httpLayer := map[string]any{}
	if includeZero || cfg.HTTP.Timeout > 0 {
		httpLayer["timeout"] = cfg.HTTP.Timeout
	}
	if includeZero || cfg.HTTP.RateLimit > 0 {
		httpLayer["rate_limit"] = cfg.HTTP.RateLimit
	}
	if includeZero || cfg.HTTP.Burst > 0 {
		httpLayer["burst"] = cfg.HTTP.Burst
	}
	if includeZero || cfg.HTTP.MaxResponseBytes > 0 {
		httpLayer["max_response_bytes"] = cfg.HTTP.MaxResponseBytes
	}
	setNested("http", httpLayer)

	business := map[string]any{}
	setString(business, "tin", cfg.Business.TIN)
	setString(business, "branch_id", cfg.Business.BranchID)
	setString(business, "device_key", cfg.Business.DeviceKey)
	setNested("business", business)

	if includeZero || len(cfg.Endpoints) > 0 {
		endpoints := make(map[string]any, len(cfg.Endpoints))
		for key, path := range cfg.Endpoints {
			endpoints[key] = path
		}
		layer["endpoints"] = endpoints
	}

	cache := map[string]any{}
	setString(cache, "driver", cfg.Cache.Driver)
	setString(cache, "path", cfg.Cache.Path)
	setString(cache, "seal_key", cfg.Cache.SealKey)
	if includeZero || cfg.Cache.TTL > 0 {
		cache["ttl"] = cfg.Cache.TTL
	}
	setNested("cache", cache)

	if includeZero || cfg.Token.RenewBefore > 0 {
		layer["token"] = map[string]any{"renew_before": cfg.Token.RenewBefore}
	}
	return layer
}
