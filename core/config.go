package core

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

const (
	CacheDriverMemory   = "memory"
	CacheDriverFile     = "file"
	CacheDriverExternal = "external"

	defaultHTTPTimeout          = 30 * time.Second
	defaultMaxResponseBytes     = int64(10 << 20)
	defaultTokenRenewBefore     = time.Minute
	defaultCacheReadThroughTTL  = 5 * time.Minute
	defaultSandboxTokenURL      = "https://sbx.kra.go.ke/v1/token/generate"
	defaultProductionTokenURL   = "https://kra.go.ke/v1/token/generate"
	defaultSandboxBaseURL       = "https://sbx.kra.go.ke/etims-oscu/api/v1"
	defaultProductionBaseURL    = "https://kra.go.ke/etims-oscu/api/v1"
	configValidationFailMessage = "config: invalid configuration"
)

type EnvironmentCredentials struct {
	TokenURL       string `koanf:"token_url" mapstructure:"token_url" json:"token_url"`
	ConsumerKey    string `koanf:"consumer_key" mapstructure:"consumer_key" json:"consumer_key"`
	ConsumerSecret string `koanf:"consumer_secret" mapstructure:"consumer_secret" json:"consumer_secret"`
}

type AuthConfig struct {
	Sandbox    EnvironmentCredentials `koanf:"sandbox" mapstructure:"sandbox" json:"sandbox"`
	Production EnvironmentCredentials `koanf:"production" mapstructure:"production" json:"production"`
}

type APIEnvironmentConfig struct {
	BaseURL string `koanf:"base_url" mapstructure:"base_url" json:"base_url"`
}

type APIConfig struct {
	Sandbox    APIEnvironmentConfig `koanf:"sandbox" mapstructure:"sandbox" json:"sandbox"`
	Production APIEnvironmentConfig `koanf:"production" mapstructure:"production" json:"production"`
}

type HTTPConfig struct {
	Timeout          time.Duration `koanf:"timeout" mapstructure:"timeout" json:"timeout"`
	RateLimit        float64       `koanf:"rate_limit" mapstructure:"rate_limit" json:"rate_limit"`
	Burst            int           `koanf:"burst" mapstructure:"burst" json:"burst"`
	MaxResponseBytes int64         `koanf:"max_response_bytes" mapstructure:"max_response_bytes" json:"max_response_bytes"`
}

func (c HTTPConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.RateLimit, validation.Min(0.0)),
		validation.Field(&c.Burst, validation.Min(0)),
		validation.Field(&c.MaxResponseBytes, validation.Min(int64(0))),
	)
}

type BusinessConfig struct {
	TIN       string `koanf:"tin" mapstructure:"tin" json:"tin"`
	BranchID  string `koanf:"branch_id" mapstructure:"branch_id" json:"branch_id"`
	DeviceKey string `koanf:"device_key" mapstructure:"device_key" json:"device_key"`
}

// CacheConfig selects the token cache. SealKey, when set, encrypts file
// cache documents at rest.
type CacheConfig struct {
	Driver  string        `koanf:"driver" mapstructure:"driver" json:"driver"`
	Path    string        `koanf:"path" mapstructure:"path" json:"path"`
	TTL     time.Duration `koanf:"ttl" mapstructure:"ttl" json:"ttl"`
	SealKey string        `koanf:"seal_key" mapstructure:"seal_key" json:"-"`
}

func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In(CacheDriverMemory, CacheDriverFile, CacheDriverExternal)),
		validation.Field(&c.Path, validation.When(c.Driver == CacheDriverFile, validation.Required)),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	)
}

type TokenConfig struct {
	RenewBefore time.Duration `koanf:"renew_before" mapstructure:"renew_before" json:"renew_before"`
}

func (c TokenConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.RenewBefore, validation.Min(time.Duration(0))),
	)
}

type Config struct {
	ServiceName string            `koanf:"service_name" mapstructure:"service_name" json:"service_name"`
	Environment string            `koanf:"env" mapstructure:"env" json:"env"`
	Auth        AuthConfig        `koanf:"auth" mapstructure:"auth" json:"auth"`
	API         APIConfig         `koanf:"api" mapstructure:"api" json:"api"`
	HTTP        HTTPConfig        `koanf:"http" mapstructure:"http" json:"http"`
	Business    BusinessConfig    `koanf:"business" mapstructure:"business" json:"business"`
	Endpoints   map[string]string `koanf:"endpoints" mapstructure:"endpoints" json:"endpoints"`
	Cache       CacheConfig       `koanf:"cache" mapstructure:"cache" json:"cache"`
	Token       TokenConfig       `koanf:"token" mapstructure:"token" json:"token"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "etims",
		Environment: string(EnvironmentSandbox),
		Auth: AuthConfig{
			Sandbox:    EnvironmentCredentials{TokenURL: defaultSandboxTokenURL},
			Production: EnvironmentCredentials{TokenURL: defaultProductionTokenURL},
		},
		API: APIConfig{
			Sandbox:    APIEnvironmentConfig{BaseURL: defaultSandboxBaseURL},
			Production: APIEnvironmentConfig{BaseURL: defaultProductionBaseURL},
		},
		HTTP: HTTPConfig{
			Timeout:          defaultHTTPTimeout,
			MaxResponseBytes: defaultMaxResponseBytes,
		},
		Endpoints: DefaultEndpointPaths(),
		Cache: CacheConfig{
			Driver: CacheDriverFile,
			Path:   os.TempDir(),
			TTL:    defaultCacheReadThroughTTL,
		},
		Token: TokenConfig{RenewBefore: defaultTokenRenewBefore},
	}
}

func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.ServiceName, validation.Required),
		validation.Field(&c.Environment, validation.Required, validation.By(validateEnvironment)),
		validation.Field(&c.HTTP),
		validation.Field(&c.Cache),
		validation.Field(&c.Token),
	)
	if err == nil {
		env, _ := ParseEnvironment(c.Environment)
		creds := c.credentialsFor(env)
		err = validation.Errors{
			"token_url": validation.Validate(creds.TokenURL, validation.Required, validation.By(validateHTTPSURL)),
			"base_url":  validation.Validate(c.baseURLFor(env), validation.Required, validation.By(validateHTTPSURL)),
		}.Filter()
	}
	if err == nil {
		return nil
	}
	return goerrors.FromOzzoValidation(err, configValidationFailMessage).
		WithTextCode(TextCodeConfigurationInvalid)
}

func (c Config) ActiveEnvironment() Environment {
	env, err := ParseEnvironment(c.Environment)
	if err != nil {
		return EnvironmentSandbox
	}
	return env
}

func (c Config) ActiveCredentials() Credentials {
	creds := c.credentialsFor(c.ActiveEnvironment())
	return Credentials{
		ConsumerKey:    strings.TrimSpace(creds.ConsumerKey),
		ConsumerSecret: strings.TrimSpace(creds.ConsumerSecret),
		TokenURL:       strings.TrimSpace(creds.TokenURL),
	}
}

func (c Config) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(c.baseURLFor(c.ActiveEnvironment())), "/")
}

func (c Config) RequestContext() RequestContext {
	return NewRequestContext(c.ActiveEnvironment(), c.BaseURL(), c.HTTP.Timeout, BusinessIdentifiers{
		TIN:       c.Business.TIN,
		BranchID:  c.Business.BranchID,
		DeviceKey: c.Business.DeviceKey,
	})
}

func (c Config) EndpointTable() EndpointTable {
	if len(c.Endpoints) == 0 {
		return NewEndpointTable(DefaultEndpointPaths())
	}
	return NewEndpointTable(c.Endpoints)
}

func (c Config) credentialsFor(env Environment) EnvironmentCredentials {
	if env == EnvironmentProduction {
		return c.Auth.Production
	}
	return c.Auth.Sandbox
}

func (c Config) baseURLFor(env Environment) string {
	if env == EnvironmentProduction {
		return c.API.Production.BaseURL
	}
	return c.API.Sandbox.BaseURL
}

func validateEnvironment(value any) error {
	raw, _ := value.(string)
	if _, err := ParseEnvironment(raw); err != nil {
		return fmt.Errorf("must be one of sandbox, production, sbx, prod")
	}
	return nil
}

func validateHTTPSURL(value any) error {
	raw, _ := value.(string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("must be an absolute url")
	}
	if !strings.EqualFold(parsed.Scheme, "https") {
		return fmt.Errorf("must use https")
	}
	return nil
}
