package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

// ParseEnvironment accepts the canonical names and the short sbx/prod aliases.
func ParseEnvironment(value string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sandbox", "sbx":
		return EnvironmentSandbox, nil
	case "production", "prod":
		return EnvironmentProduction, nil
	default:
		return "", fmt.Errorf("core: unknown environment %q", value)
	}
}

func (e Environment) String() string {
	return string(e)
}

func (e Environment) Valid() bool {
	return e == EnvironmentSandbox || e == EnvironmentProduction
}

type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	TokenURL       string
}

func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.ConsumerKey) != "" && strings.TrimSpace(c.ConsumerSecret) != ""
}

type CachedToken struct {
	Value       string      `json:"value"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
	Environment Environment `json:"environment"`
	IssuedAt    time.Time   `json:"issued_at"`
}

// FreshAt reports whether the token may still be used at now. A token without
// an expiry stays fresh until it is explicitly invalidated.
func (t CachedToken) FreshAt(now time.Time, renewBefore time.Duration) bool {
	if strings.TrimSpace(t.Value) == "" {
		return false
	}
	if t.ExpiresAt == nil || t.ExpiresAt.IsZero() {
		return true
	}
	return t.ExpiresAt.After(now.Add(renewBefore))
}

func (t CachedToken) Clone() CachedToken {
	out := t
	out.ExpiresAt = cloneTimePointer(t.ExpiresAt)
	return out
}

type BusinessIdentifiers struct {
	TIN       string
	BranchID  string
	DeviceKey string
}

func (b BusinessIdentifiers) normalized() BusinessIdentifiers {
	return BusinessIdentifiers{
		TIN:       strings.TrimSpace(b.TIN),
		BranchID:  strings.TrimSpace(b.BranchID),
		DeviceKey: strings.TrimSpace(b.DeviceKey),
	}
}

// RequestContext is immutable once built. Use WithBusinessIdentifiers or
// WithDeviceKey to derive an updated copy.
type RequestContext struct {
	environment Environment
	baseURL     string
	timeout     time.Duration
	identifiers BusinessIdentifiers
}

func NewRequestContext(
	env Environment,
	baseURL string,
	timeout time.Duration,
	identifiers BusinessIdentifiers,
) RequestContext {
	return RequestContext{
		environment: env,
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		timeout:     timeout,
		identifiers: identifiers.normalized(),
	}
}

func (c RequestContext) Environment() Environment {
	return c.environment
}

func (c RequestContext) BaseURL() string {
	return c.baseURL
}

func (c RequestContext) Timeout() time.Duration {
	return c.timeout
}

func (c RequestContext) BusinessIdentifiers() BusinessIdentifiers {
	return c.identifiers
}

func (c RequestContext) WithBusinessIdentifiers(identifiers BusinessIdentifiers) RequestContext {
	next := c
	next.identifiers = identifiers.normalized()
	return next
}

func (c RequestContext) WithDeviceKey(deviceKey string) RequestContext {
	identifiers := c.identifiers
	identifiers.DeviceKey = deviceKey
	return c.WithBusinessIdentifiers(identifiers)
}

type EndpointDescriptor struct {
	Key    string
	Path   string
	Method string
}

type Payload = map[string]any

const (
	ResultCodeField    = "resultCd"
	ResultMessageField = "resultMsg"
	ResultSuccessCode  = "0000"
)

// Result is a decoded successful response body.
type Result struct {
	StatusCode int
	Body       map[string]any
	Raw        []byte
}

func (r Result) Decode(into any) error {
	if into == nil {
		return fmt.Errorf("core: decode target is required")
	}
	raw := r.Raw
	if len(raw) == 0 {
		encoded, err := json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("core: encode result body: %w", err)
		}
		raw = encoded
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("core: decode result body: %w", err)
	}
	return nil
}

func (r Result) ResultCode() string {
	return StringValue(r.Body[ResultCodeField])
}

func (r Result) ResultMessage() string {
	return StringValue(r.Body[ResultMessageField])
}

// StringValue normalizes scalar JSON values to their string form.
func StringValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	case float64:
		if typed == float64(int64(typed)) {
			return fmt.Sprintf("%d", int64(typed))
		}
		return fmt.Sprintf("%v", typed)
	case fmt.Stringer:
		return strings.TrimSpace(typed.String())
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}

func cloneTimePointer(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := value.UTC()
	return &clone
}
