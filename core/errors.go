package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeValidationFailed      = "ETIMS_VALIDATION_FAILED"
	TextCodeTransportFailed       = "ETIMS_TRANSPORT_FAILED"
	TextCodeAuthFailed            = "ETIMS_AUTH_FAILED"
	TextCodeAPIError              = "ETIMS_API_ERROR"
	TextCodeBusinessError         = "ETIMS_BUSINESS_ERROR"
	TextCodeConfigurationInvalid  = "ETIMS_CONFIGURATION_INVALID"
	TextCodeEndpointNotConfigured = "ETIMS_ENDPOINT_NOT_CONFIGURED"
	TextCodeInternal              = "ETIMS_INTERNAL_ERROR"
)

// APIError is the remote side rejecting a call it accepted at the transport
// level. BusinessCode is set when the envelope carried a non-success resultCd.
type APIError struct {
	HTTPStatus      int
	BusinessCode    string
	BusinessMessage string
	RawBody         []byte
	EndpointKey     string
}

func (e *APIError) Error() string {
	if e == nil {
		return "etims: api error"
	}
	if e.BusinessCode != "" {
		return fmt.Sprintf("etims: business error %s: %s", e.BusinessCode, e.message())
	}
	return fmt.Sprintf("etims: http %d: %s", e.HTTPStatus, e.message())
}

func (e *APIError) IsBusiness() bool {
	return e != nil && e.BusinessCode != ""
}

func (e *APIError) message() string {
	if msg := strings.TrimSpace(e.BusinessMessage); msg != "" {
		return msg
	}
	if body := strings.TrimSpace(string(e.RawBody)); body != "" {
		return body
	}
	return http.StatusText(e.HTTPStatus)
}

func (e *APIError) ToServiceError() *goerrors.Error {
	metadata := map[string]any{
		"http_status":  e.HTTPStatus,
		"endpoint_key": e.EndpointKey,
		"raw_body":     string(e.RawBody),
	}
	if e.IsBusiness() {
		metadata["business_code"] = e.BusinessCode
		metadata["business_message"] = e.BusinessMessage
		return goerrors.Wrap(e, goerrors.CategoryOperation, e.message()).
			WithCode(http.StatusBadRequest).
			WithTextCode(TextCodeBusinessError).
			WithMetadata(metadata)
	}
	code := e.HTTPStatus
	if code == 0 {
		code = http.StatusBadGateway
	}
	return goerrors.Wrap(e, goerrors.CategoryExternal, e.message()).
		WithCode(code).
		WithTextCode(TextCodeAPIError).
		WithMetadata(metadata)
}

// AuthError is raised when the credential exchange fails or a request is still
// unauthorized after the single refresh-and-resend cycle.
type AuthError struct {
	HTTPStatus int
	Message    string
	Cause      error
}

func (e *AuthError) Error() string {
	if e == nil {
		return "etims: authentication failed"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "authentication failed"
	}
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("etims: auth %d: %s", e.HTTPStatus, msg)
	}
	return "etims: auth: " + msg
}

func (e *AuthError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *AuthError) ToServiceError() *goerrors.Error {
	code := e.HTTPStatus
	if code == 0 {
		code = http.StatusUnauthorized
	}
	message := strings.TrimSpace(e.Message)
	if message == "" {
		message = "authentication failed"
	}
	return goerrors.Wrap(e, goerrors.CategoryAuth, message).
		WithCode(code).
		WithTextCode(TextCodeAuthFailed).
		WithMetadata(map[string]any{"http_status": e.HTTPStatus})
}

// TransportError covers connection, TLS and timeout failures. It is never
// retried by the client.
type TransportError struct {
	Method  string
	URL     string
	Timeout bool
	Cause   error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "etims: transport failure"
	}
	kind := "transport failure"
	if e.Timeout {
		kind = "transport timeout"
	}
	if e.Cause != nil {
		return fmt.Sprintf("etims: %s %s %s: %v", kind, e.Method, e.URL, e.Cause)
	}
	return fmt.Sprintf("etims: %s %s %s", kind, e.Method, e.URL)
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *TransportError) ToServiceError() *goerrors.Error {
	code := http.StatusBadGateway
	if e.Timeout {
		code = http.StatusGatewayTimeout
	}
	return goerrors.Wrap(e, goerrors.CategoryExternal, "transport: execute http request").
		WithCode(code).
		WithTextCode(TextCodeTransportFailed).
		WithMetadata(map[string]any{
			"method":  e.Method,
			"url":     e.URL,
			"timeout": e.Timeout,
		})
}

func NewAPIError(detail APIError) error {
	return detail.ToServiceError()
}

// NewAuthError drops a TransportError from the cause chain, keeping its
// method, URL and root cause, so the result is classified as an auth failure
// only.
func NewAuthError(status int, message string, cause error) error {
	detached := detachEnvelope(cause)
	if transportErr, ok := AsTransportError(cause); ok {
		detached = flattenTransport(transportErr)
	}
	return (&AuthError{HTTPStatus: status, Message: message, Cause: detached}).ToServiceError()
}

func flattenTransport(e *TransportError) error {
	if e.Cause == nil {
		return fmt.Errorf("transport %s %s failed", e.Method, e.URL)
	}
	return fmt.Errorf("transport %s %s: %w", e.Method, e.URL, e.Cause)
}

func NewTransportError(method string, url string, timeout bool, cause error) error {
	return (&TransportError{Method: method, URL: url, Timeout: timeout, Cause: cause}).ToServiceError()
}

func NewValidationError(message string, fields goerrors.ValidationErrors) error {
	if strings.TrimSpace(message) == "" {
		message = "validation failed"
	}
	return goerrors.NewValidation(message, fields...).
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeValidationFailed)
}

func NewConfigurationError(textCode string, message string, metadata map[string]any) error {
	if strings.TrimSpace(textCode) == "" {
		textCode = TextCodeConfigurationInvalid
	}
	err := goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// NewInternalError flags a wiring fault inside the client, such as a handler
// built without its dependency.
func NewInternalError(message string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(TextCodeInternal)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func IsValidationError(err error) bool {
	return hasTextCode(err, TextCodeValidationFailed)
}

func IsConfigurationError(err error) bool {
	return hasTextCode(err, TextCodeConfigurationInvalid, TextCodeEndpointNotConfigured)
}

func IsTransportError(err error) bool {
	_, ok := AsTransportError(err)
	return ok
}

func IsAuthError(err error) bool {
	_, ok := AsAuthError(err)
	return ok
}

func IsAPIError(err error) bool {
	_, ok := AsAPIError(err)
	return ok
}

func AsAPIError(err error) (*APIError, bool) {
	var target *APIError
	if errors.As(err, &target) && target != nil {
		return target, true
	}
	return nil, false
}

func AsAuthError(err error) (*AuthError, bool) {
	var target *AuthError
	if errors.As(err, &target) && target != nil {
		return target, true
	}
	return nil, false
}

func AsTransportError(err error) (*TransportError, bool) {
	var target *TransportError
	if errors.As(err, &target) && target != nil {
		return target, true
	}
	return nil, false
}

// ValidationFields returns the ordered field errors carried by a validation error.
func ValidationFields(err error) goerrors.ValidationErrors {
	fields, _ := goerrors.GetValidationErrors(err)
	return fields
}

// detachEnvelope returns the first non go-errors source in a chain. Wrapping a
// chain that still holds a *goerrors.Error would clone that envelope and drop
// the typed detail record.
func detachEnvelope(err error) error {
	for err != nil {
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) || rich == nil {
			return err
		}
		if rich.Source == nil {
			return errors.New(rich.Message)
		}
		err = rich.Source
	}
	return nil
}

func hasTextCode(err error, codes ...string) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich == nil {
		return false
	}
	for _, code := range codes {
		if rich.TextCode == code {
			return true
		}
	}
	return false
}
