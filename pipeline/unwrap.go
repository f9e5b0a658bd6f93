package pipeline

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-etims/core"
	"github.com/goliatone/go-etims/transport"
)

// unwrap classifies the final response. A non-success resultCd wins over the
// HTTP status because the remote side reports business failures under 200.
func unwrap(endpoint core.EndpointDescriptor, res transport.Response) (core.Result, error) {
	body, _ := transport.DecodeObject(res.Body)

	if code := businessCode(body[core.ResultCodeField]); code != "" && code != core.ResultSuccessCode {
		return core.Result{}, core.NewAPIError(core.APIError{
			HTTPStatus:      res.StatusCode,
			BusinessCode:    code,
			BusinessMessage: core.StringValue(body[core.ResultMessageField]),
			RawBody:         res.Body,
			EndpointKey:     endpoint.Key,
		})
	}

	switch {
	case res.StatusCode >= http.StatusOK && res.StatusCode < http.StatusMultipleChoices:
		return core.Result{StatusCode: res.StatusCode, Body: body, Raw: res.Body}, nil
	case res.StatusCode == http.StatusUnauthorized:
		return core.Result{}, core.NewAuthError(res.StatusCode, diagnostic(body, res.Body), nil)
	default:
		return core.Result{}, core.NewAPIError(core.APIError{
			HTTPStatus:      res.StatusCode,
			BusinessMessage: faultString(body),
			RawBody:         res.Body,
			EndpointKey:     endpoint.Key,
		})
	}
}

// businessCode returns the result code, or "" when it is absent or a zero
// value (0, "0", null). Zero codes leave the decision to the HTTP status.
func businessCode(value any) string {
	code := core.StringValue(value)
	if code == "" || code == "0" {
		return ""
	}
	if _, isString := value.(string); !isString {
		if f, err := strconv.ParseFloat(code, 64); err == nil && f == 0 {
			return ""
		}
	}
	return code
}

func diagnostic(body map[string]any, raw []byte) string {
	if msg := faultString(body); msg != "" {
		return msg
	}
	if msg := core.StringValue(body[core.ResultMessageField]); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return msg
	}
	return "access token rejected"
}
