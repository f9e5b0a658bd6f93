package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/goliatone/go-etims/core"
	"github.com/goliatone/go-etims/transport"
)

var (
	errTokenResponseNotObject = errors.New("token response is not a json object")
	errTokenResponseMissing   = errors.New("token response is missing access_token")
)

func parseTokenResponse(body []byte, now time.Time) (core.CachedToken, error) {
	payload, ok := transport.DecodeObject(body)
	if !ok {
		return core.CachedToken{}, errTokenResponseNotObject
	}
	value := readString(payload, "access_token", "token")
	if value == "" {
		return core.CachedToken{}, errTokenResponseMissing
	}
	token := core.CachedToken{Value: value, IssuedAt: now.UTC()}
	if seconds, ok := readSeconds(payload, "expires_in"); ok && seconds > 0 {
		expiresAt := now.UTC().Add(time.Duration(seconds) * time.Second)
		token.ExpiresAt = &expiresAt
		return token, nil
	}
	if expiresAt, ok := jwtExpiry(value); ok {
		token.ExpiresAt = &expiresAt
	}
	return token, nil
}

// jwtExpiry reads the exp claim without verifying the signature; the token
// is only inspected to schedule renewal.
func jwtExpiry(raw string) (time.Time, bool) {
	if strings.Count(raw, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.UTC(), true
}

// diagnosticMessage picks the most specific error text the token endpoint
// returned.
func diagnosticMessage(status int, body []byte) string {
	if payload, ok := transport.DecodeObject(body); ok {
		if msg := readString(payload, "error_description", "error", "message", "errorMessage"); msg != "" {
			return msg
		}
		if fault, ok := payload["fault"].(map[string]any); ok {
			if msg := readString(fault, "faultstring"); msg != "" {
				return msg
			}
		}
	}
	if raw := strings.TrimSpace(string(body)); raw != "" {
		return raw
	}
	if text := http.StatusText(status); text != "" {
		return "token endpoint returned " + strconv.Itoa(status) + " " + text
	}
	return "token endpoint returned status " + strconv.Itoa(status)
}
