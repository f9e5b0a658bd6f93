package auth

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"

	"github.com/goliatone/go-etims/core"
	"github.com/goliatone/go-etims/transport"
)

const grantTypeClientCredentials = "client_credentials"

func (c *Client) exchange(ctx context.Context) (core.CachedToken, error) {
	creds := c.config.Credentials
	env := c.config.Environment
	if !creds.Complete() {
		return core.CachedToken{}, core.NewAuthError(
			0,
			"consumer key and secret are required for the "+env.String()+" environment",
			nil,
		)
	}
	if creds.TokenURL == "" {
		return core.CachedToken{}, core.NewAuthError(
			0,
			"token url is not configured for the "+env.String()+" environment",
			nil,
		)
	}

	form := url.Values{}
	form.Set("grant_type", grantTypeClientCredentials)

	c.observer.Log(ctx, "debug", "etims token exchange started", map[string]any{
		"environment": env.String(),
		"token_url":   creds.TokenURL,
	})
	res, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    creds.TokenURL,
		Headers: map[string]string{
			"Authorization": basicAuthorization(creds.ConsumerKey, creds.ConsumerSecret),
			"Content-Type":  "application/x-www-form-urlencoded",
			"Accept":        "application/json",
		},
		Body:    []byte(form.Encode()),
		Timeout: c.config.Timeout,
	})
	if err != nil {
		return core.CachedToken{}, core.NewAuthError(0, "credential exchange request failed", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return core.CachedToken{}, core.NewAuthError(res.StatusCode, diagnosticMessage(res.StatusCode, res.Body), nil)
	}

	token, err := parseTokenResponse(res.Body, c.config.Now())
	if err != nil {
		return core.CachedToken{}, core.NewAuthError(res.StatusCode, err.Error(), nil)
	}
	token.Environment = env
	return token, nil
}

func basicAuthorization(key string, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(key+":"+secret))
}
