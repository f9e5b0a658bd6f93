package transport

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/http"
	"time"

	"github.com/goliatone/go-etims/core"
)

const defaultClientTimeout = 30 * time.Second

type ClientOptions struct {
	Timeout time.Duration
	// RootCAs replaces the system pool when set.
	RootCAs *x509.CertPool
}

// NewHTTPClient builds a client that always verifies server certificates.
func NewHTTPClient(opts ClientOptions) (*http.Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, core.NewInternalError("transport: default http transport is not an *http.Transport", nil)
	}
	rt := base.Clone()
	rt.TLSClientConfig = &tls.Config{
		MinVersion: tls.VersionTLS12,
		RootCAs:    opts.RootCAs,
	}
	rt.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
	rt.TLSHandshakeTimeout = timeout
	return &http.Client{Timeout: timeout, Transport: rt}, nil
}

func MustHTTPClient(opts ClientOptions) *http.Client {
	client, err := NewHTTPClient(opts)
	if err != nil {
		panic(err)
	}
	return client
}

func ensureVerifiedTLS(doer HTTPDoer) error {
	client, ok := doer.(*http.Client)
	if !ok || client == nil {
		return nil
	}
	rt, ok := client.Transport.(*http.Transport)
	if !ok || rt == nil || rt.TLSClientConfig == nil {
		return nil
	}
	if rt.TLSClientConfig.InsecureSkipVerify {
		return misconfigured(nil, "transport: tls certificate verification must stay enabled", nil)
	}
	return nil
}
